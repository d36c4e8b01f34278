// Package tui is the terminal front end for an interactive session.
//
// It is split in three layers:
//   - App owns the engine session and the screen state and turns keys into
//     engine calls
//   - Render is a pure function from a Model to text lines
//   - Run paints those lines with tcell and feeds keys through a sched.Loop
//
// CRITICAL: App is not safe for concurrent use. Run calls it only from the
// loop goroutine, the same goroutine the session's timers execute on.
package tui
