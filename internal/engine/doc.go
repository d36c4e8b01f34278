// Package engine implements the ticket-war reservation session.
//
// A Session owns one player's run: the seat world, the demand signal, the
// selection, the attempt bookkeeping and every timer that mutates them.
//
// ARCHITECTURE:
//
// Single-Writer Session:
// A Session is not safe for concurrent use. Every public method and every
// timer callback runs on one goroutine: the caller of Manual.Advance in tests
// and the batch simulator, or the goroutine running sched.Loop in the
// terminal UI. No locking is needed because nothing else touches the state.
//
// State Machine:
//
//	Idle --SelectDate--> Selecting --AttemptReserve--> Attempting (token wait)
//	Selecting <--recoverable failure-- Attempting
//	Attempting/Selecting --win--> Confirmed
//	Attempting/Selecting --budget spent--> Exhausted
//	any state --hold expired--> Idle
//	any state --SelectDate--> Selecting
//
// Attempt Pipeline:
//  1. precondition: date chosen, seats selected, not cooling down, nothing
//     in flight; otherwise NoOp with no state change
//  2. rate limiter (rolling window) -> RateLimited + cooldown
//  3. queue token (optional): Pending now, final result after a random delay
//  4. race check: selected seats taken since selection -> Failed{race_taken}
//  5. probability roll -> Confirmed, or Failed{lost_race} with seat stealing
//
// Results:
// Game outcomes are values (Result), never errors. Final results, whether
// returned synchronously or resolved by a timer, are delivered to the
// listener as EventResult and written to the journal.
//
// Determinism:
// Randomness comes from injected random.Source values and time from an
// injected sched.Scheduler. With sched.Manual and scripted sources a session
// replays exactly.
package engine
