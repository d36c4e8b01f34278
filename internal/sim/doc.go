// Package sim plays the game with automated bots.
//
// Each bot owns one engine.Session on its own sched.Manual clock, so a run
// of thousands of virtual minutes finishes in milliseconds and the same seed
// always produces the same Report. A bot behaves like an impatient player:
// it picks a date, selects seats, hammers the reserve action, waits out every
// cooldown and tops its selection back up after seats are stolen. It stops on
// Confirmed, Exhausted, a sold-out date or its own attempt ceiling.
//
// Bots share nothing but the optional journal, which serializes writes.
package sim
