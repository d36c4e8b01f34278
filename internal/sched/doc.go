// Package sched owns every timer in a ticket-war session.
//
// The game is single-threaded and timer driven: the demand random walk, the
// spike on/off chain, cooldown and hold countdowns and the queue-token delay
// are all deferred callbacks against one Scheduler. Callbacks never run
// concurrently with each other or with the calls that drive a session.
//
// Two implementations:
//
// Manual:
// A virtual clock advanced explicitly with Advance. Due callbacks fire inline,
// in due-time order, ties broken by a logical sequence from Clock. Tests and
// the batch simulator use it, so a whole session plays out without sleeping.
//
// Loop:
// Wall-clock timers whose callbacks are posted to a FIFO queue drained by a
// single goroutine (Run). Other goroutines (the terminal event reader) reach
// session state only through Post or Do.
//
// Every timer returns a Timer handle; holders keep it next to the state the
// callback mutates and Stop it when superseded.
package sched
