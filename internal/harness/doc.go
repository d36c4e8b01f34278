// Package harness runs scripted game scenarios against the real engine.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: steal_on_loss
//	description: "A losing roll steals one of two seats"
//	session_id: scenario-session-0001
//	variant: normal
//	config:
//	  occupancy: { pretaken_min: 0, pretaken_max: 0 }
//	rolls: [0.99, 0.3, 0.99]
//	taken:
//	  "2025-12-23": [B1]
//	demand: { concurrency: 31500, spike: false }
//	steps:
//	  - do: select_date
//	    date: "2025-12-23"
//	  - do: toggle
//	    seats: [A1, A2]
//	  - do: attempt
//	    expect: { kind: failed, reason: lost_race, stolen: [A1] }
//	  - do: advance
//	    duration: 5s
//	assertions:
//	  - type: selected
//	    seats: [A2]
//	  - type: taken
//	    date: "2025-12-23"
//	    seats: [A1, B1]
//
// config is decoded over the variant preset through the same CUE schema as
// config files. rolls script every attempt decision (token outcome, roll,
// steal gate, steal fraction and shuffle draws) in order; once they run out
// each draw returns fallback_roll. Occupancy, demand and the crowd draw from a
// source seeded with seed.
//
// # Step Types
//
//   - select_date: date
//   - toggle: seats, toggled one by one
//   - clear
//   - attempt: optional expect on the returned or, for queued attempts,
//     the next final result
//   - advance: duration of virtual time
//   - restart
//
// # Assertion Types
//
//   - state: the session state
//   - selected: the exact selection, in order
//   - confirmed: the exact confirmed seats
//   - taken / not_taken: seats of a date
//   - attempts: attempt count since the date was selected
//   - cooldown: remaining cooldown seconds
//   - result_count: number of final results of a kind
//
// # Deterministic Testing
//
// Every scenario runs on a sched.Manual clock with a fixed session id and
// scripted randomness, so the trace is identical on every run and can be
// compared with a golden file (see RunWithGolden).
package harness
