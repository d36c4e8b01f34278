package sim

import (
	"context"
	"time"

	"github.com/roach88/ticketwar/internal/engine"
	"github.com/roach88/ticketwar/internal/random"
	"github.com/roach88/ticketwar/internal/sched"
	"github.com/roach88/ticketwar/internal/seatmap"
)

type bot struct {
	opts    Options
	clock   *sched.Manual
	rng     random.Source
	session *engine.Session

	results []engine.Result
}

func (b *bot) onEvent(ev engine.Event) {
	if ev.Type == engine.EventResult && ev.Result != nil {
		b.results = append(b.results, *ev.Result)
	}
}

// play drives the session until it ends and reports how.
func (b *bot) play(ctx context.Context) (Outcome, error) {
	s := b.session
	start := b.clock.Now()
	s.Start()
	defer s.Close()

	dates := s.ListDates()
	date := dates[random.IntRange(b.rng, 0, len(dates))]
	if err := s.SelectDate(date.ID); err != nil {
		return Outcome{}, err
	}

	out := Outcome{SessionID: s.ID(), DateID: date.ID}
	tries := 0
	for {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		if s.State() != engine.Selecting {
			break
		}
		if tries >= b.opts.MaxAttempts {
			out.GaveUp = true
			break
		}
		if secs := s.CooldownSeconds(); secs > 0 {
			b.clock.Advance(time.Duration(secs) * time.Second)
			continue
		}
		if !b.fill(date.ID) {
			out.SoldOut = true
			break
		}

		tries++
		if r := s.AttemptReserve(); r.Kind == engine.KindPending {
			b.awaitResult()
		}
		b.clock.Advance(b.opts.Think)
	}

	out.Attempts = s.Attempts()
	out.Elapsed = b.clock.Now().Sub(start)
	out.results = b.results
	for _, r := range b.results {
		out.Stolen += len(r.Stolen)
	}
	if last := s.LastResult(); last.Final() {
		out.Kind, out.Reason = last.Kind, last.Reason
	}
	if s.State() == engine.Confirmed {
		out.Seats = s.Confirmed()
	}

	b.opts.Logger.Debug("bot finished",
		"session", out.SessionID,
		"date", out.DateID,
		"kind", out.Kind,
		"attempts", out.Attempts,
		"elapsed", out.Elapsed)
	return out, nil
}

// fill tops the selection up to opts.Seats with random free seats. Returns
// false when nothing is selected and nothing is left to select.
func (b *bot) fill(dateID string) bool {
	s := b.session
	need := b.opts.Seats - len(s.Selection())
	if need > 0 {
		var free []seatmap.SeatID
		for _, id := range s.World().Free(dateID) {
			if !s.IsSelected(id) {
				free = append(free, id)
			}
		}
		random.Shuffle(b.rng, free)
		for _, id := range free[:min(need, len(free))] {
			_, _ = s.ToggleSeat(id)
		}
	}
	return len(s.Selection()) > 0
}

// awaitResult advances virtual time until the queued attempt resolves.
func (b *bot) awaitResult() {
	for b.session.InFlight() {
		due, ok := b.clock.NextDue()
		if !ok {
			return
		}
		b.clock.AdvanceTo(due)
	}
}
