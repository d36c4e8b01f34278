package engine

import (
	"fmt"

	"github.com/roach88/ticketwar/internal/seatmap"
)

// SelectDate makes id the active date and starts over on it.
//
// It materializes the date's TakenSet, clears the selection, resets the
// attempt budget, failure streak and cooldown, cancels any attempt in flight
// and restarts the hold countdown when one is configured. It is also the way
// out of Confirmed and Exhausted. The rate-limit window is kept: switching
// dates does not buy extra attempts.
func (s *Session) SelectDate(id string) error {
	if _, ok := s.world.Date(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDate, id)
	}

	s.stopAttemptTimers()
	s.resetAttemptState()
	s.world.Taken(id)
	s.dateID = id
	s.state = Selecting
	s.last = Result{}
	s.startHold()

	s.logger.Debug("date selected", "session", s.id, "date", id, "hold", s.hold)
	s.emit(Event{Type: EventDateSelected, DateID: id})
	return nil
}

// ToggleSeat adds id to the selection, or removes it if already selected.
//
// Returns true when the selection changed. A taken seat, no active date or
// any state other than Selecting makes the call a no-op returning false.
// A malformed id or one outside the grid is ErrUnknownSeat.
func (s *Session) ToggleSeat(id seatmap.SeatID) (bool, error) {
	if !s.world.Contains(id) {
		return false, fmt.Errorf("%w: %q", ErrUnknownSeat, id)
	}
	if s.state != Selecting || s.dateID == "" {
		return false, nil
	}
	if i := s.selectedIndex(id); i >= 0 {
		s.selection = append(s.selection[:i], s.selection[i+1:]...)
		return true, nil
	}
	if s.world.Taken(s.dateID).Has(id) {
		return false, nil
	}
	s.selection = append(s.selection, id)
	return true, nil
}

// ClearSelection empties the selection. No-op outside Selecting.
func (s *Session) ClearSelection() {
	if s.state != Selecting {
		return
	}
	s.selection = nil
}

// IsSelected reports whether id is in the selection.
func (s *Session) IsSelected(id seatmap.SeatID) bool {
	return s.selectedIndex(id) >= 0
}

func (s *Session) selectedIndex(id seatmap.SeatID) int {
	for i, sel := range s.selection {
		if sel == id {
			return i
		}
	}
	return -1
}

// removeFromSelection drops every seat in ids from the selection, keeping
// the order of the rest.
func (s *Session) removeFromSelection(ids []seatmap.SeatID) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[seatmap.SeatID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.selection[:0]
	for _, id := range s.selection {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	s.selection = kept
}

// SeatCell is one seat of the read projection.
type SeatCell struct {
	ID       seatmap.SeatID `json:"id" yaml:"id"`
	Row      int            `json:"row" yaml:"row"`
	Col      int            `json:"col" yaml:"col"`
	Taken    bool           `json:"taken" yaml:"taken"`
	Selected bool           `json:"selected" yaml:"selected"`
}

// SeatView projects every seat of dateID in row-major order.
//
// A seat the crowd grabbed while selected shows as taken and not selected,
// even though it stays in the selection until the next attempt's race check.
func (s *Session) SeatView(dateID string) ([]SeatCell, error) {
	if _, ok := s.world.Date(dateID); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDate, dateID)
	}
	taken := s.world.Taken(dateID)
	active := dateID == s.dateID

	cells := make([]SeatCell, 0, s.world.Capacity())
	for r := 0; r < s.world.Rows(); r++ {
		for c := 0; c < s.world.Cols(); c++ {
			id := seatmap.ID(r, c)
			cell := SeatCell{ID: id, Row: r, Col: c, Taken: taken.Has(id)}
			cell.Selected = active && !cell.Taken && s.IsSelected(id)
			cells = append(cells, cell)
		}
	}
	return cells, nil
}
