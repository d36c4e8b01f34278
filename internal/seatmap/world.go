package seatmap

import (
	"fmt"
	"math"

	"github.com/roach88/ticketwar/internal/random"
)

// maxDrawsPerSeat bounds random sampling during TakenSet generation.
const maxDrawsPerSeat = 64

// World owns the grid and the per-date TakenSets.
//
// Not safe for concurrent use; it is only touched from the session's
// scheduler goroutine.
type World struct {
	rows, cols  int
	dates       []Date
	ratioMin    float64
	ratioMax    float64
	src         random.Source
	taken       map[string]*TakenSet
	initialSize map[string]int
}

// NewWorld creates a seat world. ratioMin and ratioMax bound the share of
// seats pre-taken on a date's first access and must be below 1.
func NewWorld(rows, cols int, dates []Date, ratioMin, ratioMax float64, src random.Source) (*World, error) {
	if rows < 1 || rows > MaxRows {
		return nil, fmt.Errorf("rows must be in [1,%d], got %d", MaxRows, rows)
	}
	if cols < 1 {
		return nil, fmt.Errorf("cols must be positive, got %d", cols)
	}
	if ratioMin < 0 || ratioMin > ratioMax || ratioMax >= 1 {
		return nil, fmt.Errorf("pre-taken ratio bounds [%v,%v] must satisfy 0 <= min <= max < 1", ratioMin, ratioMax)
	}
	return &World{
		rows:        rows,
		cols:        cols,
		dates:       append([]Date(nil), dates...),
		ratioMin:    ratioMin,
		ratioMax:    ratioMax,
		src:         src,
		taken:       make(map[string]*TakenSet),
		initialSize: make(map[string]int),
	}, nil
}

// Rows returns the grid height.
func (w *World) Rows() int { return w.rows }

// Cols returns the grid width.
func (w *World) Cols() int { return w.cols }

// Capacity returns rows*cols.
func (w *World) Capacity() int { return w.rows * w.cols }

// Dates returns the fixed date list in display order.
func (w *World) Dates() []Date {
	return append([]Date(nil), w.dates...)
}

// Date looks up a date by id.
func (w *World) Date(id string) (Date, bool) {
	for _, d := range w.dates {
		if d.ID == id {
			return d, true
		}
	}
	return Date{}, false
}

// Contains reports whether id names a seat inside the grid.
func (w *World) Contains(id SeatID) bool {
	row, col, ok := Parse(id)
	return ok && row < w.rows && col < w.cols
}

// Seats returns every seat id in row-major order.
func (w *World) Seats() []SeatID {
	out := make([]SeatID, 0, w.Capacity())
	for r := 0; r < w.rows; r++ {
		for c := 0; c < w.cols; c++ {
			out = append(out, ID(r, c))
		}
	}
	return out
}

// Taken returns the TakenSet for dateID, generating it on first access.
//
// Generation draws a ratio from [ratioMin, ratioMax), targets
// floor(rows*cols*ratio) seats and samples uniform (row, col) pairs until the
// set holds exactly that many. Later calls return the same pointer; the set
// is never regenerated.
func (w *World) Taken(dateID string) *TakenSet {
	if t, ok := w.taken[dateID]; ok {
		return t
	}

	ratio := random.Range(w.src, w.ratioMin, w.ratioMax)
	target := int(math.Floor(float64(w.Capacity()) * ratio))

	t := newTakenSet()
	budget := w.Capacity() * maxDrawsPerSeat
	for draws := 0; t.Len() < target && draws < budget; draws++ {
		r := random.IntRange(w.src, 0, w.rows)
		c := random.IntRange(w.src, 0, w.cols)
		t.Add(ID(r, c))
	}
	// A degenerate source (constant draws in tests) cannot stall generation:
	// top up in row-major order.
	for _, id := range w.Seats() {
		if t.Len() >= target {
			break
		}
		t.Add(id)
	}

	w.taken[dateID] = t
	w.initialSize[dateID] = t.Len()
	return t
}

// Seed materializes dateID with exactly the given taken seats instead of a
// random draw. It fails if the date was already opened or a seat is outside
// the grid. Scenario files use it to pin the starting layout.
func (w *World) Seed(dateID string, ids []SeatID) error {
	if _, ok := w.taken[dateID]; ok {
		return fmt.Errorf("date %q already materialized", dateID)
	}
	t := newTakenSet()
	for _, id := range ids {
		if !w.Contains(id) {
			return fmt.Errorf("seat %q outside %dx%d grid", id, w.rows, w.cols)
		}
		t.Add(id)
	}
	w.taken[dateID] = t
	w.initialSize[dateID] = t.Len()
	return nil
}

// InitialTaken returns how many seats were pre-taken when dateID was first
// opened, and false if it has not been opened yet.
func (w *World) InitialTaken(dateID string) (int, bool) {
	n, ok := w.initialSize[dateID]
	return n, ok
}

// Free returns the seats of dateID not yet taken, in row-major order.
func (w *World) Free(dateID string) []SeatID {
	taken := w.Taken(dateID)
	free := make([]SeatID, 0, w.Capacity()-taken.Len())
	for _, id := range w.Seats() {
		if !taken.Has(id) {
			free = append(free, id)
		}
	}
	return free
}
