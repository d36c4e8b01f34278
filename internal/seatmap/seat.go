// Package seatmap is the per-date seat universe: a fixed rows x cols grid and,
// for each date, a lazily generated set of seats already taken by the crowd.
package seatmap

import (
	"sort"
	"strconv"
)

// MaxRows is the number of row letters available (A..Z).
const MaxRows = 26

// SeatID names a seat by row letter and 1-based column, e.g. "A1" or "J12".
type SeatID string

// ID derives the seat id for a 0-based row and column.
func ID(row, col int) SeatID {
	return SeatID(string(rune('A'+row)) + strconv.Itoa(col+1))
}

// Parse splits a seat id back into its 0-based row and column.
func Parse(id SeatID) (row, col int, ok bool) {
	s := string(id)
	if len(s) < 2 || s[0] < 'A' || s[0] > 'Z' {
		return 0, 0, false
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 1 || s[1] == '0' || s[1] == '+' {
		return 0, 0, false
	}
	return int(s[0] - 'A'), n - 1, true
}

// Date is a selectable performance date.
type Date struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// TakenSet is the set of seats reserved for one date.
// It only grows: seats are added by the initial crowd, by the crowd during
// play, by stealing and by the user's confirmed reservations.
type TakenSet struct {
	seats map[SeatID]struct{}
}

func newTakenSet() *TakenSet {
	return &TakenSet{seats: make(map[SeatID]struct{})}
}

// Has reports whether id is taken.
func (t *TakenSet) Has(id SeatID) bool {
	_, ok := t.seats[id]
	return ok
}

// Add marks id as taken. Returns false if it already was.
func (t *TakenSet) Add(id SeatID) bool {
	if t.Has(id) {
		return false
	}
	t.seats[id] = struct{}{}
	return true
}

// Len returns the number of taken seats.
func (t *TakenSet) Len() int {
	return len(t.seats)
}

// IDs returns the taken seats ordered by row, then column.
func (t *TakenSet) IDs() []SeatID {
	out := make([]SeatID, 0, len(t.seats))
	for id := range t.seats {
		out = append(out, id)
	}
	SortIDs(out)
	return out
}

// SortIDs orders seat ids by row, then column ("A2" before "A10").
func SortIDs(ids []SeatID) {
	sort.Slice(ids, func(i, j int) bool {
		ri, ci, _ := Parse(ids[i])
		rj, cj, _ := Parse(ids[j])
		if ri != rj {
			return ri < rj
		}
		return ci < cj
	})
}
