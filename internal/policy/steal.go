package policy

import (
	"math"

	"github.com/roach88/ticketwar/internal/config"
	"github.com/roach88/ticketwar/internal/random"
	"github.com/roach88/ticketwar/internal/seatmap"
)

// RaceTaken returns the selected seats that are already in taken, in
// selection order.
func RaceTaken(selection []seatmap.SeatID, taken *seatmap.TakenSet) []seatmap.SeatID {
	var raced []seatmap.SeatID
	for _, id := range selection {
		if taken.Has(id) {
			raced = append(raced, id)
		}
	}
	return raced
}

// StealCount returns how many of n selected seats a steal with the given
// fraction takes: max(1, floor(n*fraction)), never more than n.
func StealCount(n int, fraction float64) int {
	if n <= 0 {
		return 0
	}
	k := int(math.Floor(float64(n) * fraction))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// PickStolen decides which selected seats the crowd takes after a failed
// attempt.
//
// With probability cfg.Probability it draws a fraction from
// [MinRatio, MaxRatio), shuffles a copy of selection and returns its first
// StealCount seats. Returns nil when stealing is not triggered or the
// selection is empty. The draw order (gate, fraction, shuffle) is fixed so
// scripted sources stay meaningful.
func PickStolen(cfg config.Steal, src random.Source, selection []seatmap.SeatID) []seatmap.SeatID {
	if len(selection) == 0 || !random.Chance(src, cfg.Probability) {
		return nil
	}
	fraction := random.Range(src, cfg.MinRatio, cfg.MaxRatio)
	pool := append([]seatmap.SeatID(nil), selection...)
	random.Shuffle(src, pool)
	return pool[:StealCount(len(pool), fraction)]
}
