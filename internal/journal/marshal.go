package journal

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/ticketwar/internal/seatmap"
)

const timeLayout = time.RFC3339Nano

// marshalSeats encodes a seat list as a JSON array. nil becomes "[]".
func marshalSeats(ids []seatmap.SeatID) (string, error) {
	if ids == nil {
		ids = []seatmap.SeatID{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal seats: %w", err)
	}
	return string(b), nil
}

// unmarshalSeats decodes a JSON seat array. An empty array decodes to nil.
func unmarshalSeats(s string) ([]seatmap.SeatID, error) {
	if s == "" {
		return nil, nil
	}
	var ids []seatmap.SeatID
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal seats: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}

// normalizeLabel stores labels in NFC so equal labels compare equal in SQL
// whatever form the config file used.
func normalizeLabel(s string) string {
	return norm.NFC.String(s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
