package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/ticketwar/internal/engine"
	"github.com/roach88/ticketwar/internal/seatmap"
)

// Model is a read-only picture of the App for one frame.
type Model struct {
	Screen     Screen
	Variant    string
	Dates      []seatmap.Date
	DateCursor int
	Rows, Cols int
	Cells      []engine.SeatCell
	CursorRow  int
	CursorCol  int
	Session    engine.Snapshot
	Message    string
}

// Seat cell glyphs. The cursor replaces the brackets with angle brackets.
const (
	glyphFree     = ' '
	glyphTaken    = 'x'
	glyphSelected = '*'
)

// Render draws m as text lines, top to bottom.
func Render(m Model) []string {
	lines := []string{banner(m), ""}
	switch m.Screen {
	case ScreenStart:
		lines = append(lines, renderStart(m)...)
	case ScreenDates:
		lines = append(lines, renderDates(m)...)
	case ScreenSeats:
		lines = append(lines, renderSeats(m)...)
	case ScreenConfirmation:
		lines = append(lines, renderConfirmation(m)...)
	}
	if m.Message != "" {
		lines = append(lines, "", m.Message)
	}
	return lines
}

func banner(m Model) string {
	title := "TICKET WAR"
	if m.Variant != "" {
		title += " [" + m.Variant + "]"
	}
	d := m.Session.Demand
	if d.Display == "" {
		return title
	}
	if d.SpikeActive {
		return title + "  " + d.Display + "  HIGH DEMAND"
	}
	return title + "  " + d.Display
}

func renderStart(Model) []string {
	return []string{
		"Seats are going fast. Pick a date and grab yours.",
		"",
		"Enter: start   q: quit",
	}
}

func renderDates(m Model) []string {
	lines := []string{"Choose a date:"}
	for i, d := range m.Dates {
		marker := "  "
		if i == m.DateCursor {
			marker = "> "
		}
		lines = append(lines, marker+d.Label)
	}
	return append(lines, "", "Up/Down: move   Enter: select   Esc: back   q: quit")
}

func renderSeats(m Model) []string {
	lines := []string{"Date: " + m.Session.DateLabel, ""}
	lines = append(lines, renderGrid(m)...)
	lines = append(lines, "", status(m.Session))
	return append(lines,
		"Arrows: move   Space: toggle   r/Enter: reserve   c: clear   Esc: dates   q: quit")
}

// renderGrid draws a column header and one line per row. Every cell is
// three characters wide.
func renderGrid(m Model) []string {
	var header strings.Builder
	header.WriteString("   ")
	for c := 0; c < m.Cols; c++ {
		fmt.Fprintf(&header, "%3s", strconv.Itoa(c+1))
	}
	lines := []string{header.String()}

	for r := 0; r < m.Rows; r++ {
		var b strings.Builder
		fmt.Fprintf(&b, "%c  ", 'A'+r)
		for c := 0; c < m.Cols; c++ {
			left, right := '[', ']'
			if r == m.CursorRow && c == m.CursorCol {
				left, right = '<', '>'
			}
			b.WriteRune(left)
			b.WriteRune(cellGlyph(m, r, c))
			b.WriteRune(right)
		}
		lines = append(lines, b.String())
	}
	return lines
}

func cellGlyph(m Model, r, c int) rune {
	i := r*m.Cols + c
	if i >= len(m.Cells) {
		return glyphFree
	}
	switch cell := m.Cells[i]; {
	case cell.Taken:
		return glyphTaken
	case cell.Selected:
		return glyphSelected
	}
	return glyphFree
}

func status(s engine.Snapshot) string {
	parts := []string{"Selected: " + seatList(s.Selection)}
	parts = append(parts, "Attempts: "+strconv.Itoa(s.Attempts))
	if s.RemainingAttempts >= 0 {
		parts = append(parts, "Left: "+strconv.Itoa(s.RemainingAttempts))
	}
	if s.InFlight {
		parts = append(parts, "Queued")
	}
	if s.CooldownSeconds > 0 {
		parts = append(parts, fmt.Sprintf("Wait: %ds", s.CooldownSeconds))
	}
	if s.HoldSeconds > 0 {
		parts = append(parts, fmt.Sprintf("Time left: %d:%02d", s.HoldSeconds/60, s.HoldSeconds%60))
	}
	return strings.Join(parts, "   ")
}

func seatList(ids []seatmap.SeatID) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

func renderConfirmation(m Model) []string {
	return []string{
		"Reservation confirmed!",
		"",
		"Date:  " + m.Session.LastResult.DateLabel,
		"Seats: " + seatList(m.Session.Confirmed),
		"",
		"Enter: play again   q: quit",
	}
}
