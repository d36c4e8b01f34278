package tui

import (
	"fmt"

	"github.com/roach88/ticketwar/internal/config"
	"github.com/roach88/ticketwar/internal/engine"
	"github.com/roach88/ticketwar/internal/seatmap"
)

// Screen is the page the player is on.
type Screen int

const (
	ScreenStart Screen = iota
	ScreenDates
	ScreenSeats
	ScreenConfirmation
)

var screenNames = [...]string{"start", "dates", "seats", "confirmation"}

func (s Screen) String() string {
	if int(s) < len(screenNames) {
		return screenNames[s]
	}
	return fmt.Sprintf("Screen(%d)", int(s))
}

// Key is a player input, already decoded from the terminal.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyToggle
	KeyReserve
	KeyClear
	KeyBack
	KeyQuit
)

// App is the controller between the keyboard and one engine session.
type App struct {
	session *engine.Session
	variant string

	screen     Screen
	dateCursor int
	row, col   int
	message    string
	quit       bool

	changed func()
}

// New creates the session for cfg and the App driving it. The App listens
// to the session before any listener in opts.
func New(cfg config.Config, opts ...engine.Option) (*App, error) {
	a := &App{variant: cfg.Variant}
	opts = append([]engine.Option{engine.WithListener(a.onEvent)}, opts...)
	s, err := engine.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	a.session = s
	return a, nil
}

// Session returns the engine session.
func (a *App) Session() *engine.Session { return a.session }

// Screen returns the current screen.
func (a *App) Screen() Screen { return a.screen }

// Done reports whether the player asked to quit.
func (a *App) Done() bool { return a.quit }

// Cursor returns the seat under the cursor.
func (a *App) Cursor() seatmap.SeatID { return seatmap.ID(a.row, a.col) }

// OnChange registers fn to run after every session event, so a front end
// can repaint on timer-driven changes.
func (a *App) OnChange(fn func()) { a.changed = fn }

// Start arms the demand signal.
func (a *App) Start() { a.session.Start() }

// Close stops every session timer.
func (a *App) Close() { a.session.Close() }

// Handle applies one key.
func (a *App) Handle(k Key) {
	if k == KeyQuit {
		a.quit = true
		return
	}
	switch a.screen {
	case ScreenStart:
		if k == KeyEnter {
			a.screen = ScreenDates
			a.message = ""
		}
	case ScreenDates:
		a.handleDates(k)
	case ScreenSeats:
		a.handleSeats(k)
	case ScreenConfirmation:
		if k == KeyEnter || k == KeyBack {
			a.session.Restart()
			a.screen = ScreenStart
			a.message = ""
		}
	}
}

func (a *App) handleDates(k Key) {
	dates := a.session.ListDates()
	switch k {
	case KeyUp:
		a.dateCursor = max(a.dateCursor-1, 0)
	case KeyDown:
		a.dateCursor = min(a.dateCursor+1, len(dates)-1)
	case KeyEnter:
		if err := a.session.SelectDate(dates[a.dateCursor].ID); err != nil {
			a.message = err.Error()
			return
		}
		a.screen = ScreenSeats
		a.row, a.col = 0, 0
		a.message = ""
	case KeyBack:
		a.screen = ScreenStart
	}
}

func (a *App) handleSeats(k Key) {
	world := a.session.World()
	switch k {
	case KeyUp:
		a.row = max(a.row-1, 0)
	case KeyDown:
		a.row = min(a.row+1, world.Rows()-1)
	case KeyLeft:
		a.col = max(a.col-1, 0)
	case KeyRight:
		a.col = min(a.col+1, world.Cols()-1)
	case KeyToggle:
		changed, err := a.session.ToggleSeat(a.Cursor())
		switch {
		case err != nil:
			a.message = err.Error()
		case !changed && a.session.State() == engine.Selecting:
			a.message = fmt.Sprintf("Seat %s is not available.", a.Cursor())
		case changed:
			a.message = ""
		}
	case KeyClear:
		a.session.ClearSelection()
	case KeyReserve, KeyEnter:
		a.reserve()
	case KeyBack:
		a.screen = ScreenDates
		a.message = ""
	}
}

// reserve starts an attempt. Final results arrive through onEvent, so only
// the outcomes that never emit one are written here.
func (a *App) reserve() {
	r := a.session.AttemptReserve()
	switch r.Kind {
	case engine.KindPending:
		a.message = r.Message()
	case engine.KindNoOp:
		a.message = noOpMessage(a.session)
	}
}

func noOpMessage(s *engine.Session) string {
	switch {
	case s.State() == engine.Exhausted:
		return "No attempts left. Press Esc to choose another date."
	case s.InFlight():
		return "Still waiting for a queue token..."
	case s.CooldownSeconds() > 0:
		return fmt.Sprintf("Please wait %d seconds.", s.CooldownSeconds())
	case len(s.Selection()) == 0:
		return "Select at least one seat first."
	}
	return ""
}

func (a *App) onEvent(ev engine.Event) {
	if a.changed != nil {
		defer a.changed()
	}
	switch ev.Type {
	case engine.EventResult:
		r := ev.Result
		a.message = r.Message()
		switch {
		case r.Kind == engine.KindConfirmed:
			a.screen = ScreenConfirmation
		case r.Reason == engine.ReasonHoldExpired:
			a.screen = ScreenStart
		}
	case engine.EventCrowdGrab:
		if a.screen == ScreenSeats && a.session.IsSelected(ev.Seat) {
			a.message = fmt.Sprintf("Seat %s was just taken by someone else.", ev.Seat)
		}
	}
}

// Model collects what Render needs from the App.
func (a *App) Model() Model {
	s := a.session
	m := Model{
		Screen:     a.screen,
		Variant:    a.variant,
		Dates:      s.ListDates(),
		DateCursor: a.dateCursor,
		Rows:       s.World().Rows(),
		Cols:       s.World().Cols(),
		CursorRow:  a.row,
		CursorCol:  a.col,
		Session:    s.Snapshot(),
		Message:    a.message,
	}
	if m.Session.DateID != "" {
		if cells, err := s.SeatView(m.Session.DateID); err == nil {
			m.Cells = cells
		}
	}
	return m
}
