package tui

import (
	"context"
	"errors"

	"github.com/gdamore/tcell/v2"

	"github.com/roach88/ticketwar/internal/sched"
)

// Run paints app on screen until the player quits or ctx is cancelled.
//
// The screen must already be initialized; the caller owns Fini. app's
// session must have been created with loop as its scheduler: Run drains the
// loop on the calling goroutine, so keys, timers and painting never race.
func Run(ctx context.Context, screen tcell.Screen, app *App, loop *sched.Loop) error {
	draw := func() { paint(screen, Render(app.Model())) }
	app.OnChange(draw)

	loop.Post(func() {
		app.Start()
		draw()
	})
	go pollKeys(screen, loop, app, draw)

	err := loop.Run(ctx)
	app.Close()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// pollKeys forwards terminal input to the loop. It returns once the screen
// is finalized.
func pollKeys(screen tcell.Screen, loop *sched.Loop, app *App, draw func()) {
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			k := decodeKey(ev)
			if k == KeyNone {
				continue
			}
			loop.Post(func() {
				app.Handle(k)
				if app.Done() {
					loop.Stop()
					return
				}
				draw()
			})
		case *tcell.EventResize:
			loop.Post(func() {
				screen.Sync()
				draw()
			})
		}
	}
}

func decodeKey(ev *tcell.EventKey) Key {
	switch ev.Key() {
	case tcell.KeyUp:
		return KeyUp
	case tcell.KeyDown:
		return KeyDown
	case tcell.KeyLeft:
		return KeyLeft
	case tcell.KeyRight:
		return KeyRight
	case tcell.KeyEnter:
		return KeyEnter
	case tcell.KeyEscape:
		return KeyBack
	case tcell.KeyCtrlC:
		return KeyQuit
	case tcell.KeyRune:
		switch ev.Rune() {
		case ' ':
			return KeyToggle
		case 'r', 'R':
			return KeyReserve
		case 'c', 'C':
			return KeyClear
		case 'q', 'Q':
			return KeyQuit
		case 'k':
			return KeyUp
		case 'j':
			return KeyDown
		case 'h':
			return KeyLeft
		case 'l':
			return KeyRight
		}
	}
	return KeyNone
}

var (
	styleText   = tcell.StyleDefault
	styleBanner = tcell.StyleDefault.Bold(true)
)

func paint(screen tcell.Screen, lines []string) {
	screen.Clear()
	for y, line := range lines {
		style := styleText
		if y == 0 {
			style = styleBanner
		}
		x := 0
		for _, r := range line {
			screen.SetContent(x, y, r, nil, style)
			x++
		}
	}
	screen.Show()
}
