package terminal

import (
	"context"
	"io"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/wricardo/pushbox/game/engine"
)

var (
	boardStyle   = tcell.StyleDefault
	actorStyle   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	objectStyle  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	goalStyle    = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	messageStyle = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// Screen is a full-screen tcell front end. It is both an InputSource and a
// Renderer. Arrow keys map to direction names; other keys are passed through
// as single-rune tokens for the profile to resolve. Esc and Ctrl-C end input.
type Screen struct {
	screen tcell.Screen
	events chan tcell.Event
	once   sync.Once
}

// NewScreen initializes the terminal. Call Close to restore it.
func NewScreen() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return newScreen(s)
}

func newScreen(s tcell.Screen) (*Screen, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.Clear()

	sc := &Screen{
		screen: s,
		events: make(chan tcell.Event, 100),
	}
	go sc.poll()
	return sc, nil
}

func (sc *Screen) poll() {
	for {
		ev := sc.screen.PollEvent()
		if ev == nil {
			close(sc.events)
			return
		}
		sc.events <- ev
	}
}

// Close restores the terminal.
func (sc *Screen) Close() {
	sc.once.Do(sc.screen.Fini)
}

// keyToken maps a key press to an input token. quit reports Esc or Ctrl-C.
func keyToken(key tcell.Key, r rune) (token string, quit bool) {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return "", true
	case tcell.KeyUp:
		return engine.Up.String(), false
	case tcell.KeyDown:
		return engine.Down.String(), false
	case tcell.KeyLeft:
		return engine.Left.String(), false
	case tcell.KeyRight:
		return engine.Right.String(), false
	case tcell.KeyRune:
		return string(r), false
	}
	return "", false
}

func (sc *Screen) Next(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-sc.events:
			if !ok {
				return "", io.EOF
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				token, quit := keyToken(ev.Key(), ev.Rune())
				if quit {
					return "", io.EOF
				}
				if token != "" {
					return token, nil
				}
			case *tcell.EventResize:
				sc.screen.Sync()
			}
		}
	}
}

func styleFor(r rune, glyphs engine.Glyphs) tcell.Style {
	g := glyphs.Runes()
	switch r {
	case g[2], g[5]:
		return actorStyle
	case g[1], g[4]:
		return objectStyle
	case g[3]:
		return goalStyle
	}
	return boardStyle
}

func (sc *Screen) Render(state *engine.GameState, glyphs engine.Glyphs) error {
	sc.screen.Clear()

	const left, top = 2, 1
	y := top
	for _, line := range state.Board {
		x := left
		for _, r := range line {
			sc.screen.SetContent(x, y, r, nil, styleFor(r, glyphs))
			x++
		}
		y++
	}

	y++
	drawText(sc.screen, left, y, state.Message, messageStyle)
	drawText(sc.screen, left, y+1, "arrows or profile keys to move, Esc to quit", messageStyle)

	sc.screen.Show()
	return nil
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
