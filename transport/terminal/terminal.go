package terminal

import (
	"context"
	"errors"
	"io"

	"github.com/wricardo/pushbox/game/engine"
	"github.com/wricardo/pushbox/game/render"
)

// InputSource produces input tokens. Returning io.EOF ends the game loop
// cleanly.
type InputSource interface {
	Next(ctx context.Context) (string, error)
}

// Renderer displays a decorated game state.
type Renderer interface {
	Render(state *engine.GameState, glyphs engine.Glyphs) error
}

// Chime reacts audibly to the outcome of a move.
type Chime interface {
	Play(outcome engine.Outcome)
}

// Option configures Run.
type Option func(*loop)

// WithChime plays c after every move.
func WithChime(c Chime) Option {
	return func(l *loop) { l.chime = c }
}

// WithMoveHook calls fn after every move, before the board is redrawn.
func WithMoveHook(fn func(engine.Move)) Option {
	return func(l *loop) { l.hooks = append(l.hooks, fn) }
}

type loop struct {
	chime Chime
	hooks []func(engine.Move)
}

// Run draws the board, then reads a token, resolves it and redraws, until the
// input is exhausted or ctx is cancelled. Exhausted input returns nil.
func Run(ctx context.Context, eng engine.Engine, in InputSource, out Renderer, opts ...Option) error {
	l := &loop{}
	for _, opt := range opts {
		opt(l)
	}

	if err := draw(eng, out); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		token, err := in.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		m := eng.Move(token)
		if l.chime != nil {
			l.chime.Play(m.Outcome)
		}
		for _, hook := range l.hooks {
			hook(m)
		}

		if err := draw(eng, out); err != nil {
			return err
		}
	}
}

func draw(eng engine.Engine, out Renderer) error {
	glyphs := eng.GetProfile().Glyphs
	state := eng.GetState()
	render.Decorate(state, glyphs)
	return out.Render(state, glyphs)
}
