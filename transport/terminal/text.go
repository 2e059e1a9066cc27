package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/wricardo/pushbox/game/engine"
)

// RuneInput reads one non-space rune per token, the way a line-buffered
// terminal delivers keystrokes. "wasd\n" yields four tokens.
type RuneInput struct {
	r *bufio.Reader
}

// NewRuneInput wraps r.
func NewRuneInput(r io.Reader) *RuneInput {
	return &RuneInput{r: bufio.NewReader(r)}
}

// Next returns the next non-space rune as a token. It blocks on the
// underlying reader; ctx is only checked between runes.
func (in *RuneInput) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		r, _, err := in.r.ReadRune()
		if err != nil {
			return "", err
		}
		if unicode.IsSpace(r) {
			continue
		}
		return string(r), nil
	}
}

// TextRenderer prints the bordered board followed by the last message.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer writes frames to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (t *TextRenderer) Render(state *engine.GameState, glyphs engine.Glyphs) error {
	var b strings.Builder
	for _, line := range state.Board {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if state.Message != "" {
		b.WriteString(state.Message)
		b.WriteByte('\n')
	}
	_, err := fmt.Fprint(t.w, b.String())
	return err
}
