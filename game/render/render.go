// Package render draws a grid view as text.
package render

import (
	"strings"

	"github.com/wricardo/pushbox/game/engine"
)

// Glyph returns the rune drawing a cell with the given flags. An actor or
// object on a goal gets its own glyph; an actor wins over an object.
func Glyph(f engine.Flag, glyphs engine.Glyphs) rune {
	r := glyphs.Runes()
	switch {
	case f.Has(engine.HasActor) && f.Has(engine.IsGoal):
		return r[5]
	case f.Has(engine.HasActor):
		return r[2]
	case f.Has(engine.HasObject) && f.Has(engine.IsGoal):
		return r[4]
	case f.Has(engine.HasObject):
		return r[1]
	case f.Has(engine.IsGoal):
		return r[3]
	default:
		return r[0]
	}
}

// Text draws view as lines surrounded by a wall border.
func Text(view engine.GridView, glyphs engine.Glyphs) []string {
	wall := glyphs.Runes()[6]
	edge := strings.Repeat(string(wall), view.Width()+2)

	lines := make([]string, 0, view.Height()+2)
	lines = append(lines, edge)
	for y := 0; y < view.Height(); y++ {
		var b strings.Builder
		b.WriteRune(wall)
		for x := 0; x < view.Width(); x++ {
			b.WriteRune(Glyph(view.At(engine.Position{X: x, Y: y}), glyphs))
		}
		b.WriteRune(wall)
		lines = append(lines, b.String())
	}
	return append(lines, edge)
}

// Local3x3 draws the 3x3 window centred on pos. Cells outside the grid are
// drawn as walls.
func Local3x3(view engine.GridView, pos engine.Position, glyphs engine.Glyphs) []string {
	wall := glyphs.Runes()[6]
	lines := make([]string, 0, 3)
	for dy := -1; dy <= 1; dy++ {
		var b strings.Builder
		for dx := -1; dx <= 1; dx++ {
			p := engine.Position{X: pos.X + dx, Y: pos.Y + dy}
			if p.X < 0 || p.Y < 0 || p.X >= view.Width() || p.Y >= view.Height() {
				b.WriteRune(wall)
				continue
			}
			b.WriteRune(Glyph(view.At(p), glyphs))
		}
		lines = append(lines, b.String())
	}
	return lines
}

// Board joins the bordered text with newlines.
func Board(view engine.GridView, glyphs engine.Glyphs) string {
	return strings.Join(Text(view, glyphs), "\n") + "\n"
}

// Decorate fills the computed Board and LocalView3x3 fields of a snapshot.
func Decorate(state *engine.GameState, glyphs engine.Glyphs) {
	view := engine.SnapshotView(state.Grid)
	state.Board = Text(view, glyphs)
	state.LocalView3x3 = Local3x3(view, state.ActorPos, glyphs)
}
