package engine

import (
	"errors"
	"fmt"
)

// GridView is read-only access to a grid, as consumed by renderers.
type GridView interface {
	Width() int
	Height() int
	At(pos Position) Flag
}

// GridState owns the cell flags and the actor position. It is not safe for
// concurrent use; callers serialize access.
type GridState struct {
	width  int
	height int
	cells  []Flag
	actor  Position
	goals  []Position
}

// NewGridState returns a grid initialized with the default layout.
func NewGridState() *GridState {
	return mustParseLayout(DefaultLayout)
}

// Width returns the number of columns.
func (g *GridState) Width() int { return g.width }

// Height returns the number of rows.
func (g *GridState) Height() int { return g.height }

// ActorPosition returns where the actor currently stands.
func (g *GridState) ActorPosition() Position { return g.actor }

// InBounds reports whether pos lies on the grid.
func (g *GridState) InBounds(pos Position) bool {
	return pos.X >= 0 && pos.X < g.width && pos.Y >= 0 && pos.Y < g.height
}

// At returns the flags of the cell at pos. pos must be in bounds.
func (g *GridState) At(pos Position) Flag {
	return g.cells[g.index(pos)]
}

func (g *GridState) index(pos Position) int {
	if !g.InBounds(pos) {
		panic(fmt.Sprintf("engine: position %v outside %dx%d grid", pos, g.width, g.height))
	}
	return pos.Y*g.width + pos.X
}

func (g *GridState) set(pos Position, f Flag) {
	i := g.index(pos)
	g.cells[i] = g.cells[i].With(f)
}

func (g *GridState) clear(pos Position, f Flag) {
	i := g.index(pos)
	g.cells[i] = g.cells[i].Without(f)
}

// chainLength walks from the cell next to the actor in direction dir and
// counts consecutive objects. ok is false when the walk leaves the grid before
// reaching a free cell; end is then the first out-of-bounds position, otherwise
// it is the free landing cell.
func (g *GridState) chainLength(dir Direction) (n int, end Position, ok bool) {
	d := dir.Vector()
	end = g.actor.Add(d)
	for {
		if !g.InBounds(end) {
			return n, end, false
		}
		if !g.At(end).Has(HasObject) {
			return n, end, true
		}
		n++
		end = end.Add(d)
	}
}

// AttemptMove moves the actor one cell in dir, pushing any chain of objects in
// front of it. If the actor or the chain would leave the grid the move is
// rejected and the grid is left untouched.
func (g *GridState) AttemptMove(dir Direction) Move {
	from := g.actor
	m := Move{Direction: dir, Dir: dir.String(), From: from, To: from}

	n, end, ok := g.chainLength(dir)
	if !ok {
		m.Outcome = OutcomeBlocked
		m.Chain = n
		m.BlockedAt = &end
		return m
	}

	next := from.Add(dir.Vector())
	g.clear(from, HasActor)
	g.clear(next, HasObject)
	g.set(next, HasActor)
	g.actor = next

	m.To = next
	m.Chain = n
	m.Outcome = OutcomeMoved
	if n > 0 {
		// Interior objects keep their cells; only the lead one lands on a new cell.
		landing := from.Add(dir.Vector().Scale(n + 1))
		g.set(landing, HasObject)
		m.Landing = &landing
		m.Outcome = OutcomePushed
	}
	return m
}

// CanMove reports whether AttemptMove(dir) would be accepted.
func (g *GridState) CanMove(dir Direction) bool {
	_, _, ok := g.chainLength(dir)
	return ok
}

// Clone returns an independent copy of the grid.
func (g *GridState) Clone() *GridState {
	c := *g
	c.cells = append([]Flag(nil), g.cells...)
	c.goals = append([]Position(nil), g.goals...)
	return &c
}

// Equal reports whether two grids hold identical flags and actor position.
func (g *GridState) Equal(o *GridState) bool {
	if g.width != o.width || g.height != o.height || g.actor != o.actor {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

var (
	ErrActorCount    = errors.New("grid must hold exactly one actor")
	ErrActorMismatch = errors.New("actor position disagrees with actor flag")
	ErrOverlap       = errors.New("actor and object share a cell")
	ErrGoalsChanged  = errors.New("goal cells changed after initialization")
)

// Validate checks the grid invariants: one actor whose flag matches the
// tracked position, no actor/object overlap, and the goal cells recorded at
// initialization.
func (g *GridState) Validate() error {
	actors := 0
	goals := 0
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			pos := Position{X: x, Y: y}
			f := g.At(pos)
			if f.Has(HasActor) {
				actors++
				if pos != g.actor {
					return fmt.Errorf("%w: flag at %v, tracked %v", ErrActorMismatch, pos, g.actor)
				}
				if f.Has(HasObject) {
					return fmt.Errorf("%w at %v", ErrOverlap, pos)
				}
			}
			if f.Has(IsGoal) {
				goals++
			}
		}
	}
	if actors != 1 {
		return fmt.Errorf("%w, found %d", ErrActorCount, actors)
	}
	if goals != len(g.goals) {
		return fmt.Errorf("%w: %d goal cells, expected %d", ErrGoalsChanged, goals, len(g.goals))
	}
	for _, pos := range g.goals {
		if !g.At(pos).Has(IsGoal) {
			return fmt.Errorf("%w: %v lost its goal flag", ErrGoalsChanged, pos)
		}
	}
	return nil
}
