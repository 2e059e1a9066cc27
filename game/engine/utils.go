package engine

import "fmt"

// DefaultLayout is the starting field, one string per row using the
// reference glyphs: ' ' empty, '.' goal, 'o' object, 'O' object on goal,
// 'p' actor, 'P' actor on goal.
var DefaultLayout = []string{
	" .. p ",
	" oo   ",
	"      ",
}

// parseLayout builds a grid from rows of reference glyphs. It is only used for
// the built-in layout and in tests; there is no level file format.
func parseLayout(rows []string) (*GridState, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("layout is empty")
	}
	width := len(rows[0])
	g := &GridState{
		width:  width,
		height: len(rows),
		cells:  make([]Flag, width*len(rows)),
	}

	actors := 0
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", y, len(row), width)
		}
		for x, ch := range []byte(row) {
			pos := Position{X: x, Y: y}
			var f Flag
			switch ch {
			case ' ':
			case '.':
				f = IsGoal
			case 'o':
				f = HasObject
			case 'O':
				f = HasObject | IsGoal
			case 'p':
				f = HasActor
			case 'P':
				f = HasActor | IsGoal
			default:
				return nil, fmt.Errorf("invalid glyph %q at %v", ch, pos)
			}
			g.cells[g.index(pos)] = f
			if f.Has(HasActor) {
				g.actor = pos
				actors++
			}
			if f.Has(IsGoal) {
				g.goals = append(g.goals, pos)
			}
		}
	}
	if actors != 1 {
		return nil, fmt.Errorf("layout has %d actors, expected 1", actors)
	}
	return g, nil
}

func mustParseLayout(rows []string) *GridState {
	g, err := parseLayout(rows)
	if err != nil {
		panic("engine: " + err.Error())
	}
	return g
}

// GridFromView copies view into a new GridState, for example to explore
// moves from a snapshot received over the wire. The copy must hold exactly
// one actor, and a SnapshotView must be rectangular.
func GridFromView(view GridView) (*GridState, error) {
	if s, ok := view.(SnapshotView); ok {
		for y, row := range s {
			if len(row) != s.Width() {
				return nil, fmt.Errorf("row %d has %d cells, want %d", y, len(row), s.Width())
			}
		}
	}

	g := &GridState{
		width:  view.Width(),
		height: view.Height(),
		cells:  make([]Flag, view.Width()*view.Height()),
	}
	if len(g.cells) == 0 {
		return nil, fmt.Errorf("view is empty")
	}

	actors := 0
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			pos := Position{X: x, Y: y}
			f := view.At(pos)
			g.cells[g.index(pos)] = f
			if f.Has(HasActor) {
				g.actor = pos
				actors++
			}
			if f.Has(IsGoal) {
				g.goals = append(g.goals, pos)
			}
		}
	}
	if actors != 1 {
		return nil, fmt.Errorf("%w: found %d", ErrActorCount, actors)
	}
	return g, g.Validate()
}

// CountCells counts the cells of view carrying flag.
func CountCells(view GridView, flag Flag) int {
	count := 0
	for y := 0; y < view.Height(); y++ {
		for x := 0; x < view.Width(); x++ {
			if view.At(Position{X: x, Y: y}).Has(flag) {
				count++
			}
		}
	}
	return count
}

// FindCells returns the positions of view carrying flag in row-major order.
func FindCells(view GridView, flag Flag) []Position {
	var found []Position
	for y := 0; y < view.Height(); y++ {
		for x := 0; x < view.Width(); x++ {
			pos := Position{X: x, Y: y}
			if view.At(pos).Has(flag) {
				found = append(found, pos)
			}
		}
	}
	return found
}

// snapshotGrid converts a view to its serialized rows.
func snapshotGrid(view GridView) [][]Cell {
	grid := make([][]Cell, view.Height())
	for y := range grid {
		grid[y] = make([]Cell, view.Width())
		for x := range grid[y] {
			grid[y][x] = CellFromFlag(view.At(Position{X: x, Y: y}))
		}
	}
	return grid
}

// SnapshotView is a GridView over serialized rows, used by clients that only
// have a GameState.
type SnapshotView [][]Cell

func (s SnapshotView) Height() int { return len(s) }

func (s SnapshotView) Width() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

func (s SnapshotView) At(pos Position) Flag {
	return s[pos.Y][pos.X].Flag()
}
