package engine

import "fmt"

const (
	// Width and Height are the fixed dimensions of the playing field.
	Width  = 6
	Height = 3

	MaxBulkMoves        = 50
	WebSocketBufferSize = 256
)

// Flag is a set of independent cell attributes.
type Flag uint8

const (
	HasObject Flag = 1 << iota
	HasActor
	IsGoal

	None Flag = 0
)

// Has reports whether every attribute in other is set.
func (f Flag) Has(other Flag) bool {
	return f&other == other && other != None
}

// With returns f with other added.
func (f Flag) With(other Flag) Flag {
	return f | other
}

// Without returns f with other removed.
func (f Flag) Without(other Flag) Flag {
	return f &^ other
}

func (f Flag) String() string {
	if f == None {
		return "none"
	}
	s := ""
	for _, part := range []struct {
		flag Flag
		name string
	}{{HasObject, "object"}, {HasActor, "actor"}, {IsGoal, "goal"}} {
		if f.Has(part.flag) {
			if s != "" {
				s += "|"
			}
			s += part.name
		}
	}
	return s
}

// Position represents x,y coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the component-wise sum of p and o.
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

// Scale multiplies both components by n.
func (p Position) Scale(n int) Position {
	return Position{X: p.X * n, Y: p.Y * n}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction is one of the four movement directions.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every valid direction in canonical order.
var Directions = []Direction{Up, Down, Left, Right}

// Vector returns the unit displacement for d. Any value outside the four
// directions is an internal fault.
func (d Direction) Vector() Position {
	switch d {
	case Up:
		return Position{X: 0, Y: -1}
	case Down:
		return Position{X: 0, Y: 1}
	case Left:
		return Position{X: -1, Y: 0}
	case Right:
		return Position{X: 1, Y: 0}
	default:
		panic(fmt.Sprintf("engine: invalid direction %d", int(d)))
	}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection maps the canonical direction names to a Direction.
func ParseDirection(name string) (Direction, bool) {
	switch name {
	case "up":
		return Up, true
	case "down":
		return Down, true
	case "left":
		return Left, true
	case "right":
		return Right, true
	}
	return 0, false
}

// Outcome classifies what a move did to the grid.
type Outcome string

const (
	// OutcomeMoved: the actor stepped into a free cell.
	OutcomeMoved Outcome = "moved"
	// OutcomePushed: the actor stepped and shifted a chain of objects.
	OutcomePushed Outcome = "pushed"
	// OutcomeBlocked: the boundary stopped the actor or its chain; grid unchanged.
	OutcomeBlocked Outcome = "blocked"
	// OutcomeIgnored: the input token named no direction; grid unchanged.
	OutcomeIgnored Outcome = "ignored"
)

// Accepted reports whether the grid changed.
func (o Outcome) Accepted() bool {
	return o == OutcomeMoved || o == OutcomePushed
}

// Move records the resolution of a single move attempt.
type Move struct {
	Token     string    `json:"token,omitempty"`
	Direction Direction `json:"-"`
	Dir       string    `json:"direction,omitempty"`
	Outcome   Outcome   `json:"outcome"`
	From      Position  `json:"from"`
	To        Position  `json:"to"`
	Chain     int       `json:"chain"`

	// Landing is where the lead object ended up when Outcome is OutcomePushed.
	Landing *Position `json:"landing,omitempty"`
	// BlockedAt is the first out-of-bounds position the walk reached when
	// Outcome is OutcomeBlocked.
	BlockedAt *Position `json:"blocked_at,omitempty"`
}

// Cell is the serialized form of a cell's flags.
type Cell struct {
	Object bool `json:"object,omitempty"`
	Actor  bool `json:"actor,omitempty"`
	Goal   bool `json:"goal,omitempty"`
}

// CellFromFlag converts a flag set to its serialized form.
func CellFromFlag(f Flag) Cell {
	return Cell{Object: f.Has(HasObject), Actor: f.Has(HasActor), Goal: f.Has(IsGoal)}
}

// Flag converts the serialized form back to a flag set.
func (c Cell) Flag() Flag {
	f := None
	if c.Object {
		f = f.With(HasObject)
	}
	if c.Actor {
		f = f.With(HasActor)
	}
	if c.Goal {
		f = f.With(IsGoal)
	}
	return f
}

// GameState is a point-in-time snapshot of a game, safe to serialize and
// hand to other goroutines.
type GameState struct {
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Grid        [][]Cell           `json:"grid"`
	ActorPos    Position           `json:"actor_pos"`
	ProfileName string             `json:"profile_name"`
	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`
	Message     string             `json:"message"`

	// Computed helper views (not required for core game logic)
	Board        []string `json:"board,omitempty"`
	LocalView3x3 []string `json:"local_view_3x3,omitempty"`
}

// MoveHistoryEntry represents a single move in the game history
type MoveHistoryEntry struct {
	Action       string    `json:"action"`
	Direction    string    `json:"direction,omitempty"`
	FromPosition Position  `json:"from_position"`
	ToPosition   Position  `json:"to_position"`
	Outcome      Outcome   `json:"outcome"`
	Chain        int       `json:"chain"`
	Landing      *Position `json:"landing,omitempty"`
	Timestamp    int64     `json:"timestamp"`
	Success      bool      `json:"success"`
	MoveNumber   int       `json:"move_number"`
}
