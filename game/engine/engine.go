package engine

import (
	"fmt"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state
	GetState() *GameState
	View() GridView
	ActorPosition() Position
	Validate() error

	// Movement operations
	Move(token string) Move
	MoveDirection(dir Direction) Move
	BulkMove(tokens []string) []Move
	CanMove(dir Direction) bool
	GetPossibleMoves() []string

	// Profile
	GetProfile() *Profile
	SetProfile(profile *Profile) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface over a single GridState.
type GameEngine struct {
	grid    *GridState
	profile *Profile
	history []MoveHistoryEntry
	message string

	now func() time.Time
}

// NewEngine creates an engine with a freshly initialized grid. A nil profile
// selects DefaultProfile.
func NewEngine(profile *Profile) (*GameEngine, error) {
	if profile == nil {
		profile = DefaultProfile()
	}
	if err := ValidateProfile(profile); err != nil {
		return nil, err
	}

	return &GameEngine{
		grid:    NewGridState(),
		profile: profile,
		history: []MoveHistoryEntry{},
		message: "Push every object onto a goal",
		now:     time.Now,
	}, nil
}

// NewEngineWithDefaults creates an engine with the classic profile.
func NewEngineWithDefaults() *GameEngine {
	e, err := NewEngine(nil)
	if err != nil {
		panic("engine: default profile is invalid: " + err.Error())
	}
	return e
}

// GetState returns a snapshot of the game. The snapshot shares nothing with
// the engine.
func (e *GameEngine) GetState() *GameState {
	history := make([]MoveHistoryEntry, len(e.history))
	copy(history, e.history)

	return &GameState{
		Width:       e.grid.Width(),
		Height:      e.grid.Height(),
		Grid:        snapshotGrid(e.grid),
		ActorPos:    e.grid.ActorPosition(),
		ProfileName: e.profile.Name,
		MoveHistory: history,
		TotalMoves:  len(history),
		Message:     e.message,
	}
}

// View exposes the live grid read-only.
func (e *GameEngine) View() GridView {
	return e.grid
}

// ActorPosition returns where the actor stands.
func (e *GameEngine) ActorPosition() Position {
	return e.grid.ActorPosition()
}

// Validate checks the grid invariants.
func (e *GameEngine) Validate() error {
	return e.grid.Validate()
}

// Move resolves token through the profile and attempts the move. Tokens that
// name no direction are recorded as ignored and leave the grid alone.
func (e *GameEngine) Move(token string) Move {
	dir, ok := e.profile.Resolve(token)
	if !ok {
		pos := e.grid.ActorPosition()
		m := Move{Token: token, Outcome: OutcomeIgnored, From: pos, To: pos}
		e.record(m)
		return m
	}
	m := e.grid.AttemptMove(dir)
	m.Token = token
	e.record(m)
	return m
}

// MoveDirection attempts a move in dir without token resolution.
func (e *GameEngine) MoveDirection(dir Direction) Move {
	m := e.grid.AttemptMove(dir)
	m.Token = dir.String()
	e.record(m)
	return m
}

// BulkMove applies every token in order. Rejected and ignored tokens are
// no-ops; the sequence continues after them.
func (e *GameEngine) BulkMove(tokens []string) []Move {
	results := make([]Move, 0, len(tokens))
	for _, token := range tokens {
		results = append(results, e.Move(token))
	}
	return results
}

// CanMove reports whether a move in dir would be accepted.
func (e *GameEngine) CanMove(dir Direction) bool {
	return e.grid.CanMove(dir)
}

// GetPossibleMoves returns the direction names that would currently be accepted
func (e *GameEngine) GetPossibleMoves() []string {
	var possible []string
	for _, dir := range Directions {
		if e.CanMove(dir) {
			possible = append(possible, dir.String())
		}
	}
	return possible
}

// GetProfile returns the active profile.
func (e *GameEngine) GetProfile() *Profile {
	return e.profile
}

// SetProfile swaps bindings and glyphs. The grid is not touched.
func (e *GameEngine) SetProfile(profile *Profile) error {
	if err := ValidateProfile(profile); err != nil {
		return err
	}
	e.profile = profile
	return nil
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.history
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

func (e *GameEngine) record(m Move) {
	e.message = DescribeMove(m)
	e.history = append(e.history, MoveHistoryEntry{
		Action:       m.Token,
		Direction:    m.Dir,
		FromPosition: m.From,
		ToPosition:   m.To,
		Outcome:      m.Outcome,
		Chain:        m.Chain,
		Landing:      m.Landing,
		Timestamp:    e.now().Unix(),
		Success:      m.Outcome.Accepted(),
		MoveNumber:   len(e.history) + 1,
	})
}

// DescribeMove returns a short human-readable summary of a move.
func DescribeMove(m Move) string {
	switch m.Outcome {
	case OutcomeMoved:
		return fmt.Sprintf("Moved %s to %v", m.Dir, m.To)
	case OutcomePushed:
		noun := "object"
		if m.Chain > 1 {
			noun = "objects"
		}
		return fmt.Sprintf("Pushed %d %s %s", m.Chain, noun, m.Dir)
	case OutcomeBlocked:
		if m.Chain > 0 {
			return fmt.Sprintf("Can't push %s: the chain of %d would leave the grid", m.Dir, m.Chain)
		}
		return fmt.Sprintf("Can't move %s: edge of the grid", m.Dir)
	case OutcomeIgnored:
		return fmt.Sprintf("Unrecognized input %q", m.Token)
	}
	return ""
}
