package service

import (
	"time"

	"github.com/wricardo/pushbox/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	ProfileID      string            `json:"profile_id"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
	Profile        *engine.Profile   `json:"profile"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success     bool              `json:"success"`
	Outcome     engine.Outcome    `json:"outcome"`
	GameState   *engine.GameState `json:"game_state"`
	Message     string            `json:"message"`
	Events      []GameEvent       `json:"events,omitempty"`
	Step        *StepInfo         `json:"step,omitempty"`
	AttemptedTo *AttemptInfo      `json:"attempted_to,omitempty"`
}

// Stop reason codes reported by BulkMove
const (
	StopBlockedBoundary = "blocked_boundary"
	StopBlockedChain    = "blocked_chain"
	StopIgnoredInput    = "ignored_input"
)

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`  // accepted moves
	MovesAttempted int               `json:"moves_attempted"` // tokens processed, including rejected ones
	RequestedMoves int               `json:"requested_moves"`
	Pushes         int               `json:"pushes"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // blocked_boundary|blocked_chain|ignored_input
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos engine.Position `json:"start_pos"`
	EndPos   engine.Position `json:"end_pos"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// First rejected move diagnostics
	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`

	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
	LocalView3x3  []string `json:"local_view_3x3,omitempty"`
}

// StepInfo is a compact record for each processed move
type StepInfo struct {
	Idx     int              `json:"idx"`
	Token   string           `json:"token"`
	Dir     string           `json:"dir,omitempty"`
	From    engine.Position  `json:"from"`
	To      engine.Position  `json:"to"`
	Outcome engine.Outcome   `json:"outcome"`
	Chain   int              `json:"chain,omitempty"`
	Landing *engine.Position `json:"landing,omitempty"`
	Success bool             `json:"success"`
}

// AttemptInfo explains why a move was rejected
type AttemptInfo struct {
	X         int              `json:"x"`
	Y         int              `json:"y"`
	InBounds  bool             `json:"in_bounds"`
	Cell      string           `json:"cell"` // flags of the target cell, or "boundary"
	Chain     int              `json:"chain"`
	BlockedAt *engine.Position `json:"blocked_at,omitempty"`
	Reason    string           `json:"reason"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // "move", "push", "blocked", "ignored"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ProfileInfo provides information about a profile
type ProfileInfo struct {
	Filename    string            `json:"filename"`
	ProfileID   string            `json:"profile_id"` // The identifier to use for session creation
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Bindings    map[string]string `json:"bindings"`
}
