package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wricardo/pushbox/game/engine"
	"github.com/wricardo/pushbox/game/render"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	profiles ProfileManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, profiles ProfileManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		profiles: profiles,
	}
}

// resolveProfile loads a named profile, or the default when name is empty
func (s *gameServiceImpl) resolveProfile(name string) (*engine.Profile, error) {
	if name == "" {
		return s.profiles.GetDefault(), nil
	}

	p, err := s.profiles.LoadProfile(name)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, ErrProfileNotFound) {
		if available, listErr := s.profiles.ListProfiles(); listErr == nil && len(available) > 0 {
			ids := make([]string, 0, len(available))
			for _, info := range available {
				ids = append(ids, info.ProfileID)
			}
			return nil, fmt.Errorf("profile '%s' not found, available profiles: %v: %w", name, ids, err)
		}
	}
	return nil, fmt.Errorf("failed to load profile %s: %w", name, err)
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ProfileID:      sess.ProfileID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      s.decoratedState(sess),
		Profile:        sess.Engine.GetProfile(),
	}
}

func (s *gameServiceImpl) decoratedState(sess *Session) *engine.GameState {
	state := sess.Engine.GetState()
	render.Decorate(state, sess.Engine.GetProfile().Glyphs)
	return state
}

func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, profileName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.resolveProfile(profileName)
	if err != nil {
		return nil, err
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	return nil
}

// SetSessionProfile swaps a session's bindings and glyphs. The grid is kept.
func (s *gameServiceImpl) SetSessionProfile(ctx context.Context, sessionID, profileName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	profile, err := s.resolveProfile(profileName)
	if err != nil {
		return nil, err
	}
	if err := sess.Engine.SetProfile(profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	sess.ProfileID = profile.Name
	return s.sessionInfo(sess), nil
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, token string) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	m := sess.Engine.Move(token)
	s.record(sess, m)

	state := s.decoratedState(sess)
	result := &MoveResult{
		Success:   m.Outcome.Accepted(),
		Outcome:   m.Outcome,
		GameState: state,
		Message:   state.Message,
		Events:    []GameEvent{moveEvent(m)},
	}

	step := stepInfo(1, m)
	if result.Success {
		result.Step = &step
	} else {
		result.AttemptedTo = attemptInfo(m, state)
	}

	return result, nil
}

// BulkMove applies tokens in order, at most engine.MaxBulkMoves of them.
// Rejected moves are no-ops; with stopOnBlock the first one ends the batch.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, tokens []string, stopOnBlock bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkMoveResult{
		RequestedMoves: len(tokens),
		Events:         make([]GameEvent, 0, len(tokens)),
		Success:        true,
		StartPos:       sess.Engine.ActorPosition(),
	}

	// Limit moves to prevent abuse
	if len(tokens) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		tokens = tokens[:engine.MaxBulkMoves]
	}

	for i, token := range tokens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m := sess.Engine.Move(token)
		s.record(sess, m)
		result.MovesAttempted++
		result.Steps = append(result.Steps, stepInfo(i+1, m))
		result.Events = append(result.Events, moveEvent(m))

		if m.Outcome.Accepted() {
			result.MovesExecuted++
			if m.Outcome == engine.OutcomePushed {
				result.Pushes++
			}
			continue
		}

		if result.Success {
			result.Success = false
			result.AttemptedTo = attemptInfo(m, sess.Engine.GetState())
		}
		if stopOnBlock {
			result.StopReasonCode = stopReasonCode(m)
			result.StoppedReason = fmt.Sprintf("move %d %s: %s", i+1, m.Outcome, engine.DescribeMove(m))
			result.StoppedOnMove = i + 1
			break
		}
	}

	endState := s.decoratedState(sess)
	result.GameState = endState
	result.EndPos = endState.ActorPos
	result.Message = endState.Message
	result.PossibleMoves = sess.Engine.GetPossibleMoves()
	result.LocalView3x3 = endState.LocalView3x3

	return result, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.decoratedState(sess), nil
}

// GetBoard draws the session's grid with its profile's glyphs
func (s *gameServiceImpl) GetBoard(ctx context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return "", err
	}
	return render.Board(sess.Engine.View(), sess.Engine.GetProfile().Glyphs), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListProfiles returns available profiles
func (s *gameServiceImpl) ListProfiles(ctx context.Context) ([]*ProfileInfo, error) {
	return s.profiles.ListProfiles()
}

// LoadProfile loads a specific profile
func (s *gameServiceImpl) LoadProfile(ctx context.Context, profileName string) (*engine.Profile, error) {
	return s.profiles.LoadProfile(profileName)
}

// SaveProfile saves a profile to disk
func (s *gameServiceImpl) SaveProfile(ctx context.Context, profileName string, profile *engine.Profile) error {
	return s.profiles.SaveProfile(profileName, profile)
}

func (s *gameServiceImpl) record(sess *Session, m engine.Move) {
	if err := s.sessions.Record(sess.ID, m); err != nil {
		log.Printf("Warning: Failed to journal move for session %s: %v", sess.ID, err)
	}
}

func moveEvent(m engine.Move) GameEvent {
	types := map[engine.Outcome]string{
		engine.OutcomeMoved:   "move",
		engine.OutcomePushed:  "push",
		engine.OutcomeBlocked: "blocked",
		engine.OutcomeIgnored: "ignored",
	}
	return GameEvent{
		Type:      types[m.Outcome],
		Message:   engine.DescribeMove(m),
		Timestamp: time.Now(),
		Position:  m.To,
	}
}

func stepInfo(idx int, m engine.Move) StepInfo {
	return StepInfo{
		Idx:     idx,
		Token:   m.Token,
		Dir:     m.Dir,
		From:    m.From,
		To:      m.To,
		Outcome: m.Outcome,
		Chain:   m.Chain,
		Landing: m.Landing,
		Success: m.Outcome.Accepted(),
	}
}

// attemptInfo describes the cell a rejected move tried to enter
func attemptInfo(m engine.Move, state *engine.GameState) *AttemptInfo {
	info := &AttemptInfo{
		X:         m.From.X,
		Y:         m.From.Y,
		Chain:     m.Chain,
		BlockedAt: m.BlockedAt,
		Reason:    engine.DescribeMove(m),
	}
	if m.Outcome == engine.OutcomeIgnored {
		info.InBounds = true
		info.Cell = "none"
		return info
	}

	target := m.From.Add(m.Direction.Vector())
	info.X, info.Y = target.X, target.Y
	if target.X < 0 || target.Y < 0 || target.X >= state.Width || target.Y >= state.Height {
		info.Cell = "boundary"
		return info
	}
	info.InBounds = true
	info.Cell = state.Grid[target.Y][target.X].Flag().String()
	return info
}

func stopReasonCode(m engine.Move) string {
	switch {
	case m.Outcome == engine.OutcomeIgnored:
		return StopIgnoredInput
	case m.Chain > 0:
		return StopBlockedChain
	default:
		return StopBlockedBoundary
	}
}
