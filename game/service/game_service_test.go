package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/pushbox/game/engine"
	"github.com/wricardo/pushbox/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	recorded []engine.Move
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, profile *engine.Profile) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("t%03d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, service.ErrSessionAlreadyExists
	}

	eng, err := engine.NewEngine(profile)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Engine:         eng,
		ProfileID:      eng.GetProfile().Name,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string, profile *engine.Profile) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, profile)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

func (m *MockSessionManager) Record(id string, move engine.Move) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	m.recorded = append(m.recorded, move)
	return nil
}

// MockProfileManager implements service.ProfileManager for testing
type MockProfileManager struct {
	profiles map[string]*engine.Profile
}

func NewMockProfileManager() *MockProfileManager {
	vim := &engine.Profile{
		Name:     "vim",
		Bindings: map[string]string{"h": "left", "j": "down", "k": "up", "l": "right"},
		Glyphs:   engine.DefaultGlyphs(),
	}
	vim.Glyphs.Actor = "@"

	return &MockProfileManager{
		profiles: map[string]*engine.Profile{
			"classic": engine.DefaultProfile(),
			"vim":     vim,
		},
	}
}

func (m *MockProfileManager) LoadProfile(name string) (*engine.Profile, error) {
	p, exists := m.profiles[name]
	if !exists {
		return nil, service.ErrProfileNotFound
	}
	return p, nil
}

func (m *MockProfileManager) ListProfiles() ([]*service.ProfileInfo, error) {
	result := make([]*service.ProfileInfo, 0, len(m.profiles))
	for id, p := range m.profiles {
		result = append(result, &service.ProfileInfo{
			Filename:  id + ".yaml",
			ProfileID: id,
			Name:      p.Name,
			Bindings:  p.Bindings,
		})
	}
	return result, nil
}

func (m *MockProfileManager) GetDefault() *engine.Profile {
	return m.profiles["classic"]
}

func (m *MockProfileManager) SaveProfile(name string, p *engine.Profile) error {
	if err := engine.ValidateProfile(p); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidProfile, err)
	}
	m.profiles[name] = p
	return nil
}

func newTestService() (service.GameService, *MockSessionManager) {
	sessions := NewMockSessionManager()
	return service.NewGameService(sessions, NewMockProfileManager()), sessions
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		profileName string
		wantProfile string
		wantErr     error
	}{
		{"create with default profile", "", "classic", nil},
		{"create with named profile", "vim", "vim", nil},
		{"create with unknown profile", "nope", "", service.ErrProfileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService()
			info, err := svc.CreateSession(ctx, tt.profileName)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateSession failed: %v", err)
			}
			if info.ProfileID != tt.wantProfile {
				t.Errorf("Expected profile %s, got %s", tt.wantProfile, info.ProfileID)
			}
			if info.GameState == nil || info.GameState.ActorPos != (engine.Position{X: 4, Y: 0}) {
				t.Errorf("Expected fresh game state, got %+v", info.GameState)
			}
			if len(info.GameState.Board) != engine.Height+2 {
				t.Errorf("Expected decorated board, got %q", info.GameState.Board)
			}
		})
	}

	t.Run("unknown profile lists alternatives", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.CreateSession(ctx, "nope")
		if err == nil || !strings.Contains(err.Error(), "vim") {
			t.Errorf("Expected available profiles in error, got %v", err)
		}
	})
}

func TestGameService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	info, _ := svc.CreateSession(ctx, "")

	got, err := svc.GetSession(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.ID != info.ID {
		t.Errorf("Expected %s, got %s", info.ID, got.ID)
	}

	list, _ := svc.ListSessions(ctx)
	if len(list) != 1 {
		t.Errorf("Expected 1 session, got %d", len(list))
	}

	if err := svc.DeleteSession(ctx, info.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := svc.GetSession(ctx, info.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.DeleteSession(ctx, info.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestGameService_Move(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		setup     []string
		token     string
		outcome   engine.Outcome
		eventType string
		attempt   *service.AttemptInfo
	}{
		{"step left", nil, "a", engine.OutcomeMoved, "move", nil},
		{"push pair", []string{"s", "a"}, "a", engine.OutcomePushed, "push", nil},
		{
			"boundary", nil, "w", engine.OutcomeBlocked, "blocked",
			&service.AttemptInfo{X: 4, Y: -1, InBounds: false, Cell: "boundary"},
		},
		{
			"chain off grid", []string{"s", "a", "a"}, "a", engine.OutcomeBlocked, "blocked",
			&service.AttemptInfo{X: 1, Y: 1, InBounds: true, Cell: "object", Chain: 2},
		},
		{
			"unknown key", nil, "q", engine.OutcomeIgnored, "ignored",
			&service.AttemptInfo{X: 4, Y: 0, InBounds: true, Cell: "none"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sessions := newTestService()
			info, _ := svc.CreateSession(ctx, "")
			for _, tok := range tt.setup {
				svc.Move(ctx, info.ID, tok)
			}

			result, err := svc.Move(ctx, info.ID, tt.token)
			if err != nil {
				t.Fatalf("Move failed: %v", err)
			}
			if result.Outcome != tt.outcome {
				t.Errorf("Expected outcome %s, got %s", tt.outcome, result.Outcome)
			}
			if result.Success != tt.outcome.Accepted() {
				t.Errorf("Success mismatch for %s", tt.outcome)
			}
			if len(result.Events) != 1 || result.Events[0].Type != tt.eventType {
				t.Errorf("Expected one %s event, got %+v", tt.eventType, result.Events)
			}
			if len(sessions.recorded) != len(tt.setup)+1 {
				t.Errorf("Expected %d recorded moves, got %d", len(tt.setup)+1, len(sessions.recorded))
			}

			if tt.attempt == nil {
				if result.Step == nil || result.AttemptedTo != nil {
					t.Errorf("Expected step info only, got step=%v attempt=%v", result.Step, result.AttemptedTo)
				}
				return
			}
			a := result.AttemptedTo
			if a == nil {
				t.Fatal("Expected attempt diagnostics")
			}
			if a.X != tt.attempt.X || a.Y != tt.attempt.Y || a.InBounds != tt.attempt.InBounds ||
				a.Cell != tt.attempt.Cell || a.Chain != tt.attempt.Chain {
				t.Errorf("Unexpected attempt %+v, want %+v", a, tt.attempt)
			}
			if a.Reason == "" {
				t.Error("Expected a reason")
			}
		})
	}

	t.Run("unknown session", func(t *testing.T) {
		svc, _ := newTestService()
		if _, err := svc.Move(ctx, "zzzz", "a"); !errors.Is(err, service.ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestGameService_BulkMove(t *testing.T) {
	ctx := context.Background()

	t.Run("continues past rejections", func(t *testing.T) {
		svc, _ := newTestService()
		info, _ := svc.CreateSession(ctx, "")

		result, err := svc.BulkMove(ctx, info.ID, []string{"s", "a", "a", "a", "x", "w"}, false)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if result.MovesAttempted != 6 || result.MovesExecuted != 4 {
			t.Errorf("Expected 6 attempted/4 executed, got %d/%d", result.MovesAttempted, result.MovesExecuted)
		}
		if result.Pushes != 1 {
			t.Errorf("Expected 1 push, got %d", result.Pushes)
		}
		if result.Success {
			t.Error("Expected success=false with rejected moves")
		}
		if result.StopReasonCode != "" {
			t.Errorf("Expected no stop, got %s", result.StopReasonCode)
		}
		if result.AttemptedTo == nil || result.AttemptedTo.Chain != 2 {
			t.Errorf("Expected first rejection diagnostics, got %+v", result.AttemptedTo)
		}
		if result.StartPos != (engine.Position{X: 4, Y: 0}) || result.EndPos != (engine.Position{X: 2, Y: 0}) {
			t.Errorf("Unexpected start/end %v -> %v", result.StartPos, result.EndPos)
		}
		if len(result.Steps) != 6 || len(result.Events) != 6 {
			t.Errorf("Expected 6 steps and events, got %d/%d", len(result.Steps), len(result.Events))
		}
	})

	stopTests := []struct {
		name   string
		tokens []string
		code   string
		stopAt int
	}{
		{"stop on boundary", []string{"a", "w", "a"}, service.StopBlockedBoundary, 2},
		{"stop on chain", []string{"s", "a", "a", "a", "d"}, service.StopBlockedChain, 4},
		{"stop on ignored", []string{"a", "?", "a"}, service.StopIgnoredInput, 2},
	}
	for _, tt := range stopTests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService()
			info, _ := svc.CreateSession(ctx, "")

			result, err := svc.BulkMove(ctx, info.ID, tt.tokens, true)
			if err != nil {
				t.Fatalf("BulkMove failed: %v", err)
			}
			if result.StopReasonCode != tt.code {
				t.Errorf("Expected %s, got %s", tt.code, result.StopReasonCode)
			}
			if result.StoppedOnMove != tt.stopAt || result.MovesAttempted != tt.stopAt {
				t.Errorf("Expected stop at %d, got %d (attempted %d)", tt.stopAt, result.StoppedOnMove, result.MovesAttempted)
			}
		})
	}

	t.Run("truncates long batches", func(t *testing.T) {
		svc, _ := newTestService()
		info, _ := svc.CreateSession(ctx, "")

		tokens := make([]string, engine.MaxBulkMoves+10)
		for i := range tokens {
			tokens[i] = []string{"a", "d"}[i%2]
		}
		result, err := svc.BulkMove(ctx, info.ID, tokens, false)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if !result.Truncated || result.Limit != engine.MaxBulkMoves {
			t.Errorf("Expected truncation at %d", engine.MaxBulkMoves)
		}
		if result.RequestedMoves != len(tokens) || result.MovesAttempted != engine.MaxBulkMoves {
			t.Errorf("Unexpected counts requested=%d attempted=%d", result.RequestedMoves, result.MovesAttempted)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		svc, _ := newTestService()
		info, _ := svc.CreateSession(ctx, "")
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := svc.BulkMove(cctx, info.ID, []string{"a"}, false); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})
}

func TestGameService_BoardAndProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	info, _ := svc.CreateSession(ctx, "")
	svc.Move(ctx, info.ID, "a")

	board, err := svc.GetBoard(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetBoard failed: %v", err)
	}
	if !strings.Contains(board, "# ..p  #") {
		t.Errorf("Unexpected board:\n%s", board)
	}

	updated, err := svc.SetSessionProfile(ctx, info.ID, "vim")
	if err != nil {
		t.Fatalf("SetSessionProfile failed: %v", err)
	}
	if updated.ProfileID != "vim" || updated.GameState.ActorPos != (engine.Position{X: 3, Y: 0}) {
		t.Errorf("Profile swap must keep the grid, got %+v", updated.GameState.ActorPos)
	}

	board, _ = svc.GetBoard(ctx, info.ID)
	if !strings.Contains(board, "# ..@  #") {
		t.Errorf("Expected vim glyphs, got:\n%s", board)
	}

	result, _ := svc.Move(ctx, info.ID, "h")
	if result.Outcome != engine.OutcomeMoved {
		t.Errorf("Expected vim binding to move, got %s", result.Outcome)
	}

	if _, err := svc.SetSessionProfile(ctx, info.ID, "missing"); !errors.Is(err, service.ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound, got %v", err)
	}
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	info, _ := svc.CreateSession(ctx, "")

	for i := 0; i < 25; i++ {
		svc.Move(ctx, info.ID, []string{"a", "d"}[i%2])
	}

	tests := []struct {
		name      string
		opts      service.HistoryOptions
		wantCount int
		wantFirst int
		hasNext   bool
	}{
		{"defaults are desc page 1", service.HistoryOptions{}, 20, 25, true},
		{"asc page 1", service.HistoryOptions{Order: "asc", Limit: 10}, 10, 1, true},
		{"asc last page", service.HistoryOptions{Order: "asc", Limit: 10, Page: 3}, 5, 21, false},
		{"desc page 2", service.HistoryOptions{Limit: 10, Page: 2}, 10, 15, true},
		{"past the end", service.HistoryOptions{Order: "asc", Limit: 10, Page: 9}, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetMoveHistory(ctx, info.ID, tt.opts)
			if err != nil {
				t.Fatalf("GetMoveHistory failed: %v", err)
			}
			if resp.TotalMoves != 25 {
				t.Errorf("Expected 25 total, got %d", resp.TotalMoves)
			}
			if len(resp.Moves) != tt.wantCount {
				t.Fatalf("Expected %d moves, got %d", tt.wantCount, len(resp.Moves))
			}
			if tt.wantCount > 0 && resp.Moves[0].MoveNumber != tt.wantFirst {
				t.Errorf("Expected first move number %d, got %d", tt.wantFirst, resp.Moves[0].MoveNumber)
			}
			if resp.HasNext != tt.hasNext {
				t.Errorf("Expected has_next=%v", tt.hasNext)
			}
		})
	}
}

func TestGameService_Profiles(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	profiles, err := svc.ListProfiles(ctx)
	if err != nil || len(profiles) != 2 {
		t.Fatalf("Expected 2 profiles, got %d (%v)", len(profiles), err)
	}

	custom := engine.DefaultProfile()
	custom.Name = "custom"
	if err := svc.SaveProfile(ctx, "custom", custom); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	loaded, err := svc.LoadProfile(ctx, "custom")
	if err != nil || loaded.Name != "custom" {
		t.Errorf("Expected saved profile, got %v (%v)", loaded, err)
	}

	if err := svc.SaveProfile(ctx, "bad", &engine.Profile{}); !errors.Is(err, service.ErrInvalidProfile) {
		t.Errorf("Expected ErrInvalidProfile, got %v", err)
	}
}
