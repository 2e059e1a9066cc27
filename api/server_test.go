package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/pushbox/game/config"
	"github.com/wricardo/pushbox/game/engine"
	"github.com/wricardo/pushbox/game/service"
	"github.com/wricardo/pushbox/game/session"
	"github.com/wricardo/pushbox/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	CreateSessionFunc     func(ctx context.Context, profileName string) (*service.SessionInfo, error)
	GetSessionFunc        func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc      func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc     func(ctx context.Context, sessionID string) error
	SetSessionProfileFunc func(ctx context.Context, sessionID, profileName string) (*service.SessionInfo, error)

	MoveFunc     func(ctx context.Context, sessionID, token string) (*service.MoveResult, error)
	BulkMoveFunc func(ctx context.Context, sessionID string, tokens []string, stopOnBlock bool) (*service.BulkMoveResult, error)

	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetBoardFunc       func(ctx context.Context, sessionID string) (string, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	ListProfilesFunc func(ctx context.Context) ([]*service.ProfileInfo, error)
	LoadProfileFunc  func(ctx context.Context, profileName string) (*engine.Profile, error)
	SaveProfileFunc  func(ctx context.Context, profileName string, profile *engine.Profile) error
}

func (m *MockGameService) CreateSession(ctx context.Context, profileName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, profileName)
	}
	return &service.SessionInfo{ID: "test", ProfileID: profileName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ProfileID: "classic", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) SetSessionProfile(ctx context.Context, sessionID, profileName string) (*service.SessionInfo, error) {
	if m.SetSessionProfileFunc != nil {
		return m.SetSessionProfileFunc(ctx, sessionID, profileName)
	}
	return &service.SessionInfo{ID: sessionID, ProfileID: profileName, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) Move(ctx context.Context, sessionID, token string) (*service.MoveResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, token)
	}
	return &service.MoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) BulkMove(ctx context.Context, sessionID string, tokens []string, stopOnBlock bool) (*service.BulkMoveResult, error) {
	if m.BulkMoveFunc != nil {
		return m.BulkMoveFunc(ctx, sessionID, tokens, stopOnBlock)
	}
	return &service.BulkMoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetBoard(ctx context.Context, sessionID string) (string, error) {
	if m.GetBoardFunc != nil {
		return m.GetBoardFunc(ctx, sessionID)
	}
	return "", nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Moves:      []engine.MoveHistoryEntry{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

func (m *MockGameService) ListProfiles(ctx context.Context) ([]*service.ProfileInfo, error) {
	if m.ListProfilesFunc != nil {
		return m.ListProfilesFunc(ctx)
	}
	return []*service.ProfileInfo{}, nil
}

func (m *MockGameService) LoadProfile(ctx context.Context, profileName string) (*engine.Profile, error) {
	if m.LoadProfileFunc != nil {
		return m.LoadProfileFunc(ctx, profileName)
	}
	p := engine.DefaultProfile()
	p.Name = profileName
	return p, nil
}

func (m *MockGameService) SaveProfile(ctx context.Context, profileName string, profile *engine.Profile) error {
	if m.SaveProfileFunc != nil {
		return m.SaveProfileFunc(ctx, profileName, profile)
	}
	return nil
}

// Test helpers
func setupTestServer(t *testing.T, mockService service.GameService) *Server {
	t.Helper()
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v (body %q)", err, w.Body.String())
	}
}

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		expectedID     string
	}{
		{
			name:        "default profile",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, profileName string) (*service.SessionInfo, error) {
					if profileName != "" {
						t.Errorf("Expected empty profile name, got %q", profileName)
					}
					return &service.SessionInfo{ID: "a1b2"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			expectedID:     "a1b2",
		},
		{
			name:        "named profile",
			requestBody: map[string]string{"profile_id": "vim"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, profileName string) (*service.SessionInfo, error) {
					if profileName != "vim" {
						t.Errorf("Expected profile 'vim', got %q", profileName)
					}
					return &service.SessionInfo{ID: "c3d4", ProfileID: profileName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			expectedID:     "c3d4",
		},
		{
			name:        "unknown profile",
			requestBody: map[string]string{"profile": "nope"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, profileName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("profile '%s' not found: %w", profileName, service.ErrProfileNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "service error",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, profileName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			tt.setupMock(mockService)
			server := setupTestServer(t, mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedID != "" {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != tt.expectedID {
					t.Errorf("Expected session ID %s, got %s", tt.expectedID, resp.ID)
				}
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Minute)},
				{ID: "new", CreatedAt: now, LastAccessedAt: now.Add(-time.Hour)},
				{ID: "mid", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now},
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	tests := []struct {
		query string
		order []string
		total int
	}{
		{"", []string{"mid", "old", "new"}, 3},
		{"?sort=created", []string{"new", "mid", "old"}, 3},
		{"?sort=created&order=asc", []string{"old", "mid", "new"}, 3},
		{"?limit=1", []string{"mid"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Total != tt.total || resp.Count != len(tt.order) {
				t.Errorf("count/total = %d/%d, want %d/%d", resp.Count, resp.Total, len(tt.order), tt.total)
			}
			for i, id := range tt.order {
				if resp.Sessions[i].ID != id {
					t.Errorf("sessions[%d] = %s, want %s", i, resp.Sessions[i].ID, id)
				}
			}
		})
	}
}

func TestSessionNotFoundMapping(t *testing.T) {
	notFound := fmt.Errorf("%w: zzzz", service.ErrSessionNotFound)
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, id string) (*service.SessionInfo, error) { return nil, notFound },
		DeleteSessionFunc: func(ctx context.Context, id string) error {
			return notFound
		},
		GetGameStateFunc: func(ctx context.Context, id string) (*engine.GameState, error) { return nil, notFound },
		GetBoardFunc:     func(ctx context.Context, id string) (string, error) { return "", notFound },
		MoveFunc: func(ctx context.Context, id, token string) (*service.MoveResult, error) {
			return nil, notFound
		},
		BulkMoveFunc: func(ctx context.Context, id string, tokens []string, stop bool) (*service.BulkMoveResult, error) {
			return nil, notFound
		},
		GetMoveHistoryFunc: func(ctx context.Context, id string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			return nil, notFound
		},
	}
	server := setupTestServer(t, mockService)

	requests := []*http.Request{
		makeRequest("GET", "/api/sessions/zzzz", nil),
		makeRequest("DELETE", "/api/sessions/zzzz", nil),
		makeRequest("GET", "/api/sessions/zzzz/state", nil),
		makeRequest("GET", "/api/sessions/zzzz/board", nil),
		makeRequest("POST", "/api/sessions/zzzz/move", map[string]string{"direction": "w"}),
		makeRequest("POST", "/api/sessions/zzzz/bulk-move", map[string][]string{"moves": {"w"}}),
		makeRequest("GET", "/api/sessions/zzzz/history", nil),
	}

	for _, req := range requests {
		t.Run(req.Method+" "+req.URL.Path, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, req)
			if w.Code != http.StatusNotFound {
				t.Errorf("Expected 404, got %d", w.Code)
			}
			var resp map[string]string
			parseResponse(t, w, &resp)
			if !strings.Contains(resp["error"], "session not found") {
				t.Errorf("unexpected error body %v", resp)
			}
		})
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		raw            string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name: "bound key",
			body: map[string]string{"direction": "a"},
			setupMock: func(m *MockGameService) {
				m.MoveFunc = func(ctx context.Context, sessionID, token string) (*service.MoveResult, error) {
					if sessionID != "sess" || token != "a" {
						t.Errorf("unexpected call %s %s", sessionID, token)
					}
					return &service.MoveResult{
						Success:   true,
						Outcome:   engine.OutcomeMoved,
						GameState: &engine.GameState{ActorPos: engine.Position{X: 3, Y: 0}},
						Step:      &service.StepInfo{Idx: 1, Token: "a", Dir: "left", Outcome: engine.OutcomeMoved, Success: true},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "rejected move is still 200",
			body: map[string]string{"direction": "w"},
			setupMock: func(m *MockGameService) {
				m.MoveFunc = func(ctx context.Context, sessionID, token string) (*service.MoveResult, error) {
					return &service.MoveResult{
						Outcome:     engine.OutcomeBlocked,
						GameState:   &engine.GameState{},
						AttemptedTo: &service.AttemptInfo{X: 4, Y: -1, Cell: "boundary", Reason: "edge"},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "malformed body",
			raw:            "{not json",
			setupMock:      func(m *MockGameService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			tt.setupMock(mockService)
			server := setupTestServer(t, mockService)

			var req *http.Request
			if tt.raw != "" {
				req = httptest.NewRequest("POST", "/api/sessions/sess/move", strings.NewReader(tt.raw))
			} else {
				req = makeRequest("POST", "/api/sessions/sess/move", tt.body)
			}
			req = mux.SetURLVars(req, map[string]string{"id": "sess"})

			w := httptest.NewRecorder()
			server.handleMove(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestBulkMovePassesStopOnBlock(t *testing.T) {
	var gotTokens []string
	var gotStop bool
	mockService := &MockGameService{
		BulkMoveFunc: func(ctx context.Context, sessionID string, tokens []string, stopOnBlock bool) (*service.BulkMoveResult, error) {
			gotTokens, gotStop = tokens, stopOnBlock
			return &service.BulkMoveResult{
				MovesExecuted:  1,
				RequestedMoves: len(tokens),
				GameState:      &engine.GameState{},
				StopReasonCode: service.StopBlockedBoundary,
			}, nil
		},
	}
	server := setupTestServer(t, mockService)

	w := httptest.NewRecorder()
	body := map[string]interface{}{"moves": []string{"a", "w"}, "stop_on_block": true}
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess/bulk-move", body))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if len(gotTokens) != 2 || gotTokens[1] != "w" || !gotStop {
		t.Errorf("service got tokens=%v stop=%v", gotTokens, gotStop)
	}

	var resp service.BulkMoveResult
	parseResponse(t, w, &resp)
	if resp.StopReasonCode != service.StopBlockedBoundary {
		t.Errorf("Expected stop code %s, got %s", service.StopBlockedBoundary, resp.StopReasonCode)
	}
}

func TestGetHistoryQueryParams(t *testing.T) {
	tests := []struct {
		query string
		want  service.HistoryOptions
	}{
		{"", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"?page=3&limit=5&order=asc", service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}},
		{"?page=-1&limit=abc&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got service.HistoryOptions
			mockService := &MockGameService{
				GetMoveHistoryFunc: func(ctx context.Context, id string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{}, nil
				},
			}
			server := setupTestServer(t, mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess/history"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}
			if got != tt.want {
				t.Errorf("options = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSetProfile(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		err            error
		expectedStatus int
	}{
		{"swap", map[string]string{"profile_id": "vim"}, nil, http.StatusOK},
		{"missing profile id", map[string]string{}, nil, http.StatusBadRequest},
		{"unknown profile", map[string]string{"profile_id": "nope"}, service.ErrProfileNotFound, http.StatusNotFound},
		{"invalid profile", map[string]string{"profile_id": "broken"}, fmt.Errorf("%w: no binding for up", service.ErrInvalidProfile), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				SetSessionProfileFunc: func(ctx context.Context, id, name string) (*service.SessionInfo, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &service.SessionInfo{ID: id, ProfileID: name, GameState: &engine.GameState{ProfileName: name}}, nil
				},
			}
			server := setupTestServer(t, mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("PUT", "/api/sessions/sess/profile", tt.body))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestProfiles(t *testing.T) {
	var saved *engine.Profile
	mockService := &MockGameService{
		ListProfilesFunc: func(ctx context.Context) ([]*service.ProfileInfo, error) {
			return []*service.ProfileInfo{{ProfileID: "classic", Name: "classic"}}, nil
		},
		LoadProfileFunc: func(ctx context.Context, name string) (*engine.Profile, error) {
			if name != "classic" {
				return nil, fmt.Errorf("%w: %s", service.ErrProfileNotFound, name)
			}
			return engine.DefaultProfile(), nil
		},
		SaveProfileFunc: func(ctx context.Context, name string, p *engine.Profile) error {
			if err := engine.ValidateProfile(p); err != nil {
				return fmt.Errorf("%w: %v", service.ErrInvalidProfile, err)
			}
			saved = p
			return nil
		},
	}
	server := setupTestServer(t, mockService)

	t.Run("list", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/profiles", nil))
		var resp []*service.ProfileInfo
		parseResponse(t, w, &resp)
		if len(resp) != 1 || resp[0].ProfileID != "classic" {
			t.Errorf("unexpected profiles %+v", resp)
		}
	})

	t.Run("get strips extension", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/profiles/classic.yaml", nil))
		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", w.Code)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/profiles/missing", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})

	t.Run("create", func(t *testing.T) {
		p := engine.DefaultProfile()
		p.Name = "mine"
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/profiles", p))
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}
		if saved == nil || saved.Name != "mine" {
			t.Errorf("profile not saved: %+v", saved)
		}
	})

	t.Run("create invalid", func(t *testing.T) {
		p := engine.DefaultProfile()
		p.Glyphs.Actor = p.Glyphs.Object
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/profiles", p))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("create remapped direction name", func(t *testing.T) {
		p := engine.DefaultProfile()
		p.Name = "swapped"
		p.Bindings["up"] = "down"
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/profiles", p))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("create nameless", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/profiles", map[string]string{}))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestHealth(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/health", nil))

	var resp map[string]string
	parseResponse(t, w, &resp)
	if resp["status"] != "healthy" {
		t.Errorf("unexpected health response %v", resp)
	}
}

func TestWebSocketHandshakeChecks(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		sessionErr     error
		expectedStatus int
	}{
		{"missing session parameter", "", nil, http.StatusBadRequest},
		{"unknown session", "?session=zzzz", service.ErrSessionNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				GetSessionFunc: func(ctx context.Context, id string) (*service.SessionInfo, error) {
					return nil, tt.sessionErr
				},
			}
			server := setupTestServer(t, mockService)

			w := httptest.NewRecorder()
			server.handleWebSocket(w, httptest.NewRequest("GET", "/ws"+tt.query, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

// newRealServer wires the real service stack behind the router.
func newRealServer(t *testing.T) *httptest.Server {
	t.Helper()
	profiles, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("config.NewManager: %v", err)
	}
	svc := service.NewGameService(session.NewManager(), profiles)
	ts := httptest.NewServer(setupTestServer(t, svc))
	t.Cleanup(ts.Close)
	return ts
}

func TestEndToEndPush(t *testing.T) {
	ts := newRealServer(t)

	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var created service.SessionInfo
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || created.ID == "" {
		t.Fatalf("create failed: %d %+v", resp.StatusCode, created)
	}

	// Push both objects up onto the goals, then push once more into the
	// boundary.
	moves := []string{"s", "s", "a", "a", "w", "s", "a", "w", "w"}
	body, _ := json.Marshal(map[string][]string{"moves": moves})
	resp, err = http.Post(ts.URL+"/api/sessions/"+created.ID+"/bulk-move", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("bulk-move: %v", err)
	}
	var bulk service.BulkMoveResult
	json.NewDecoder(resp.Body).Decode(&bulk)
	resp.Body.Close()

	if bulk.MovesAttempted != 9 || bulk.MovesExecuted != 8 || bulk.Pushes != 2 {
		t.Errorf("attempted/executed/pushes = %d/%d/%d, want 9/8/2", bulk.MovesAttempted, bulk.MovesExecuted, bulk.Pushes)
	}
	if bulk.Success {
		t.Error("Expected Success=false after the final blocked push")
	}
	if bulk.EndPos != (engine.Position{X: 1, Y: 1}) {
		t.Errorf("EndPos = %v, want (1,1)", bulk.EndPos)
	}

	resp, err = http.Get(ts.URL + "/api/sessions/" + created.ID + "/board")
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("board content type = %s", ct)
	}

	raw, _ := io.ReadAll(resp.Body)
	want := "########\n# OO   #\n# p    #\n#      #\n########\n"
	if string(raw) != want {
		t.Errorf("board =\n%s\nwant\n%s", raw, want)
	}
}

func TestProfileRulesOnRealStack(t *testing.T) {
	ts := newRealServer(t)

	post := func(path string, body interface{}) int {
		t.Helper()
		data, _ := json.Marshal(body)
		resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	swapped := engine.DefaultProfile()
	swapped.Name = "swapped"
	swapped.Bindings["up"] = "down"
	if code := post("/api/profiles", swapped); code != http.StatusBadRequest {
		t.Errorf("Saving a profile that remaps up: expected 400, got %d", code)
	}

	if code := post("/api/sessions", map[string]string{"profile_id": "../outside.json"}); code != http.StatusBadRequest {
		t.Errorf("Creating a session with a path profile: expected 400, got %d", code)
	}
}
