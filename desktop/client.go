package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Position is a grid coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Cell mirrors the flags the server reports for one grid cell.
type Cell struct {
	Object bool `json:"object,omitempty"`
	Actor  bool `json:"actor,omitempty"`
	Goal   bool `json:"goal,omitempty"`
}

// GameState is the part of the server's game state the client draws.
type GameState struct {
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Grid        [][]Cell `json:"grid"`
	ActorPos    Position `json:"actor_pos"`
	ProfileName string   `json:"profile_name"`
	TotalMoves  int      `json:"total_moves"`
	Message     string   `json:"message"`
}

// GoalsCovered counts goals holding an object, and all goals.
func (s *GameState) GoalsCovered() (covered, goals int) {
	for _, row := range s.Grid {
		for _, c := range row {
			if c.Goal {
				goals++
				if c.Object {
					covered++
				}
			}
		}
	}
	return covered, goals
}

// Solved reports whether every goal holds an object.
func (s *GameState) Solved() bool {
	covered, goals := s.GoalsCovered()
	return goals > 0 && covered == goals
}

// WSMessage represents WebSocket message wrapper
type WSMessage struct {
	SessionID string     `json:"session_id"`
	GameState *GameState `json:"game_state,omitempty"`
	Event     string     `json:"event,omitempty"`
}

// parseWSMessage decodes a hub message. Messages without a state are
// reported with a nil state and no error.
func parseWSMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// APIClient talks to the REST API and the WebSocket hub of one server.
type APIClient struct {
	baseURL string
	http    *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// CreateSession starts a session with the given profile, or the server
// default when profile is empty.
func (c *APIClient) CreateSession(profile string) (string, error) {
	payload := "{}"
	if profile != "" {
		data, _ := json.Marshal(map[string]string{"profile_id": profile})
		payload = string(data)
	}

	resp, err := c.http.Post(c.baseURL+"/api/sessions", "application/json", strings.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create session: %s (body: %s)", resp.Status, body)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse session response: %v (body: %s)", err, string(body))
	}
	log.Printf("Created new session: %s (profile: %s)", result.ID, profile)
	return result.ID, nil
}

// FetchState gets the current game state of a session.
func (c *APIClient) FetchState(sessionID string) (*GameState, error) {
	resp, err := c.http.Get(c.baseURL + "/api/sessions/" + url.PathEscape(sessionID) + "/state")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch state: %s (body: %s)", resp.Status, body)
	}

	var state GameState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %v (body: %s)", err, string(body))
	}
	return &state, nil
}

// wsURL derives the hub URL for a session from the API base URL.
func (c *APIClient) wsURL(sessionID string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	q := url.Values{}
	q.Set("session", sessionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial connects to the hub for a session.
func (c *APIClient) Dial(sessionID string) (*websocket.Conn, error) {
	target, err := c.wsURL(sessionID)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.Dial(target, nil)
	if err != nil {
		return nil, err
	}
	log.Printf("WebSocket connected for session %s", sessionID)
	return conn, nil
}
