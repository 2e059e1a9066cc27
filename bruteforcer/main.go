// Command bruteforcer drives a running pushbox server over its REST API. It
// creates sessions, optionally scrambles them with random input, solves them
// with a breadth-first search and checks that the server agrees the puzzle is
// solved. It doubles as a soak test for the API.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/wricardo/pushbox/game/engine"
	"github.com/wricardo/pushbox/game/service"
)

type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, bytes.TrimSpace(data))
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

func (c *Client) CreateSession(profile string) (*service.SessionInfo, error) {
	var body any
	if profile != "" {
		body = map[string]string{"profile_id": profile}
	}

	var info service.SessionInfo
	if err := c.do(http.MethodPost, "/api/sessions", body, &info); err != nil {
		return nil, err
	}
	c.sessionID = info.ID
	return &info, nil
}

func (c *Client) GetState() (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) BulkMove(moves []string, stopOnBlock bool) (*service.BulkMoveResult, error) {
	req := map[string]any{"moves": moves, "stop_on_block": stopOnBlock}
	var result service.BulkMoveResult
	if err := c.do(http.MethodPost, c.sessionPath("/bulk-move"), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteSession() error {
	return c.do(http.MethodDelete, c.sessionPath(""), nil, nil)
}

// scramble returns n random tokens, mixing direction names, classic keys and
// junk the engine should ignore.
func scramble(rng *rand.Rand, n int) []string {
	pool := []string{"up", "down", "left", "right", "w", "a", "s", "d", "?", "x"}
	out := make([]string, n)
	for i := range out {
		out[i] = pool[rng.Intn(len(pool))]
	}
	return out
}

// AttemptResult summarizes one session's run.
type AttemptResult struct {
	SessionID string
	Moves     int
	Explored  int
	Solvable  bool
	Solved    bool
}

// runAttempt solves the client's current session. The plan is sent in
// batches no larger than the server's bulk limit.
func runAttempt(c *Client, solver *Solver) (AttemptResult, error) {
	res := AttemptResult{SessionID: c.sessionID}

	state, err := c.GetState()
	if err != nil {
		return res, err
	}
	grid, err := engine.GridFromView(engine.SnapshotView(state.Grid))
	if err != nil {
		return res, fmt.Errorf("server sent an invalid grid: %w", err)
	}

	moves, explored, ok := solver.Solve(grid)
	res.Explored = explored
	res.Solvable = ok
	if !ok {
		return res, nil
	}
	res.Moves = len(moves)

	var last *engine.GameState
	for _, batch := range chunk(tokens(moves), engine.MaxBulkMoves) {
		result, err := c.BulkMove(batch, true)
		if err != nil {
			return res, err
		}
		if result.StopReasonCode != "" {
			return res, fmt.Errorf("server stopped the plan at move %d: %s", result.StoppedOnMove, result.StoppedReason)
		}
		last = result.GameState
	}
	if last == nil {
		last = state
	}

	res.Solved = Solved(engine.SnapshotView(last.Grid))
	return res, nil
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Game server URL")
	profile := flag.String("profile", "", "Profile to create sessions with (default: server default)")
	continueSession := flag.String("continue", "", "Solve an existing session by ID instead of creating one")
	attempts := flag.Int("attempts", 1, "Number of sessions to create and solve")
	scrambleMoves := flag.Int("scramble", 0, "Random tokens to send before solving")
	maxStates := flag.Int("max-states", 100000, "Search bound per session")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed for scrambling")
	keep := flag.Bool("keep", false, "Keep sessions instead of deleting them")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	log.Printf("Connecting to game server at %s", *serverURL)
	client := NewClient(*serverURL)
	solver := &Solver{MaxStates: *maxStates}
	rng := rand.New(rand.NewSource(*seed))

	if *continueSession != "" {
		*attempts = 1
	}

	failures := 0
	for i := 1; i <= *attempts; i++ {
		if *continueSession != "" {
			client.sessionID = *continueSession
			log.Printf("Solving existing session %s", client.sessionID)
		} else {
			info, err := client.CreateSession(*profile)
			if err != nil {
				log.Fatalf("Failed to create session: %v", err)
			}
			if *verbose {
				log.Printf("Session created: %s (profile %s)", info.ID, info.ProfileID)
			}
		}

		if *scrambleMoves > 0 {
			for _, batch := range chunk(scramble(rng, *scrambleMoves), engine.MaxBulkMoves) {
				if _, err := client.BulkMove(batch, false); err != nil {
					log.Fatalf("Failed to scramble: %v", err)
				}
			}
		}

		res, err := runAttempt(client, solver)
		switch {
		case err != nil:
			failures++
			log.Printf("Attempt %d (%s): error: %v", i, res.SessionID, err)
		case !res.Solvable:
			log.Printf("Attempt %d (%s): no solution within %d states", i, res.SessionID, res.Explored)
		case !res.Solved:
			failures++
			log.Printf("Attempt %d (%s): sent %d moves but the server grid is not solved", i, res.SessionID, res.Moves)
		default:
			log.Printf("Attempt %d (%s): solved in %d moves (%d states explored)", i, res.SessionID, res.Moves, res.Explored)
		}

		if !*keep && *continueSession == "" {
			if err := client.DeleteSession(); err != nil {
				log.Printf("Warning: failed to delete session %s: %v", client.sessionID, err)
			}
		}
	}

	if failures > 0 {
		log.Printf("%d/%d attempts failed", failures, *attempts)
		os.Exit(1)
	}
}
