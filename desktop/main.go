// Command desktop is a graphical pushbox client. It watches one or more
// sessions over the server's WebSocket hub and sends moves for the active one
// through the same connection.
//
//	desktop [-url http://localhost:8080] [-profile vim] [session-id ...]
//
// Without session IDs a new session is created.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	cellSize          = 64
	headerHeight      = 80
	screenWidth       = 640
	screenHeight      = 480
	animationDuration = 120 * time.Millisecond
	bumpDuration      = 300 * time.Millisecond
	maxSessions       = 9
)

var (
	emptyColor  = color.RGBA{40, 40, 48, 255}
	goalColor   = color.RGBA{60, 90, 160, 255}
	objectColor = color.RGBA{200, 150, 60, 255}
	placedColor = color.RGBA{90, 200, 90, 255}
	wallColor   = color.RGBA{90, 90, 90, 255}
)

// Actor colors for different sessions
var actorColors = []color.RGBA{
	{255, 100, 100, 255},
	{100, 100, 255, 255},
	{100, 255, 100, 255},
	{255, 255, 100, 255},
	{255, 100, 255, 255},
	{100, 255, 255, 255},
	{255, 165, 0, 255},
	{128, 0, 128, 255},
	{255, 192, 203, 255},
}

// SessionData holds data for a single session
type SessionData struct {
	sessionID     string
	state         *GameState
	wsConn        *websocket.Conn
	writeMu       sync.Mutex
	prevPos       Position
	targetPos     Position
	moveStartTime time.Time
	animationTime float64
	bumpTime      time.Time
	isBumping     bool
}

// applyState records a new state and starts the matching animation: a slide
// when the actor moved, a bump when a move was made but the actor stayed.
func (s *SessionData) applyState(state *GameState, now time.Time) {
	if s.state == nil {
		s.prevPos = state.ActorPos
		s.targetPos = state.ActorPos
		s.animationTime = 1.0
	} else if s.state.ActorPos != state.ActorPos {
		s.prevPos = s.state.ActorPos
		s.targetPos = state.ActorPos
		s.moveStartTime = now
		s.animationTime = 0.0
		s.isBumping = false
	} else if state.TotalMoves > s.state.TotalMoves {
		s.bumpTime = now
		s.isBumping = true
	}
	s.state = state
}

// Game represents the desktop game client
type Game struct {
	api           *APIClient
	profile       string
	sessions      []*SessionData
	activeSession int
	stateMutex    sync.RWMutex
	status        string
}

// NewGame creates a game watching the given sessions, or a fresh one.
func NewGame(api *APIClient, profile string, sessionIDs []string) *Game {
	g := &Game{api: api, profile: profile}
	if len(sessionIDs) == 0 {
		sessionIDs = []string{""}
	}
	for _, sid := range sessionIDs {
		g.addSession(sid)
	}
	return g
}

// addSession joins sessionID, creating a session when it is empty.
func (g *Game) addSession(sessionID string) {
	if sessionID == "" {
		id, err := g.api.CreateSession(g.profile)
		if err != nil {
			g.status = fmt.Sprintf("Failed to create session: %v", err)
			log.Print(g.status)
			return
		}
		sessionID = id
	}

	session := &SessionData{sessionID: sessionID}

	if state, err := g.api.FetchState(sessionID); err != nil {
		log.Printf("Error fetching state for %s: %v", sessionID, err)
	} else {
		session.applyState(state, time.Now())
	}

	conn, err := g.api.Dial(sessionID)
	if err != nil {
		log.Printf("Failed to connect WebSocket for %s: %v", sessionID, err)
	} else {
		session.wsConn = conn
		go g.listenWebSocket(session)
	}

	g.stateMutex.Lock()
	g.sessions = append(g.sessions, session)
	g.stateMutex.Unlock()
}

// listenWebSocket applies state updates pushed by the hub
func (g *Game) listenWebSocket(session *SessionData) {
	conn := session.wsConn
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("WebSocket read error for %s: %v", session.sessionID, err)
			g.stateMutex.Lock()
			session.wsConn = nil
			g.stateMutex.Unlock()
			return
		}

		msg, err := parseWSMessage(message)
		if err != nil {
			log.Printf("WebSocket JSON parse error: %v", err)
			continue
		}
		if msg.Event == "session_deleted" {
			g.stateMutex.Lock()
			g.status = fmt.Sprintf("Session %s was deleted", session.sessionID)
			g.stateMutex.Unlock()
			continue
		}
		if msg.GameState == nil {
			continue
		}

		g.stateMutex.Lock()
		session.applyState(msg.GameState, time.Now())
		g.stateMutex.Unlock()
	}
}

// sendMove sends a direction for the active session through its WebSocket.
func (g *Game) sendMove(direction string) {
	g.stateMutex.RLock()
	if len(g.sessions) == 0 {
		g.stateMutex.RUnlock()
		return
	}
	session := g.sessions[g.activeSession]
	conn := session.wsConn
	g.stateMutex.RUnlock()

	if conn == nil {
		g.status = "Not connected; moves are disabled"
		return
	}

	data, _ := json.Marshal(map[string]string{"direction": direction})
	session.writeMu.Lock()
	defer session.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("Failed to send move for %s: %v", session.sessionID, err)
	}
}

// Update handles input and advances animations
func (g *Game) Update() error {
	g.stateMutex.Lock()
	for _, session := range g.sessions {
		if session.animationTime < 1.0 {
			session.animationTime = math.Min(1.0, float64(time.Since(session.moveStartTime))/float64(animationDuration))
		}
		if session.isBumping && time.Since(session.bumpTime) > bumpDuration {
			session.isBumping = false
		}
	}
	count := len(g.sessions)
	g.stateMutex.Unlock()

	for i := ebiten.Key1; i <= ebiten.Key9; i++ {
		if inpututil.IsKeyJustPressed(i) {
			if idx := int(i - ebiten.Key1); idx < count {
				g.activeSession = idx
			}
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyN) && count < maxSessions {
		g.addSession("")
	}

	// Arrows always send direction names; letters go through the
	// session's profile on the server.
	keys := map[ebiten.Key]string{
		ebiten.KeyArrowUp:    "up",
		ebiten.KeyArrowDown:  "down",
		ebiten.KeyArrowLeft:  "left",
		ebiten.KeyArrowRight: "right",
	}
	for key, dir := range keys {
		if inpututil.IsKeyJustPressed(key) {
			g.sendMove(dir)
		}
	}
	for _, r := range ebiten.AppendInputChars(nil) {
		if isClientKey(r) {
			continue
		}
		g.sendMove(string(r))
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	return nil
}

// isClientKey reports runes the client handles itself.
func isClientKey(r rune) bool {
	return (r >= '1' && r <= '9') || r == 'n' || r == 'N'
}

// cellColor returns the fill for a cell
func cellColor(c Cell) color.Color {
	switch {
	case c.Object && c.Goal:
		return placedColor
	case c.Object:
		return objectColor
	case c.Goal:
		return goalColor
	default:
		return emptyColor
	}
}

// Draw renders the active session's grid and actor under a header with
// per-session stats
func (g *Game) Draw(screen *ebiten.Image) {
	g.stateMutex.RLock()
	defer g.stateMutex.RUnlock()

	if len(g.sessions) == 0 || g.sessions[g.activeSession].state == nil {
		ebitenutil.DebugPrint(screen, "Loading... "+g.status)
		return
	}

	g.drawSessionStats(screen)

	active := g.sessions[g.activeSession]
	state := active.state
	originX := float32(cellSize / 2)
	originY := float32(headerHeight)

	vector.DrawFilledRect(screen, originX-8, originY-8,
		float32(state.Width*cellSize)+16, float32(state.Height*cellSize)+16, wallColor, false)

	for y, row := range state.Grid {
		for x, c := range row {
			px := originX + float32(x*cellSize)
			py := originY + float32(y*cellSize)
			vector.DrawFilledRect(screen, px, py, cellSize-2, cellSize-2, emptyColor, false)
			if c.Goal {
				vector.StrokeRect(screen, px+6, py+6, cellSize-14, cellSize-14, 3, goalColor, false)
			}
			if c.Object {
				vector.DrawFilledRect(screen, px+10, py+10, cellSize-22, cellSize-22, cellColor(c), false)
			}
		}
	}

	t := active.animationTime
	displayX := float64(active.prevPos.X)*(1.0-t) + float64(active.targetPos.X)*t
	displayY := float64(active.prevPos.Y)*(1.0-t) + float64(active.targetPos.Y)*t

	actorColor := actorColors[g.activeSession%len(actorColors)]
	var shakeX, shakeY float64
	if active.isBumping {
		progress := time.Since(active.bumpTime).Seconds() / bumpDuration.Seconds()
		intensity := 4.0 * (1.0 - progress)
		shakeX = intensity * math.Sin(progress*40)
		shakeY = intensity * math.Cos(progress*40)
		flash := (1.0 - progress) * 0.7
		actorColor.R = uint8(float64(actorColor.R)*(1.0-flash) + 255*flash)
	}

	cx := originX + float32(displayX*cellSize+shakeX) + cellSize/2 - 1
	cy := originY + float32(displayY*cellSize+shakeY) + cellSize/2 - 1
	vector.DrawFilledCircle(screen, cx, cy, cellSize/4, actorColor, true)

	msgY := int(originY) + state.Height*cellSize + 20
	ebitenutil.DebugPrintAt(screen, state.Message, int(originX), msgY)
	if g.status != "" {
		ebitenutil.DebugPrintAt(screen, g.status, int(originX), msgY+16)
	}
	ebitenutil.DebugPrintAt(screen, "1-9: Switch | N: New session | Arrows/profile keys: Move | ESC: Quit", 10, screenHeight-20)
}

// drawSessionStats draws one header line per session
func (g *Game) drawSessionStats(screen *ebiten.Image) {
	for idx, session := range g.sessions {
		if session.state == nil {
			continue
		}
		y := 5 + idx*15
		vector.DrawFilledRect(screen, 5, float32(y), 10, 10, actorColors[idx%len(actorColors)], false)

		marker := "   "
		if idx == g.activeSession {
			marker = ">>>"
		}
		conn := "OFF"
		if session.wsConn != nil {
			conn = "WS"
		}
		covered, goals := session.state.GoalsCovered()
		info := fmt.Sprintf("%s [%d] %s [%s] %s MV:%d GOALS:%d/%d",
			marker, idx+1, session.sessionID, conn, session.state.ProfileName,
			session.state.TotalMoves, covered, goals)
		if session.state.Solved() {
			info += " SOLVED"
		}
		ebitenutil.DebugPrintAt(screen, info, 20, y)
	}
}

// Layout returns the game screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Game server URL")
	profile := flag.String("profile", "", "Profile for new sessions")
	flag.Parse()

	game := NewGame(NewAPIClient(*serverURL), *profile, flag.Args())

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Pushbox")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
