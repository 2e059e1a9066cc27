package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wricardo/pushbox/game/engine"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope pushed to clients.
type Message struct {
	SessionID string            `json:"session_id"`
	GameState *engine.GameState `json:"game_state,omitempty"`
	Event     string            `json:"event,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
}

// Command is what clients may send. Direction is an input token resolved by
// the session's profile.
type Command struct {
	Direction string `json:"direction"`
}

// MoveHandler applies an inbound token to a session.
type MoveHandler func(ctx context.Context, sessionID, token string)

// Client is a middleman between the websocket connection and the hub
type Client struct {
	id        string
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

type envelope struct {
	sessionID string
	payload   []byte
}

// Hub maintains the set of active clients per session and fans out messages.
// Session IDs are matched case-insensitively.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Client]bool

	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	onMove MoveHandler
}

// NewHub creates a new hub
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan envelope, engine.WebSocketBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// SetMoveHandler installs the function that applies moves received from
// clients. Without one, inbound messages are dropped.
func (h *Hub) SetMoveHandler(fn MoveHandler) {
	h.mu.Lock()
	h.onMove = fn
	h.mu.Unlock()
}

// Run processes registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case env := <-h.broadcast:
			h.deliver(env)
		}
	}
}

func sessionKey(id string) string {
	return strings.ToLower(id)
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := sessionKey(client.sessionID)
	if h.sessions[key] == nil {
		h.sessions[key] = make(map[*Client]bool)
	}
	h.sessions[key][client] = true
	log.Printf("WebSocket client %s joined session %s (%d connected)", client.id, client.sessionID, len(h.sessions[key]))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := sessionKey(client.sessionID)
	clients, ok := h.sessions[key]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.sessions, key)
	}
	log.Printf("WebSocket client %s left session %s", client.id, client.sessionID)
}

func (h *Hub) deliver(env envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := sessionKey(env.sessionID)
	for client := range h.sessions[key] {
		select {
		case client.send <- env.payload:
		default:
			// Slow consumer
			delete(h.sessions[key], client)
			close(client.send)
		}
	}
	if len(h.sessions[key]) == 0 {
		delete(h.sessions, key)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, clients := range h.sessions {
		for client := range clients {
			close(client.send)
		}
		delete(h.sessions, key)
	}
}

// ClientCount returns how many clients watch sessionID.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionKey(sessionID)])
}

// BroadcastToSession queues a state update for every client of sessionID.
func (h *Hub) BroadcastToSession(sessionID string, gameState *engine.GameState) {
	h.queue(Message{
		SessionID: sessionID,
		GameState: gameState,
		Event:     "state_update",
	})
}

// BroadcastEvent queues an arbitrary event for every client of sessionID.
func (h *Hub) BroadcastEvent(sessionID, event string, data interface{}) {
	h.queue(Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	})
}

func (h *Hub) queue(msg Message) {
	if h.ClientCount(msg.SessionID) == 0 {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Warning: failed to encode websocket message: %v", err)
		return
	}
	select {
	case h.broadcast <- envelope{sessionID: msg.SessionID, payload: payload}:
	default:
		log.Printf("Warning: websocket broadcast queue full, dropping %s for session %s", msg.Event, msg.SessionID)
	}
}

// ServeWS upgrades the request and attaches the connection to sessionID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		id:        uuid.NewString(),
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, engine.WebSocketBufferSize),
		sessionID: sessionID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump reads move commands from the connection until it closes.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil || cmd.Direction == "" {
			log.Printf("Warning: ignoring malformed websocket message from %s", c.id)
			continue
		}

		c.hub.mu.RLock()
		handler := c.hub.onMove
		c.hub.mu.RUnlock()
		if handler != nil {
			handler(context.Background(), c.sessionID, cmd.Direction)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
