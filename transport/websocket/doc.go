// Package websocket pushes live board updates to watchers of a session and
// accepts moves from them.
//
// Clients connect with the session ID as a query parameter (/ws?session=abcd).
// A central Hub keeps the connected clients per session; every client has a
// read pump and a write pump goroutine.
//
// Message Protocol:
//
//   - Outgoing: {"session_id": "abcd", "event": "state_update", "game_state": {...}}
//   - Incoming: {"direction": "w"}, resolved through the session's profile
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	hub.SetMoveHandler(func(ctx context.Context, sessionID, token string) { ... })
//	hub.BroadcastToSession(sessionID, state)
package websocket
