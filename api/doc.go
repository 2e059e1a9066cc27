// Package api provides the HTTP REST API for pushbox.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"profile_id": "vim"}, optional)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//   - PUT /api/sessions/{id}/profile - Swap bindings and glyphs ({"profile_id": "vim"})
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Game state as JSON
//   - GET /api/sessions/{id}/board - Bordered text board (text/plain)
//   - POST /api/sessions/{id}/move - {"direction": "w"}; the token goes through the profile
//   - POST /api/sessions/{id}/bulk-move - {"moves": ["w","a"], "stop_on_block": false}
//   - GET /api/sessions/{id}/history - Paginated history (?page=1&limit=20&order=desc)
//
// Profiles:
//   - GET /api/profiles - List profiles
//   - GET /api/profiles/{name} - Get a profile
//   - POST /api/profiles - Save a profile
//
// Other:
//   - GET /health
//   - GET /ws?session={id} - Live updates, see package websocket
//
// A rejected move is not an HTTP error: the response is 200 with success
// false and an attempted_to block. Errors are JSON ({"error": "..."}) with 404
// for unknown sessions or profiles, 400 for bad bodies or invalid profiles and
// 500 otherwise.
package api
