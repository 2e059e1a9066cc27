// Package mcp exposes pushbox to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request to the REST
// API, and the JSON answer is turned into readable text.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - game_state: board, actor position and last message
//   - move: one input token, resolved through the session's profile
//   - bulk_move: several tokens in order
//   - move_history: paginated history
//   - list_profiles, set_profile
//   - game_instructions: the rules
//   - describe_cell: flags of one cell
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: mount the Client itself, it answers JSON-RPC posted to /mcp
//
// Tool arguments arrive as loosely typed JSON and are coerced with
// github.com/spf13/cast, so "3", 3 and 3.0 are all accepted for integers.
package mcp
