// Package service provides the business logic layer for pushbox.
//
// The service package implements:
//   - Multi-session game management
//   - Profile lookup for new sessions and profile swaps
//   - Move processing with per-step diagnostics
//   - Move history pagination
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, lifecycle and journaling.
// ProfileManager loads and saves profiles.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP/terminal)
// and the game engine. Engines are not safe for concurrent use, so every
// operation that touches one runs under the service mutex; a move is fully
// resolved before the next one starts.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	profileMgr, _ := config.NewManager("profiles")
//	gameService := service.NewGameService(sessionMgr, profileMgr)
//
//	info, err := gameService.CreateSession(ctx, "vim")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, "h")
//	fmt.Println(result.Outcome, result.Message)
//
// Rejected Moves:
//
// A blocked or unrecognized move is not an error. It comes back with
// Success=false, an Outcome of "blocked" or "ignored" and AttemptedTo
// explaining which cell stopped it.
package service
