// Package engine provides the core game logic for pushbox.
//
// The engine package implements the game mechanics including:
//   - The fixed 6x3 grid of flag cells (object, actor, goal)
//   - Move resolution with chain pushing
//   - Input token resolution through profiles
//   - Move history and state snapshots
//
// Core Types:
//
// GridState owns the cells and the actor position and resolves moves with
// AttemptMove. GameEngine wraps one GridState with a Profile (key bindings and
// glyphs) and a move history, and implements the Engine interface used by the
// session and service layers. GameState is the serializable snapshot handed to
// the outer surfaces.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultProfile())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	m := gameEngine.Move("a")
//	fmt.Println(m.Outcome, engine.DescribeMove(m))
//
// Game Rules:
//
// The actor moves one cell at a time. Moving into an object pushes it, along
// with every object directly behind it, one cell further. The move is
// rejected when the actor or the last object of the chain would leave the
// grid; a rejected move changes nothing. Goal cells never change. There is no
// win detection, undo or scoring.
//
// Indexing a position outside the grid is a programming error and panics.
package engine
