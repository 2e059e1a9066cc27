package main

import (
	"fmt"

	"github.com/wricardo/pushbox/game/engine"
)

// Solver finds the shortest move sequence that puts every object on a goal,
// by breadth-first search over actor and object positions.
type Solver struct {
	// MaxStates bounds the search; zero means no bound.
	MaxStates int
}

type node struct {
	grid *engine.GridState
	path []engine.Direction
}

// stateKey identifies a search state. Goals never move, so actor and object
// positions are enough.
func stateKey(g *engine.GridState) string {
	return fmt.Sprint(g.ActorPosition(), engine.FindCells(g, engine.HasObject))
}

// Solved reports whether every object rests on a goal.
func Solved(view engine.GridView) bool {
	return engine.CountCells(view, engine.HasObject) == engine.CountCells(view, engine.HasObject|engine.IsGoal)
}

// Solve returns the moves from start to a solved grid. ok is false when no
// solution exists or the search bound was hit. start is not modified.
func (s *Solver) Solve(start *engine.GridState) (moves []engine.Direction, explored int, ok bool) {
	if Solved(start) {
		return []engine.Direction{}, 1, true
	}

	visited := map[string]bool{stateKey(start): true}
	queue := []node{{grid: start, path: nil}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		explored++

		if s.MaxStates > 0 && explored > s.MaxStates {
			return nil, explored, false
		}

		for _, dir := range engine.Directions {
			if !current.grid.CanMove(dir) {
				continue
			}
			next := current.grid.Clone()
			next.AttemptMove(dir)

			key := stateKey(next)
			if visited[key] {
				continue
			}
			visited[key] = true

			path := append(append([]engine.Direction{}, current.path...), dir)
			if Solved(next) {
				return path, explored, true
			}
			queue = append(queue, node{grid: next, path: path})
		}
	}

	return nil, explored, false
}

// tokens spells moves with canonical direction names, which every profile
// accepts.
func tokens(moves []engine.Direction) []string {
	out := make([]string, len(moves))
	for i, d := range moves {
		out[i] = d.String()
	}
	return out
}

// chunk splits moves into batches no larger than size.
func chunk(moves []string, size int) [][]string {
	var batches [][]string
	for len(moves) > size {
		batches = append(batches, moves[:size])
		moves = moves[size:]
	}
	if len(moves) > 0 {
		batches = append(batches, moves)
	}
	return batches
}
