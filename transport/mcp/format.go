package mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wricardo/pushbox/game/engine"
	"github.com/wricardo/pushbox/game/render"
	"github.com/wricardo/pushbox/game/service"
)

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nProfile: %s\nCreated: %s\n\n%s",
		session.ID, session.ProfileID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState, session.Profile))
}

// boardLines prefers the server-drawn board and falls back to drawing the
// grid with the reference glyphs.
func boardLines(state *engine.GameState) []string {
	if len(state.Board) > 0 {
		return state.Board
	}
	if len(state.Grid) == 0 {
		return nil
	}
	return render.Text(engine.SnapshotView(state.Grid), engine.DefaultGlyphs())
}

func formatGameState(state *engine.GameState, profile *engine.Profile) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	onGoal := 0
	goals := 0
	if len(state.Grid) > 0 {
		view := engine.SnapshotView(state.Grid)
		onGoal = engine.CountCells(view, engine.HasObject|engine.IsGoal)
		goals = engine.CountCells(view, engine.IsGoal)
	}

	fmt.Fprintf(&result, "Position: (%d,%d) | Objects on goals: %d/%d | Moves: %d | Profile: %s\n\n",
		state.ActorPos.X, state.ActorPos.Y, onGoal, goals, state.TotalMoves, state.ProfileName)

	for _, line := range boardLines(state) {
		result.WriteString(line + "\n")
	}

	if len(state.LocalView3x3) == 3 {
		result.WriteString("\nLocal 3x3:\n")
		result.WriteString(strings.Join(state.LocalView3x3, "\n") + "\n")
	}

	if profile != nil {
		fmt.Fprintf(&result, "\nKeys: %s\n", formatBindings(profile.Bindings))
	}

	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}

	return result.String()
}

// formatBindings lists bindings grouped by direction, e.g. "up=w left=a".
func formatBindings(bindings map[string]string) string {
	byDir := make(map[string][]string)
	for token, dir := range bindings {
		byDir[dir] = append(byDir[dir], token)
	}

	parts := make([]string, 0, len(engine.Directions))
	for _, d := range engine.Directions {
		keys := byDir[d.String()]
		if len(keys) == 0 {
			continue
		}
		sort.Strings(keys)
		parts = append(parts, d.String()+"="+strings.Join(keys, "/"))
	}
	return strings.Join(parts, " ")
}

func stepLine(s *service.StepInfo) string {
	line := fmt.Sprintf("%q %s (%d,%d)→(%d,%d) %s", s.Token, s.Dir, s.From.X, s.From.Y, s.To.X, s.To.Y, s.Outcome)
	if s.Chain > 0 {
		line += fmt.Sprintf(" chain=%d", s.Chain)
	}
	if s.Landing != nil {
		line += fmt.Sprintf(" landing=(%d,%d)", s.Landing.X, s.Landing.Y)
	}
	return line + "\n"
}

func formatStep(s *service.StepInfo) string {
	return "Step: " + stepLine(s)
}

func formatAttempt(a *service.AttemptInfo) string {
	return fmt.Sprintf("Rejected: attempted (%d,%d) cell=%s chain=%d (%s)\n", a.X, a.Y, a.Cell, a.Chain, a.Reason)
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Move accepted\n")
	} else {
		b.WriteString("✗ Move rejected\n")
	}

	if result.Step != nil {
		b.WriteString(formatStep(result.Step))
	}
	if result.AttemptedTo != nil {
		b.WriteString(formatAttempt(result.AttemptedTo))
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n" + formatGameState(result.GameState, nil))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	profileName := ""
	if result.GameState != nil {
		profileName = result.GameState.ProfileName
	}
	fmt.Fprintf(&b, "Session: %s • Profile: %s\n", sessionID, profileName)

	fmt.Fprintf(&b, "Executed %d/%d moves (%d pushes)\n", result.MovesExecuted, result.RequestedMoves, result.Pushes)
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to the first %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped: %s\n", result.StoppedReason)
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for i := range result.Steps {
			s := &result.Steps[i]
			fmt.Fprintf(&b, "%d. %s", s.Idx, stepLine(s))
		}
	}

	if result.AttemptedTo != nil {
		b.WriteString("\n" + formatAttempt(result.AttemptedTo))
	}

	if len(result.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "\nPossible moves: %s\n", strings.Join(result.PossibleMoves, ","))
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState, nil))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d, Total: %d moves):\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		dir := move.Direction
		if dir == "" {
			dir = "-"
		}
		fmt.Fprintf(&b, "%d. %q %s (%d,%d)→(%d,%d) %s\n",
			move.MoveNumber, move.Action, dir,
			move.FromPosition.X, move.FromPosition.Y,
			move.ToPosition.X, move.ToPosition.Y, move.Outcome)
	}

	if history.HasNext {
		b.WriteString("\n(more moves on the next page)\n")
	}
	return b.String()
}

// describeCell explains the flags of one cell of a state snapshot.
func describeCell(state *engine.GameState, pos engine.Position) string {
	view := engine.SnapshotView(state.Grid)
	if pos.X < 0 || pos.Y < 0 || pos.X >= view.Width() || pos.Y >= view.Height() {
		return fmt.Sprintf("Cell at position (%d, %d) is outside the %dx%d grid. It is drawn as wall; nothing can move there.",
			pos.X, pos.Y, view.Width(), view.Height())
	}

	flag := view.At(pos)
	glyph := render.Glyph(flag, engine.DefaultGlyphs())

	var what string
	switch {
	case flag.Has(engine.HasActor) && flag.Has(engine.IsGoal):
		what = "The actor, standing on a goal"
	case flag.Has(engine.HasActor):
		what = "The actor"
	case flag.Has(engine.HasObject) && flag.Has(engine.IsGoal):
		what = "An object resting on a goal"
	case flag.Has(engine.HasObject):
		what = "An object; moving into it pushes it"
	case flag.Has(engine.IsGoal):
		what = "An empty goal"
	default:
		what = "An empty cell"
	}

	return fmt.Sprintf(`Cell at position (%d, %d):
━━━━━━━━━━━━━━━━━━━━━━━━
Glyph (classic): %q
Flags: %s
Description: %s
`, pos.X, pos.Y, string(glyph), flag, what)
}
