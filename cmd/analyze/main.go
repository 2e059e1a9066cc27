// Command analyze prints quick, human-readable summaries of the move journals
// written by the server. For each session it reports the profile, outcome
// counts, push statistics and the actor's last known position, and highlights
// sessions that spent most of their input on blocked or ignored moves.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/wricardo/pushbox/game/engine"
	"github.com/wricardo/pushbox/game/session"
)

// wasteThreshold is the share of rejected input above which a session is
// flagged.
const wasteThreshold = 0.5

// Summary is the analysis of one session's journal.
type Summary struct {
	SessionID     string
	Profile       string
	Moves         int
	Outcomes      map[engine.Outcome]int
	ObjectsPushed int
	LongestChain  int
	LastPosition  *engine.Position
	LongestStuck  int
}

// Rejected is the number of moves that left the grid unchanged.
func (s Summary) Rejected() int {
	return s.Outcomes[engine.OutcomeBlocked] + s.Outcomes[engine.OutcomeIgnored]
}

// Wasteful reports whether most of the input was rejected.
func (s Summary) Wasteful() bool {
	return s.Moves > 0 && float64(s.Rejected())/float64(s.Moves) > wasteThreshold
}

func summarize(id string, entries []session.JournalEntry) Summary {
	s := Summary{
		SessionID: id,
		Outcomes:  make(map[engine.Outcome]int),
	}

	stuck := 0
	for _, e := range entries {
		if e.Profile != "" {
			s.Profile = e.Profile
		}
		if e.Event != session.EventMove || e.Move == nil {
			continue
		}

		m := e.Move
		s.Moves++
		s.Outcomes[m.Outcome]++

		if m.Outcome.Accepted() {
			to := m.To
			s.LastPosition = &to
			stuck = 0
		} else {
			stuck++
			if stuck > s.LongestStuck {
				s.LongestStuck = stuck
			}
		}

		if m.Outcome == engine.OutcomePushed {
			s.ObjectsPushed += m.Chain
			if m.Chain > s.LongestChain {
				s.LongestChain = m.Chain
			}
		}
	}
	return s
}

func printSummary(s Summary) {
	fmt.Printf("\n=== Session %s ===\n", s.SessionID)
	fmt.Printf("Profile: %s\n", s.Profile)
	fmt.Printf("Moves: %d\n", s.Moves)
	for _, o := range []engine.Outcome{engine.OutcomeMoved, engine.OutcomePushed, engine.OutcomeBlocked, engine.OutcomeIgnored} {
		fmt.Printf("  %-8s %d\n", o, s.Outcomes[o])
	}
	fmt.Printf("Objects pushed: %d (longest chain %d)\n", s.ObjectsPushed, s.LongestChain)
	if s.LastPosition != nil {
		fmt.Printf("Last position: %v\n", *s.LastPosition)
	}

	if s.Wasteful() {
		fmt.Printf("⚠️  WARNING: %d/%d moves changed nothing (longest run %d)\n", s.Rejected(), s.Moves, s.LongestStuck)
	} else {
		fmt.Printf("✅ Most input moved the actor\n")
	}
}

func main() {
	dir := "sessions"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	journal, err := session.NewFileJournal(dir)
	if err != nil {
		fmt.Printf("Error opening journal: %v\n", err)
		os.Exit(1)
	}

	ids, err := journal.ListAll()
	if err != nil {
		fmt.Printf("Error listing journals: %v\n", err)
		os.Exit(1)
	}
	sort.Strings(ids)

	for _, id := range ids {
		entries, err := journal.Load(id)
		if err != nil {
			fmt.Printf("Error reading %s: %v\n", id, err)
			continue
		}
		printSummary(summarize(id, entries))
	}
}
