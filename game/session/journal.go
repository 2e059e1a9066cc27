package session

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/pushbox/game/engine"
)

var ErrJournalNotFound = errors.New("journal not found")

const (
	EventCreated = "session_created"
	EventMove    = "move"
)

// MoveJournal records what happened in each session. It is append-only and
// never used to restore a grid.
type MoveJournal interface {
	// Append adds an entry to its session's journal
	Append(entry JournalEntry) error

	// Load returns every entry of a session in write order
	Load(id string) ([]JournalEntry, error)

	// Delete removes a session's journal
	Delete(id string) error

	// ListAll returns the IDs of all journaled sessions
	ListAll() ([]string, error)

	// Exists checks if a session has a journal
	Exists(id string) bool
}

// JournalEntry is one JSON line of a journal file.
type JournalEntry struct {
	ID        string       `json:"id"`
	SessionID string       `json:"session_id"`
	Event     string       `json:"event"`
	Seq       int          `json:"seq"`
	Profile   string       `json:"profile,omitempty"`
	Move      *engine.Move `json:"move,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// FileJournal implements MoveJournal with one JSON-lines file per session
type FileJournal struct {
	dir string
	mu  sync.Mutex
}

// NewFileJournal creates a journal writing into dir, creating it if needed
func NewFileJournal(dir string) (*FileJournal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	return &FileJournal{dir: dir}, nil
}

// Append writes entry as a single line. Missing IDs and timestamps are filled in.
func (fj *FileJournal) Append(entry JournalEntry) error {
	if entry.SessionID == "" {
		return fmt.Errorf("journal entry needs a session ID")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}
	line = append(line, '\n')

	fj.mu.Lock()
	defer fj.mu.Unlock()

	f, err := os.OpenFile(fj.getFilePath(entry.SessionID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal file: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("failed to write journal entry: %w", err)
	}
	return f.Close()
}

// Load reads a session's journal
func (fj *FileJournal) Load(id string) ([]JournalEntry, error) {
	fj.mu.Lock()
	defer fj.mu.Unlock()

	f, err := os.Open(fj.getFilePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrJournalNotFound
		}
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	defer f.Close()

	var entries []JournalEntry
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if len(strings.TrimSpace(scanner.Text())) == 0 {
			continue
		}
		var entry JournalEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("failed to parse journal line %d: %w", lineNo, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal file: %w", err)
	}
	return entries, nil
}

// Delete removes a journal file
func (fj *FileJournal) Delete(id string) error {
	if !fj.Exists(id) {
		return ErrJournalNotFound
	}

	fj.mu.Lock()
	defer fj.mu.Unlock()

	if err := os.Remove(fj.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove journal file: %w", err)
	}
	return nil
}

// ListAll returns all journaled session IDs
func (fj *FileJournal) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fj.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := entry.Name(); strings.HasSuffix(name, ".jsonl") {
			ids = append(ids, strings.TrimSuffix(name, ".jsonl"))
		}
	}
	return ids, nil
}

// Exists checks if a journal file exists
func (fj *FileJournal) Exists(id string) bool {
	_, err := os.Stat(fj.getFilePath(id))
	return err == nil
}

func (fj *FileJournal) getFilePath(id string) string {
	return filepath.Join(fj.dir, strings.ToLower(id)+".jsonl")
}
