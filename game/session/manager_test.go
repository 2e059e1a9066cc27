package session

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/pushbox/game/engine"
)

func createTestProfile() *engine.Profile {
	return engine.DefaultProfile()
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	profile := createTestProfile()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", profile)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "test-session" {
			t.Errorf("Expected session ID 'test-session', got '%s'", session.ID)
		}
		if session.Engine == nil {
			t.Fatal("Expected engine to be initialized")
		}
		if session.ProfileID != "classic" {
			t.Errorf("Expected profile classic, got %s", session.ProfileID)
		}
		if session.Engine.ActorPosition() != (engine.Position{X: 4, Y: 0}) {
			t.Errorf("Expected fresh grid, actor at %v", session.Engine.ActorPosition())
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", profile)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character ID, got '%s'", session.ID)
		}
	})

	t.Run("duplicate ID is case-insensitive", func(t *testing.T) {
		_, err := manager.Create("TEST-SESSION", profile)
		if !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("invalid ID", func(t *testing.T) {
		for _, id := range []string{"../x", "a b", "a.b"} {
			if _, err := manager.Create(id, profile); !errors.Is(err, ErrInvalidSessionID) {
				t.Errorf("Create(%q): expected ErrInvalidSessionID, got %v", id, err)
			}
		}
	})

	t.Run("invalid profile", func(t *testing.T) {
		_, err := manager.Create("bad-profile", &engine.Profile{Name: "empty"})
		if err == nil {
			t.Error("Expected error for invalid profile")
		}
	})

	t.Run("nil profile uses classic", func(t *testing.T) {
		session, err := manager.Create("nil-profile", nil)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ProfileID != "classic" {
			t.Errorf("Expected classic, got %s", session.ProfileID)
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	created, _ := manager.Create("AbCd", createTestProfile())

	for _, id := range []string{"AbCd", "abcd", "ABCD"} {
		got, err := manager.Get(id)
		if err != nil {
			t.Fatalf("Get(%q) failed: %v", id, err)
		}
		if got != created {
			t.Errorf("Get(%q) returned a different session", id)
		}
	}

	if _, err := manager.Get("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_GetOrCreate(t *testing.T) {
	manager := NewManager()

	first, err := manager.GetOrCreate("game", createTestProfile())
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	second, err := manager.GetOrCreate("GAME", nil)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if first != second {
		t.Error("Expected the existing session")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", manager.Count())
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	manager.Create("gone", createTestProfile())

	if err := manager.Delete("GONE"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := manager.Get("gone"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("Expected session to be gone")
	}
	if err := manager.Delete("gone"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	for _, id := range []string{"a1", "b2", "c3"} {
		manager.Create(id, createTestProfile())
	}

	sessions := manager.List()
	if len(sessions) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(sessions))
	}
	seen := map[string]bool{}
	for _, s := range sessions {
		seen[s.ID] = true
	}
	for _, id := range []string{"a1", "b2", "c3"} {
		if !seen[id] {
			t.Errorf("Missing session %s", id)
		}
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager()
	old, _ := manager.Create("old", createTestProfile())
	manager.Create("fresh", createTestProfile())

	old.LastAccessedAt = time.Now().Add(-2 * time.Hour)

	removed := manager.CleanupExpiredSessions(time.Hour)
	if removed != 1 {
		t.Errorf("Expected 1 removed session, got %d", removed)
	}
	if _, err := manager.Get("old"); err == nil {
		t.Error("Expected old session to be removed")
	}
	if _, err := manager.Get("fresh"); err != nil {
		t.Error("Expected fresh session to remain")
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()
	session, _ := manager.Create("touch", createTestProfile())
	before := time.Now().Add(-time.Minute)
	session.LastAccessedAt = before

	if err := manager.UpdateLastAccessed("TOUCH"); err != nil {
		t.Fatalf("UpdateLastAccessed failed: %v", err)
	}
	if !session.LastAccessedAt.After(before) {
		t.Error("Expected last accessed time to advance")
	}
	if err := manager.UpdateLastAccessed("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_RecordWithoutJournal(t *testing.T) {
	manager := NewManager()
	session, _ := manager.Create("nojournal", createTestProfile())

	m := session.Engine.Move("a")
	if err := manager.Record("nojournal", m); err != nil {
		t.Errorf("Record without journal should succeed, got %v", err)
	}
	if err := manager.Record("missing", m); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := manager.Create("", createTestProfile())
			if err != nil {
				t.Errorf("Concurrent create failed: %v", err)
				return
			}
			manager.Get(s.ID)
			manager.UpdateLastAccessed(s.ID)
			manager.List()
		}()
	}
	wg.Wait()

	if manager.Count() != 20 {
		t.Errorf("Expected 20 sessions, got %d", manager.Count())
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := NewManager()
	s1, _ := manager.Create("one", createTestProfile())
	s2, _ := manager.Create("two", createTestProfile())

	s1.Engine.Move("a")
	s1.Engine.Move("a")

	if s2.Engine.ActorPosition() != (engine.Position{X: 4, Y: 0}) {
		t.Error("Moves in one session leaked into another")
	}
	if len(s2.Engine.GetMoveHistory()) != 0 {
		t.Error("History leaked between sessions")
	}
}

func TestManager_SessionIDGeneration(t *testing.T) {
	manager := NewManager()
	ids := make(map[string]bool)

	for i := 0; i < 100; i++ {
		id := manager.generateSessionID()
		if len(id) != 4 {
			t.Errorf("Expected 4-character ID, got %q", id)
		}
		if strings.ToLower(id) != id {
			t.Errorf("Expected lowercase hex ID, got %q", id)
		}
		ids[id] = true
	}
	if len(ids) < 90 {
		t.Errorf("Expected mostly unique IDs, got %d distinct of 100", len(ids))
	}
}
