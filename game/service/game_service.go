package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/pushbox/game/engine"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrInvalidProfile       = errors.New("invalid profile")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, profileName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error
	SetSessionProfile(ctx context.Context, sessionID, profileName string) (*SessionInfo, error)

	// Game Operations
	Move(ctx context.Context, sessionID, token string) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, tokens []string, stopOnBlock bool) (*BulkMoveResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetBoard(ctx context.Context, sessionID string) (string, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Profiles
	ListProfiles(ctx context.Context) ([]*ProfileInfo, error)
	LoadProfile(ctx context.Context, profileName string) (*engine.Profile, error)
	SaveProfile(ctx context.Context, profileName string, profile *engine.Profile) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, profile *engine.Profile) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, profile *engine.Profile) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Record(id string, move engine.Move) error
}

// ProfileManager handles profile loading
type ProfileManager interface {
	LoadProfile(name string) (*engine.Profile, error)
	ListProfiles() ([]*ProfileInfo, error)
	GetDefault() *engine.Profile
	SaveProfile(name string, profile *engine.Profile) error
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	ProfileID      string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
