package repositories

import (
	"context"
	"errors"

	"github.com/satriahrh/mentalhs/server/domain/entities"
)

// ErrSessionNotFound is returned when no session matches the given id
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository defines data access methods for conversation sessions.
// Implementations must not share session memory with callers.
type SessionRepository interface {
	Create(ctx context.Context, session *entities.Session) error
	GetByID(ctx context.Context, id string) (*entities.Session, error)
	Update(ctx context.Context, session *entities.Session) error
	// ExpireSessions flips active sessions past their expiry to expired
	ExpireSessions(ctx context.Context) error
}

// SettingsStore is the small key-value store that outlives sessions
type SettingsStore interface {
	// GetAPIKey returns the stored credential, or "" when none is stored
	GetAPIKey(ctx context.Context) (string, error)
	SetAPIKey(ctx context.Context, key string) error
	ClearAPIKey(ctx context.Context) error

	// LoadSettings returns entities.DefaultSettings when nothing is stored
	LoadSettings(ctx context.Context) (entities.Settings, error)
	SaveSettings(ctx context.Context, settings entities.Settings) error
}
