package adapters

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/satriahrh/mentalhs/server/domain/entities"
	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

// expiredRetention is how long a closed session still answers lookups
const expiredRetention = 24 * time.Hour

// MemorySessionRepository keeps sessions in process memory. Sessions are
// cloned on the way in and out so callers never share slices with the store.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[primitive.ObjectID]*entities.Session
}

var _ repositories.SessionRepository = (*MemorySessionRepository)(nil)

// NewMemorySessionRepository creates an empty in-memory session repository
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[primitive.ObjectID]*entities.Session),
	}
}

// Create implements repositories.SessionRepository
func (m *MemorySessionRepository) Create(ctx context.Context, session *entities.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}
	if err := session.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID]; exists {
		return errors.New("session already exists")
	}
	m.sessions[session.ID] = session.Clone()
	return nil
}

// GetByID implements repositories.SessionRepository
func (m *MemorySessionRepository) GetByID(ctx context.Context, id string) (*entities.Session, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrSessionNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[oid]
	if !exists {
		return nil, repositories.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Update implements repositories.SessionRepository
func (m *MemorySessionRepository) Update(ctx context.Context, session *entities.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if err := session.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.sessions[session.ID]
	if !exists {
		return repositories.ErrSessionNotFound
	}

	updated := session.Clone()
	// A sweep that closed the session mid-turn wins over the caller's copy
	if stored.Status != entities.SessionStatusActive {
		updated.Status = stored.Status
	}
	m.sessions[session.ID] = updated
	return nil
}

// ExpireSessions implements repositories.SessionRepository. Sessions closed
// for longer than expiredRetention are dropped.
func (m *MemorySessionRepository) ExpireSessions(ctx context.Context) error {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, session := range m.sessions {
		switch {
		case session.Status == entities.SessionStatusActive:
			if session.ExpiresAt.Before(now) {
				session.Expire()
			}
		case session.ExpiresAt.Add(expiredRetention).Before(now):
			delete(m.sessions, id)
		}
	}
	return nil
}

// Count returns the number of stored sessions
func (m *MemorySessionRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
