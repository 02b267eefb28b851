package adapters

import (
	"context"
	"sync"

	"github.com/satriahrh/mentalhs/server/domain/entities"
	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

// MemorySettingsStore is a process-local SettingsStore
type MemorySettingsStore struct {
	mu       sync.RWMutex
	apiKey   string
	settings *entities.Settings
}

var _ repositories.SettingsStore = (*MemorySettingsStore)(nil)

// NewMemorySettingsStore creates an empty store
func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{}
}

// GetAPIKey implements repositories.SettingsStore
func (m *MemorySettingsStore) GetAPIKey(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.apiKey, nil
}

// SetAPIKey implements repositories.SettingsStore
func (m *MemorySettingsStore) SetAPIKey(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiKey = key
	return nil
}

// ClearAPIKey implements repositories.SettingsStore
func (m *MemorySettingsStore) ClearAPIKey(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiKey = ""
	return nil
}

// LoadSettings implements repositories.SettingsStore
func (m *MemorySettingsStore) LoadSettings(ctx context.Context) (entities.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return entities.DefaultSettings(), nil
	}
	return *m.settings, nil
}

// SaveSettings implements repositories.SettingsStore
func (m *MemorySettingsStore) SaveSettings(ctx context.Context, settings entities.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &settings
	return nil
}
