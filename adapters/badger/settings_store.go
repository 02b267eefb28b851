package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/mentalhs/server/domain/entities"
	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

const (
	apiKeyKey   = "gemini_api_key"
	settingsKey = "settings"
)

// SettingsStore persists the credential and preferences in an embedded
// BadgerDB directory
type SettingsStore struct {
	db     *badger.DB
	logger *zap.Logger
}

var _ repositories.SettingsStore = (*SettingsStore)(nil)

// Open opens or creates the store under dir. An empty dir keeps everything
// in memory.
func Open(dir string, logger *zap.Logger) (*SettingsStore, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	logger.Info("Settings store opened", zap.String("dir", dir), zap.Bool("in_memory", dir == ""))
	return &SettingsStore{db: db, logger: logger}, nil
}

// Close closes the BadgerDB instance
func (s *SettingsStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SettingsStore) get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (s *SettingsStore) set(key string, value []byte) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	}); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// GetAPIKey implements repositories.SettingsStore
func (s *SettingsStore) GetAPIKey(ctx context.Context) (string, error) {
	value, err := s.get(apiKeyKey)
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// SetAPIKey implements repositories.SettingsStore
func (s *SettingsStore) SetAPIKey(ctx context.Context, key string) error {
	return s.set(apiKeyKey, []byte(key))
}

// ClearAPIKey implements repositories.SettingsStore
func (s *SettingsStore) ClearAPIKey(ctx context.Context) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(apiKeyKey))
	})
	if err != nil {
		return fmt.Errorf("failed to clear api key: %w", err)
	}
	return nil
}

// LoadSettings implements repositories.SettingsStore. A corrupt blob is
// logged and replaced by defaults.
func (s *SettingsStore) LoadSettings(ctx context.Context) (entities.Settings, error) {
	value, err := s.get(settingsKey)
	if err != nil {
		return entities.Settings{}, err
	}
	if value == nil {
		return entities.DefaultSettings(), nil
	}

	settings := entities.DefaultSettings()
	if err := json.Unmarshal(value, &settings); err != nil {
		s.logger.Warn("Stored settings are unreadable, using defaults", zap.Error(err))
		return entities.DefaultSettings(), nil
	}
	return settings, nil
}

// SaveSettings implements repositories.SettingsStore
func (s *SettingsStore) SaveSettings(ctx context.Context, settings entities.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	value, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return s.set(settingsKey, value)
}
