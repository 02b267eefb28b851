package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

// CredentialState is the cached result of validating the API key
type CredentialState string

const (
	CredentialUnknown CredentialState = "unknown"
	CredentialValid   CredentialState = "valid"
	CredentialInvalid CredentialState = "invalid"
)

const (
	validationPrompt  = "test"
	validationTimeout = 15 * time.Second
)

// GeneratorProvider hands out a text generator bound to a validated credential
type GeneratorProvider interface {
	Generator(ctx context.Context) (repositories.TextGenerator, error)
}

// CredentialValidator owns the API key lifecycle. The validation result is
// cached until the credential changes. Concurrent callers share a single
// in-flight check, and a result computed for a superseded key is dropped.
type CredentialValidator struct {
	store      repositories.SettingsStore
	factory    repositories.TextGeneratorFactory
	defaultKey string
	logger     *zap.Logger

	mu         sync.Mutex
	state      CredentialState
	generation uint64
	generator  repositories.TextGenerator

	flight singleflight.Group
}

var _ GeneratorProvider = (*CredentialValidator)(nil)

// NewCredentialValidator creates a validator. defaultKey is used when the
// store holds no key.
func NewCredentialValidator(
	store repositories.SettingsStore,
	factory repositories.TextGeneratorFactory,
	defaultKey string,
	logger *zap.Logger,
) *CredentialValidator {
	return &CredentialValidator{
		store:      store,
		factory:    factory,
		defaultKey: strings.TrimSpace(defaultKey),
		logger:     logger,
		state:      CredentialUnknown,
	}
}

// State returns the cached state without triggering validation
func (v *CredentialValidator) State() CredentialState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Configured reports whether any key, stored or default, is available
func (v *CredentialValidator) Configured(ctx context.Context) bool {
	key, err := v.currentKey(ctx)
	return err == nil && key != ""
}

// IsValid returns the cached state, validating first if it is unknown
func (v *CredentialValidator) IsValid(ctx context.Context) bool {
	return v.Validate(ctx)
}

// Validate checks the current credential once and caches the answer
func (v *CredentialValidator) Validate(ctx context.Context) bool {
	v.mu.Lock()
	if v.state != CredentialUnknown {
		valid := v.state == CredentialValid
		v.mu.Unlock()
		return valid
	}
	generation := v.generation
	v.mu.Unlock()

	// The shared check must outlive any single caller's context.
	flightCtx := context.WithoutCancel(ctx)
	ch := v.flight.DoChan(strconv.FormatUint(generation, 10), func() (interface{}, error) {
		return v.runValidation(flightCtx, generation), nil
	})

	select {
	case res := <-ch:
		return res.Val.(bool)
	case <-ctx.Done():
		return false
	}
}

func (v *CredentialValidator) runValidation(ctx context.Context, generation uint64) bool {
	ctx, cancel := context.WithTimeout(ctx, validationTimeout)
	defer cancel()

	key, err := v.currentKey(ctx)
	if err != nil {
		v.logger.Warn("Failed to read stored credential", zap.Error(err))
		return v.commit(generation, CredentialInvalid, nil)
	}
	if key == "" {
		v.logger.Info("No API key configured")
		return v.commit(generation, CredentialInvalid, nil)
	}

	generator, err := v.factory.NewTextGenerator(ctx, key)
	if err != nil {
		v.logger.Warn("Failed to create text generator", zap.Error(err))
		return v.commit(generation, CredentialInvalid, nil)
	}

	if _, err := generator.Generate(ctx, repositories.GenerateRequest{Prompt: validationPrompt}); err != nil {
		v.logger.Warn("API key validation failed", zap.Error(err))
		return v.commit(generation, CredentialInvalid, nil)
	}

	v.logger.Info("API key validated")
	return v.commit(generation, CredentialValid, generator)
}

// commit stores a validation result unless the credential changed meanwhile
func (v *CredentialValidator) commit(generation uint64, state CredentialState, generator repositories.TextGenerator) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if generation != v.generation {
		v.logger.Debug("Discarding validation result for superseded credential")
		return false
	}
	v.state = state
	v.generator = generator
	return state == CredentialValid
}

// Generator implements GeneratorProvider
func (v *CredentialValidator) Generator(ctx context.Context) (repositories.TextGenerator, error) {
	if !v.Validate(ctx) {
		return nil, ErrCredentialInvalid
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.generator == nil {
		return nil, ErrCredentialInvalid
	}
	return v.generator, nil
}

// SetCredential stores a new key, resets the cache and validates the key
func (v *CredentialValidator) SetCredential(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if err := v.store.SetAPIKey(ctx, key); err != nil {
		return false, fmt.Errorf("failed to store api key: %w", err)
	}
	v.reset()
	return v.Validate(ctx), nil
}

// ClearCredential removes the stored key. The default key, if any, applies
// on the next validation.
func (v *CredentialValidator) ClearCredential(ctx context.Context) error {
	if err := v.store.ClearAPIKey(ctx); err != nil {
		return fmt.Errorf("failed to clear api key: %w", err)
	}
	v.reset()
	return nil
}

func (v *CredentialValidator) reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	v.state = CredentialUnknown
	v.generator = nil
}

func (v *CredentialValidator) currentKey(ctx context.Context) (string, error) {
	stored, err := v.store.GetAPIKey(ctx)
	if err != nil {
		return "", err
	}
	if key := strings.TrimSpace(stored); key != "" {
		return key, nil
	}
	return v.defaultKey, nil
}
