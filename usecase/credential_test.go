package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/mentalhs/server/adapters"
	"github.com/satriahrh/mentalhs/server/adapters/llm"
	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

func newValidator(t *testing.T, gen repositories.TextGenerator, defaultKey string) (*CredentialValidator, *llm.MockGeminiFactory, *adapters.MemorySettingsStore) {
	t.Helper()
	store := adapters.NewMemorySettingsStore()
	factory := &llm.MockGeminiFactory{}
	if gen != nil {
		factory.NewGenerator = func(string) (repositories.TextGenerator, error) { return gen, nil }
	}
	return NewCredentialValidator(store, factory, defaultKey, zaptest.NewLogger(t)), factory, store
}

func TestCredentialValidator_CachesResult(t *testing.T) {
	gen := &countingGenerator{}
	v, factory, _ := newValidator(t, gen, "key-1")
	ctx := context.Background()

	assert.Equal(t, CredentialUnknown, v.State())
	assert.True(t, v.IsValid(ctx))
	assert.True(t, v.IsValid(ctx))

	assert.Equal(t, 1, gen.Calls(), "validation should run once")
	assert.Equal(t, []string{"key-1"}, factory.Keys())
	assert.Equal(t, CredentialValid, v.State())
}

func TestCredentialValidator_EmptyKeyMakesNoCall(t *testing.T) {
	v, factory, _ := newValidator(t, nil, "")
	ctx := context.Background()

	assert.False(t, v.Configured(ctx))
	assert.False(t, v.IsValid(ctx))
	assert.Empty(t, factory.Keys())
	assert.Equal(t, CredentialInvalid, v.State())

	_, err := v.Generator(ctx)
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}

func TestCredentialValidator_RejectedKey(t *testing.T) {
	gen := &countingGenerator{err: errors.New("401 unauthorized")}
	v, _, _ := newValidator(t, gen, "bad")

	assert.False(t, v.IsValid(context.Background()))
	assert.False(t, v.IsValid(context.Background()))
	assert.Equal(t, 1, gen.Calls())
}

func TestCredentialValidator_SetCredentialResets(t *testing.T) {
	gen := &countingGenerator{}
	v, factory, store := newValidator(t, gen, "")
	ctx := context.Background()

	require.False(t, v.IsValid(ctx))

	valid, err := v.SetCredential(ctx, "  fresh-key ")
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, []string{"fresh-key"}, factory.Keys())

	stored, _ := store.GetAPIKey(ctx)
	assert.Equal(t, "fresh-key", stored)

	generator, err := v.Generator(ctx)
	require.NoError(t, err)
	assert.Same(t, gen, generator)
}

func TestCredentialValidator_StoredKeyWinsOverDefault(t *testing.T) {
	v, factory, store := newValidator(t, nil, "default-key")
	ctx := context.Background()
	require.NoError(t, store.SetAPIKey(ctx, "stored-key"))

	assert.True(t, v.IsValid(ctx))
	assert.Equal(t, []string{"stored-key"}, factory.Keys())

	require.NoError(t, v.ClearCredential(ctx))
	assert.Equal(t, CredentialUnknown, v.State())
	assert.True(t, v.IsValid(ctx))
	assert.Equal(t, []string{"stored-key", "default-key"}, factory.Keys())
}

func TestCredentialValidator_ConcurrentCallersShareCheck(t *testing.T) {
	gen := &countingGenerator{release: make(chan struct{})}
	v, _, _ := newValidator(t, gen, "key")
	ctx := context.Background()

	const callers = 8
	results := make([]bool, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = v.IsValid(ctx)
		}(i)
	}

	// Let the callers pile up on the in-flight check
	require.Eventually(t, func() bool { return gen.Calls() > 0 }, time.Second, time.Millisecond)
	close(gen.release)
	wg.Wait()

	assert.Equal(t, 1, gen.Calls())
	for i, ok := range results {
		assert.True(t, ok, "caller %d", i)
	}
}

func TestCredentialValidator_SupersededResultDropped(t *testing.T) {
	slow := &countingGenerator{release: make(chan struct{})}
	store := adapters.NewMemorySettingsStore()
	factory := &llm.MockGeminiFactory{
		NewGenerator: func(key string) (repositories.TextGenerator, error) {
			if key == "old" {
				return slow, nil
			}
			return &countingGenerator{}, nil
		},
	}
	v := NewCredentialValidator(store, factory, "old", zaptest.NewLogger(t))
	ctx := context.Background()

	done := make(chan bool)
	go func() { done <- v.IsValid(ctx) }()
	require.Eventually(t, func() bool { return slow.Calls() > 0 }, time.Second, time.Millisecond)

	valid, err := v.SetCredential(ctx, "new")
	require.NoError(t, err)
	assert.True(t, valid)

	close(slow.release)
	assert.False(t, <-done, "stale check must not report success")
	assert.Equal(t, CredentialValid, v.State())
}
