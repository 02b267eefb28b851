package badger

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/mentalhs/server/domain/entities"
)

func TestSettingsStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(dir, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if key, err := store.GetAPIKey(ctx); err != nil || key != "" {
		t.Errorf("Expected no key, got %q, %v", key, err)
	}

	if err := store.SetAPIKey(ctx, "secret-key"); err != nil {
		t.Fatalf("SetAPIKey failed: %v", err)
	}

	settings := entities.DefaultSettings()
	settings.AutoMessageEnabled = false
	if err := store.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Values survive a reopen
	store, err = Open(dir, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer store.Close()

	if key, _ := store.GetAPIKey(ctx); key != "secret-key" {
		t.Errorf("Expected persisted key, got %q", key)
	}
	if got, _ := store.LoadSettings(ctx); got != settings {
		t.Errorf("Expected persisted settings %+v, got %+v", settings, got)
	}

	if err := store.ClearAPIKey(ctx); err != nil {
		t.Fatalf("ClearAPIKey failed: %v", err)
	}
	if key, _ := store.GetAPIKey(ctx); key != "" {
		t.Errorf("Expected cleared key, got %q", key)
	}
}

func TestSettingsStoreCorruptBlob(t *testing.T) {
	store, err := Open("", zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if err := store.set(settingsKey, []byte("{not json")); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := store.LoadSettings(context.Background())
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got != entities.DefaultSettings() {
		t.Errorf("Expected defaults for corrupt blob, got %+v", got)
	}
}
