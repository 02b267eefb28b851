package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/satriahrh/mentalhs/server/domain/entities"
	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

func TestMemorySessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()

	t.Run("CreateAndGetSession", func(t *testing.T) {
		session := entities.NewSession(entities.PersonalitySupportive)
		if err := repo.Create(ctx, session); err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}

		retrieved, err := repo.GetByID(ctx, session.ID.Hex())
		if err != nil {
			t.Fatalf("Failed to get session: %v", err)
		}
		if retrieved.ID != session.ID {
			t.Errorf("Expected session ID %s, got %s", session.ID.Hex(), retrieved.ID.Hex())
		}

		retrieved.AddMessage(entities.MessageRoleUser, "not saved", nil, nil)
		again, _ := repo.GetByID(ctx, session.ID.Hex())
		if len(again.Messages) != 1 {
			t.Errorf("Mutating a fetched session must not change the store, got %d messages", len(again.Messages))
		}
	})

	t.Run("UpdateSession", func(t *testing.T) {
		session := entities.NewSession(entities.PersonalityCoach)
		repo.Create(ctx, session)

		session.AddMessage(entities.MessageRoleUser, "hello", nil, nil)
		if err := repo.Update(ctx, session); err != nil {
			t.Fatalf("Failed to update session: %v", err)
		}

		retrieved, _ := repo.GetByID(ctx, session.ID.Hex())
		if len(retrieved.Messages) != 2 {
			t.Errorf("Expected 2 messages, got %d", len(retrieved.Messages))
		}
	})

	t.Run("MissingSession", func(t *testing.T) {
		if _, err := repo.GetByID(ctx, "not-an-object-id"); !errors.Is(err, repositories.ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}

		ghost := entities.NewSession(entities.PersonalityCoach)
		if err := repo.Update(ctx, ghost); !errors.Is(err, repositories.ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound on update, got %v", err)
		}
	})

	t.Run("ExpireSessions", func(t *testing.T) {
		session := entities.NewSession(entities.PersonalityTherapist)
		session.ExpiresAt = time.Now().Add(-time.Minute)
		repo.Create(ctx, session)

		if err := repo.ExpireSessions(ctx); err != nil {
			t.Fatalf("ExpireSessions failed: %v", err)
		}

		retrieved, _ := repo.GetByID(ctx, session.ID.Hex())
		if retrieved.Status != entities.SessionStatusExpired {
			t.Errorf("Expected expired status, got %s", retrieved.Status)
		}
	})

	t.Run("DropsLongExpiredSessions", func(t *testing.T) {
		recent := entities.NewSession(entities.PersonalityCoach)
		recent.ExpiresAt = time.Now().Add(-time.Hour)
		recent.Expire()
		repo.Create(ctx, recent)

		stale := entities.NewSession(entities.PersonalityCoach)
		stale.ExpiresAt = time.Now().Add(-expiredRetention - time.Hour)
		stale.Expire()
		repo.Create(ctx, stale)

		if err := repo.ExpireSessions(ctx); err != nil {
			t.Fatalf("ExpireSessions failed: %v", err)
		}

		if _, err := repo.GetByID(ctx, stale.ID.Hex()); !errors.Is(err, repositories.ErrSessionNotFound) {
			t.Errorf("Expected stale session to be dropped, got %v", err)
		}
		if _, err := repo.GetByID(ctx, recent.ID.Hex()); err != nil {
			t.Errorf("Expected recently expired session to remain, got %v", err)
		}
	})

	t.Run("UpdateKeepsClosedStatus", func(t *testing.T) {
		session := entities.NewSession(entities.PersonalitySupportive)
		repo.Create(ctx, session)

		// Caller holds an active copy while the sweep closes the stored one
		inFlight, _ := repo.GetByID(ctx, session.ID.Hex())
		closed, _ := repo.GetByID(ctx, session.ID.Hex())
		closed.Expire()
		repo.Update(ctx, closed)

		inFlight.AddMessage(entities.MessageRoleUser, "late turn", nil, nil)
		if err := repo.Update(ctx, inFlight); err != nil {
			t.Fatalf("Failed to update session: %v", err)
		}

		retrieved, _ := repo.GetByID(ctx, session.ID.Hex())
		if retrieved.Status != entities.SessionStatusExpired {
			t.Errorf("Expected expired status to be kept, got %s", retrieved.Status)
		}
		if len(retrieved.Messages) != 2 {
			t.Errorf("Expected 2 messages, got %d", len(retrieved.Messages))
		}
	})
}

func TestMemorySettingsStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySettingsStore()

	settings, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if settings != entities.DefaultSettings() {
		t.Errorf("Expected defaults, got %+v", settings)
	}

	settings.OfflineMode = true
	settings.VoiceLanguage = entities.VoiceLanguageEnglish
	if err := store.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	if got, _ := store.LoadSettings(ctx); got != settings {
		t.Errorf("Expected saved settings, got %+v", got)
	}

	if err := store.SaveSettings(ctx, entities.Settings{VoiceLanguage: "xx"}); err == nil {
		t.Error("Expected invalid settings to be rejected")
	}

	store.SetAPIKey(ctx, "abc")
	if key, _ := store.GetAPIKey(ctx); key != "abc" {
		t.Errorf("Expected stored key, got %q", key)
	}
	store.ClearAPIKey(ctx)
	if key, _ := store.GetAPIKey(ctx); key != "" {
		t.Errorf("Expected cleared key, got %q", key)
	}
}
