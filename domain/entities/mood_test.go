package entities

import (
	"testing"
	"time"
)

func TestMoodLabel(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{5, "Happy"},
		{4.5, "Happy"},
		{4, "Good"},
		{3.5, "Good"},
		{3, "Neutral"},
		{2.5, "Neutral"},
		{2, "Low"},
		{1.5, "Low"},
		{1, "Very Low"},
	}

	for _, tt := range tests {
		if got := MoodLabel(tt.value); got != tt.want {
			t.Errorf("MoodLabel(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestSummarizeMoods(t *testing.T) {
	now := time.Date(2024, time.January, 8, 15, 0, 0, 0, time.UTC)
	moods := []MoodEntry{
		{Emotion: EmotionHappy, Timestamp: now.AddDate(0, 0, -10)},
		{Emotion: EmotionSad, Timestamp: now.AddDate(0, 0, -6)},
		{Emotion: EmotionHappy, Timestamp: now.Add(-2 * time.Hour)},
		{Emotion: EmotionNeutral, Timestamp: now.Add(-1 * time.Hour)},
	}

	summary := SummarizeMoods(moods, now)

	if len(summary.Daily) != 7 {
		t.Fatalf("Expected 7 days, got %d", len(summary.Daily))
	}

	if summary.Daily[0].Date != "Jan 02" {
		t.Errorf("Expected first bucket Jan 02, got %s", summary.Daily[0].Date)
	}

	if summary.Daily[0].Average == nil || *summary.Daily[0].Average != 1 {
		t.Errorf("Expected Jan 02 average 1, got %v", summary.Daily[0].Average)
	}

	if summary.Daily[3].Average != nil {
		t.Errorf("Expected empty day to have nil average, got %v", *summary.Daily[3].Average)
	}

	today := summary.Daily[6]
	if today.Average == nil || *today.Average != 4 {
		t.Fatalf("Expected today's average 4, got %v", today.Average)
	}
	if today.Label != "Good" {
		t.Errorf("Expected label Good, got %s", today.Label)
	}

	if summary.Current != EmotionNeutral || summary.CurrentEmoji != "😐" {
		t.Errorf("Expected current neutral 😐, got %s %s", summary.Current, summary.CurrentEmoji)
	}

	if len(summary.RecentChanges) != 4 {
		t.Fatalf("Expected 4 recent changes, got %d", len(summary.RecentChanges))
	}
	if summary.RecentChanges[0].Emotion != EmotionNeutral {
		t.Errorf("Expected newest change first, got %s", summary.RecentChanges[0].Emotion)
	}
}

func TestSummarizeMoodsLimitsRecentChanges(t *testing.T) {
	now := time.Now()
	var moods []MoodEntry
	for i := 0; i < 8; i++ {
		moods = append(moods, MoodEntry{Emotion: EmotionAngry, Timestamp: now})
	}

	summary := SummarizeMoods(moods, now)
	if len(summary.RecentChanges) != 5 {
		t.Errorf("Expected 5 recent changes, got %d", len(summary.RecentChanges))
	}
}

func TestJournalEntries(t *testing.T) {
	session := NewSession(PersonalitySupportive)

	first, err := session.AddJournalEntry("first day")
	if err != nil {
		t.Fatalf("AddJournalEntry failed: %v", err)
	}
	if first.Emotion != EmotionNeutral {
		t.Errorf("Expected neutral tag without mood history, got %s", first.Emotion)
	}

	session.RecordMood(EmotionStressed)
	second, _ := session.AddJournalEntry("busy week")
	if second.Emotion != EmotionStressed {
		t.Errorf("Expected stressed tag, got %s", second.Emotion)
	}

	updated, err := session.UpdateJournalEntry(first.ID, "first day, edited")
	if err != nil {
		t.Fatalf("UpdateJournalEntry failed: %v", err)
	}
	if updated.Content != "first day, edited" || updated.Emotion != EmotionNeutral {
		t.Errorf("Unexpected updated entry: %+v", updated)
	}

	if _, err := session.UpdateJournalEntry("missing", "x"); err != ErrJournalEntryNotFound {
		t.Errorf("Expected ErrJournalEntryNotFound, got %v", err)
	}

	draft, err := session.AddJournalEntry("")
	if err != nil {
		t.Fatalf("Expected empty draft to be accepted, got %v", err)
	}
	if draft.Content != "" || draft.Emotion != EmotionStressed {
		t.Errorf("Unexpected draft entry: %+v", draft)
	}

	if _, err := session.UpdateJournalEntry(draft.ID, ""); err == nil {
		t.Error("Expected error when clearing an entry")
	}

	if len(session.Journal) != 3 {
		t.Errorf("Expected 3 entries, got %d", len(session.Journal))
	}
}

func TestParseEmotionAndSettings(t *testing.T) {
	if e, ok := ParseEmotion("  Happy\n"); !ok || e != EmotionHappy {
		t.Errorf("Expected happy, got %s (%v)", e, ok)
	}
	if _, ok := ParseEmotion("elated"); ok {
		t.Error("Expected elated to be rejected")
	}

	settings := DefaultSettings()
	if !settings.AutoMessageEnabled || settings.VoiceLanguage != "hi-IN" {
		t.Errorf("Unexpected defaults: %+v", settings)
	}
	settings.VoiceLanguage = "fr-FR"
	if err := settings.Validate(); err == nil {
		t.Error("Expected unsupported voice language to fail validation")
	}
}
