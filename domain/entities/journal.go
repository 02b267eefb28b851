package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrJournalEntryNotFound is returned when an entry id does not exist
var ErrJournalEntryNotFound = errors.New("journal entry not found")

// JournalEntry is a free-form note tagged with the mood at writing time
type JournalEntry struct {
	ID        string    `json:"id" bson:"id"`
	Content   string    `json:"content" bson:"content"`
	Emotion   Emotion   `json:"emotion" bson:"emotion"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func newEntryID() string {
	return uuid.New().String()
}

// AddJournalEntry appends an entry tagged with the current mood. Empty
// content starts a draft that is filled in with UpdateJournalEntry.
func (s *Session) AddJournalEntry(content string) (JournalEntry, error) {
	now := time.Now()
	entry := JournalEntry{
		ID:        newEntryID(),
		Content:   content,
		Emotion:   s.CurrentMood(),
		Timestamp: now,
		UpdatedAt: now,
	}
	s.Journal = append(s.Journal, entry)
	s.UpdateLastActive()
	return entry, nil
}

// UpdateJournalEntry replaces the content of an existing entry. Entries are
// never removed, only edited.
func (s *Session) UpdateJournalEntry(id, content string) (JournalEntry, error) {
	if content == "" {
		return JournalEntry{}, errors.New("content is required")
	}

	for i := range s.Journal {
		if s.Journal[i].ID == id {
			s.Journal[i].Content = content
			s.Journal[i].UpdatedAt = time.Now()
			s.UpdateLastActive()
			return s.Journal[i], nil
		}
	}
	return JournalEntry{}, ErrJournalEntryNotFound
}
