package entities

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionStatus represents the status of a session
type SessionStatus string

const (
	SessionStatusActive     SessionStatus = "active"
	SessionStatusExpired    SessionStatus = "expired"
	SessionStatusTerminated SessionStatus = "terminated"
)

// MessageRole represents the role of a message sender
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// WelcomeMessage seeds every new conversation
const WelcomeMessage = "Hi there! I'm MentalHS-Ai, Your mental health assistant. How are you feeling today?"

// sessionTTL is the idle window after which a session expires
const sessionTTL = 24 * time.Hour

// SessionMessage represents a message within a session
type SessionMessage struct {
	ID         string      `json:"id" bson:"id"`
	Timestamp  time.Time   `json:"timestamp" bson:"timestamp"`
	Role       MessageRole `json:"role" bson:"role"`
	Content    string      `json:"content" bson:"content"`
	Emotion    *Emotion    `json:"emotion,omitempty" bson:"emotion,omitempty"`
	Translated *string     `json:"translated,omitempty" bson:"translated,omitempty"`
}

// ContextText is the text used when the message is replayed as model context.
// User turns prefer their English translation.
func (m SessionMessage) ContextText() string {
	if m.Role == MessageRoleUser && m.Translated != nil && *m.Translated != "" {
		return *m.Translated
	}
	return m.Content
}

// Session represents one conversation with its mood history and journal
type Session struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	LastActiveAt time.Time          `json:"last_active_at" bson:"last_active_at"`
	ExpiresAt    time.Time          `json:"expires_at" bson:"expires_at"`
	Status       SessionStatus      `json:"status" bson:"status"`
	Personality  Personality        `json:"personality" bson:"personality"`
	OfflineMode  bool               `json:"offline_mode" bson:"offline_mode"`
	Messages     []SessionMessage   `json:"messages" bson:"messages"`
	Moods        []MoodEntry        `json:"moods" bson:"moods"`
	Journal      []JournalEntry     `json:"journal" bson:"journal"`

	// Face detection state. A detected emotion is used once by the next turn.
	PendingEmotion  *Emotion `json:"pending_emotion,omitempty" bson:"pending_emotion,omitempty"`
	AutoMessageSent bool     `json:"auto_message_sent" bson:"auto_message_sent"`
}

// NewSession creates a new session seeded with the welcome message
func NewSession(personality Personality) *Session {
	now := time.Now()
	s := &Session{
		ID:           primitive.NewObjectID(),
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(sessionTTL),
		Status:       SessionStatusActive,
		Personality:  personality,
		Messages:     make([]SessionMessage, 0),
		Moods:        make([]MoodEntry, 0),
		Journal:      make([]JournalEntry, 0),
	}
	s.AddMessage(MessageRoleAssistant, WelcomeMessage, nil, nil)
	return s
}

// AddMessage appends a message to the log and returns it
func (s *Session) AddMessage(role MessageRole, content string, emotion *Emotion, translated *string) SessionMessage {
	message := SessionMessage{
		ID:         newEntryID(),
		Timestamp:  time.Now(),
		Role:       role,
		Content:    content,
		Emotion:    emotion,
		Translated: translated,
	}

	s.Messages = append(s.Messages, message)
	s.UpdateLastActive()
	return message
}

// RecordMood appends an entry to the mood history
func (s *Session) RecordMood(emotion Emotion) MoodEntry {
	entry := MoodEntry{Emotion: emotion, Timestamp: time.Now()}
	s.Moods = append(s.Moods, entry)
	s.UpdateLastActive()
	return entry
}

// CurrentMood returns the most recent recorded emotion, or neutral
func (s *Session) CurrentMood() Emotion {
	if len(s.Moods) == 0 {
		return EmotionNeutral
	}
	return s.Moods[len(s.Moods)-1].Emotion
}

// TakePendingEmotion returns and clears the face-detected emotion, if any
func (s *Session) TakePendingEmotion() (Emotion, bool) {
	if s.PendingEmotion == nil {
		return "", false
	}
	e := *s.PendingEmotion
	s.PendingEmotion = nil
	return e, true
}

// UpdateLastActive updates the last active timestamp and extends expiration
func (s *Session) UpdateLastActive() {
	s.LastActiveAt = time.Now()
	s.ExpiresAt = s.LastActiveAt.Add(sessionTTL)
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt) || s.Status != SessionStatusActive
}

// Terminate marks the session as terminated
func (s *Session) Terminate() {
	s.Status = SessionStatusTerminated
	s.UpdateLastActive()
}

// Expire marks the session as expired
func (s *Session) Expire() {
	s.Status = SessionStatusExpired
}

// HistoryBefore returns a copy of the first n messages of the log
func (s *Session) HistoryBefore(n int) []SessionMessage {
	if n > len(s.Messages) {
		n = len(s.Messages)
	}
	out := make([]SessionMessage, n)
	copy(out, s.Messages[:n])
	return out
}

// Clone returns a deep copy so callers can mutate without sharing slices
func (s *Session) Clone() *Session {
	c := *s
	c.Messages = append([]SessionMessage(nil), s.Messages...)
	c.Moods = append([]MoodEntry(nil), s.Moods...)
	c.Journal = append([]JournalEntry(nil), s.Journal...)
	if s.PendingEmotion != nil {
		e := *s.PendingEmotion
		c.PendingEmotion = &e
	}
	return &c
}

// Validate validates the session data
func (s *Session) Validate() error {
	if s.ID.IsZero() {
		return errors.New("id is required")
	}

	if !s.Personality.Valid() {
		return errors.New("invalid personality")
	}

	if s.Status != SessionStatusActive && s.Status != SessionStatusExpired && s.Status != SessionStatusTerminated {
		return errors.New("invalid session status")
	}

	return nil
}
