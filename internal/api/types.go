package api

import (
	"time"

	"github.com/satriahrh/mentalhs/server/domain"
	"github.com/satriahrh/mentalhs/server/domain/entities"
	"github.com/satriahrh/mentalhs/server/usecase"
)

// CreateSessionRequest represents the request payload for starting a conversation
type CreateSessionRequest struct {
	Personality string `json:"personality"`
}

// CreateSessionResponse represents the response payload for a new conversation
type CreateSessionResponse struct {
	Session   *entities.Session `json:"session"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Notices   []domain.Notice   `json:"notices,omitempty"`
}

// SendMessageRequest is one typed chat message
type SendMessageRequest struct {
	Content string `json:"content"`
}

// PersonalityRequest switches the persona of a session
type PersonalityRequest struct {
	Personality string `json:"personality"`
}

// OfflineModeRequest toggles offline mode of a session
type OfflineModeRequest struct {
	OfflineMode bool `json:"offline_mode"`
}

// JournalRequest carries journal entry content
type JournalRequest struct {
	Content string `json:"content"`
}

// JournalEntryResponse is a saved entry plus its confirmation
type JournalEntryResponse struct {
	Entry  entities.JournalEntry `json:"entry"`
	Notice *domain.Notice        `json:"notice,omitempty"`
}

// FaceEmotionRequest carries one base64 camera frame
type FaceEmotionRequest struct {
	Image     string `json:"image"`
	Composing bool   `json:"composing"`
}

// CredentialRequest sets the model API key
type CredentialRequest struct {
	APIKey string `json:"api_key"`
}

// CredentialResponse describes the credential without exposing it
type CredentialResponse struct {
	State      usecase.CredentialState `json:"state"`
	Configured bool                    `json:"configured"`
	Valid      *bool                   `json:"valid,omitempty"`
}

// SetCredentialResponse reports the validation of a new key
type SetCredentialResponse struct {
	Credential CredentialResponse `json:"credential"`
	Notices    []domain.Notice    `json:"notices,omitempty"`
}

// TranslateRequest asks for a translation
type TranslateRequest struct {
	Text    string `json:"text"`
	From    string `json:"from"`
	To      string `json:"to"`
	Offline bool   `json:"offline"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
