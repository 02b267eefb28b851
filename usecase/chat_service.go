package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/mentalhs/server/domain"
	"github.com/satriahrh/mentalhs/server/domain/entities"
	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

var (
	// ErrEmptyMessage is returned for whitespace-only input
	ErrEmptyMessage = errors.New("message is empty")
	// ErrSessionClosed is returned when a session is no longer active
	ErrSessionClosed = errors.New("session is no longer active")
	// ErrInvalidPersonality is returned for an unknown persona
	ErrInvalidPersonality = errors.New("invalid personality")
)

// Languages used for the Hindi input path
const (
	languageHindi   = "hi"
	languageEnglish = "en"
)

// autoMessages are sent on the user's behalf after a face scan
var autoMessages = map[entities.Emotion]string{
	entities.EmotionHappy:    "I'm feeling happy today!",
	entities.EmotionNeutral:  "I'm feeling okay.",
	entities.EmotionSad:      "I'm feeling sad right now.",
	entities.EmotionAnxious:  "I'm feeling anxious about things.",
	entities.EmotionStressed: "I'm feeling stressed out.",
	entities.EmotionAngry:    "I'm feeling frustrated and angry.",
}

// EmotionSource tells where a turn's emotion came from
type EmotionSource string

const (
	EmotionSourceFace       EmotionSource = "face"
	EmotionSourceClassifier EmotionSource = "classifier"
)

// TurnResult is everything one user message produced
type TurnResult struct {
	UserMessage      entities.SessionMessage `json:"user_message"`
	AssistantMessage entities.SessionMessage `json:"assistant_message"`
	Emotion          entities.Emotion        `json:"emotion"`
	EmotionSource    EmotionSource           `json:"emotion_source"`
	Classification   *Classification         `json:"classification,omitempty"`
	Translation      *Result[string]         `json:"translation,omitempty"`
	Response         Result[string]          `json:"response"`
	Crisis           bool                    `json:"crisis"`
	CrisisResources  *CrisisResources        `json:"crisis_resources,omitempty"`
	Notices          []domain.Notice         `json:"notices,omitempty"`
}

// SessionResult is a session plus any advisories raised while changing it
type SessionResult struct {
	Session *entities.Session `json:"session"`
	Notices []domain.Notice   `json:"notices,omitempty"`
}

// FaceEmotionResult is the outcome of a face scan
type FaceEmotionResult struct {
	Emotion entities.Emotion `json:"emotion"`
	Notices []domain.Notice  `json:"notices,omitempty"`
	// Turn is set when the scan sent an automatic message
	Turn *TurnResult `json:"turn,omitempty"`
}

// ChatService runs conversation turns and owns per-session state changes.
// Operations on one session are serialized.
type ChatService struct {
	sessions    repositories.SessionRepository
	settings    repositories.SettingsStore
	credentials *CredentialValidator
	classifier  *EmotionClassifier
	responder   *ResponseGenerator
	translator  *Translator
	detector    repositories.FaceEmotionDetector
	logger      *zap.Logger

	locks sessionLocks
}

// ChatServiceDeps groups the collaborators of ChatService
type ChatServiceDeps struct {
	Sessions    repositories.SessionRepository
	Settings    repositories.SettingsStore
	Credentials *CredentialValidator
	Classifier  *EmotionClassifier
	Responder   *ResponseGenerator
	Translator  *Translator
	// Detector may be nil when no camera port is wired
	Detector repositories.FaceEmotionDetector
}

// NewChatService creates a new chat service
func NewChatService(deps ChatServiceDeps, logger *zap.Logger) *ChatService {
	return &ChatService{
		sessions:    deps.Sessions,
		settings:    deps.Settings,
		credentials: deps.Credentials,
		classifier:  deps.Classifier,
		responder:   deps.Responder,
		translator:  deps.Translator,
		detector:    deps.Detector,
		logger:      logger,
		locks:       sessionLocks{locks: make(map[string]*sessionLock)},
	}
}

// CreateSession starts a conversation. Sessions start offline when the
// saved settings say so or when the credential does not validate.
func (s *ChatService) CreateSession(ctx context.Context, personality entities.Personality) (*SessionResult, error) {
	if personality == "" {
		personality = entities.PersonalitySupportive
	}
	if !personality.Valid() {
		return nil, ErrInvalidPersonality
	}

	settings, err := s.settings.LoadSettings(ctx)
	if err != nil {
		s.logger.Warn("Failed to load settings, using defaults", zap.Error(err))
		settings = entities.DefaultSettings()
	}

	session := entities.NewSession(personality)
	session.OfflineMode = settings.OfflineMode

	var notices []domain.Notice
	if !session.OfflineMode && !s.credentials.IsValid(ctx) {
		session.OfflineMode = true
		notices = append(notices, domain.NoticeOfflineActivated)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("Session started",
		zap.String("session_id", session.ID.Hex()),
		zap.String("personality", string(personality)),
		zap.Bool("offline", session.OfflineMode))

	return &SessionResult{Session: session, Notices: notices}, nil
}

// GetSession returns a session by id
func (s *ChatService) GetSession(ctx context.Context, sessionID string) (*entities.Session, error) {
	return s.sessions.GetByID(ctx, sessionID)
}

// SendMessage runs one conversation turn
func (s *ChatService) SendMessage(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	var result *TurnResult
	err := s.withSession(ctx, sessionID, func(session *entities.Session) error {
		result = s.runTurn(ctx, session, text)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// runTurn mutates session in place. The caller persists it.
func (s *ChatService) runTurn(ctx context.Context, session *entities.Session, text string) *TurnResult {
	result := &TurnResult{}

	processed := text
	var translated *string
	if containsDevanagari(text) && !session.OfflineMode {
		translation := s.translator.Translate(ctx, text, languageHindi, languageEnglish, false)
		result.Translation = &translation
		if translation.Value != text {
			processed = translation.Value
			translated = &processed
		}
	}

	if DetectCrisis(text, processed) {
		resources := Resources()
		result.Crisis = true
		result.CrisisResources = &resources
		s.logger.Warn("Crisis keywords detected", zap.String("session_id", session.ID.Hex()))
	}

	history := session.HistoryBefore(len(session.Messages))
	result.UserMessage = session.AddMessage(entities.MessageRoleUser, text, nil, translated)

	if emotion, ok := session.TakePendingEmotion(); ok {
		result.Emotion = emotion
		result.EmotionSource = EmotionSourceFace
	} else {
		classification := s.classifier.Classify(ctx, processed, session.OfflineMode)
		result.Classification = &classification
		result.Emotion = classification.Value
		result.EmotionSource = EmotionSourceClassifier
	}
	session.RecordMood(result.Emotion)

	result.Response = s.responder.Respond(ctx, ResponseRequest{
		UserMessage: processed,
		Personality: session.Personality,
		Emotion:     result.Emotion,
		History:     history,
		Offline:     session.OfflineMode,
	})

	emotion := result.Emotion
	result.AssistantMessage = session.AddMessage(entities.MessageRoleAssistant, result.Response.Value, &emotion, nil)

	if result.Emotion.NeedsSupport() {
		result.Notices = append(result.Notices, domain.NoticeJournalingSuggestion)
	}

	if result.Response.Fallback() && !session.OfflineMode {
		s.logger.Warn("Online turn answered from the fallback table",
			zap.String("session_id", session.ID.Hex()),
			zap.String("reason", string(result.Response.Reason)))
	}

	s.logger.Info("Turn completed",
		zap.String("session_id", session.ID.Hex()),
		zap.String("emotion", string(result.Emotion)),
		zap.String("emotion_source", string(result.EmotionSource)),
		zap.String("response_outcome", string(result.Response.Outcome)),
		zap.Bool("crisis", result.Crisis))

	return result
}

// History returns the conversation log
func (s *ChatService) History(ctx context.Context, sessionID string) ([]entities.SessionMessage, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Messages, nil
}

// SetPersonality switches the persona for later turns
func (s *ChatService) SetPersonality(ctx context.Context, sessionID string, personality entities.Personality) (*entities.Session, error) {
	if !personality.Valid() {
		return nil, ErrInvalidPersonality
	}

	var updated *entities.Session
	err := s.withSession(ctx, sessionID, func(session *entities.Session) error {
		session.Personality = personality
		session.UpdateLastActive()
		updated = session
		return nil
	})
	return updated, err
}

// SetOfflineMode toggles offline mode for one session. Going online with a
// credential that does not validate is allowed but raises a warning.
func (s *ChatService) SetOfflineMode(ctx context.Context, sessionID string, offline bool) (*SessionResult, error) {
	var result *SessionResult
	err := s.withSession(ctx, sessionID, func(session *entities.Session) error {
		session.OfflineMode = offline
		session.UpdateLastActive()

		var notices []domain.Notice
		switch {
		case offline:
			notices = append(notices, domain.NoticeOfflineEnabled)
		case !s.credentials.IsValid(ctx):
			notices = append(notices, domain.NoticeAPIKeyInvalid)
		default:
			notices = append(notices, domain.NoticeOnlineEnabled)
		}
		result = &SessionResult{Session: session, Notices: notices}
		return nil
	})
	return result, err
}

// MoodSummary returns the mood tracker view for a session
func (s *ChatService) MoodSummary(ctx context.Context, sessionID string) (entities.MoodSummary, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return entities.MoodSummary{}, err
	}
	return entities.SummarizeMoods(session.Moods, time.Now()), nil
}

// Journal returns all journal entries of a session
func (s *ChatService) Journal(ctx context.Context, sessionID string) ([]entities.JournalEntry, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Journal, nil
}

// AddJournalEntry writes a new entry tagged with the latest mood
func (s *ChatService) AddJournalEntry(ctx context.Context, sessionID, content string) (entities.JournalEntry, domain.Notice, error) {
	var entry entities.JournalEntry
	err := s.withSession(ctx, sessionID, func(session *entities.Session) error {
		var err error
		entry, err = session.AddJournalEntry(strings.TrimSpace(content))
		return err
	})
	if err != nil {
		return entities.JournalEntry{}, domain.Notice{}, err
	}
	return entry, domain.NoticeJournalEntryAdded, nil
}

// UpdateJournalEntry edits the content of an existing entry
func (s *ChatService) UpdateJournalEntry(ctx context.Context, sessionID, entryID, content string) (entities.JournalEntry, error) {
	var entry entities.JournalEntry
	err := s.withSession(ctx, sessionID, func(session *entities.Session) error {
		var err error
		entry, err = session.UpdateJournalEntry(entryID, strings.TrimSpace(content))
		return err
	})
	return entry, err
}

// DetectFaceEmotion runs the camera port on a frame and applies the result
func (s *ChatService) DetectFaceEmotion(ctx context.Context, sessionID string, frame []byte, composing bool) (*FaceEmotionResult, error) {
	if s.detector == nil {
		return nil, ErrCapabilityUnavailable
	}

	emotion, err := s.detector.Detect(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("face emotion detection failed: %w", err)
	}
	return s.HandleFaceEmotion(ctx, sessionID, emotion, composing)
}

// HandleFaceEmotion records a face-detected emotion. The next turn uses it
// instead of the classifier. With auto messages enabled, and the user not
// typing, one canned message is sent per scan request.
func (s *ChatService) HandleFaceEmotion(ctx context.Context, sessionID string, emotion entities.Emotion, composing bool) (*FaceEmotionResult, error) {
	if !emotion.Valid() {
		return nil, fmt.Errorf("invalid emotion %q", emotion)
	}

	settings, err := s.settings.LoadSettings(ctx)
	if err != nil {
		s.logger.Warn("Failed to load settings, using defaults", zap.Error(err))
		settings = entities.DefaultSettings()
	}

	result := &FaceEmotionResult{Emotion: emotion}
	err = s.withSession(ctx, sessionID, func(session *entities.Session) error {
		session.RecordMood(emotion)
		pending := emotion
		session.PendingEmotion = &pending
		result.Notices = append(result.Notices, domain.EmotionDetectedNotice(string(emotion)))

		if settings.AutoMessageEnabled && !session.AutoMessageSent && !composing {
			result.Turn = s.runTurn(ctx, session, autoMessages[emotion])
			session.AutoMessageSent = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RequestScan re-arms the automatic message for the next detection
func (s *ChatService) RequestScan(ctx context.Context, sessionID string) error {
	return s.withSession(ctx, sessionID, func(session *entities.Session) error {
		session.AutoMessageSent = false
		return nil
	})
}

// Settings returns the saved preferences
func (s *ChatService) Settings(ctx context.Context) (entities.Settings, error) {
	return s.settings.LoadSettings(ctx)
}

// UpdateSettings validates and saves preferences
func (s *ChatService) UpdateSettings(ctx context.Context, settings entities.Settings) (entities.Settings, error) {
	if err := settings.Validate(); err != nil {
		return entities.Settings{}, err
	}
	if err := s.settings.SaveSettings(ctx, settings); err != nil {
		return entities.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}

// withSession loads, mutates and saves a session under its lock
func (s *ChatService) withSession(ctx context.Context, sessionID string, fn func(session *entities.Session) error) error {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.IsExpired() {
		return ErrSessionClosed
	}

	if err := fn(session); err != nil {
		return err
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// containsDevanagari checks for any rune in the U+0900..U+097F block
func containsDevanagari(text string) bool {
	for _, r := range text {
		if r >= 0x0900 && r <= 0x097F {
			return true
		}
	}
	return false
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// sessionLocks hands out one mutex per session id and forgets idle ones
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &sessionLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
