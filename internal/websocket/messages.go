package websocket

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/buger/jsonparser"

	"github.com/satriahrh/mentalhs/server/domain"
	"github.com/satriahrh/mentalhs/server/domain/entities"
	"github.com/satriahrh/mentalhs/server/usecase"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client to server message types
const (
	MessageTypeSendMessage        MessageType = "send_message"
	MessageTypeListeningStart     MessageType = "listening_start"
	MessageTypeListeningEnd       MessageType = "listening_end"
	MessageTypeFaceDetectionStart MessageType = "face_detection_start"
	MessageTypeFaceDetectionStop  MessageType = "face_detection_stop"
	MessageTypeFaceFrame          MessageType = "face_frame"
	MessageTypeScanRequest        MessageType = "scan_request"
	MessageTypePing               MessageType = "ping"
)

// Server to client message types. listening_start and listening_end are
// echoed back with the same names.
const (
	MessageTypeTurnResult      MessageType = "turn_result"
	MessageTypeTranscript      MessageType = "transcript"
	MessageTypeSpeechError     MessageType = "speech_error"
	MessageTypeEmotionDetected MessageType = "emotion_detected"
	MessageTypeNotice          MessageType = "notice"
	MessageTypePong            MessageType = "pong"
	MessageTypeError           MessageType = "error"
)

// Error codes sent in ErrorMessage
const (
	ErrorCodeInvalidMessage  = "invalid_message"
	ErrorCodeEmptyMessage    = "empty_message"
	ErrorCodeSessionClosed   = "session_closed"
	ErrorCodeSessionNotFound = "session_not_found"
	ErrorCodeUnavailable     = "unavailable"
	ErrorCodeBusy            = "busy"
	ErrorCodeInternal        = "internal_error"
)

const (
	minSampleRate = 8000
	maxSampleRate = 48000
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id,omitempty"`
}

func newBase(t MessageType) BaseMessage {
	return BaseMessage{Type: t, Timestamp: time.Now().Format(time.RFC3339)}
}

// SendMessageMessage is one typed chat message
type SendMessageMessage struct {
	BaseMessage
	Content string `json:"content"`
}

// ListeningStartMessage opens a voice input session
type ListeningStartMessage struct {
	BaseMessage
	Language   string `json:"language,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
}

// FaceFrameMessage carries one base64 camera frame
type FaceFrameMessage struct {
	BaseMessage
	Image     string `json:"image"`
	Composing bool   `json:"composing"`

	frame []byte
}

// Frame returns the decoded image bytes
func (m *FaceFrameMessage) Frame() []byte {
	return m.frame
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// TurnResultMessage delivers a finished conversation turn
type TurnResultMessage struct {
	BaseMessage
	SessionID string              `json:"session_id"`
	Turn      *usecase.TurnResult `json:"turn"`
}

// TranscriptMessage is the running text of a voice session
type TranscriptMessage struct {
	BaseMessage
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

// ListeningMessage acknowledges listening_start and listening_end
type ListeningMessage struct {
	BaseMessage
	SessionID  string        `json:"session_id"`
	Language   string        `json:"language,omitempty"`
	Transcript string        `json:"transcript,omitempty"`
	Notice     *domain.Notice `json:"notice,omitempty"`
}

// SpeechErrorMessage reports a recognition failure
type SpeechErrorMessage struct {
	BaseMessage
	Notice domain.Notice `json:"notice"`
}

// EmotionDetectedMessage reports a face scan result
type EmotionDetectedMessage struct {
	BaseMessage
	Emotion entities.Emotion `json:"emotion"`
}

// NoticeMessage carries a toast-style advisory
type NoticeMessage struct {
	BaseMessage
	Notice domain.Notice `json:"notice"`
}

// MessageValidator provides validation for WebSocket messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage validates an incoming message and returns the typed value
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	rawType, err := jsonparser.GetString(messageBytes, "type")
	if err != nil {
		return nil, fmt.Errorf("invalid message: missing type: %w", err)
	}

	switch t := MessageType(rawType); t {
	case MessageTypeSendMessage:
		var msg SendMessageMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid send_message: %w", err)
		}
		if strings.TrimSpace(msg.Content) == "" {
			return nil, errors.New("content is required")
		}
		return &msg, nil

	case MessageTypeListeningStart:
		var msg ListeningStartMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid listening_start: %w", err)
		}
		if err := v.validateListeningStart(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MessageTypeFaceFrame:
		var msg FaceFrameMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid face_frame: %w", err)
		}
		if err := v.validateFaceFrame(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		return &msg, nil

	case MessageTypeListeningEnd, MessageTypeFaceDetectionStart, MessageTypeFaceDetectionStop, MessageTypeScanRequest:
		var msg BaseMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid %s message: %w", t, err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", rawType)
	}
}

func (v *MessageValidator) validateListeningStart(msg *ListeningStartMessage) error {
	switch msg.Language {
	case "", entities.VoiceLanguageEnglish, entities.VoiceLanguageHindi:
	default:
		return fmt.Errorf("language must be one of: %s, %s", entities.VoiceLanguageEnglish, entities.VoiceLanguageHindi)
	}
	if msg.SampleRate != 0 && (msg.SampleRate < minSampleRate || msg.SampleRate > maxSampleRate) {
		return fmt.Errorf("sample_rate must be between %d and %d", minSampleRate, maxSampleRate)
	}
	return nil
}

func (v *MessageValidator) validateFaceFrame(msg *FaceFrameMessage) error {
	image := msg.Image
	// Accept data URLs as produced by canvas.toDataURL
	if i := strings.Index(image, ","); strings.HasPrefix(image, "data:") && i >= 0 {
		image = image[i+1:]
	}
	if image == "" {
		return errors.New("image is required")
	}

	frame, err := base64.StdEncoding.DecodeString(image)
	if err != nil {
		return fmt.Errorf("image must be base64: %w", err)
	}
	msg.frame = frame
	return nil
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message, details string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: newBase(MessageTypeError),
		Code:        code,
		Message:     message,
		Details:     details,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{BaseMessage: newBase(MessageTypePong), Data: data}
}

// CreateNoticeMessage wraps a notice for the client
func CreateNoticeMessage(notice domain.Notice) *NoticeMessage {
	return &NoticeMessage{BaseMessage: newBase(MessageTypeNotice), Notice: notice}
}

// CreateTurnResultMessage wraps a finished turn
func CreateTurnResultMessage(sessionID string, turn *usecase.TurnResult) *TurnResultMessage {
	return &TurnResultMessage{BaseMessage: newBase(MessageTypeTurnResult), SessionID: sessionID, Turn: turn}
}
