package stt

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

// MockSpeechToText fakes recognition by emitting one scripted phrase per
// audio chunk. Useful for exercising the listening flow without credentials.
type MockSpeechToText struct {
	logger  *zap.Logger
	phrases map[string][]string
}

var _ repositories.SpeechToText = (*MockSpeechToText)(nil)

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{
		logger: logger,
		phrases: map[string][]string{
			"en-US": {"I have been ", "feeling a bit ", "stressed lately"},
			"hi-IN": {"मैं ", "आज थोड़ा ", "उदास हूं"},
		},
	}
}

// InitTranscribeStreaming creates a new mock streaming session
func (s *MockSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	phrases, ok := s.phrases[config.Language]
	if !ok {
		return nil, errors.New("language-not-supported")
	}

	s.logger.Info("Initializing mock streaming transcription",
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding),
		zap.String("language", config.Language))

	return &MockSpeechToTextStream{
		logger:      s.logger,
		phrases:     phrases,
		transcripts: make(chan repositories.Transcript, len(phrases)+1),
	}, nil
}

// MockSpeechToTextStream is a mock implementation of streaming speech recognition
type MockSpeechToTextStream struct {
	logger      *zap.Logger
	phrases     []string
	transcripts chan repositories.Transcript

	mu     sync.Mutex
	text   strings.Builder
	chunks int
	ended  bool
}

// Stream appends the next scripted phrase as an interim result
func (m *MockSpeechToTextStream) Stream(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return errors.New("stream already ended")
	}
	if len(data) == 0 {
		return nil
	}

	if m.chunks < len(m.phrases) {
		m.text.WriteString(m.phrases[m.chunks])
		m.transcripts <- repositories.Transcript{Text: strings.TrimSpace(m.text.String())}
	}
	m.chunks++
	return nil
}

// Transcripts implements repositories.SpeechToTextStreaming
func (m *MockSpeechToTextStream) Transcripts() <-chan repositories.Transcript {
	return m.transcripts
}

// End returns the mock transcription result
func (m *MockSpeechToTextStream) End() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ended {
		return "", errors.New("stream already ended")
	}
	m.ended = true

	text := strings.TrimSpace(m.text.String())
	if m.chunks > 0 {
		m.transcripts <- repositories.Transcript{Text: text, IsFinal: true}
	}
	close(m.transcripts)

	m.logger.Info("Ending mock transcription stream", zap.String("result", text))

	if m.chunks == 0 {
		return "", errors.New("no audio data received")
	}
	return text, nil
}
