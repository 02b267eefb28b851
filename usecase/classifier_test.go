package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/mentalhs/server/adapters/llm"
	"github.com/satriahrh/mentalhs/server/domain/entities"
)

func TestClassifyLocal(t *testing.T) {
	tests := []struct {
		text     string
		expected entities.Emotion
	}{
		{"I feel so happy and wonderful today", entities.EmotionHappy},
		{"I'm sad but also happy", entities.EmotionHappy},
		{"Feeling DEPRESSED", entities.EmotionSad},
		{"so much to worry about", entities.EmotionAnxious},
		{"work pressure is killing me", entities.EmotionStressed},
		{"I'm furious", entities.EmotionAngry},
		{"upset about the meeting", entities.EmotionAngry},
		{"मैं आज बहुत खुश हूं", entities.EmotionHappy},
		{"मुझे तनाव है", entities.EmotionStressed},
		{"the weather is fine", entities.EmotionNeutral},
		{"", entities.EmotionNeutral},
	}

	for _, tt := range tests {
		if got := ClassifyLocal(tt.text); got != tt.expected {
			t.Errorf("ClassifyLocal(%q): expected %s, got %s", tt.text, tt.expected, got)
		}
	}
}

func TestEmotionClassifier_Offline(t *testing.T) {
	mock := llm.NewMockGeminiClient()
	c := NewEmotionClassifier(staticProvider{generator: mock}, zaptest.NewLogger(t))

	got := c.Classify(context.Background(), "I feel so happy and wonderful today", true)

	assert.Equal(t, entities.EmotionHappy, got.Value)
	assert.Equal(t, OutcomeFallback, got.Outcome)
	assert.Equal(t, ReasonOffline, got.Reason)
	assert.Empty(t, mock.Requests(), "offline must not call the model")
}

func TestEmotionClassifier_RemoteOverridesKeywords(t *testing.T) {
	mock := llm.NewMockGeminiClient(llm.MockReply{Text: "  Anxious\n"})
	c := NewEmotionClassifier(staticProvider{generator: mock}, zaptest.NewLogger(t))

	got := c.Classify(context.Background(), "I'm happy I guess", false)

	assert.Equal(t, entities.EmotionAnxious, got.Value)
	assert.Equal(t, OutcomeSuccess, got.Outcome)
	assert.Equal(t, entities.EmotionHappy, got.Local)

	requests := mock.Requests()
	if assert.Len(t, requests, 1) {
		assert.Contains(t, requests[0].Prompt, `Text: "I'm happy I guess"`)
		assert.Empty(t, requests[0].SystemInstruction)
	}
}

func TestEmotionClassifier_Fallbacks(t *testing.T) {
	tests := []struct {
		name     string
		provider GeneratorProvider
		reason   Reason
	}{
		{
			name:     "MalformedAnswer",
			provider: staticProvider{generator: llm.NewMockGeminiClient(llm.MockReply{Text: "melancholic"})},
			reason:   ReasonMalformedRemoteResponse,
		},
		{
			name:     "TransportError",
			provider: staticProvider{generator: llm.NewMockGeminiClient(llm.MockReply{Err: errors.New("connection reset")})},
			reason:   ReasonTransportError,
		},
		{
			name:     "NoCredential",
			provider: staticProvider{err: ErrCredentialInvalid},
			reason:   ReasonCredentialInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEmotionClassifier(tt.provider, zaptest.NewLogger(t))
			got := c.Classify(context.Background(), "everything makes me nervous", false)

			assert.Equal(t, entities.EmotionAnxious, got.Value)
			assert.Equal(t, OutcomeFallback, got.Outcome)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}
