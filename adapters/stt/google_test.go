package stt

import (
	"context"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

var _ repositories.SpeechToText = &GoogleSpeechToText{}

func result(text string, final bool) *speechpb.StreamingRecognitionResult {
	return &speechpb.StreamingRecognitionResult{
		IsFinal:      final,
		Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: text}},
	}
}

func TestApplyResultsCombinesFinalAndInterim(t *testing.T) {
	s := &GoogleSpeechToTextStream{}

	if s.applyResults([]*speechpb.StreamingRecognitionResult{result("I feel", false)}) {
		t.Error("Interim-only response should not be final")
	}
	if got := joinTranscript(s.finalized.String(), s.current); got != "I feel" {
		t.Errorf("Expected interim text, got %q", got)
	}

	if !s.applyResults([]*speechpb.StreamingRecognitionResult{result("I feel tired. ", true)}) {
		t.Error("Expected final flag")
	}
	s.applyResults([]*speechpb.StreamingRecognitionResult{result("And sad", false)})

	if got := joinTranscript(s.finalized.String(), s.current); got != "I feel tired. And sad" {
		t.Errorf("Expected finalized plus interim, got %q", got)
	}
}

func TestGetAudioEncoding(t *testing.T) {
	if enc, err := getAudioEncoding("webm_opus"); err != nil || enc != speechpb.RecognitionConfig_WEBM_OPUS {
		t.Errorf("Expected WEBM_OPUS, got %v, %v", enc, err)
	}
	if _, err := getAudioEncoding("mp3"); err == nil {
		t.Error("Expected unsupported encoding error")
	}
}

func TestMockSpeechToText(t *testing.T) {
	mock := NewMockSpeechToText(zaptest.NewLogger(t))
	ctx := context.Background()

	if _, err := mock.InitTranscribeStreaming(ctx, repositories.AudioConfig{Language: "fr-FR"}); err == nil {
		t.Error("Expected unsupported language error")
	}

	stream, err := mock.InitTranscribeStreaming(ctx, repositories.AudioConfig{Language: "en-US", SampleRate: 16000})
	if err != nil {
		t.Fatalf("InitTranscribeStreaming failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := stream.Stream([]byte{1, 2, 3}); err != nil {
			t.Fatalf("Stream failed: %v", err)
		}
	}

	text, err := stream.End()
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if text != "I have been feeling a bit stressed lately" {
		t.Errorf("Unexpected transcript %q", text)
	}

	var updates []repositories.Transcript
	for tr := range stream.Transcripts() {
		updates = append(updates, tr)
	}
	if len(updates) != 4 {
		t.Fatalf("Expected 3 interim and 1 final update, got %d", len(updates))
	}
	if updates[0].Text != "I have been" || updates[0].IsFinal {
		t.Errorf("Unexpected first update %+v", updates[0])
	}
	if !updates[3].IsFinal {
		t.Error("Expected last update to be final")
	}
}
