package llm

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

func TestValidateGeminiConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  GeminiConfig
		wantErr bool
	}{
		{"valid minimal", GeminiConfig{APIKey: "k"}, false},
		{"missing key", GeminiConfig{}, true},
		{"blank key", GeminiConfig{APIKey: "   "}, true},
		{"temperature too high", GeminiConfig{APIKey: "k", Temperature: 3}, true},
		{"negative topP", GeminiConfig{APIKey: "k", TopP: -0.1}, true},
		{"negative topK", GeminiConfig{APIKey: "k", TopK: -1}, true},
		{"negative timeout", GeminiConfig{APIKey: "k", TimeoutSeconds: -5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGeminiConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGeminiConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	g := &GeminiLLM{logger: zaptest.NewLogger(t)}
	g.applyDefaults(GeminiConfig{APIKey: "k"})

	if g.model != defaultModel {
		t.Errorf("Expected model %s, got %s", defaultModel, g.model)
	}
	if g.timeout != defaultTimeoutSeconds*time.Second {
		t.Errorf("Expected default timeout, got %v", g.timeout)
	}

	g.applyDefaults(GeminiConfig{APIKey: "k", Model: "gemini-1.5-flash", TimeoutSeconds: 3})
	if g.Model() != "gemini-1.5-flash" {
		t.Errorf("Expected configured model, got %s", g.Model())
	}
	if g.timeout != 3*time.Second {
		t.Errorf("Expected 3s timeout, got %v", g.timeout)
	}
}

func TestResponseText(t *testing.T) {
	if got := responseText(nil); got != "" {
		t.Errorf("Expected empty text for nil response, got %q", got)
	}

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "Hello, "}, {Text: "friend."}}},
		}},
	}
	if got := responseText(resp); got != "Hello, friend." {
		t.Errorf("Expected joined parts, got %q", got)
	}

	if got := responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}); got != "" {
		t.Errorf("Expected empty text for candidate without content, got %q", got)
	}
}

func TestMockGeminiClient(t *testing.T) {
	mock := NewMockGeminiClient(MockReply{Text: "sad"})
	ctx := context.Background()

	got, err := mock.Generate(ctx, repositories.GenerateRequest{Prompt: "p"})
	if err != nil || got != "sad" {
		t.Errorf("Expected scripted reply, got %q, %v", got, err)
	}

	if _, err := mock.Generate(ctx, repositories.GenerateRequest{Prompt: "p2"}); err != ErrMockUnavailable {
		t.Errorf("Expected ErrMockUnavailable, got %v", err)
	}

	if len(mock.Requests()) != 2 {
		t.Errorf("Expected 2 recorded requests, got %d", len(mock.Requests()))
	}
}

func TestGeminiLLM_Integration(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping Gemini integration test - GEMINI_API_KEY not set")
	}

	ctx := context.Background()
	g, err := NewGeminiLLM(ctx, GeminiConfig{APIKey: apiKey}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create Gemini client: %v", err)
	}

	text, err := g.Generate(ctx, repositories.GenerateRequest{Prompt: "test"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text == "" {
		t.Error("Expected non-empty response")
	}
}
