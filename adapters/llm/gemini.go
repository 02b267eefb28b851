package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

const (
	defaultModel          = "gemini-2.0-flash"
	defaultTemperature    = 0.7
	defaultTopP           = 0.95
	defaultTopK           = 40
	defaultMaxTokens      = 512
	defaultTimeoutSeconds = 20
)

// ErrEmptyResponse is returned when the model answered without any text
var ErrEmptyResponse = errors.New("empty response from model")

// safetySettings only block high-probability harm so that replies about
// self-harm can still carry crisis resources.
var safetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
}

// GeminiConfig configures generation. Zero values fall back to defaults.
type GeminiConfig struct {
	APIKey          string  `yaml:"-"`
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	TopP            float32 `yaml:"top_p"`
	TopK            float32 `yaml:"top_k"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
}

// ValidateGeminiConfig validates the GeminiConfig
func ValidateGeminiConfig(config GeminiConfig) error {
	if strings.TrimSpace(config.APIKey) == "" {
		return fmt.Errorf("Google AI API key is required")
	}

	if config.Temperature < 0 || config.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %f", config.Temperature)
	}

	if config.TopP < 0 || config.TopP > 1 {
		return fmt.Errorf("topP must be between 0 and 1, got %f", config.TopP)
	}

	if config.TopK < 0 {
		return fmt.Errorf("topK must be positive, got %f", config.TopK)
	}

	if config.MaxOutputTokens < 0 {
		return fmt.Errorf("maxOutputTokens must be positive, got %d", config.MaxOutputTokens)
	}

	if config.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must be positive, got %d", config.TimeoutSeconds)
	}

	return nil
}

// GeminiLLM implements repositories.TextGenerator using Google's Gemini API
type GeminiLLM struct {
	client          *genai.Client
	logger          *zap.Logger
	model           string
	temperature     float32
	topP            float32
	topK            float32
	maxOutputTokens int
	timeout         time.Duration
}

var _ repositories.TextGenerator = (*GeminiLLM)(nil)

// NewGeminiLLM creates a new Gemini client bound to config.APIKey
func NewGeminiLLM(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiLLM, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	g := &GeminiLLM{client: client, logger: logger}
	g.applyDefaults(config)
	return g, nil
}

func (g *GeminiLLM) applyDefaults(config GeminiConfig) {
	g.model = config.Model
	if g.model == "" {
		g.model = defaultModel
		g.logger.Debug("Using default model", zap.String("model", g.model))
	}

	g.temperature = config.Temperature
	if g.temperature == 0 {
		g.temperature = float32(defaultTemperature)
	}

	g.topP = config.TopP
	if g.topP == 0 {
		g.topP = float32(defaultTopP)
	}

	g.topK = config.TopK
	if g.topK == 0 {
		g.topK = float32(defaultTopK)
	}

	g.maxOutputTokens = config.MaxOutputTokens
	if g.maxOutputTokens == 0 {
		g.maxOutputTokens = defaultMaxTokens
	}

	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}
	g.timeout = time.Duration(timeoutSeconds) * time.Second
}

// Model returns the model name requests are sent to
func (g *GeminiLLM) Model() string {
	return g.model
}

// Generate sends one prompt, with an optional system instruction, and returns
// the concatenated text of the first candidate. There is no retry.
func (g *GeminiLLM) Generate(ctx context.Context, req repositories.GenerateRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		SafetySettings:  safetySettings,
		Temperature:     genai.Ptr(g.temperature),
		TopP:            genai.Ptr(g.topP),
		TopK:            genai.Ptr(g.topK),
		MaxOutputTokens: int32(g.maxOutputTokens),
	}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	response, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := responseText(response)
	if text == "" {
		return "", ErrEmptyResponse
	}

	g.logger.Debug("Gemini generation completed",
		zap.String("model", g.model),
		zap.Int("prompt_length", len(req.Prompt)),
		zap.String("response_preview", text[:min(50, len(text))]))

	return text, nil
}

// responseText extracts text from the first candidate
func responseText(response *genai.GenerateContentResponse) string {
	if response == nil || len(response.Candidates) == 0 {
		return ""
	}
	candidate := response.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// GeminiFactory builds GeminiLLM instances for a credential chosen at runtime
type GeminiFactory struct {
	config GeminiConfig
	logger *zap.Logger
}

var _ repositories.TextGeneratorFactory = (*GeminiFactory)(nil)

// NewGeminiFactory creates a factory sharing every setting except the key
func NewGeminiFactory(config GeminiConfig, logger *zap.Logger) *GeminiFactory {
	return &GeminiFactory{config: config, logger: logger}
}

// NewTextGenerator implements repositories.TextGeneratorFactory
func (f *GeminiFactory) NewTextGenerator(ctx context.Context, apiKey string) (repositories.TextGenerator, error) {
	config := f.config
	config.APIKey = apiKey
	return NewGeminiLLM(ctx, config, f.logger)
}
