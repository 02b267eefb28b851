package repositories

import "context"

// GenerateRequest is a single-shot, stateless generation call
type GenerateRequest struct {
	// SystemInstruction is sent as the model's system directive. May be empty.
	SystemInstruction string
	Prompt            string
}

// TextGenerator abstracts the hosted text model. Implementations hold a
// credential and are cheap to call repeatedly.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// TextGeneratorFactory builds a generator bound to a credential
type TextGeneratorFactory interface {
	NewTextGenerator(ctx context.Context, apiKey string) (TextGenerator, error)
}
