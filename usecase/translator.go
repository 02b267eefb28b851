package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

const translationPrompt = "Translate the following text from %s to %s. Only respond with the translation, nothing else:\n\n\"%s\""

// Translator converts text between languages. The model is tried first, then
// the secondary endpoint, then the original text is returned.
type Translator struct {
	generators GeneratorProvider
	secondary  repositories.Translator
	logger     *zap.Logger
}

// NewTranslator creates a translator. secondary may be nil.
func NewTranslator(generators GeneratorProvider, secondary repositories.Translator, logger *zap.Logger) *Translator {
	return &Translator{generators: generators, secondary: secondary, logger: logger}
}

// Translate never fails. In offline mode no remote call is made.
func (t *Translator) Translate(ctx context.Context, text, from, to string, offline bool) Result[string] {
	if strings.TrimSpace(text) == "" || from == to {
		return Result[string]{Value: text, Outcome: OutcomeSuccess, Reason: ReasonIdentity}
	}
	if offline {
		return fallback(text, ReasonOffline)
	}

	translated, err := t.translateRemote(ctx, text, from, to)
	if err == nil {
		return success(translated)
	}
	primaryReason := ReasonFor(err)
	t.logger.Warn("Model translation failed, trying secondary endpoint", zap.Error(err))

	if t.secondary == nil {
		return fallback(text, ReasonCapabilityUnavailable)
	}

	translated, err = t.secondary.Translate(ctx, text, from, to)
	if err != nil {
		t.logger.Warn("Secondary translation failed, keeping original text", zap.Error(err))
		return fallback(text, ReasonFor(err))
	}
	return fallback(translated, primaryReason)
}

func (t *Translator) translateRemote(ctx context.Context, text, from, to string) (string, error) {
	generator, err := t.generators.Generator(ctx)
	if err != nil {
		return "", err
	}

	answer, err := generator.Generate(ctx, repositories.GenerateRequest{
		Prompt: fmt.Sprintf(translationPrompt, from, to, text),
	})
	if err != nil {
		return "", err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", ErrMalformedResponse
	}
	return answer, nil
}
