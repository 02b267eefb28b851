package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/mentalhs/server/domain/entities"
	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

type emotionRule struct {
	emotion  entities.Emotion
	keywords []string
}

// Order matters: the first rule with a matching keyword wins.
var emotionRules = []emotionRule{
	{entities.EmotionHappy, []string{"happy", "joy", "great", "wonderful", "खुश", "प्रसन्न", "आनंदित"}},
	{entities.EmotionSad, []string{"sad", "depressed", "unhappy", "miserable", "दुखी", "उदास", "निराश"}},
	{entities.EmotionAnxious, []string{"anxious", "worry", "nervous", "fear", "चिंतित", "घबराहट", "डर"}},
	{entities.EmotionStressed, []string{"stress", "overwhelm", "pressure", "तनाव", "दबाव", "परेशान"}},
	{entities.EmotionAngry, []string{"angry", "mad", "furious", "upset", "गुस्सा", "क्रोधित", "नाराज"}},
}

const classificationPrompt = `Analyze the following text and determine the primary emotion expressed.
Choose exactly one emotion from this list: happy, neutral, sad, anxious, stressed, angry.
Only respond with the emotion name, nothing else.

Text: "%s"`

// ClassifyLocal is the keyword pass. It never calls out and defaults to neutral.
func ClassifyLocal(text string) entities.Emotion {
	lower := strings.ToLower(text)
	for _, rule := range emotionRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.emotion
			}
		}
	}
	return entities.EmotionNeutral
}

// Classification is a classifier result plus the keyword guess it competed with
type Classification struct {
	Result[entities.Emotion]
	Local entities.Emotion `json:"local"`
}

// EmotionClassifier picks the user's emotion from a message
type EmotionClassifier struct {
	generators GeneratorProvider
	logger     *zap.Logger
}

// NewEmotionClassifier creates a classifier using generators for the remote pass
func NewEmotionClassifier(generators GeneratorProvider, logger *zap.Logger) *EmotionClassifier {
	return &EmotionClassifier{generators: generators, logger: logger}
}

// Classify never fails. A well-formed remote answer overrides the keyword
// pass; anything else falls back to it.
func (c *EmotionClassifier) Classify(ctx context.Context, text string, offline bool) Classification {
	local := ClassifyLocal(text)
	if offline {
		return Classification{Result: fallback(local, ReasonOffline), Local: local}
	}

	remote, err := c.classifyRemote(ctx, text)
	if err != nil {
		c.logger.Warn("Remote emotion classification failed, using keyword result",
			zap.String("local", string(local)),
			zap.Error(err))
		return Classification{Result: fallback(local, ReasonFor(err)), Local: local}
	}

	if remote != local {
		c.logger.Debug("Remote emotion overrides keyword result",
			zap.String("remote", string(remote)),
			zap.String("local", string(local)))
	}
	return Classification{Result: success(remote), Local: local}
}

func (c *EmotionClassifier) classifyRemote(ctx context.Context, text string) (entities.Emotion, error) {
	generator, err := c.generators.Generator(ctx)
	if err != nil {
		return "", err
	}

	answer, err := generator.Generate(ctx, repositories.GenerateRequest{
		Prompt: fmt.Sprintf(classificationPrompt, text),
	})
	if err != nil {
		return "", err
	}

	emotion, ok := entities.ParseEmotion(answer)
	if !ok {
		return "", fmt.Errorf("%w: unexpected emotion %q", ErrMalformedResponse, answer)
	}
	return emotion, nil
}
