package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/mentalhs/server/domain/entities"
	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

// contextWindow is how many past messages are replayed to the model
const contextWindow = 10

var personalityPrompts = map[entities.Personality]string{
	entities.PersonalitySupportive: "You are a supportive friend who listens and provides emotional support. You're warm, empathetic, and non-judgmental. You validate feelings and offer gentle encouragement.",
	entities.PersonalityTherapist:  "You are a professional therapist who helps people understand their thoughts and feelings. You use therapeutic techniques like cognitive reframing and mindfulness. You ask thoughtful questions and provide evidence-based guidance.",
	entities.PersonalityCoach:      "You are a motivational coach who helps people achieve their goals. You're action-oriented, encouraging, and focused on solutions. You help break down problems into manageable steps and provide accountability.",
}

var emotionGuidance = map[entities.Emotion]string{
	entities.EmotionHappy:    "Celebrate their positive feelings and help maintain this state.",
	entities.EmotionNeutral:  "Engage them in thoughtful conversation and explore their current situation.",
	entities.EmotionSad:      "Provide comfort and validate their feelings. Offer gentle perspective when appropriate.",
	entities.EmotionAnxious:  "Help them ground themselves and break down their worries. Suggest calming techniques.",
	entities.EmotionStressed: "Acknowledge their stress and help prioritize. Suggest stress management techniques.",
	entities.EmotionAngry:    "Allow them to express feelings safely. Help identify the source of anger and constructive outlets.",
}

var responseGuidelines = []string{
	"Keep responses concise (2-4 sentences) and conversational.",
	"Never identify yourself as an AI, model, or assistant. Respond as the personality type.",
	`Don't use phrases like "I understand" or "I'm sorry to hear that" too frequently.`,
	"Avoid clinical language unless you're in therapist mode.",
	"Never suggest medical treatments or diagnose conditions.",
	"If the user mentions self-harm or suicide, provide crisis resources.",
}

var fallbackResponses = map[entities.Personality]map[entities.Emotion]string{
	entities.PersonalitySupportive: {
		entities.EmotionHappy:    "That's wonderful to hear! I'm glad things are going well for you. What's been bringing you joy lately?",
		entities.EmotionNeutral:  "I'm here to chat. How has your day been going so far?",
		entities.EmotionSad:      "I'm sorry you're feeling down. It's okay to feel this way, and I'm here to listen if you want to talk more about it.",
		entities.EmotionAnxious:  "It sounds like you're feeling anxious. Let's take a deep breath together. What's on your mind right now?",
		entities.EmotionStressed: "It seems like you're under a lot of pressure. What's one small thing we could focus on right now?",
		entities.EmotionAngry:    "I can see you're upset. It's okay to feel angry sometimes. Would it help to talk about what happened?",
	},
	entities.PersonalityTherapist: {
		entities.EmotionHappy:    "I notice you're in a positive state. What factors do you think contributed to this feeling?",
		entities.EmotionNeutral:  "How would you describe your emotional state right now? What thoughts are you having?",
		entities.EmotionSad:      "Depression and sadness are common human experiences. Can you identify what might be contributing to these feelings?",
		entities.EmotionAnxious:  "Anxiety often involves worrying about future events. What specific concerns are on your mind?",
		entities.EmotionStressed: "Stress is your body's response to demands. Let's identify what's causing this pressure and explore coping strategies.",
		entities.EmotionAngry:    "Anger often masks other emotions. When you look beneath the anger, what other feelings might be present?",
	},
	entities.PersonalityCoach: {
		entities.EmotionHappy:    "Great energy! Let's channel this positive momentum. What's one goal you'd like to make progress on today?",
		entities.EmotionNeutral:  "Let's set an intention for our conversation. What would you like to accomplish or work toward?",
		entities.EmotionSad:      "Even when motivation is low, small steps matter. What's one tiny action that might feel manageable right now?",
		entities.EmotionAnxious:  "Let's break down what's causing worry into smaller, actionable parts. What's the most immediate concern?",
		entities.EmotionStressed: "When we're overwhelmed, prioritization is key. What's the most important thing that needs your attention?",
		entities.EmotionAngry:    "That energy can be redirected productively. Once you've processed this feeling, what constructive action could you take?",
	},
}

// FallbackResponse returns the canned reply for a persona and emotion.
// Unknown keys resolve to supportive and neutral.
func FallbackResponse(personality entities.Personality, emotion entities.Emotion) string {
	byEmotion, ok := fallbackResponses[personality]
	if !ok {
		byEmotion = fallbackResponses[entities.PersonalitySupportive]
	}
	if text, ok := byEmotion[emotion]; ok {
		return text
	}
	return byEmotion[entities.EmotionNeutral]
}

// FormatHistory renders the last messages as "User: ..." / "Assistant: ..." lines
func FormatHistory(history []entities.SessionMessage) string {
	if len(history) > contextWindow {
		history = history[len(history)-contextWindow:]
	}

	lines := make([]string, 0, len(history))
	for _, msg := range history {
		speaker := "Assistant"
		if msg.Role == entities.MessageRoleUser {
			speaker = "User"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, msg.ContextText()))
	}
	return strings.Join(lines, "\n")
}

// BuildDirective composes the system instruction for one reply
func BuildDirective(personality entities.Personality, emotion entities.Emotion, history []entities.SessionMessage) string {
	prompt, ok := personalityPrompts[personality]
	if !ok {
		prompt = personalityPrompts[entities.PersonalitySupportive]
	}
	guidance, ok := emotionGuidance[emotion]
	if !ok {
		guidance = emotionGuidance[entities.EmotionNeutral]
	}

	var sb strings.Builder
	sb.WriteString(prompt)
	fmt.Fprintf(&sb, " The user's current emotional state appears to be: %s.\n\n", emotion)
	sb.WriteString("Guidelines:\n")
	fmt.Fprintf(&sb, "- %s\n", guidance)
	for _, line := range responseGuidelines {
		fmt.Fprintf(&sb, "- %s\n", line)
	}
	sb.WriteString("\nRecent conversation:\n")
	sb.WriteString(FormatHistory(history))
	return sb.String()
}

// ResponseRequest is the input to one reply
type ResponseRequest struct {
	UserMessage string
	Personality entities.Personality
	Emotion     entities.Emotion
	// History is the conversation before UserMessage
	History []entities.SessionMessage
	Offline bool
}

// ResponseGenerator produces the assistant's reply
type ResponseGenerator struct {
	generators GeneratorProvider
	logger     *zap.Logger
}

// NewResponseGenerator creates a responder using generators for the remote path
func NewResponseGenerator(generators GeneratorProvider, logger *zap.Logger) *ResponseGenerator {
	return &ResponseGenerator{generators: generators, logger: logger}
}

// Respond always returns a non-empty reply
func (r *ResponseGenerator) Respond(ctx context.Context, req ResponseRequest) Result[string] {
	canned := FallbackResponse(req.Personality, req.Emotion)
	if req.Offline {
		return fallback(canned, ReasonOffline)
	}

	text, err := r.respondRemote(ctx, req)
	if err != nil {
		r.logger.Warn("Remote response failed, using fallback reply",
			zap.String("personality", string(req.Personality)),
			zap.String("emotion", string(req.Emotion)),
			zap.Error(err))
		return fallback(canned, ReasonFor(err))
	}
	return success(text)
}

func (r *ResponseGenerator) respondRemote(ctx context.Context, req ResponseRequest) (string, error) {
	generator, err := r.generators.Generator(ctx)
	if err != nil {
		return "", err
	}

	text, err := generator.Generate(ctx, repositories.GenerateRequest{
		SystemInstruction: BuildDirective(req.Personality, req.Emotion, req.History),
		Prompt:            req.UserMessage,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrMalformedResponse
	}
	return text, nil
}
