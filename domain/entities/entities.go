package entities

import (
	"errors"
	"fmt"
	"strings"
)

// Emotion is one of the six moods the system recognises
type Emotion string

const (
	EmotionHappy    Emotion = "happy"
	EmotionNeutral  Emotion = "neutral"
	EmotionSad      Emotion = "sad"
	EmotionAnxious  Emotion = "anxious"
	EmotionStressed Emotion = "stressed"
	EmotionAngry    Emotion = "angry"
)

// Emotions lists every emotion in display order
var Emotions = []Emotion{
	EmotionHappy,
	EmotionNeutral,
	EmotionSad,
	EmotionAnxious,
	EmotionStressed,
	EmotionAngry,
}

// ParseEmotion normalises s and reports whether it names a known emotion
func ParseEmotion(s string) (Emotion, bool) {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	return e, e.Valid()
}

// Valid reports whether e belongs to the closed emotion set
func (e Emotion) Valid() bool {
	switch e {
	case EmotionHappy, EmotionNeutral, EmotionSad, EmotionAnxious, EmotionStressed, EmotionAngry:
		return true
	}
	return false
}

// NeedsSupport reports whether the emotion should prompt a journaling suggestion
func (e Emotion) NeedsSupport() bool {
	return e == EmotionSad || e == EmotionAnxious || e == EmotionStressed
}

// Personality selects the persona the responder speaks as
type Personality string

const (
	PersonalitySupportive Personality = "supportive"
	PersonalityTherapist  Personality = "therapist"
	PersonalityCoach      Personality = "coach"
)

// PersonalityInfo describes a persona for listing endpoints
type PersonalityInfo struct {
	ID          Personality `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
}

// Personalities is the catalogue of selectable personas
var Personalities = []PersonalityInfo{
	{ID: PersonalitySupportive, Name: "Supportive Friend", Description: "Empathetic and understanding"},
	{ID: PersonalityTherapist, Name: "Therapist", Description: "Professional and insightful"},
	{ID: PersonalityCoach, Name: "Motivational Coach", Description: "Energetic and goal-oriented"},
}

// ParsePersonality normalises s and reports whether it names a known persona
func ParsePersonality(s string) (Personality, bool) {
	p := Personality(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Valid()
}

// Valid reports whether p is a known persona
func (p Personality) Valid() bool {
	switch p {
	case PersonalitySupportive, PersonalityTherapist, PersonalityCoach:
		return true
	}
	return false
}

// Voice languages accepted by the speech port
const (
	VoiceLanguageEnglish = "en-US"
	VoiceLanguageHindi   = "hi-IN"
)

// Settings holds user preferences that outlive a single session
type Settings struct {
	AutoMessageEnabled bool   `json:"auto_message_enabled" bson:"auto_message_enabled"`
	OfflineMode        bool   `json:"offline_mode" bson:"offline_mode"`
	VoiceLanguage      string `json:"voice_language" bson:"voice_language"`
}

// DefaultSettings returns the settings used when nothing has been saved yet
func DefaultSettings() Settings {
	return Settings{
		AutoMessageEnabled: true,
		OfflineMode:        false,
		VoiceLanguage:      VoiceLanguageHindi,
	}
}

// Domain validation methods
func (s *Settings) Validate() error {
	switch s.VoiceLanguage {
	case VoiceLanguageEnglish, VoiceLanguageHindi:
		return nil
	case "":
		return errors.New("voice_language is required")
	default:
		return fmt.Errorf("voice_language must be one of %s, %s", VoiceLanguageEnglish, VoiceLanguageHindi)
	}
}
