package domain

// NoticeVariant styles an advisory notice
type NoticeVariant string

const (
	NoticeDefault     NoticeVariant = "default"
	NoticeDestructive NoticeVariant = "destructive"
)

// Notice is a short advisory shown to the user. Notices never block a turn.
type Notice struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Variant     NoticeVariant `json:"variant,omitempty"`
}

var (
	NoticeOfflineActivated = Notice{
		Title:       "Offline Mode Activated",
		Description: "API key issues detected. Using offline mode with local responses.",
	}
	NoticeOfflineEnabled = Notice{
		Title:       "Offline Mode Activated",
		Description: "Using local responses without API calls.",
	}
	NoticeOnlineEnabled = Notice{
		Title:       "Online Mode Activated",
		Description: "Using AI-powered responses when available.",
	}
	NoticeAPIKeyInvalid = Notice{
		Title:       "API Key Invalid",
		Description: "No valid API key found. Some features will use fallback responses.",
		Variant:     NoticeDestructive,
	}
	NoticeJournalingSuggestion = Notice{
		Title:       "Journaling Suggestion",
		Description: "Writing about your feelings might help. Would you like to add a journal entry?",
	}
	NoticeJournalEntryAdded = Notice{
		Title:       "Journal Entry Added",
		Description: "Your thoughts have been saved to your journal.",
	}
	NoticeDetectionEnabled = Notice{
		Title:       "Emotion Detection Enabled",
		Description: "Click 'Scan Now' to analyze your current emotional state.",
	}
	NoticeDetectionDisabled = Notice{
		Title:       "Emotion Detection Disabled",
		Description: "Emotion scanning has been turned off.",
	}
)

// EmotionDetectedNotice announces a face-detected emotion
func EmotionDetectedNotice(emotion string) Notice {
	return Notice{
		Title:       "Emotion Detected",
		Description: "You appear to be feeling " + emotion + ".",
	}
}

// ListeningNotice is shown when voice input starts
func ListeningNotice(language string) Notice {
	name := "English"
	if language == "hi-IN" {
		name = "Hindi"
	}
	return Notice{
		Title:       "Listening...",
		Description: "Speak now. " + name + " language is active.",
	}
}

// SpeechErrorNotice reports a recognition failure. Listening stops, chat continues.
func SpeechErrorNotice(reason string) Notice {
	return Notice{
		Title:       "Speech Recognition Error",
		Description: "Error: " + reason + ". Please try again.",
		Variant:     NoticeDestructive,
	}
}
