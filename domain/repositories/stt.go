package repositories

import "context"

// SpeechToText abstracts continuous speech recognition
type SpeechToText interface {
	// InitTranscribeStreaming opens a streaming session that reports interim
	// and final results until End is called or the context is cancelled
	InitTranscribeStreaming(ctx context.Context, config AudioConfig) (SpeechToTextStreaming, error)
}

// AudioConfig represents audio configuration for speech recognition
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

// Transcript is the running text of a listening session. Text is every
// finalized segment so far followed by the current interim segment.
type Transcript struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

// SpeechToTextStreaming is one listening session
type SpeechToTextStreaming interface {
	Stream(data []byte) error
	// Transcripts is closed once the session ends
	Transcripts() <-chan Transcript
	// End stops listening and returns the final text
	End() (string, error)
}
