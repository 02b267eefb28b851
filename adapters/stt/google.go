package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

// GoogleSpeechToText implements SpeechToText for Google Cloud
type GoogleSpeechToText struct {
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText creates the Google Cloud adapter. Credentials come
// from the environment as usual for Google client libraries.
func NewGoogleSpeechToText(logger *zap.Logger) *GoogleSpeechToText {
	return &GoogleSpeechToText{logger: logger}
}

// InitTranscribeStreaming opens a continuous recognition stream with interim
// results enabled
func (g *GoogleSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		return nil, err
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create streaming recognize: %w", err)
	}

	recognitionConfig := &speechpb.RecognitionConfig{
		Encoding:                   encoding,
		SampleRateHertz:            int32(config.SampleRate),
		LanguageCode:               config.Language,
		EnableAutomaticPunctuation: true,
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config:          recognitionConfig,
				InterimResults:  true,
				SingleUtterance: false,
			},
		},
	}); err != nil {
		stream.CloseSend()
		client.Close()
		return nil, fmt.Errorf("failed to send streaming config: %w", err)
	}

	s := &GoogleSpeechToTextStream{
		client:      client,
		stream:      stream,
		logger:      g.logger,
		transcripts: make(chan repositories.Transcript, 16),
		done:        make(chan struct{}),
	}
	go s.receiveResults()

	return s, nil
}

// GoogleSpeechToTextStream is one open recognition stream
type GoogleSpeechToTextStream struct {
	client *speech.Client
	stream speechpb.Speech_StreamingRecognizeClient
	logger *zap.Logger

	transcripts chan repositories.Transcript
	done        chan struct{}

	mu            sync.Mutex
	finalized     strings.Builder
	current       string
	audioReceived bool
	recvErr       error
	closed        bool
}

var _ repositories.SpeechToTextStreaming = (*GoogleSpeechToTextStream)(nil)

// Stream sends one audio chunk
func (g *GoogleSpeechToTextStream) Stream(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return errors.New("stream already ended")
	}
	g.audioReceived = true
	g.mu.Unlock()

	if err := g.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: data,
		},
	}); err != nil {
		return fmt.Errorf("failed to send audio data: %w", err)
	}
	return nil
}

// Transcripts implements repositories.SpeechToTextStreaming
func (g *GoogleSpeechToTextStream) Transcripts() <-chan repositories.Transcript {
	return g.transcripts
}

// End closes the send side and waits for the receiver to drain
func (g *GoogleSpeechToTextStream) End() (string, error) {
	defer g.client.Close()

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return "", errors.New("stream already ended")
	}
	g.closed = true
	audioReceived := g.audioReceived
	g.mu.Unlock()

	if err := g.stream.CloseSend(); err != nil {
		return "", fmt.Errorf("failed to close send stream: %w", err)
	}

	<-g.done

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.recvErr != nil {
		return "", g.recvErr
	}
	if !audioReceived {
		return "", errors.New("no audio data received")
	}
	return joinTranscript(g.finalized.String(), g.current), nil
}

func (g *GoogleSpeechToTextStream) receiveResults() {
	defer close(g.done)
	defer close(g.transcripts)

	for {
		resp, err := g.stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			g.mu.Lock()
			g.recvErr = fmt.Errorf("failed to receive response: %w", err)
			g.mu.Unlock()
			g.logger.Warn("Speech recognition stream failed", zap.Error(err))
			return
		}

		g.mu.Lock()
		isFinal := g.applyResults(resp.Results)
		text := joinTranscript(g.finalized.String(), g.current)
		g.mu.Unlock()

		select {
		case g.transcripts <- repositories.Transcript{Text: text, IsFinal: isFinal}:
		default:
			g.logger.Debug("Dropping transcript update, reader is behind")
		}
	}
}

// applyResults folds one response into the running transcript. Final
// segments are appended permanently; interim ones replace the tail.
func (g *GoogleSpeechToTextStream) applyResults(results []*speechpb.StreamingRecognitionResult) bool {
	var interim strings.Builder
	isFinal := false
	for _, result := range results {
		if len(result.Alternatives) == 0 {
			continue
		}
		text := result.Alternatives[0].Transcript
		if result.IsFinal {
			g.finalized.WriteString(text)
			isFinal = true
			continue
		}
		interim.WriteString(text)
	}
	g.current = interim.String()
	return isFinal
}

func joinTranscript(finalized, interim string) string {
	return strings.TrimSpace(finalized + interim)
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch strings.ToUpper(encoding) {
	case "WAV", "LINEAR16", "":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
