package camera

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/mentalhs/server/domain/entities"
	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

// ErrEmptyFrame is returned when no image data was supplied
var ErrEmptyFrame = errors.New("empty camera frame")

type weightedEmotion struct {
	emotion entities.Emotion
	weight  int
}

// Neutral is the most common reading, anger the rarest.
var emotionWeights = []weightedEmotion{
	{entities.EmotionHappy, 3},
	{entities.EmotionNeutral, 5},
	{entities.EmotionSad, 2},
	{entities.EmotionAnxious, 2},
	{entities.EmotionStressed, 2},
	{entities.EmotionAngry, 1},
}

// SimulatedDetector stands in for a face-expression model. It ignores frame
// content and draws a weighted random emotion.
type SimulatedDetector struct {
	mu     sync.Mutex
	rng    *rand.Rand
	total  int
	logger *zap.Logger
}

var _ repositories.FaceEmotionDetector = (*SimulatedDetector)(nil)

// NewSimulatedDetector creates a detector. A nil rng seeds from the clock.
func NewSimulatedDetector(rng *rand.Rand, logger *zap.Logger) *SimulatedDetector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	total := 0
	for _, w := range emotionWeights {
		total += w.weight
	}
	return &SimulatedDetector{rng: rng, total: total, logger: logger}
}

// Detect implements repositories.FaceEmotionDetector
func (d *SimulatedDetector) Detect(ctx context.Context, frame []byte) (entities.Emotion, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(frame) == 0 {
		return "", ErrEmptyFrame
	}

	d.mu.Lock()
	n := d.rng.Intn(d.total)
	d.mu.Unlock()

	emotion := pick(n)
	d.logger.Debug("Simulated face emotion", zap.String("emotion", string(emotion)), zap.Int("frame_bytes", len(frame)))
	return emotion, nil
}

// pick maps n in [0, total) onto the weight table
func pick(n int) entities.Emotion {
	for _, w := range emotionWeights {
		if n < w.weight {
			return w.emotion
		}
		n -= w.weight
	}
	return entities.EmotionNeutral
}
