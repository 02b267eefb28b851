package camera

import (
	"context"
	"math/rand"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/mentalhs/server/domain/entities"
)

func TestPickFollowsWeights(t *testing.T) {
	tests := []struct {
		n    int
		want entities.Emotion
	}{
		{0, entities.EmotionHappy},
		{2, entities.EmotionHappy},
		{3, entities.EmotionNeutral},
		{7, entities.EmotionNeutral},
		{8, entities.EmotionSad},
		{10, entities.EmotionAnxious},
		{12, entities.EmotionStressed},
		{14, entities.EmotionAngry},
	}

	for _, tt := range tests {
		if got := pick(tt.n); got != tt.want {
			t.Errorf("pick(%d) = %s, want %s", tt.n, got, tt.want)
		}
	}
}

func TestSimulatedDetector(t *testing.T) {
	detector := NewSimulatedDetector(rand.New(rand.NewSource(1)), zaptest.NewLogger(t))
	ctx := context.Background()

	if _, err := detector.Detect(ctx, nil); err != ErrEmptyFrame {
		t.Errorf("Expected ErrEmptyFrame, got %v", err)
	}

	counts := map[entities.Emotion]int{}
	for i := 0; i < 1500; i++ {
		emotion, err := detector.Detect(ctx, []byte("frame"))
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		if !emotion.Valid() {
			t.Fatalf("Detected invalid emotion %q", emotion)
		}
		counts[emotion]++
	}

	if counts[entities.EmotionNeutral] <= counts[entities.EmotionAngry] {
		t.Errorf("Expected neutral to be more frequent than angry, got %v", counts)
	}
}
