package repositories

import (
	"context"

	"github.com/satriahrh/mentalhs/server/domain/entities"
)

// FaceEmotionDetector estimates an emotion from a single camera frame
type FaceEmotionDetector interface {
	Detect(ctx context.Context, frame []byte) (entities.Emotion, error)
}
