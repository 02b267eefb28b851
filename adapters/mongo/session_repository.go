package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/satriahrh/mentalhs/server/domain/entities"
	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

// expiredRetention is how long a closed session is kept before deletion
const expiredRetention = 24 * time.Hour

// SessionRepository stores each session as one document. Updates replace the
// whole document since a chat turn touches messages, moods and flags at once.
type SessionRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

var _ repositories.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new MongoDB session repository
func NewSessionRepository(db *mongo.Database, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		collection: db.Collection("sessions"),
		logger:     logger,
	}
}

// EnsureIndexes creates the lookup index used by cleanup
func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	statusExpiresIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "expires_at", Value: 1},
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{statusExpiresIndex}); err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}
	r.logger.Info("Session indexes created successfully")
	return nil
}

// Create implements repositories.SessionRepository
func (r *SessionRepository) Create(ctx context.Context, session *entities.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}
	if err := session.Validate(); err != nil {
		return err
	}

	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	r.logger.Info("Session created", zap.String("session_id", session.ID.Hex()))
	return nil
}

// GetByID implements repositories.SessionRepository
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*entities.Session, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrSessionNotFound
	}

	var session entities.Session
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}

	return &session, nil
}

// Update implements repositories.SessionRepository
func (r *SessionRepository) Update(ctx context.Context, session *entities.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if err := session.Validate(); err != nil {
		return err
	}

	// Only an active document takes the caller's status
	result, err := r.collection.ReplaceOne(ctx, bson.M{
		"_id":    session.ID,
		"status": entities.SessionStatusActive,
	}, session)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	if result.MatchedCount == 0 {
		var stored struct {
			Status entities.SessionStatus `bson:"status"`
		}
		err := r.collection.FindOne(ctx, bson.M{"_id": session.ID}).Decode(&stored)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repositories.ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}

		session.Status = stored.Status
		if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": session.ID}, session); err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
	}

	r.logger.Debug("Session updated", zap.String("session_id", session.ID.Hex()))
	return nil
}

// ExpireSessions implements repositories.SessionRepository
func (r *SessionRepository) ExpireSessions(ctx context.Context) error {
	filter := bson.M{
		"status":     entities.SessionStatusActive,
		"expires_at": bson.M{"$lt": time.Now()},
	}

	update := bson.M{
		"$set": bson.M{
			"status": entities.SessionStatusExpired,
		},
	}

	result, err := r.collection.UpdateMany(ctx, filter, update, options.Update())
	if err != nil {
		return fmt.Errorf("failed to expire sessions: %w", err)
	}

	if result.ModifiedCount > 0 {
		r.logger.Info("Expired sessions", zap.Int64("count", result.ModifiedCount))
	}

	deleted, err := r.collection.DeleteMany(ctx, bson.M{
		"status":     bson.M{"$ne": entities.SessionStatusActive},
		"expires_at": bson.M{"$lt": time.Now().Add(-expiredRetention)},
	})
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	if deleted.DeletedCount > 0 {
		r.logger.Info("Deleted expired sessions", zap.Int64("count", deleted.DeletedCount))
	}

	return nil
}
