package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"realnews/models"
)

type SystemLogRepository struct {
	col *mongo.Collection
}

func NewSystemLogRepository(db *mongo.Database) *SystemLogRepository {
	return &SystemLogRepository{col: db.Collection("system_logs")}
}

// Insert appends one audit record. Records are never mutated afterwards.
func (r *SystemLogRepository) Insert(ctx context.Context, l *models.SystemLog) (*models.SystemLog, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	if _, err := r.col.InsertOne(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Recent returns the most recent 100 log records, newest first.
func (r *SystemLogRepository) Recent(ctx context.Context) ([]models.SystemLog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(100)
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.SystemLog
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
