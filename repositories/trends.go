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

type TrendRepository struct {
	col *mongo.Collection
}

func NewTrendRepository(db *mongo.Database) *TrendRepository {
	return &TrendRepository{col: db.Collection("trends")}
}

// Insert stores a new trend, assigning id and detection time when unset.
// The unique keyword index rejects duplicates.
func (r *TrendRepository) Insert(ctx context.Context, t *models.Trend) (*models.Trend, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.DetectedAt.IsZero() {
		t.DetectedAt = time.Now()
	}
	if t.Region == "" {
		t.Region = "UZ"
	}
	if _, err := r.col.InsertOne(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// FindByID returns a trend by id.
func (r *TrendRepository) FindByID(ctx context.Context, id string) (*models.Trend, error) {
	var t models.Trend
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByKeyword returns a trend by its unique keyword, or
// mongo.ErrNoDocuments when the keyword is unknown.
func (r *TrendRepository) FindByKeyword(ctx context.Context, keyword string) (*models.Trend, error) {
	var t models.Trend
	if err := r.col.FindOne(ctx, bson.M{"keyword": keyword}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// All returns every trend, newest detection first.
func (r *TrendRepository) All(ctx context.Context) ([]models.Trend, error) {
	opts := options.Find().SetSort(bson.D{{Key: "detected_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Trend
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkProcessed flips is_processed and stamps processed_at.
func (r *TrendRepository) MarkProcessed(ctx context.Context, id string) error {
	now := time.Now()
	_, err := r.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"is_processed": true, "processed_at": now},
	})
	return err
}
