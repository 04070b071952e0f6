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

type ArticleRepository struct {
	col *mongo.Collection
}

func NewArticleRepository(db *mongo.Database) *ArticleRepository {
	return &ArticleRepository{col: db.Collection("articles")}
}

// Insert stores a new article, assigning id and timestamps when unset.
func (r *ArticleRepository) Insert(ctx context.Context, a *models.Article) (*models.Article, error) {
	now := time.Now()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = models.StatusDraft
	}
	if _, err := r.col.InsertOne(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// FindByID returns an article by id.
func (r *ArticleRepository) FindByID(ctx context.Context, id string) (*models.Article, error) {
	var a models.Article
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// All returns every article, newest first.
func (r *ArticleRepository) All(ctx context.Context) ([]models.Article, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{}, opts)
}

// Published returns published articles ordered by publish time descending.
func (r *ArticleRepository) Published(ctx context.Context) ([]models.Article, error) {
	opts := options.Find().SetSort(bson.D{{Key: "published_at", Value: -1}})
	return r.find(ctx, bson.M{"status": models.StatusPublished}, opts)
}

// Drafts returns draft articles ordered by creation time descending.
func (r *ArticleRepository) Drafts(ctx context.Context) ([]models.Article, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"status": models.StatusDraft}, opts)
}

func (r *ArticleRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Article, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Article
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the given field changes and stamps updated_at. Returns the
// updated document, or mongo.ErrNoDocuments when the id is unknown.
func (r *ArticleRepository) Update(ctx context.Context, id string, set bson.M) (*models.Article, error) {
	set["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var a models.Article
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Publish atomically flips an article to published and stamps publishedAt.
func (r *ArticleRepository) Publish(ctx context.Context, id string) (*models.Article, error) {
	now := time.Now()
	return r.Update(ctx, id, bson.M{
		"status":       models.StatusPublished,
		"published_at": now,
	})
}

// Delete removes an article by id.
func (r *ArticleRepository) Delete(ctx context.Context, id string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
