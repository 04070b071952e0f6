package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"realnews/config"
	"realnews/logger"
)

// Connect opens a Mongo client, verifies the connection and ensures the
// indexes the pipeline queries rely on. The caller owns the returned client
// and should Disconnect it on shutdown.
func Connect(ctx context.Context, cfg *config.AppConfig) (*mongo.Client, *mongo.Database, error) {
	cl, err := mongo.NewClient(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := cl.Connect(ctx); err != nil {
		return nil, nil, err
	}
	if err := cl.Ping(ctx, readpref.Primary()); err != nil {
		return nil, nil, err
	}

	database := cl.Database(cfg.MongoDBName)
	if err := ensureIndexes(ctx, database); err != nil {
		return nil, nil, err
	}

	logger.Log.Info("MongoDB connected and indexes ensured")
	return cl, database, nil
}

// Pinger adapts the client's ping into the health-check signature.
func Pinger(cl *mongo.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return cl.Ping(ctx, readpref.Primary())
	}
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	// articles: list queries are status-filtered and time-ordered
	{
		if _, err := d.Collection("articles").Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_status_created_at"),
		}); err != nil {
			return err
		}
		if _, err := d.Collection("articles").Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "published_at", Value: -1}},
			Options: options.Index().SetName("idx_published_at_desc"),
		}); err != nil {
			return err
		}
	}

	// trends: keyword is the idempotency key for ingestion
	{
		if _, err := d.Collection("trends").Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "keyword", Value: 1}},
			Options: options.Index().SetName("uniq_keyword").SetUnique(true),
		}); err != nil {
			return err
		}
	}

	// system_logs: read newest-first
	{
		if _, err := d.Collection("system_logs").Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_created_at_desc"),
		}); err != nil {
			return err
		}
	}

	return nil
}
