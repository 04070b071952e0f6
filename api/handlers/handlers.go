// Package handlers implements the HTTP endpoints. Collaborators come in
// through narrow interfaces so handler tests run against fakes.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"realnews/cache"
	"realnews/config"
	"realnews/dedup"
	"realnews/feeder"
	"realnews/logger"
	"realnews/models"
	"realnews/pipeline"
)

// ArticleStore is the article persistence surface the handlers use.
type ArticleStore interface {
	All(ctx context.Context) ([]models.Article, error)
	Published(ctx context.Context) ([]models.Article, error)
	Drafts(ctx context.Context) ([]models.Article, error)
	FindByID(ctx context.Context, id string) (*models.Article, error)
	Update(ctx context.Context, id string, set bson.M) (*models.Article, error)
	Publish(ctx context.Context, id string) (*models.Article, error)
	Delete(ctx context.Context, id string) error
}

// TrendStore lists trends.
type TrendStore interface {
	All(ctx context.Context) ([]models.Trend, error)
}

// LogStore reads and writes audit entries.
type LogStore interface {
	Recent(ctx context.Context) ([]models.SystemLog, error)
	Insert(ctx context.Context, l *models.SystemLog) (*models.SystemLog, error)
}

// Generator builds articles on demand.
type Generator interface {
	FromTrend(ctx context.Context, trendID string, snap *dedup.Snapshot) (*models.Article, error)
	FromLocalFeed(ctx context.Context, feed *feeder.Feed, snap *dedup.Snapshot) (*models.Article, error)
	FromForeignFeed(ctx context.Context, feed *feeder.Feed, snap *dedup.Snapshot) (*models.Article, error)
}

// FeedFetcher downloads feeds for the on-demand generation endpoints.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) (*feeder.Feed, error)
}

// TrendIngester pulls trend candidates into the store.
type TrendIngester interface {
	Ingest(ctx context.Context) (int, error)
}

// Runner is the batch surface behind the cron endpoint.
type Runner interface {
	RSSCycle(ctx context.Context) (*pipeline.CycleResult, error)
	PublishSweep(ctx context.Context) (int, error)
	Distribute(ctx context.Context, article models.Article)
}

// Pinger reports backend liveness for the health endpoint.
type Pinger func(ctx context.Context) error

// Handlers bundles the endpoint implementations and their collaborators.
type Handlers struct {
	Articles ArticleStore
	Trends   TrendStore
	Logs     LogStore
	Gen      Generator
	Fetcher  FeedFetcher
	Ingester TrendIngester
	Runner   Runner
	Cache    *cache.Cache
	Cfg      *config.AppConfig
	Ping     Pinger
	Log      logger.Logger
}

// Health reports service and backend status plus cache statistics.
func (h *Handlers) Health(c *gin.Context) {
	if h.Ping != nil {
		if err := h.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"mongo":  "down",
				"error":  err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"cache":  h.Cache.Stats(),
	})
}

func (h *Handlers) serverError(c *gin.Context, msg string, err error) {
	h.Log.Errorf("%s: %v", msg, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func (h *Handlers) audit(ctx context.Context, action, status, message, metadata string) {
	if _, err := h.Logs.Insert(ctx, &models.SystemLog{
		Action:   action,
		Status:   status,
		Message:  message,
		Metadata: metadata,
	}); err != nil {
		h.Log.Errorf("write audit log: %v", err)
	}
}

// invalidateArticle drops every cache entry an article write can stale:
// both list keys and the per-article entry.
func (h *Handlers) invalidateArticle(id string) {
	h.Cache.Delete(cache.KeyPublishedArticles)
	h.Cache.Delete(cache.KeyDraftArticles)
	h.Cache.Delete(cache.KeyArticle(id))
}

func (h *Handlers) snapshot(ctx context.Context) (*dedup.Snapshot, error) {
	existing, err := h.Articles.All(ctx)
	if err != nil {
		return nil, err
	}
	return dedup.NewSnapshot(existing), nil
}
