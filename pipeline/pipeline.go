// Package pipeline runs the batch cycles: trend generation, RSS generation
// across all configured feeds, and the publish sweep that moves drafts out
// to readers and channels.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"realnews/cache"
	"realnews/config"
	"realnews/dedup"
	"realnews/feeder"
	"realnews/generator"
	"realnews/logger"
	"realnews/models"
)

const trendBatchSize = 3
const publishBatchSize = 3

// ArticleStore is the persistence surface the runner needs.
type ArticleStore interface {
	All(ctx context.Context) ([]models.Article, error)
	Drafts(ctx context.Context) ([]models.Article, error)
	Publish(ctx context.Context, id string) (*models.Article, error)
}

// TrendStore lists trends for the trend cycle.
type TrendStore interface {
	All(ctx context.Context) ([]models.Trend, error)
}

// LogStore records audit entries.
type LogStore interface {
	Insert(ctx context.Context, l *models.SystemLog) (*models.SystemLog, error)
}

// FeedFetcher downloads one feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) (*feeder.Feed, error)
}

// ArticleGenerator is the per-source generation surface.
type ArticleGenerator interface {
	FromTrend(ctx context.Context, trendID string, snap *dedup.Snapshot) (*models.Article, error)
	FromLocalFeed(ctx context.Context, feed *feeder.Feed, snap *dedup.Snapshot) (*models.Article, error)
	FromForeignFeed(ctx context.Context, feed *feeder.Feed, snap *dedup.Snapshot) (*models.Article, error)
}

// Distributor pushes a published article to one external channel.
type Distributor interface {
	SendArticle(ctx context.Context, article models.Article) (bool, error)
}

// Invalidator drops cache keys after writes.
type Invalidator interface {
	Delete(key string)
	DeletePrefix(prefix string)
}

// CycleResult summarizes one RSS cycle.
type CycleResult struct {
	Created int
	Failed  int
}

// Runner wires the batch cycles together.
type Runner struct {
	articles     ArticleStore
	trends       TrendStore
	logs         LogStore
	fetcher      FeedFetcher
	gen          ArticleGenerator
	distributors []Distributor
	cache        Invalidator
	localFeeds   []config.FeedSource
	foreignFeeds []config.FeedSource
	log          logger.Logger
}

func NewRunner(
	articles ArticleStore,
	trends TrendStore,
	logs LogStore,
	fetcher FeedFetcher,
	gen ArticleGenerator,
	distributors []Distributor,
	invalidator Invalidator,
	localFeeds, foreignFeeds []config.FeedSource,
	log logger.Logger,
) *Runner {
	return &Runner{
		articles:     articles,
		trends:       trends,
		logs:         logs,
		fetcher:      fetcher,
		gen:          gen,
		distributors: distributors,
		cache:        invalidator,
		localFeeds:   localFeeds,
		foreignFeeds: foreignFeeds,
		log:          log,
	}
}

// TrendCycle generates articles for the first unprocessed trends, at most
// three per run, sequentially. Individual trend failures do not stop the
// batch; the summary log reflects them with partial_success.
func (r *Runner) TrendCycle(ctx context.Context) (int, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return 0, err
	}

	all, err := r.trends.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("list trends: %w", err)
	}

	var batch []models.Trend
	for _, t := range all {
		if !t.IsProcessed {
			batch = append(batch, t)
		}
		if len(batch) == trendBatchSize {
			break
		}
	}

	created, failed := 0, 0
	for _, t := range batch {
		if _, err := r.gen.FromTrend(ctx, t.ID, snap); err != nil {
			failed++
			r.log.Errorf("trend cycle: generate for %q: %v", t.Keyword, err)
			continue
		}
		created++
	}

	r.logSummary(ctx, "auto_generation",
		fmt.Sprintf("Avtomatik ravishda %d ta maqola yaratildi", created),
		created, failed)
	return created, nil
}

// RSSCycle walks every configured feed, local first, generating at most one
// draft per feed. A single dedup snapshot covers the whole cycle so two
// feeds cannot create the same story or reuse a photo within the run.
// Per-feed failures are collected, never fatal.
func (r *Runner) RSSCycle(ctx context.Context) (*CycleResult, error) {
	snap, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	res := &CycleResult{}
	r.walkFeeds(ctx, r.localFeeds, snap, res, r.gen.FromLocalFeed)
	r.walkFeeds(ctx, r.foreignFeeds, snap, res, r.gen.FromForeignFeed)

	r.logSummary(ctx, "auto_generation",
		fmt.Sprintf("RSS'dan %d ta maqola yaratildi", res.Created),
		res.Created, res.Failed)
	return res, nil
}

type generateFn func(ctx context.Context, feed *feeder.Feed, snap *dedup.Snapshot) (*models.Article, error)

func (r *Runner) walkFeeds(ctx context.Context, feeds []config.FeedSource, snap *dedup.Snapshot, res *CycleResult, generate generateFn) {
	for _, src := range feeds {
		feed, err := r.fetcher.Fetch(ctx, src.URL)
		if err != nil {
			res.Failed++
			r.log.Errorf("rss cycle: fetch %s: %v", src.Name, err)
			continue
		}

		article, err := generate(ctx, feed, snap)
		if err != nil {
			if errors.Is(err, generator.ErrDuplicateSource) {
				r.log.Infof("rss cycle: %s already covered, skipping", src.Name)
				continue
			}
			res.Failed++
			r.log.Errorf("rss cycle: generate from %s: %v", src.Name, err)
			continue
		}
		if article == nil {
			continue
		}
		res.Created++
	}
}

// PublishSweep publishes up to three of the newest drafts, distributes each
// to the configured channels best effort, and invalidates the published
// list cache when anything changed.
func (r *Runner) PublishSweep(ctx context.Context) (int, error) {
	drafts, err := r.articles.Drafts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list drafts: %w", err)
	}
	if len(drafts) > publishBatchSize {
		drafts = drafts[:publishBatchSize]
	}

	published := 0
	for _, draft := range drafts {
		article, err := r.articles.Publish(ctx, draft.ID)
		if err != nil {
			r.log.Errorf("publish sweep: publish %s: %v", draft.ID, err)
			continue
		}
		published++
		r.distribute(ctx, *article)
	}

	if published > 0 {
		r.cache.Delete(cache.KeyPublishedArticles)
		r.cache.Delete(cache.KeyDraftArticles)
		r.cache.DeletePrefix(cache.KeyArticlePrefix)
		logger.InfoWithFields("publish sweep completed", logger.Fields{"published": published})
	}
	return published, nil
}

// Distribute pushes one article to every configured channel. Failures are
// logged and swallowed; distribution never unwinds a publish.
func (r *Runner) Distribute(ctx context.Context, article models.Article) {
	r.distribute(ctx, article)
}

func (r *Runner) distribute(ctx context.Context, article models.Article) {
	for _, d := range r.distributors {
		sent, err := d.SendArticle(ctx, article)
		if err != nil {
			r.log.Warnf("distribute %s: %v", article.ID, err)
			continue
		}
		if sent {
			r.log.Infof("distributed article %s", article.ID)
		}
	}
}

func (r *Runner) snapshot(ctx context.Context) (*dedup.Snapshot, error) {
	existing, err := r.articles.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load articles for dedup: %w", err)
	}
	return dedup.NewSnapshot(existing), nil
}

func (r *Runner) logSummary(ctx context.Context, action, message string, created, failed int) {
	status := models.LogSuccess
	fields := logger.Fields{"action": action, "articlesCreated": created, "failed": failed}
	if failed > 0 {
		status = models.LogPartialSuccess
		logger.WarnWithFields(message, fields)
	} else {
		logger.InfoWithFields(message, fields)
	}
	meta, _ := json.Marshal(map[string]int{"articlesCreated": created, "failed": failed})
	if _, err := r.logs.Insert(ctx, &models.SystemLog{
		Action:   action,
		Status:   status,
		Message:  message,
		Metadata: string(meta),
	}); err != nil {
		r.log.Errorf("write cycle summary log: %v", err)
	}
}
