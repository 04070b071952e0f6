// Package trends discovers trending keywords and records them for the
// article generator. The production source is pluggable behind Source; the
// shipped implementation is a static keyword list until a real trends API
// integration lands.
package trends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"realnews/logger"
	"realnews/models"
)

// Candidate is one scored keyword from a trend source.
type Candidate struct {
	Keyword string
	Score   int
}

// Source yields trend candidates for the Uzbek market.
type Source interface {
	Fetch(ctx context.Context) ([]Candidate, error)
}

// StaticSource serves a fixed candidate list.
// TODO: replace with a real Google Trends integration once the regional API
// access is sorted out.
type StaticSource struct{}

func (StaticSource) Fetch(ctx context.Context) ([]Candidate, error) {
	return []Candidate{
		{Keyword: "O'zbekiston futbol jamoasi", Score: 95},
		{Keyword: "Toshkentda yangi metro stansiyasi", Score: 88},
		{Keyword: "Raqamli iqtisodiyot", Score: 82},
		{Keyword: "Qishloq xo'jaligi yangiliklari", Score: 78},
		{Keyword: "Ta'lim tizimida islohotlar", Score: 75},
		{Keyword: "IT sohasida ish o'rinlari", Score: 72},
		{Keyword: "Toshkent shahar reja", Score: 68},
		{Keyword: "Startup ekotizimi", Score: 65},
	}, nil
}

// TrendStore is the persistence surface Ingest needs.
type TrendStore interface {
	FindByKeyword(ctx context.Context, keyword string) (*models.Trend, error)
	Insert(ctx context.Context, t *models.Trend) (*models.Trend, error)
}

// LogStore records audit entries.
type LogStore interface {
	Insert(ctx context.Context, l *models.SystemLog) (*models.SystemLog, error)
}

// Categorizer assigns a category to a keyword.
type Categorizer interface {
	Categorize(ctx context.Context, keyword string) (string, error)
}

// Fetcher ingests candidates from a source into the trend store.
type Fetcher struct {
	source      Source
	trends      TrendStore
	logs        LogStore
	categorizer Categorizer
	log         logger.Logger
}

func NewFetcher(source Source, trends TrendStore, logs LogStore, categorizer Categorizer, log logger.Logger) *Fetcher {
	return &Fetcher{source: source, trends: trends, logs: logs, categorizer: categorizer, log: log}
}

// Ingest pulls candidates and stores the ones not seen before. Ingestion is
// idempotent on keyword, so running it every cycle never duplicates trends.
// Categorization is best effort; a categorizer failure stores the default
// category rather than dropping the trend. Returns the number of newly
// stored trends.
func (f *Fetcher) Ingest(ctx context.Context) (int, error) {
	candidates, err := f.source.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch trend candidates: %w", err)
	}

	created := 0
	for _, c := range candidates {
		if c.Keyword == "" {
			continue
		}

		_, err := f.trends.FindByKeyword(ctx, c.Keyword)
		if err == nil {
			continue
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return created, fmt.Errorf("look up trend %q: %w", c.Keyword, err)
		}

		category, err := f.categorizer.Categorize(ctx, c.Keyword)
		if err != nil {
			f.log.Warnf("categorize trend %q failed, using default: %v", c.Keyword, err)
			category = models.DefaultCategory
		}

		trend := &models.Trend{
			Keyword:  c.Keyword,
			Score:    c.Score,
			Category: category,
			Region:   "UZ",
		}
		if _, err := f.trends.Insert(ctx, trend); err != nil {
			return created, fmt.Errorf("store trend %q: %w", c.Keyword, err)
		}
		created++

		meta, _ := json.Marshal(map[string]any{"keyword": c.Keyword, "score": c.Score})
		_, _ = f.logs.Insert(ctx, &models.SystemLog{
			Action:   "trend_detected",
			Status:   models.LogSuccess,
			Message:  fmt.Sprintf("Yangi trend topildi: %s", c.Keyword),
			Metadata: string(meta),
		})
	}
	return created, nil
}
