package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realnews/cache"
	"realnews/config"
	"realnews/dedup"
	"realnews/feeder"
	"realnews/generator"
	"realnews/logger"
	"realnews/models"
)

type fakeArticles struct {
	all       []models.Article
	drafts    []models.Article
	published []string
}

func (s *fakeArticles) All(context.Context) ([]models.Article, error) { return s.all, nil }

func (s *fakeArticles) Drafts(context.Context) ([]models.Article, error) { return s.drafts, nil }

func (s *fakeArticles) Publish(_ context.Context, id string) (*models.Article, error) {
	s.published = append(s.published, id)
	now := time.Now()
	return &models.Article{ID: id, Status: models.StatusPublished, PublishedAt: &now}, nil
}

type fakeTrends struct{ trends []models.Trend }

func (s *fakeTrends) All(context.Context) ([]models.Trend, error) { return s.trends, nil }

type fakeLogs struct{ entries []*models.SystemLog }

func (s *fakeLogs) Insert(_ context.Context, l *models.SystemLog) (*models.SystemLog, error) {
	s.entries = append(s.entries, l)
	return l, nil
}

type fakeFetcher struct {
	feeds  map[string]*feeder.Feed
	failed map[string]bool
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*feeder.Feed, error) {
	if f.failed[url] {
		return nil, errors.New("connection refused")
	}
	return f.feeds[url], nil
}

type fakeGenerator struct {
	trendCalls   []string
	trendErr     map[string]error
	feedArticles map[string]*models.Article // keyed by first entry link
	feedErr      map[string]error
	localCalls   int
	foreignCalls int
}

func (g *fakeGenerator) FromTrend(_ context.Context, trendID string, _ *dedup.Snapshot) (*models.Article, error) {
	g.trendCalls = append(g.trendCalls, trendID)
	if err := g.trendErr[trendID]; err != nil {
		return nil, err
	}
	return &models.Article{ID: "a-" + trendID}, nil
}

func (g *fakeGenerator) fromFeed(feed *feeder.Feed, snap *dedup.Snapshot) (*models.Article, error) {
	if feed == nil || len(feed.Articles) == 0 {
		return nil, nil
	}
	link := feed.Articles[0].Link
	if err := g.feedErr[link]; err != nil {
		return nil, err
	}
	if snap.HasSourceURL(link) {
		return nil, fmt.Errorf("%s: %w", link, generator.ErrDuplicateSource)
	}
	a := g.feedArticles[link]
	if a != nil {
		snap.AddSourceURL(link)
	}
	return a, nil
}

func (g *fakeGenerator) FromLocalFeed(_ context.Context, feed *feeder.Feed, snap *dedup.Snapshot) (*models.Article, error) {
	g.localCalls++
	return g.fromFeed(feed, snap)
}

func (g *fakeGenerator) FromForeignFeed(_ context.Context, feed *feeder.Feed, snap *dedup.Snapshot) (*models.Article, error) {
	g.foreignCalls++
	return g.fromFeed(feed, snap)
}

type fakeDistributor struct {
	sent []string
	err  error
}

func (d *fakeDistributor) SendArticle(_ context.Context, a models.Article) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	d.sent = append(d.sent, a.ID)
	return true, nil
}

func feedFor(link string) *feeder.Feed {
	return &feeder.Feed{Articles: []feeder.RSSArticle{{Title: "t", Link: link, Content: "c"}}}
}

func sources(urls ...string) []config.FeedSource {
	var out []config.FeedSource
	for _, u := range urls {
		out = append(out, config.FeedSource{Name: u, URL: u, Group: config.FeedGroupLocal})
	}
	return out
}

func newRunner(articles *fakeArticles, trends *fakeTrends, logs *fakeLogs, fetcher *fakeFetcher, gen *fakeGenerator, dist []Distributor, c *cache.Cache, local, foreign []config.FeedSource) *Runner {
	return NewRunner(articles, trends, logs, fetcher, gen, dist, c, local, foreign, logger.New("error"))
}

func TestTrendCycleTakesFirstThreeUnprocessed(t *testing.T) {
	trends := &fakeTrends{trends: []models.Trend{
		{ID: "t1", IsProcessed: true},
		{ID: "t2"}, {ID: "t3"}, {ID: "t4"}, {ID: "t5"},
	}}
	logs := &fakeLogs{}
	gen := &fakeGenerator{}

	r := newRunner(&fakeArticles{}, trends, logs, &fakeFetcher{}, gen, nil, cache.New(), nil, nil)
	created, err := r.TrendCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, created)
	assert.Equal(t, []string{"t2", "t3", "t4"}, gen.trendCalls, "stored order, processed skipped, capped at three")

	require.Len(t, logs.entries, 1)
	assert.Equal(t, models.LogSuccess, logs.entries[0].Status)
}

func TestTrendCyclePartialFailure(t *testing.T) {
	trends := &fakeTrends{trends: []models.Trend{{ID: "t1"}, {ID: "t2"}}}
	logs := &fakeLogs{}
	gen := &fakeGenerator{trendErr: map[string]error{"t1": errors.New("gemini down")}}

	r := newRunner(&fakeArticles{}, trends, logs, &fakeFetcher{}, gen, nil, cache.New(), nil, nil)
	created, err := r.TrendCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, created)
	require.Len(t, logs.entries, 1)
	assert.Equal(t, models.LogPartialSuccess, logs.entries[0].Status)
}

func TestRSSCycleSummaryAndDedup(t *testing.T) {
	local := sources("https://kun.uz/rss", "https://daryo.uz/rss", "https://dup.uz/rss")
	foreign := sources("https://bbc.com/rss")

	fetcher := &fakeFetcher{
		feeds: map[string]*feeder.Feed{
			"https://kun.uz/rss":   feedFor("https://kun.uz/a"),
			"https://daryo.uz/rss": feedFor("https://daryo.uz/a"),
			"https://dup.uz/rss":   feedFor("https://kun.uz/a"), // same story as kun.uz
		},
		failed: map[string]bool{"https://bbc.com/rss": true},
	}
	gen := &fakeGenerator{feedArticles: map[string]*models.Article{
		"https://kun.uz/a":   {ID: "a1"},
		"https://daryo.uz/a": {ID: "a2"},
	}}
	logs := &fakeLogs{}

	r := newRunner(&fakeArticles{}, &fakeTrends{}, logs, fetcher, gen, nil, cache.New(), local, foreign)
	res, err := r.RSSCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Created, "duplicate story counted once")
	assert.Equal(t, 1, res.Failed, "fetch failure collected, not fatal")
	assert.Equal(t, 3, gen.localCalls)
	assert.Equal(t, 0, gen.foreignCalls, "failed fetch never reaches the generator")

	require.Len(t, logs.entries, 1)
	entry := logs.entries[0]
	assert.Equal(t, "auto_generation", entry.Action)
	assert.Equal(t, models.LogPartialSuccess, entry.Status)

	var meta map[string]int
	require.NoError(t, json.Unmarshal([]byte(entry.Metadata), &meta))
	assert.Equal(t, 2, meta["articlesCreated"])
	assert.Equal(t, 1, meta["failed"])
}

func TestRSSCycleAllCleanIsSuccess(t *testing.T) {
	local := sources("https://kun.uz/rss")
	fetcher := &fakeFetcher{feeds: map[string]*feeder.Feed{
		"https://kun.uz/rss": feedFor("https://kun.uz/a"),
	}}
	gen := &fakeGenerator{feedArticles: map[string]*models.Article{"https://kun.uz/a": {ID: "a1"}}}
	logs := &fakeLogs{}

	r := newRunner(&fakeArticles{}, &fakeTrends{}, logs, fetcher, gen, nil, cache.New(), local, nil)
	res, err := r.RSSCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, models.LogSuccess, logs.entries[0].Status)
}

func TestRSSCycleSeedsSnapshotFromStore(t *testing.T) {
	articles := &fakeArticles{all: []models.Article{{SourceURL: "https://kun.uz/a"}}}
	fetcher := &fakeFetcher{feeds: map[string]*feeder.Feed{
		"https://kun.uz/rss": feedFor("https://kun.uz/a"),
	}}
	gen := &fakeGenerator{feedArticles: map[string]*models.Article{"https://kun.uz/a": {ID: "a1"}}}

	r := newRunner(articles, &fakeTrends{}, &fakeLogs{}, fetcher, gen, nil, cache.New(), sources("https://kun.uz/rss"), nil)
	res, err := r.RSSCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created, "story already persisted in a previous cycle")
}

func TestPublishSweep(t *testing.T) {
	articles := &fakeArticles{drafts: []models.Article{
		{ID: "d1"}, {ID: "d2"}, {ID: "d3"}, {ID: "d4"},
	}}
	dist := &fakeDistributor{}
	c := cache.New()
	c.Set(cache.KeyPublishedArticles, []models.Article{}, cache.TTLArticles)
	c.Set(cache.KeyDraftArticles, []models.Article{}, cache.TTLArticles)
	c.Set(cache.KeyArticle("d1"), &models.Article{ID: "d1"}, cache.TTLArticles)

	r := newRunner(articles, &fakeTrends{}, &fakeLogs{}, &fakeFetcher{}, &fakeGenerator{}, []Distributor{dist}, c, nil, nil)
	published, err := r.PublishSweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, published, "sweep caps at three drafts")
	assert.Equal(t, []string{"d1", "d2", "d3"}, articles.published)
	assert.Equal(t, []string{"d1", "d2", "d3"}, dist.sent)

	_, ok := c.Get(cache.KeyPublishedArticles)
	assert.False(t, ok, "published list cache invalidated")
	_, ok = c.Get(cache.KeyDraftArticles)
	assert.False(t, ok, "draft list cache invalidated")
	_, ok = c.Get(cache.KeyArticle("d1"))
	assert.False(t, ok, "per-article cache entries invalidated")
}

func TestPublishSweepDistributionFailureNonFatal(t *testing.T) {
	articles := &fakeArticles{drafts: []models.Article{{ID: "d1"}}}
	dist := &fakeDistributor{err: errors.New("telegram down")}

	r := newRunner(articles, &fakeTrends{}, &fakeLogs{}, &fakeFetcher{}, &fakeGenerator{}, []Distributor{dist}, cache.New(), nil, nil)
	published, err := r.PublishSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, published, "publish sticks even when distribution fails")
}
