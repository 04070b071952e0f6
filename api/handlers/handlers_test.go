package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"realnews/cache"
	"realnews/config"
	"realnews/dedup"
	"realnews/feeder"
	"realnews/generator"
	"realnews/logger"
	"realnews/models"
	"realnews/pipeline"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeArticles struct {
	articles []models.Article
	deleted  []string
}

func (s *fakeArticles) All(context.Context) ([]models.Article, error) { return s.articles, nil }

func (s *fakeArticles) Published(context.Context) ([]models.Article, error) {
	var out []models.Article
	for _, a := range s.articles {
		if a.Status == models.StatusPublished {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeArticles) Drafts(context.Context) ([]models.Article, error) {
	var out []models.Article
	for _, a := range s.articles {
		if a.Status == models.StatusDraft {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeArticles) FindByID(_ context.Context, id string) (*models.Article, error) {
	for i := range s.articles {
		if s.articles[i].ID == id {
			return &s.articles[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (s *fakeArticles) Update(ctx context.Context, id string, set bson.M) (*models.Article, error) {
	a, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if title, ok := set["title"].(string); ok {
		a.Title = title
	}
	if status, ok := set["status"].(string); ok {
		a.Status = status
	}
	return a, nil
}

func (s *fakeArticles) Publish(ctx context.Context, id string) (*models.Article, error) {
	a, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Status = models.StatusPublished
	return a, nil
}

func (s *fakeArticles) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type fakeTrendStore struct{ trends []models.Trend }

func (s *fakeTrendStore) All(context.Context) ([]models.Trend, error) { return s.trends, nil }

type fakeLogStore struct{ entries []*models.SystemLog }

func (s *fakeLogStore) Recent(context.Context) ([]models.SystemLog, error) {
	var out []models.SystemLog
	for _, e := range s.entries {
		out = append(out, *e)
	}
	return out, nil
}

func (s *fakeLogStore) Insert(_ context.Context, l *models.SystemLog) (*models.SystemLog, error) {
	s.entries = append(s.entries, l)
	return l, nil
}

type fakeGen struct {
	trendErr error
	article  *models.Article
}

func (g *fakeGen) FromTrend(_ context.Context, trendID string, _ *dedup.Snapshot) (*models.Article, error) {
	if g.trendErr != nil {
		return nil, g.trendErr
	}
	return g.article, nil
}

func (g *fakeGen) FromLocalFeed(context.Context, *feeder.Feed, *dedup.Snapshot) (*models.Article, error) {
	return g.article, nil
}

func (g *fakeGen) FromForeignFeed(context.Context, *feeder.Feed, *dedup.Snapshot) (*models.Article, error) {
	return g.article, nil
}

type fakeFetcher struct{}

func (fakeFetcher) Fetch(context.Context, string) (*feeder.Feed, error) {
	return &feeder.Feed{}, nil
}

type fakeIngester struct{ created int }

func (f *fakeIngester) Ingest(context.Context) (int, error) { return f.created, nil }

type fakeRunner struct {
	distributed []string
	cycles      int
	sweeps      int
}

func (r *fakeRunner) RSSCycle(context.Context) (*pipeline.CycleResult, error) {
	r.cycles++
	return &pipeline.CycleResult{Created: 2}, nil
}

func (r *fakeRunner) PublishSweep(context.Context) (int, error) {
	r.sweeps++
	return 1, nil
}

func (r *fakeRunner) Distribute(_ context.Context, a models.Article) {
	r.distributed = append(r.distributed, a.ID)
}

func testHandlers(articles *fakeArticles) (*Handlers, *fakeRunner, *fakeLogStore) {
	runner := &fakeRunner{}
	logs := &fakeLogStore{}
	return &Handlers{
		Articles: articles,
		Trends:   &fakeTrendStore{},
		Logs:     logs,
		Gen:      &fakeGen{article: &models.Article{ID: "gen-1", Title: "Yangi"}},
		Fetcher:  fakeFetcher{},
		Ingester: &fakeIngester{created: 3},
		Runner:   runner,
		Cache:    cache.New(),
		Cfg: &config.AppConfig{
			BaseURL:    "https://realnews.uz",
			CronSecret: "s3cret",
		},
		Log: logger.New("error"),
	}, runner, logs
}

func perform(h gin.HandlerFunc, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r := gin.New()
	r.Any("/*path", func(c *gin.Context) {
		// route params are set by the real router; recover :id from the path
		c.Params = gin.Params{{Key: "id", Value: c.Param("path")[1:]}}
		h(c)
	})
	r.ServeHTTP(w, req)
	return w
}

func TestListArticlesCachesFirstPage(t *testing.T) {
	articles := &fakeArticles{articles: []models.Article{
		{ID: "a1", Title: "Birinchi", Status: models.StatusPublished},
		{ID: "a2", Title: "Qoralama", Status: models.StatusDraft},
	}}
	h, _, _ := testHandlers(articles)

	w := perform(h.ListArticles, http.MethodGet, "/articles", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page articlePage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total, "drafts never appear in the public list")

	_, ok := h.Cache.Get(cache.KeyPublishedArticles)
	assert.True(t, ok, "unfiltered first page is cached")

	// mutate the store; the cached page keeps serving
	articles.articles = nil
	w = perform(h.ListArticles, http.MethodGet, "/articles", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
}

func TestListArticlesFilteredBypassesCache(t *testing.T) {
	h, _, _ := testHandlers(&fakeArticles{articles: []models.Article{
		{ID: "a1", Title: "Futbol", Category: "Sport", Status: models.StatusPublished},
		{ID: "a2", Title: "Metro", Category: "Ijtimoiy", Status: models.StatusPublished},
	}})

	w := perform(h.ListArticles, http.MethodGet, "/articles?category=Sport", nil)
	var page articlePage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "Futbol", page.Articles[0].Title)

	_, ok := h.Cache.Get(cache.KeyPublishedArticles)
	assert.False(t, ok)
}

func TestListDraftsCachedAndInvalidatedOnPublish(t *testing.T) {
	articles := &fakeArticles{articles: []models.Article{
		{ID: "d1", Title: "Qoralama", Status: models.StatusDraft},
	}}
	h, _, _ := testHandlers(articles)

	w := perform(h.ListDrafts, http.MethodGet, "/articles/drafts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, ok := h.Cache.Get(cache.KeyDraftArticles)
	assert.True(t, ok, "draft list is cached")

	// cached copy keeps serving while the store changes underneath
	articles.articles = append(articles.articles, models.Article{ID: "d2", Status: models.StatusDraft})
	w = perform(h.ListDrafts, http.MethodGet, "/articles/drafts", nil)
	var drafts []models.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &drafts))
	assert.Len(t, drafts, 1)

	w = perform(h.PublishArticle, http.MethodPatch, "/d1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, ok = h.Cache.Get(cache.KeyDraftArticles)
	assert.False(t, ok, "publishing drops the draft list cache")

	w = perform(h.ListDrafts, http.MethodGet, "/articles/drafts", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &drafts))
	assert.Len(t, drafts, 1)
	assert.Equal(t, "d2", drafts[0].ID)
}

func TestGetArticleHidesDrafts(t *testing.T) {
	h, _, _ := testHandlers(&fakeArticles{articles: []models.Article{
		{ID: "d1", Status: models.StatusDraft},
		{ID: "p1", Status: models.StatusPublished},
	}})

	w := perform(h.GetArticle, http.MethodGet, "/d1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(h.GetArticle, http.MethodGet, "/p1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPublishArticleDistributesAndInvalidates(t *testing.T) {
	articles := &fakeArticles{articles: []models.Article{{ID: "d1", Title: "Qoralama", Status: models.StatusDraft}}}
	h, runner, logs := testHandlers(articles)
	h.Cache.Set(cache.KeyPublishedArticles, "stale", cache.TTLArticles)

	w := perform(h.PublishArticle, http.MethodPatch, "/d1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{"d1"}, runner.distributed)
	_, ok := h.Cache.Get(cache.KeyPublishedArticles)
	assert.False(t, ok)

	require.Len(t, logs.entries, 1)
	assert.Equal(t, "article_published", logs.entries[0].Action)
}

func TestGenerateFromTrendConflictWhenProcessed(t *testing.T) {
	h, _, _ := testHandlers(&fakeArticles{})
	h.Gen = &fakeGen{trendErr: fmt.Errorf("trend %q: %w", "futbol", generator.ErrTrendProcessed)}

	w := perform(h.GenerateFromTrend, http.MethodPost, "/generate", gin.H{"trendId": "t1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCronGenerateRequiresSecret(t *testing.T) {
	h, _, _ := testHandlers(&fakeArticles{})

	w := perform(h.CronGenerate, http.MethodPost, "/cron", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCronGenerateAcceptedWithSecret(t *testing.T) {
	h, _, _ := testHandlers(&fakeArticles{})

	req := httptest.NewRequest(http.MethodPost, "/cron", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()

	r := gin.New()
	r.POST("/cron", h.CronGenerate)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestFetchTrendsInvalidatesCache(t *testing.T) {
	h, _, logs := testHandlers(&fakeArticles{})
	h.Cache.Set(cache.KeyTrends, "stale", cache.TTLTrends)

	w := perform(h.FetchTrends, http.MethodPost, "/trends/fetch", nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, ok := h.Cache.Get(cache.KeyTrends)
	assert.False(t, ok)
	require.Len(t, logs.entries, 1)
	assert.Equal(t, "trend_fetch_manual", logs.entries[0].Action)
}

func TestSitemapAndRobots(t *testing.T) {
	h, _, _ := testHandlers(&fakeArticles{articles: []models.Article{
		{ID: "p1", Title: "Yangi metro stansiyasi", Status: models.StatusPublished},
	}})

	w := perform(h.Sitemap, http.MethodGet, "/sitemap.xml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://realnews.uz/article/p1/yangi-metro-stansiyasi")

	w = perform(h.Robots, http.MethodGet, "/robots.txt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sitemap: https://realnews.uz/sitemap.xml")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "yangi-metro-stansiyasi", slugify("Yangi Metro Stansiyasi!"))
	assert.Equal(t, "o-zbekiston", slugify("O'zbekiston"))
	assert.Equal(t, "", slugify("!!!"))
}
