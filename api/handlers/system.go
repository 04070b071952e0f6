package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"realnews/cache"
	"realnews/config"
	"realnews/generator"
	"realnews/logger"
	"realnews/models"
)

// ListLogs serves the most recent audit entries.
func (h *Handlers) ListLogs(c *gin.Context) {
	logs, err := h.Logs.Recent(c.Request.Context())
	if err != nil {
		h.serverError(c, "failed to fetch logs", err)
		return
	}
	if logs == nil {
		logs = []models.SystemLog{}
	}
	c.JSON(http.StatusOK, logs)
}

type feedInfo struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Language string `json:"language"`
}

// FeedsCatalog lists the configured RSS sources.
func (h *Handlers) FeedsCatalog(c *gin.Context) {
	if cached, ok := h.Cache.Get(cache.KeyRSSFeeds); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	catalog := gin.H{
		"local":   feedInfos(h.Cfg.LocalFeeds()),
		"foreign": feedInfos(h.Cfg.ForeignFeeds()),
	}
	h.Cache.Set(cache.KeyRSSFeeds, catalog, cache.TTLRSSFeeds)
	c.JSON(http.StatusOK, catalog)
}

func feedInfos(feeds []config.FeedSource) []feedInfo {
	out := make([]feedInfo, 0, len(feeds))
	for _, f := range feeds {
		out = append(out, feedInfo{Name: f.Name, URL: f.URL, Language: f.Language})
	}
	return out
}

type generateRSSRequest struct {
	FeedURL string `json:"feedUrl"`
}

// GenerateLocalRSS generates one draft from a local feed, the first
// configured one unless the request names another.
func (h *Handlers) GenerateLocalRSS(c *gin.Context) {
	h.generateRSS(c, h.Cfg.LocalFeeds(), models.SourceLocalRSS)
}

// GenerateForeignRSS generates one translated draft from a foreign feed.
func (h *Handlers) GenerateForeignRSS(c *gin.Context) {
	h.generateRSS(c, h.Cfg.ForeignFeeds(), models.SourceForeignRSS)
}

func (h *Handlers) generateRSS(c *gin.Context, feeds []config.FeedSource, sourceType string) {
	var req generateRSSRequest
	_ = c.ShouldBindJSON(&req)

	feedURL := req.FeedURL
	if feedURL == "" {
		if len(feeds) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no feeds configured"})
			return
		}
		feedURL = feeds[0].URL
	}

	action := "article_generated_local_rss"
	if sourceType == models.SourceForeignRSS {
		action = "article_generated_foreign_rss"
	}

	ctx := c.Request.Context()
	snap, err := h.snapshot(ctx)
	if err != nil {
		h.serverError(c, "failed to generate article", err)
		return
	}

	feed, err := h.Fetcher.Fetch(ctx, feedURL)
	if err != nil {
		h.audit(ctx, action, models.LogError,
			fmt.Sprintf("RSS'dan maqola yaratishda xatolik: %v", err), "")
		h.serverError(c, "failed to fetch RSS feed", err)
		return
	}

	var article *models.Article
	if sourceType == models.SourceForeignRSS {
		article, err = h.Gen.FromForeignFeed(ctx, feed, snap)
	} else {
		article, err = h.Gen.FromLocalFeed(ctx, feed, snap)
	}
	if err != nil {
		if errors.Is(err, generator.ErrDuplicateSource) {
			c.JSON(http.StatusConflict, gin.H{"error": "story already covered"})
			return
		}
		h.serverError(c, "failed to generate article", err)
		return
	}
	if article == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to generate article from RSS feed"})
		return
	}

	h.audit(ctx, action, models.LogSuccess,
		fmt.Sprintf("RSS'dan maqola yaratildi: %s", article.Title),
		fmt.Sprintf(`{"feedUrl":%q,"articleId":%q}`, feedURL, article.ID))
	h.Cache.Delete(cache.KeyDraftArticles)

	c.JSON(http.StatusOK, article)
}

// GenerateAll runs a full RSS cycle synchronously and reports totals.
func (h *Handlers) GenerateAll(c *gin.Context) {
	res, err := h.Runner.RSSCycle(c.Request.Context())
	if err != nil {
		h.serverError(c, "failed to generate articles", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"articlesCreated": res.Created,
		"feedsFailed":     res.Failed,
	})
}

// CronGenerate is the hook for external cron services. It authenticates
// with an optional bearer secret, answers immediately and runs the cycle in
// the background so 30-second webhook timeouts never abort generation.
func (h *Handlers) CronGenerate(c *gin.Context) {
	if secret := h.Cfg.CronSecret; secret != "" {
		if c.GetHeader("Authorization") != "Bearer "+secret {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":   true,
		"message":   "generation started in background",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})

	go func() {
		ctx := context.Background()
		res, err := h.Runner.RSSCycle(ctx)
		if err != nil {
			h.Log.Errorf("cron rss cycle: %v", err)
			return
		}
		published, err := h.Runner.PublishSweep(ctx)
		if err != nil {
			h.Log.Errorf("cron publish sweep: %v", err)
			return
		}
		logger.InfoWithFields("cron cycle completed", logger.Fields{
			"created":   res.Created,
			"failed":    res.Failed,
			"published": published,
		})
	}()
}

// Sitemap serves a sitemap.xml of the published articles.
func (h *Handlers) Sitemap(c *gin.Context) {
	articles, err := h.Articles.Published(c.Request.Context())
	if err != nil {
		c.String(http.StatusInternalServerError, "error generating sitemap")
		return
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	fmt.Fprintf(&b, "  <url>\n    <loc>%s/</loc>\n    <changefreq>hourly</changefreq>\n    <priority>1.0</priority>\n  </url>\n", h.Cfg.BaseURL)

	for _, a := range articles {
		lastmod := a.UpdatedAt
		if lastmod.IsZero() {
			lastmod = a.CreatedAt
		}
		fmt.Fprintf(&b, "  <url>\n    <loc>%s/article/%s/%s</loc>\n    <lastmod>%s</lastmod>\n    <changefreq>daily</changefreq>\n    <priority>0.8</priority>\n  </url>\n",
			h.Cfg.BaseURL, a.ID, slugify(a.Title), lastmod.UTC().Format(time.RFC3339))
	}
	b.WriteString("</urlset>\n")

	c.Data(http.StatusOK, "application/xml", []byte(b.String()))
}

// Robots serves robots.txt pointing crawlers at the sitemap.
func (h *Handlers) Robots(c *gin.Context) {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /admin/\nDisallow: /api/\n\nSitemap: %s/sitemap.xml\n", h.Cfg.BaseURL)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

// slugify reduces a title to a short URL-safe ASCII slug.
func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
		if b.Len() >= 50 {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}
