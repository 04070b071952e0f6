// Package generator turns trends and feed entries into stored articles. It
// owns the retry budgets around the text backend, the photo degrade path
// and the status policy for each source type.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"realnews/dedup"
	"realnews/feeder"
	"realnews/logger"
	"realnews/models"
	"realnews/retry"
	"realnews/rewriter"
)

// ErrTrendProcessed is returned when generation is requested for a trend
// that already produced an article.
var ErrTrendProcessed = errors.New("trend already processed")

// ErrDuplicateSource is returned when a feed entry's source URL already
// backs an article. Callers treat it as a skip, not a failure.
var ErrDuplicateSource = errors.New("source url already used")

var errNoPhotoFound = errors.New("no photo found")

// ArticleStore persists generated articles.
type ArticleStore interface {
	Insert(ctx context.Context, a *models.Article) (*models.Article, error)
}

// TrendStore reads and settles trends.
type TrendStore interface {
	FindByID(ctx context.Context, id string) (*models.Trend, error)
	MarkProcessed(ctx context.Context, id string) error
}

// LogStore records audit entries.
type LogStore interface {
	Insert(ctx context.Context, l *models.SystemLog) (*models.SystemLog, error)
}

// TextRewriter is the generative-text surface the generator needs.
type TextRewriter interface {
	GenerateFromKeyword(ctx context.Context, keyword, category string) (*rewriter.Result, error)
	RewriteArticle(ctx context.Context, title, content, sourceURL string) (*rewriter.Result, error)
	TranslateArticle(ctx context.Context, title, content, sourceURL string) (*rewriter.Result, error)
	Categorize(ctx context.Context, keyword string) (string, error)
}

// PhotoFinder searches stock photography.
type PhotoFinder interface {
	Search(ctx context.Context, query string, usedIDs []string) (*models.Photo, error)
}

// Generator builds articles from trends and feed entries.
type Generator struct {
	articles ArticleStore
	trends   TrendStore
	logs     LogStore
	rewriter TextRewriter
	photos   PhotoFinder
	log      logger.Logger

	// TextRetry and PhotoRetry are overridable so tests run without real
	// waits. Production values: 3 text attempts 40s apart, 2 photo
	// attempts 15s apart.
	TextRetry  retry.Config
	PhotoRetry retry.Config

	now func() time.Time
}

func New(articles ArticleStore, trends TrendStore, logs LogStore, rw TextRewriter, photos PhotoFinder, log logger.Logger) *Generator {
	return &Generator{
		articles:   articles,
		trends:     trends,
		logs:       logs,
		rewriter:   rw,
		photos:     photos,
		log:        log,
		TextRetry:  retry.Config{Attempts: 3, Delay: 40 * time.Second},
		PhotoRetry: retry.Config{Attempts: 2, Delay: 15 * time.Second},
		now:        time.Now,
	}
}

// FromTrend generates an article for one unprocessed trend. The trend is
// checked before any network call. Text generation uses the full retry
// budget; photo search retries once and then degrades to a draft without an
// image. An article with a photo is published immediately, one without
// stays a draft for manual review.
func (g *Generator) FromTrend(ctx context.Context, trendID string, snap *dedup.Snapshot) (*models.Article, error) {
	trend, err := g.trends.FindByID(ctx, trendID)
	if err != nil {
		return nil, fmt.Errorf("load trend %s: %w", trendID, err)
	}
	if trend.IsProcessed {
		return nil, fmt.Errorf("trend %q: %w", trend.Keyword, ErrTrendProcessed)
	}

	category := trend.Category
	if category == "" {
		category = models.DefaultCategory
	}

	var text *rewriter.Result
	err = retry.Do(ctx, g.TextRetry, func() error {
		res, err := g.rewriter.GenerateFromKeyword(ctx, trend.Keyword, category)
		if err != nil {
			return err
		}
		text = res
		return nil
	})
	if err != nil {
		g.logOutcome(ctx, "article_generated", models.LogError,
			fmt.Sprintf("Maqola yaratishda xatolik: %v", err),
			map[string]any{"trendId": trendID})
		return nil, fmt.Errorf("generate text for trend %q: %w", trend.Keyword, err)
	}

	photo := g.searchPhotoWithRetry(ctx, trend.Keyword, snap)

	article := &models.Article{
		Title:        text.Title,
		Content:      text.Content,
		Excerpt:      text.Excerpt,
		Category:     category,
		TrendKeyword: trend.Keyword,
		SourceType:   models.SourceAITrend,
		Status:       models.StatusDraft,
	}
	applyPhoto(article, photo, snap)
	if photo != nil {
		now := g.now()
		article.Status = models.StatusPublished
		article.PublishedAt = &now
	}

	stored, err := g.articles.Insert(ctx, article)
	if err != nil {
		return nil, fmt.Errorf("store article for trend %q: %w", trend.Keyword, err)
	}
	if err := g.trends.MarkProcessed(ctx, trendID); err != nil {
		return nil, fmt.Errorf("mark trend %s processed: %w", trendID, err)
	}

	g.logOutcome(ctx, "article_generated", models.LogSuccess,
		fmt.Sprintf("Maqola yaratildi: %s", stored.Title),
		map[string]any{"articleId": stored.ID, "trendId": trendID, "status": stored.Status})
	return stored, nil
}

// FromLocalFeed rewrites the newest entry of an Uzbek feed into a draft.
// Returns (nil, nil) when the feed is empty or the entry is too thin to
// rewrite, and ErrDuplicateSource when the story is already covered.
func (g *Generator) FromLocalFeed(ctx context.Context, feed *feeder.Feed, snap *dedup.Snapshot) (*models.Article, error) {
	return g.fromFeed(ctx, feed, snap, models.SourceLocalRSS)
}

// FromForeignFeed translates and rewrites the newest entry of a foreign
// feed into an Uzbek draft. Same skip semantics as FromLocalFeed.
func (g *Generator) FromForeignFeed(ctx context.Context, feed *feeder.Feed, snap *dedup.Snapshot) (*models.Article, error) {
	return g.fromFeed(ctx, feed, snap, models.SourceForeignRSS)
}

func (g *Generator) fromFeed(ctx context.Context, feed *feeder.Feed, snap *dedup.Snapshot, sourceType string) (*models.Article, error) {
	if feed == nil || len(feed.Articles) == 0 {
		return nil, nil
	}
	entry := feed.Articles[0]
	if len(entry.Content) < 100 {
		g.log.Infof("skipping %s: content too short (%d chars)", entry.Link, len(entry.Content))
		return nil, nil
	}
	if entry.Link != "" && snap.HasSourceURL(entry.Link) {
		return nil, fmt.Errorf("%s: %w", entry.Link, ErrDuplicateSource)
	}

	var text *rewriter.Result
	err := retry.Do(ctx, g.TextRetry, func() error {
		var err error
		if sourceType == models.SourceForeignRSS {
			text, err = g.rewriter.TranslateArticle(ctx, entry.Title, entry.Content, entry.Link)
		} else {
			text, err = g.rewriter.RewriteArticle(ctx, entry.Title, entry.Content, entry.Link)
		}
		return err
	})
	if err != nil {
		g.logOutcome(ctx, "article_generated", models.LogError,
			fmt.Sprintf("Maqola yaratishda xatolik: %v", err),
			map[string]any{"sourceUrl": entry.Link, "sourceType": sourceType})
		return nil, fmt.Errorf("rewrite %s: %w", entry.Link, err)
	}

	category, err := g.rewriter.Categorize(ctx, text.Title)
	if err != nil {
		g.log.Warnf("categorize %q failed, using default: %v", text.Title, err)
		category = models.DefaultCategory
	}

	// source images are usually behind hotlink protection, so feed
	// articles get stock photos too, one attempt only
	photo, err := g.photos.Search(ctx, text.Title, snap.UsedPhotoIDs())
	if err != nil {
		g.log.Warnf("photo search for %q failed: %v", text.Title, err)
		photo = nil
	}

	article := &models.Article{
		Title:      text.Title,
		Content:    text.Content,
		Excerpt:    text.Excerpt,
		Category:   category,
		SourceType: sourceType,
		SourceURL:  entry.Link,
		Status:     models.StatusDraft,
	}
	applyPhoto(article, photo, snap)

	stored, err := g.articles.Insert(ctx, article)
	if err != nil {
		return nil, fmt.Errorf("store article for %s: %w", entry.Link, err)
	}
	snap.AddSourceURL(entry.Link)

	g.logOutcome(ctx, "article_generated", models.LogSuccess,
		fmt.Sprintf("Maqola yaratildi: %s", stored.Title),
		map[string]any{"articleId": stored.ID, "sourceUrl": entry.Link, "sourceType": sourceType})
	return stored, nil
}

// searchPhotoWithRetry treats both errors and an empty result as reasons to
// try again, then gives up so the article degrades to a draft.
func (g *Generator) searchPhotoWithRetry(ctx context.Context, query string, snap *dedup.Snapshot) *models.Photo {
	var photo *models.Photo
	err := retry.Do(ctx, g.PhotoRetry, func() error {
		p, err := g.photos.Search(ctx, query, snap.UsedPhotoIDs())
		if err != nil {
			return err
		}
		if p == nil {
			return errNoPhotoFound
		}
		photo = p
		return nil
	})
	if err != nil {
		g.log.Warnf("no photo for %q, article stays a draft: %v", query, err)
		return nil
	}
	return photo
}

func applyPhoto(article *models.Article, photo *models.Photo, snap *dedup.Snapshot) {
	if photo == nil {
		return
	}
	article.ImageURL = photo.ImageURL
	article.PhotographerName = photo.PhotographerName
	article.PhotographerURL = photo.PhotographerURL
	article.PhotoID = photo.PhotoID
	snap.AddPhotoID(photo.PhotoID)
}

func (g *Generator) logOutcome(ctx context.Context, action, status, message string, meta map[string]any) {
	var metadata string
	if meta != nil {
		if b, err := json.Marshal(meta); err == nil {
			metadata = string(b)
		}
	}
	if _, err := g.logs.Insert(ctx, &models.SystemLog{
		Action:   action,
		Status:   status,
		Message:  message,
		Metadata: metadata,
	}); err != nil {
		g.log.Errorf("write system log: %v", err)
	}
}
