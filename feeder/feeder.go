package feeder

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// RSSArticle is one normalized feed entry. Content is HTML-stripped plain
// text; ImageURL follows the enclosure → media:content → first <img>
// precedence.
type RSSArticle struct {
	Title          string
	Link           string
	PubDate        *time.Time
	Content        string
	ContentSnippet string
	ImageURL       string
	Category       string
}

// Feed is one fetched and normalized syndication feed.
type Feed struct {
	Title       string
	Description string
	Link        string
	Articles    []RSSArticle
}

// Fetcher fetches RSS/Atom feeds over HTTP.
type Fetcher struct {
	parser *gofeed.Parser
}

func NewFetcher() *Fetcher {
	fp := gofeed.NewParser()
	fp.Client = &http.Client{Timeout: 30 * time.Second}
	return &Fetcher{parser: fp}
}

// Fetch downloads and normalizes one feed. Any network or parse failure
// fails the whole fetch; there is no partial-feed recovery.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (*Feed, error) {
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch RSS feed %s: %w", feedURL, err)
	}

	out := &Feed{
		Title:       feed.Title,
		Description: feed.Description,
		Link:        feed.Link,
	}

	for _, item := range feed.Items {
		raw := rawContent(item)
		article := RSSArticle{
			Title:          strings.TrimSpace(item.Title),
			Link:           item.Link,
			Content:        CleanContent(raw),
			ContentSnippet: CleanContent(item.Description),
			ImageURL:       extractImage(item),
		}
		if article.Title == "" {
			article.Title = "Untitled"
		}
		if item.PublishedParsed != nil {
			article.PubDate = item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			article.PubDate = item.UpdatedParsed
		}
		if len(item.Categories) > 0 {
			article.Category = item.Categories[0]
		}
		out.Articles = append(out.Articles, article)
	}

	return out, nil
}

// rawContent picks the richest body the item carries: content:encoded,
// then content, then description.
func rawContent(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Description
}

// extractImage resolves an item image by precedence: an enclosure with an
// image MIME type, then a media:content url attribute, then the first
// <img src> in the raw HTML body.
func extractImage(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}

	if media, ok := item.Extensions["media"]; ok {
		if contents, ok := media["content"]; ok {
			for _, c := range contents {
				if url := c.Attrs["url"]; url != "" {
					return url
				}
			}
		}
	}

	raw := rawContent(item)
	if raw == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return ""
	}
	if src, ok := doc.Find("img").First().Attr("src"); ok {
		return src
	}
	return ""
}

// CleanContent strips script/style blocks and all remaining markup from
// html, decodes entities and collapses whitespace runs to single spaces.
func CleanContent(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}

	doc.Find("script, style").Remove()
	text := doc.Text()
	// the parser decodes &nbsp; to U+00A0; strings.Fields treats it as
	// whitespace, so collapsing also normalizes it away
	return strings.Join(strings.Fields(text), " ")
}
