package models

import "time"

// Article statuses. An article starts as StatusDraft and moves to
// StatusPublished only through an explicit publish action.
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusPublished = "published"
	StatusFailed    = "failed"
)

// Source types record where an article's content came from.
const (
	SourceAITrend    = "AI_TREND"
	SourceLocalRSS   = "LOCAL_RSS"
	SourceForeignRSS = "FOREIGN_RSS"
)

// Article represents a generated news article.
// Collection: articles
type Article struct {
	ID               string     `bson:"_id" json:"id"`
	Title            string     `bson:"title" json:"title"`
	Content          string     `bson:"content" json:"content"`
	Excerpt          string     `bson:"excerpt" json:"excerpt"`
	Category         string     `bson:"category" json:"category"`
	TrendKeyword     string     `bson:"trend_keyword,omitempty" json:"trendKeyword,omitempty"`
	SourceType       string     `bson:"source_type" json:"sourceType"`
	SourceURL        string     `bson:"source_url,omitempty" json:"sourceUrl,omitempty"`
	ImageURL         string     `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	PhotographerName string     `bson:"photographer_name,omitempty" json:"photographerName,omitempty"`
	PhotographerURL  string     `bson:"photographer_url,omitempty" json:"photographerUrl,omitempty"`
	PhotoID          string     `bson:"photo_id,omitempty" json:"photoId,omitempty"`
	Status           string     `bson:"status" json:"status"`
	PublishedAt      *time.Time `bson:"published_at,omitempty" json:"publishedAt,omitempty"`
	CreatedAt        time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `bson:"updated_at" json:"updatedAt"`
}
