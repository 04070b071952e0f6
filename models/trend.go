package models

import "time"

// Trend is a scored keyword candidate for AI article generation.
// Collection: trends (keyword is unique)
type Trend struct {
	ID          string     `bson:"_id" json:"id"`
	Keyword     string     `bson:"keyword" json:"keyword"`
	Score       int        `bson:"score" json:"score"`
	Category    string     `bson:"category,omitempty" json:"category,omitempty"`
	Region      string     `bson:"region" json:"region"`
	IsProcessed bool       `bson:"is_processed" json:"isProcessed"`
	DetectedAt  time.Time  `bson:"detected_at" json:"detectedAt"`
	ProcessedAt *time.Time `bson:"processed_at,omitempty" json:"processedAt,omitempty"`
}
