package models

import "time"

// SystemLog statuses.
const (
	LogSuccess        = "success"
	LogError          = "error"
	LogWarning        = "warning"
	LogPartialSuccess = "partial_success"
)

// SystemLog is an append-only audit record of pipeline activity.
// Collection: system_logs
type SystemLog struct {
	ID        string    `bson:"_id" json:"id"`
	Action    string    `bson:"action" json:"action"`
	Status    string    `bson:"status" json:"status"`
	Message   string    `bson:"message" json:"message"`
	Metadata  string    `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
