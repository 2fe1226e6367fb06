// Package notifier announces finished batch analyses to outside systems.
package notifier

import (
	"context"
	"time"
)

// Event types
const (
	EventBatchComplete = "batch_complete"
	EventBatchFailed   = "batch_failed"
)

// Summary is the per-ticker line of an event.
type Summary struct {
	Symbol     string  `json:"symbol"`
	Signal     string  `json:"signal,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Agents     int     `json:"agents"`
	Action     string  `json:"action,omitempty"`
	Quantity   int     `json:"quantity,omitempty"`
	RiskScore  float64 `json:"risk_score,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Event describes one finished batch job.
type Event struct {
	Type        string    `json:"type"`
	JobID       string    `json:"job_id"`
	Summaries   []Summary `json:"summaries"`
	CompletedAt time.Time `json:"completed_at"`
}

// Notifier delivers events.
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Notify delivers one event
	Notify(ctx context.Context, event Event) error
}
