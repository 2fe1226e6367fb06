package collector

import (
	"context"
	"time"

	"github.com/newthinker/chartwise/internal/core"
)

// Collector defines the interface for daily price-series sources
type Collector interface {
	// Name identifies the collector in config and metrics
	Name() string

	// FetchHistory returns daily bars in [start, end], oldest first
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error)
}
