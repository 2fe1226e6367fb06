// Package api holds the JSON handlers mounted under /api/v1.
package api

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/newthinker/chartwise/internal/app"
	"github.com/newthinker/chartwise/internal/core"
	"github.com/newthinker/chartwise/internal/indicator"
)

// AnalysisApp defines what the handlers need from app.App.
type AnalysisApp interface {
	FetchHistory(ctx context.Context, symbol string, days int) (core.PriceSeries, error)
	ComputeReport(series core.PriceSeries) indicator.Optional[indicator.Report]
	AnalyzeSeries(ctx context.Context, symbol string, series core.PriceSeries) app.Result
	AnalyzeTicker(ctx context.Context, symbol string) app.Result
	AnalyzeProgress(ctx context.Context, symbols []string, progress func(done, total int)) []app.Result
}

// Bar is the wire form of one daily bar. Date accepts YYYY-MM-DD or RFC 3339.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// toSeries converts bars to a series sorted oldest first.
func toSeries(bars []Bar) (core.PriceSeries, error) {
	series := make(core.PriceSeries, len(bars))
	for i, b := range bars {
		date, err := parseDate(b.Date)
		if err != nil {
			return nil, core.WrapError(core.ErrInvalidRequest, fmt.Errorf("bar %d: bad date %q", i, b.Date))
		}
		series[i] = core.PricePoint{
			Date: date, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		}
	}
	sort.SliceStable(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series, nil
}
