package indicator

import (
	"math"
	"sort"

	"github.com/newthinker/chartwise/internal/core"
)

// Support/resistance parameters
const (
	MinLevelsLength   = 20
	DefaultLevelCount = 3
	pivotLookback     = 5
	clusterThreshold  = 0.015
)

// LevelsResult holds clustered support/resistance and the period range.
type LevelsResult struct {
	Resistance  []float64 `json:"resistance"` // ascending, nearest first
	Support     []float64 `json:"support"`    // descending, nearest first
	PeriodHigh  float64   `json:"period_high"`
	PeriodLow   float64   `json:"period_low"`
	PctFromHigh float64   `json:"pct_from_high"`
	PctFromLow  float64   `json:"pct_from_low"`
}

// SupportResistance finds pivot highs/lows over a symmetric five-bar window,
// clusters pivots within 1.5% of each other and keeps up to count levels on
// each side of the current close.
func SupportResistance(prices core.PriceSeries, count int) Optional[LevelsResult] {
	if len(prices) < MinLevelsLength {
		return None[LevelsResult]()
	}
	count = max(count, 0)

	highs, lows := prices.Highs(), prices.Lows()
	current := prices.Last().Close

	var pivotHighs, pivotLows []float64
	for i := pivotLookback; i < len(prices)-pivotLookback; i++ {
		window := i + pivotLookback + 1
		if highs[i] == maxOf(highs[i-pivotLookback:window]) {
			pivotHighs = append(pivotHighs, highs[i])
		}
		if lows[i] == minOf(lows[i-pivotLookback:window]) {
			pivotLows = append(pivotLows, lows[i])
		}
	}

	resistance := make([]float64, 0, count)
	for _, level := range clusterLevels(pivotHighs, clusterThreshold) {
		if len(resistance) == count {
			break
		}
		if level > current {
			resistance = append(resistance, RoundPrice(level))
		}
	}

	support := make([]float64, 0, count)
	clustered := clusterLevels(pivotLows, clusterThreshold)
	for i := len(clustered) - 1; i >= 0; i-- {
		if len(support) == count {
			break
		}
		if clustered[i] < current {
			support = append(support, RoundPrice(clustered[i]))
		}
	}

	periodHigh, periodLow := maxOf(highs), minOf(lows)
	var pctHigh, pctLow float64
	if periodHigh != 0 {
		pctHigh = (current - periodHigh) / periodHigh * 100
	}
	if periodLow != 0 {
		pctLow = (current - periodLow) / periodLow * 100
	}

	return Some(LevelsResult{
		Resistance:  resistance,
		Support:     support,
		PeriodHigh:  RoundPrice(periodHigh),
		PeriodLow:   RoundPrice(periodLow),
		PctFromHigh: RoundOscillator(pctHigh),
		PctFromLow:  RoundOscillator(pctLow),
	})
}

// clusterLevels sorts levels ascending and merges each one into the running
// cluster while it stays within threshold of the cluster's last member.
// Each cluster is represented by its mean.
func clusterLevels(levels []float64, threshold float64) []float64 {
	if len(levels) == 0 {
		return nil
	}

	sorted := append([]float64(nil), levels...)
	sort.Float64s(sorted)

	var clusters []float64
	cluster := []float64{sorted[0]}
	for _, level := range sorted[1:] {
		prev := cluster[len(cluster)-1]
		if math.Abs(level-prev)/prev < threshold {
			cluster = append(cluster, level)
			continue
		}
		clusters = append(clusters, mean(cluster))
		cluster = []float64{level}
	}
	return append(clusters, mean(cluster))
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
