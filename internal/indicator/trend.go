package indicator

import "github.com/newthinker/chartwise/internal/core"

// Trend windows
const (
	MinTrendLength = 50
	shortWindow    = 5
	mediumWindow   = 20
	longWindow     = 50
	countWindow    = 20
)

// Alignment classifies the ordering of EMA-9, EMA-21 and SMA-50.
type Alignment string

const (
	AlignmentBullish Alignment = "bullish alignment"
	AlignmentBearish Alignment = "bearish alignment"
	AlignmentMixed   Alignment = "mixed alignment"
)

// TrendResult holds multi-timeframe returns and moving-average alignment.
type TrendResult struct {
	Short5d     float64   `json:"short_5d"`
	Medium20d   float64   `json:"medium_20d"`
	Long50d     float64   `json:"long_50d"`
	MAAlignment Alignment `json:"ma_alignment"`
	UpDays20    int       `json:"up_days_20"`
	DownDays20  int       `json:"down_days_20"`
}

// Trend assesses 5/20/50-bar returns, MA alignment and the up/down day count
// over the last 20 bars. Unchanged closes count as down days.
func Trend(prices core.PriceSeries) Optional[TrendResult] {
	if len(prices) < MinTrendLength {
		return None[TrendResult]()
	}

	closes := prices.Closes()
	n := len(closes)

	upDays := 0
	for i := n - countWindow; i < n; i++ {
		if closes[i] > closes[i-1] {
			upDays++
		}
	}

	return Some(TrendResult{
		Short5d:     RoundRatio(periodReturn(closes, shortWindow)),
		Medium20d:   RoundRatio(periodReturn(closes, mediumWindow)),
		Long50d:     RoundRatio(periodReturn(closes, longWindow)),
		MAAlignment: alignmentOf(closes),
		UpDays20:    upDays,
		DownDays20:  countWindow - upDays,
	})
}

// periodReturn is (last - closes[n-w]) / closes[n-w].
func periodReturn(closes []float64, w int) float64 {
	base := closes[len(closes)-w]
	return (last(closes) - base) / base
}

func alignmentOf(closes []float64) Alignment {
	ema9 := last(EMA(closes, 9))
	ema21 := last(EMA(closes, 21))
	sma50 := mean(closes[len(closes)-50:])

	switch {
	case ema9 > ema21 && ema21 > sma50:
		return AlignmentBullish
	case ema9 < ema21 && ema21 < sma50:
		return AlignmentBearish
	default:
		return AlignmentMixed
	}
}
