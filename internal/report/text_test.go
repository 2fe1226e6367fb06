package report

import (
	"strings"
	"testing"
	"time"

	"github.com/newthinker/chartwise/internal/core"
	"github.com/newthinker/chartwise/internal/indicator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(n int, price float64, volume int64) core.PriceSeries {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	s := make(core.PriceSeries, n)
	for i := range s {
		c := price + float64(i)
		s[i] = core.PricePoint{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: volume}
	}
	return s
}

func TestRender_ShortSeriesMarksAbsent(t *testing.T) {
	r, ok := indicator.Compute(series(20, 100, 1234567)).Get()
	require.True(t, ok)

	text := Render("AAPL", r)

	assert.Contains(t, text, "Technical data for AAPL (20 trading days, 2025-03-03 to 2025-03-22)")
	assert.Contains(t, text, "PRICE: $119.00")
	assert.Contains(t, text, "1. TREND:\n  N/A - insufficient data")
	assert.Contains(t, text, "2. MOVING AVERAGES:\n  N/A")
	assert.Contains(t, text, "4. MACD (12, 26, 9):\n  N/A")
	assert.Contains(t, text, "3. RSI (14, Wilder): 100.0 (OVERBOUGHT)")
	assert.Contains(t, text, "20-day avg: 1,234,567")
}

func TestRender_FullSeries(t *testing.T) {
	r, ok := indicator.Compute(series(80, 100, 5000)).Get()
	require.True(t, ok)

	text := Render("MSFT", r)

	for _, section := range []string{
		"1. TREND:", "2. MOVING AVERAGES:", "3. RSI", "4. MACD", "5. STOCHASTIC",
		"6. BOLLINGER BANDS", "7. ATR (14)", "8. VOLUME:", "9. ON-BALANCE VOLUME:",
		"10. SUPPORT / RESISTANCE:", "11. FIBONACCI RETRACEMENT:",
	} {
		assert.Contains(t, text, section)
	}
	assert.NotContains(t, text, "N/A")
	assert.Contains(t, text, "BULLISH alignment")
	assert.Contains(t, text, "Confirmed uptrend")
	assert.Contains(t, text, "EMA-9/21 status: BULLISH")
	assert.Contains(t, text, "Resistance: none identified")
	assert.True(t, strings.HasSuffix(text, "\n"))
}

func TestRSIZone(t *testing.T) {
	tests := map[float64]string{
		75:   "OVERBOUGHT",
		65:   "bullish zone",
		50:   "neutral zone",
		35:   "bearish zone",
		25:   "OVERSOLD",
		70:   "bullish zone",
		30:   "bearish zone",
		40.0: "neutral zone",
	}
	for rsi, want := range tests {
		assert.Equal(t, want, RSIZone(rsi), "rsi %.1f", rsi)
	}
}

func TestStochasticZone(t *testing.T) {
	assert.Equal(t, "OVERBOUGHT", StochasticZone(85))
	assert.Equal(t, "OVERSOLD", StochasticZone(10))
	assert.Equal(t, "neutral", StochasticZone(80))
}
