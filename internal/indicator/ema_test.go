package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMA_SeedsWithFirstValue(t *testing.T) {
	assert.Equal(t, []float64{5}, EMA([]float64{5}, 3))

	ema := EMA([]float64{1, 2, 3}, 2)
	require.Len(t, ema, 3)
	assert.Equal(t, 1.0, ema[0])

	// multiplier 2/3
	assert.InDelta(t, 1+2.0/3, ema[1], 1e-12)
	assert.InDelta(t, (3-ema[1])*2/3+ema[1], ema[2], 1e-12)
}

func TestEMA_Empty(t *testing.T) {
	assert.Empty(t, EMA(nil, 3))
	assert.Empty(t, EMA([]float64{1, 2}, 0))
}

func TestEMA_ConstantSeries(t *testing.T) {
	for _, v := range EMA(flatCloses(30, 42), 9) {
		assert.Equal(t, 42.0, v)
	}
}

func TestEMAValue(t *testing.T) {
	prices := fromCloses(linearCloses(9, 10, 1), 100)

	_, ok := EMAValue(prices[:8], 9).Get()
	assert.False(t, ok, "expected absent with fewer than span closes")

	v, ok := EMAValue(prices, 9).Get()
	require.True(t, ok)
	ema := EMA(prices.Closes(), 9)
	assert.Equal(t, ema[len(ema)-1], v)
}

func TestSMA(t *testing.T) {
	prices := fromCloses([]float64{10, 11, 12, 13, 14, 15}, 100)

	v, ok := SMA(prices, 3).Get()
	require.True(t, ok)
	assert.Equal(t, 14.0, v)

	_, ok = SMA(prices, 7).Get()
	assert.False(t, ok)
}
