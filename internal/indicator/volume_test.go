package indicator

import (
	"testing"

	"github.com/newthinker/chartwise/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOBV_FlatSeries(t *testing.T) {
	prices := fromCloses(flatCloses(20, 100), 1000)
	for _, v := range OBVSeries(prices) {
		assert.Equal(t, int64(0), v)
	}

	o, ok := OBV(prices).Get()
	require.True(t, ok)
	assert.Equal(t, int64(0), o.OBV)
	assert.Equal(t, OBVFlat, o.Trend)
	assert.Equal(t, DivergenceNone, o.Divergence)
}

func TestOBV_Trends(t *testing.T) {
	o, ok := OBV(fromCloses(linearCloses(25, 100, 1), 1000)).Get()
	require.True(t, ok)
	assert.Equal(t, int64(24000), o.OBV)
	assert.Equal(t, OBVRising, o.Trend)
	assert.Equal(t, DivergenceUptrend, o.Divergence)

	o, ok = OBV(fromCloses(linearCloses(25, 100, -1), 1000)).Get()
	require.True(t, ok)
	assert.Equal(t, int64(-24000), o.OBV)
	assert.Equal(t, OBVFalling, o.Trend)
	assert.Equal(t, DivergenceDowntrend, o.Divergence)
}

// sawtooth alternates +up on upVol and -down on downVol, starting at 100.
func sawtooth(n int, up, down float64, upVol, downVol int64) core.PriceSeries {
	closes := []float64{100}
	for i := 1; i < n; i++ {
		if i%2 == 1 {
			closes = append(closes, closes[i-1]+up)
		} else {
			closes = append(closes, closes[i-1]-down)
		}
	}

	prices := fromCloses(closes, 0)
	for i := 1; i < n; i++ {
		if i%2 == 1 {
			prices[i].Volume = upVol
		} else {
			prices[i].Volume = downVol
		}
	}
	return prices
}

func TestOBV_Divergence(t *testing.T) {
	o, ok := OBV(sawtooth(21, 1, 2, 1000, 100)).Get()
	require.True(t, ok)
	assert.Equal(t, OBVRising, o.Trend)
	assert.Equal(t, DivergenceBullish, o.Divergence)

	// mirror: price grinds up while heavy volume hits the down days
	o, ok = OBV(sawtooth(21, 2, 1, 100, 1000)).Get()
	require.True(t, ok)
	assert.Equal(t, OBVFalling, o.Trend)
	assert.Equal(t, DivergenceBearish, o.Divergence)
}

func TestVolumeProfile_Flat(t *testing.T) {
	v, ok := VolumeProfile(fromCloses(flatCloses(20, 100), 1000), DefaultVolumeWindow).Get()
	require.True(t, ok)
	assert.Equal(t, int64(1000), v.AvgVolume)
	assert.Equal(t, int64(1000), v.RecentAvg)
	assert.Equal(t, 1.0, v.RelativeVolume)
	assert.Equal(t, VolumeBalanced, v.Character)
}

func TestVolumeProfile_ZeroVolume(t *testing.T) {
	v, ok := VolumeProfile(fromCloses(linearCloses(20, 100, 1), 0), DefaultVolumeWindow).Get()
	require.True(t, ok)
	assert.Equal(t, 1.0, v.RelativeVolume)
	assert.Equal(t, VolumeBalanced, v.Character)
}

func TestVolumeProfile_Character(t *testing.T) {
	v, ok := VolumeProfile(sawtooth(30, 1, 1, 2000, 1000), DefaultVolumeWindow).Get()
	require.True(t, ok)
	assert.Equal(t, VolumeAccumulation, v.Character)
	assert.Equal(t, int64(1500), v.AvgVolume)

	v, ok = VolumeProfile(sawtooth(30, 1, 1, 1000, 2000), DefaultVolumeWindow).Get()
	require.True(t, ok)
	assert.Equal(t, VolumeDistribution, v.Character)
}

func TestVolumeProfile_RelativeVolume(t *testing.T) {
	prices := fromCloses(flatCloses(20, 100), 1000)
	for i := 15; i < 20; i++ {
		prices[i].Volume = 3000
	}

	v, ok := VolumeProfile(prices, DefaultVolumeWindow).Get()
	require.True(t, ok)
	assert.Equal(t, int64(1500), v.AvgVolume)
	assert.Equal(t, int64(3000), v.RecentAvg)
	assert.Equal(t, 2.0, v.RelativeVolume)
}
