package indicator

import "github.com/newthinker/chartwise/internal/core"

// Volume analysis defaults
const (
	DefaultVolumeWindow = 20
	recentVolumeWindow  = 5
	volumeSkew          = 1.3
)

// VolumeCharacter says which side of the tape carries heavier volume.
type VolumeCharacter string

const (
	VolumeAccumulation VolumeCharacter = "accumulation"
	VolumeDistribution VolumeCharacter = "distribution"
	VolumeBalanced     VolumeCharacter = "balanced"
)

// VolumeResult holds relative volume and up/down-day volume character.
type VolumeResult struct {
	AvgVolume      int64           `json:"avg_20d"`
	RecentAvg      int64           `json:"recent_5d_avg"`
	RelativeVolume float64         `json:"relative_volume"`
	Character      VolumeCharacter `json:"character"`
}

// VolumeProfile compares recent volume to the window average and the volume
// on up days to down days. Averages are truncated to whole shares.
func VolumeProfile(prices core.PriceSeries, window int) Optional[VolumeResult] {
	if window <= 0 || len(prices) < window {
		return None[VolumeResult]()
	}

	avgVolume := meanVolume(prices.Tail(window))
	recentAvg := meanVolume(prices.Tail(min(recentVolumeWindow, window)))

	relative := 1.0
	if avgVolume > 0 {
		relative = recentAvg / avgVolume
	}

	// The first bar of the series has no prior close and belongs to neither side.
	var up, down []float64
	for i := len(prices) - window; i < len(prices); i++ {
		if i == 0 {
			continue
		}
		switch {
		case prices[i].Close > prices[i-1].Close:
			up = append(up, float64(prices[i].Volume))
		case prices[i].Close < prices[i-1].Close:
			down = append(down, float64(prices[i].Volume))
		}
	}
	avgUp, avgDown := mean(up), mean(down)

	character := VolumeBalanced
	switch {
	case avgUp > avgDown*volumeSkew:
		character = VolumeAccumulation
	case avgDown > avgUp*volumeSkew:
		character = VolumeDistribution
	}

	return Some(VolumeResult{
		AvgVolume:      int64(avgVolume),
		RecentAvg:      int64(recentAvg),
		RelativeVolume: RoundFactor(relative),
		Character:      character,
	})
}

func meanVolume(prices core.PriceSeries) float64 {
	var sum float64
	for _, p := range prices {
		sum += float64(p.Volume)
	}
	return sum / float64(len(prices))
}
