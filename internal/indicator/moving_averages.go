package indicator

import "github.com/newthinker/chartwise/internal/core"

// MinMovingAveragesLength is set by the slowest average (SMA-50).
const MinMovingAveragesLength = 50

// MovingAverages is the EMA-9 / EMA-21 / SMA-50 snapshot.
type MovingAverages struct {
	EMA9  float64 `json:"ema_9"`
	EMA21 float64 `json:"ema_21"`
	SMA50 float64 `json:"sma_50"`
}

// MovingAveragesOf returns all three averages, or none of them.
func MovingAveragesOf(prices core.PriceSeries) Optional[MovingAverages] {
	ema9, ok9 := EMAValue(prices, 9).Get()
	ema21, ok21 := EMAValue(prices, 21).Get()
	sma50, ok50 := SMA(prices, 50).Get()
	if !ok9 || !ok21 || !ok50 {
		return None[MovingAverages]()
	}
	return Some(MovingAverages{
		EMA9:  RoundPrice(ema9),
		EMA21: RoundPrice(ema21),
		SMA50: RoundPrice(sma50),
	})
}
