package indicator

import (
	"time"

	"github.com/newthinker/chartwise/internal/core"
)

// Report is the full indicator snapshot for one ticker. Each sub-report is
// either fully populated or absent.
type Report struct {
	Price        float64   `json:"price"`
	Observations int       `json:"observations"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`

	Trend             Optional[TrendResult]      `json:"trend"`
	MovingAverages    Optional[MovingAverages]   `json:"moving_averages"`
	RSI               Optional[float64]          `json:"rsi"`
	MACD              Optional[MACDResult]       `json:"macd"`
	Stochastic        Optional[StochasticResult] `json:"stochastic"`
	Bollinger         Optional[BollingerResult]  `json:"bollinger"`
	ATR               Optional[ATRResult]        `json:"atr"`
	OBV               Optional[OBVResult]        `json:"obv"`
	Volume            Optional[VolumeResult]     `json:"volume"`
	SupportResistance Optional[LevelsResult]     `json:"support_resistance"`
	Fibonacci         Optional[FibonacciResult]  `json:"fibonacci"`
}

// Compute runs every indicator with default parameters. The result is absent
// when no indicator has enough history (including an empty series).
func Compute(prices core.PriceSeries) Optional[Report] {
	if len(prices) == 0 {
		return None[Report]()
	}

	r := Report{
		Price:        prices.Last().Close,
		Observations: len(prices),
		From:         prices[0].Date,
		To:           prices.Last().Date,

		Trend:             Trend(prices),
		MovingAverages:    MovingAveragesOf(prices),
		RSI:               RSI(prices, DefaultRSIPeriod),
		MACD:              MACD(prices),
		Stochastic:        Stochastic(prices, DefaultStochasticK, DefaultStochasticD),
		Bollinger:         Bollinger(prices, DefaultBollingerWindow, DefaultBollingerK),
		ATR:               ATR(prices, DefaultATRPeriod),
		OBV:               OBV(prices),
		Volume:            VolumeProfile(prices, DefaultVolumeWindow),
		SupportResistance: SupportResistance(prices, DefaultLevelCount),
		Fibonacci:         Fibonacci(prices),
	}

	if len(r.Absent()) == len(r.presence()) {
		return None[Report]()
	}
	return Some(r)
}

// Absent lists the names of sub-reports that lacked history, in report order.
func (r Report) Absent() []string {
	var out []string
	for _, p := range r.presence() {
		if !p.present {
			out = append(out, p.name)
		}
	}
	return out
}

type namedPresence struct {
	name    string
	present bool
}

func (r Report) presence() []namedPresence {
	return []namedPresence{
		{"trend", r.Trend.Present()},
		{"moving_averages", r.MovingAverages.Present()},
		{"rsi", r.RSI.Present()},
		{"macd", r.MACD.Present()},
		{"stochastic", r.Stochastic.Present()},
		{"bollinger", r.Bollinger.Present()},
		{"atr", r.ATR.Present()},
		{"obv", r.OBV.Present()},
		{"volume", r.Volume.Present()},
		{"support_resistance", r.SupportResistance.Present()},
		{"fibonacci", r.Fibonacci.Present()},
	}
}
