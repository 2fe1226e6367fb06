package indicator

import (
	"math"
	"time"

	"github.com/newthinker/chartwise/internal/core"
)

var day0 = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

// fromCloses builds bars with a +/-1 range around each close.
func fromCloses(closes []float64, volume int64) core.PriceSeries {
	s := make(core.PriceSeries, len(closes))
	for i, c := range closes {
		s[i] = core.PricePoint{
			Date:   day0.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: volume,
		}
	}
	return s
}

func flatCloses(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

func linearCloses(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// wave is a deterministic, non-degenerate series with varying ranges and volumes.
func wave(n int) core.PriceSeries {
	s := make(core.PriceSeries, n)
	for i := range s {
		x := float64(i)
		c := 100 + 5*math.Sin(x*0.5) + 0.1*x
		s[i] = core.PricePoint{
			Date:   day0.AddDate(0, 0, i),
			Open:   c - 0.2*math.Sin(x),
			High:   c + 1 + 0.5*math.Abs(math.Cos(x)),
			Low:    c - 1 - 0.3*math.Abs(math.Sin(x)),
			Close:  c,
			Volume: 1000 + 100*int64(i%7),
		}
	}
	return s
}
