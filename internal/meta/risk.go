package meta

import (
	"fmt"
	"math"

	"github.com/newthinker/chartwise/internal/core"
	"github.com/newthinker/chartwise/internal/indicator"
)

// MaxPositionSize is the largest fraction of the portfolio any one ticker may take.
const MaxPositionSize = 0.25

const (
	volatilityWindow = 20
	// daily volatility at which the volatility component saturates
	volatilityCeiling = 0.05
	highVolatility    = 0.03
	lowConfidence     = 0.5
	noDataConfidence  = 0.1

	volatilityWeight   = 0.5
	disagreementWeight = 0.25
	uncertaintyWeight  = 0.25
)

// RiskAssessment bounds the position a ticker may take.
type RiskAssessment struct {
	RiskScore       float64                     `json:"risk_score"`
	MaxPositionSize float64                     `json:"max_position_size"`
	Volatility      indicator.Optional[float64] `json:"daily_volatility"`
	RiskFactors     []string                    `json:"risk_factors"`
	Reasoning       string                      `json:"reasoning"`
}

// DailyVolatility is the root mean square of the daily returns over the last
// 20 closes. Absent with fewer than 20 bars.
func DailyVolatility(prices core.PriceSeries) indicator.Optional[float64] {
	if len(prices) < volatilityWindow {
		return indicator.None[float64]()
	}

	closes := prices.Tail(volatilityWindow).Closes()
	var sum float64
	for i := 1; i < len(closes); i++ {
		r := (closes[i] - closes[i-1]) / closes[i-1]
		sum += r * r
	}
	return indicator.Some(indicator.RoundRatio(math.Sqrt(sum / float64(len(closes)-1))))
}

// AssessRisk scores a ticker from 0 (low) to 1 (high). Half the score comes
// from volatility, a quarter from agents disagreeing with the majority and a
// quarter from missing confidence. Missing history or signals count as the
// worst case. The position limit shrinks linearly with the score.
func AssessRisk(prices core.PriceSeries, signals []core.TradingSignal) RiskAssessment {
	factors := []string{}

	vol := DailyVolatility(prices)
	volScore := 1.0
	if v, ok := vol.Get(); ok {
		volScore = math.Min(v/volatilityCeiling, 1)
		if v > highVolatility {
			factors = append(factors, fmt.Sprintf("High daily volatility (%.2f%%)", v*100))
		}
	} else {
		factors = append(factors, fmt.Sprintf("Insufficient price history to measure volatility (%d bars)", len(prices)))
	}

	disagreement, uncertainty := 1.0, 1.0
	if len(signals) == 0 {
		factors = append(factors, "No agent signals")
	} else {
		disagreement = 1 - float64(majorityCount(signals))/float64(len(signals))
		if disagreement > 0 {
			factors = append(factors, "Agents disagree on direction")
		}

		avg := avgConfidence(signals)
		uncertainty = 1 - avg
		if avg < lowConfidence {
			factors = append(factors, fmt.Sprintf("Low average agent confidence (%.0f%%)", avg*100))
		}
		for _, s := range signals {
			if s.Confidence <= noDataConfidence {
				factors = append(factors, fmt.Sprintf("%s reported a low-confidence stance (limited data)", s.Agent))
			}
		}
	}

	score := indicator.RoundFactor(math.Min(
		volatilityWeight*volScore+disagreementWeight*disagreement+uncertaintyWeight*uncertainty, 1))
	maxPosition := indicator.RoundRatio(MaxPositionSize * (1 - score))

	volText := "N/A"
	if v, ok := vol.Get(); ok {
		volText = fmt.Sprintf("%.2f%%", v*100)
	}

	return RiskAssessment{
		RiskScore:       score,
		MaxPositionSize: maxPosition,
		Volatility:      vol,
		RiskFactors:     factors,
		Reasoning: fmt.Sprintf("Risk score %.2f from daily volatility %s, %.0f%% agent disagreement and %.0f%% missing confidence; position capped at %.1f%% of portfolio.",
			score, volText, disagreement*100, uncertainty*100, maxPosition*100),
	}
}

// majorityCount is the size of the largest group of agents sharing a direction.
func majorityCount(signals []core.TradingSignal) int {
	counts := map[core.SignalDirection]int{}
	best := 0
	for _, s := range signals {
		counts[s.Signal]++
		best = max(best, counts[s.Signal])
	}
	return best
}
