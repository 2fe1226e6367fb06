// Package report renders an indicator report as the plain-text technical
// digest handed to the signal-synthesis model.
package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/newthinker/chartwise/internal/indicator"
)

const na = "N/A"

// Render formats every section of the report. Absent sections read "N/A".
func Render(symbol string, r indicator.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Technical data for %s (%d trading days, %s to %s):\n\n",
		symbol, r.Observations, r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
	fmt.Fprintf(&b, "PRICE: $%.2f\n\n", r.Price)

	fmt.Fprintf(&b, "1. TREND:\n  %s\n\n", trendText(r))
	fmt.Fprintf(&b, "2. MOVING AVERAGES:\n  %s\n\n", movingAveragesText(r))
	fmt.Fprintf(&b, "3. RSI (14, Wilder): %s\n\n", rsiText(r))
	fmt.Fprintf(&b, "4. MACD (12, 26, 9):\n  %s\n\n", macdText(r))
	fmt.Fprintf(&b, "5. STOCHASTIC (14, 3):\n  %s\n\n", stochasticText(r))
	fmt.Fprintf(&b, "6. BOLLINGER BANDS (20, 2σ):\n  %s\n\n", bollingerText(r))
	fmt.Fprintf(&b, "7. ATR (14): %s\n\n", atrText(r))
	fmt.Fprintf(&b, "8. VOLUME:\n  %s\n\n", volumeText(r))
	fmt.Fprintf(&b, "9. ON-BALANCE VOLUME:\n  %s\n\n", obvText(r))
	fmt.Fprintf(&b, "10. SUPPORT / RESISTANCE:\n  %s\n\n", levelsText(r))
	fmt.Fprintf(&b, "11. FIBONACCI RETRACEMENT:\n  %s\n", fibonacciText(r))

	return b.String()
}

func trendText(r indicator.Report) string {
	t, ok := r.Trend.Get()
	if !ok {
		return "N/A - insufficient data"
	}
	return fmt.Sprintf("5-day: %+.2f%% | 20-day: %+.2f%% | 50-day: %+.2f%%\n  MA Alignment: %s\n  Last 20 days: %d up, %d down",
		t.Short5d*100, t.Medium20d*100, t.Long50d*100, alignmentLabel(t.MAAlignment), t.UpDays20, t.DownDays20)
}

func alignmentLabel(a indicator.Alignment) string {
	switch a {
	case indicator.AlignmentBullish:
		return "BULLISH alignment (EMA-9 > EMA-21 > SMA-50)"
	case indicator.AlignmentBearish:
		return "BEARISH alignment (EMA-9 < EMA-21 < SMA-50)"
	default:
		return "Mixed alignment (no clear trend hierarchy)"
	}
}

func movingAveragesText(r indicator.Report) string {
	ma, ok := r.MovingAverages.Get()
	if !ok {
		return na
	}
	lines := []string{
		fmt.Sprintf("EMA-9:  $%.2f (price %s)", ma.EMA9, position(r.Price, ma.EMA9)),
		fmt.Sprintf("EMA-21: $%.2f (price %s)", ma.EMA21, position(r.Price, ma.EMA21)),
		fmt.Sprintf("SMA-50: $%.2f (price %s)", ma.SMA50, position(r.Price, ma.SMA50)),
	}
	if ma.EMA9 > ma.EMA21 {
		lines = append(lines, "EMA-9/21 status: BULLISH (short-term EMA above long-term)")
	} else {
		lines = append(lines, "EMA-9/21 status: BEARISH (short-term EMA below long-term)")
	}
	return strings.Join(lines, "\n  ")
}

func position(price, level float64) string {
	if price > level {
		return "above"
	}
	return "below"
}

// RSIZone names the RSI band a reading falls into.
func RSIZone(rsi float64) string {
	switch {
	case rsi > 70:
		return "OVERBOUGHT"
	case rsi > 60:
		return "bullish zone"
	case rsi < 30:
		return "OVERSOLD"
	case rsi < 40:
		return "bearish zone"
	default:
		return "neutral zone"
	}
}

func rsiText(r indicator.Report) string {
	rsi, ok := r.RSI.Get()
	if !ok {
		return na
	}
	return fmt.Sprintf("%.1f (%s)", rsi, RSIZone(rsi))
}

func macdText(r indicator.Report) string {
	m, ok := r.MACD.Get()
	if !ok {
		return na
	}

	status := string(m.Crossover)
	switch m.Crossover {
	case indicator.CrossoverBullish:
		status = "BULLISH crossover (MACD crossing above signal)"
	case indicator.CrossoverBearish:
		status = "BEARISH crossover (MACD crossing below signal)"
	}
	return fmt.Sprintf("MACD Line: %.4f, Signal: %.4f, Histogram: %.4f\n  Status: %s",
		m.MACDLine, m.SignalLine, m.Histogram, status)
}

// StochasticZone names the %K band.
func StochasticZone(k float64) string {
	switch {
	case k > 80:
		return "OVERBOUGHT"
	case k < 20:
		return "OVERSOLD"
	default:
		return "neutral"
	}
}

func stochasticText(r indicator.Report) string {
	s, ok := r.Stochastic.Get()
	if !ok {
		return na
	}
	return fmt.Sprintf("%%K: %.1f, %%D: %.1f (%s)", s.PctK, s.PctD, StochasticZone(s.PctK))
}

func bollingerText(r indicator.Report) string {
	bb, ok := r.Bollinger.Get()
	if !ok {
		return na
	}
	squeeze := ""
	if bb.Squeeze {
		squeeze = " ** SQUEEZE DETECTED - expect volatility expansion **"
	}
	return fmt.Sprintf("Upper: $%.2f, Middle: $%.2f, Lower: $%.2f\n  Bandwidth: %.4f, %%B: %.2f (0=lower band, 1=upper band)%s",
		bb.Upper, bb.Middle, bb.Lower, bb.Bandwidth, bb.PctB, squeeze)
}

func atrText(r indicator.Report) string {
	a, ok := r.ATR.Get()
	if !ok {
		return na
	}
	return fmt.Sprintf("$%.2f (%.2f%% of price)", a.ATR, a.ATRPct)
}

func volumeText(r indicator.Report) string {
	v, ok := r.Volume.Get()
	if !ok {
		return na
	}

	character := "Balanced (similar volume on up and down days)"
	switch v.Character {
	case indicator.VolumeAccumulation:
		character = "Accumulation (heavier volume on up days)"
	case indicator.VolumeDistribution:
		character = "Distribution (heavier volume on down days)"
	}
	return fmt.Sprintf("20-day avg: %s | Recent 5-day avg: %s\n  Relative volume: %.2fx average\n  Character: %s",
		humanize.Comma(v.AvgVolume), humanize.Comma(v.RecentAvg), v.RelativeVolume, character)
}

func obvText(r indicator.Report) string {
	o, ok := r.OBV.Get()
	if !ok {
		return na
	}

	var divergence string
	switch o.Divergence {
	case indicator.DivergenceBullish:
		divergence = "BULLISH divergence (OBV rising while price falling - accumulation)"
	case indicator.DivergenceBearish:
		divergence = "BEARISH divergence (OBV falling while price rising - distribution)"
	case indicator.DivergenceUptrend:
		divergence = "Confirmed uptrend (both price and OBV rising)"
	case indicator.DivergenceDowntrend:
		divergence = "Confirmed downtrend (both price and OBV falling)"
	default:
		divergence = "No clear divergence"
	}
	return fmt.Sprintf("OBV: %s\n  Trend: %s\n  %s", humanize.Comma(o.OBV), o.Trend, divergence)
}

func levelsText(r indicator.Report) string {
	sr, ok := r.SupportResistance.Get()
	if !ok {
		return na
	}
	return fmt.Sprintf("Resistance: %s\n  Support: %s\n  Period high: $%.2f (%+.1f%% from current)\n  Period low: $%.2f (%+.1f%% from current)",
		dollarList(sr.Resistance), dollarList(sr.Support),
		sr.PeriodHigh, sr.PctFromHigh, sr.PeriodLow, sr.PctFromLow)
}

func dollarList(levels []float64) string {
	if len(levels) == 0 {
		return "none identified"
	}
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = fmt.Sprintf("$%.2f", l)
	}
	return strings.Join(parts, ", ")
}

func fibonacciText(r indicator.Report) string {
	f, ok := r.Fibonacci.Get()
	if !ok {
		return na
	}
	parts := make([]string, len(f.Levels))
	for i, l := range f.Levels {
		parts[i] = fmt.Sprintf("%s: $%.2f", l.Label, l.Price)
	}
	return fmt.Sprintf("Swing range: $%.2f - $%.2f\n  Levels: %s\n  Price nearest to: %s",
		f.SwingLow, f.SwingHigh, strings.Join(parts, ", "), f.NearestLevel)
}
