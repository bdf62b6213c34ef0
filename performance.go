// FILE: performance.go
// Package main – Post-run performance statistics (pure).
//
// CalculateMetrics(trades, equityCurve, initialCapital) recomputes every
// statistic from scratch; identical inputs always produce identical output.
//
// Conventions that are easy to get wrong, pinned here and in the tests:
//   • Only sells (realizedPnl != nil) count toward totalTrades/winRate/
//     profitFactor; buys are excluded.
//   • Zero-denominator ratios report the 9999.99 sentinel (profit with no
//     losses) or 0 (no profit either) — never infinity.
//   • Sharpe uses POPULATION std dev (divide by N) of simple daily returns,
//     annualized by sqrt(252); Sortino uses the same mean over a downside
//     deviation built from negative returns only, against a zero target.
//   • Drawdown duration is measured in curve points (peak index → trough
//     index), not wall-clock time.
//   • Per-symbol metrics are the same calculation restricted to one symbol's
//     trades with an EMPTY equity curve (so Sharpe/Sortino/drawdown are 0
//     there), then totalReturn/totalReturnPct are overridden with the
//     symbol's summed realized PnL.

package main

import (
	"math"
	"time"
)

// ratioSentinel stands in for a mathematically infinite ratio so metrics stay
// finite and serializable.
const ratioSentinel = 9999.99

// tradingDaysPerYear is the annualization base for Sharpe/Sortino.
const tradingDaysPerYear = 252.0

// Metrics is the full performance report. PerSymbol holds the same shape per
// traded symbol, without its own nested PerSymbol.
type Metrics struct {
	TotalReturn    float64 `json:"totalReturn"`
	TotalReturnPct float64 `json:"totalReturnPct"`

	TotalTrades   int     `json:"totalTrades"`
	WinningTrades int     `json:"winningTrades"`
	LosingTrades  int     `json:"losingTrades"`
	WinRate       float64 `json:"winRate"`

	ProfitFactor    float64 `json:"profitFactor"`
	AvgWin          float64 `json:"avgWin"`
	AvgLoss         float64 `json:"avgLoss"`
	AvgWinLossRatio float64 `json:"avgWinLossRatio"`
	LargestWin      float64 `json:"largestWin"`
	LargestLoss     float64 `json:"largestLoss"`

	MaxConsecutiveWins   int `json:"maxConsecutiveWins"`
	MaxConsecutiveLosses int `json:"maxConsecutiveLosses"`

	MaxDrawdownPct      float64 `json:"maxDrawdownPct"`
	MaxDrawdownDuration int     `json:"maxDrawdownDuration"`
	RecoveryFactor      float64 `json:"recoveryFactor"`

	SharpeRatio  float64 `json:"sharpeRatio"`
	SortinoRatio float64 `json:"sortinoRatio"`

	AvgTradeDurationHours float64            `json:"avgTradeDurationHours"`
	MonthlyReturns        map[string]float64 `json:"monthlyReturns"`

	PerSymbol map[string]*Metrics `json:"perSymbol,omitempty"`
}

// CalculateMetrics computes the full report. Inputs are never mutated.
func CalculateMetrics(trades []Trade, equityCurve []EquityPoint, initialCapital float64) *Metrics {
	return calcMetrics(trades, equityCurve, initialCapital, true)
}

func calcMetrics(trades []Trade, equityCurve []EquityPoint, initialCapital float64, withPerSymbol bool) *Metrics {
	m := &Metrics{MonthlyReturns: map[string]float64{}}

	// ---- Trade statistics (sells only) ----
	var (
		grossProfit, grossLoss float64
		winStreak, lossStreak  int
	)
	for _, t := range trades {
		if t.RealizedPnL == nil {
			continue
		}
		pnl := *t.RealizedPnL
		m.TotalTrades++
		switch {
		case pnl > 0:
			m.WinningTrades++
			grossProfit += pnl
			winStreak++
			lossStreak = 0
			if pnl > m.LargestWin {
				m.LargestWin = pnl
			}
		case pnl < 0:
			m.LosingTrades++
			grossLoss += -pnl
			lossStreak++
			winStreak = 0
			if pnl < m.LargestLoss {
				m.LargestLoss = pnl
			}
		default:
			winStreak, lossStreak = 0, 0
		}
		if winStreak > m.MaxConsecutiveWins {
			m.MaxConsecutiveWins = winStreak
		}
		if lossStreak > m.MaxConsecutiveLosses {
			m.MaxConsecutiveLosses = lossStreak
		}
	}

	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
	}
	m.ProfitFactor = sentinelRatio(grossProfit, grossLoss)
	if m.WinningTrades > 0 {
		m.AvgWin = grossProfit / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = grossLoss / float64(m.LosingTrades)
	}
	m.AvgWinLossRatio = sentinelRatio(m.AvgWin, m.AvgLoss)

	// ---- Equity statistics ----
	if n := len(equityCurve); n > 0 {
		m.TotalReturn = equityCurve[n-1].Value - initialCapital
	}
	if initialCapital != 0 {
		m.TotalReturnPct = m.TotalReturn / initialCapital * 100.0
	}

	m.MaxDrawdownPct, m.MaxDrawdownDuration = maxDrawdown(equityCurve)
	if m.MaxDrawdownPct > 0 {
		m.RecoveryFactor = m.TotalReturnPct / m.MaxDrawdownPct
	}

	returns := dailyReturns(equityCurve)
	m.SharpeRatio = sharpeRatio(returns)
	m.SortinoRatio = sortinoRatio(returns)
	m.AvgTradeDurationHours = avgTradeDurationHours(trades)
	m.MonthlyReturns = monthlyReturns(equityCurve)

	// ---- Per-symbol breakdown ----
	if withPerSymbol {
		m.PerSymbol = perSymbolMetrics(trades, initialCapital)
	}
	return m
}

// sentinelRatio divides num by denom, standing in 9999.99 (profit, zero
// denominator) or 0 (nothing at all) for the infinite cases.
func sentinelRatio(num, denom float64) float64 {
	if denom == 0 {
		if num > 0 {
			return ratioSentinel
		}
		return 0
	}
	return num / denom
}

// maxDrawdown walks the curve once, tracking the running peak and its index.
// Duration is the index distance from peak to trough.
func maxDrawdown(curve []EquityPoint) (float64, int) {
	var maxDD float64
	var duration int
	peak := math.Inf(-1)
	peakIdx := 0
	for i, p := range curve {
		if p.Value > peak {
			peak = p.Value
			peakIdx = i
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - p.Value) / peak * 100.0
		if dd > maxDD {
			maxDD = dd
			duration = i - peakIdx
		}
	}
	return maxDD, duration
}

// dailyReturns is the simple % delta between consecutive equity points.
func dailyReturns(curve []EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Value
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (curve[i].Value-prev)/prev)
	}
	return out
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// popStdDev is the population standard deviation (divide by N, not N-1).
func popStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := meanOf(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	sd := popStdDev(returns)
	if sd == 0 {
		return 0
	}
	return meanOf(returns) / sd * math.Sqrt(tradingDaysPerYear)
}

// sortinoRatio reuses the full-series mean over a downside deviation built
// from negative returns only (zero target). 0 when nothing is negative.
func sortinoRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	var negSS float64
	var negN int
	for _, r := range returns {
		if r < 0 {
			negSS += r * r
			negN++
		}
	}
	if negN == 0 {
		return 0
	}
	downside := math.Sqrt(negSS / float64(negN))
	if downside == 0 {
		return 0
	}
	return meanOf(returns) / downside * math.Sqrt(tradingDaysPerYear)
}

// avgTradeDurationHours matches each sell to the oldest still-open buy via an
// independent per-symbol FIFO queue of buy timestamps. Partial fills spanning
// multiple buys are not split across them.
func avgTradeDurationHours(trades []Trade) float64 {
	openBuys := map[string][]time.Time{}
	var totalHours float64
	var matched int
	for _, t := range trades {
		switch t.Side {
		case SideBuy:
			openBuys[t.Symbol] = append(openBuys[t.Symbol], t.Timestamp)
		case SideSell:
			q := openBuys[t.Symbol]
			if len(q) == 0 {
				continue
			}
			totalHours += t.Timestamp.Sub(q[0]).Hours()
			openBuys[t.Symbol] = q[1:]
			matched++
		}
	}
	if matched == 0 {
		return 0
	}
	return totalHours / float64(matched)
}

// monthlyReturns groups equity points by year-month (dates are YYYY-MM-DD, so
// the key is the first 7 bytes) and reports (last-first)/first within each.
func monthlyReturns(curve []EquityPoint) map[string]float64 {
	first := map[string]float64{}
	last := map[string]float64{}
	for _, p := range curve {
		if len(p.Date) < 7 {
			continue
		}
		month := p.Date[:7]
		if _, ok := first[month]; !ok {
			first[month] = p.Value
		}
		last[month] = p.Value
	}
	out := make(map[string]float64, len(first))
	for month, f := range first {
		if f == 0 {
			out[month] = 0
			continue
		}
		out[month] = (last[month] - f) / f * 100.0
	}
	return out
}

// perSymbolMetrics recomputes the report per symbol with an empty equity
// curve, then overrides the return fields with the symbol's summed realized
// PnL.
func perSymbolMetrics(trades []Trade, initialCapital float64) map[string]*Metrics {
	bySymbol := map[string][]Trade{}
	order := []string{}
	for _, t := range trades {
		if _, ok := bySymbol[t.Symbol]; !ok {
			order = append(order, t.Symbol)
		}
		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], t)
	}
	if len(order) == 0 {
		return nil
	}
	out := make(map[string]*Metrics, len(order))
	for _, sym := range order {
		sm := calcMetrics(bySymbol[sym], nil, initialCapital, false)
		var realized float64
		for _, t := range bySymbol[sym] {
			if t.RealizedPnL != nil {
				realized += *t.RealizedPnL
			}
		}
		sm.TotalReturn = realized
		sm.TotalReturnPct = 0
		if initialCapital != 0 {
			sm.TotalReturnPct = realized / initialCapital * 100.0
		}
		out[sym] = sm
	}
	return out
}
