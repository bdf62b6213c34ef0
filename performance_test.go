// FILE: performance_test.go
// Metrics conventions: sells-only counting, sentinel ratios, drawdown in
// curve points, population Sharpe/Sortino, per-symbol overrides, purity.

package main

import (
	"math"
	"testing"
	"time"
)

func pnlPtr(v float64) *float64 { return &v }

func sellTrade(sym string, pnl float64) Trade {
	return Trade{Symbol: sym, Side: SideSell, Qty: 1, FillPrice: 100, RealizedPnL: pnlPtr(pnl)}
}

func buyTrade(sym string) Trade {
	return Trade{Symbol: sym, Side: SideBuy, Qty: 1, FillPrice: 100}
}

func curveOf(dates []string, values []float64) []EquityPoint {
	out := make([]EquityPoint, len(values))
	for i := range values {
		out[i] = EquityPoint{Date: dates[i], Value: values[i]}
	}
	return out
}

func TestMetricsTradeStats(t *testing.T) {
	// Two wins (+100, +100) and one loss (-50): PF = 200/50 = 4.0.
	trades := []Trade{
		buyTrade("AAPL"), // buys never count
		sellTrade("AAPL", 100),
		sellTrade("AAPL", 100),
		sellTrade("AAPL", -50),
	}
	m := CalculateMetrics(trades, nil, 100000)

	if m.TotalTrades != 3 {
		t.Fatalf("totalTrades = %d, want 3 (sells only)", m.TotalTrades)
	}
	if m.WinningTrades != 2 || m.LosingTrades != 1 {
		t.Fatalf("wins/losses = %d/%d, want 2/1", m.WinningTrades, m.LosingTrades)
	}
	if !approxEq(m.WinRate, 2.0/3.0, 1e-12) {
		t.Fatalf("winRate = %v, want 2/3", m.WinRate)
	}
	if !approxEq(m.ProfitFactor, 4.0, 1e-12) {
		t.Fatalf("profitFactor = %v, want 4.0", m.ProfitFactor)
	}
	if m.AvgWin != 100 || m.AvgLoss != 50 {
		t.Fatalf("avgWin/avgLoss = %v/%v, want 100/50", m.AvgWin, m.AvgLoss)
	}
	if !approxEq(m.AvgWinLossRatio, 2.0, 1e-12) {
		t.Fatalf("avgWinLossRatio = %v, want 2.0", m.AvgWinLossRatio)
	}
	if m.LargestWin != 100 || m.LargestLoss != -50 {
		t.Fatalf("largest win/loss = %v/%v, want 100/-50", m.LargestWin, m.LargestLoss)
	}
	if m.MaxConsecutiveWins != 2 || m.MaxConsecutiveLosses != 1 {
		t.Fatalf("streaks = %d/%d, want 2/1", m.MaxConsecutiveWins, m.MaxConsecutiveLosses)
	}
}

func TestMetricsSentinelRatios(t *testing.T) {
	// All winners: infinite profit factor reports the sentinel.
	m := CalculateMetrics([]Trade{sellTrade("A", 100), sellTrade("A", 50)}, nil, 100000)
	if m.ProfitFactor != 9999.99 {
		t.Fatalf("profitFactor = %v, want 9999.99 sentinel", m.ProfitFactor)
	}
	if m.AvgWinLossRatio != 9999.99 {
		t.Fatalf("avgWinLossRatio = %v, want 9999.99 sentinel", m.AvgWinLossRatio)
	}

	// No trades at all: zeros, not sentinels.
	m = CalculateMetrics(nil, nil, 100000)
	if m.ProfitFactor != 0 || m.AvgWinLossRatio != 0 {
		t.Fatalf("empty metrics = PF %v ratio %v, want 0/0", m.ProfitFactor, m.AvgWinLossRatio)
	}

	// All losers: 0, not a negative sentinel.
	m = CalculateMetrics([]Trade{sellTrade("A", -10)}, nil, 100000)
	if m.ProfitFactor != 0 {
		t.Fatalf("all-loss profitFactor = %v, want 0", m.ProfitFactor)
	}
}

func TestMetricsMaxDrawdown(t *testing.T) {
	// Peak 105000 at index 1, trough 95000 at index 2.
	curve := curveOf(
		[]string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"},
		[]float64{100000, 105000, 95000, 102000},
	)
	m := CalculateMetrics(nil, curve, 100000)

	wantDD := 10000.0 / 105000.0 * 100.0 // ≈ 9.5238
	if !approxEq(m.MaxDrawdownPct, wantDD, 1e-9) {
		t.Fatalf("maxDrawdownPct = %v, want %v", m.MaxDrawdownPct, wantDD)
	}
	if m.MaxDrawdownDuration != 1 {
		t.Fatalf("maxDrawdownDuration = %d curve points, want 1", m.MaxDrawdownDuration)
	}
	if !approxEq(m.TotalReturn, 2000, 1e-9) {
		t.Fatalf("totalReturn = %v, want 2000", m.TotalReturn)
	}
	if !approxEq(m.TotalReturnPct, 2.0, 1e-9) {
		t.Fatalf("totalReturnPct = %v, want 2.0", m.TotalReturnPct)
	}
	if !approxEq(m.RecoveryFactor, 2.0/wantDD, 1e-9) {
		t.Fatalf("recoveryFactor = %v, want %v", m.RecoveryFactor, 2.0/wantDD)
	}
}

func TestMetricsMonotonicCurveHasNoDrawdown(t *testing.T) {
	curve := curveOf(
		[]string{"2024-01-02", "2024-01-03", "2024-01-04"},
		[]float64{100, 110, 120},
	)
	m := CalculateMetrics(nil, curve, 100)
	if m.MaxDrawdownPct != 0 || m.MaxDrawdownDuration != 0 {
		t.Fatalf("drawdown on rising curve = %v/%d, want 0/0", m.MaxDrawdownPct, m.MaxDrawdownDuration)
	}
	if m.RecoveryFactor != 0 {
		t.Fatalf("recoveryFactor without drawdown = %v, want 0", m.RecoveryFactor)
	}
}

func TestMetricsSharpeAndSortino(t *testing.T) {
	// Returns: +10% then -5%. mean=0.025, population sd=0.075,
	// downside deviation over the single negative return = 0.05.
	curve := curveOf(
		[]string{"2024-01-02", "2024-01-03", "2024-01-04"},
		[]float64{100, 110, 104.5},
	)
	m := CalculateMetrics(nil, curve, 100)

	ann := math.Sqrt(252.0)
	wantSharpe := 0.025 / 0.075 * ann
	if !approxEq(m.SharpeRatio, wantSharpe, 1e-9) {
		t.Fatalf("sharpe = %v, want %v", m.SharpeRatio, wantSharpe)
	}
	wantSortino := 0.025 / 0.05 * ann
	if !approxEq(m.SortinoRatio, wantSortino, 1e-9) {
		t.Fatalf("sortino = %v, want %v", m.SortinoRatio, wantSortino)
	}
}

func TestMetricsSharpeEdgeCases(t *testing.T) {
	// Fewer than 2 returns → 0.
	short := curveOf([]string{"2024-01-02", "2024-01-03"}, []float64{100, 110})
	if m := CalculateMetrics(nil, short, 100); m.SharpeRatio != 0 || m.SortinoRatio != 0 {
		t.Fatalf("single-return ratios = %v/%v, want 0/0", m.SharpeRatio, m.SortinoRatio)
	}

	// Constant returns → zero std dev → 0 (never NaN/Inf).
	flat := curveOf(
		[]string{"2024-01-02", "2024-01-03", "2024-01-04"},
		[]float64{100, 110, 121},
	)
	m := CalculateMetrics(nil, flat, 100)
	if m.SharpeRatio != 0 {
		t.Fatalf("zero-variance sharpe = %v, want 0", m.SharpeRatio)
	}
	// No negative returns → Sortino 0.
	if m.SortinoRatio != 0 {
		t.Fatalf("no-downside sortino = %v, want 0", m.SortinoRatio)
	}
}

func TestMetricsAvgTradeDuration(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	trades := []Trade{
		{Symbol: "A", Side: SideBuy, Timestamp: t0},
		{Symbol: "A", Side: SideSell, Timestamp: t0.Add(48 * time.Hour), RealizedPnL: pnlPtr(10)},
		{Symbol: "B", Side: SideBuy, Timestamp: t0},
		{Symbol: "B", Side: SideSell, Timestamp: t0.Add(24 * time.Hour), RealizedPnL: pnlPtr(-5)},
	}
	m := CalculateMetrics(trades, nil, 100000)
	if !approxEq(m.AvgTradeDurationHours, 36, 1e-9) {
		t.Fatalf("avgTradeDurationHours = %v, want 36", m.AvgTradeDurationHours)
	}
}

func TestMetricsMonthlyReturns(t *testing.T) {
	curve := curveOf(
		[]string{"2024-01-02", "2024-01-31", "2024-02-01", "2024-02-29"},
		[]float64{100, 110, 110, 99},
	)
	m := CalculateMetrics(nil, curve, 100)

	if got := m.MonthlyReturns["2024-01"]; !approxEq(got, 10.0, 1e-9) {
		t.Fatalf("2024-01 return = %v, want 10", got)
	}
	if got := m.MonthlyReturns["2024-02"]; !approxEq(got, -10.0, 1e-9) {
		t.Fatalf("2024-02 return = %v, want -10", got)
	}
	if len(m.MonthlyReturns) != 2 {
		t.Fatalf("months = %d, want 2", len(m.MonthlyReturns))
	}
}

func TestMetricsPerSymbol(t *testing.T) {
	trades := []Trade{
		buyTrade("AAPL"),
		sellTrade("AAPL", 100),
		sellTrade("AAPL", -40),
		buyTrade("MSFT"),
		sellTrade("MSFT", 30),
	}
	curve := curveOf([]string{"2024-01-02", "2024-01-03"}, []float64{100000, 100090})
	m := CalculateMetrics(trades, curve, 100000)

	if len(m.PerSymbol) != 2 {
		t.Fatalf("perSymbol entries = %d, want 2", len(m.PerSymbol))
	}
	aapl := m.PerSymbol["AAPL"]
	if aapl == nil || aapl.TotalTrades != 2 {
		t.Fatalf("AAPL trades = %+v, want 2 sells", aapl)
	}
	if !approxEq(aapl.TotalReturn, 60, 1e-9) {
		t.Fatalf("AAPL totalReturn = %v, want 60 (summed realized PnL)", aapl.TotalReturn)
	}
	// Equity-derived stats are zeroed in the per-symbol breakdown.
	if aapl.SharpeRatio != 0 || aapl.MaxDrawdownPct != 0 {
		t.Fatalf("AAPL equity stats = %v/%v, want 0/0", aapl.SharpeRatio, aapl.MaxDrawdownPct)
	}
	if aapl.PerSymbol != nil {
		t.Fatal("per-symbol metrics must not nest another perSymbol map")
	}

	// Σ per-symbol totalReturn == Σ sell PnLs.
	var symSum, pnlSum float64
	for _, sm := range m.PerSymbol {
		symSum += sm.TotalReturn
	}
	for _, tr := range trades {
		if tr.RealizedPnL != nil {
			pnlSum += *tr.RealizedPnL
		}
	}
	if !approxEq(symSum, pnlSum, 1e-9) {
		t.Fatalf("Σ perSymbol totalReturn %v != Σ sell PnL %v", symSum, pnlSum)
	}
}

func TestMetricsPureAndDeterministic(t *testing.T) {
	trades := []Trade{buyTrade("A"), sellTrade("A", 10)}
	curve := curveOf([]string{"2024-01-02", "2024-01-03"}, []float64{100, 110})

	a := CalculateMetrics(trades, curve, 100)
	b := CalculateMetrics(trades, curve, 100)
	if a.TotalReturn != b.TotalReturn || a.SharpeRatio != b.SharpeRatio || a.WinRate != b.WinRate {
		t.Fatal("identical inputs must produce identical metrics")
	}
	// Inputs untouched.
	if trades[1].RealizedPnL == nil || *trades[1].RealizedPnL != 10 {
		t.Fatal("CalculateMetrics mutated its trade input")
	}
	if curve[0].Value != 100 {
		t.Fatal("CalculateMetrics mutated its curve input")
	}
}

func TestMetricsEmptyInputs(t *testing.T) {
	m := CalculateMetrics(nil, nil, 100000)
	if m.TotalTrades != 0 || m.TotalReturn != 0 || m.WinRate != 0 {
		t.Fatalf("empty metrics not zeroed: %+v", m)
	}
	if m.MonthlyReturns == nil {
		t.Fatal("monthlyReturns must be an empty map, not nil")
	}
	if m.PerSymbol != nil {
		t.Fatal("perSymbol must be nil with no trades")
	}
}
