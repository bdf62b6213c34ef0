// FILE: report.go
// Package main – End-of-run summary logging.
//
// printSummary writes the human-readable wrap-up for one Result. Everything
// here is derived; the Result itself is the artifact of record.

package main

import "log"

func printSummary(res *Result) {
	switch res.Status {
	case StatusFailed:
		log.Printf("Backtest %s FAILED: %s", res.ID, res.Error)
		return
	case StatusCancelled:
		log.Printf("Backtest %s cancelled after %d/%d ticks", res.ID, res.TicksProcessed, res.TotalTicks)
		return
	}

	m := res.Metrics
	if m == nil {
		log.Printf("Backtest %s complete (no metrics)", res.ID)
		return
	}
	log.Printf("Backtest %s complete. Trades=%d WinRate=%.1f%% Return=%.2f (%.2f%%)",
		res.ID, m.TotalTrades, m.WinRate*100, m.TotalReturn, m.TotalReturnPct)
	log.Printf("  profitFactor=%.2f maxDD=%.2f%% (%d pts) sharpe=%.2f sortino=%.2f avgHold=%.1fh",
		m.ProfitFactor, m.MaxDrawdownPct, m.MaxDrawdownDuration, m.SharpeRatio, m.SortinoRatio, m.AvgTradeDurationHours)
	for sym, sm := range m.PerSymbol {
		log.Printf("  %-8s trades=%d winRate=%.1f%% pnl=%.2f", sym, sm.TotalTrades, sm.WinRate*100, sm.TotalReturn)
	}
}
