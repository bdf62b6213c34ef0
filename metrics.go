// FILE: metrics.go
// Package main – Prometheus metrics for observability.
//
// Exposes the primary metrics the backtester updates during a run:
//   • backtest_runs_total{status}          – Runs by terminal status
//   • backtest_trades_total{side}          – Simulated fills by side
//   • backtest_orders_rejected_total{reason} – Ledger rejections by reason
//   • backtest_risk_violations_total{rule} – Risk-rule violations by rule
//   • backtest_anomalies_total{severity}   – Anomalies surviving the filter
//   • backtest_equity_usd                  – Equity at the latest snapshot (gauge)
//   • backtest_ticks_processed_total       – Replayed ticks
//
// These are registered in init() and served by the HTTP handler started in
// main.go at /metrics (Prometheus text exposition format).

package main

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_runs_total",
			Help: "Backtest runs by terminal status",
		},
		[]string{"status"},
	)

	mtxTrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_trades_total",
			Help: "Simulated fills by side",
		},
		[]string{"side"}, // BUY|SELL
	)

	mtxRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_orders_rejected_total",
			Help: "Orders the ledger rejected, by reason",
		},
		[]string{"reason"},
	)

	mtxViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_risk_violations_total",
			Help: "Risk-rule violations by rule name",
		},
		[]string{"rule"},
	)

	mtxAnomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_anomalies_total",
			Help: "Anomalies surviving the severity/confidence filter",
		},
		[]string{"severity"},
	)

	mtxEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backtest_equity_usd",
			Help: "Portfolio equity at the latest snapshot",
		},
	)

	mtxTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "backtest_ticks_processed_total",
			Help: "Historical ticks replayed",
		},
	)
)

func init() {
	prometheus.MustRegister(mtxRuns, mtxTrades, mtxRejected, mtxViolations, mtxAnomalies)
	prometheus.MustRegister(mtxEquity, mtxTicks)
}

// Helper setters (keep call sites one-liners)
func IncRunMetric(status RunStatus) { mtxRuns.WithLabelValues(string(status)).Inc() }

func IncTradeMetric(side OrderSide) { mtxTrades.WithLabelValues(string(side)).Inc() }

func IncRejectedMetric(reason RejectReason) { mtxRejected.WithLabelValues(string(reason)).Inc() }

func IncViolationMetric(rule string) { mtxViolations.WithLabelValues(rule).Inc() }

func IncAnomalyMetric(sev Severity) { mtxAnomalies.WithLabelValues(string(sev)).Inc() }

func SetEquityMetric(v float64) { mtxEquity.Set(v) }

func AddTicksProcessedMetric(n int) { mtxTicks.Add(float64(n)) }
