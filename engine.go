// FILE: engine.go
// Package main – Chronological replay driver (one backtest run).
//
// The engine orchestrates: fetch historical ticks (injected, async) → group
// by calendar date → per date run the analysis capability (injected, async),
// filter anomalies, generate/risk-check/execute trades, snapshot equity and
// emit a progress event → finally compute metrics.
//
// Concurrency design:
//   - Strictly sequential: the only suspension points are the injected fetch
//     and the one analysis call per date, both fully awaited. Everything in
//     between is synchronous, so trade order is exactly date-ascending then
//     anomaly-array order — the risk state (daily counter, cooldown) depends
//     on that order.
//   - Cancellation is cooperative polling of an atomic flag after fetch,
//     after grouping, around every date, and before every anomaly. An
//     in-flight injected call is always awaited; its result is discarded at
//     the next checkpoint, and an injected call failing because the caller's
//     context was cancelled reports the run as cancelled, not failed.
//
// Status transitions exactly once: running → completed | failed | cancelled.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync/atomic"
	"time"
)

// FetchFunc is the historical-data capability the engine consumes.
type FetchFunc func(ctx context.Context, symbols []string, start, end time.Time, timeframe string) ([]Tick, error)

// AnalyzeFunc turns one date's ticks into anomalies.
type AnalyzeFunc func(ctx context.Context, ticks []Tick) ([]Anomaly, error)

// Engine runs one backtest. Instantiate fresh per run (it owns a Ledger).
type Engine struct {
	cfg        Config
	fetch      FetchFunc
	analyze    AnalyzeFunc
	onProgress func(Progress)
	cancelled  atomic.Bool

	ledger *Ledger
	risk   *RiskManager
	gen    *TradeGenerator
}

func NewEngine(cfg Config, fetch FetchFunc, analyze AnalyzeFunc) *Engine {
	return &Engine{
		cfg:     cfg,
		fetch:   fetch,
		analyze: analyze,
		ledger:  NewLedger(cfg.ID, cfg.InitialCapital),
		risk:    NewRiskManager(cfg.RiskLimits),
		gen:     NewTradeGenerator(cfg),
	}
}

// OnProgress registers the per-date progress callback (optional).
func (e *Engine) OnProgress(fn func(Progress)) { e.onProgress = fn }

// Cancel requests cooperative cancellation. Safe from any goroutine; the run
// loop observes it at its fixed checkpoints.
func (e *Engine) Cancel() { e.cancelled.Store(true) }

// wasCancelled classifies an injected-call error as a cancellation: either
// the flag is already set, or the error is the caller's context being
// cancelled (the signal goroutine in main.go may set the flag a beat later).
func (e *Engine) wasCancelled(err error) bool {
	return e.cancelled.Load() || errors.Is(err, context.Canceled)
}

// dayGroup is one calendar date's ticks, in input order.
type dayGroup struct {
	date  string // YYYY-MM-DD
	ticks []Tick
}

// Run executes the backtest and returns the terminal Result.
func (e *Engine) Run(ctx context.Context) *Result {
	res := &Result{
		ID:          e.cfg.ID,
		Config:      e.cfg,
		Status:      StatusRunning,
		Trades:      []Trade{},
		EquityCurve: []EquityPoint{},
		CreatedAt:   time.Now().UnixMilli(),
	}

	log.Printf("[INFO] backtest %s: fetching symbols=%v range=%s..%s tf=%s",
		e.cfg.ID, e.cfg.Symbols, fmtDate(e.cfg.StartDate), fmtDate(e.cfg.EndDate), e.cfg.Timeframe)

	ticks, err := e.fetch(ctx, e.cfg.Symbols, e.cfg.StartDate, e.cfg.EndDate, e.cfg.Timeframe)
	if err != nil {
		if e.wasCancelled(err) {
			return e.finishCancelled(res)
		}
		return e.finishFailed(res, fmt.Errorf("fetch: %w", err))
	}
	if e.cancelled.Load() {
		return e.finishCancelled(res)
	}

	res.TotalTicks = len(ticks)
	if len(ticks) == 0 {
		log.Printf("[INFO] backtest %s: no ticks in range; completing with empty metrics", e.cfg.ID)
		res.Metrics = CalculateMetrics(nil, nil, e.cfg.InitialCapital)
		return e.finishCompleted(res)
	}

	days := groupTicksByDate(ticks)
	if e.cancelled.Load() {
		return e.finishCancelled(res)
	}

	processed := 0
	anomaliesFound := 0
	for _, day := range days {
		if e.cancelled.Load() {
			return e.finishCancelled(res)
		}

		// The daily trade counter resets on every new date.
		tradesToday := 0

		anomalies, err := e.analyze(ctx, day.ticks)
		if err != nil {
			if e.wasCancelled(err) {
				return e.finishCancelled(res)
			}
			return e.finishFailed(res, fmt.Errorf("analysis %s: %w", day.date, err))
		}

		kept := e.filterAnomalies(anomalies)
		anomaliesFound += len(kept)
		prices := closingPrices(day.ticks)

		for _, a := range kept {
			if e.cancelled.Load() {
				return e.finishCancelled(res)
			}
			tradesToday += e.processAnomaly(a, prices, tradesToday, day.date)
		}

		processed += len(day.ticks)
		res.TicksProcessed = processed
		point := e.ledger.Snapshot(day.date, prices)
		SetEquityMetric(point.Value)
		AddTicksProcessedMetric(len(day.ticks))
		e.emitProgress(Progress{
			TicksProcessed: processed,
			TotalTicks:     res.TotalTicks,
			AnomaliesFound: anomaliesFound,
			TradesExecuted: e.ledger.TradeCount(),
			CurrentDate:    day.date,
		})

		// A cancel landing during this date (e.g. while analysis was
		// awaited) must not let the run complete.
		if e.cancelled.Load() {
			return e.finishCancelled(res)
		}
	}

	res.Trades = e.ledger.Trades()
	res.EquityCurve = e.ledger.EquityCurve()
	res.Metrics = CalculateMetrics(res.Trades, res.EquityCurve, e.cfg.InitialCapital)
	return e.finishCompleted(res)
}

// processAnomaly runs generate → risk check → execute for one anomaly and
// returns 1 if a trade filled. Rejections and no-ops just move on.
func (e *Engine) processAnomaly(a Anomaly, prices map[string]float64, tradesToday int, date string) int {
	order, ok := e.gen.Generate(a, e.ledger.Position)
	if !ok {
		return 0
	}
	px, ok := prices[order.Symbol]
	if !ok {
		log.Printf("TRACE engine.skip date=%s symbol=%s reason=no_price", date, order.Symbol)
		return 0
	}

	ts := a.Timestamp
	if ts.IsZero() {
		ts, _ = time.Parse("2006-01-02", date)
	}

	value := e.ledger.PortfolioValue(prices)
	rctx := RiskContext{
		PortfolioValue:  value,
		CurrentExposure: value - e.ledger.Cash(),
		TradesToday:     tradesToday,
		Now:             ts,
	}
	if last := e.ledger.LastTrade(); last != nil {
		rctx.LastTradeAt = last.Timestamp
		rctx.LastTradeSymbol = last.Symbol
	}

	verdict := e.risk.Check(order, px, rctx)
	if !verdict.Approved {
		for _, rule := range verdict.Violations {
			IncViolationMetric(rule)
		}
		log.Printf("TRACE risk.block date=%s symbol=%s side=%s violations=%v", date, order.Symbol, order.Side, verdict.Violations)
		return 0
	}

	exec := e.ledger.Execute(order, px, ts)
	if !exec.Executed() {
		IncRejectedMetric(exec.Reason)
		log.Printf("TRACE ledger.reject date=%s symbol=%s side=%s reason=%s", date, order.Symbol, order.Side, exec.Reason)
		return 0
	}
	IncTradeMetric(exec.Trade.Side)
	log.Printf("[TRADE] %s %s qty=%.4f px=%.4f cash=%.2f (%s)",
		exec.Trade.Side, exec.Trade.Symbol, exec.Trade.Qty, exec.Trade.FillPrice, e.ledger.Cash(), exec.Trade.Rationale)
	return 1
}

// filterAnomalies keeps anomalies at/above the severity threshold whose
// confidence (pre-screen score) meets the configured minimum.
func (e *Engine) filterAnomalies(anomalies []Anomaly) []Anomaly {
	kept := make([]Anomaly, 0, len(anomalies))
	for _, a := range anomalies {
		if a.Severity.Rank() < e.cfg.SeverityThreshold.Rank() {
			continue
		}
		if a.PreScreenScore < e.cfg.ConfidenceThreshold {
			continue
		}
		IncAnomalyMetric(a.Severity)
		kept = append(kept, a)
	}
	return kept
}

func (e *Engine) emitProgress(p Progress) {
	log.Printf("[BT] %s ticks=%d/%d anomalies=%d trades=%d",
		p.CurrentDate, p.TicksProcessed, p.TotalTicks, p.AnomaliesFound, p.TradesExecuted)
	if e.onProgress != nil {
		e.onProgress(p)
	}
}

// ---- Terminal transitions (each fires at most once per run) ----

func (e *Engine) finishCompleted(res *Result) *Result {
	res.Status = StatusCompleted
	res.CompletedAt = time.Now().UnixMilli()
	IncRunMetric(StatusCompleted)
	return res
}

func (e *Engine) finishFailed(res *Result, err error) *Result {
	res.Status = StatusFailed
	res.Error = err.Error()
	res.CompletedAt = time.Now().UnixMilli()
	IncRunMetric(StatusFailed)
	log.Printf("[WARN] backtest %s failed: %v", e.cfg.ID, err)
	return res
}

// finishCancelled leaves Trades/EquityCurve as already assigned — they are
// only populated at normal completion, so a cancelled Result reports them
// empty even though the ledger recorded activity before the checkpoint.
func (e *Engine) finishCancelled(res *Result) *Result {
	res.Status = StatusCancelled
	res.CompletedAt = time.Now().UnixMilli()
	IncRunMetric(StatusCancelled)
	log.Printf("[INFO] backtest %s cancelled", e.cfg.ID)
	return res
}

// ---- Grouping helpers ----

// groupTicksByDate buckets ticks by UTC calendar date, dates ascending,
// preserving input order within a date.
func groupTicksByDate(ticks []Tick) []dayGroup {
	byDate := map[string][]Tick{}
	for _, t := range ticks {
		d := t.Timestamp.UTC().Format("2006-01-02")
		byDate[d] = append(byDate[d], t)
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	out := make([]dayGroup, 0, len(dates))
	for _, d := range dates {
		out = append(out, dayGroup{date: d, ticks: byDate[d]})
	}
	return out
}

// closingPrices is the last observed close (fallback: price) per symbol for
// one date's ticks.
func closingPrices(ticks []Tick) map[string]float64 {
	prices := map[string]float64{}
	for _, t := range ticks {
		if t.Symbol == "" {
			continue
		}
		if px, ok := t.Metrics["close"]; ok {
			prices[t.Symbol] = px
		} else if px, ok := t.Metrics["price"]; ok {
			prices[t.Symbol] = px
		}
	}
	return prices
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return "*"
	}
	return t.Format("2006-01-02")
}
