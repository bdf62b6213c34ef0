// FILE: types.go
// Package main – Core data types shared across the backtester.
//
// What’s here:
//   • Tick      – one normalized observation from a market-data source
//   • Severity  – ordinal anomaly rank (low < medium < high < critical)
//   • Anomaly   – one detected irregularity with metrics + confidence
//   • Order     – ephemeral proposal (generator → risk → ledger)
//   • Trade     – append-only audit record of one executed fill
//   • Lot / Position / EquityPoint – portfolio building blocks
//   • Progress / Result / RunStatus – per-run reporting surface
//
// JSON tags are camelCase to match the persisted run documents.

package main

import (
	"strings"
	"time"
)

// OrderSide is the side of a trade.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderTypeMarket is the only order type the simulator fills.
const OrderTypeMarket = "market"

// Severity ranks anomalies. Threshold comparisons use Rank(), never string order.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRanks = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordinal for threshold comparisons; unknown values rank lowest.
func (s Severity) Rank() int { return severityRanks[s] }

// ParseSeverity normalizes a severity string, falling back to def when unknown.
func ParseSeverity(v string, def Severity) Severity {
	s := Severity(strings.ToLower(strings.TrimSpace(v)))
	if _, ok := severityRanks[s]; ok {
		return s
	}
	return def
}

// Tick is one observation per source/symbol/timestamp. Metrics carries the
// numeric columns (open/high/low/close/volume, …). Read-only for the engine.
type Tick struct {
	SourceID  string             `json:"sourceId"`
	Symbol    string             `json:"symbol,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Anomaly is one irregularity produced by the analysis step.
// PreScreenScore doubles as the anomaly's confidence (0..1).
type Anomaly struct {
	ID             string             `json:"id"`
	Severity       Severity           `json:"severity"`
	Source         string             `json:"source"`
	Symbol         string             `json:"symbol,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
	Description    string             `json:"description"`
	Metrics        map[string]float64 `json:"metrics"`
	PreScreenScore float64            `json:"preScreenScore"`
	SessionID      string             `json:"sessionId"`
}

// Order is produced by the TradeGenerator and consumed immediately; it is
// never persisted. Confidence is the generator's conviction, not the anomaly's.
type Order struct {
	Symbol     string
	Side       OrderSide
	Qty        float64
	Type       string
	Rationale  string
	Confidence float64
	AnomalyID  string
}

// Lot is one buy fill's remaining quantity/price, consumed FIFO by later sells.
type Lot struct {
	Qty       float64   `json:"qty"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Position is the per-symbol holding. Invariant: Qty == Σ Lots[i].Qty.
type Position struct {
	Symbol   string  `json:"symbol"`
	Qty      float64 `json:"qty"`
	AvgEntry float64 `json:"avgEntry"`
	Lots     []Lot   `json:"lots"`
}

// Trade is the append-only audit record of one fill.
// RealizedPnL is nil for buys and set for sells — never any other combination.
type Trade struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Side        OrderSide `json:"side"`
	Qty         float64   `json:"qty"`
	FillPrice   float64   `json:"fillPrice"`
	Timestamp   time.Time `json:"timestamp"`
	AnomalyID   string    `json:"anomalyId,omitempty"`
	Rationale   string    `json:"rationale,omitempty"`
	RealizedPnL *float64  `json:"realizedPnl"`
}

// EquityPoint is one point of the equity curve; Date is a YYYY-MM-DD day key
// and the curve is strictly date-ascending.
type EquityPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Progress is emitted once per processed date.
type Progress struct {
	TicksProcessed int    `json:"ticksProcessed"`
	TotalTicks     int    `json:"totalTicks"`
	AnomaliesFound int    `json:"anomaliesFound"`
	TradesExecuted int    `json:"tradesExecuted"`
	CurrentDate    string `json:"currentDate"`
}

// RunStatus transitions exactly once: running → completed | failed | cancelled.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusCancelled RunStatus = "cancelled"
)

// Result is the final run document. Once the status is terminal the Result is
// immutable; Metrics stays nil unless the run completed.
type Result struct {
	ID             string        `json:"id"`
	Config         Config        `json:"config"`
	Status         RunStatus     `json:"status"`
	Metrics        *Metrics      `json:"metrics,omitempty"`
	Trades         []Trade       `json:"trades"`
	EquityCurve    []EquityPoint `json:"equityCurve"`
	TicksProcessed int           `json:"ticksProcessed"`
	TotalTicks     int           `json:"totalTicks"`
	CreatedAt      int64         `json:"createdAt"`
	CompletedAt    int64         `json:"completedAt,omitempty"`
	Error          string        `json:"error,omitempty"`
}
