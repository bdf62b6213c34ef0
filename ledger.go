// FILE: ledger.go
// Package main – Simulated portfolio ledger (cash, FIFO lots, trade log, equity curve).
//
// What’s here:
//   • Ledger: owns cash, per-symbol positions with FIFO lot queues, the
//     append-only trade log, and the equity curve for ONE run.
//   • Execute(order, fillPrice, ts) -> ExecResult: fills or rejects. Invalid
//     orders are values, never errors — callers branch on the reject reason.
//   • PortfolioValue / Snapshot / accessors.
//
// Accounting rules:
//   - Buy: rejected if qty*price exceeds cash. Cash is debited, the position's
//     weighted-average entry is updated, and a new lot is appended.
//   - Sell: rejected if nothing is held. A request above the held quantity is
//     silently clamped, not rejected. Lots are consumed oldest-first and
//     realized PnL accumulates per consumed portion.
//   - Cash can never go negative; a position is deleted at zero quantity.
//
// Money arithmetic (cash, lot cost, PnL) runs on shopspring/decimal so long
// trade sequences cannot drift; the exposed surface stays float64.

package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RejectReason tags why Execute declined an order.
type RejectReason string

const (
	RejectInsufficientCash RejectReason = "insufficient_cash"
	RejectNoPosition       RejectReason = "no_position"
	RejectBadOrder         RejectReason = "bad_order"
)

// ExecResult is the tagged outcome of Execute: either Trade is set (filled)
// or Reason is set (rejected). Never both.
type ExecResult struct {
	Trade  *Trade
	Reason RejectReason
}

// Executed reports whether the order filled.
func (r ExecResult) Executed() bool { return r.Trade != nil }

// Ledger owns the simulated portfolio for one run. Not safe for concurrent
// use; the engine drives it from a single goroutine between suspension points.
type Ledger struct {
	id        string
	cash      decimal.Decimal
	positions map[string]*Position
	trades    []Trade
	equity    []EquityPoint
	tradeSeq  int // per-ledger sequence; concurrent runs never collide
}

// NewLedger creates a fresh ledger with starting cash. One per run.
func NewLedger(id string, startingCash float64) *Ledger {
	return &Ledger{
		id:        id,
		cash:      decimal.NewFromFloat(startingCash),
		positions: make(map[string]*Position),
	}
}

// Execute fills o at fillPrice or rejects it. No state changes on rejection.
func (l *Ledger) Execute(o Order, fillPrice float64, ts time.Time) ExecResult {
	if o.Qty <= 0 || fillPrice <= 0 {
		return ExecResult{Reason: RejectBadOrder}
	}
	switch o.Side {
	case SideBuy:
		return l.executeBuy(o, fillPrice, ts)
	case SideSell:
		return l.executeSell(o, fillPrice, ts)
	default:
		return ExecResult{Reason: RejectBadOrder}
	}
}

func (l *Ledger) executeBuy(o Order, fillPrice float64, ts time.Time) ExecResult {
	cost := decimal.NewFromFloat(o.Qty).Mul(decimal.NewFromFloat(fillPrice))
	if cost.GreaterThan(l.cash) {
		return ExecResult{Reason: RejectInsufficientCash}
	}
	l.cash = l.cash.Sub(cost)

	pos := l.positions[o.Symbol]
	if pos == nil {
		pos = &Position{Symbol: o.Symbol}
		l.positions[o.Symbol] = pos
	}
	// newAvg = (oldAvg*oldQty + price*qty) / (oldQty+qty)
	oldNotional := decimal.NewFromFloat(pos.AvgEntry).Mul(decimal.NewFromFloat(pos.Qty))
	newQty := pos.Qty + o.Qty
	pos.AvgEntry = oldNotional.Add(cost).Div(decimal.NewFromFloat(newQty)).InexactFloat64()
	pos.Qty = newQty
	pos.Lots = append(pos.Lots, Lot{Qty: o.Qty, Price: fillPrice, Timestamp: ts})

	t := l.appendTrade(o, o.Qty, fillPrice, ts, nil)
	return ExecResult{Trade: t}
}

func (l *Ledger) executeSell(o Order, fillPrice float64, ts time.Time) ExecResult {
	pos := l.positions[o.Symbol]
	if pos == nil || pos.Qty <= 0 {
		return ExecResult{Reason: RejectNoPosition}
	}

	// Requests above holdings clamp to what is held.
	sellQty := o.Qty
	if sellQty > pos.Qty {
		sellQty = pos.Qty
	}

	fill := decimal.NewFromFloat(fillPrice)
	pnl := decimal.Zero
	remaining := sellQty
	for remaining > 0 && len(pos.Lots) > 0 {
		lot := &pos.Lots[0]
		consumed := remaining
		if lot.Qty < consumed {
			consumed = lot.Qty
		}
		pnl = pnl.Add(decimal.NewFromFloat(consumed).Mul(fill.Sub(decimal.NewFromFloat(lot.Price))))
		lot.Qty -= consumed
		remaining -= consumed
		if lot.Qty <= 0 {
			pos.Lots = pos.Lots[1:]
		}
	}

	l.cash = l.cash.Add(decimal.NewFromFloat(sellQty).Mul(fill))
	pos.Qty -= sellQty
	if pos.Qty <= 0 || len(pos.Lots) == 0 {
		delete(l.positions, o.Symbol)
	} else {
		pos.AvgEntry = avgEntryFromLots(pos.Lots)
	}

	realized := pnl.InexactFloat64()
	t := l.appendTrade(o, sellQty, fillPrice, ts, &realized)
	return ExecResult{Trade: t}
}

// avgEntryFromLots recomputes the weighted-average entry from open lots.
func avgEntryFromLots(lots []Lot) float64 {
	notional := decimal.Zero
	qty := decimal.Zero
	for _, lot := range lots {
		q := decimal.NewFromFloat(lot.Qty)
		notional = notional.Add(q.Mul(decimal.NewFromFloat(lot.Price)))
		qty = qty.Add(q)
	}
	if qty.IsZero() {
		return 0
	}
	return notional.Div(qty).InexactFloat64()
}

func (l *Ledger) appendTrade(o Order, qty, fillPrice float64, ts time.Time, realized *float64) *Trade {
	l.tradeSeq++
	t := Trade{
		ID:          fmt.Sprintf("%s-t%04d", l.id, l.tradeSeq),
		Symbol:      o.Symbol,
		Side:        o.Side,
		Qty:         qty,
		FillPrice:   fillPrice,
		Timestamp:   ts,
		AnomalyID:   o.AnomalyID,
		Rationale:   o.Rationale,
		RealizedPnL: realized,
	}
	l.trades = append(l.trades, t)
	return &l.trades[len(l.trades)-1]
}

// PortfolioValue marks every position to prices; a held symbol missing from
// the map falls back to its average entry (deliberate approximation for days
// with no quote).
func (l *Ledger) PortfolioValue(prices map[string]float64) float64 {
	total := l.cash
	for sym, pos := range l.positions {
		px, ok := prices[sym]
		if !ok {
			px = pos.AvgEntry
		}
		total = total.Add(decimal.NewFromFloat(pos.Qty).Mul(decimal.NewFromFloat(px)))
	}
	return total.InexactFloat64()
}

// Snapshot appends one equity point for date. The engine calls this exactly
// once per simulated day, in chronological order.
func (l *Ledger) Snapshot(date string, prices map[string]float64) EquityPoint {
	p := EquityPoint{Date: date, Value: l.PortfolioValue(prices)}
	l.equity = append(l.equity, p)
	return p
}

// ---- Accessors ----

// Cash returns available cash in quote currency.
func (l *Ledger) Cash() float64 { return l.cash.InexactFloat64() }

// Position returns a copy of the holding for symbol, if any.
func (l *Ledger) Position(symbol string) (Position, bool) {
	pos := l.positions[symbol]
	if pos == nil {
		return Position{}, false
	}
	cp := *pos
	cp.Lots = append([]Lot(nil), pos.Lots...)
	return cp, true
}

// Positions returns copies of all open positions.
func (l *Ledger) Positions() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, pos := range l.positions {
		cp := *pos
		cp.Lots = append([]Lot(nil), pos.Lots...)
		out = append(out, cp)
	}
	return out
}

// Trades returns a copy of the trade log in execution order.
func (l *Ledger) Trades() []Trade {
	return append([]Trade(nil), l.trades...)
}

// TradeCount returns the number of executed trades so far.
func (l *Ledger) TradeCount() int { return len(l.trades) }

// LastTrade returns the most recent trade, or nil.
func (l *Ledger) LastTrade() *Trade {
	if len(l.trades) == 0 {
		return nil
	}
	cp := l.trades[len(l.trades)-1]
	return &cp
}

// EquityCurve returns a copy of the per-day equity points.
func (l *Ledger) EquityCurve() []EquityPoint {
	return append([]EquityPoint(nil), l.equity...)
}
