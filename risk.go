// FILE: risk.go
// Package main – Pre-trade risk gating.
//
// RiskManager is a stateless per-order evaluator against configured limits.
// Check() runs every rule unconditionally — it never short-circuits — so a
// caller always sees the full list of violated rules, and LimitsChecked always
// names all four rules regardless of outcome:
//   1) maxPositionSize – buys only: qty*price within the per-position cap
//   2) maxExposure     – buys only: existing exposure + qty*price within cap
//   3) maxDailyTrades  – both sides: today's executed count below the cap
//   4) cooldown        – same-symbol trades spaced by at least CooldownMs
//
// Sells skip the size/exposure checks (they reduce risk). A violation is not
// an error: the result lists the broken rules and no trade happens.

package main

import "time"

// riskLimitNames is the stable rule inventory reported on every check.
var riskLimitNames = []string{"maxPositionSize", "maxExposure", "maxDailyTrades", "cooldown"}

// RiskContext is the live portfolio view a check runs against.
type RiskContext struct {
	PortfolioValue  float64   // cash + marked positions
	CurrentExposure float64   // PortfolioValue - cash
	TradesToday     int       // executed trades on the current simulated date
	LastTradeAt     time.Time // zero if no trade yet
	LastTradeSymbol string
	Now             time.Time // candidate trade timestamp
}

// RiskResult reports the verdict for one order.
type RiskResult struct {
	Approved      bool     `json:"approved"`
	Violations    []string `json:"violations"`
	LimitsChecked []string `json:"limitsChecked"`
}

// RiskManager holds only injected limits; safe to share read-only across runs.
type RiskManager struct {
	limits RiskLimits
}

func NewRiskManager(limits RiskLimits) *RiskManager {
	return &RiskManager{limits: limits}
}

// Check evaluates o (at fillPrice) against every limit.
// MaxLossPct is intentionally not evaluated; see RiskLimits in config.go.
func (r *RiskManager) Check(o Order, fillPrice float64, ctx RiskContext) RiskResult {
	violations := make([]string, 0, len(riskLimitNames))
	notional := o.Qty * fillPrice

	// 1) maxPositionSize (buys only)
	if o.Side == SideBuy && notional > r.limits.MaxPositionSize {
		violations = append(violations, "maxPositionSize")
	}

	// 2) maxExposure (buys only)
	if o.Side == SideBuy && ctx.CurrentExposure+notional > r.limits.MaxExposure {
		violations = append(violations, "maxExposure")
	}

	// 3) maxDailyTrades (both sides)
	if ctx.TradesToday >= r.limits.MaxDailyTrades {
		violations = append(violations, "maxDailyTrades")
	}

	// 4) cooldown (same symbol only; disabled at 0)
	if r.limits.CooldownMs > 0 && ctx.LastTradeSymbol == o.Symbol && !ctx.LastTradeAt.IsZero() {
		elapsed := ctx.Now.Sub(ctx.LastTradeAt)
		if elapsed < time.Duration(r.limits.CooldownMs)*time.Millisecond {
			violations = append(violations, "cooldown")
		}
	}

	return RiskResult{
		Approved:      len(violations) == 0,
		Violations:    violations,
		LimitsChecked: append([]string(nil), riskLimitNames...),
	}
}
