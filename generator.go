// FILE: generator.go
// Package main – Anomaly → order decision logic.
//
// TradeGenerator turns one qualifying anomaly plus the current holding state
// into at most one proposed order:
//   • Gate: only high/critical severities act; anomalies without a resolved
//     symbol are dropped.
//   • Classify the anomaly from description keywords, falling back to the
//     numeric priceChange/volumeChange metrics when the text is inconclusive.
//   • Decision table (classification × holding): spikes/drops exit or enter,
//     volume-only anomalies never touch an open position, unclassified
//     anomalies exit defensively.
//
// Every order carries a rationale naming the triggering signal, and a
// confidence derived from the anomaly's pre-screen score (+0.1 for critical),
// clamped to [0.5, 1.0].

package main

import "strings"

type anomalyClass int

const (
	classUnknown anomalyClass = iota
	classPriceSpike
	classPriceDrop
	classVolumeSpike
	classVolumeDrop
)

func (c anomalyClass) String() string {
	switch c {
	case classPriceSpike:
		return "price_spike"
	case classPriceDrop:
		return "price_drop"
	case classVolumeSpike:
		return "volume_spike"
	case classVolumeDrop:
		return "volume_drop"
	default:
		return "unknown"
	}
}

// positionLookup resolves the current holding for a symbol.
type positionLookup func(symbol string) (Position, bool)

// TradeGenerator holds only injected configuration; safe to share read-only
// across runs.
type TradeGenerator struct {
	defaultQty float64
}

func NewTradeGenerator(cfg Config) *TradeGenerator {
	return &TradeGenerator{defaultQty: cfg.DefaultOrderQty}
}

// Generate proposes at most one order for a. ok=false means no action.
func (g *TradeGenerator) Generate(a Anomaly, lookup positionLookup) (Order, bool) {
	if a.Severity.Rank() < SeverityHigh.Rank() {
		return Order{}, false
	}
	if strings.TrimSpace(a.Symbol) == "" {
		return Order{}, false
	}

	pos, held := lookup(a.Symbol)
	holding := held && pos.Qty > 0

	var side OrderSide
	var qty float64
	var rationale string

	switch class := classifyAnomaly(a); class {
	case classPriceSpike:
		if holding {
			side, qty, rationale = SideSell, pos.Qty, "price spike while holding; taking profit"
		} else {
			side, qty, rationale = SideBuy, g.defaultQty, "price spike momentum entry"
		}
	case classPriceDrop:
		if holding {
			side, qty, rationale = SideSell, pos.Qty, "price drop while holding; stop loss"
		} else {
			side, qty, rationale = SideBuy, g.defaultQty, "price drop mean-reversion entry"
		}
	case classVolumeSpike, classVolumeDrop:
		if holding {
			// Volume-only anomalies never touch an open position.
			return Order{}, false
		}
		side, qty, rationale = SideBuy, g.defaultQty, class.String()+" entry"
	default:
		if holding {
			side, qty, rationale = SideSell, pos.Qty, "unclassified anomaly while holding; defensive exit"
		} else {
			side, qty, rationale = SideBuy, g.defaultQty, "unclassified anomaly entry"
		}
	}

	bonus := 0.0
	if a.Severity == SeverityCritical {
		bonus = 0.1
	}
	return Order{
		Symbol:     a.Symbol,
		Side:       side,
		Qty:        qty,
		Type:       OrderTypeMarket,
		Rationale:  rationale,
		Confidence: clampFloat(a.PreScreenScore+bonus, 0.5, 1.0),
		AnomalyID:  a.ID,
	}, true
}

// classifyAnomaly buckets an anomaly from its free-text description, falling
// back to numeric thresholds when the text is inconclusive.
func classifyAnomaly(a Anomaly) anomalyClass {
	desc := strings.ToLower(a.Description)
	volume := strings.Contains(desc, "volume")
	if containsAny(desc, "spike", "jump", "surge") {
		if volume {
			return classVolumeSpike
		}
		return classPriceSpike
	}
	if containsAny(desc, "drop", "decline", "fell", "decrease") {
		if volume {
			return classVolumeDrop
		}
		return classPriceDrop
	}

	if pc, ok := a.Metrics["priceChange"]; ok {
		if pc > 0.03 {
			return classPriceSpike
		}
		if pc < -0.03 {
			return classPriceDrop
		}
	}
	if vc, ok := a.Metrics["volumeChange"]; ok {
		if vc > 0.5 {
			return classVolumeSpike
		}
		if vc < 0 {
			return classVolumeDrop
		}
	}
	return classUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func clampFloat(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
