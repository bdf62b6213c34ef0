// FILE: analyzer.go
// Package main – Offline statistical analyzer (stand-in analysis capability).
//
// The engine consumes analysis as an injected function; in production that is
// an LLM-backed service. This analyzer is the deterministic offline stand-in:
// it screens one date's ticks per symbol for price moves, volume deviation
// from the trailing average, and close z-scores, and emits anomalies whose
// descriptions/metrics feed the TradeGenerator's classifier.
//
// Sensitivity (PRE_SCREENER_SENSITIVITY, 0..1) shrinks the gates linearly:
// at 0 only large moves fire, at 1 nearly everything does.

package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Analyzer holds only configuration and a session id; safe to reuse across runs.
type Analyzer struct {
	sensitivity float64
	sessionID   string
}

func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{
		sensitivity: clampFloat(cfg.PreScreenerSensitivity, 0, 1),
		sessionID:   "session-" + uuid.NewString(),
	}
}

// priceGate is the |priceChange| fraction that starts firing anomalies.
func (a *Analyzer) priceGate() float64 { return 0.05 - 0.04*a.sensitivity }

// volumeGate is the |volumeChange| fraction that starts firing anomalies.
func (a *Analyzer) volumeGate() float64 { return 1.0 - 0.9*a.sensitivity }

// Analyze screens one date's ticks and returns at most one anomaly per
// symbol (price moves take precedence over volume deviations).
func (a *Analyzer) Analyze(ctx context.Context, ticks []Tick) ([]Anomaly, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	order := []string{}
	bySymbol := map[string][]Tick{}
	for _, t := range ticks {
		if t.Symbol == "" {
			continue
		}
		if _, ok := bySymbol[t.Symbol]; !ok {
			order = append(order, t.Symbol)
		}
		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], t)
	}

	var out []Anomaly
	for _, sym := range order {
		if an, ok := a.screenSymbol(sym, bySymbol[sym]); ok {
			out = append(out, an)
		}
	}
	return out, nil
}

func (a *Analyzer) screenSymbol(symbol string, ticks []Tick) (Anomaly, bool) {
	if len(ticks) < 2 {
		return Anomaly{}, false
	}

	closes := make([]float64, 0, len(ticks))
	volumes := make([]float64, 0, len(ticks))
	for _, t := range ticks {
		px, ok := t.Metrics["close"]
		if !ok {
			px = t.Metrics["price"]
		}
		closes = append(closes, px)
		volumes = append(volumes, t.Metrics["volume"])
	}

	var priceChange float64
	if closes[0] != 0 {
		priceChange = (closes[len(closes)-1] - closes[0]) / closes[0]
	}

	// Volume vs. trailing average (everything before the last tick).
	var volumeChange float64
	if n := len(volumes) - 1; n > 0 {
		trailing := 0.0
		for _, v := range volumes[:n] {
			trailing += v
		}
		trailing /= float64(n)
		if trailing > 0 {
			volumeChange = (volumes[len(volumes)-1] - trailing) / trailing
		}
	}

	window := 20
	if len(closes) < window {
		window = len(closes)
	}
	z := ZScore(closes, window)[len(closes)-1]

	metrics := map[string]float64{
		"priceChange":  priceChange,
		"volumeChange": volumeChange,
		"zScore":       z,
	}
	ts := ticks[len(ticks)-1].Timestamp

	if gate := a.priceGate(); math.Abs(priceChange) >= gate {
		desc := fmt.Sprintf("price spike: %s jumped %.1f%% over the session", symbol, priceChange*100)
		if priceChange < 0 {
			desc = fmt.Sprintf("price drop: %s fell %.1f%% over the session", symbol, -priceChange*100)
		}
		return a.emit(symbol, ts, desc, metrics, math.Abs(priceChange), gate, z), true
	}

	if gate := a.volumeGate(); math.Abs(volumeChange) >= gate {
		desc := fmt.Sprintf("volume spike: %s traded %.1fx above its trailing average", symbol, 1+volumeChange)
		if volumeChange < 0 {
			desc = fmt.Sprintf("volume decrease: %s traded %.0f%% below its trailing average", symbol, -volumeChange*100)
		}
		return a.emit(symbol, ts, desc, metrics, math.Abs(volumeChange), gate, z), true
	}

	return Anomaly{}, false
}

// emit builds the anomaly; severity and pre-screen score scale with how far
// the magnitude sits beyond its gate.
func (a *Analyzer) emit(symbol string, ts time.Time, desc string, metrics map[string]float64, magnitude, gate, z float64) Anomaly {
	severity := SeverityMedium
	switch {
	case magnitude >= 3*gate:
		severity = SeverityCritical
	case magnitude >= 2*gate:
		severity = SeverityHigh
	}

	score := 0.5 + 0.35*math.Min(magnitude/(3*gate), 1.0) + 0.1*math.Min(math.Abs(z)/3.0, 1.0)
	return Anomaly{
		ID:             "anom-" + uuid.NewString(),
		Severity:       severity,
		Source:         "offline-analyzer",
		Symbol:         symbol,
		Timestamp:      ts,
		Description:    desc,
		Metrics:        metrics,
		PreScreenScore: clampFloat(score, 0, 1),
		SessionID:      a.sessionID,
	}
}
