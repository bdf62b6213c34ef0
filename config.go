// FILE: config.go
// Package main – Run configuration model and loader.
//
// This file defines the Config struct (all the knobs one backtest run uses)
// and a helper to populate it from environment variables. The .env file is
// read by loadRunEnv() (see env.go), so you can tune behavior without exports.
//
// Typical flow (see main.go):
//   loadRunEnv(envPath)
//   cfg := loadConfigFromEnv()
//
// Config is immutable for the duration of a run: the engine copies it into the
// Result at start and never writes it back.

package main

import (
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RiskLimits are the pre-trade gates enforced by the RiskManager.
//
// MaxLossPct is carried for config compatibility but is NOT evaluated by any
// check — the upstream product has not decided its semantics. Do not wire it
// in without that decision; risk_test.go pins the gap.
type RiskLimits struct {
	MaxPositionSize float64 `json:"maxPositionSize"` // max notional (qty*price) of one buy
	MaxExposure     float64 `json:"maxExposure"`     // max total non-cash exposure after a buy
	MaxDailyTrades  int     `json:"maxDailyTrades"`  // executed trades allowed per simulated day
	CooldownMs      int64   `json:"cooldownMs"`      // min ms between trades on the same symbol; 0 disables
	MaxLossPct      float64 `json:"maxLossPct"`      // configured but unevaluated
}

// Config holds all runtime knobs for one backtest run.
type Config struct {
	ID        string    `json:"id"`
	Symbols   []string  `json:"symbols"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Timeframe string    `json:"timeframe"`

	InitialCapital float64    `json:"initialCapital"`
	RiskLimits     RiskLimits `json:"riskLimits"`

	// Anomaly gating
	SeverityThreshold      Severity `json:"severityThreshold"`
	ConfidenceThreshold    float64  `json:"confidenceThreshold"`
	PreScreenerSensitivity float64  `json:"preScreenerSensitivity"`

	// Sizing
	SizingStrategy  string  `json:"tradeSizingStrategy"` // only "fixed" is implemented
	DefaultOrderQty float64 `json:"defaultOrderQty"`

	// Ops
	Port           int    `json:"-"`
	ResultsDir     string `json:"-"`
	PersistResults bool   `json:"-"`
}

// loadConfigFromEnv reads the process env (already hydrated by loadRunEnv())
// and returns a Config with sane defaults if keys are missing.
func loadConfigFromEnv() Config {
	cfg := Config{
		ID:        getEnv("BACKTEST_ID", ""),
		Symbols:   splitSymbols(getEnv("SYMBOLS", "")),
		StartDate: parseDateEnv("START_DATE"),
		EndDate:   parseDateEnv("END_DATE"),
		Timeframe: getEnv("TIMEFRAME", "1d"),

		InitialCapital: getEnvFloat("INITIAL_CAPITAL", 100000.0),
		RiskLimits: RiskLimits{
			MaxPositionSize: getEnvFloat("RISK_MAX_POSITION_SIZE", 10000.0),
			MaxExposure:     getEnvFloat("RISK_MAX_EXPOSURE", 50000.0),
			MaxDailyTrades:  getEnvInt("RISK_MAX_DAILY_TRADES", 10),
			CooldownMs:      int64(getEnvInt("RISK_COOLDOWN_MS", 0)),
			MaxLossPct:      getEnvFloat("RISK_MAX_LOSS_PCT", 2.0),
		},

		SeverityThreshold:      ParseSeverity(getEnv("SEVERITY_THRESHOLD", "high"), SeverityHigh),
		ConfidenceThreshold:    getEnvFloat("CONFIDENCE_THRESHOLD", 0.6),
		PreScreenerSensitivity: getEnvFloat("PRE_SCREENER_SENSITIVITY", 0.5),

		SizingStrategy:  strings.ToLower(getEnv("SIZING_STRATEGY", "fixed")),
		DefaultOrderQty: getEnvFloat("DEFAULT_ORDER_QTY", 10.0),

		Port:           getEnvInt("PORT", 8080),
		ResultsDir:     getEnv("RESULTS_DIR", "results"),
		PersistResults: getEnvBool("PERSIST_RESULTS", true),
	}

	if cfg.ID == "" {
		cfg.ID = "bt-" + uuid.NewString()
	}
	if cfg.SizingStrategy != "fixed" {
		log.Printf("[WARN] config: sizing strategy %q not implemented; using fixed", cfg.SizingStrategy)
		cfg.SizingStrategy = "fixed"
	}
	if cfg.DefaultOrderQty <= 0 {
		cfg.DefaultOrderQty = 10.0
	}
	return cfg
}

func splitSymbols(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseDateEnv reads a YYYY-MM-DD env key; zero time means "unbounded".
func parseDateEnv(key string) time.Time {
	v := strings.TrimSpace(getEnv(key, ""))
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		log.Printf("[WARN] config: bad %s=%q (want YYYY-MM-DD); ignoring", key, v)
		return time.Time{}
	}
	return t.UTC()
}
