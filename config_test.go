// FILE: config_test.go

package main

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"BACKTEST_ID", "SYMBOLS", "START_DATE", "END_DATE", "TIMEFRAME",
		"INITIAL_CAPITAL", "RISK_MAX_POSITION_SIZE", "RISK_MAX_EXPOSURE",
		"RISK_MAX_DAILY_TRADES", "RISK_COOLDOWN_MS", "RISK_MAX_LOSS_PCT",
		"SEVERITY_THRESHOLD", "CONFIDENCE_THRESHOLD", "SIZING_STRATEGY",
		"DEFAULT_ORDER_QTY",
	} {
		t.Setenv(key, "")
	}
	cfg := loadConfigFromEnv()

	if !strings.HasPrefix(cfg.ID, "bt-") {
		t.Fatalf("id = %q, want generated bt-* id", cfg.ID)
	}
	if cfg.InitialCapital != 100000 {
		t.Fatalf("initialCapital = %v, want 100000", cfg.InitialCapital)
	}
	if cfg.RiskLimits.MaxPositionSize != 10000 || cfg.RiskLimits.MaxExposure != 50000 {
		t.Fatalf("risk limits = %+v", cfg.RiskLimits)
	}
	if cfg.RiskLimits.MaxDailyTrades != 10 || cfg.RiskLimits.CooldownMs != 0 {
		t.Fatalf("risk limits = %+v", cfg.RiskLimits)
	}
	if cfg.SeverityThreshold != SeverityHigh {
		t.Fatalf("severityThreshold = %s, want high", cfg.SeverityThreshold)
	}
	if cfg.ConfidenceThreshold != 0.6 {
		t.Fatalf("confidenceThreshold = %v, want 0.6", cfg.ConfidenceThreshold)
	}
	if cfg.SizingStrategy != "fixed" || cfg.DefaultOrderQty != 10 {
		t.Fatalf("sizing = %s/%v", cfg.SizingStrategy, cfg.DefaultOrderQty)
	}
	if !cfg.StartDate.IsZero() || !cfg.EndDate.IsZero() {
		t.Fatalf("dates = %v/%v, want zero (unbounded)", cfg.StartDate, cfg.EndDate)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("BACKTEST_ID", "bt-custom")
	t.Setenv("SYMBOLS", " aapl, msft ,,btc ")
	t.Setenv("START_DATE", "2024-01-02")
	t.Setenv("END_DATE", "2024-03-01")
	t.Setenv("INITIAL_CAPITAL", "25000")
	t.Setenv("SEVERITY_THRESHOLD", "CRITICAL")
	t.Setenv("SIZING_STRATEGY", "kelly") // unimplemented → fixed

	cfg := loadConfigFromEnv()
	if cfg.ID != "bt-custom" {
		t.Fatalf("id = %q", cfg.ID)
	}
	wantSymbols := []string{"AAPL", "MSFT", "BTC"}
	if len(cfg.Symbols) != len(wantSymbols) {
		t.Fatalf("symbols = %v, want %v", cfg.Symbols, wantSymbols)
	}
	for i, s := range wantSymbols {
		if cfg.Symbols[i] != s {
			t.Fatalf("symbols[%d] = %s, want %s", i, cfg.Symbols[i], s)
		}
	}
	if cfg.StartDate != time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("startDate = %v", cfg.StartDate)
	}
	if cfg.InitialCapital != 25000 {
		t.Fatalf("initialCapital = %v", cfg.InitialCapital)
	}
	if cfg.SeverityThreshold != SeverityCritical {
		t.Fatalf("severityThreshold = %s, want critical", cfg.SeverityThreshold)
	}
	if cfg.SizingStrategy != "fixed" {
		t.Fatalf("sizingStrategy = %s, want fixed fallback", cfg.SizingStrategy)
	}
}

func TestLoadConfigBadDateIgnored(t *testing.T) {
	t.Setenv("START_DATE", "01/02/2024")
	cfg := loadConfigFromEnv()
	if !cfg.StartDate.IsZero() {
		t.Fatalf("bad date parsed as %v, want zero", cfg.StartDate)
	}
}

func TestParseSeverity(t *testing.T) {
	cases := []struct {
		in   string
		want Severity
	}{
		{"low", SeverityLow},
		{"  HIGH ", SeverityHigh},
		{"Critical", SeverityCritical},
		{"bogus", SeverityMedium},
		{"", SeverityMedium},
	}
	for _, tc := range cases {
		if got := ParseSeverity(tc.in, SeverityMedium); got != tc.want {
			t.Fatalf("ParseSeverity(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestSeverityRanks(t *testing.T) {
	if SeverityLow.Rank() >= SeverityMedium.Rank() ||
		SeverityMedium.Rank() >= SeverityHigh.Rank() ||
		SeverityHigh.Rank() >= SeverityCritical.Rank() {
		t.Fatal("severity ranks not strictly increasing")
	}
	if Severity("weird").Rank() != 0 {
		t.Fatal("unknown severity must rank lowest")
	}
}
