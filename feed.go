// FILE: feed.go
// Package main – CSV tick source (concrete fetch capability).
//
// What’s here:
//   • CSVFeed          : reads time,symbol,open,high,low,close,volume
//   • (*CSVFeed).Fetch : FetchFunc filtering by symbols and date range
//
// Notes:
//   • Time column accepts RFC3339 or UNIX seconds.
//   • Unknown columns are ignored; headers are case-insensitive.
//   • timeframe is advisory — the CSV's native granularity is replayed as-is.

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CSVFeed serves historical ticks from one local CSV file.
type CSVFeed struct {
	path string
}

func NewCSVFeed(path string) *CSVFeed { return &CSVFeed{path: path} }

// Fetch implements FetchFunc. Zero start/end mean unbounded on that side; the
// end date is inclusive through its whole day.
func (f *CSVFeed) Fetch(ctx context.Context, symbols []string, start, end time.Time, timeframe string) ([]Tick, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ticks, err := loadTicksCSV(f.path)
	if err != nil {
		return nil, err
	}

	want := map[string]bool{}
	for _, s := range symbols {
		want[strings.ToUpper(s)] = true
	}
	var endExcl time.Time
	if !end.IsZero() {
		endExcl = end.Add(24 * time.Hour)
	}

	out := make([]Tick, 0, len(ticks))
	for _, t := range ticks {
		if len(want) > 0 && !want[t.Symbol] {
			continue
		}
		if !start.IsZero() && t.Timestamp.Before(start) {
			continue
		}
		if !endExcl.IsZero() && !t.Timestamp.Before(endExcl) {
			continue
		}
		out = append(out, t)
	}
	_ = timeframe
	return out, nil
}

// loadTicksCSV reads a generic tick CSV with headers:
// time|timestamp, symbol|ticker, open, high, low, close, volume|vol
func loadTicksCSV(path string) ([]Tick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []Tick
	var headers []string
	rowIdx := 0

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if rowIdx == 0 {
			headers = rec
			rowIdx++
			continue
		}
		row := map[string]string{}
		for j, h := range headers {
			k := strings.ToLower(strings.TrimSpace(h))
			if j < len(rec) {
				row[k] = strings.TrimSpace(rec[j])
			}
		}
		ts := firstField(row, "time", "timestamp")
		sym := firstField(row, "symbol", "ticker")
		cp := firstField(row, "close", "price")
		if ts == "" || sym == "" || cp == "" {
			continue
		}
		tt, err := parseTimeFlexible(ts)
		if err != nil {
			continue
		}
		metrics := map[string]float64{}
		for key, aliases := range map[string][]string{
			"open":   {"open"},
			"high":   {"high"},
			"low":    {"low"},
			"close":  {"close", "price"},
			"volume": {"volume", "vol"},
		} {
			if v := firstField(row, aliases...); v != "" {
				if x, err := strconv.ParseFloat(v, 64); err == nil {
					metrics[key] = x
				}
			}
		}
		out = append(out, Tick{
			SourceID:  "csv",
			Symbol:    strings.ToUpper(sym),
			Timestamp: tt,
			Metrics:   metrics,
		})
		rowIdx++
	}

	sortTicks(out)
	return out, nil
}

// parseTimeFlexible supports RFC3339 or UNIX seconds.
func parseTimeFlexible(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time: %s", s)
}

// sortTicks ensures ascending time, then symbol for same-instant rows.
func sortTicks(ticks []Tick) {
	sort.SliceStable(ticks, func(i, j int) bool {
		if !ticks[i].Timestamp.Equal(ticks[j].Timestamp) {
			return ticks[i].Timestamp.Before(ticks[j].Timestamp)
		}
		return ticks[i].Symbol < ticks[j].Symbol
	})
}

// firstField returns the first non-empty value for keys in m.
func firstField(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
