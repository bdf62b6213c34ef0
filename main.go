// FILE: main.go
// Package main – Program entrypoint and HTTP/metrics server.
//
// Boot sequence:
//   1) loadRunEnv(envPath)         – read .env (no shell exports required)
//   2) cfg := loadConfigFromEnv()  – build run Config
//   3) wire feed/analyzer/engine
//   4) start Prometheus /healthz server on cfg.Port
//   5) run the backtest, print the summary, persist the result
//
// Flags:
//   -data <csv>    Tick CSV to replay (time,symbol,open,high,low,close,volume)
//   -env <path>    .env file (default ".env")
//   -list          List stored runs and exit
//   -show <id>     Print one stored run as JSON and exit
//   -delete <id>   Delete one stored run and exit
//
// Example:
//   go run . -data ticks.csv
//
// SIGINT/SIGTERM request cooperative cancellation; the engine stops at its
// next checkpoint and the partial run is reported as cancelled.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// ---- Flags ----
	var dataCSV, envPath, showID, deleteID string
	var list bool
	flag.StringVar(&dataCSV, "data", "", "Path to tick CSV (time,symbol,open,high,low,close,volume)")
	flag.StringVar(&envPath, "env", ".env", "Path to .env file")
	flag.BoolVar(&list, "list", false, "List stored runs and exit")
	flag.StringVar(&showID, "show", "", "Print one stored run as JSON and exit")
	flag.StringVar(&deleteID, "delete", "", "Delete one stored run and exit")
	flag.Parse()

	// ---- Environment & Config ----
	loadRunEnv(envPath)
	cfg := loadConfigFromEnv()

	store, err := NewResultStore(cfg.ResultsDir)
	if err != nil {
		log.Fatalf("store init: %v", err)
	}

	// ---- Store-only subcommands ----
	if list || showID != "" || deleteID != "" {
		runStoreCommand(store, list, showID, deleteID)
		return
	}

	if dataCSV == "" {
		log.Fatalf("missing -data: nothing to replay")
	}

	// ---- Wiring ----
	feed := NewCSVFeed(dataCSV)
	analyzer := NewAnalyzer(cfg)
	engine := NewEngine(cfg, feed.Fetch, analyzer.Analyze)

	// ---- HTTP metrics/health ----
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	go func() {
		log.Printf("serving metrics on :%d/metrics", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	// ---- Run ----
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		engine.Cancel()
	}()

	res := engine.Run(ctx)
	printSummary(res)

	if cfg.PersistResults {
		if err := store.Save(res); err != nil {
			log.Printf("[WARN] persist result: %v", err)
		} else {
			log.Printf("[INFO] result saved to %s/%s.json", cfg.ResultsDir, res.ID)
		}
	}

	// ---- Graceful shutdown for HTTP server ----
	shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}

// runStoreCommand services -list/-show/-delete against the result store.
func runStoreCommand(store *ResultStore, list bool, showID, deleteID string) {
	switch {
	case list:
		runs, err := store.List()
		if err != nil {
			log.Fatalf("list: %v", err)
		}
		for _, r := range runs {
			created := time.UnixMilli(r.CreatedAt).UTC().Format(time.RFC3339)
			log.Printf("%s  %-10s  trades=%d  created=%s", r.ID, r.Status, len(r.Trades), created)
		}
		if len(runs) == 0 {
			log.Printf("no stored runs")
		}
	case showID != "":
		r, err := store.Load(showID)
		if err != nil {
			log.Fatalf("show %s: %v", showID, err)
		}
		bs, err := json.MarshalIndent(r, "", " ")
		if err != nil {
			log.Fatalf("show %s: %v", showID, err)
		}
		fmt.Println(string(bs))
	case deleteID != "":
		if err := store.Delete(deleteID); err != nil {
			log.Fatalf("delete %s: %v", deleteID, err)
		}
		log.Printf("deleted %s", deleteID)
	}
}
