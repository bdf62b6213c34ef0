// FILE: env.go
// Package main – Environment helpers for the backtester.
//
// This file provides:
//   1) Small helpers to read environment variables with sane defaults
//      (strings, ints, floats, bools).
//   2) loadRunEnv(path) – hydrates the process env from a .env file via
//      godotenv; values already present in the environment win.
//
// Notes:
//   • The binary never requires `export $(cat .env ...)`.
//   • Missing .env is not an error; the process env alone is fine.

package main

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// --------- Env helpers (used across files) ---------

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "y", "yes":
		return true
	case "0", "false", "n", "no":
		return false
	default:
		return def
	}
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// --------- .env loader ---------

// loadRunEnv hydrates the process env from path. godotenv.Load never overrides
// variables already set, so shell exports take precedence over the file.
func loadRunEnv(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		log.Printf("env: %s not found, relying on process env", path)
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("[WARN] env: load %s: %v", path, err)
		return
	}
	log.Printf("env: loaded %s", path)
}
