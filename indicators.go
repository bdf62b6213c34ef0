// FILE: indicators.go
// Package main – Small statistical helpers for the offline analyzer.
//
// This file implements the rolling stats the analyzer screens ticks with:
//   • ZScore(xs, n) – Rolling Z-Score
//
// Notes
//   - Output is aligned to input length; unavailable lookbacks emit 0.
//   - Keep this fast and allocation-light; it runs once per symbol per date.
package main

import (
	"math"
)

// ZScore returns the rolling z-score of xs over window n, aligned to xs.
// For indices < n-1, the function returns 0.
func ZScore(xs []float64, n int) []float64 {
	out := make([]float64, len(xs))
	if n <= 1 || len(xs) == 0 {
		return out
	}
	var sum, sumSq float64
	for i := range xs {
		x := xs[i]
		sum += x
		sumSq += x * x
		if i >= n {
			y := xs[i-n]
			sum -= y
			sumSq -= y * y
		}
		if i >= n-1 {
			mean := sum / float64(n)
			variance := (sumSq / float64(n)) - (mean * mean)
			std := math.Sqrt(math.Max(variance, 1e-12))
			out[i] = (x - mean) / std
		} else {
			out[i] = 0
		}
	}
	return out
}
