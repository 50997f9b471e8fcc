// Package constants centralizes the probe defaults shared across the CLI, the
// API server and the analysis core.
//
// Request budgets, redirect limits, scoring thresholds and weights live here so
// that config loading in cmd/ and the zero-value fallbacks in internal/ agree on
// a single set of numbers.
package constants
