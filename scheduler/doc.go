// Package scheduler drives the mix at a fixed cadence, tracks a
// trailing-sleep-ratio load estimate, and raises or lowers the global
// audibility threshold to shed load under pressure.
package scheduler
