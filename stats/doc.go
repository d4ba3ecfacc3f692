// Package stats builds the mixer's operator-facing stats output: a
// textual key/value mixer-stats document, MTU-split at
// audiomixer.TooBigForMTU, and a narrow encoder interface for
// per-listener audio-stream-stats packets.
package stats
