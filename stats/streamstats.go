package stats

import (
	"encoding/binary"
	"math"
)

// ListenerJitterStats is the per-listener jitter/starvation snapshot
// fed to a StreamStatsEncoder roughly once a second.
type ListenerJitterStats struct {
	AverageJitterMargin float32
	StarveCount         uint32
	FramesMixed         uint32
}

// StreamStatsEncoder is the narrow interface the core calls to
// produce an opaque audio-stream-stats packet per listener. The
// encoding itself is external to the core; a DefaultEncoder is
// provided for standalone operation.
type StreamStatsEncoder interface {
	Encode(ListenerJitterStats) []byte
}

// DefaultEncoder emits a small fixed binary record: average jitter
// margin (float32 LE), starve count (uint32 LE), frames mixed
// (uint32 LE).
type DefaultEncoder struct{}

// Encode implements StreamStatsEncoder.
func (DefaultEncoder) Encode(s ListenerJitterStats) []byte {
	out := make([]byte, 12)
	binary.LittleEndian.PutUint32(out[0:4], math.Float32bits(s.AverageJitterMargin))
	binary.LittleEndian.PutUint32(out[4:8], s.StarveCount)
	binary.LittleEndian.PutUint32(out[8:12], s.FramesMixed)
	return out
}
