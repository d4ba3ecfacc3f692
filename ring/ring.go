package ring

import (
	"math"

	audiomixer "github.com/hfmix/audiomixer"
)

// Channels selects the frame width a RingBuffer stores.
type Channels int

const (
	Mono Channels = iota
	Stereo
)

// frameSamples returns the number of int16 samples in one frame for c.
func (c Channels) frameSamples() int {
	if c == Stereo {
		return audiomixer.FrameSamplesStereo
	}
	return audiomixer.FrameSamplesMono
}

// loudnessAlpha is the EMA smoothing factor applied to trailing_loudness
// on every push, per the frame constants contract.
const loudnessAlpha = 1.0 / 10.0

// defaultCapacityFrames is the minimum buffer depth mandated by the
// data model: at least 10 frames, i.e. 100ms.
const defaultCapacityFrames = 10

// defaultStaticMargin is the fixed read margin used when dynamic jitter
// buffering is disabled.
const defaultStaticMargin = 1

// quietFramesToDecay is how many consecutive non-starved frames must
// elapse before the dynamic jitter margin decays by one frame.
const quietFramesToDecay = 1000

// RingBuffer is a single-producer/single-consumer FIFO of PCM frames
// for one source. The producer (an external packet handler) calls Push
// from its own goroutine; the consumer (the mix loop) calls
// PreFrameCheck, PeekNextOutput, PeekDelayWindow and Advance once per
// frame from the scheduler goroutine. No other mutation is permitted,
// so the two cursors need no mutex: the producer only ever grows
// writeCursor and the consumer only ever grows readCursor, and each is
// touched by exactly one goroutine.
type RingBuffer struct {
	channels Channels
	frame    int
	samples  []int16

	writeCursor uint64
	readCursor  uint64

	trailingLoudness float64

	willBeAddedToMix bool
	isStarved        uint64

	dynamicJitter bool
	margin        uint32
	quietFrames   uint32
}

// New allocates a RingBuffer with at least defaultCapacityFrames of
// headroom for the given channel layout. dynamicJitter enables the
// growing/decaying read margin described by the dynamic jitter mode;
// when false the margin is fixed at defaultStaticMargin.
func New(channels Channels, dynamicJitter bool) *RingBuffer {
	frame := channels.frameSamples()
	return &RingBuffer{
		channels:      channels,
		frame:         frame,
		samples:       make([]int16, frame*defaultCapacityFrames),
		dynamicJitter: dynamicJitter,
		margin:        defaultStaticMargin,
	}
}

// capacityFrames returns the buffer's depth in whole frames.
func (r *RingBuffer) capacityFrames() uint64 {
	return uint64(len(r.samples) / r.frame)
}

// Push appends one newly-arrived frame, advances the write cursor, and
// updates trailing_loudness from its RMS. samples must be exactly one
// frame's width for this buffer's channel layout.
func (r *RingBuffer) Push(samples []int16) {
	cap64 := uint64(len(r.samples))
	start := r.writeCursor % cap64
	n := copy(r.samples[start:], samples)
	if n < len(samples) {
		copy(r.samples, samples[n:])
	}
	r.writeCursor += uint64(len(samples))

	r.trailingLoudness = loudnessAlpha*rms(samples) + (1-loudnessAlpha)*r.trailingLoudness
}

// rms computes the root-mean-square of samples, normalized to [0,1] of
// full scale.
func rms(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSq float64
	for _, s := range samples {
		v := float64(s) / float64(-audiomixer.MinSampleValue)
		sumSq += v * v
	}
	return math.Sqrt(sumSq / float64(len(samples)))
}

// requiredAvailable is the number of samples that must be queued ahead
// of readCursor before a frame may be emitted: the frame itself plus
// the dynamic jitter margin's worth of lookahead.
func (r *RingBuffer) requiredAvailable() uint64 {
	return uint64(r.margin+1) * uint64(r.frame)
}

// PreFrameCheck updates WillBeAddedToMix for the coming frame and, in
// dynamic jitter mode, adjusts the read margin from the running
// starvation/quiet history.
func (r *RingBuffer) PreFrameCheck() {
	available := r.writeCursor - r.readCursor
	starved := available < r.requiredAvailable()
	r.willBeAddedToMix = !starved

	if !r.dynamicJitter {
		if starved {
			r.isStarved++
		}
		return
	}

	if starved {
		r.isStarved++
		r.quietFrames = 0
		if max := uint32(r.capacityFrames() / 2); r.margin < max {
			r.margin++
		}
		return
	}

	r.quietFrames++
	if r.quietFrames >= quietFramesToDecay && r.margin > defaultStaticMargin {
		r.margin--
		r.quietFrames = 0
	}
}

// WillBeAddedToMix reports whether, as of the last PreFrameCheck, the
// buffer held a full frame plus the current read margin's worth of
// lookahead (see requiredAvailable).
func (r *RingBuffer) WillBeAddedToMix() bool { return r.willBeAddedToMix }

// IsStarved returns the cumulative starvation count.
func (r *RingBuffer) IsStarved() uint64 { return r.isStarved }

// TrailingLoudness returns the current exponentially-averaged loudness
// estimate.
func (r *RingBuffer) TrailingLoudness() float64 { return r.trailingLoudness }

// Margin returns the current dynamic jitter read margin in frames.
func (r *RingBuffer) Margin() uint32 { return r.margin }

// PeekNextOutput returns the frame the mixer should consume this
// round, without advancing the read cursor. If the buffer is starved
// the returned slice is silence.
func (r *RingBuffer) PeekNextOutput() []int16 {
	out := make([]int16, r.frame)
	if !r.willBeAddedToMix {
		return out
	}
	r.copyFrom(r.readCursor, out)
	return out
}

// PeekDelayWindow returns the n samples immediately preceding
// PeekNextOutput, wrapping around the circular buffer as needed. Any
// portion not yet written (cold start) is zero-filled per the
// zero-fill-on-cold-start rule.
func (r *RingBuffer) PeekDelayWindow(n int) []int16 {
	out := make([]int16, n)
	if uint64(n) > r.readCursor {
		// Not enough history has ever been written; the unwritten
		// prefix stays zero and we only fill the tail.
		short := n - int(r.readCursor)
		r.copyFrom(0, out[short:])
		return out
	}
	r.copyFrom(r.readCursor-uint64(n), out)
	return out
}

// copyFrom reads len(dst) samples starting at the circular position
// corresponding to absolute cursor pos into dst.
func (r *RingBuffer) copyFrom(pos uint64, dst []int16) {
	cap64 := uint64(len(r.samples))
	start := pos % cap64
	n := copy(dst, r.samples[start:])
	if n < len(dst) {
		copy(dst[n:], r.samples)
	}
}

// Advance moves the read cursor forward by one frame. Called exactly
// once per source per mix frame, after every listener has consumed it.
// A buffer that was starved at the last PreFrameCheck keeps its read
// cursor, so the reader never moves past samples not yet written.
func (r *RingBuffer) Advance() {
	if !r.willBeAddedToMix {
		return
	}
	r.readCursor += uint64(r.frame)
}

// Channels reports the buffer's channel layout.
func (r *RingBuffer) Channels() Channels { return r.channels }

// FrameLen reports the number of samples in one frame for this buffer.
func (r *RingBuffer) FrameLen() int { return r.frame }
