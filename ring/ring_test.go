package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func monoFrame(val int16) []int16 {
	f := make([]int16, 240)
	for i := range f {
		f[i] = val
	}
	return f
}

func TestPreFrameCheckStarvedWhenEmpty(t *testing.T) {
	rb := New(Mono, false)
	rb.PreFrameCheck()
	assert.False(t, rb.WillBeAddedToMix())
	assert.Equal(t, uint64(1), rb.IsStarved())
}

func TestPushThenPreFrameCheckReady(t *testing.T) {
	rb := New(Mono, false)
	rb.Push(monoFrame(100))
	rb.Push(monoFrame(100))
	rb.PreFrameCheck()
	assert.True(t, rb.WillBeAddedToMix())
}

func TestPushUpdatesTrailingLoudness(t *testing.T) {
	rb := New(Mono, false)
	assert.Equal(t, 0.0, rb.TrailingLoudness())
	rb.Push(monoFrame(32767))
	assert.Greater(t, rb.TrailingLoudness(), 0.0)
	assert.Less(t, rb.TrailingLoudness(), 1.0)
}

// TestAdvanceConsumesExactlyNFrames covers invariant 7: after N frames
// with a producer writing K >= N frames, exactly N frames are consumed.
func TestAdvanceConsumesExactlyNFrames(t *testing.T) {
	rb := New(Mono, false)
	const k = 5
	for i := 0; i < k; i++ {
		rb.Push(monoFrame(int16(i + 1)))
	}

	const n = 3
	for i := 0; i < n; i++ {
		rb.PreFrameCheck()
		assert.True(t, rb.WillBeAddedToMix())
		out := rb.PeekNextOutput()
		assert.Equal(t, int16(i+1), out[0])
		rb.Advance()
	}
	assert.Equal(t, uint64(n*240), rb.readCursor)
}

func TestPeekNextOutputSilentWhenStarved(t *testing.T) {
	rb := New(Mono, false)
	rb.PreFrameCheck()
	out := rb.PeekNextOutput()
	for _, s := range out {
		assert.Equal(t, int16(0), s)
	}
}

func TestPeekDelayWindowZeroFillsOnColdStart(t *testing.T) {
	rb := New(Mono, false)
	rb.Push(monoFrame(500))
	rb.PreFrameCheck()

	window := rb.PeekDelayWindow(20)
	assert.Len(t, window, 20)
	for _, s := range window {
		assert.Equal(t, int16(0), s)
	}
}

func TestPeekDelayWindowReadsPrecedingSamples(t *testing.T) {
	rb := New(Mono, false)
	first := monoFrame(111)
	rb.Push(first)
	rb.Push(monoFrame(222))
	rb.PreFrameCheck()
	rb.Advance()
	rb.PreFrameCheck()

	window := rb.PeekDelayWindow(5)
	for _, s := range window {
		assert.Equal(t, int16(111), s)
	}
}

// TestDynamicJitterMarginNeverBelowStatic covers invariant 8: dynamic
// jitter mode never reduces the margin below its static initial value.
func TestDynamicJitterMarginNeverBelowStatic(t *testing.T) {
	rb := New(Mono, true)
	assert.Equal(t, uint32(defaultStaticMargin), rb.Margin())

	rb.PreFrameCheck() // starved, grows margin
	assert.Equal(t, uint32(defaultStaticMargin+1), rb.Margin())

	for i := 0; i < quietFramesToDecay+1; i++ {
		rb.Push(monoFrame(1))
	}
	for i := 0; i < quietFramesToDecay+10; i++ {
		rb.PreFrameCheck()
		if rb.WillBeAddedToMix() {
			rb.Advance()
		}
	}
	assert.GreaterOrEqual(t, rb.Margin(), uint32(defaultStaticMargin))
}

func TestDynamicJitterMarginGrowsOnStarvationCappedAtHalfCapacity(t *testing.T) {
	rb := New(Mono, true)
	capFrames := uint32(rb.capacityFrames())
	for i := 0; i < 1000; i++ {
		rb.PreFrameCheck()
	}
	assert.LessOrEqual(t, rb.Margin(), capFrames/2)
}
