package mixer

import (
	"math"

	audiomixer "github.com/hfmix/audiomixer"
	"github.com/hfmix/audiomixer/registry"
	"github.com/hfmix/audiomixer/ring"
	"github.com/hfmix/audiomixer/source"
	"github.com/hfmix/audiomixer/spatializer"
)

// MixListener computes one frame of mixed stereo output for listener,
// considering every source across every listener in allListeners
// (including listener's own sources, which are self-skipped unless
// ShouldLoopback). minAudibilityThreshold is the scheduler's current
// load-shedding gate.
//
// Invariant 2 (every listener's output block is fully zeroed before
// any source contributes) holds because listener.Accumulator is reset
// to zero at the top of every call.
func MixListener(listener *registry.ListenerState, allListeners []*registry.ListenerState, minAudibilityThreshold float64) []int16 {
	for i := range listener.Accumulator {
		listener.Accumulator[i] = 0
	}

	if listener.Microphone == nil {
		return finalize(listener)
	}

	listenerPose := spatializer.Pose{
		Position:    listener.Microphone.Position,
		Orientation: listener.Microphone.Orientation,
	}

	for _, other := range allListeners {
		for _, src := range other.Sources() {
			isSelf := other == listener
			if isSelf && !src.ShouldLoopback {
				continue
			}
			if !src.IsEligible() {
				continue
			}

			params := spatializer.Spatialize(src, listenerPose, minAudibilityThreshold)
			if params.Skip {
				continue
			}
			if isSelf {
				// Self-loopback bypasses spatialization.
				params = spatializer.MixParams{Attenuation: 1, WeakChannelRatio: 1}
			}

			next := src.Buffer.PeekNextOutput()
			accumulate(listener, src, next, params)
		}
	}

	return finalize(listener)
}

// accumulate adds one source's contribution for this frame into
// listener.Accumulator, following the mono-delayed-spatialization
// branch or the stereo/unattenuated branch depending on the source's
// channel layout and whether spatialization applies.
func accumulate(listener *registry.ListenerState, src *source.Source, next []int16, params spatializer.MixParams) {
	if src.Channels == ring.Mono && !isFullGain(params) {
		accumulateMonoSpatialized(listener, src, next, params)
		return
	}

	stereoDivider := 1
	if src.Channels == ring.Mono {
		stereoDivider = 2
	}
	accumulateUnattenuated(listener, next, params.Attenuation, stereoDivider)
}

// isFullGain reports whether params represents the unattenuated
// identity case (attenuation 1, no delay, full weak-channel ratio),
// which takes the stereo-style duplication branch even for mono
// sources per the original's "unattenuated buffer" fast path.
func isFullGain(params spatializer.MixParams) bool {
	return params.Attenuation == 1 && params.DelaySamples == 0 && params.WeakChannelRatio == 1
}

// accumulateMonoSpatialized applies full delay/weak-channel
// spatialization for a mono source: the leading ear receives
// next[i]*a directly, the trailing ear receives next[i]*a*weak
// shifted by delay_samples, with the first delay_samples trailing-ear
// values sourced from the pre-roll window.
func accumulateMonoSpatialized(listener *registry.ListenerState, src *source.Source, next []int16, params spatializer.MixParams) {
	a := params.Attenuation
	weak := params.WeakChannelRatio
	delay := params.DelaySamples

	leadingOffset, trailingOffset := 1, 0
	if params.DelayOnRight {
		leadingOffset, trailingOffset = 0, 1
	}

	frameLen := len(next)

	for i := 0; i < frameLen; i++ {
		idx := i*2 + leadingOffset
		saturatingAccumulate(&listener.Accumulator[idx], float64(next[i])*a)
	}

	if delay > 0 {
		preroll := src.Buffer.PeekDelayWindow(delay)
		for i := 0; i < delay && i < frameLen; i++ {
			idx := i*2 + trailingOffset
			saturatingAccumulate(&listener.Accumulator[idx], float64(preroll[i])*a*weak)
		}
	}

	for i := 0; i+delay < frameLen; i++ {
		idx := (i+delay)*2 + trailingOffset
		saturatingAccumulate(&listener.Accumulator[idx], float64(next[i])*a*weak)
	}
}

// accumulateUnattenuated handles stereo sources and any mono source
// whose mix parameters reduce to the identity case: no delay, no
// weak-channel scaling, each output sample fed from
// next[s/stereoDivider].
func accumulateUnattenuated(listener *registry.ListenerState, next []int16, attenuation float64, stereoDivider int) {
	for s := 0; s < audiomixer.FrameSamplesStereo; s++ {
		sourceIdx := s / stereoDivider
		if sourceIdx >= len(next) {
			break
		}
		saturatingAccumulate(&listener.Accumulator[s], float64(next[sourceIdx])*attenuation)
	}
}

// saturatingAccumulate adds delta (already attenuated, rounded toward
// nearest) to *acc in place, clamping the result to the 16-bit sample
// range on every add, the scalar equivalent of the original's
// widened-MMX-add-then-saturate discipline.
func saturatingAccumulate(acc *int32, delta float64) {
	sum := *acc + int32(math.Round(delta))
	if sum < audiomixer.MinSampleValue {
		sum = audiomixer.MinSampleValue
	} else if sum > audiomixer.MaxSampleValue {
		sum = audiomixer.MaxSampleValue
	}
	*acc = sum
}

// finalize converts listener.Accumulator, already bounded to the i16
// range by per-add saturation, to the output PCM block.
func finalize(listener *registry.ListenerState) []int16 {
	out := make([]int16, audiomixer.FrameSamplesStereo)
	for i, v := range listener.Accumulator {
		out[i] = int16(v)
	}
	return out
}
