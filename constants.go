package audiomixer

import "time"

// Frame constants. These are a contract, not free parameters: every
// client on the wire assumes exactly these values.
const (
	// SampleRate is the fixed PCM sample rate in Hz.
	SampleRate = 24000

	// FrameSamplesMono is the number of mono samples in one 10ms frame.
	FrameSamplesMono = 240

	// FrameSamplesStereo is the number of interleaved L,R samples in
	// one 10ms frame.
	FrameSamplesStereo = FrameSamplesMono * 2

	// FrameIntervalUS is the scheduler's fixed frame cadence.
	FrameIntervalUS = 10000

	// FrameInterval is FrameIntervalUS as a time.Duration.
	FrameInterval = time.Duration(FrameIntervalUS) * time.Microsecond

	// SamplePhaseDelayAt90 is the integer number of mono samples
	// corresponding to ear-to-ear propagation delay at 90 degrees
	// off-axis.
	SamplePhaseDelayAt90 = 20

	// MixedAudioPCMBytes is the byte length of the PCM payload in a
	// mixed-audio packet: FrameSamplesStereo 16-bit samples.
	MixedAudioPCMBytes = FrameSamplesStereo * 2

	// MinSampleValue and MaxSampleValue bound a saturated 16-bit sample.
	MinSampleValue = -32768
	MaxSampleValue = 32767

	// LoudnessToDistanceRatio anchors the default audibility threshold.
	LoudnessToDistanceRatio = 1e-5

	// TrailingAverageFrames is the debounce window, in frames, between
	// throttle state machine evaluations.
	TrailingAverageFrames = 100

	// StatsIntervalUS is the default cadence for audio-stream-stats
	// packets and the mixer stats document.
	StatsIntervalUS = 1_000_000

	// TooBigForMTU is the byte threshold at which an outgoing stats
	// document is flushed and a new one started.
	TooBigForMTU = 1200

	// MaxOffAxisAttenuation is the floor of the off-axis coefficient
	// (theta = 0, i.e. the listener-to-source vector points along the
	// source's own forward axis, so the listener is directly behind it).
	MaxOffAxisAttenuation = 0.2

	// Epsilon is the minimum distance used to avoid division by zero
	// in the spatializer's distance calculations.
	Epsilon = 1e-4
)
