package spatializer

import (
	"math"
	"testing"

	audiomixer "github.com/hfmix/audiomixer"
	"github.com/hfmix/audiomixer/ring"
	"github.com/hfmix/audiomixer/source"
	"github.com/hfmix/audiomixer/spatial"
	"github.com/stretchr/testify/assert"
)

// loudMic returns a mono microphone whose trailing loudness has settled
// at loudness. One push moves the loudness average only a tenth of the
// way, so the same frame is pushed until the average has converged.
func loudMic(loudness float64) *source.Source {
	s := source.NewMicrophone(ring.Mono, false)
	frame := make([]int16, 240)
	for i := range frame {
		frame[i] = int16(loudness * 32767)
	}
	for i := 0; i < 200; i++ {
		s.Buffer.Push(frame)
	}
	return s
}

func TestAudibilityGateSkipsQuietDistantSource(t *testing.T) {
	// Scenario S5: distance 10000, trailing_loudness 0.05, threshold 0.5e-5.
	s := loudMic(0.05)
	s.Position = spatial.Vec3{X: 10000}
	listener := Pose{Position: spatial.Vec3{}, Orientation: spatial.IdentityQuat}

	params := Spatialize(s, listener, 0.5e-5)
	assert.True(t, params.Skip)
}

func TestAudibilityGateDoublingLoudnessUnskips(t *testing.T) {
	s := loudMic(0.10)
	s.Position = spatial.Vec3{X: 10000}
	listener := Pose{Position: spatial.Vec3{}, Orientation: spatial.IdentityQuat}

	params := Spatialize(s, listener, 0.5e-5)
	assert.False(t, params.Skip)
}

// TestZeroDistanceAttenuationOne covers invariant 5: a source at
// distance <= epsilon produces attenuation = 1.
func TestZeroDistanceAttenuationOne(t *testing.T) {
	s := loudMic(1.0)
	s.Position = spatial.Vec3{}
	listener := Pose{Position: spatial.Vec3{}, Orientation: spatial.IdentityQuat}

	params := Spatialize(s, listener, 0)
	assert.InDelta(t, 1.0, params.Attenuation, 1e-9)
}

// TestZeroDistanceAppliesInjectorAttenuationRatio covers step 7 of the
// spatialization formula at the coincident-position short circuit: an
// injector's own attenuation_ratio still scales the final gain even
// when source and listener sit at the same position.
func TestZeroDistanceAppliesInjectorAttenuationRatio(t *testing.T) {
	s := source.NewInjector(ring.Mono, false, 0, 0.25)
	frame := make([]int16, 240)
	for i := range frame {
		frame[i] = 8000
	}
	s.Buffer.Push(frame)
	s.Position = spatial.Vec3{}
	listener := Pose{Position: spatial.Vec3{}, Orientation: spatial.IdentityQuat}

	params := Spatialize(s, listener, 0)
	assert.InDelta(t, 0.25, params.Attenuation, 1e-9)
}

// TestSourceWithZeroLoudnessNeverMixed covers invariant 6.
func TestSourceWithZeroLoudnessNeverMixed(t *testing.T) {
	s := source.NewMicrophone(ring.Mono, false)
	s.Position = spatial.Vec3{X: 1}
	listener := Pose{Position: spatial.Vec3{}, Orientation: spatial.IdentityQuat}

	params := Spatialize(s, listener, 0)
	assert.True(t, params.Skip)
}

func TestZoneOverrideBypassesAttenuation(t *testing.T) {
	s := loudMic(1.0)
	s.Position = spatial.Vec3{X: 10000}
	s.ListenerUnattenuatedZone = &spatial.AABB{
		Corner:     spatial.Vec3{X: -1, Y: -1, Z: -1},
		Dimensions: spatial.Vec3{X: 2, Y: 2, Z: 2},
	}
	listener := Pose{Position: spatial.Vec3{}, Orientation: spatial.IdentityQuat}

	params := Spatialize(s, listener, 0.5e-5)
	assert.False(t, params.Skip)
	assert.Equal(t, 1.0, params.Attenuation)
	assert.Equal(t, 0, params.DelaySamples)
}

func TestStereoSourceBypassesSpatialization(t *testing.T) {
	s := source.NewMicrophone(ring.Stereo, false)
	frame := make([]int16, 480)
	for i := range frame {
		frame[i] = 8000
	}
	s.Buffer.Push(frame)
	s.Position = spatial.Vec3{X: 50}
	listener := Pose{Position: spatial.Vec3{}, Orientation: spatial.IdentityQuat}

	params := Spatialize(s, listener, 0)
	assert.False(t, params.Skip)
	assert.Equal(t, 1.0, params.Attenuation)
}

// TestDistanceSymmetry covers invariant 3: for point sources whose
// off-axis term is the same both ways (each source is oriented so that
// theta=0 in its direction), swapping source/listener positions but not
// orientations yields the same attenuation.
func TestDistanceSymmetry(t *testing.T) {
	a := loudMic(1.0)
	a.Position = spatial.Vec3{X: 0, Y: 0, Z: 0}
	a.Orientation = spatial.Quat{Y: 1} // turned to face +z
	b := loudMic(1.0)
	b.Position = spatial.Vec3{X: 0, Y: 0, Z: -10}
	b.Orientation = spatial.IdentityQuat // faces -z

	listenerAtB := Pose{Position: b.Position, Orientation: spatial.IdentityQuat}
	listenerAtA := Pose{Position: a.Position, Orientation: spatial.IdentityQuat}

	pA := Spatialize(a, listenerAtB, 0)
	pB := Spatialize(b, listenerAtA, 0)
	assert.InDelta(t, pA.Attenuation, pB.Attenuation, 1e-9)
}

// TestHardPanRightEarWeaker covers scenario S4: source 90 degrees to
// the right of a listener facing -z produces a weaker trailing
// (right) ear.
func TestHardPanRightEarWeaker(t *testing.T) {
	s := loudMic(1.0)
	s.Position = spatial.Vec3{X: 10, Y: 0, Z: 0}
	listener := Pose{Position: spatial.Vec3{}, Orientation: spatial.IdentityQuat}

	params := Spatialize(s, listener, 0)
	assert.False(t, params.Skip)
	assert.True(t, params.DelayOnRight)
	assert.Greater(t, params.DelaySamples, 0)
	assert.InDelta(t, 0.5, params.WeakChannelRatio, 1e-6)
	assert.Equal(t, audiomixer.SamplePhaseDelayAt90, params.DelaySamples)
}

func TestHardPanLeftIsOppositeSign(t *testing.T) {
	s := loudMic(1.0)
	s.Position = spatial.Vec3{X: -10, Y: 0, Z: 0}
	listener := Pose{Position: spatial.Vec3{}, Orientation: spatial.IdentityQuat}

	params := Spatialize(s, listener, 0)
	assert.False(t, params.DelayOnRight)
}

func TestSphericalSourceListenerInsideIsUnattenuated(t *testing.T) {
	s := source.NewInjector(ring.Mono, false, 5.0, 1.0)
	frame := make([]int16, 240)
	for i := range frame {
		frame[i] = 8000
	}
	s.Buffer.Push(frame)
	s.Position = spatial.Vec3{}
	listener := Pose{Position: spatial.Vec3{X: 2}, Orientation: spatial.IdentityQuat}

	params := Spatialize(s, listener, 0)
	assert.Equal(t, 1.0, params.Attenuation)
}

func TestSphericalSourceAppliesAttenuationRatio(t *testing.T) {
	s := source.NewInjector(ring.Mono, false, 1.0, 0.5)
	frame := make([]int16, 240)
	for i := range frame {
		frame[i] = 8000
	}
	s.Buffer.Push(frame)
	s.Position = spatial.Vec3{}
	listener := Pose{Position: spatial.Vec3{X: 100}, Orientation: spatial.IdentityQuat}

	params := Spatialize(s, listener, 0)
	assert.LessOrEqual(t, params.Attenuation, 0.5)
}

func TestOffAxisAttenuationBounds(t *testing.T) {
	// theta = pi/2 (source directly to the side of its own facing)
	// yields off_axis = 0.2 + 0.4 = 0.6 prior to distance falloff.
	s := loudMic(1.0)
	s.Position = spatial.Vec3{X: 0, Y: 0, Z: -1}
	s.Orientation = spatial.IdentityQuat
	listener := Pose{Position: spatial.Vec3{X: 1, Y: 0, Z: -1}, Orientation: spatial.IdentityQuat}

	params := Spatialize(s, listener, 0)
	assert.False(t, params.Skip)
	assert.LessOrEqual(t, params.Attenuation, 1.0)
	assert.GreaterOrEqual(t, params.Attenuation, 0.0)
}

func TestDistanceAttenuationMonotonicallyDecreasing(t *testing.T) {
	near := loudMic(1.0)
	near.Position = spatial.Vec3{X: 1}
	far := loudMic(1.0)
	far.Position = spatial.Vec3{X: 100}
	listener := Pose{Position: spatial.Vec3{}, Orientation: spatial.IdentityQuat}

	pNear := Spatialize(near, listener, 0)
	pFar := Spatialize(far, listener, 0)
	assert.Greater(t, pNear.Attenuation, pFar.Attenuation)
}

func TestLog25Anchor(t *testing.T) {
	// The exponent's anchor term log25(2.5) is 1, so a unit-distance
	// point source gets k = 1 and each further factor of 2.5 in
	// distance multiplies k by 0.3.
	assert.InDelta(t, 1.0, log25(distanceRolloffBase), 1e-9)
	_ = math.Pi
}
