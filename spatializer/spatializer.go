package spatializer

import (
	"math"

	audiomixer "github.com/hfmix/audiomixer"
	"github.com/hfmix/audiomixer/ring"
	"github.com/hfmix/audiomixer/source"
	"github.com/hfmix/audiomixer/spatial"
)

// Pose is the position and orientation needed to spatialize against a
// listener; it is satisfied by a *source.Source's own pose fields.
type Pose struct {
	Position    spatial.Vec3
	Orientation spatial.Quat
}

// MixParams is the output of Spatialize: everything the mixer needs to
// accumulate one source's contribution into one listener's output.
type MixParams struct {
	Attenuation      float64
	DelaySamples     int
	WeakChannelRatio float64
	DelayOnRight     bool
	Skip             bool
}

// distanceRolloffBase is the geometric roll-off base (2.5): a
// unit-distance point source gets distance attenuation 1, and each
// factor of 2.5 in distance multiplies it by 0.3.
const distanceRolloffBase = 2.5

// log25 returns log base 2.5 of x.
func log25(x float64) float64 {
	return math.Log(x) / math.Log(distanceRolloffBase)
}

// Spatialize computes the mix parameters for src as heard by listener.
// It is a pure function: given the same inputs it always returns the
// same output.
//
// Stereo sources bypass steps 3-7 entirely, per the original's "this is
// a stereo buffer or an unattenuated buffer, don't perform
// spatialization" fast path. Spatialize cannot tell a self-loopback
// source from any other; mixer.MixListener applies the same bypass to
// those after the audibility gate.
func Spatialize(src *source.Source, listener Pose, minAudibilityThreshold float64) MixParams {
	r := src.Position.Sub(listener.Position)
	rawD := r.Length()
	clampedD := rawD
	if clampedD < audiomixer.Epsilon {
		clampedD = audiomixer.Epsilon
	}

	// 1. Audibility gate.
	if src.Buffer.TrailingLoudness()/clampedD <= minAudibilityThreshold {
		return MixParams{Skip: true}
	}

	// 2. Zone override.
	if src.ListenerUnattenuatedZone != nil && src.ListenerUnattenuatedZone.Contains(listener.Position) {
		return MixParams{Attenuation: 1, DelaySamples: 0, WeakChannelRatio: 1, Skip: false}
	}

	bypass := src.Channels == ring.Stereo
	if bypass {
		return MixParams{Attenuation: 1, DelaySamples: 0, WeakChannelRatio: 1, Skip: false}
	}

	if rawD <= audiomixer.Epsilon {
		// Coincident source and listener: direction is undefined, so
		// off-axis and distance falloff cannot be computed. Invariant
		// 5 demands full off-axis/distance attenuation here, but step
		// 7's injector.attenuation_ratio factor still applies.
		return MixParams{Attenuation: clamp01(src.AttenuationRatio), DelaySamples: 0, WeakChannelRatio: 1, Skip: false}
	}

	attenuationRatio := src.AttenuationRatio

	dSquared := rawD * rawD
	spherical := false

	// 3. Spherical-source adjustment.
	if src.Kind == source.Injector && src.Radius > 0 {
		radiusSquared := src.Radius * src.Radius
		if dSquared <= radiusSquared {
			dSquared = 0
		} else {
			dSquared -= radiusSquared
			spherical = true
		}
	}

	offAxis := 1.0
	if !spherical && dSquared > 0 {
		// 4. Off-axis attenuation (point sources only).
		rLocal := src.Orientation.Inverse().Rotate(r)
		theta := spatial.AngleBetween(spatial.ForwardAxis, rLocal.Normalized())
		offAxis = audiomixer.MaxOffAxisAttenuation +
			((1-audiomixer.MaxOffAxisAttenuation)/2)*(theta/(math.Pi/2))
	}

	// 5. Distance attenuation.
	k := 1.0
	if dSquared > 0 {
		exponent := log25(distanceRolloffBase) + 0.5*log25(dSquared) - 1
		k = math.Pow(0.3, exponent)
	}
	k = clamp01(k)

	// 6. Inter-aural cues.
	invListenerOrientation := listener.Orientation.Inverse()
	rListenerLocal := invListenerOrientation.Rotate(r).WithY(0)
	forwardListenerLocal := spatial.ForwardAxis

	delaySamples := 0
	weakChannelRatio := 1.0
	delayOnRight := false
	if rListenerLocal.Length() > audiomixer.Epsilon {
		phi := spatial.OrientedAngleAroundY(forwardListenerLocal, rListenerLocal.Normalized(), spatial.UpAxis)
		sinPhi := math.Abs(math.Sin(phi))
		delaySamples = int(float64(audiomixer.SamplePhaseDelayAt90) * sinPhi)
		weakChannelRatio = 1 - 0.5*sinPhi
		delayOnRight = phi > 0
	}

	// 7. Final attenuation.
	attenuation := clamp01(offAxis * k * attenuationRatio)

	return MixParams{
		Attenuation:      attenuation,
		DelaySamples:     delaySamples,
		WeakChannelRatio: weakChannelRatio,
		DelayOnRight:     delayOnRight,
		Skip:             false,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
