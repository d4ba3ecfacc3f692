package source

import (
	"github.com/hfmix/audiomixer/ring"
	"github.com/hfmix/audiomixer/spatial"
)

// Kind distinguishes a listener's own microphone from an injected
// sound source it owns.
type Kind int

const (
	Microphone Kind = iota
	Injector
)

func (k Kind) String() string {
	if k == Injector {
		return "injector"
	}
	return "microphone"
}

// Source is one audio-emitting entity: a listener's microphone or one
// of its injectors. Position and orientation change only through
// SetPose or direct assignment; the peer registry does not push later
// pose updates into a Source. Every other field is fixed at
// construction time except those mutated through the owned RingBuffer.
type Source struct {
	Kind Kind

	Position    spatial.Vec3
	Orientation spatial.Quat

	Channels ring.Channels

	// ShouldLoopback controls whether this source is mixed back into
	// its own listener's output. Defaults to false for Microphone,
	// true for Injector; see NewMicrophone/NewInjector.
	ShouldLoopback bool

	// Radius and AttenuationRatio apply only to Injector sources.
	// Radius of 0 means a point source. AttenuationRatio scales the
	// final attenuation and must lie in [0,1].
	Radius           float64
	AttenuationRatio float64

	// ListenerUnattenuatedZone, if non-nil, is a box such that any
	// listener inside it hears this source at full gain regardless of
	// distance or orientation.
	ListenerUnattenuatedZone *spatial.AABB

	Buffer *ring.RingBuffer
}

// NewMicrophone constructs a listener's own microphone source. A
// microphone never self-loops by default and carries no injector-only
// attenuation parameters.
func NewMicrophone(channels ring.Channels, dynamicJitter bool) *Source {
	return &Source{
		Kind:             Microphone,
		Channels:         channels,
		ShouldLoopback:   false,
		AttenuationRatio: 1,
		Buffer:           ring.New(channels, dynamicJitter),
	}
}

// NewInjector constructs an injected-sound source owned by a listener.
// Injectors self-loop by default. radius of 0 yields a point source;
// attenuationRatio is clamped to [0,1].
func NewInjector(channels ring.Channels, dynamicJitter bool, radius, attenuationRatio float64) *Source {
	if attenuationRatio < 0 {
		attenuationRatio = 0
	} else if attenuationRatio > 1 {
		attenuationRatio = 1
	}
	return &Source{
		Kind:             Injector,
		Channels:         channels,
		ShouldLoopback:   true,
		Radius:           radius,
		AttenuationRatio: attenuationRatio,
		Buffer:           ring.New(channels, dynamicJitter),
	}
}

// SetPose updates the source's position and orientation from the most
// recent peer update.
func (s *Source) SetPose(position spatial.Vec3, orientation spatial.Quat) {
	s.Position = position
	s.Orientation = orientation
}

// IsEligible reports whether this source may be considered for mixing
// at all this frame, independent of any particular listener: it must
// hold a full frame and have nonzero trailing loudness (invariant 6).
func (s *Source) IsEligible() bool {
	return s.Buffer.WillBeAddedToMix() && s.Buffer.TrailingLoudness() > 0
}
