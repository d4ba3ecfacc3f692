// Package audiomixer implements the real-time spatial mix loop for a
// multi-user virtual environment's authoritative audio mixer.
//
// It receives microphone and injected-sound streams from many
// connected clients and produces, for each listener, a personalized
// stereo mix composed of every other audible source, spatialized
// according to the listener's head position and orientation. The
// package is organized around five cooperating components, wired
// together by cmd/audiomixer:
//
//   - ring: per-source jitter-absorbing ring buffers (package ring)
//   - registry: the set of sources grouped by listener (package registry)
//   - spatializer: the pure attenuation/delay function (package spatializer)
//   - mixer: saturating per-listener sample accumulation (package mixer)
//   - scheduler: the fixed-cadence frame loop and load-shedding throttle
//     (package scheduler)
//
// Everything outside the mix loop itself, datagram transport, peer
// discovery, configuration parsing, and stats emission, is consumed
// through narrow interfaces defined in the transport, peerreg, config,
// and stats packages.
//
// # Getting started
//
//	reg := registry.New()
//	clock := scheduler.NewSystemClock()
//	sched := scheduler.New(reg, clock)
//
//	for !sched.Terminated() {
//	    sched.RunFrame(mixFn)
//	}
package audiomixer
