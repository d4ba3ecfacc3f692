// Package spatializer computes per-listener mix parameters for a
// single source: distance and off-axis attenuation, inter-aural phase
// delay, and the weak-channel amplitude ratio. Spatialize is a pure
// function of its inputs; it holds no state and performs no I/O.
package spatializer
