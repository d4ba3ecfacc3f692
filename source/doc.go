// Package source defines the audio-emitting entities the mixer
// consumes: a listener's own microphone and the injectors it owns.
package source
