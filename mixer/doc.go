// Package mixer accumulates every audible source's contribution into
// a listener's stereo output block using saturating 16-bit arithmetic.
package mixer
