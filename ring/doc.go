// Package ring implements the per-source jitter-absorbing ring buffer
// that feeds the mixer.
//
// Each buffer is a single-producer/single-consumer FIFO of PCM frames:
// an external packet handler advances the write cursor from its own
// goroutine while the scheduler's mix loop advances the read cursor
// once per frame. No other shared mutation exists, so the buffer needs
// no internal locking beyond the atomic cursor publication documented
// on RingBuffer.
package ring
