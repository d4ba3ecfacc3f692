// Package registry holds the set of sources grouped by listener node.
//
// The registry itself is append-only from the mix loop's own thread:
// peer arrivals and departures observed on other goroutines (the peer
// registry's arrival callback, a disconnect notification) are never
// applied directly. They are serialized through a command queue and
// drained once at the top of every frame, matching the concurrency
// model's rule that only the scheduler thread ever mutates listener
// state.
package registry
