package peerreg

import (
	"sync"

	"github.com/hfmix/audiomixer/registry"
	"github.com/hfmix/audiomixer/spatial"
)

// PeerInfo is one peer as reported by the membership system the core
// does not own: its identity, its node kind, and its last-known pose.
type PeerInfo struct {
	Peer        registry.PeerID
	Kind        string
	Position    spatial.Vec3
	Orientation spatial.Quat
}

// PeerRegistry is the interface the core polls for peer membership.
// Per the original's cyclic-linked-data design note, the registry only
// exposes peers; attaching a ListenerState the first time a peer is
// seen is the mixer's own job, done from the OnArrival callback.
type PeerRegistry interface {
	Iter() []PeerInfo
	OnArrival(func(PeerInfo))
}

// InMemory is a PeerRegistry backed by a map, suitable for a
// standalone process wiring peers in from its own membership signal
// and for tests that don't need a live node-list implementation.
type InMemory struct {
	mu      sync.RWMutex
	peers   map[registry.PeerID]PeerInfo
	arrival func(PeerInfo)
}

// NewInMemory constructs an empty InMemory registry.
func NewInMemory() *InMemory {
	return &InMemory{peers: make(map[registry.PeerID]PeerInfo)}
}

// Upsert adds or updates a peer's pose, firing the arrival callback
// exactly once per peer the first time it is seen.
func (m *InMemory) Upsert(info PeerInfo) {
	m.mu.Lock()
	_, existed := m.peers[info.Peer]
	m.peers[info.Peer] = info
	arrival := m.arrival
	m.mu.Unlock()

	if !existed && arrival != nil {
		arrival(info)
	}
}

// Remove drops a peer from the registry.
func (m *InMemory) Remove(peer registry.PeerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.peers, peer)
}

// Iter returns a snapshot of every known peer.
func (m *InMemory) Iter() []PeerInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PeerInfo, 0, len(m.peers))
	for _, p := range m.peers {
		out = append(out, p)
	}
	return out
}

// OnArrival registers the callback invoked the first time a peer is
// seen. Only one callback may be registered; a later call replaces
// the previous one, matching the core's single-consumer usage.
func (m *InMemory) OnArrival(fn func(PeerInfo)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.arrival = fn
}
