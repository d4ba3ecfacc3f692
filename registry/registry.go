package registry

import (
	"sync"

	audiomixer "github.com/hfmix/audiomixer"
	"github.com/hfmix/audiomixer/source"
	"github.com/sirupsen/logrus"
)

// PeerID is an opaque comparable identifier for a connected peer, in
// practice the string form of its transport address. The core never
// parses it further.
type PeerID string

// ListenerState is the per-connected-agent bundle the registry hands
// to the mixer: the listener's own Microphone (whose pose is the
// listener's pose), its owned Injectors, and per-frame scratch state.
type ListenerState struct {
	Peer PeerID

	Microphone *source.Source
	Injectors  []*source.Source

	OutgoingSequence uint16

	// Accumulator is the scratch stereo output block of widened 32-bit
	// samples, reused every frame to avoid per-frame allocation.
	Accumulator [audiomixer.FrameSamplesStereo]int32
}

// Sources returns every source owned by this listener: its microphone
// followed by its injectors, in a single slice for mixer iteration.
func (l *ListenerState) Sources() []*source.Source {
	out := make([]*source.Source, 0, 1+len(l.Injectors))
	if l.Microphone != nil {
		out = append(out, l.Microphone)
	}
	out = append(out, l.Injectors...)
	return out
}

// commandKind enumerates the mutations a Registry accepts through its
// command queue.
type commandKind int

const (
	addListener commandKind = iota
	removeListener
	addInjector
	removeInjector
)

// RegistryCommand is a deferred mutation applied by DrainCommands.
// Commands are produced by any goroutine (the transport receive loop,
// a PeerRegistry arrival callback) and consumed only by the scheduler
// goroutine, matching the concurrency model's rule that the registry
// is append-only from the mix loop's own thread.
type RegistryCommand struct {
	kind     commandKind
	peer     PeerID
	mic      *source.Source
	injector *source.Source
}

// AddListenerCommand registers a new listener with its Microphone.
func AddListenerCommand(peer PeerID, mic *source.Source) RegistryCommand {
	return RegistryCommand{kind: addListener, peer: peer, mic: mic}
}

// RemoveListenerCommand drops a listener and all of its sources.
func RemoveListenerCommand(peer PeerID) RegistryCommand {
	return RegistryCommand{kind: removeListener, peer: peer}
}

// AddInjectorCommand attaches a new Injector to an existing listener.
func AddInjectorCommand(peer PeerID, injector *source.Source) RegistryCommand {
	return RegistryCommand{kind: addInjector, peer: peer, injector: injector}
}

// RemoveInjectorCommand detaches a specific Injector from a listener.
func RemoveInjectorCommand(peer PeerID, injector *source.Source) RegistryCommand {
	return RegistryCommand{kind: removeInjector, peer: peer, injector: injector}
}

// Registry is the set of sources grouped by listener node. Reads
// (Iter, Get) may happen concurrently with Enqueue from any goroutine;
// only the scheduler goroutine ever calls DrainCommands, which is the
// sole mutator of the listener map.
type Registry struct {
	mu        sync.RWMutex
	listeners map[PeerID]*ListenerState

	queueMu sync.Mutex
	queue   []RegistryCommand
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		listeners: make(map[PeerID]*ListenerState),
	}
}

// Enqueue submits a deferred mutation. Safe to call from any goroutine.
func (r *Registry) Enqueue(cmd RegistryCommand) {
	r.queueMu.Lock()
	r.queue = append(r.queue, cmd)
	r.queueMu.Unlock()
}

// DrainCommands applies every queued command against the registry's
// internal map. Called once per frame, at the top, by the scheduler.
func (r *Registry) DrainCommands() {
	r.queueMu.Lock()
	pending := r.queue
	r.queue = nil
	r.queueMu.Unlock()

	if len(pending) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cmd := range pending {
		r.apply(cmd)
	}
}

func (r *Registry) apply(cmd RegistryCommand) {
	switch cmd.kind {
	case addListener:
		r.listeners[cmd.peer] = &ListenerState{Peer: cmd.peer, Microphone: cmd.mic}
		logrus.WithFields(logrus.Fields{
			"function": "Registry.apply",
			"peer":     cmd.peer,
		}).Debug("listener added")
	case removeListener:
		delete(r.listeners, cmd.peer)
		logrus.WithFields(logrus.Fields{
			"function": "Registry.apply",
			"peer":     cmd.peer,
		}).Debug("listener removed")
	case addInjector:
		l, ok := r.listeners[cmd.peer]
		if !ok {
			logrus.WithFields(logrus.Fields{
				"function": "Registry.apply",
				"peer":     cmd.peer,
			}).Warn("addInjector for unknown listener, dropped")
			return
		}
		l.Injectors = append(l.Injectors, cmd.injector)
	case removeInjector:
		l, ok := r.listeners[cmd.peer]
		if !ok {
			return
		}
		for i, inj := range l.Injectors {
			if inj == cmd.injector {
				l.Injectors = append(l.Injectors[:i], l.Injectors[i+1:]...)
				break
			}
		}
	}
}

// Get returns the ListenerState for peer, or ErrListenerNotFound if no
// listener is registered under that peer.
func (r *Registry) Get(peer PeerID) (*ListenerState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.listeners[peer]
	if !ok {
		return nil, audiomixer.ErrListenerNotFound
	}
	return l, nil
}

// Iter returns a snapshot slice of every registered listener. The
// slice itself is safe to range over without holding the registry
// lock; the ListenerState pointers it contains are only mutated by the
// scheduler goroutine between frames.
func (r *Registry) Iter() []*ListenerState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ListenerState, 0, len(r.listeners))
	for _, l := range r.listeners {
		out = append(out, l)
	}
	return out
}

// Len reports the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}
