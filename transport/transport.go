package transport

import (
	"net"

	"github.com/hfmix/audiomixer/registry"
)

// Transport is the core's only outward-facing I/O dependency:
// non-blocking receive, best-effort send, keyed by PeerID.
type Transport interface {
	// Recv returns the next queued datagram without blocking. ok is
	// false when no datagram is currently available.
	Recv() (payload []byte, peer registry.PeerID, ok bool)

	// Send transmits payload to peer. A send failure is a
	// TransportFault: the caller logs and drops it, since the next
	// frame's packet supersedes it.
	Send(peer registry.PeerID, payload []byte) error

	LocalAddr() net.Addr
	Close() error
}
