package audiomixer

import "errors"

// Sentinel errors for audiomixer package operations. These enable
// reliable error classification with errors.Is(). Non-fatal mix-loop
// outcomes (source starvation, a listener's missing pose, a dropped
// send) are represented as data, not errors; see spatializer.MixParams
// and ring.RingBuffer for the skip/starve flags that replace them.

// ErrMalformedConfig indicates the startup config payload failed to
// parse. Startup aborts with this error.
var ErrMalformedConfig = errors.New("malformed mixer configuration")

// ErrUnknownPeer indicates a peer identifier could not be resolved to
// a transport address.
var ErrUnknownPeer = errors.New("unknown peer")

// ErrListenerNotFound indicates an operation referenced a peer with no
// registered listener.
var ErrListenerNotFound = errors.New("listener not found")

// ErrTransportClosed indicates an operation was attempted on a closed
// transport.
var ErrTransportClosed = errors.New("transport is closed")
