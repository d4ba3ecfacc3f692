// Package transport provides non-blocking UDP datagram send/receive
// keyed by peer address, and the wire framing for mixed-audio packets.
package transport
