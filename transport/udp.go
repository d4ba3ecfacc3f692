package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	audiomixer "github.com/hfmix/audiomixer"
	"github.com/hfmix/audiomixer/registry"
	"github.com/sirupsen/logrus"
)

// inboundQueueDepth bounds the channel between the receive goroutine
// and Recv, so a slow mix loop never blocks the network read.
const inboundQueueDepth = 256

// readBufferBytes is sized for a mixed-audio packet plus headroom for
// opaque transport-filled headers.
const readBufferBytes = 2048

type inboundDatagram struct {
	payload []byte
	peer    registry.PeerID
}

// UDPTransport is a net.PacketConn-backed Transport. A background
// goroutine reads datagrams into a bounded channel so Recv never
// blocks the mix loop.
type UDPTransport struct {
	conn   net.PacketConn
	inbox  chan inboundDatagram
	ctx    context.Context
	cancel context.CancelFunc
}

// NewUDPTransport opens a UDP socket on listenAddr and starts the
// background receive loop.
func NewUDPTransport(listenAddr string) (*UDPTransport, error) {
	logrus.WithFields(logrus.Fields{
		"function": "NewUDPTransport",
		"addr":     listenAddr,
	}).Info("opening UDP transport")

	conn, err := net.ListenPacket("udp", listenAddr)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewUDPTransport",
			"addr":     listenAddr,
			"error":    err,
		}).Error("failed to open UDP socket")
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &UDPTransport{
		conn:   conn,
		inbox:  make(chan inboundDatagram, inboundQueueDepth),
		ctx:    ctx,
		cancel: cancel,
	}

	go t.recvLoop()

	return t, nil
}

func (t *UDPTransport) recvLoop() {
	buffer := make([]byte, readBufferBytes)
	for {
		select {
		case <-t.ctx.Done():
			return
		default:
		}

		_ = t.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, addr, err := t.conn.ReadFrom(buffer)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if t.ctx.Err() != nil {
				return
			}
			logrus.WithFields(logrus.Fields{
				"function": "UDPTransport.recvLoop",
				"error":    err,
			}).Warn("read error")
			continue
		}

		payload := make([]byte, n)
		copy(payload, buffer[:n])

		select {
		case t.inbox <- inboundDatagram{payload: payload, peer: registry.PeerID(addr.String())}:
		default:
			logrus.WithFields(logrus.Fields{
				"function": "UDPTransport.recvLoop",
				"peer":     addr.String(),
			}).Warn("inbound queue full, dropping datagram")
		}
	}
}

// Recv returns the next queued datagram without blocking.
func (t *UDPTransport) Recv() ([]byte, registry.PeerID, bool) {
	select {
	case d := <-t.inbox:
		return d.payload, d.peer, true
	default:
		return nil, "", false
	}
}

// Send transmits payload to peer, whose PeerID is the string form of
// its UDP address.
func (t *UDPTransport) Send(peer registry.PeerID, payload []byte) error {
	if t.ctx.Err() != nil {
		return audiomixer.ErrTransportClosed
	}

	addr, err := net.ResolveUDPAddr("udp", string(peer))
	if err != nil {
		return fmt.Errorf("%w: %v", audiomixer.ErrUnknownPeer, err)
	}
	_, err = t.conn.WriteTo(payload, addr)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "UDPTransport.Send",
			"peer":     peer,
			"error":    err,
		}).Warn("send failed, dropping")
		return err
	}
	return nil
}

// LocalAddr returns the address the transport is listening on.
func (t *UDPTransport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

// Close shuts down the receive loop and the underlying socket.
func (t *UDPTransport) Close() error {
	t.cancel()
	return t.conn.Close()
}
