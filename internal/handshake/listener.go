// Package handshake implements the messages that take a raw connection to one that
// has agreed on the protocol version and the service it is talking to.
//
// A connection goes through three exchanges, each handled independently:
//
//	InternalPing      -> ConnectedPong
//	ConnectionRequest -> ConnectionRequestAccepted
//	Handshake         -> Handshake
//
// Handlers keep no state between messages; anything a connection has to remember is
// kept by the transport's connection context.
package handshake

import (
	"bytes"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/luserv/luserv/internal/packets"
)

// Password every ConnectionRequest must carry. It pins the server to one client release.
var Password = []byte("3.25 ND1")

// Listener holds the server-wide settings the handlers reply with.
type Listener struct {
	Logger logrus.FieldLogger

	// ServiceID is confirmed back to clients in the handshake reply.
	ServiceID packets.ServiceID
	// ProcessID and Port are informational fields of the handshake reply.
	ProcessID uint32
	Port      uint16

	// AbortOnIPv6 makes a non-loopback IPv6 address fatal to the process instead of
	// only closing the connection it arrived on.
	AbortOnIPv6 bool
}

// OnInternalPing sends back a pong with the same timestamp.
func (l *Listener) OnInternalPing(ping packets.InternalPing, ctx Sender) error {
	return ctx.Send(packets.ConnectedPong{PingSendTime: ping.SendTime})
}

// OnConnectionRequest closes the connection if the password doesn't match, otherwise
// replies with the peer and local addresses of the connection.
func (l *Listener) OnConnectionRequest(req packets.ConnectionRequest, ctx RequestContext) error {
	if !bytes.Equal(req.Password, Password) {
		l.Logger.WithField("remote_addr", ctx.RemoteAddr()).Info("wrong connection request password")
		return ctx.Close()
	}

	peerAddr, err := SystemAddress(ctx.RemoteAddr())
	if err != nil {
		return l.rejectAddress(ctx, err)
	}
	localAddr, err := SystemAddress(ctx.LocalAddr())
	if err != nil {
		return l.rejectAddress(ctx, err)
	}

	return ctx.Send(packets.ConnectionRequestAccepted{
		PeerAddr:  peerAddr,
		LocalAddr: localAddr,
	})
}

func (l *Listener) rejectAddress(ctx RequestContext, err error) error {
	if !errors.Is(err, ErrNoIPv4Equivalent) {
		return err
	}

	entry := l.Logger.WithFields(logrus.Fields{
		"remote_addr": ctx.RemoteAddr(),
		"local_addr":  ctx.LocalAddr(),
	})
	if l.AbortOnIPv6 {
		// The reply has no room for IPv6; the deployment is expected to be IPv4 only.
		entry.Fatalf("cannot build connection request reply: %v", err)
		return err
	}
	entry.Warnf("closing connection: %v", err)
	return ctx.Close()
}

// OnHandshake checks the network version and the service ID, closing the connection if
// either doesn't match. Otherwise it replies with our own network version and service ID.
func (l *Listener) OnHandshake(hs packets.Handshake, ctx SendCloser) error {
	log := l.Logger
	if a, ok := ctx.(Addresser); ok {
		log = log.WithField("remote_addr", a.RemoteAddr())
	}

	if hs.NetworkVersion != packets.NetworkVersion {
		log.WithFields(logrus.Fields{
			"expected": packets.NetworkVersion,
			"got":      hs.NetworkVersion,
		}).Warn("wrong network version")
		return ctx.Close()
	}
	if hs.ServiceID != packets.ServiceClient {
		log.WithField("service_id", hs.ServiceID).Warn("wrong service id")
		return ctx.Close()
	}

	return ctx.Send(packets.Handshake{
		NetworkVersion: packets.NetworkVersion,
		ServiceID:      l.ServiceID,
		ProcessID:      l.ProcessID,
		Port:           l.Port,
	})
}

// Handle dispatches a decoded message to its handler. Messages that belong to the
// session that follows the handshake are ignored.
func (l *Listener) Handle(msg packets.Message, ctx RequestContext) error {
	switch m := msg.(type) {
	case packets.InternalPing:
		return l.OnInternalPing(m, ctx)
	case packets.ConnectionRequest:
		return l.OnConnectionRequest(m, ctx)
	case packets.Handshake:
		return l.OnHandshake(m, ctx)
	case packets.NewIncomingConnection:
		l.Logger.WithField("remote_addr", ctx.RemoteAddr()).Debug("connection established")
		return nil
	case packets.DisconnectionNotification:
		l.Logger.WithField("remote_addr", ctx.RemoteAddr()).Debug("peer disconnected")
		return ctx.Close()
	default:
		l.Logger.WithFields(logrus.Fields{
			"remote_addr": ctx.RemoteAddr(),
			"message":     msg.MessageID(),
		}).Debug("ignoring message")
		return nil
	}
}
