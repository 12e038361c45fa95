package handshake

import (
	"net"

	"github.com/luserv/luserv/internal/packets"
)

// The connection context is owned by the transport. Handlers only ask for the
// capabilities they actually use.

// Sender can emit a message to the peer.
type Sender interface {
	Send(msg packets.Message) error
}

// Closer can terminate the connection. Closing an already closed connection is a no-op.
type Closer interface {
	Close() error
}

// Addresser reports the socket addresses of the connection.
type Addresser interface {
	RemoteAddr() net.Addr
	LocalAddr() net.Addr
}

// RequestContext is what the connection request handler needs.
type RequestContext interface {
	Sender
	Closer
	Addresser
}

// SendCloser is what the handshake handler needs.
type SendCloser interface {
	Sender
	Closer
}
