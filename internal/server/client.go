package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/luserv/luserv/internal/packets"
)

// Client is the per-connection context handed to the handshake handlers. It owns the
// socket and remembers the little the transport needs to know about the session.
type Client struct {
	conn        net.Conn
	connectedAt time.Time

	writeMu sync.Mutex

	closeOnce sync.Once
	closed    atomic.Bool
	// Set when the server replied to a handshake.
	handshaken atomic.Bool
	// Set when a handler closed the connection or a message failed to decode.
	rejected bool
	// Set when a message failed to decode.
	malformed bool

	lastMessage string
}

func NewClient(conn net.Conn) *Client {
	return &Client{
		conn:        conn,
		connectedAt: time.Now(),
	}
}

func (c *Client) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }
func (c *Client) LocalAddr() net.Addr  { return c.conn.LocalAddr() }

// IP returns the remote host without the port, used as the cool-down key.
func (c *Client) IP() string {
	if addr, ok := c.conn.RemoteAddr().(*net.TCPAddr); ok {
		return addr.IP.String()
	}
	host, _, err := net.SplitHostPort(c.conn.RemoteAddr().String())
	if err != nil {
		return c.conn.RemoteAddr().String()
	}
	return host
}

// Send serializes msg and writes it to the connection as one frame.
func (c *Client) Send(msg packets.Message) error {
	if c.closed.Load() {
		return fmt.Errorf("failed to send %s to client %v: connection closed", msg.MessageID(), c.RemoteAddr())
	}

	payload, err := packets.Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", msg.MessageID(), err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := writeFrame(c.conn, payload); err != nil {
		return fmt.Errorf("failed to send to client %v: %w", c.RemoteAddr(), err)
	}

	if _, ok := msg.(packets.Handshake); ok {
		c.handshaken.Store(true)
	}
	return nil
}

// Close terminates the connection. Only the first call has any effect.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.conn.Close()
	})
	return err
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool { return c.closed.Load() }

// Handshaken reports whether the server has confirmed the client's handshake.
func (c *Client) Handshaken() bool { return c.handshaken.Load() }
