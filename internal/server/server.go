// Package server accepts client connections, frames and decodes their messages and
// hands them to the handshake handlers one at a time per connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	coredebug "github.com/luserv/luserv/internal/core/debug"
	"github.com/luserv/luserv/internal/core/data"
	"github.com/luserv/luserv/internal/handshake"
	"github.com/luserv/luserv/internal/packets"
	"github.com/luserv/luserv/internal/security"
)

// Server implements the concurrent client connection logic. Each connection gets its
// own goroutine, so messages from one client are always handled in the order they arrive.
type Server struct {
	// Address (host:port) to listen on.
	Addr     string
	Listener *handshake.Listener
	Security security.Security
	Logger   *logrus.Logger
	Recorder Recorder

	MaxConnections   int
	HandshakeTimeout time.Duration
	RejectCooldown   time.Duration
	PacketLogging    bool

	socket  net.Listener
	clients *clientList
	wg      sync.WaitGroup
}

// Listen opens the server socket. It is separate from Serve so that callers can learn
// the bound address before any client connects.
func (s *Server) Listen() error {
	if s.Recorder == nil {
		s.Recorder = nopRecorder{}
	}
	s.clients = newClientList(s.RejectCooldown)

	socket, err := s.Security.Listen(listenNetwork(s.Addr), s.Addr)
	if err != nil {
		return fmt.Errorf("error listening on socket: %w", err)
	}
	s.socket = socket

	s.Logger.Infof("waiting for %s connections on %v", s.Security.Name(), socket.Addr())
	return nil
}

// listenNetwork keeps IPv4 addresses, the wildcard 0.0.0.0 included, off the dual-stack
// socket Go would otherwise open. Replies can only describe IPv4 peers.
func listenNetwork(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return "tcp"
	}
	if ip := net.ParseIP(host); ip != nil && ip.To4() != nil {
		return "tcp4"
	}
	return "tcp"
}

// ListenAddr returns the address the server is bound to, or nil before Listen.
func (s *Server) ListenAddr() net.Addr {
	if s.socket == nil {
		return nil
	}
	return s.socket.Addr()
}

// Serve accepts connections until ctx is cancelled, then closes every open connection
// and waits for their goroutines to finish.
func (s *Server) Serve(ctx context.Context) error {
	if s.socket == nil {
		return errors.New("Serve called before Listen")
	}
	defer s.Logger.Info("server exiting")

	go func() {
		<-ctx.Done()
		_ = s.socket.Close()
	}()

	for {
		// Poll until we can accept more clients.
		for s.full() && ctx.Err() == nil {
			time.Sleep(100 * time.Millisecond)
		}

		conn, err := s.socket.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.Logger.Warnf("failed to accept connection: %s", err)
			continue
		}

		c := NewClient(conn)
		if s.clients.coolingDown(c.IP()) {
			s.Logger.WithField("remote_addr", c.RemoteAddr()).Info("refusing connection from recently rejected address")
			_ = c.Close()
			continue
		}

		// Registered before the goroutine starts so that closeAll below always sees it.
		s.clients.add(c)
		s.wg.Add(1)
		go s.handleClient(c)
	}

	s.clients.closeAll()
	s.wg.Wait()
	return ctx.Err()
}

func (s *Server) full() bool {
	return s.MaxConnections > 0 && s.clients.len() >= s.MaxConnections
}

func (s *Server) handleClient(c *Client) {
	defer s.wg.Done()
	s.Logger.Infof("accepted connection from %s", c.RemoteAddr())
	s.processPackets(c)
}

// processPackets starts a blocking loop dedicated to reading data sent from a game
// client and only returns once the connection has closed.
func (s *Server) processPackets(c *Client) {
	defer s.closeConnectionAndRecover(c)
	log := s.Logger.WithField("remote_addr", c.RemoteAddr())

	if s.HandshakeTimeout > 0 {
		_ = c.conn.SetReadDeadline(c.connectedAt.Add(s.HandshakeTimeout))
	}

	buffer := make([]byte, 2048)
	for !c.Closed() {
		payload, err := readFrame(c.conn, buffer)
		if err != nil {
			s.logReadError(log, c, err)
			return
		}
		if cap(payload) > cap(buffer) {
			buffer = payload[:cap(payload)]
		}

		msg, err := packets.Decode(payload)
		if err != nil {
			log.Warnf("error decoding message: %s", err)
			c.rejected = true
			c.malformed = true
			return
		}
		c.lastMessage = packets.Name(msg)

		if s.PacketLogging {
			coredebug.DumpMessage(log, "client", msg)
		}

		wasHandshaken := c.Handshaken()
		if err := s.Listener.Handle(msg, c); err != nil {
			log.Warnf("error in client communication: %s", err)
			return
		}

		if c.Closed() {
			if _, ok := msg.(packets.DisconnectionNotification); !ok {
				c.rejected = true
			}
			return
		}
		if !wasHandshaken && c.Handshaken() && s.HandshakeTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Time{})
		}
	}
}

func (s *Server) logReadError(log logrus.FieldLogger, c *Client, err error) {
	switch {
	case c.Closed():
	case errors.Is(err, io.EOF):
		log.Debug("client hung up")
	case errors.Is(err, os.ErrDeadlineExceeded):
		log.Info("closing connection: handshake not completed in time")
	default:
		log.Warnf("error reading from client: %s", err)
	}
}

// Catch any panics, disconnect the client, and remove them from the list
// regardless of the state of the connection.
func (s *Server) closeConnectionAndRecover(c *Client) {
	if err := recover(); err != nil {
		s.Logger.Errorf("error in client communication: %s: %s\n%s\n",
			c.RemoteAddr(), err, debug.Stack())
	}

	if err := c.Close(); err != nil {
		s.Logger.Debugf("failed to close client connection: %s", err)
	}
	s.clients.remove(c)

	record := &data.ConnectionRecord{
		RemoteAddr:     c.RemoteAddr().String(),
		LocalAddr:      c.LocalAddr().String(),
		Outcome:        data.OutcomeDropped,
		LastMessage:    c.lastMessage,
		ConnectedAt:    c.connectedAt,
		DisconnectedAt: time.Now(),
	}
	switch {
	case c.Handshaken():
		record.Outcome = data.OutcomeHandshaken
	case c.rejected:
		record.Outcome = data.OutcomeRejected
		// Only refusals by a handler start a cool-down; garbled frames don't.
		if !c.malformed {
			s.clients.reject(c.IP())
		}
	}
	if err := s.Recorder.Record(record); err != nil {
		s.Logger.Warnf("failed to record connection: %s", err)
	}

	s.Logger.Infof("disconnected client %s (%s)", c.RemoteAddr(), record.Outcome)
}
