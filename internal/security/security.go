// Package security selects how the server's listening socket is secured. Callers only
// see the Security interface and never branch on whether TLS is enabled.
package security

import (
	"net"

	"github.com/luserv/luserv/internal/core"
)

// Security opens the listener every client connection is accepted from.
type Security interface {
	// Listen opens a stream listener on addr.
	Listen(network, addr string) (net.Listener, error)
	// Name describes the strategy for logs.
	Name() string
}

// New returns the strategy selected by cfg. Errors are meant to be fatal at startup.
func New(cfg core.TLSConfig) (Security, error) {
	if !cfg.Enabled {
		return Plaintext{}, nil
	}
	return NewTLS(cfg)
}

// Plaintext accepts connections in the clear.
type Plaintext struct{}

func (Plaintext) Listen(network, addr string) (net.Listener, error) {
	return net.Listen(network, addr)
}

func (Plaintext) Name() string { return "plaintext" }
