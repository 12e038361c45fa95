package security

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/luserv/luserv/internal/core"
)

var (
	// ErrEncryptedKey is returned for password-protected private keys, which are not supported.
	ErrEncryptedKey = errors.New("encrypted private keys are not supported")
	// ErrNoPrivateKey is returned when the key file has no PKCS#8 private key.
	ErrNoPrivateKey = errors.New("file contains no pkcs8 private key")
)

// TLS terminates TLS on every accepted connection. The underlying *tls.Config is built
// once and shared read-only by all connections.
type TLS struct {
	config *tls.Config
}

// NewTLS loads the PEM certificate chain and the unencrypted PKCS#8 private key named by cfg.
func NewTLS(cfg core.TLSConfig) (*TLS, error) {
	certPEM, err := os.ReadFile(cfg.CertPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open certificate file: %w", err)
	}
	keyPEM, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open key file: %w", err)
	}

	cert, err := parseKeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}

	return &TLS{config: &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientAuth:   tls.NoClientCert,
		MinVersion:   tls.VersionTLS12,
	}}, nil
}

func parseKeyPair(certPEM, keyPEM []byte) (tls.Certificate, error) {
	block, err := pkcs8Block(keyPEM)
	if err != nil {
		return tls.Certificate{}, err
	}

	// Only hand the validated block over, so a PKCS#1 or SEC 1 key elsewhere in the
	// file can't be picked up instead.
	cert, err := tls.X509KeyPair(certPEM, pem.EncodeToMemory(block))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("unable to load X.509 key pair: %w", err)
	}
	return cert, nil
}

// pkcs8Block returns the first PKCS#8 private key block in keyPEM.
func pkcs8Block(keyPEM []byte) (*pem.Block, error) {
	for block, rest := pem.Decode(keyPEM); block != nil; block, rest = pem.Decode(rest) {
		switch block.Type {
		case "ENCRYPTED PRIVATE KEY":
			return nil, ErrEncryptedKey
		case "PRIVATE KEY":
			if _, err := x509.ParsePKCS8PrivateKey(block.Bytes); err != nil {
				return nil, fmt.Errorf("file contains invalid pkcs8 private key (encrypted keys not supported): %w", err)
			}
			return block, nil
		}
	}
	return nil, ErrNoPrivateKey
}

func (t *TLS) Listen(network, addr string) (net.Listener, error) {
	return tls.Listen(network, addr, t.config)
}

func (t *TLS) Name() string { return "tls" }

// Config exposes the shared server configuration. It must not be modified.
func (t *TLS) Config() *tls.Config { return t.config }
