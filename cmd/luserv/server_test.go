package main

import (
	"context"
	"net"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/luserv/luserv/internal/handshake"
	"github.com/luserv/luserv/internal/packets"
	"github.com/luserv/luserv/internal/security"
	"github.com/luserv/luserv/internal/server"
)

func TestListen_AddressInUse(t *testing.T) {
	taken, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve a port: %v", err)
	}
	defer taken.Close()

	logger, hook := test.NewNullLogger()
	exitCode := -1
	logger.ExitFunc = func(code int) { exitCode = code }

	s := &server.Server{
		Addr:     taken.Addr().String(),
		Listener: &handshake.Listener{Logger: logger, ServiceID: packets.ServiceAuth},
		Security: security.Plaintext{},
		Logger:   logger,
	}
	listen(logger, s)

	if exitCode != 1 {
		t.Errorf("expected process exit with status 1, got %d", exitCode)
	}
	if entry := hook.LastEntry(); entry == nil || entry.Level != logrus.FatalLevel {
		t.Errorf("expected a fatal log entry, got %v", entry)
	}
}

func TestListen(t *testing.T) {
	logger, _ := test.NewNullLogger()
	exitCode := -1
	logger.ExitFunc = func(code int) { exitCode = code }

	s := &server.Server{
		Addr:     "127.0.0.1:0",
		Listener: &handshake.Listener{Logger: logger, ServiceID: packets.ServiceAuth},
		Security: security.Plaintext{},
		Logger:   logger,
	}
	listen(logger, s)

	if exitCode != -1 {
		t.Errorf("expected the process to keep running, got exit status %d", exitCode)
	}
	if s.ListenAddr() == nil {
		t.Fatal("expected the server to be listening")
	}

	// Serve with a cancelled context closes the socket again.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Serve(ctx); err != context.Canceled {
		t.Errorf("expected Serve() to return context.Canceled, got %v", err)
	}
}
