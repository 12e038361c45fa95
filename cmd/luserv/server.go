package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/luserv/luserv/internal/core"
	"github.com/luserv/luserv/internal/core/data"
	"github.com/luserv/luserv/internal/core/debug"
	"github.com/luserv/luserv/internal/handshake"
	"github.com/luserv/luserv/internal/packets"
	"github.com/luserv/luserv/internal/security"
	"github.com/luserv/luserv/internal/server"
)

// ServerCommand runs the connection server until it receives SIGINT or SIGTERM.
func ServerCommand(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	logger, err := core.NewLogger(cfg)
	if err != nil {
		exit("error initializing logger:", err)
	}

	sec, err := security.New(cfg.QualifiedTLS())
	if err != nil {
		logger.Fatalf("error initializing transport security: %s", err)
	}

	db, err := data.Open(cfg)
	if err != nil {
		logger.Fatalf("error opening database: %s", err)
	}
	defer func() {
		if err := data.Close(db); err != nil {
			logger.Errorf("error closing database: %s", err)
		}
	}()

	if cfg.Debugging.PprofEnabled {
		debug.StartPprofServer(logger, cfg.Debugging.PprofPort)
	}

	serviceID, err := packets.ParseServiceID(cfg.Server.Service)
	if err != nil {
		logger.Fatalf("invalid service: %s", err)
	}

	s := &server.Server{
		Addr: cfg.Server.Address,
		Listener: &handshake.Listener{
			Logger:      logger,
			ServiceID:   serviceID,
			ProcessID:   uint32(os.Getpid()),
			Port:        listenPort(logger, cfg.Server.Address),
			AbortOnIPv6: cfg.Server.AbortOnIPv6,
		},
		Security:         sec,
		Logger:           logger,
		Recorder:         server.DBRecorder{DB: db},
		MaxConnections:   cfg.Server.MaxConnections,
		HandshakeTimeout: cfg.Server.HandshakeTimeout,
		RejectCooldown:   cfg.Server.RejectCooldown,
		PacketLogging:    cfg.Debugging.PacketLoggingEnabled,
	}

	// Bind the server to one top-level context so that we can shut down cleanly.
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go exitHandler(logger, cancel, c)

	logger.Infof("starting %s server", serviceID)
	listen(logger, s)
	if err := s.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("server stopped: %s", err)
	}
	logger.Info("shut down")
}

// listen opens the server socket, exiting the process if it can't be bound.
func listen(logger *logrus.Logger, s *server.Server) {
	if err := s.Listen(); err != nil {
		logger.Fatalf("error starting server: %s", err)
	}
}

func listenPort(logger logrus.FieldLogger, addr string) uint16 {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		logger.Fatalf("invalid server.address %q: %s", addr, err)
	}
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		logger.Fatalf("invalid port in server.address %q: %s", addr, err)
	}
	return uint16(p)
}

func exitHandler(logger logrus.FieldLogger, cancelFn func(), c chan os.Signal) {
	<-c
	logger.Info("waiting to shut down gracefully...")
	cancelFn()

	<-c
	logger.Warn("hard exiting (killed)")
	os.Exit(1)
}
