package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/grandcat/zeroconf"

	"github.com/muurk/dohome/internal/discovery"
	"github.com/muurk/dohome/internal/entity"
	"github.com/muurk/dohome/internal/logging"
)

// shutdownTimeout bounds graceful shutdown when the caller gives no deadline
const shutdownTimeout = 10 * time.Second

// DiscoverFunc runs one on-demand discovery window and returns the entities
// it added. A zero window means the configured default.
type DiscoverFunc func(ctx context.Context, window time.Duration) ([]entity.Entity, error)

// Config holds the server configuration
type Config struct {
	Listen    string // e.g. ":8091"
	Advertise bool   // Announce the API over mDNS
	Instance  string // mDNS instance name (defaults to "dohome")
}

// Server is the local HTTP API
type Server struct {
	config   *Config
	registry *discovery.Registry
	entities *entity.Manager
	discover DiscoverFunc
	hub      *Hub

	// OnStateChange is called after a command changed an entity
	OnStateChange func(entity.Entity)

	httpServer *http.Server
	listener   net.Listener
	mdns       *zeroconf.Server
}

// New creates a Server. It does not listen until Start is called.
func New(config *Config, registry *discovery.Registry, entities *entity.Manager, discover DiscoverFunc) *Server {
	s := &Server{
		config:   config,
		registry: registry,
		entities: entities,
		discover: discover,
		hub:      NewHub(),
	}
	s.httpServer = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Hub returns the event hub
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the API handler
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Addr returns the listen address, valid after Start
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start listens and serves in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	s.listener = listener

	logging.Info("HTTP API listening", zap.String("addr", listener.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("HTTP API stopped", zap.Error(err))
		}
	}()

	if s.config.Advertise {
		port := listener.Addr().(*net.TCPAddr).Port
		mdns, err := advertise(s.config.Instance, port)
		if err != nil {
			// The API still works without the record
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			s.mdns = mdns
		}
	}
	return nil
}

// Shutdown withdraws the mDNS record, closes event clients and stops serving
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down HTTP API...")

	if s.mdns != nil {
		s.mdns.Shutdown()
		s.mdns = nil
	}
	s.hub.closeAll()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		return s.httpServer.Close()
	}
	return nil
}
