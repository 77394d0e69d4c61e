// Package server exposes the bridge's HTTP surface: health probes, metrics
// and the WebSocket upgrade endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/toolroom-io/scanbridge/internal/realtime"
	"github.com/toolroom-io/scanbridge/pkg/log"
)

// Config carries the HTTP server settings.
type Config struct {
	Network         string
	Addr            string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server hosts the HTTP surface. The hub is optional: with the fan-out
// disabled /ws responds 404 and everything else still works.
type Server struct {
	cfg    *Config
	logger log.Logger
	ready  func() bool
	hub    *realtime.Hub
}

// New builds a Server. ready is consulted by /readyz; hub may be nil.
func New(cfg *Config, ready func() bool, hub *realtime.Hub) *Server {
	if cfg.Network == "" {
		cfg.Network = "tcp"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		cfg:    cfg,
		logger: log.WithName("http"),
		ready:  ready,
		hub:    hub,
	}
}

// Routes builds the router. Split out so tests can exercise the handlers
// without binding a socket.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if s.ready != nil && !s.ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("bus disconnected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	if s.hub != nil {
		r.HandleFunc("/ws", s.hub.ServeWS).Methods(http.MethodGet)
	}

	return r
}

// Run serves until ctx is cancelled, then drains connections within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen(s.cfg.Network, s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}

	server := &http.Server{
		Handler:     s.Routes(),
		ReadTimeout: s.cfg.ReadTimeout,
	}

	s.logger.Info("http server listening", "address", s.cfg.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}
