package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server wraps the control API's http.Server with loopback binding and a
// bounded graceful shutdown.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer builds a Server listening on bind:port with the given handler.
// bind defaults to 127.0.0.1; binding to anything other than a loopback
// address is rejected because the API carries no authentication.
func NewServer(bind string, port uint16, handler http.Handler, logger *zap.Logger) (*Server, error) {
	if bind == "" {
		bind = "127.0.0.1"
	}
	if ip := net.ParseIP(bind); ip == nil || !ip.IsLoopback() {
		return nil, fmt.Errorf("api: refusing to bind to non-loopback address %q", bind)
	}

	return &Server{
		srv: &http.Server{
			Addr:              net.JoinHostPort(bind, fmt.Sprintf("%d", port)),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.Named("api"),
	}, nil
}

// Start begins serving and blocks until the listener closes. A graceful
// Shutdown is not reported as an error.
func (s *Server) Start() error {
	s.logger.Info("control API listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api: serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the ctx deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
