package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"shortreel/internal/logging"
)

// Server hosts the local status API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// ServerConfig carries the dependencies the routes need.
type ServerConfig struct {
	Bind     string
	Store    QueueReader
	Workflow StatusProvider
	Logger   *slog.Logger
}

// NewServer constructs a server bound to the configured address.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	router := NewRouter(cfg)
	return &Server{
		httpServer: &http.Server{
			Addr:        cfg.Bind,
			Handler:     router,
			ReadTimeout: 15 * time.Second,
			IdleTimeout: 60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

// Start blocks serving requests until Shutdown or a listen error.
func (s *Server) Start() error {
	s.logger.Info("starting status API", logging.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down status API")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured bind address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
