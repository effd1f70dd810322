// Package server runs the gin engine behind the shared middleware chain,
// with HTTP/2 cleartext support and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/miroapi/internal/logger"
	"github.com/kbukum/miroapi/internal/observability"
	"github.com/kbukum/miroapi/internal/server/middleware"
)

// Server is the HTTP server.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     Config
	log        *logger.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New builds the gin engine and wraps it in the middleware chain. Routes
// are added through Engine before Start.
func New(cfg Config, log *logger.Logger, metrics *observability.Metrics) (*Server, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	maxBody, _ := ParseSize(cfg.MaxBodySize)
	log = log.WithComponent("http")

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(WithLogger(log))
	engine.NoRoute(func(c *gin.Context) { RespondWithError(c, notFound()) })
	engine.NoMethod(func(c *gin.Context) { RespondWithError(c, methodNotAllowed()) })

	chain := []middleware.Middleware{
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.CORS(cfg.CORS),
		middleware.BodySizeLimit(maxBody),
		middleware.RequestLogger(log),
	}
	if metrics != nil {
		chain = append(chain, middleware.Metrics(metrics))
	}
	handler := middleware.Chain(chain...)(engine)

	h2s := &http2.Server{IdleTimeout: cfg.IdleTimeout}
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      h2c.NewHandler(handler, h2s),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		engine: engine,
		config: cfg,
		log:    log,
	}, nil
}

// Engine returns the gin engine for route registration.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler returns the full handler chain, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start binds the port and serves in a goroutine. It returns once the
// listener is bound.
func (s *Server) Start(_ context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server error", logger.ErrorFields("serve", err))
		}
	}()

	s.log.Info("HTTP server started", logger.Fields("addr", listener.Addr().String()))
	return nil
}

// Stop drains in-flight requests for up to ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Listening reports whether Start has bound the port.
func (s *Server) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}
