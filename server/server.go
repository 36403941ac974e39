package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/bleitz/meditai/logger"
	"github.com/bleitz/meditai/server/endpoint"
	"github.com/bleitz/meditai/server/middleware"
)

// Server serves the Gin engine, mounted on a ServeMux, over HTTP/1.1 and h2c.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	config     Config
	log        *logger.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New creates a Server. Call ApplyDefaults on cfg first.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(func(c *gin.Context) {
		RespondWithError(c, errNoRoute(c.Request.URL.Path))
	})
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	s := &Server{
		engine: engine,
		mux:    mux,
		config: cfg,
		log:    log.WithComponent("server"),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.wrap(mux),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
	return s
}

// wrap applies the server-wide middleware stack and h2c.
func (s *Server) wrap(h http.Handler) http.Handler {
	limit, err := middleware.ParseSize(s.config.MaxBodySize)
	if err != nil {
		limit = 1 << 20
	}
	chain := middleware.Chain(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.RequestLogger(s.log),
		middleware.CORS(&s.config.CORS),
		middleware.BodySizeLimit(limit),
	)
	return h2c.NewHandler(chain(h), &http2.Server{IdleTimeout: s.config.IdleTimeout})
}

// Engine returns the Gin engine for route registration.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Handle mounts an http.Handler next to the Gin engine.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("Handler mounted", map[string]interface{}{"pattern": pattern})
}

// API returns the /api route group with the per-client rate limit applied
// when enabled.
func (s *Server) API() *gin.RouterGroup {
	group := s.engine.Group("/api")
	if s.config.RateLimit.Enabled {
		group.Use(middleware.GinWrap(middleware.RateLimit(s.config.RateLimit)))
	}
	return group
}

// RegisterDefaultEndpoints registers /health, /readyz, /livez, /version and /info.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checker endpoint.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(serviceName, checker))
	s.engine.GET("/readyz", endpoint.Readiness(serviceName, checker))
	s.engine.GET("/livez", endpoint.Liveness(serviceName))
	s.engine.GET("/version", endpoint.Version())
	s.engine.GET("/info", endpoint.Info(serviceName))
}

// Start binds the port and serves in the background. It returns once the
// listener is bound.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Server error", logger.ErrorFields("serve", err))
		}
	}()

	s.log.Info("HTTP server started", map[string]interface{}{"addr": listener.Addr().String()})
	return nil
}

// Stop shuts the server down, waiting up to ShutdownTimeout for in-flight
// streams to finish.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("Graceful shutdown incomplete, closing connections", logger.ErrorFields("shutdown", err))
		_ = s.httpServer.Close()
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

// Addr returns the bound address once started, or the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}
