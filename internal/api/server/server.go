package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/feral-file/mrkt-indexer/internal/api/middleware"
	"github.com/feral-file/mrkt-indexer/internal/logger"
	"github.com/feral-file/mrkt-indexer/internal/metrics"
	"github.com/feral-file/mrkt-indexer/internal/store"
)

const (
	PathHealth  = "/healthz"
	PathReady   = "/readyz"
	PathMetrics = "/metrics"

	readyTimeout = 3 * time.Second
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Check reports whether a dependency is ready to serve
type Check struct {
	Name  string
	Ready func(ctx context.Context) error
}

// Server wraps the ops HTTP server
type Server struct {
	config     Config
	store      store.Store
	checks     []Check
	router     *gin.Engine
	httpServer *http.Server
}

// New creates a new ops server. The store is always checked for readiness.
func New(cfg Config, store store.Store, checks ...Check) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: cfg,
		store:  store,
		checks: checks,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger(PathHealth, PathReady, PathMetrics))

	router.GET(PathHealth, s.health)
	router.GET(PathReady, s.ready)
	router.GET(PathMetrics, gin.WrapH(promhttp.Handler()))

	return router
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	failures := gin.H{}
	if err := s.store.Ping(ctx); err != nil {
		failures["store"] = err.Error()
	}
	for _, check := range s.checks {
		if err := check.Ready(ctx); err != nil {
			failures[check.Name] = err.Error()
		}
	}

	if len(failures) > 0 {
		logger.WarnCtx(ctx, "Readiness check failed", zap.Any("failures", failures))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failures})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting ops server", zap.String("address", addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// RunSystemMetrics refreshes the process collectors until ctx is cancelled
func RunSystemMetrics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateSystemMetrics()
		}
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down ops server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
