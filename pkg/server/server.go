// Package server exposes the recommendation pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aniwise/aniwise"
	"github.com/aniwise/aniwise/pkg/config"
	"github.com/aniwise/aniwise/pkg/server/handlers"
)

// Server wraps the gin engine and its HTTP listener.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	config *config.Config
	logger *slog.Logger
}

// New creates a Server around a pipeline.
func New(cfg *config.Config, pipeline *aniwise.Pipeline, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestID())
	engine.Use(requestLogger(logger))

	health := handlers.NewHealthHandler()
	engine.GET("/health", health.HealthCheck)
	engine.GET("/ready", health.ReadinessCheck)

	webhook := handlers.NewWebhookHandler(pipeline, logger)
	engine.POST("/webhook", webhook.Handle)

	return &Server{
		engine: engine,
		config: cfg,
		logger: logger,
	}
}

// Start begins serving. It blocks until the listener stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	s.logger.Info("server listening", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// requestID attaches a UUID to each request for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request handled",
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
