// Package api serves the dashboard data and the ad-hoc query gateway as a
// JSON HTTP API.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/roach88/f1metrix/internal/app"
	"github.com/roach88/f1metrix/internal/gateway"
)

// RequestIDHeader carries the request correlation ID.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// Server routes HTTP requests to the application.
type Server struct {
	app    *app.App
	logger *slog.Logger
	ids    gateway.IDGenerator
	engine *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithIDGenerator sets the request ID generator for requests that arrive
// without an X-Request-ID header. Defaults to UUIDv7.
func WithIDGenerator(g gateway.IDGenerator) Option {
	return func(s *Server) { s.ids = g }
}

// New builds the router for a.
func New(a *app.App, opts ...Option) *Server {
	s := &Server{
		app:    a,
		logger: slog.Default(),
		ids:    gateway.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.requestID())
	engine.Use(s.accessLog())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{RequestIDHeader}
	engine.Use(cors.New(corsConfig))

	s.engine = engine
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")

	api.GET("/tables", s.handleTables)
	api.GET("/tables/:name", s.handleTable)
	api.POST("/query", s.handleQuery)

	api.GET("/editorial", s.handleEditorialList)
	api.GET("/editorial/:name", s.handleEditorialRun)

	api.GET("/rankings/all-time", s.handleAllTime)
	api.GET("/rankings/yearly", s.handleYearly)
	api.GET("/performance", s.handlePerformance)
	api.GET("/h2h", s.handleHeadToHead)
	api.GET("/internals", s.handleInternals)

	api.GET("/cache", s.handleCacheStats)
	api.POST("/cache/clear", s.handleCacheClear)
}

// requestID propagates or assigns X-Request-ID.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = s.ids.Generate()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.InfoContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
			"request_id", c.GetString(requestIDKey))
	}
}
