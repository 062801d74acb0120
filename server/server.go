// Package server exposes the catalog API and the editing-session API over HTTP.
// Every response body is a catalogapi envelope.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/JourneyJu/dsg-sub010/catalogapi"
	"github.com/JourneyJu/dsg-sub010/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server routes HTTP requests to a catalog backend and a session manager
type Server struct {
	catalog        catalogapi.Client
	sessions       *sessions.Manager
	logger         *zap.Logger
	requestTimeout time.Duration
	allowedOrigins map[string]bool
	engine         *gin.Engine
}

// Option is a function that modifies Server configuration
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithRequestTimeout bounds catalog backend calls made on behalf of a request
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.requestTimeout = d }
}

// WithAllowedOrigins lists cross-site origins, e.g. "https://app.example.com",
// that may open session websockets. "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		for _, origin := range origins {
			if origin = normalizeOrigin(origin); origin != "" {
				s.allowedOrigins[origin] = true
			}
		}
	}
}

// New builds the HTTP server. catalog backs the /sources endpoints; manager
// backs the /sessions endpoints. Either may be nil to disable its routes.
func New(catalog catalogapi.Client, manager *sessions.Manager, opts ...Option) *Server {
	s := &Server{
		catalog:        catalog,
		sessions:       manager,
		logger:         zap.NewNop(),
		requestTimeout: catalogapi.DefaultTimeout,
		allowedOrigins: map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())
	s.routes(r)
	s.engine = r
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, catalogapi.Success(gin.H{"status": "ok"}))
	})

	api := r.Group("/api/v1")
	if s.catalog != nil {
		sources := api.Group("/sources")
		{
			sources.GET("/:source/records", s.getRecords)
			sources.PUT("/:source/records", s.putRecords)
		}
	}
	if s.sessions != nil {
		sess := api.Group("/sessions")
		{
			sess.GET("", s.listSessions)
			sess.POST("", s.createSession)
			sess.GET("/:id", s.getSession)
			sess.DELETE("/:id", s.deleteSession)
			sess.POST("/:id/events", s.postEvents)
			sess.POST("/:id/validate", s.validateSession)
			sess.GET("/:id/payload", s.getPayload)
			sess.POST("/:id/submit", s.submitSession)
			sess.GET("/:id/ws", s.streamChanges)
		}
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func (s *Server) backendContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), s.requestTimeout)
}
