package chathttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"swapsignal/internal/logger"

	"github.com/gin-gonic/gin"
)

const defaultAddr = ":8000"

// Server serves the chat protocol, health and metrics endpoints.
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig describes the chat HTTP server dependencies.
type ServerConfig struct {
	Addr     string
	Handler  MessageHandler
	Metrics  http.Handler
	Observer RequestObserver
}

// NewServer builds the chat HTTP server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Handler == nil {
		return nil, errors.New("chat http server requires a message handler")
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Observer))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}
	NewRouter(cfg.Handler).Register(router.Group("/api/chat"))

	return &Server{addr: cfg.Addr, router: router}, nil
}

// requestLogger logs every request and reports it to obs by matched route.
func requestLogger(obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		client := c.ClientIP()
		c.Next()
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if obs != nil {
			obs.ObserveHTTP(method, route, status)
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, path, status, client, time.Since(start))
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("chat http server listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
