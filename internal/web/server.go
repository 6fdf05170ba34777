package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	goBoard "github.com/MrEthical07/goBoard"
	"github.com/MrEthical07/goBoard/metrics/export/prometheus"
	"github.com/gin-gonic/gin"
)

// Server serves the job board pages for one Engine.
type Server struct {
	engine  *goBoard.Engine
	logger  *slog.Logger
	router  *gin.Engine
	metrics http.Handler
}

// New builds the router. gin runs in release mode unless GIN_MODE says otherwise.
func New(engine *goBoard.Engine) (*Server, error) {
	if engine == nil {
		return nil, errors.New("web: nil engine")
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(engine.Config().Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("web: trusted proxies: %w", err)
	}
	router.SetHTMLTemplate(tmpl)
	router.Use(gin.Recovery(), accessLog(engine.Logger()))

	s := &Server{
		engine:  engine,
		logger:  engine.Logger(),
		router:  router,
		metrics: prometheus.NewExporter(engine).Handler(),
	}
	s.routes()
	return s, nil
}

// Handler returns the root handler, for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is cancelled, then shuts down
// within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.engine.Config().Server
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web: listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("web: shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	return nil
}

func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("web: request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", goBoard.RequestIDFromContext(c.Request.Context()),
		)
	}
}
