// Package httpapi exposes practice sessions over JSON HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/verte-zerg/keycoach/internal/engine"
	"github.com/verte-zerg/keycoach/internal/model"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 5 * time.Second

	historyLimit = 100
)

// History reads logged keystrokes, most recent first.
type History interface {
	KeystrokeHistory(ctx context.Context, sessionID string, limit int) ([]model.KeystrokeEvent, error)
}

// Server wraps the HTTP listener and the routes bound to an engine.
type Server struct {
	engine  *engine.Engine
	history History
	log     *slog.Logger
	newID   func() string

	router     *gin.Engine
	httpServer *http.Server
}

// Options configures a Server.
type Options struct {
	Config model.ServerConfig
	Logger *slog.Logger
	// NewID generates session ids; defaults to random UUIDs.
	NewID func() string
}

// New builds a server. history may be nil, which disables the history route.
func New(eng *engine.Engine, history History, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	newID := opts.NewID
	if newID == nil {
		newID = newSessionID
	}
	s := &Server{
		engine:  eng,
		history: history,
		log:     logger.With("component", "httpapi"),
		newID:   newID,
	}
	s.router = s.routes(opts.Config)
	s.httpServer = &http.Server{
		Addr:         opts.Config.Addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve http: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return <-errCh
}

func (s *Server) routes(cfg model.ServerConfig) *gin.Engine {
	r := gin.Default()
	r.Use(corsMiddleware(cfg.AllowOrigins))

	api := r.Group("/api")
	{
		api.POST("/start_session", s.startSession)
		api.POST("/keystroke", s.keystroke)
		api.POST("/new_text", s.newText)
		api.POST("/set_mode", s.setMode)
		api.POST("/save_progress", s.saveProgress)
		api.GET("/stats/:session", s.stats)
		api.GET("/analysis/:session", s.analysis)
		if s.history != nil {
			api.GET("/history/:session", s.keystrokeHistory)
		}
	}
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
