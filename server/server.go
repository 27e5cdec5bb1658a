package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mweint/ragger/core/generation"
	"github.com/mweint/ragger/model"
)

// Asker answers a question against the current corpus. Satisfied by
// rag.Asker; tests substitute stubs.
type Asker interface {
	Ask(ctx context.Context, question string, history []model.Turn, config *model.QueryConfig) (*model.Answer, error)
}

// Server exposes the question answering pipeline over HTTP.
type Server struct {
	config       *Config
	router       *gin.Engine
	server       *http.Server
	asker        Asker
	generator    generation.Generator
	sessions     *SessionStore
	interactions *InteractionLog
	logger       *slog.Logger
	started      time.Time
}

// New creates a new server around the asker. The generator is only used for
// status reporting and may be nil.
func New(config *Config, asker Asker, generator generation.Generator, logger *slog.Logger) (*Server, error) {
	if asker == nil {
		return nil, fmt.Errorf("asker must not be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	if config.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:       config,
		router:       gin.New(),
		asker:        asker,
		generator:    generator,
		sessions:     NewSessionStore(config.HistoryTurns),
		interactions: NewInteractionLog(config.InteractionLog),
		logger:       logger,
		started:      time.Now(),
	}

	s.router.Use(gin.Recovery())
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	api.POST("/ask", s.handleAsk)
	api.GET("/status", s.handleStatus)
	api.GET("/metrics", s.handleMetrics)
	api.GET("/questions", s.handleQuestions)
}

// Router returns the underlying gin router, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the HTTP server until it is stopped or fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	s.logger.Info("server starting", slog.String("addr", addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("server stopping")
	return s.server.Shutdown(ctx)
}
