package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/internal/analysis"
	"github.com/selivandex/sentiment-analyst/internal/health"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/models"
)

// Analyzer builds analysis records
type Analyzer interface {
	Compose(ctx context.Context, symbol string) (*models.AnalysisRecord, error)
	Overview(ctx context.Context, symbols []string) []*models.AnalysisRecord
}

// NewsSource returns scored news for a symbol
type NewsSource interface {
	Fetch(ctx context.Context, symbol string, limit int, force bool) []models.ScoredNewsItem
}

// Deps are the services the HTTP API exposes
type Deps struct {
	Analyzer       Analyzer
	News           NewsSource
	Market         analysis.MarketDataProvider
	Health         *health.Checker
	DefaultSymbols []string
	NewsLimit      int
}

// Server is the HTTP API
type Server struct {
	server *http.Server
	engine *gin.Engine
	deps   Deps
}

// NewServer creates new API server listening on port
func NewServer(port string, deps Deps) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{
		engine: engine,
		deps:   deps,
		server: &http.Server{
			Addr:         ":" + port,
			Handler:      engine,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 3 * time.Minute,
			IdleTimeout:  120 * time.Second,
		},
	}

	engine.GET("/health", s.handleHealth)
	engine.GET("/ready", s.handleReadiness)

	v1 := engine.Group("/api/v1")
	v1.GET("/analysis/:symbol", s.handleAnalysis)
	v1.GET("/news/:symbol", s.handleNews)
	v1.GET("/market/:symbol", s.handleMarket)
	v1.GET("/overview", s.handleOverview)

	return s
}

// Handler exposes the router, used by tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Stop is called
func (s *Server) Start() error {
	logger.Info("api server starting", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("stopping api server...")
	return s.server.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
