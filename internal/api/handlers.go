package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-analyst/internal/analysis"
	"github.com/selivandex/sentiment-analyst/internal/sentiment"
	"github.com/selivandex/sentiment-analyst/pkg/logger"
	"github.com/selivandex/sentiment-analyst/pkg/models"
)

const maxNewsLimit = 1000

// NewsResponse is the body of the news endpoint
type NewsResponse struct {
	Symbol    string                  `json:"symbol"`
	Sentiment models.SentimentLabel   `json:"sentiment"`
	Count     int                     `json:"count"`
	Items     []models.ScoredNewsItem `json:"items"`
}

// OverviewResponse is the body of the overview endpoint
type OverviewResponse struct {
	Timestamp time.Time                `json:"timestamp"`
	Records   []*models.AnalysisRecord `json:"records"`
}

func (s *Server) handleAnalysis(c *gin.Context) {
	symbol := models.NormalizeSymbol(c.Param("symbol"))

	record, err := s.deps.Analyzer.Compose(c.Request.Context(), symbol)
	switch {
	case errors.Is(err, analysis.ErrNoMarketData):
		c.JSON(http.StatusNotFound, gin.H{"error": "no market data for " + symbol})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate analysis for " + symbol})
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) handleNews(c *gin.Context) {
	symbol := models.NormalizeSymbol(c.Param("symbol"))

	limit := s.deps.NewsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxNewsLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
			return
		}
		limit = parsed
	}

	force, ok := boolQuery(c, "force")
	if !ok {
		return
	}

	items := s.deps.News.Fetch(c.Request.Context(), symbol, limit, force)

	c.JSON(http.StatusOK, NewsResponse{
		Symbol:    symbol,
		Sentiment: sentiment.Aggregate(items),
		Count:     len(items),
		Items:     items,
	})
}

func (s *Server) handleMarket(c *gin.Context) {
	symbol := models.NormalizeSymbol(c.Param("symbol"))

	force, ok := boolQuery(c, "force")
	if !ok {
		return
	}

	summary, err := s.deps.Market.GetSummary(c.Request.Context(), symbol, force)
	if err != nil {
		logger.Error("failed to get market summary",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "market data unavailable for " + symbol})
		return
	}
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no market data for " + symbol})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleOverview(c *gin.Context) {
	records := s.deps.Analyzer.Overview(c.Request.Context(), s.deps.DefaultSymbols)

	c.JSON(http.StatusOK, OverviewResponse{
		Timestamp: time.Now().UTC(),
		Records:   records,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	verbose := c.Query("verbose") == "true"
	c.JSON(http.StatusOK, s.deps.Health.Liveness(c.Request.Context(), verbose))
}

func (s *Server) handleReadiness(c *gin.Context) {
	status := s.deps.Health.Readiness(c.Request.Context())
	if !status.Ready {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

// boolQuery parses an optional boolean query parameter and answers 400
// on garbage
func boolQuery(c *gin.Context, name string) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return false, true
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a boolean"})
		return false, false
	}
	return value, true
}
