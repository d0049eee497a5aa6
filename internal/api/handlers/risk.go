package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cryptoedge/tradecore/internal/cache"
	"github.com/cryptoedge/tradecore/internal/config"
	"github.com/cryptoedge/tradecore/internal/models"
	"github.com/cryptoedge/tradecore/internal/risk"
)

type RiskHandler struct {
	engine *risk.Engine
	market *cache.MarketCache
	cfg    *config.Config
	logger *logrus.Logger
}

// NewRiskHandler creates the risk endpoints. market may be nil; without it
// requests must carry their own market data.
func NewRiskHandler(engine *risk.Engine, market *cache.MarketCache, cfg *config.Config, logger *logrus.Logger) *RiskHandler {
	return &RiskHandler{
		engine: engine,
		market: market,
		cfg:    cfg,
		logger: logger,
	}
}

type evaluateRequest struct {
	Action        string                          `json:"action" binding:"required"`
	Symbol        string                          `json:"symbol" binding:"required"`
	AllocationPct float64                         `json:"allocation_pct"`
	Snapshot      models.PortfolioSnapshot        `json:"snapshot" binding:"required"`
	Market        map[string]models.MarketMetrics `json:"market"`
}

type portfolioRequest struct {
	Snapshot models.PortfolioSnapshot        `json:"snapshot" binding:"required"`
	Market   map[string]models.MarketMetrics `json:"market"`
}

type varRequest struct {
	Snapshot        models.PortfolioSnapshot        `json:"snapshot" binding:"required"`
	Market          map[string]models.MarketMetrics `json:"market"`
	ConfidenceLevel float64                         `json:"confidence_level"`
}

// marketData returns the request's market map, falling back to cached
// metrics for the supported universe when the caller omitted it.
func (h *RiskHandler) marketData(c *gin.Context, supplied map[string]models.MarketMetrics) map[string]models.MarketMetrics {
	if len(supplied) > 0 || h.market == nil {
		return supplied
	}
	return h.market.GetAll(c.Request.Context(), h.cfg.Trading.SupportedSymbols)
}

// Evaluate runs the full trade risk evaluation for a proposed trade.
func (h *RiskHandler) Evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	assessment := h.engine.EvaluateTradeRisk(
		c.Request.Context(),
		models.TradeAction(req.Action),
		req.Symbol,
		req.AllocationPct,
		&req.Snapshot,
		h.marketData(c, req.Market),
	)

	c.JSON(http.StatusOK, assessment)
}

// Metrics returns the aggregate portfolio risk summary.
func (h *RiskHandler) Metrics(c *gin.Context) {
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.engine.RiskMetrics(&req.Snapshot, h.marketData(c, req.Market)))
}

// VaR returns the value-at-risk estimate for the given portfolio.
func (h *RiskHandler) VaR(c *gin.Context) {
	var req varRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	confidence := req.ConfidenceLevel
	if confidence == 0 {
		confidence = 0.05
	}

	value := h.engine.CalculateVaR(&req.Snapshot, h.marketData(c, req.Market), confidence)

	c.JSON(http.StatusOK, gin.H{
		"value_at_risk":    value,
		"confidence_level": confidence,
	})
}

// Stress returns projected losses under the fixed stress scenarios.
func (h *RiskHandler) Stress(c *gin.Context) {
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scenarios": h.engine.StressTest(&req.Snapshot, h.marketData(c, req.Market)),
	})
}
