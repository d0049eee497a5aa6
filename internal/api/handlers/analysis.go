package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cryptoedge/tradecore/internal/config"
	"github.com/cryptoedge/tradecore/internal/indicators"
)

type AnalysisHandler struct {
	engine *indicators.Engine
	cfg    *config.Config
	logger *logrus.Logger
}

func NewAnalysisHandler(engine *indicators.Engine, cfg *config.Config, logger *logrus.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		engine: engine,
		cfg:    cfg,
		logger: logger,
	}
}

type pricePointRequest struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price" binding:"required"`
	Volume    float64   `json:"volume"`
}

type pricesRequest struct {
	Prices []pricePointRequest `json:"prices" binding:"required"`
}

// GetIndicators returns the current indicator set for one symbol.
func (h *AnalysisHandler) GetIndicators(c *gin.Context) {
	symbol := c.Param("symbol")
	if !h.cfg.IsSupported(symbol) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported symbol: " + symbol})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"indicators":   h.engine.Indicators(symbol),
		"sample_count": h.engine.SampleCount(symbol),
		"timestamp":    time.Now(),
	})
}

// GetSignals returns the aggregated trade signal for one symbol.
func (h *AnalysisHandler) GetSignals(c *gin.Context) {
	symbol := c.Param("symbol")
	if !h.cfg.IsSupported(symbol) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported symbol: " + symbol})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"signal":    h.engine.Signals(symbol),
		"timestamp": time.Now(),
	})
}

// PostPrices feeds a batch of price points into the indicator engine.
func (h *AnalysisHandler) PostPrices(c *gin.Context) {
	symbol := c.Param("symbol")
	if !h.cfg.IsSupported(symbol) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported symbol: " + symbol})
		return
	}

	var req pricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	for _, p := range req.Prices {
		h.engine.Update(symbol, p.Price, p.Volume, p.Timestamp)
	}

	h.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"count":  len(req.Prices),
	}).Debug("Price points ingested")

	c.JSON(http.StatusOK, gin.H{
		"accepted":     len(req.Prices),
		"sample_count": h.engine.SampleCount(symbol),
	})
}
