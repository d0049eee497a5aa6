package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cryptoedge/tradecore/internal/models"
	"github.com/cryptoedge/tradecore/internal/performance"
)

type PerformanceHandler struct {
	tracker *performance.Tracker
	logger  *logrus.Logger
}

func NewPerformanceHandler(tracker *performance.Tracker, logger *logrus.Logger) *PerformanceHandler {
	return &PerformanceHandler{
		tracker: tracker,
		logger:  logger,
	}
}

// GetMetrics returns the full performance summary.
func (h *PerformanceHandler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics":   h.tracker.Metrics(),
		"trades":    h.tracker.TradeCount(),
		"snapshots": h.tracker.SnapshotCount(),
		"timestamp": time.Now(),
	})
}

// GetReport returns the human-readable performance report.
func (h *PerformanceHandler) GetReport(c *gin.Context) {
	c.String(http.StatusOK, h.tracker.Report())
}

// PostTrade records one executed trade.
func (h *PerformanceHandler) PostTrade(c *gin.Context) {
	var trade models.Trade
	if err := c.ShouldBindJSON(&trade); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if err := h.tracker.RecordTrade(c.Request.Context(), &trade); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"trades": h.tracker.TradeCount()})
}

// PostSnapshot records one portfolio snapshot.
func (h *PerformanceHandler) PostSnapshot(c *gin.Context) {
	var snapshot models.PortfolioSnapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if err := h.tracker.RecordSnapshot(c.Request.Context(), &snapshot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"snapshots": h.tracker.SnapshotCount()})
}
