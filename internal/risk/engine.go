package risk

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cryptoedge/tradecore/internal/config"
	"github.com/cryptoedge/tradecore/internal/models"
)

// ExchangeInfo exposes the exchange trading rules the engine needs. It is
// an optional dependency: a nil provider falls back to the configured
// minimum trade amount.
type ExchangeInfo interface {
	MinNotional(ctx context.Context, symbol string) (float64, error)
}

// rollingWindow is the age limit for the daily trade log.
const rollingWindow = 24 * time.Hour

// tradeRecord is one entry of the rolling trade log.
type tradeRecord struct {
	timestamp time.Time
	action    models.TradeAction
	symbol    string
	amount    float64
	success   bool
}

// Engine evaluates proposed trades against portfolio limits and tracks
// process-lifetime risk state: the rolling 24h trade log, daily P&L, the
// portfolio peak, cumulative drawdown and the emergency-stop latch.
type Engine struct {
	cfg      *config.Config
	logger   *logrus.Logger
	exchange ExchangeInfo

	mu            sync.Mutex
	dailyTrades   []tradeRecord
	dailyPnL      float64
	peakValue     float64
	maxDrawdown   float64
	emergencyStop bool
}

// NewEngine creates a risk engine. exchange may be nil.
func NewEngine(cfg *config.Config, exchange ExchangeInfo, logger *logrus.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		logger:   logger,
		exchange: exchange,
	}
}

// EvaluateTradeRisk runs the full validation gate and risk scoring for a
// proposed trade. Policy violations come back as non-approved assessments
// with a reason, never as errors.
func (e *Engine) EvaluateTradeRisk(
	ctx context.Context,
	action models.TradeAction,
	symbol string,
	allocationPct float64,
	snapshot *models.PortfolioSnapshot,
	market map[string]models.MarketMetrics,
) *Assessment {
	e.mu.Lock()
	defer e.mu.Unlock()

	assessment := &Assessment{}

	portfolioValue := snapshot.TotalValue.InexactFloat64()
	availableBalance := snapshot.AvailableBalance.InexactFloat64()

	if !e.basicValidation(action, symbol, allocationPct, portfolioValue, assessment) {
		return assessment
	}
	if !e.checkDailyLimits(assessment) {
		return assessment
	}
	if !e.checkPositionLimits(snapshot, symbol, action, assessment) {
		return assessment
	}

	assessment.RiskScore += e.concentrationRisk(snapshot, allocationPct, portfolioValue, action)
	assessment.RiskScore += e.volatilityRisk(symbol, market, allocationPct)
	assessment.RiskScore += e.correlationRisk(snapshot, symbol, action)

	adjusted, ok := e.safePositionSize(ctx, allocationPct, assessment.RiskScore, availableBalance, portfolioValue, symbol)
	if !ok {
		assessment.Approved = false
		assessment.Adjustments = &Adjustments{AllocationPct: 0.0}
		assessment.Reason = fmt.Sprintf("Trade rejected - %s minimum order size exceeds the per-trade risk limit", symbol)
		return assessment
	}

	if adjusted != allocationPct {
		assessment.Adjustments = &Adjustments{AllocationPct: adjusted}
		assessment.Warnings = append(assessment.Warnings,
			fmt.Sprintf("Position size adjusted from %.2f%% to %.2f%%", allocationPct, adjusted))
	}

	switch {
	case assessment.RiskScore <= 3.0:
		assessment.Approved = true
		assessment.Reason = "Trade approved - Low risk"
	case assessment.RiskScore <= 6.0:
		assessment.Approved = true
		assessment.Reason = "Trade approved with adjustments - Medium risk"
	default:
		assessment.Approved = false
		assessment.Reason = "Trade rejected - High risk"
	}

	e.logger.WithFields(logrus.Fields{
		"symbol":     symbol,
		"action":     action,
		"risk_score": assessment.RiskScore,
		"approved":   assessment.Approved,
	}).Info("Trade risk evaluated")

	return assessment
}

func (e *Engine) basicValidation(action models.TradeAction, symbol string, allocationPct, portfolioValue float64, assessment *Assessment) bool {
	if e.emergencyStop {
		assessment.Reason = "Emergency stop is active"
		return false
	}

	if _, err := models.ParseAction(string(action)); err != nil {
		assessment.Reason = fmt.Sprintf("Invalid action: %s", action)
		return false
	}

	if !e.cfg.IsSupported(symbol) {
		assessment.Reason = fmt.Sprintf("Unsupported symbol: %s", symbol)
		return false
	}

	if action == models.ActionBuy {
		if allocationPct <= 0 || allocationPct > 100 {
			assessment.Reason = fmt.Sprintf("Invalid allocation percentage: %.2f%%", allocationPct)
			return false
		}

		maxSingleTradeRisk := e.cfg.Risk.MaxRiskPerTrade * 100
		if allocationPct > maxSingleTradeRisk {
			assessment.Reason = fmt.Sprintf("Trade size %.2f%% exceeds max risk %.2f%%", allocationPct, maxSingleTradeRisk)
			return false
		}
	}

	if portfolioValue < e.cfg.Trading.MinTradeAmount {
		assessment.Reason = fmt.Sprintf("Portfolio value too low for trading: $%.2f", portfolioValue)
		return false
	}

	return true
}

func (e *Engine) checkDailyLimits(assessment *Assessment) bool {
	e.evictExpiredTrades(time.Now())

	if len(e.dailyTrades) >= e.cfg.Risk.MaxTradesPerDay {
		assessment.Reason = fmt.Sprintf("Daily trade limit reached: %d/%d", len(e.dailyTrades), e.cfg.Risk.MaxTradesPerDay)
		return false
	}

	dailyLossLimit := e.cfg.Risk.EmergencyStopLoss * 0.5
	if e.dailyPnL < -dailyLossLimit {
		assessment.Reason = fmt.Sprintf("Daily loss limit exceeded: %.2f%%", e.dailyPnL*100)
		return false
	}

	return true
}

func (e *Engine) checkPositionLimits(snapshot *models.PortfolioSnapshot, symbol string, action models.TradeAction, assessment *Assessment) bool {
	switch {
	case action == models.ActionBuy:
		if snapshot.HasPosition(symbol) {
			assessment.Warnings = append(assessment.Warnings, fmt.Sprintf("Already have position in %s", symbol))
			assessment.RiskScore += 1.0
		}

		if len(snapshot.Positions) >= e.cfg.Risk.MaxOpenPositions {
			assessment.Reason = fmt.Sprintf("Maximum positions reached: %d/%d", len(snapshot.Positions), e.cfg.Risk.MaxOpenPositions)
			return false
		}

	case action.IsExit():
		if !snapshot.HasPosition(symbol) {
			assessment.Reason = fmt.Sprintf("No position found for %s to sell/close", symbol)
			return false
		}
	}

	return true
}

// concentrationRisk scores the projected post-trade weight of the single
// position and of all positions combined.
func (e *Engine) concentrationRisk(snapshot *models.PortfolioSnapshot, allocationPct, portfolioValue float64, action models.TradeAction) float64 {
	if action != models.ActionBuy || portfolioValue <= 0 {
		return 0
	}

	score := 0.0
	tradeValue := allocationPct / 100 * portfolioValue

	singleLimit := e.cfg.Risk.MaxRiskPerTrade * 5
	positionConcentration := tradeValue / portfolioValue * 100

	if positionConcentration > singleLimit {
		score += 3.0
	} else if positionConcentration > singleLimit*0.7 {
		score += 1.5
	}

	var totalCryptoValue float64
	for _, pos := range snapshot.Positions {
		totalCryptoValue += pos.Value.InexactFloat64()
	}

	aggregate := (totalCryptoValue + tradeValue) / portfolioValue * 100
	if aggregate > 80 {
		score += 2.0
	} else if aggregate > 60 {
		score += 1.0
	}

	return score
}

func (e *Engine) volatilityRisk(symbol string, market map[string]models.MarketMetrics, allocationPct float64) float64 {
	score := 0.0
	metrics := market[symbol]

	change := math.Abs(metrics.PriceChange24h)
	if change > 20 {
		score += 2.0
	} else if change > 10 {
		score += 1.0
	}

	// Thin 24h volume relative to market cap is an illiquidity proxy.
	if metrics.MarketCap > 0 && metrics.Volume24h/metrics.MarketCap < 0.01 {
		score += 1.5
	}

	if allocationPct > 15 {
		score *= 1.5
	}

	return score
}

func (e *Engine) correlationRisk(snapshot *models.PortfolioSnapshot, symbol string, action models.TradeAction) float64 {
	if action != models.ActionBuy || len(snapshot.Positions) == 0 {
		return 0
	}
	if e.cfg.IsMajor(symbol) {
		return 0
	}

	altcoins := 0
	for held := range snapshot.Positions {
		if !e.cfg.IsMajor(held) {
			altcoins++
		}
	}

	score := 0.0
	if altcoins >= 2 {
		score += 1.0
	}
	if altcoins >= 4 {
		score += 1.0
	}
	return score
}

// safePositionSize scales the requested allocation down by the risk score,
// caps it at 90% of the available balance and raises it to the exchange
// minimum when possible. The second return value is false when the minimum
// order size cannot be met within the per-trade risk limit.
func (e *Engine) safePositionSize(ctx context.Context, requested, riskScore, availableBalance, portfolioValue float64, symbol string) (float64, bool) {
	riskMultiplier := math.Max(0.2, 1.0-riskScore*0.15)
	adjusted := requested * riskMultiplier

	if portfolioValue > 0 {
		maxByBalance := availableBalance / portfolioValue * 100 * 0.9
		adjusted = math.Min(adjusted, maxByBalance)
	}

	minTradeValue := e.cfg.Trading.MinTradeAmount
	if e.exchange != nil {
		if notional, err := e.exchange.MinNotional(ctx, symbol); err != nil {
			e.logger.WithFields(logrus.Fields{"symbol": symbol}).
				Warnf("Could not fetch exchange minimum, using configured default: %v", err)
		} else {
			minTradeValue = notional
		}
	}

	if portfolioValue > 0 {
		minAllocation := minTradeValue / portfolioValue * 100

		if adjusted < minAllocation {
			maxRiskAllocation := e.cfg.Risk.MaxRiskPerTrade * 100
			if minAllocation > maxRiskAllocation {
				e.logger.WithFields(logrus.Fields{
					"symbol":         symbol,
					"min_allocation": minAllocation,
					"max_risk":       maxRiskAllocation,
				}).Warn("Minimum order size exceeds per-trade risk limit")
				return 0, false
			}
			adjusted = minAllocation
		}
	}

	return math.Round(adjusted*100) / 100, true
}

// CheckEmergencyStop updates peak and drawdown tracking from a fresh
// snapshot and trips the one-way latch when drawdown reaches the
// configured threshold. Returns whether the stop is now active.
func (e *Engine) CheckEmergencyStop(snapshot *models.PortfolioSnapshot) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	value := snapshot.TotalValue.InexactFloat64()
	if value > e.peakValue {
		e.peakValue = value
	}

	if e.peakValue > 0 {
		drawdown := (e.peakValue - value) / e.peakValue
		e.maxDrawdown = math.Max(e.maxDrawdown, drawdown)

		if drawdown >= e.cfg.Risk.EmergencyStopLoss && !e.emergencyStop {
			e.emergencyStop = true
			e.logger.WithFields(logrus.Fields{
				"drawdown":  drawdown,
				"threshold": e.cfg.Risk.EmergencyStopLoss,
			}).Error("EMERGENCY STOP: portfolio drawdown crossed threshold")
		}
	}

	return e.emergencyStop
}

// ResetEmergencyStop clears the latch and re-bases the peak to the supplied
// recovery snapshot. This is the only way the latch comes off.
func (e *Engine) ResetEmergencyStop(snapshot *models.PortfolioSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.emergencyStop = false
	e.peakValue = snapshot.TotalValue.InexactFloat64()

	e.logger.WithFields(logrus.Fields{
		"peak_value": e.peakValue,
	}).Warn("Emergency stop reset by operator")
}

// EmergencyStopActive reports the latch state without touching it.
func (e *Engine) EmergencyStopActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.emergencyStop
}

// RecordTrade adds an executed trade to the rolling 24h log. Malformed
// records are contract errors.
func (e *Engine) RecordTrade(trade *models.Trade) error {
	if err := trade.Validate(); err != nil {
		return fmt.Errorf("invalid trade record: %w", err)
	}

	timestamp := trade.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.evictExpiredTrades(time.Now())
	e.dailyTrades = append(e.dailyTrades, tradeRecord{
		timestamp: timestamp,
		action:    trade.Action,
		symbol:    trade.Symbol,
		amount:    trade.Amount.InexactFloat64(),
		success:   trade.Success,
	})

	return nil
}

// AddDailyPnL folds a realized profit or loss fraction into the daily total.
func (e *Engine) AddDailyPnL(delta float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dailyPnL += delta
}

// evictExpiredTrades drops log entries older than the rolling window.
// Caller must hold e.mu.
func (e *Engine) evictExpiredTrades(now time.Time) {
	kept := e.dailyTrades[:0]
	for _, t := range e.dailyTrades {
		if now.Sub(t.timestamp) < rollingWindow {
			kept = append(kept, t)
		}
	}
	e.dailyTrades = kept
}
