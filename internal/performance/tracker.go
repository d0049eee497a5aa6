package performance

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

// Repository is the narrow persistence surface the tracker needs. It is an
// optional dependency: a nil repository keeps everything in memory.
type Repository interface {
	SaveTrade(ctx context.Context, trade *models.Trade) error
	SaveSnapshot(ctx context.Context, snapshot *models.PortfolioSnapshot) error
	// RecentTrades and RecentSnapshots return up to limit records in
	// chronological order.
	RecentTrades(ctx context.Context, limit int) ([]models.Trade, error)
	RecentSnapshots(ctx context.Context, limit int) ([]models.PortfolioSnapshot, error)
}

// restoreLimit bounds how much history Restore pulls from the repository.
const restoreLimit = 5000

// tradingDaysPerYear annualizes the volatility of per-snapshot returns.
const tradingDaysPerYear = 252

// Tracker accumulates executed trades and portfolio snapshots and derives
// rolling performance metrics from them. Histories are append-only; FIFO
// matching during metric computation works on copies and never mutates the
// stored records.
type Tracker struct {
	initialBalance float64
	riskFreeRate   float64
	logger         *logrus.Logger
	repo           Repository

	mu              sync.Mutex
	trades          []models.Trade
	snapshots       []models.PortfolioSnapshot
	returns         []float64
	peakValue       float64
	maxDrawdown     float64
	currentDrawdown float64
}

// NewTracker creates a performance tracker seeded with the configured
// initial balance. repo may be nil.
func NewTracker(cfg *config.Config, repo Repository, logger *logrus.Logger) *Tracker {
	return &Tracker{
		initialBalance: cfg.Trading.InitialBalance,
		riskFreeRate:   cfg.Risk.RiskFreeRate,
		logger:         logger,
		repo:           repo,
		peakValue:      cfg.Trading.InitialBalance,
	}
}

// Restore reloads trade and snapshot history from the repository and
// rebuilds the derived return and drawdown state. No-op without a
// repository.
func (t *Tracker) Restore(ctx context.Context) error {
	if t.repo == nil {
		return nil
	}

	trades, err := t.repo.RecentTrades(ctx, restoreLimit)
	if err != nil {
		return fmt.Errorf("restore trades: %w", err)
	}
	snapshots, err := t.repo.RecentSnapshots(ctx, restoreLimit)
	if err != nil {
		return fmt.Errorf("restore snapshots: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.trades = trades
	t.snapshots = snapshots
	t.rebuildDerivedState()

	t.logger.WithFields(logrus.Fields{
		"trades":    len(trades),
		"snapshots": len(snapshots),
	}).Info("Performance history restored")

	return nil
}

// rebuildDerivedState recomputes returns, peak and drawdown from the
// snapshot history. Caller must hold t.mu.
func (t *Tracker) rebuildDerivedState() {
	t.returns = nil
	t.peakValue = t.initialBalance
	t.maxDrawdown = 0
	t.currentDrawdown = 0

	for i, snap := range t.snapshots {
		value := snap.TotalValue.InexactFloat64()
		if i > 0 {
			prev := t.snapshots[i-1].TotalValue.InexactFloat64()
			if prev > 0 {
				t.returns = append(t.returns, (value-prev)/prev)
			}
		}
		t.updateDrawdown(value)
	}
}

// RecordTrade appends an executed trade to the history. Malformed trades
// are contract errors; a failed repository write is logged and does not
// lose the in-memory record.
func (t *Tracker) RecordTrade(ctx context.Context, trade *models.Trade) error {
	if err := trade.Validate(); err != nil {
		return fmt.Errorf("invalid trade: %w", err)
	}

	t.mu.Lock()
	t.trades = append(t.trades, *trade)
	t.mu.Unlock()

	if t.repo != nil {
		if err := t.repo.SaveTrade(ctx, trade); err != nil {
			t.logger.WithFields(logrus.Fields{
				"symbol": trade.Symbol,
				"action": trade.Action,
			}).Warnf("Failed to persist trade: %v", err)
		}
	}

	t.logger.WithFields(logrus.Fields{
		"symbol": trade.Symbol,
		"action": trade.Action,
		"amount": trade.Amount,
		"price":  trade.Price,
	}).Info("Trade recorded")

	return nil
}

// RecordSnapshot appends a portfolio snapshot, derives one rolling-return
// sample against the previous snapshot and updates peak and drawdown
// state. Snapshots must arrive in non-decreasing timestamp order.
func (t *Tracker) RecordSnapshot(ctx context.Context, snapshot *models.PortfolioSnapshot) error {
	snap := *snapshot
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}

	t.mu.Lock()
	if n := len(t.snapshots); n > 0 && snap.Timestamp.Before(t.snapshots[n-1].Timestamp) {
		last := t.snapshots[n-1].Timestamp
		t.mu.Unlock()
		return fmt.Errorf("snapshot timestamp %s precedes last recorded %s", snap.Timestamp, last)
	}

	value := snap.TotalValue.InexactFloat64()
	if n := len(t.snapshots); n > 0 {
		prev := t.snapshots[n-1].TotalValue.InexactFloat64()
		if prev > 0 {
			t.returns = append(t.returns, (value-prev)/prev)
		}
	}
	t.snapshots = append(t.snapshots, snap)
	t.updateDrawdown(value)
	t.mu.Unlock()

	if t.repo != nil {
		if err := t.repo.SaveSnapshot(ctx, &snap); err != nil {
			t.logger.Warnf("Failed to persist portfolio snapshot: %v", err)
		}
	}

	return nil
}

// updateDrawdown folds one portfolio value into peak and drawdown state.
// Caller must hold t.mu.
func (t *Tracker) updateDrawdown(value float64) {
	if value > t.peakValue {
		t.peakValue = value
		t.currentDrawdown = 0
		return
	}
	t.currentDrawdown = t.peakValue - value
	t.maxDrawdown = math.Max(t.maxDrawdown, t.currentDrawdown)
}

// Metrics computes the full performance summary. With no snapshots it
// returns the zero-value metrics object.
func (t *Tracker) Metrics() *Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.snapshots) == 0 {
		return &Metrics{}
	}

	currentValue := t.snapshots[len(t.snapshots)-1].TotalValue.InexactFloat64()

	totalReturn := currentValue - t.initialBalance
	totalReturnPct := totalReturn / t.initialBalance

	annualized := t.annualizedReturn(currentValue)
	volatility := t.annualizedVolatility()

	var maxDrawdownPct float64
	if t.peakValue > 0 {
		maxDrawdownPct = t.maxDrawdown / t.peakValue
	}

	m := &Metrics{
		TotalReturn:      totalReturn,
		TotalReturnPct:   totalReturnPct,
		AnnualizedReturn: annualized,
		Volatility:       volatility,
		SharpeRatio:      t.sharpeRatio(annualized, volatility),
		SortinoRatio:     t.sortinoRatio(annualized),
		CalmarRatio:      t.calmarRatio(annualized),
		MaxDrawdown:      t.maxDrawdown,
		MaxDrawdownPct:   maxDrawdownPct,
		TimeInMarket:     t.timeInMarket(),
	}

	matchTrades(t.trades).fill(m)
	return m
}

// annualizedReturn compounds the total return over the elapsed snapshot
// period. Periods under a day use a one-year divisor to avoid degenerate
// annualization. Caller must hold t.mu.
func (t *Tracker) annualizedReturn(currentValue float64) float64 {
	if currentValue <= 0 || t.initialBalance <= 0 {
		return 0
	}

	start := t.snapshots[0].Timestamp
	end := t.snapshots[len(t.snapshots)-1].Timestamp
	days := int(end.Sub(start).Hours() / 24)

	years := 1.0
	if days > 0 {
		years = float64(days) / 365.25
	}

	return math.Pow(currentValue/t.initialBalance, 1/years) - 1
}

// annualizedVolatility is the sample standard deviation of the rolling
// returns scaled to a trading year. Caller must hold t.mu.
func (t *Tracker) annualizedVolatility() float64 {
	return sampleStdDev(t.returns) * math.Sqrt(tradingDaysPerYear)
}

func (t *Tracker) sharpeRatio(annualized, volatility float64) float64 {
	if volatility == 0 {
		return 0
	}
	return (annualized - t.riskFreeRate) / volatility
}

// sortinoRatio divides the excess return by downside deviation only. With
// no negative return samples the ratio is unbounded when the excess return
// is positive. Caller must hold t.mu.
func (t *Tracker) sortinoRatio(annualized float64) float64 {
	if len(t.returns) == 0 {
		return 0
	}

	var negative []float64
	for _, r := range t.returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}

	if len(negative) == 0 {
		if annualized > t.riskFreeRate {
			return RatioUnbounded
		}
		return 0
	}

	downside := sampleStdDev(negative) * math.Sqrt(tradingDaysPerYear)
	if downside == 0 {
		return 0
	}
	return (annualized - t.riskFreeRate) / downside
}

// calmarRatio divides the annualized return by the peak-relative max
// drawdown. Caller must hold t.mu.
func (t *Tracker) calmarRatio(annualized float64) float64 {
	if t.maxDrawdown == 0 || t.peakValue <= 0 {
		return 0
	}
	return annualized / (t.maxDrawdown / t.peakValue)
}

// timeInMarket is the fraction of elapsed time between consecutive
// snapshots during which at least one position was open. Caller must hold
// t.mu.
func (t *Tracker) timeInMarket() float64 {
	var withPositions, total float64

	for i := 1; i < len(t.snapshots); i++ {
		interval := t.snapshots[i].Timestamp.Sub(t.snapshots[i-1].Timestamp).Seconds()
		total += interval
		if len(t.snapshots[i-1].Positions) > 0 {
			withPositions += interval
		}
	}

	if total == 0 {
		return 0
	}
	return withPositions / total
}

// SnapshotCount reports how many snapshots have been recorded.
func (t *Tracker) SnapshotCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.snapshots)
}

// TradeCount reports how many trades have been recorded.
func (t *Tracker) TradeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.trades)
}

// sampleStdDev is the n-1 standard deviation. Fewer than two samples have
// no defined spread and report 0.
func sampleStdDev(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}

	var mean float64
	for _, s := range samples {
		mean += s
	}
	mean /= float64(len(samples))

	var sumSq float64
	for _, s := range samples {
		d := s - mean
		sumSq += d * d
	}

	return math.Sqrt(sumSq / float64(len(samples)-1))
}
