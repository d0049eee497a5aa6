package risk

// Adjustments carries replacements for fields of the proposed trade.
type Adjustments struct {
	AllocationPct float64 `json:"allocation_percentage"`
}

// Assessment is the verdict for one proposed trade. It is produced fresh
// per evaluation and never stored by the engine.
type Assessment struct {
	Approved    bool         `json:"approved"`
	RiskScore   float64      `json:"risk_score"`
	Warnings    []string     `json:"warnings"`
	Adjustments *Adjustments `json:"adjustments,omitempty"`
	Reason      string       `json:"reason"`
}

// Metrics is the portfolio-level risk summary.
type Metrics struct {
	PortfolioRisk       float64 `json:"portfolio_risk"`
	PositionCount       int     `json:"position_count"`
	MaxPositions        int     `json:"max_positions"`
	LargestPositionPct  float64 `json:"largest_position_pct"`
	CryptoConcentration float64 `json:"crypto_concentration"`
	AvgVolatility       float64 `json:"avg_volatility"`
	MaxDrawdownPct      float64 `json:"max_drawdown"`
	DailyTrades         int     `json:"daily_trades"`
	EmergencyStopActive bool    `json:"emergency_stop_active"`
	CorrelationRisk     float64 `json:"correlation_risk"`
}

// StressResult maps scenario name to projected dollar loss.
type StressResult map[string]float64

// Stress scenario names.
const (
	ScenarioMarketCrash  = "market_crash"
	ScenarioCryptoWinter = "crypto_winter"
	ScenarioFlashCrash   = "flash_crash"
)
