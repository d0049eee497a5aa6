package indicators

import "time"

// Momentum oscillator classifications.
const (
	RSIOversold   = "OVERSOLD"
	RSIOverbought = "OVERBOUGHT"
	RSINeutral    = "NEUTRAL"
)

// MACD trend classifications.
const (
	MACDBullish = "BULLISH"
	MACDBearish = "BEARISH"
	MACDNeutral = "NEUTRAL"
)

// Bollinger band position classifications.
const (
	BandAboveUpper = "ABOVE_UPPER"
	BandBelowLower = "BELOW_LOWER"
	BandUpperHalf  = "UPPER_HALF"
	BandLowerHalf  = "LOWER_HALF"
	BandNeutral    = "NEUTRAL"
)

// Trend directions.
const (
	TrendUp       = "UPTREND"
	TrendDown     = "DOWNTREND"
	TrendSideways = "SIDEWAYS"
)

// Price action momentum classes.
const (
	MomentumStrongUp   = "STRONG_UP"
	MomentumUp         = "UP"
	MomentumNeutral    = "NEUTRAL"
	MomentumDown       = "DOWN"
	MomentumStrongDown = "STRONG_DOWN"
)

// Price action patterns.
const (
	PatternStrongUptrend    = "STRONG_UPTREND"
	PatternStrongDowntrend  = "STRONG_DOWNTREND"
	PatternReversalUp       = "POTENTIAL_REVERSAL_UP"
	PatternReversalDown     = "POTENTIAL_REVERSAL_DOWN"
	PatternConsolidation    = "CONSOLIDATION"
	PatternInsufficientData = "INSUFFICIENT_DATA"
)

// RSIResult is the relative strength index value and its classification.
type RSIResult struct {
	Value  float64 `json:"rsi"`
	Signal string  `json:"signal"`
}

// MACDResult is the MACD line, signal line, histogram and trend verdict.
type MACDResult struct {
	Line      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
	Trend     string  `json:"trend"`
}

// BollingerResult is the band levels plus the current price position.
type BollingerResult struct {
	Upper    float64 `json:"upper"`
	Middle   float64 `json:"middle"`
	Lower    float64 `json:"lower"`
	Width    float64 `json:"width"`
	Position string  `json:"position"`
}

// TrendResult is the least-squares trend strength and direction.
type TrendResult struct {
	Strength  float64 `json:"strength"`
	Direction string  `json:"direction"`
}

// LevelsResult is the nearest support/resistance pair and how often the
// levels were tested recently.
type LevelsResult struct {
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
	Strength   float64 `json:"strength"`
}

// PriceActionResult is short-horizon momentum plus a simple candle pattern.
type PriceActionResult struct {
	Pattern    string  `json:"pattern"`
	Momentum   string  `json:"momentum"`
	Momentum5  float64 `json:"momentum_5"`
	Momentum10 float64 `json:"momentum_10"`
}

// IndicatorSet is the full derived snapshot for one instrument. It is
// recomputed from stored history on every query and never persisted.
type IndicatorSet struct {
	Symbol       string             `json:"symbol"`
	SMA          map[int]float64    `json:"sma"`
	EMA          map[int]float64    `json:"ema"`
	RSI          RSIResult          `json:"rsi"`
	MACD         MACDResult         `json:"macd"`
	Bollinger    BollingerResult    `json:"bollinger_bands"`
	ATR          float64            `json:"atr"`
	VolumeSMA    float64            `json:"volume_sma"`
	VolumeRatio  float64            `json:"volume_ratio"`
	Trend        TrendResult        `json:"trend_strength"`
	Levels       LevelsResult       `json:"support_resistance"`
	PriceAction  PriceActionResult  `json:"price_action"`
	CalculatedAt time.Time          `json:"calculated_at"`
}

// Overall signal directions.
const (
	SignalBullish = "BULLISH"
	SignalBearish = "BEARISH"
	SignalNeutral = "NEUTRAL"
)

// TradeSignal is the aggregate verdict over one instrument's indicators.
type TradeSignal struct {
	Symbol         string   `json:"symbol"`
	Overall        string   `json:"overall_signal"`
	Strength       float64  `json:"strength"`
	BullishFactors []string `json:"bullish_factors"`
	BearishFactors []string `json:"bearish_factors"`
	NeutralFactors []string `json:"neutral_factors"`
}
