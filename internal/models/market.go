package models

import "time"

// PricePoint is one observed (price, volume) sample for an instrument.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
}

// MarketMetrics is the 24h market summary supplied by the market data
// collaborator, keyed by symbol when passed to the risk engine.
type MarketMetrics struct {
	Symbol         string    `json:"symbol"`
	Price          float64   `json:"price"`
	Volume24h      float64   `json:"volume_24h"`
	MarketCap      float64   `json:"market_cap"`
	PriceChange24h float64   `json:"price_change_24h"`
	Timestamp      time.Time `json:"timestamp"`
}

// SymbolRules is the exchange trading-rule set for one instrument.
type SymbolRules struct {
	Symbol      string  `json:"symbol"`
	MinNotional float64 `json:"min_notional"`
	MinQuantity float64 `json:"min_quantity"`
	StepSize    float64 `json:"step_size"`
}
