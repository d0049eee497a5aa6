package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeAction is the direction of a proposed or executed trade.
type TradeAction string

const (
	ActionBuy   TradeAction = "BUY"
	ActionSell  TradeAction = "SELL"
	ActionClose TradeAction = "CLOSE"
)

// ParseAction validates a raw action string. Unknown actions are contract
// errors, not policy rejections.
func ParseAction(raw string) (TradeAction, error) {
	switch TradeAction(raw) {
	case ActionBuy, ActionSell, ActionClose:
		return TradeAction(raw), nil
	}
	return "", fmt.Errorf("unknown trade action: %q", raw)
}

// IsExit reports whether the action reduces an existing position.
func (a TradeAction) IsExit() bool {
	return a == ActionSell || a == ActionClose
}

// Trade is one executed order as reported by the exchange layer.
// Records are immutable once stored; P&L matching works on copies.
type Trade struct {
	ID        string          `json:"id,omitempty" db:"id"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	Symbol    string          `json:"symbol" db:"symbol"`
	Action    TradeAction     `json:"action" db:"action"`
	Quantity  decimal.Decimal `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Fees      decimal.Decimal `json:"fees" db:"fees"`
	OrderID   string          `json:"order_id" db:"order_id"`
	Success   bool            `json:"success" db:"success"`
}

// Validate rejects malformed trade records before they enter any history.
func (t *Trade) Validate() error {
	if _, err := ParseAction(string(t.Action)); err != nil {
		return err
	}
	if t.Symbol == "" {
		return fmt.Errorf("trade symbol is required")
	}
	if t.Quantity.IsNegative() {
		return fmt.Errorf("trade quantity must not be negative, got %s", t.Quantity)
	}
	if t.Price.IsNegative() {
		return fmt.Errorf("trade price must not be negative, got %s", t.Price)
	}
	return nil
}

// Position is the current holding in one instrument.
type Position struct {
	Value    decimal.Decimal `json:"value"`
	Quantity decimal.Decimal `json:"quantity"`
}

// PortfolioSnapshot is the account state at one point in time, supplied by
// the portfolio collaborator each decision cycle.
type PortfolioSnapshot struct {
	Timestamp        time.Time           `json:"timestamp" db:"timestamp"`
	TotalValue       decimal.Decimal     `json:"total_value" db:"total_value"`
	AvailableBalance decimal.Decimal     `json:"available_balance" db:"available_balance"`
	Positions        map[string]Position `json:"positions" db:"positions"`
	UnrealizedPnL    decimal.Decimal     `json:"unrealized_pnl" db:"unrealized_pnl"`
}

// HasPosition reports whether the snapshot holds the given symbol.
func (s *PortfolioSnapshot) HasPosition(symbol string) bool {
	_, ok := s.Positions[symbol]
	return ok
}
