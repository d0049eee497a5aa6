package performance

import (
	"github.com/shopspring/decimal"

	"github.com/cryptoedge/tradecore/internal/models"
)

// lot is a mutable working copy of one trade leg used during matching.
type lot struct {
	quantity decimal.Decimal
	price    decimal.Decimal
	fees     decimal.Decimal
}

// tradeStats are the realized-P&L statistics from FIFO lot matching.
type tradeStats struct {
	wins   []float64
	losses []float64
}

// matchTrades pairs BUY lots against subsequent SELL/CLOSE lots per symbol,
// oldest buy first, realizing P&L net of both legs' fees per matched
// quantity. It operates on working copies so the recorded history is never
// mutated, making recomputation idempotent. Unmatched open lots contribute
// nothing.
func matchTrades(trades []models.Trade) *tradeStats {
	buys := make(map[string][]*lot)
	sells := make(map[string][]*lot)
	var order []string

	for _, trade := range trades {
		if len(buys[trade.Symbol]) == 0 && len(sells[trade.Symbol]) == 0 {
			order = append(order, trade.Symbol)
		}

		l := &lot{quantity: trade.Quantity, price: trade.Price, fees: trade.Fees}
		switch {
		case trade.Action == models.ActionBuy:
			buys[trade.Symbol] = append(buys[trade.Symbol], l)
		case trade.Action.IsExit():
			sells[trade.Symbol] = append(sells[trade.Symbol], l)
		}
	}

	stats := &tradeStats{}

	for _, symbol := range order {
		for _, sell := range sells[symbol] {
			for _, buy := range buys[symbol] {
				if !buy.quantity.IsPositive() {
					continue
				}

				matched := decimal.Min(buy.quantity, sell.quantity)
				pnl := sell.price.Sub(buy.price).Mul(matched).Sub(sell.fees).Sub(buy.fees)

				if pnl.IsPositive() {
					stats.wins = append(stats.wins, pnl.InexactFloat64())
				} else {
					stats.losses = append(stats.losses, pnl.Abs().InexactFloat64())
				}

				buy.quantity = buy.quantity.Sub(matched)
				sell.quantity = sell.quantity.Sub(matched)

				if !sell.quantity.IsPositive() {
					break
				}
			}
		}
	}

	return stats
}

// fill writes the trade statistics into the metrics object.
func (s *tradeStats) fill(m *Metrics) {
	m.WinningTrades = len(s.wins)
	m.LosingTrades = len(s.losses)
	m.TotalTrades = m.WinningTrades + m.LosingTrades

	if m.TotalTrades == 0 {
		return
	}

	m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)

	var totalProfit, totalLoss float64
	for _, w := range s.wins {
		totalProfit += w
		m.LargestWin = max(m.LargestWin, w)
	}
	for _, l := range s.losses {
		totalLoss += l
		m.LargestLoss = max(m.LargestLoss, l)
	}

	if m.WinningTrades > 0 {
		m.AvgWin = totalProfit / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = totalLoss / float64(m.LosingTrades)
	}

	switch {
	case totalLoss > 0:
		m.ProfitFactor = totalProfit / totalLoss
	case totalProfit > 0:
		// Realized wins with zero realized losses: the ratio is unbounded.
		m.ProfitFactor = RatioUnbounded
	}
}
