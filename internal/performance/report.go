package performance

import (
	"fmt"
	"strings"
)

// Report renders a human-readable performance summary suitable for logs or
// a monitoring endpoint.
func (t *Tracker) Report() string {
	m := t.Metrics()

	t.mu.Lock()
	snapshots := len(t.snapshots)
	returns := len(t.returns)
	initial := t.initialBalance
	t.mu.Unlock()

	var b strings.Builder

	b.WriteString("TRADING PERFORMANCE REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	b.WriteString("RETURNS\n")
	fmt.Fprintf(&b, "Total Return: $%.2f (%.2f%%)\n", m.TotalReturn, m.TotalReturnPct*100)
	fmt.Fprintf(&b, "Annualized Return: %.2f%%\n", m.AnnualizedReturn*100)
	fmt.Fprintf(&b, "Initial Balance: $%.2f\n", initial)
	fmt.Fprintf(&b, "Current Value: $%.2f\n\n", initial+m.TotalReturn)

	b.WriteString("RISK METRICS\n")
	fmt.Fprintf(&b, "Volatility (Annual): %.2f%%\n", m.Volatility*100)
	fmt.Fprintf(&b, "Sharpe Ratio: %.2f\n", m.SharpeRatio)
	fmt.Fprintf(&b, "Sortino Ratio: %s\n", formatRatio(m.SortinoRatio))
	fmt.Fprintf(&b, "Calmar Ratio: %.2f\n", m.CalmarRatio)
	fmt.Fprintf(&b, "Max Drawdown: $%.2f (%.2f%%)\n\n", m.MaxDrawdown, m.MaxDrawdownPct*100)

	b.WriteString("TRADING STATISTICS\n")
	fmt.Fprintf(&b, "Total Trades: %d\n", m.TotalTrades)
	fmt.Fprintf(&b, "Win Rate: %.1f%%\n", m.WinRate*100)
	fmt.Fprintf(&b, "Profit Factor: %s\n", formatRatio(m.ProfitFactor))
	fmt.Fprintf(&b, "Winning Trades: %d\n", m.WinningTrades)
	fmt.Fprintf(&b, "Losing Trades: %d\n", m.LosingTrades)
	fmt.Fprintf(&b, "Average Win: $%.2f\n", m.AvgWin)
	fmt.Fprintf(&b, "Average Loss: $%.2f\n", m.AvgLoss)
	fmt.Fprintf(&b, "Largest Win: $%.2f\n", m.LargestWin)
	fmt.Fprintf(&b, "Largest Loss: $%.2f\n\n", m.LargestLoss)

	b.WriteString("MARKET EXPOSURE\n")
	fmt.Fprintf(&b, "Time in Market: %.1f%%\n\n", m.TimeInMarket*100)

	b.WriteString("PERIOD\n")
	fmt.Fprintf(&b, "Data Points: %d\n", snapshots)
	fmt.Fprintf(&b, "Return Samples: %d\n", returns)

	return b.String()
}

// formatRatio prints the unbounded sentinel as text instead of a float.
func formatRatio(r float64) string {
	if r == RatioUnbounded {
		return "unbounded"
	}
	return fmt.Sprintf("%.2f", r)
}
