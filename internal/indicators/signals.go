package indicators

import "math"

// Signals derives the aggregate trade signal for a symbol from its current
// indicator set. The verdict is deterministic given the same indicators.
func (e *Engine) Signals(symbol string) *TradeSignal {
	set := e.Indicators(symbol)

	signal := &TradeSignal{
		Symbol:  symbol,
		Overall: SignalNeutral,
	}

	// RSI
	switch set.RSI.Signal {
	case RSIOversold:
		signal.BullishFactors = append(signal.BullishFactors, "RSI oversold (potential bounce)")
	case RSIOverbought:
		signal.BearishFactors = append(signal.BearishFactors, "RSI overbought (potential decline)")
	default:
		signal.NeutralFactors = append(signal.NeutralFactors, "RSI neutral")
	}

	// MACD
	switch set.MACD.Trend {
	case MACDBullish:
		signal.BullishFactors = append(signal.BullishFactors, "MACD bullish crossover")
	case MACDBearish:
		signal.BearishFactors = append(signal.BearishFactors, "MACD bearish crossover")
	default:
		signal.NeutralFactors = append(signal.NeutralFactors, "MACD neutral")
	}

	// Price vs SMA-20
	if sma20, ok := set.SMA[20]; ok {
		if currentPrice := e.lastPrice(symbol); currentPrice > sma20 {
			signal.BullishFactors = append(signal.BullishFactors, "Price above SMA-20")
		} else {
			signal.BearishFactors = append(signal.BearishFactors, "Price below SMA-20")
		}
	}

	// Bollinger band extension
	switch set.Bollinger.Position {
	case BandBelowLower:
		signal.BullishFactors = append(signal.BullishFactors, "Price below lower Bollinger Band (oversold)")
	case BandAboveUpper:
		signal.BearishFactors = append(signal.BearishFactors, "Price above upper Bollinger Band (overbought)")
	}

	// Trend
	if set.Trend.Strength > 50 {
		switch set.Trend.Direction {
		case TrendUp:
			signal.BullishFactors = append(signal.BullishFactors, "Strong uptrend detected")
		case TrendDown:
			signal.BearishFactors = append(signal.BearishFactors, "Strong downtrend detected")
		}
	}

	// Momentum
	switch set.PriceAction.Momentum {
	case MomentumStrongUp, MomentumUp:
		signal.BullishFactors = append(signal.BullishFactors, "Positive price momentum")
	case MomentumStrongDown, MomentumDown:
		signal.BearishFactors = append(signal.BearishFactors, "Negative price momentum")
	}

	bullish := len(signal.BullishFactors)
	bearish := len(signal.BearishFactors)

	switch {
	case bullish > bearish+1:
		signal.Overall = SignalBullish
		signal.Strength = math.Min(float64(bullish-bearish)*20, 100)
	case bearish > bullish+1:
		signal.Overall = SignalBearish
		signal.Strength = math.Min(float64(bearish-bullish)*20, 100)
	}

	return signal
}

// lastPrice reads the most recent stored price for a symbol, zero if none.
func (e *Engine) lastPrice(symbol string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, ok := e.history[symbol]
	if !ok || s.len() == 0 {
		return 0
	}
	points := s.snapshot()
	return points[len(points)-1].Price
}
