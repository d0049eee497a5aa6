package risk

import (
	"math"
	"time"

	"github.com/cryptoedge/tradecore/internal/models"
)

// assumedCorrelation is the fixed pairwise correlation between held crypto
// assets used by the VaR model.
const assumedCorrelation = 0.70

// RiskMetrics derives the current portfolio risk summary. It only reads
// engine state and never mutates it beyond rolling-log eviction.
func (e *Engine) RiskMetrics(snapshot *models.PortfolioSnapshot, market map[string]models.MarketMetrics) *Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.evictExpiredTrades(time.Now())

	portfolioValue := snapshot.TotalValue.InexactFloat64()
	positionCount := len(snapshot.Positions)

	var largestPosition, totalCryptoValue float64
	for _, pos := range snapshot.Positions {
		value := pos.Value.InexactFloat64()
		totalCryptoValue += value
		if portfolioValue > 0 {
			largestPosition = math.Max(largestPosition, value/portfolioValue*100)
		}
	}

	var cryptoConcentration float64
	if portfolioValue > 0 {
		cryptoConcentration = totalCryptoValue / portfolioValue * 100
	}

	var totalVolatility float64
	for symbol := range snapshot.Positions {
		totalVolatility += math.Abs(market[symbol].PriceChange24h)
	}
	var avgVolatility float64
	if positionCount > 0 {
		avgVolatility = totalVolatility / float64(positionCount)
	}

	portfolioRisk := 0.0
	if float64(positionCount) > float64(e.cfg.Risk.MaxOpenPositions)*0.8 {
		portfolioRisk += 1.0
	}
	if largestPosition > 20 {
		portfolioRisk += 2.0
	} else if largestPosition > 10 {
		portfolioRisk += 1.0
	}
	if cryptoConcentration > 80 {
		portfolioRisk += 2.0
	} else if cryptoConcentration > 60 {
		portfolioRisk += 1.0
	}
	if avgVolatility > 15 {
		portfolioRisk += 1.5
	} else if avgVolatility > 10 {
		portfolioRisk += 1.0
	}

	return &Metrics{
		PortfolioRisk:       portfolioRisk,
		PositionCount:       positionCount,
		MaxPositions:        e.cfg.Risk.MaxOpenPositions,
		LargestPositionPct:  largestPosition,
		CryptoConcentration: cryptoConcentration,
		AvgVolatility:       avgVolatility,
		MaxDrawdownPct:      e.maxDrawdown * 100,
		DailyTrades:         len(e.dailyTrades),
		EmergencyStopActive: e.emergencyStop,
		CorrelationRisk:     math.Min(float64(positionCount)*0.5, 5.0),
	}
}

// CalculateVaR estimates the portfolio loss at the given tail probability
// using position weights, 24h volatility and a fixed pairwise correlation.
func (e *Engine) CalculateVaR(snapshot *models.PortfolioSnapshot, market map[string]models.MarketMetrics, confidenceLevel float64) float64 {
	portfolioValue := snapshot.TotalValue.InexactFloat64()
	if len(snapshot.Positions) == 0 || portfolioValue == 0 {
		return 0.0
	}

	weight := func(symbol string) float64 {
		return snapshot.Positions[symbol].Value.InexactFloat64() / portfolioValue
	}
	dailyVol := func(symbol string) float64 {
		return math.Abs(market[symbol].PriceChange24h) / 100
	}

	var variance float64
	for symbol := range snapshot.Positions {
		w := weight(symbol)
		v := dailyVol(symbol)
		variance += w * w * v * v
	}

	if len(snapshot.Positions) > 1 {
		for a := range snapshot.Positions {
			for b := range snapshot.Positions {
				if a == b {
					continue
				}
				variance += 2 * weight(a) * weight(b) * dailyVol(a) * dailyVol(b) * assumedCorrelation
			}
		}
	}

	return portfolioValue * math.Sqrt(variance) * zScore(confidenceLevel)
}

// zScore maps a tail probability to the normal quantile magnitude. The two
// standard confidence levels use their conventional constants; anything
// else goes through an inverse-normal approximation.
func zScore(confidenceLevel float64) float64 {
	switch confidenceLevel {
	case 0.05:
		return 1.645
	case 0.01:
		return 2.326
	}
	if confidenceLevel <= 0 || confidenceLevel >= 1 {
		return 1.645
	}
	return math.Abs(inverseNormalCDF(confidenceLevel))
}

// inverseNormalCDF is the Acklam rational approximation of the standard
// normal quantile function, accurate to ~1e-9 over (0,1).
func inverseNormalCDF(p float64) float64 {
	a := [6]float64{-39.69683028665376, 220.9460984245205, -275.9285104469687, 138.3577518672690, -30.66479806614716, 2.506628277459239}
	b := [5]float64{-54.47609879822406, 161.5858368580409, -155.6989798598866, 66.80131188771972, -13.28068155288572}
	c := [6]float64{-0.007784894002430293, -0.3223964580411365, -2.400758277161838, -2.549732539343734, 4.374664141464968, 2.938163982698783}
	d := [4]float64{0.007784695709041462, 0.3224671290700398, 2.445134137142996, 3.754408661907416}

	const pLow = 0.02425
	switch {
	case p < pLow:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	case p > 1-pLow:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	default:
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	}
}

// StressTest projects portfolio losses under three fixed scenarios.
func (e *Engine) StressTest(snapshot *models.PortfolioSnapshot, market map[string]models.MarketMetrics) StressResult {
	result := StressResult{
		ScenarioMarketCrash:  0.0,
		ScenarioCryptoWinter: 0.0,
		ScenarioFlashCrash:   0.0,
	}

	portfolioValue := snapshot.TotalValue.InexactFloat64()
	if len(snapshot.Positions) == 0 || portfolioValue == 0 {
		return result
	}

	var crashLoss, winterLoss float64
	for symbol, pos := range snapshot.Positions {
		value := pos.Value.InexactFloat64()
		crashLoss += value * 0.5
		if e.cfg.IsMajor(symbol) {
			winterLoss += value * 0.3
		} else {
			winterLoss += value * 0.8
		}
	}

	result[ScenarioMarketCrash] = crashLoss
	result[ScenarioCryptoWinter] = winterLoss
	result[ScenarioFlashCrash] = portfolioValue * 0.2

	return result
}
