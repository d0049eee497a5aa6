package indicators

import (
	"math"
	"sync"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/sirupsen/logrus"

	"github.com/cryptoedge/tradecore/internal/models"
)

// Indicator periods. The SMA/EMA sets and window sizes match the wider
// system's five minute sampling cadence.
var (
	smaPeriods = []int{20, 50, 200}
	emaPeriods = []int{12, 26}
)

const (
	rsiPeriod        = 14
	macdFast         = 12
	macdSlow         = 26
	macdSignalPeriod = 9
	bbPeriod         = 20
	bbStdDev         = 2.0
	atrPeriod        = 14
	volumePeriod     = 20
	trendWindow      = 20
	levelsWindow     = 50
	minSamples       = 20
)

// Engine accumulates bounded per-symbol price history and derives
// technical indicators from it. It owns the history exclusively; callers
// feed it through Update and read through Indicators/Signals.
type Engine struct {
	mu      sync.RWMutex
	history map[string]*series
	logger  *logrus.Logger
}

// NewEngine creates an indicator engine with empty history.
func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{
		history: make(map[string]*series),
		logger:  logger,
	}
}

// Update appends one price/volume sample for a symbol, evicting the oldest
// sample once the window is full. A zero timestamp means "now". The engine
// is a pure accumulator: it stores whatever the caller hands it, input
// validation belongs upstream.
func (e *Engine) Update(symbol string, price, volume float64, timestamp time.Time) {
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.history[symbol]
	if !ok {
		s = newSeries()
		e.history[symbol] = s
	}

	s.append(models.PricePoint{Timestamp: timestamp, Price: price, Volume: volume})
}

// SampleCount returns the number of stored samples for a symbol.
func (e *Engine) SampleCount(symbol string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if s, ok := e.history[symbol]; ok {
		return s.len()
	}
	return 0
}

// Indicators computes the full indicator set for a symbol from the stored
// history. With fewer than 20 samples it returns the documented neutral
// defaults so callers never have to branch on data availability.
func (e *Engine) Indicators(symbol string) *IndicatorSet {
	e.mu.RLock()
	s, ok := e.history[symbol]
	var points []models.PricePoint
	if ok {
		points = s.snapshot()
	}
	e.mu.RUnlock()

	if len(points) < minSamples {
		e.logger.WithFields(logrus.Fields{
			"symbol":  symbol,
			"samples": len(points),
		}).Debug("Insufficient history, returning neutral indicators")
		return emptyIndicatorSet(symbol)
	}

	prices := make([]float64, len(points))
	volumes := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
		volumes[i] = p.Volume
	}

	return &IndicatorSet{
		Symbol:       symbol,
		SMA:          computeSMAs(prices),
		EMA:          computeEMAs(prices),
		RSI:          computeRSI(prices),
		MACD:         computeMACD(prices),
		Bollinger:    computeBollinger(prices),
		ATR:          computeATR(prices),
		VolumeSMA:    computeVolumeSMA(volumes),
		VolumeRatio:  computeVolumeRatio(volumes),
		Trend:        computeTrend(prices),
		Levels:       findSupportResistance(prices),
		PriceAction:  analyzePriceAction(prices),
		CalculatedAt: time.Now(),
	}
}

// emptyIndicatorSet is the defined neutral default for thin history.
func emptyIndicatorSet(symbol string) *IndicatorSet {
	return &IndicatorSet{
		Symbol:      symbol,
		SMA:         map[int]float64{},
		EMA:         map[int]float64{},
		RSI:         RSIResult{Value: 50.0, Signal: RSINeutral},
		MACD:        MACDResult{Trend: MACDNeutral},
		Bollinger:   BollingerResult{Position: BandNeutral},
		VolumeRatio: 1.0,
		Trend:       TrendResult{Direction: TrendSideways},
		PriceAction: PriceActionResult{
			Pattern:  PatternInsufficientData,
			Momentum: MomentumNeutral,
		},
		CalculatedAt: time.Now(),
	}
}

func computeSMAs(prices []float64) map[int]float64 {
	out := make(map[int]float64, len(smaPeriods))
	for _, period := range smaPeriods {
		if len(prices) < period {
			continue
		}
		sma := trend.NewSmaWithPeriod[float64](period)
		values := helper.ChanToSlice(sma.Compute(helper.SliceToChan(prices)))
		if len(values) > 0 {
			out[period] = values[len(values)-1]
		}
	}
	return out
}

func computeEMAs(prices []float64) map[int]float64 {
	out := make(map[int]float64, len(emaPeriods))
	for _, period := range emaPeriods {
		if len(prices) < period {
			continue
		}
		ema := trend.NewEmaWithPeriod[float64](period)
		values := helper.ChanToSlice(ema.Compute(helper.SliceToChan(prices)))
		if len(values) > 0 {
			out[period] = values[len(values)-1]
		}
	}
	return out
}

// computeRSI averages gains and losses over the last rsiPeriod deltas.
// A zero average loss pins RSI at 100.
func computeRSI(prices []float64) RSIResult {
	if len(prices) < rsiPeriod+1 {
		return RSIResult{Value: 50.0, Signal: RSINeutral}
	}

	window := prices[len(prices)-rsiPeriod-1:]
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	avgGain := gains / rsiPeriod
	avgLoss := losses / rsiPeriod

	var rsi float64
	if avgLoss == 0 {
		rsi = 100
	} else {
		rs := avgGain / avgLoss
		rsi = 100 - (100 / (1 + rs))
	}

	signal := RSINeutral
	switch {
	case rsi > 70:
		signal = RSIOverbought
	case rsi < 30:
		signal = RSIOversold
	}

	return RSIResult{Value: rsi, Signal: signal}
}

func computeMACD(prices []float64) MACDResult {
	if len(prices) < macdSlow {
		return MACDResult{Trend: MACDNeutral}
	}

	macd := trend.NewMacdWithPeriod[float64](macdFast, macdSlow, macdSignalPeriod)
	lineChan, signalChan := macd.Compute(helper.SliceToChan(prices))

	// Both outputs are fed by a single unbuffered duplicator; they must be
	// drained concurrently or the writer stalls.
	signalReady := make(chan []float64, 1)
	go func() {
		signalReady <- helper.ChanToSlice(signalChan)
	}()
	lineValues := helper.ChanToSlice(lineChan)
	signalValues := <-signalReady

	if len(lineValues) == 0 {
		return MACDResult{Trend: MACDNeutral}
	}

	line := lineValues[len(lineValues)-1]
	signal := line
	if len(signalValues) > 0 {
		signal = signalValues[len(signalValues)-1]
	}
	histogram := line - signal

	macdTrend := MACDNeutral
	switch {
	case line > signal && histogram > 0:
		macdTrend = MACDBullish
	case line < signal && histogram < 0:
		macdTrend = MACDBearish
	}

	return MACDResult{
		Line:      line,
		Signal:    signal,
		Histogram: histogram,
		Trend:     macdTrend,
	}
}

// computeBollinger uses the population standard deviation (N divisor) of
// the last bbPeriod samples around their SMA.
func computeBollinger(prices []float64) BollingerResult {
	if len(prices) < bbPeriod {
		return BollingerResult{Position: BandNeutral}
	}

	window := prices[len(prices)-bbPeriod:]
	var sum float64
	for _, p := range window {
		sum += p
	}
	middle := sum / bbPeriod

	var variance float64
	for _, p := range window {
		diff := p - middle
		variance += diff * diff
	}
	variance /= bbPeriod
	stdDev := math.Sqrt(variance)

	upper := middle + bbStdDev*stdDev
	lower := middle - bbStdDev*stdDev
	width := (upper - lower) / middle * 100

	current := prices[len(prices)-1]
	position := BandLowerHalf
	switch {
	case current > upper:
		position = BandAboveUpper
	case current < lower:
		position = BandBelowLower
	case current > middle:
		position = BandUpperHalf
	}

	return BollingerResult{
		Upper:    upper,
		Middle:   middle,
		Lower:    lower,
		Width:    width,
		Position: position,
	}
}

// computeATR approximates true range with absolute successive price deltas,
// averaged over the last atrPeriod samples.
func computeATR(prices []float64) float64 {
	if len(prices) < atrPeriod+1 {
		return 0.0
	}

	var sum float64
	count := 0
	for i := len(prices) - atrPeriod; i < len(prices); i++ {
		sum += math.Abs(prices[i] - prices[i-1])
		count++
	}
	return sum / float64(count)
}

func computeVolumeSMA(volumes []float64) float64 {
	if len(volumes) < volumePeriod {
		return 0.0
	}

	var sum float64
	for _, v := range volumes[len(volumes)-volumePeriod:] {
		sum += v
	}
	return sum / volumePeriod
}

func computeVolumeRatio(volumes []float64) float64 {
	if len(volumes) < volumePeriod {
		return 1.0
	}

	avg := computeVolumeSMA(volumes)
	if avg <= 0 {
		return 1.0
	}
	return volumes[len(volumes)-1] / avg
}

// computeTrend fits a least-squares line over the last trendWindow samples
// and normalizes the slope by the window's price range onto 0-100.
func computeTrend(prices []float64) TrendResult {
	if len(prices) < trendWindow {
		return TrendResult{Direction: TrendSideways}
	}

	window := prices[len(prices)-trendWindow:]
	n := float64(len(window))

	var xMean, yMean float64
	for i, y := range window {
		xMean += float64(i)
		yMean += y
	}
	xMean /= n
	yMean /= n

	var numerator, denominator float64
	for i, y := range window {
		dx := float64(i) - xMean
		numerator += dx * (y - yMean)
		denominator += dx * dx
	}

	var slope float64
	if denominator != 0 {
		slope = numerator / denominator
	}

	low, high := window[0], window[0]
	for _, p := range window {
		low = math.Min(low, p)
		high = math.Max(high, p)
	}

	var strength float64
	if priceRange := high - low; priceRange > 0 {
		strength = math.Min(math.Abs(slope)/priceRange*100*trendWindow, 100)
	}

	direction := TrendSideways
	switch {
	case slope > 0.001:
		direction = TrendUp
	case slope < -0.001:
		direction = TrendDown
	}

	return TrendResult{Strength: strength, Direction: direction}
}

// findSupportResistance scans the last levelsWindow samples for strict
// local extrema (dominating two neighbors on each side) and picks the
// nearest levels around the current price. Strength counts how many recent
// samples sit within 2% of each level.
func findSupportResistance(prices []float64) LevelsResult {
	if len(prices) < levelsWindow {
		return LevelsResult{}
	}

	recent := prices[len(prices)-levelsWindow:]
	current := prices[len(prices)-1]

	var highs, lows []float64
	for i := 2; i < len(recent)-2; i++ {
		p := recent[i]
		if p > recent[i-1] && p > recent[i+1] && p > recent[i-2] && p > recent[i+2] {
			highs = append(highs, p)
		}
		if p < recent[i-1] && p < recent[i+1] && p < recent[i-2] && p < recent[i+2] {
			lows = append(lows, p)
		}
	}

	globalLow, globalHigh := recent[0], recent[0]
	for _, p := range recent {
		globalLow = math.Min(globalLow, p)
		globalHigh = math.Max(globalHigh, p)
	}

	// Closest low below price, falling back to the window minimum.
	support := globalLow
	found := false
	for _, low := range lows {
		if low < current && (!found || low > support) {
			support = low
			found = true
		}
	}

	// Closest high above price, falling back to the window maximum.
	resistance := globalHigh
	found = false
	for _, high := range highs {
		if high > current && (!found || high < resistance) {
			resistance = high
			found = true
		}
	}

	var supportTests, resistanceTests int
	for _, p := range recent {
		if support != 0 && math.Abs(p-support)/support < 0.02 {
			supportTests++
		}
		if resistance != 0 && math.Abs(p-resistance)/resistance < 0.02 {
			resistanceTests++
		}
	}

	return LevelsResult{
		Support:    support,
		Resistance: resistance,
		Strength:   float64(supportTests+resistanceTests) / 2,
	}
}

func analyzePriceAction(prices []float64) PriceActionResult {
	if len(prices) < 10 {
		return PriceActionResult{
			Pattern:  PatternInsufficientData,
			Momentum: MomentumNeutral,
		}
	}

	current := prices[len(prices)-1]
	momentum5 := (current - prices[len(prices)-5]) / prices[len(prices)-5] * 100
	momentum10 := (current - prices[len(prices)-10]) / prices[len(prices)-10] * 100

	momentum := MomentumNeutral
	switch {
	case momentum5 > 2:
		momentum = MomentumStrongUp
	case momentum5 > 0.5:
		momentum = MomentumUp
	case momentum5 < -2:
		momentum = MomentumStrongDown
	case momentum5 < -0.5:
		momentum = MomentumDown
	}

	recent := prices[len(prices)-10:]
	pattern := PatternConsolidation
	switch {
	case ascendingRun(recent[:5]):
		pattern = PatternStrongUptrend
	case descendingRun(recent[:5]):
		pattern = PatternStrongDowntrend
	case recent[9] > recent[7] && recent[8] < recent[7]:
		pattern = PatternReversalUp
	case recent[9] < recent[7] && recent[8] > recent[7]:
		pattern = PatternReversalDown
	}

	return PriceActionResult{
		Pattern:    pattern,
		Momentum:   momentum,
		Momentum5:  momentum5,
		Momentum10: momentum10,
	}
}

func ascendingRun(window []float64) bool {
	for i := 1; i < len(window); i++ {
		if window[i] <= window[i-1] {
			return false
		}
	}
	return true
}

func descendingRun(window []float64) bool {
	for i := 1; i < len(window); i++ {
		if window[i] >= window[i-1] {
			return false
		}
	}
	return true
}
