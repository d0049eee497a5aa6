package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewEngine(logger)
}

// feed appends count samples produced by price(i)/volume(i).
func feed(e *Engine, symbol string, count int, price func(i int) float64, volume func(i int) float64) {
	base := time.Now().Add(-time.Duration(count) * 5 * time.Minute)
	for i := 0; i < count; i++ {
		v := 1000.0
		if volume != nil {
			v = volume(i)
		}
		e.Update(symbol, price(i), v, base.Add(time.Duration(i)*5*time.Minute))
	}
}

func TestIndicatorsNeutralDefaults(t *testing.T) {
	e := newTestEngine()

	// Unknown symbol and thin history behave identically.
	feed(e, "ETHUSDT", 19, func(i int) float64 { return 100 + float64(i) }, nil)

	for _, symbol := range []string{"BTCUSDT", "ETHUSDT"} {
		set := e.Indicators(symbol)

		assert.Equal(t, symbol, set.Symbol)
		assert.Empty(t, set.SMA)
		assert.Empty(t, set.EMA)
		assert.Equal(t, 50.0, set.RSI.Value)
		assert.Equal(t, RSINeutral, set.RSI.Signal)
		assert.Zero(t, set.MACD.Line)
		assert.Zero(t, set.MACD.Signal)
		assert.Zero(t, set.MACD.Histogram)
		assert.Equal(t, MACDNeutral, set.MACD.Trend)
		assert.Zero(t, set.Bollinger.Upper)
		assert.Equal(t, BandNeutral, set.Bollinger.Position)
		assert.Zero(t, set.ATR)
		assert.Zero(t, set.VolumeSMA)
		assert.Equal(t, 1.0, set.VolumeRatio)
		assert.Zero(t, set.Trend.Strength)
		assert.Equal(t, TrendSideways, set.Trend.Direction)
		assert.Equal(t, PatternInsufficientData, set.PriceAction.Pattern)
		assert.Equal(t, MomentumNeutral, set.PriceAction.Momentum)
	}
}

func TestUpdateEvictsBeyondCapacity(t *testing.T) {
	e := newTestEngine()
	feed(e, "BTCUSDT", historyCapacity+100, func(i int) float64 { return float64(i) }, nil)

	assert.Equal(t, historyCapacity, e.SampleCount("BTCUSDT"))
}

func TestUpdateDefaultsTimestamp(t *testing.T) {
	e := newTestEngine()
	e.Update("BTCUSDT", 100, 10, time.Time{})

	assert.Equal(t, 1, e.SampleCount("BTCUSDT"))
}

func TestRSIBounds(t *testing.T) {
	cases := []struct {
		name  string
		price func(i int) float64
	}{
		{"rising", func(i int) float64 { return 100 + float64(i) }},
		{"falling", func(i int) float64 { return 500 - float64(i) }},
		{"flat", func(i int) float64 { return 100 }},
		{"sawtooth", func(i int) float64 { return 100 + float64(i%7) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine()
			feed(e, "BTCUSDT", 60, tc.price, nil)

			rsi := e.Indicators("BTCUSDT").RSI
			assert.GreaterOrEqual(t, rsi.Value, 0.0)
			assert.LessOrEqual(t, rsi.Value, 100.0)
		})
	}
}

func TestRSIMonotonicRiseIsPinnedAt100(t *testing.T) {
	e := newTestEngine()
	feed(e, "BTCUSDT", 40, func(i int) float64 { return 100 + float64(i) }, nil)

	rsi := e.Indicators("BTCUSDT").RSI
	assert.Equal(t, 100.0, rsi.Value)
	assert.Equal(t, RSIOverbought, rsi.Signal)
}

func TestRSIMonotonicFallIsOversold(t *testing.T) {
	e := newTestEngine()
	feed(e, "BTCUSDT", 40, func(i int) float64 { return 500 - float64(i) }, nil)

	rsi := e.Indicators("BTCUSDT").RSI
	assert.Equal(t, 0.0, rsi.Value)
	assert.Equal(t, RSIOversold, rsi.Signal)
}

func TestBollingerKnownValues(t *testing.T) {
	e := newTestEngine()
	// 19 samples at 100, final spike to 110.
	feed(e, "BTCUSDT", 20, func(i int) float64 {
		if i == 19 {
			return 110
		}
		return 100
	}, nil)

	bb := e.Indicators("BTCUSDT").Bollinger

	// Population variance: (19*0.5^2 + 9.5^2) / 20 = 4.75.
	std := math.Sqrt(4.75)
	assert.InDelta(t, 100.5, bb.Middle, 1e-9)
	assert.InDelta(t, 100.5+2*std, bb.Upper, 1e-9)
	assert.InDelta(t, 100.5-2*std, bb.Lower, 1e-9)
	assert.Equal(t, BandAboveUpper, bb.Position)
}

func TestBollingerPositionCategories(t *testing.T) {
	valid := map[string]bool{
		BandAboveUpper: true,
		BandBelowLower: true,
		BandUpperHalf:  true,
		BandLowerHalf:  true,
	}

	cases := []struct {
		name  string
		price func(i int) float64
		want  string
	}{
		{"flat sits in lower half", func(i int) float64 { return 100 }, BandLowerHalf},
		{"spike down breaks lower band", func(i int) float64 {
			if i == 29 {
				return 80
			}
			return 100
		}, BandBelowLower},
		{"drift up stays in upper half", func(i int) float64 { return 100 + 0.1*float64(i) }, BandUpperHalf},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine()
			feed(e, "BTCUSDT", 30, tc.price, nil)

			pos := e.Indicators("BTCUSDT").Bollinger.Position
			assert.True(t, valid[pos], "position %q not a defined category", pos)
			assert.Equal(t, tc.want, pos)
		})
	}
}

func TestMovingAveragesByAvailability(t *testing.T) {
	e := newTestEngine()
	feed(e, "BTCUSDT", 60, func(i int) float64 { return 100 }, nil)

	set := e.Indicators("BTCUSDT")

	require.Contains(t, set.SMA, 20)
	require.Contains(t, set.SMA, 50)
	assert.NotContains(t, set.SMA, 200, "not enough samples for SMA-200")
	assert.InDelta(t, 100.0, set.SMA[20], 1e-9)
	assert.InDelta(t, 100.0, set.SMA[50], 1e-9)

	require.Contains(t, set.EMA, 12)
	require.Contains(t, set.EMA, 26)
	assert.InDelta(t, 100.0, set.EMA[12], 1e-9)
}

func TestMACDFlatSeriesIsNeutral(t *testing.T) {
	e := newTestEngine()
	feed(e, "BTCUSDT", 80, func(i int) float64 { return 100 }, nil)

	macd := e.Indicators("BTCUSDT").MACD
	assert.InDelta(t, 0.0, macd.Line, 1e-9)
	assert.InDelta(t, 0.0, macd.Histogram, 1e-9)
	assert.Equal(t, MACDNeutral, macd.Trend)
}

func TestIndicatorsCompleteOnFullHistory(t *testing.T) {
	e := newTestEngine()
	feed(e, "ETHUSDT", historyCapacity, func(i int) float64 { return 2000 + math.Sin(float64(i)/10)*50 }, nil)

	// The MACD pipeline fans out to two consumers; a stalled branch would
	// park this call forever instead of returning.
	done := make(chan *IndicatorSet, 1)
	go func() {
		done <- e.Indicators("ETHUSDT")
	}()

	select {
	case set := <-done:
		assert.NotZero(t, set.MACD.Line)
		assert.NotZero(t, set.MACD.Signal)
		require.Contains(t, set.SMA, 200)
	case <-time.After(5 * time.Second):
		t.Fatal("Indicators did not return on a full history")
	}
}

func TestMACDTrendingSeries(t *testing.T) {
	e := newTestEngine()
	// Accelerating rise keeps the fast EMA above the slow one.
	feed(e, "BTCUSDT", 80, func(i int) float64 { return 100 + 0.01*float64(i)*float64(i) }, nil)

	macd := e.Indicators("BTCUSDT").MACD
	assert.Greater(t, macd.Line, 0.0)
	assert.Equal(t, MACDBullish, macd.Trend)
}

func TestATRFlatIsZero(t *testing.T) {
	e := newTestEngine()
	feed(e, "BTCUSDT", 40, func(i int) float64 { return 100 }, nil)

	assert.Zero(t, e.Indicators("BTCUSDT").ATR)
}

func TestATRAlternatingSeries(t *testing.T) {
	e := newTestEngine()
	// +2/-2 alternation gives an average absolute delta of 2.
	feed(e, "BTCUSDT", 40, func(i int) float64 { return 100 + float64(i%2)*2 }, nil)

	assert.InDelta(t, 2.0, e.Indicators("BTCUSDT").ATR, 1e-9)
}

func TestVolumeRatio(t *testing.T) {
	e := newTestEngine()
	feed(e, "BTCUSDT", 40,
		func(i int) float64 { return 100 },
		func(i int) float64 {
			if i == 39 {
				return 3000
			}
			return 1000
		})

	set := e.Indicators("BTCUSDT")
	assert.InDelta(t, 1100.0, set.VolumeSMA, 1e-9)
	assert.InDelta(t, 3000.0/1100.0, set.VolumeRatio, 1e-9)
}

func TestTrendDetection(t *testing.T) {
	cases := []struct {
		name      string
		price     func(i int) float64
		direction string
	}{
		{"linear rise", func(i int) float64 { return 100 + float64(i) }, TrendUp},
		{"linear fall", func(i int) float64 { return 500 - float64(i) }, TrendDown},
		{"flat", func(i int) float64 { return 100 }, TrendSideways},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine()
			feed(e, "BTCUSDT", 40, tc.price, nil)

			trend := e.Indicators("BTCUSDT").Trend
			assert.Equal(t, tc.direction, trend.Direction)
			if tc.direction != TrendSideways {
				assert.Equal(t, 100.0, trend.Strength)
			} else {
				assert.Zero(t, trend.Strength)
			}
		})
	}
}

func TestSupportResistanceZigzag(t *testing.T) {
	e := newTestEngine()
	// Triangle wave between 90 and 110 with the last sample at 102.
	feed(e, "BTCUSDT", 55, func(i int) float64 {
		phase := i % 20
		if phase < 10 {
			return 90 + 2*float64(phase)
		}
		return 110 - 2*float64(phase-10)
	}, nil)

	levels := e.Indicators("BTCUSDT").Levels
	current := 102.0

	assert.Less(t, levels.Support, current)
	assert.Greater(t, levels.Resistance, current)
	assert.Greater(t, levels.Strength, 0.0)
}

func TestSupportResistanceRequiresFiftySamples(t *testing.T) {
	e := newTestEngine()
	feed(e, "BTCUSDT", 45, func(i int) float64 { return 100 + float64(i%5) }, nil)

	levels := e.Indicators("BTCUSDT").Levels
	assert.Zero(t, levels.Support)
	assert.Zero(t, levels.Resistance)
	assert.Zero(t, levels.Strength)
}

func TestPriceActionMomentum(t *testing.T) {
	e := newTestEngine()
	// 3% jump over the final five samples.
	feed(e, "BTCUSDT", 30, func(i int) float64 {
		if i >= 26 {
			return 103
		}
		return 100
	}, nil)

	pa := e.Indicators("BTCUSDT").PriceAction
	assert.Equal(t, MomentumStrongUp, pa.Momentum)
	assert.InDelta(t, 3.0, pa.Momentum5, 1e-9)
}

func TestPriceActionPatterns(t *testing.T) {
	cases := []struct {
		name    string
		price   func(i int) float64
		pattern string
	}{
		{"strong uptrend", func(i int) float64 { return 100 + float64(i) }, PatternStrongUptrend},
		{"strong downtrend", func(i int) float64 { return 500 - float64(i) }, PatternStrongDowntrend},
		{"flat consolidation", func(i int) float64 { return 100 }, PatternConsolidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine()
			feed(e, "BTCUSDT", 30, tc.price, nil)

			assert.Equal(t, tc.pattern, e.Indicators("BTCUSDT").PriceAction.Pattern)
		})
	}
}
