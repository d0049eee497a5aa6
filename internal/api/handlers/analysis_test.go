package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoedge/tradecore/internal/indicators"
)

func newAnalysisRouter() (*gin.Engine, *indicators.Engine) {
	engine := indicators.NewEngine(quietLogger())
	handler := NewAnalysisHandler(engine, handlerConfig(), quietLogger())

	router := gin.New()
	router.GET("/api/v1/analysis/:symbol/indicators", handler.GetIndicators)
	router.GET("/api/v1/analysis/:symbol/signals", handler.GetSignals)
	router.POST("/api/v1/analysis/:symbol/prices", handler.PostPrices)
	return router, engine
}

func TestGetIndicatorsUnsupportedSymbol(t *testing.T) {
	router, _ := newAnalysisRouter()

	w := doGET(t, router, "/api/v1/analysis/DOGEUSDT/indicators")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeJSON(t, w)["error"], "unsupported symbol")
}

func TestPostPricesThenGetIndicators(t *testing.T) {
	router, _ := newAnalysisRouter()

	var prices []map[string]float64
	for i := 0; i < 30; i++ {
		prices = append(prices, map[string]float64{
			"price":  100 + float64(i),
			"volume": 1000,
		})
	}

	w := doJSON(t, router, http.MethodPost, "/api/v1/analysis/BTCUSDT/prices",
		map[string]any{"prices": prices})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(30), decodeJSON(t, w)["accepted"])

	w = doGET(t, router, "/api/v1/analysis/BTCUSDT/indicators")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, float64(30), body["sample_count"])

	set, ok := body["indicators"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "BTCUSDT", set["symbol"])
}

func TestPostPricesInvalidBody(t *testing.T) {
	router, _ := newAnalysisRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/analysis/BTCUSDT/prices",
		map[string]any{"prices": "not-a-list"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSignals(t *testing.T) {
	router, engine := newAnalysisRouter()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		engine.Update("ETHUSDT", 2000+float64(i)*5, 500, base.Add(time.Duration(i)*time.Minute))
	}

	w := doGET(t, router, "/api/v1/analysis/ETHUSDT/signals")
	require.Equal(t, http.StatusOK, w.Code)

	signal, ok := decodeJSON(t, w)["signal"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ETHUSDT", signal["symbol"])
	assert.Contains(t, []string{"BULLISH", "BEARISH", "NEUTRAL"}, signal["overall_signal"])
}

func TestGetSignalsUnsupportedSymbol(t *testing.T) {
	router, _ := newAnalysisRouter()

	w := doGET(t, router, "/api/v1/analysis/XRPUSDT/signals")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
