package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/cryptoedge/tradecore/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func handlerConfig() *config.Config {
	return &config.Config{
		Trading: config.TradingConfig{
			SupportedSymbols: []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"},
			MajorSymbols:     []string{"BTCUSDT", "ETHUSDT"},
			MinTradeAmount:   10.0,
			MaxTradeAmount:   100.0,
			InitialBalance:   10000.0,
		},
		Risk: config.RiskConfig{
			MaxRiskPerTrade:   0.75,
			MaxTradesPerDay:   10,
			MaxOpenPositions:  3,
			EmergencyStopLoss: 0.15,
			RiskFreeRate:      0.04,
		},
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func doGET(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
