package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	viper.Reset()
	setDefaults()

	var cfg Config
	require.NoError(t, viper.Unmarshal(&cfg))
	return &cfg
}

func TestDefaults(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "USDT", cfg.Trading.BaseCurrency)
	assert.Len(t, cfg.Trading.SupportedSymbols, 8)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Trading.MajorSymbols)
	assert.Equal(t, 0.75, cfg.Risk.MaxRiskPerTrade)
	assert.Equal(t, 10, cfg.Risk.MaxTradesPerDay)
	assert.Equal(t, 3, cfg.Risk.MaxOpenPositions)
	assert.Equal(t, 0.15, cfg.Risk.EmergencyStopLoss)
	assert.Equal(t, 0.04, cfg.Risk.RiskFreeRate)

	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "no symbols",
			mutate:  func(c *Config) { c.Trading.SupportedSymbols = nil },
			wantErr: "supported symbol",
		},
		{
			name:    "risk per trade too high",
			mutate:  func(c *Config) { c.Risk.MaxRiskPerTrade = 0.95 },
			wantErr: "max risk per trade",
		},
		{
			name:    "zero risk per trade",
			mutate:  func(c *Config) { c.Risk.MaxRiskPerTrade = 0 },
			wantErr: "max risk per trade",
		},
		{
			name:    "stop loss out of range",
			mutate:  func(c *Config) { c.Risk.StopLossPct = 0.5 },
			wantErr: "stop loss",
		},
		{
			name:    "emergency stop out of range",
			mutate:  func(c *Config) { c.Risk.EmergencyStopLoss = 1.5 },
			wantErr: "emergency stop loss",
		},
		{
			name: "min above max trade amount",
			mutate: func(c *Config) {
				c.Trading.MinTradeAmount = 500
				c.Trading.MaxTradeAmount = 100
			},
			wantErr: "min trade amount",
		},
		{
			name:    "zero daily trades",
			mutate:  func(c *Config) { c.Risk.MaxTradesPerDay = 0 },
			wantErr: "max trades per day",
		},
		{
			name:    "zero open positions",
			mutate:  func(c *Config) { c.Risk.MaxOpenPositions = 0 },
			wantErr: "max open positions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSymbolLookups(t *testing.T) {
	cfg := defaultConfig(t)

	assert.True(t, cfg.IsSupported("BTCUSDT"))
	assert.True(t, cfg.IsSupported("AVAXUSDT"))
	assert.False(t, cfg.IsSupported("DOGEUSDT"))

	assert.True(t, cfg.IsMajor("BTCUSDT"))
	assert.True(t, cfg.IsMajor("ETHUSDT"))
	assert.False(t, cfg.IsMajor("SOLUSDT"))
}
