package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Trading     TradingConfig  `mapstructure:"trading"`
	Risk        RiskConfig     `mapstructure:"risk"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TradingConfig carries the instrument universe and trade sizing bounds.
type TradingConfig struct {
	SupportedSymbols []string `mapstructure:"supported_symbols"`
	MajorSymbols     []string `mapstructure:"major_symbols"`
	BaseCurrency     string   `mapstructure:"base_currency"`
	MinTradeAmount   float64  `mapstructure:"min_trade_amount"`
	MaxTradeAmount   float64  `mapstructure:"max_trade_amount"`
	InitialBalance   float64  `mapstructure:"initial_balance"`
}

// RiskConfig carries the portfolio-level risk limits enforced by the risk engine.
type RiskConfig struct {
	MaxRiskPerTrade   float64 `mapstructure:"max_risk_per_trade"`
	MaxTradesPerDay   int     `mapstructure:"max_trades_per_day"`
	MaxOpenPositions  int     `mapstructure:"max_open_positions"`
	EmergencyStopLoss float64 `mapstructure:"emergency_stop_loss"`
	StopLossPct       float64 `mapstructure:"stop_loss_pct"`
	TakeProfitPct     float64 `mapstructure:"take_profit_pct"`
	RiskFreeRate      float64 `mapstructure:"risk_free_rate"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that the risk and trading limits are internally consistent.
func (c *Config) Validate() error {
	if len(c.Trading.SupportedSymbols) == 0 {
		return fmt.Errorf("at least one supported symbol is required")
	}

	if c.Risk.MaxRiskPerTrade <= 0 || c.Risk.MaxRiskPerTrade > 0.8 {
		return fmt.Errorf("max risk per trade must be between 0 and 0.8, got %v", c.Risk.MaxRiskPerTrade)
	}

	if c.Risk.StopLossPct <= 0 || c.Risk.StopLossPct > 0.2 {
		return fmt.Errorf("stop loss must be between 0 and 0.2, got %v", c.Risk.StopLossPct)
	}

	if c.Risk.EmergencyStopLoss <= 0 || c.Risk.EmergencyStopLoss >= 1 {
		return fmt.Errorf("emergency stop loss must be between 0 and 1, got %v", c.Risk.EmergencyStopLoss)
	}

	if c.Trading.MinTradeAmount >= c.Trading.MaxTradeAmount {
		return fmt.Errorf("min trade amount %v must be less than max trade amount %v",
			c.Trading.MinTradeAmount, c.Trading.MaxTradeAmount)
	}

	if c.Risk.MaxTradesPerDay <= 0 {
		return fmt.Errorf("max trades per day must be positive, got %d", c.Risk.MaxTradesPerDay)
	}

	if c.Risk.MaxOpenPositions <= 0 {
		return fmt.Errorf("max open positions must be positive, got %d", c.Risk.MaxOpenPositions)
	}

	return nil
}

// IsSupported reports whether a symbol is in the configured trading universe.
func (c *Config) IsSupported(symbol string) bool {
	for _, s := range c.Trading.SupportedSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// IsMajor reports whether a symbol is one of the configured large-cap pairs.
func (c *Config) IsMajor(symbol string) bool {
	for _, s := range c.Trading.MajorSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)

	// Database and Redis are disabled unless a host is configured.
	viper.SetDefault("database.host", "")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "tradecore")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_conns", 10)

	viper.SetDefault("redis.host", "")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Trading
	viper.SetDefault("trading.supported_symbols", []string{
		"BTCUSDT", "ETHUSDT", "ADAUSDT", "DOTUSDT",
		"LINKUSDT", "SOLUSDT", "MATICUSDT", "AVAXUSDT",
	})
	viper.SetDefault("trading.major_symbols", []string{"BTCUSDT", "ETHUSDT"})
	viper.SetDefault("trading.base_currency", "USDT")
	viper.SetDefault("trading.min_trade_amount", 10.0)
	viper.SetDefault("trading.max_trade_amount", 100.0)
	viper.SetDefault("trading.initial_balance", 10000.0)

	// Risk
	viper.SetDefault("risk.max_risk_per_trade", 0.75)
	viper.SetDefault("risk.max_trades_per_day", 10)
	viper.SetDefault("risk.max_open_positions", 3)
	viper.SetDefault("risk.emergency_stop_loss", 0.15)
	viper.SetDefault("risk.stop_loss_pct", 0.05)
	viper.SetDefault("risk.take_profit_pct", 0.10)
	viper.SetDefault("risk.risk_free_rate", 0.04)
}
