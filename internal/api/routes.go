package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cryptoedge/tradecore/internal/api/handlers"
	"github.com/cryptoedge/tradecore/internal/cache"
	"github.com/cryptoedge/tradecore/internal/config"
	"github.com/cryptoedge/tradecore/internal/database"
	"github.com/cryptoedge/tradecore/internal/indicators"
	"github.com/cryptoedge/tradecore/internal/performance"
	"github.com/cryptoedge/tradecore/internal/risk"
)

// Dependencies carries everything the HTTP surface needs. DB, Redis and
// Market may be nil when the process runs without persistence.
type Dependencies struct {
	Config      *config.Config
	Logger      *logrus.Logger
	Indicators  *indicators.Engine
	Risk        *risk.Engine
	Performance *performance.Tracker
	Market      *cache.MarketCache
	DB          *database.PostgresDB
	Redis       *database.RedisClient
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	health := handlers.NewHealthHandler(deps.DB, deps.Redis)
	router.GET("/health", health.HealthCheck)

	analysisHandler := handlers.NewAnalysisHandler(deps.Indicators, deps.Config, deps.Logger)
	riskHandler := handlers.NewRiskHandler(deps.Risk, deps.Market, deps.Config, deps.Logger)
	performanceHandler := handlers.NewPerformanceHandler(deps.Performance, deps.Logger)

	v1 := router.Group("/api/v1")
	{
		analysis := v1.Group("/analysis")
		{
			analysis.GET("/:symbol/indicators", analysisHandler.GetIndicators)
			analysis.GET("/:symbol/signals", analysisHandler.GetSignals)
			analysis.POST("/:symbol/prices", analysisHandler.PostPrices)
		}

		riskGroup := v1.Group("/risk")
		{
			riskGroup.POST("/evaluate", riskHandler.Evaluate)
			riskGroup.POST("/metrics", riskHandler.Metrics)
			riskGroup.POST("/var", riskHandler.VaR)
			riskGroup.POST("/stress", riskHandler.Stress)
		}

		perf := v1.Group("/performance")
		{
			perf.GET("", performanceHandler.GetMetrics)
			perf.GET("/report", performanceHandler.GetReport)
			perf.POST("/trades", performanceHandler.PostTrade)
			perf.POST("/snapshots", performanceHandler.PostSnapshot)
		}
	}
}
