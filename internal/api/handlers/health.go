package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/cryptoedge/tradecore/internal/database"
)

var startTime = time.Now()

type HealthHandler struct {
	db    *database.PostgresDB
	redis *database.RedisClient
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	System    SystemStats       `json:"system"`
	Uptime    string            `json:"uptime"`
}

type SystemStats struct {
	MemoryUsedPct float64 `json:"memory_used_pct"`
	CPUPct        float64 `json:"cpu_pct"`
}

// NewHealthHandler creates the health endpoint. db and redis may be nil
// when the process runs without persistence.
func NewHealthHandler(db *database.PostgresDB, redis *database.RedisClient) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	services := make(map[string]string)

	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context()); err != nil {
			services["database"] = "unhealthy: " + err.Error()
		} else {
			services["database"] = "healthy"
		}
	} else {
		services["database"] = "not configured"
	}

	if h.redis != nil {
		if err := h.redis.HealthCheck(c.Request.Context()); err != nil {
			services["redis"] = "unhealthy: " + err.Error()
		} else {
			services["redis"] = "healthy"
		}
	} else {
		services["redis"] = "not configured"
	}

	status := "healthy"
	for _, s := range services {
		if s != "healthy" && s != "not configured" {
			status = "degraded"
			break
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
		System:    systemStats(),
		Uptime:    time.Since(startTime).String(),
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response)
}

// systemStats samples process-host memory and CPU usage. Collection
// failures leave the fields at zero rather than failing the health check.
func systemStats() SystemStats {
	var stats SystemStats

	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemoryUsedPct = vm.UsedPercent
	}
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		stats.CPUPct = pcts[0]
	}

	return stats
}
