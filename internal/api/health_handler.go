package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/siteaudit/internal/health"
)

// bytesPerMB converts bytes to megabytes.
const bytesPerMB = 1024 * 1024

// healthCheckTimeout bounds the health check round-trip.
const healthCheckTimeout = 5 * time.Second

// HealthHandler reports process uptime, memory, and job store connectivity.
type HealthHandler struct {
	checker   *health.Checker
	startedAt time.Time
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(checker *health.Checker) *HealthHandler {
	return &HealthHandler{
		checker:   checker,
		startedAt: time.Now(),
	}
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status, checks := h.checker.Check(ctx)

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	response := gin.H{
		"status":         status,
		"checks":         checks,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"memory": gin.H{
			"heap_alloc_mb": float64(stats.Alloc) / bytesPerMB,
			"heap_inuse_mb": float64(stats.HeapInuse) / bytesPerMB,
			"num_gc":        stats.NumGC,
			"goroutines":    runtime.NumGoroutine(),
		},
		"timestamp": time.Now().Format(time.RFC3339),
	}

	statusCode := http.StatusOK
	if status == health.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
