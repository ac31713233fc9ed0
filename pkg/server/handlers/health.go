package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Build information - can be set at build time using ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// HealthHandler handles health check requests
type HealthHandler struct {
	svc Service
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(svc Service) *HealthHandler {
	return &HealthHandler{
		svc: svc,
	}
}

// HealthCheck handles GET /health - basic liveness check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "oncorag",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// ReadinessCheck handles GET /ready
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := gin.H{
		"status":    "ready",
		"service":   "oncorag",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    gin.H{},
	}

	allHealthy := true
	checks := response["checks"].(gin.H)

	// Probe the vector store with a cheap read-only operation.
	if h.svc != nil {
		storeStart := time.Now()
		count, err := h.svc.Store().Count(ctx)
		storeDuration := time.Since(storeStart)

		if err != nil {
			checks["vector_store"] = gin.H{
				"status":   "unhealthy",
				"error":    err.Error(),
				"duration": storeDuration.String(),
			}
			allHealthy = false
		} else {
			checks["vector_store"] = gin.H{
				"status":   "healthy",
				"chunks":   count,
				"duration": storeDuration.String(),
			}
		}
	} else {
		checks["vector_store"] = gin.H{
			"status": "unhealthy",
			"error":  "client not initialized",
		}
		allHealthy = false
	}

	checks["system"] = gin.H{
		"status":     "healthy",
		"goroutines": runtime.NumGoroutine(),
	}

	if !allHealthy {
		response["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// LivenessCheck handles GET /live - Kubernetes liveness probe endpoint
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"service":   "oncorag",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
