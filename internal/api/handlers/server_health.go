package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetHealth handles GET /health, pinging the DB pool and reporting whether a
// broker publisher was configured at startup; the broker itself is not
// contacted (spec.md §6, SPEC_FULL.md supplemented features).
func (s *Server) GetHealth(c *gin.Context) {
	checks := map[string]string{"broker": "not_configured"}
	allHealthy := true

	if err := s.pool.Ping(c.Request.Context()); err != nil {
		checks["database"] = "error"
		allHealthy = false
	} else {
		checks["database"] = "ok"
	}

	if s.publisherConfigured {
		checks["broker"] = "configured"
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{"data": gin.H{"status": status, "checks": checks}})
}
