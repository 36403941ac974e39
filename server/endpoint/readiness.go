package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bleitz/meditai/component"
)

// Readiness answers readiness probes: 503 while any component is unhealthy.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, httpStatus := "ready", http.StatusOK
		if checker != nil && component.Overall(checker(c.Request.Context())) == component.StatusUnhealthy {
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, gin.H{
			"status":    status,
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
