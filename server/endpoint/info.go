package endpoint

import (
	"net/http"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/bleitz/meditai/version"
)

var startTime = time.Now()

// Info reports build information together with process uptime and memory.
func Info(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		c.JSON(http.StatusOK, gin.H{
			"service":    serviceName,
			"version":    version.Get(),
			"started":    humanize.Time(startTime),
			"uptime":     time.Since(startTime).Round(time.Second).String(),
			"goroutines": runtime.NumGoroutine(),
			"heap":       humanize.IBytes(mem.HeapAlloc),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		})
	}
}
