package router

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// setupHealthRoutes registers the liveness endpoint and the detailed
// component view backed by the periodic checker.
func (r *Router) setupHealthRoutes() {
	liveness := func(c *gin.Context) {
		dbStatus := "ok"
		if err := r.Container.DB.Exec("SELECT 1").Error; err != nil {
			dbStatus = err.Error()
			r.Logger.Error("Database health check failed", "error", err)
		}

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"version":   os.Getenv("APP_VERSION"),
			"timestamp": time.Now().Format(time.RFC3339),
			"components": gin.H{
				"database": dbStatus,
				"websocket": gin.H{
					"status":             "ok",
					"active_connections": r.Container.Hub.ActiveConnections(),
				},
			},
			"memory": gin.H{
				"alloc_mb":  mem.Alloc / 1024 / 1024,
				"sys_mb":    mem.Sys / 1024 / 1024,
				"gc_cycles": mem.NumGC,
			},
		})
	}

	// Both paths answer so probes work with or without the /api prefix
	r.Engine.GET("/health", liveness)
	r.Engine.GET("/api/health", liveness)

	r.Engine.GET("/health/components", gin.WrapF(r.Container.Health.HTTPHandler()))
}
