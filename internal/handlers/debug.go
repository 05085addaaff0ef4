package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learnhub-chat/internal/telemetry"
)

// RegisterDebugRoutes mounts endpoints that only exist when DEBUG_ROUTES is
// set. They let an operator verify the audit pipeline end to end without
// touching chat data.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), "INFO", "audit test", requestIDFromContext(c), userIDFromContext(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
