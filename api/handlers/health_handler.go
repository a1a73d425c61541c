// api/handlers/health_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-query-gateway/api/models"
)

// HealthCheck handles GET /health. It needs no auth and ignores the body.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "healthy"})
}
