package system_healthcheck

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthcheckResponse struct {
	Status string `json:"status"`
}

type HealthcheckController struct {
	healthcheckService *HealthcheckService
}

func (c *HealthcheckController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/system/health", c.CheckHealth)
}

// CheckHealth
// @Summary Check system health
// @Description Check if the tool is healthy by probing the history database and the data directory
// @Tags system/health
// @Produce json
// @Success 200 {object} HealthcheckResponse
// @Failure 503 {object} HealthcheckResponse
// @Router /system/health [get]
func (c *HealthcheckController) CheckHealth(ctx *gin.Context) {
	err := c.healthcheckService.IsHealthy()

	if err == nil {
		ctx.JSON(http.StatusOK, HealthcheckResponse{Status: "Application is healthy, history database and data directory are working fine"})
		return
	}

	ctx.JSON(http.StatusServiceUnavailable, HealthcheckResponse{Status: err.Error()})
}
