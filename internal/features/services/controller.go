package services

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
)

type ServiceController struct {
	serviceMonitor *ServiceMonitor
	serviceControl *ServiceControl
	statusChecker  *ServiceStatusChecker
}

func (c *ServiceController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/services", c.GetServices)
	router.GET("/services/:name", c.GetService)
	router.POST("/services/:name/start", c.StartService)
	router.POST("/services/:name/stop", c.StopService)
	router.POST("/services/:name/restart", c.RestartService)
}

// GetServices
// @Summary List monitored services
// @Description Get the latest known state of every monitored service
// @Tags services
// @Produce json
// @Success 200 {array} ServiceStatus
// @Router /services [get]
func (c *ServiceController) GetServices(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.serviceMonitor.Snapshot())
}

// GetService
// @Summary Get one service status
// @Description Query the service control manager directly, bypassing the poll cache
// @Tags services
// @Produce json
// @Param name path string true "Service name"
// @Success 200 {object} ServiceStatus
// @Router /services/{name} [get]
func (c *ServiceController) GetService(ctx *gin.Context) {
	status := c.statusChecker.Check(ctx.Request.Context(), ctx.Param("name"))
	ctx.JSON(http.StatusOK, status)
}

// StartService
// @Summary Start a service
// @Tags services
// @Param name path string true "Service name"
// @Success 200 {object} map[string]string
// @Failure 502
// @Router /services/{name}/start [post]
func (c *ServiceController) StartService(ctx *gin.Context) {
	name := ctx.Param("name")

	if _, err := c.serviceControl.Start(ctx.Request.Context(), name); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, operations.ErrProcessTimeout) {
			status = http.StatusGatewayTimeout
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "service started"})
}

// StopService
// @Summary Stop a service
// @Tags services
// @Param name path string true "Service name"
// @Success 200 {object} map[string]string
// @Failure 502
// @Router /services/{name}/stop [post]
func (c *ServiceController) StopService(ctx *gin.Context) {
	name := ctx.Param("name")

	if _, err := c.serviceControl.Stop(ctx.Request.Context(), name); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, operations.ErrProcessTimeout) {
			status = http.StatusGatewayTimeout
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "service stopped"})
}

// RestartService
// @Summary Restart a service
// @Tags services
// @Param name path string true "Service name"
// @Success 200 {object} map[string]string
// @Failure 502
// @Router /services/{name}/restart [post]
func (c *ServiceController) RestartService(ctx *gin.Context) {
	name := ctx.Param("name")

	if _, err := c.serviceControl.Restart(ctx.Request.Context(), name); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, operations.ErrProcessTimeout) {
			status = http.StatusGatewayTimeout
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "service restarted"})
}
