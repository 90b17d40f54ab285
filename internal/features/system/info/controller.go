package system_info

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type InfoResponse struct {
	ReleaseNumber string `json:"releaseNumber"`
}

type InfoController struct {
	infoService *InfoService
}

func (c *InfoController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/system/info", c.GetInfo)
}

// GetInfo
// @Summary Get installation info
// @Description Report the installed POS release number
// @Tags system/info
// @Produce json
// @Success 200 {object} InfoResponse
// @Router /system/info [get]
func (c *InfoController) GetInfo(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, InfoResponse{ReleaseNumber: c.infoService.ReleaseNumber()})
}
