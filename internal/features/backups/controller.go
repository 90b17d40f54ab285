package backups

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
)

type BackupController struct {
	backupWorkflow *BackupWorkflow
}

func (c *BackupController) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/backups", c.StartBackup)
}

// StartBackup
// @Summary Start a backup
// @Description Launch the backup workflow in the background
// @Tags backups
// @Produce json
// @Success 202 {object} map[string]string
// @Failure 400
// @Failure 409
// @Router /backups [post]
func (c *BackupController) StartBackup(ctx *gin.Context) {
	operationID, err := c.backupWorkflow.Start(ctx.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, operations.ErrBusy):
			ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, operations.ErrValidation):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{"operationId": operationID.String()})
}
