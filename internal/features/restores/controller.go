package restores

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
)

type RestoreController struct {
	restoreWorkflow *RestoreWorkflow
}

func (c *RestoreController) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/restores", c.StartRestore)
}

// StartRestore
// @Summary Start a restore
// @Description Launch the restore workflow in the background
// @Tags restores
// @Accept json
// @Produce json
// @Param request body RestoreRequest true "Restore data"
// @Success 202 {object} map[string]string
// @Failure 400
// @Failure 409
// @Failure 423
// @Router /restores [post]
func (c *RestoreController) StartRestore(ctx *gin.Context) {
	var request RestoreRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	operationID, err := c.restoreWorkflow.Start(ctx.Request.Context(), request)
	if err != nil {
		switch {
		case errors.Is(err, operations.ErrBusy):
			ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, operations.ErrResourceLocked):
			ctx.JSON(http.StatusLocked, gin.H{"error": err.Error()})
		case errors.Is(err, operations.ErrValidation):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{"operationId": operationID.String()})
}
