package cleanup

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
)

type CleanupController struct {
	cleanupWorkflow  *CleanupWorkflow
	confirmationGate *ConfirmationGate
}

type ConfirmCleanupRequest struct {
	Confirmation string `json:"confirmation" binding:"required"`
}

type StartCleanupRequest struct {
	Token string `json:"token" binding:"required"`
}

func (c *CleanupController) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/cleanup/confirm", c.ConfirmCleanup)
	router.POST("/cleanup", c.StartCleanup)
}

// ConfirmCleanup
// @Summary Request a cleanup confirmation token
// @Description Exchange the exact confirmation phrase for a single-use token
// @Tags cleanup
// @Accept json
// @Produce json
// @Param request body ConfirmCleanupRequest true "Confirmation phrase"
// @Success 200 {object} map[string]string
// @Failure 400
// @Router /cleanup/confirm [post]
func (c *CleanupController) ConfirmCleanup(ctx *gin.Context) {
	var request ConfirmCleanupRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := c.confirmationGate.Issue(request.Confirmation)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token.String()})
}

// StartCleanup
// @Summary Start the environment cleanup
// @Description Launch the cleanup workflow, consuming a confirmation token
// @Tags cleanup
// @Accept json
// @Produce json
// @Param request body StartCleanupRequest true "Confirmation token"
// @Success 202 {object} map[string]string
// @Failure 400
// @Failure 409
// @Router /cleanup [post]
func (c *CleanupController) StartCleanup(ctx *gin.Context) {
	var request StartCleanupRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := uuid.Parse(request.Token)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid confirmation token"})
		return
	}

	operationID, err := c.cleanupWorkflow.Start(ctx.Request.Context(), token)
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
