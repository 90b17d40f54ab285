package operations

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

type OperationController struct {
	operationService *OperationService
	runRegistry      *RunRegistry
}

func (c *OperationController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/operations", c.GetOperations)
	router.GET("/operations/active", c.GetActiveOperation)
	router.GET("/operations/:id", c.GetOperation)
	router.POST("/operations/:id/cancel", c.CancelOperation)
	router.GET("/output", c.GetOutput)
}

// GetOperations
// @Summary List recent operations
// @Description Get recent operation results, newest first
// @Tags operations
// @Produce json
// @Param limit query int false "Number of items" default(50)
// @Success 200 {array} OperationResult
// @Failure 500
// @Router /operations [get]
func (c *OperationController) GetOperations(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	results, err := c.operationService.GetRecentResults(limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, results)
}

// GetActiveOperation
// @Summary Get the currently running operation
// @Tags operations
// @Produce json
// @Success 200 {object} map[string]string
// @Router /operations/active [get]
func (c *OperationController) GetActiveOperation(ctx *gin.Context) {
	id, kind, ok := c.runRegistry.Active()
	if !ok {
		ctx.JSON(http.StatusOK, gin.H{"active": false})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"active":      true,
		"operationId": id.String(),
		"kind":        string(kind),
	})
}

// GetOperation
// @Summary Get an operation result
// @Tags operations
// @Produce json
// @Param id path string true "Operation ID"
// @Success 200 {object} OperationResult
// @Failure 400
// @Failure 404
// @Router /operations/{id} [get]
func (c *OperationController) GetOperation(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid operation id"})
		return
	}

	result, err := c.operationService.GetResult(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "operation not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// CancelOperation
// @Summary Cancel a running operation
// @Description Request cancellation, the operation stops before its next step
// @Tags operations
// @Param id path string true "Operation ID"
// @Success 200 {object} map[string]string
// @Failure 400
// @Failure 404
// @Router /operations/{id}/cancel [post]
func (c *OperationController) CancelOperation(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid operation id"})
		return
	}

	if !c.runRegistry.Cancel(id) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "operation is not running"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "cancellation requested"})
}

// GetOutput
// @Summary Get recent log output
// @Description Get recent log records with secrets masked
// @Tags operations
// @Produce json
// @Param limit query int false "Number of records" default(200)
// @Success 200 {array} logger.OutputRecord
// @Router /output [get]
func (c *OperationController) GetOutput(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "200"))

	ctx.JSON(http.StatusOK, logger.GetOutputBuffer().Recent(limit))
}
