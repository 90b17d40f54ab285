package databases

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type DatabaseController struct {
	connectionChecker *ConnectionChecker
}

type TestConnectionRequest struct {
	Instance string `json:"instance" binding:"required"`
	User     string `json:"user"     binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (c *DatabaseController) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/databases/test-connection", c.TestConnection)
}

// TestConnection
// @Summary Test SQL Server connectivity
// @Description Open a connection with the given credentials and run a probe query
// @Tags databases
// @Accept json
// @Produce json
// @Param request body TestConnectionRequest true "Connection data"
// @Success 200 {object} map[string]interface{}
// @Failure 400
// @Router /databases/test-connection [post]
func (c *DatabaseController) TestConnection(ctx *gin.Context) {
	var request TestConnectionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	credentials := SqlCredentials{
		Instance: request.Instance,
		User:     request.User,
		Password: request.Password,
	}

	if err := c.connectionChecker.TestConnection(ctx.Request.Context(), credentials); err != nil {
		ctx.JSON(http.StatusOK, gin.H{"connected": false, "error": err.Error()})
		return
	}

	names, err := c.connectionChecker.ListDatabases(ctx.Request.Context(), credentials)
	if err != nil {
		ctx.JSON(http.StatusOK, gin.H{"connected": true, "databases": []string{}})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"connected": true, "databases": names})
}
