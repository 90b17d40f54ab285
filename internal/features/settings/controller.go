package settings

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hossam1104/pos-admin-tool/internal/features/databases"
	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
)

type SettingsController struct {
	settingsManager *SettingsManager
}

// UpdateSettingsRequest carries the editable fields plus an optional new
// password. The sealed blob itself is never accepted from clients.
type UpdateSettingsRequest struct {
	SqlInstance string `json:"sqlInstance" binding:"required"`
	SqlUser     string `json:"sqlUser"     binding:"required"`
	SqlPassword string `json:"sqlPassword"`

	Databases []databases.DatabaseTarget `json:"databases"`
	Services  []string                   `json:"services"`

	BackupFolder     string   `json:"backupFolder" binding:"required"`
	FoldersToDelete  []string `json:"foldersToDelete"`
	AppSettingsFiles []string `json:"appSettingsFiles"`

	ClientName string `json:"clientName"`
	BranchCode string `json:"branchCode"`
	PosNumber  string `json:"posNumber"`

	ApiBaseUrl  string `json:"apiBaseUrl"`
	ReleasePath string `json:"releasePath"`

	RegistryPattern string `json:"registryPattern"`
}

func (c *SettingsController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/settings", c.GetSettings)
	router.PUT("/settings", c.UpdateSettings)
}

// GetSettings
// @Summary Get current settings
// @Description Get the persisted settings; the password stays sealed
// @Tags settings
// @Produce json
// @Success 200 {object} Settings
// @Failure 500
// @Router /settings [get]
func (c *SettingsController) GetSettings(ctx *gin.Context) {
	snapshot, err := c.settingsManager.Snapshot()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, snapshot)
}

// UpdateSettings
// @Summary Update settings
// @Description Validate and persist new settings, optionally replacing the SQL password
// @Tags settings
// @Accept json
// @Produce json
// @Param request body UpdateSettingsRequest true "New settings"
// @Success 200 {object} Settings
// @Failure 400
// @Failure 500
// @Router /settings [put]
func (c *SettingsController) UpdateSettings(ctx *gin.Context) {
	var request UpdateSettingsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated := &Settings{
		SqlInstance:      request.SqlInstance,
		SqlUser:          request.SqlUser,
		Databases:        request.Databases,
		Services:         request.Services,
		BackupFolder:     request.BackupFolder,
		FoldersToDelete:  request.FoldersToDelete,
		AppSettingsFiles: request.AppSettingsFiles,
		ClientName:       request.ClientName,
		BranchCode:       request.BranchCode,
		PosNumber:        request.PosNumber,
		ApiBaseUrl:       request.ApiBaseUrl,
		ReleasePath:      request.ReleasePath,
		RegistryPattern:  request.RegistryPattern,
	}

	saved, err := c.settingsManager.Update(updated, request.SqlPassword)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, operations.ErrValidation) {
			status = http.StatusBadRequest
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, saved)
}
