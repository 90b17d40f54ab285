package settings

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Hossam1104/pos-admin-tool/internal/config"
	"github.com/Hossam1104/pos-admin-tool/internal/features/services"
	"github.com/Hossam1104/pos-admin-tool/internal/util/encryption"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

var (
	settingsManagerOnce sync.Once
	settingsManager     *SettingsManager
)

func GetSettingsManager() *SettingsManager {
	settingsManagerOnce.Do(func() {
		vault, err := encryption.GetVault()
		if err != nil {
			panic(fmt.Sprintf("failed to initialize credential vault: %v", err))
		}

		settingsManager = NewSettingsManager(config.GetEnv().DataDir, vault)
	})

	return settingsManager
}

var settingsControllerOnce sync.Once
var settingsController *SettingsController

func GetSettingsController() *SettingsController {
	settingsControllerOnce.Do(func() {
		settingsController = &SettingsController{GetSettingsManager()}
	})

	return settingsController
}

var (
	setupOnce sync.Once
	isSetup   atomic.Bool
)

func SetupDependencies() {
	wasAlreadySetup := isSetup.Load()

	setupOnce.Do(func() {
		services.GetServiceMonitor().SetServiceNamesProvider(func() []string {
			snapshot, err := GetSettingsManager().Snapshot()
			if err != nil {
				logger.GetLogger().Error("Failed to load settings for service monitor", "error", err)
				return nil
			}
			return snapshot.ServiceNames()
		})

		isSetup.Store(true)
	})

	if wasAlreadySetup {
		logger.GetLogger().Warn("SetupDependencies called multiple times, ignoring subsequent call")
	}
}
