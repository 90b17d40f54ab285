package system_healthcheck

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/Hossam1104/pos-admin-tool/internal/config"
	"github.com/Hossam1104/pos-admin-tool/internal/storage"
)

type HealthcheckService struct{}

func (s *HealthcheckService) IsHealthy() error {
	db := storage.GetDb()
	if err := db.Raw("SELECT 1").Error; err != nil {
		return errors.New("cannot connect to the history database")
	}

	// The data directory holds the settings file and the history database,
	// so nothing works once it stops being writable.
	probe := filepath.Join(config.GetEnv().DataDir, ".health_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return errors.New("data directory is not writable")
	}
	_ = os.Remove(probe)

	return nil
}
