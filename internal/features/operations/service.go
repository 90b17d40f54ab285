package operations

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Hossam1104/pos-admin-tool/internal/config"
)

type OperationService struct {
	operationRepository *OperationRepository
	logger              *slog.Logger
}

func (s *OperationService) SaveResult(result *OperationResult) error {
	if err := s.operationRepository.Save(result); err != nil {
		s.logger.Error("Failed to save operation result", "operationID", result.ID, "error", err)
		return err
	}

	s.logger.Info(
		"Operation result saved",
		"operationID", result.ID,
		"kind", result.Kind,
		"status", result.Status,
		"steps", len(result.Steps),
	)
	return nil
}

func (s *OperationService) GetResult(id uuid.UUID) (*OperationResult, error) {
	return s.operationRepository.FindByID(id)
}

func (s *OperationService) GetRecentResults(limit int) ([]*OperationResult, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.operationRepository.FindRecent(limit)
}

func (s *OperationService) CleanOldResults() error {
	retentionDays := config.GetEnv().HistoryRetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	removed, err := s.operationRepository.DeleteFinishedBefore(cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		s.logger.Info("Removed old operation results", "count", removed, "cutoff", cutoff)
	}
	return nil
}
