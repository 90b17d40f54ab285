package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type OperationHistoryBackgroundService struct {
	operationService *OperationService
	logger           *slog.Logger

	runOnce sync.Once
	hasRun  atomic.Bool
}

func (s *OperationHistoryBackgroundService) Run(ctx context.Context) {
	wasAlreadyRun := s.hasRun.Load()

	s.runOnce.Do(func() {
		s.hasRun.Store(true)

		s.logger.Info("Starting operation history cleanup background service")

		if ctx.Err() != nil {
			return
		}

		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.operationService.CleanOldResults(); err != nil {
					s.logger.Error("Failed to clean old operation results", "error", err)
				}
			}
		}
	})

	if wasAlreadyRun {
		panic(fmt.Sprintf("%T.Run() called multiple times", s))
	}
}
