package operations

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// OperationCancelManager maps running operation IDs to their cancel
// functions so the controller can abort them between steps.
type OperationCancelManager struct {
	mu          sync.RWMutex
	cancelFuncs map[uuid.UUID]context.CancelFunc
	logger      *slog.Logger
}

func NewOperationCancelManager(logger *slog.Logger) *OperationCancelManager {
	return &OperationCancelManager{
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
		logger:      logger,
	}
}

func (m *OperationCancelManager) RegisterOperation(
	operationID uuid.UUID,
	cancelFunc context.CancelFunc,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelFuncs[operationID] = cancelFunc
	m.logger.Debug("Registered operation", "operationID", operationID)
}

func (m *OperationCancelManager) CancelOperation(operationID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cancelFunc, exists := m.cancelFuncs[operationID]
	if !exists {
		return false
	}

	cancelFunc()
	delete(m.cancelFuncs, operationID)
	m.logger.Info("Cancelled operation", "operationID", operationID)
	return true
}

func (m *OperationCancelManager) UnregisterOperation(operationID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cancelFuncs, operationID)
	m.logger.Debug("Unregistered operation", "operationID", operationID)
}
