package operations

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// RunRegistry serializes workflows: at most one operation runs at a time.
// Begin claims the single slot or fails with ErrBusy, End releases it.
type RunRegistry struct {
	mu            sync.Mutex
	active        *Run
	cancelManager *OperationCancelManager
	logger        *slog.Logger
}

func NewRunRegistry(cancelManager *OperationCancelManager, logger *slog.Logger) *RunRegistry {
	return &RunRegistry{
		cancelManager: cancelManager,
		logger:        logger,
	}
}

// Run is the handle a workflow holds for its lifetime. Workflows check
// Canceled between steps, a running external process is never interrupted.
type Run struct {
	id       uuid.UUID
	kind     OperationKind
	ctx      context.Context
	cancel   context.CancelFunc
	registry *RunRegistry
	endOnce  sync.Once
}

func (r *RunRegistry) Begin(
	ctx context.Context,
	operationID uuid.UUID,
	kind OperationKind,
) (*Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		r.logger.Warn(
			"Rejected operation, another one is running",
			"requested", kind,
			"active", r.active.kind,
			"activeID", r.active.id,
		)
		return nil, ErrBusy
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{
		id:       operationID,
		kind:     kind,
		ctx:      runCtx,
		cancel:   cancel,
		registry: r,
	}
	r.active = run
	r.cancelManager.RegisterOperation(operationID, cancel)
	r.logger.Info("Operation started", "kind", kind, "operationID", operationID)
	return run, nil
}

// Active reports the currently running operation, if any.
func (r *RunRegistry) Active() (uuid.UUID, OperationKind, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil {
		return uuid.Nil, "", false
	}
	return r.active.id, r.active.kind, true
}

func (r *RunRegistry) Cancel(operationID uuid.UUID) bool {
	return r.cancelManager.CancelOperation(operationID)
}

func (r *Run) ID() uuid.UUID {
	return r.id
}

func (r *Run) Context() context.Context {
	return r.ctx
}

func (r *Run) Canceled() bool {
	return r.ctx.Err() != nil
}

// End releases the slot. Safe to call more than once.
func (r *Run) End() {
	r.endOnce.Do(func() {
		r.cancel()
		r.registry.cancelManager.UnregisterOperation(r.id)

		r.registry.mu.Lock()
		if r.registry.active == r {
			r.registry.active = nil
		}
		r.registry.mu.Unlock()

		r.registry.logger.Info("Operation finished", "kind", r.kind, "operationID", r.id)
	})
}
