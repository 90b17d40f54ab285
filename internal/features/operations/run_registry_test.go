package operations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

func newTestRegistry() *RunRegistry {
	return NewRunRegistry(
		NewOperationCancelManager(logger.GetLogger()),
		logger.GetLogger(),
	)
}

func Test_Begin_NoActiveOperation_Succeeds(t *testing.T) {
	registry := newTestRegistry()

	run, err := registry.Begin(context.Background(), uuid.New(), OperationKindBackup)

	require.NoError(t, err)
	defer run.End()

	id, kind, active := registry.Active()
	assert.True(t, active)
	assert.Equal(t, run.ID(), id)
	assert.Equal(t, OperationKindBackup, kind)
}

func Test_Begin_OperationAlreadyRunning_ReturnsBusy(t *testing.T) {
	registry := newTestRegistry()

	first, err := registry.Begin(context.Background(), uuid.New(), OperationKindBackup)
	require.NoError(t, err)
	defer first.End()

	_, err = registry.Begin(context.Background(), uuid.New(), OperationKindRestore)

	assert.ErrorIs(t, err, ErrBusy)
}

func Test_End_ReleasesSlot_NextOperationCanStart(t *testing.T) {
	registry := newTestRegistry()

	first, err := registry.Begin(context.Background(), uuid.New(), OperationKindBackup)
	require.NoError(t, err)
	first.End()

	second, err := registry.Begin(context.Background(), uuid.New(), OperationKindCleanup)

	require.NoError(t, err)
	second.End()
}

func Test_End_CalledTwice_IsIdempotent(t *testing.T) {
	registry := newTestRegistry()

	run, err := registry.Begin(context.Background(), uuid.New(), OperationKindBackup)
	require.NoError(t, err)

	run.End()
	run.End()

	_, _, active := registry.Active()
	assert.False(t, active)
}

func Test_Cancel_RunningOperation_MarksContextCanceled(t *testing.T) {
	registry := newTestRegistry()

	run, err := registry.Begin(context.Background(), uuid.New(), OperationKindCleanup)
	require.NoError(t, err)
	defer run.End()

	assert.False(t, run.Canceled())

	canceled := registry.Cancel(run.ID())

	assert.True(t, canceled)
	assert.True(t, run.Canceled())
}

func Test_Cancel_UnknownOperation_ReturnsFalse(t *testing.T) {
	registry := newTestRegistry()

	assert.False(t, registry.Cancel(uuid.New()))
}
