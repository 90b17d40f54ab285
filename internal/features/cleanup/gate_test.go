package cleanup

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hossam1104/pos-admin-tool/internal/features/operations"
	"github.com/Hossam1104/pos-admin-tool/internal/util/logger"
)

func Test_Issue_ExactPhrase_ReturnsToken(t *testing.T) {
	gate := NewConfirmationGate(logger.GetLogger())

	token, err := gate.Issue("CONFIRM DANGER ZONE")

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, token)
}

func Test_Issue_WrongCase_IsRejected(t *testing.T) {
	gate := NewConfirmationGate(logger.GetLogger())

	_, err := gate.Issue("confirm danger zone")

	assert.ErrorIs(t, err, operations.ErrValidation)
}

func Test_Issue_PhraseWithWhitespace_IsRejected(t *testing.T) {
	gate := NewConfirmationGate(logger.GetLogger())

	_, err := gate.Issue(" CONFIRM DANGER ZONE ")

	assert.ErrorIs(t, err, operations.ErrValidation)
}

func Test_Consume_IssuedToken_WorksExactlyOnce(t *testing.T) {
	gate := NewConfirmationGate(logger.GetLogger())

	token, err := gate.Issue(ConfirmationPhrase)
	require.NoError(t, err)

	assert.True(t, gate.Consume(token))
	assert.False(t, gate.Consume(token))
}

func Test_Consume_UnknownToken_Fails(t *testing.T) {
	gate := NewConfirmationGate(logger.GetLogger())

	assert.False(t, gate.Consume(uuid.New()))
}
