package errs

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapMsgKeepsCodeAndKind(t *testing.T) {
	err := ErrNotParticipant.WrapMsg("user u1")

	assert.ErrorIs(t, err, ErrNotParticipant)
	assert.NotErrorIs(t, err, ErrAuth)

	ce := AsCodeError(err)
	require.NotNil(t, ce)
	assert.Equal(t, KindNotParticipant, ce.Kind)
	assert.Equal(t, "user u1", ce.Detail)
}

func TestWithDetailDoesNotMutateBaseError(t *testing.T) {
	_ = ErrValidation.WithDetail("field x")
	assert.Empty(t, ErrValidation.Detail)
}

func TestAsCodeErrorFallsBackToInternal(t *testing.T) {
	ce := AsCodeError(stderrors.New("boom"))
	require.NotNil(t, ce)
	assert.Equal(t, KindInternal, ce.Kind)
	assert.Equal(t, "boom", ce.Detail)

	assert.Nil(t, AsCodeError(nil))
}

func TestWrapMsgOnForeignError(t *testing.T) {
	err := WrapMsg(stderrors.New("io failed"), "write snapshot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write snapshot")
	assert.Contains(t, err.Error(), "io failed")
	assert.Nil(t, WrapMsg(nil, "ignored"))
}
