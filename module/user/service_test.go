package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishaan-vashist/chatcraft-ai/tools/errs"
	"github.com/ishaan-vashist/chatcraft-ai/tools/security"
)

func TestVerifyAcceptsIssuedToken(t *testing.T) {
	opts := security.DefaultOptions([]byte("unit-secret"))
	svc := NewService(nil, opts)

	token, _, err := security.Generate(opts, "u1", "Alice")
	require.NoError(t, err)

	id, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.ID)
	assert.Equal(t, "Alice", id.DisplayName)
}

func TestVerifyRejectsForeignToken(t *testing.T) {
	svc := NewService(nil, security.DefaultOptions([]byte("unit-secret")))

	foreign, _, err := security.Generate(security.DefaultOptions([]byte("other-secret")), "u1", "Alice")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), foreign)
	assert.ErrorIs(t, err, errs.ErrAuth)
}
