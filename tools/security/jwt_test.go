package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("unit-test-secret"))

	token, expireAt, err := Generate(opts, "u1", "Alice")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(opts.TTL), expireAt, 5*time.Second)

	claims, err := Verify(opts, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "Alice", claims.DisplayName)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, err := Generate(DefaultOptions([]byte("secret-a")), "u1", "Alice")
	require.NoError(t, err)

	_, err = Verify(DefaultOptions([]byte("secret-b")), token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	opts := DefaultOptions([]byte("unit-test-secret"))
	opts.TTL = time.Nanosecond

	token, _, err := Generate(opts, "u1", "Alice")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = Verify(opts, token)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	opts := DefaultOptions([]byte("unit-test-secret"))
	_, err := Verify(opts, "not.a.token")
	assert.Error(t, err)
}
