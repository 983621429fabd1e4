package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatmodel "github.com/ishaan-vashist/chatcraft-ai/module/chat/model"
)

func TestDeliverAfterCloseFails(t *testing.T) {
	s := newTestSession("c1", "alice")
	require.NoError(t, s.Deliver([]byte("x")))

	s.Close()

	assert.ErrorIs(t, s.Deliver([]byte("y")), errSessionDead)
	assert.False(t, s.Alive())
}

func TestDeliverFailsWhenQueueFull(t *testing.T) {
	s := newTestSession("c1", "alice")
	for i := 0; i < sendQueueSize; i++ {
		require.NoError(t, s.Deliver([]byte("fill")))
	}
	assert.Error(t, s.Deliver([]byte("overflow")))
	assert.True(t, s.Alive(), "a full queue alone does not close the session")
}

func TestCloseRunsCleanupExactlyOnce(t *testing.T) {
	var calls int
	s := NewSession("c1", chatmodel.Identity{ID: "alice"}, nopTransport{}, func(*Session) { calls++ })

	s.Close()
	s.Close()
	s.Close()

	assert.Equal(t, 1, calls)
}
