package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatmodel "github.com/ishaan-vashist/chatcraft-ai/module/chat/model"
)

type nopTransport struct{}

func (nopTransport) WriteMessage(int, []byte) error            { return nil }
func (nopTransport) WriteControl(int, []byte, time.Time) error { return nil }
func (nopTransport) SetWriteDeadline(time.Time) error          { return nil }
func (nopTransport) Close() error                              { return nil }

func newTestSession(connID, userID string) *Session {
	return NewSession(connID, chatmodel.Identity{ID: userID, DisplayName: userID}, nopTransport{}, nil)
}

func TestJoinIsIdempotent(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("c1", "alice")

	r.Join("room-1", s)
	r.Join("room-1", s)

	require.Len(t, r.Members("room-1"), 1)
	assert.True(t, s.InRoom("room-1"))
	assert.Equal(t, 1, r.RoomCount())
}

func TestLeaveIsIdempotentAndDropsEmptyRooms(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("c1", "alice")

	// Leaving a room never joined is a no-op.
	r.Leave("room-1", s)
	assert.Equal(t, 0, r.RoomCount())

	r.Join("room-1", s)
	r.Leave("room-1", s)
	r.Leave("room-1", s)

	assert.False(t, s.InRoom("room-1"))
	assert.Equal(t, 0, r.RoomCount())
}

func TestJoinRefusesClosedSession(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("c1", "alice")

	// A close can land between dispatch picking up room:join and the
	// registry taking its lock; the late join must not resurrect the
	// session's membership.
	s.Close()
	r.Join("room-1", s)

	assert.Empty(t, r.Members("room-1"))
	assert.Equal(t, 0, r.RoomCount())
	assert.False(t, s.InRoom("room-1"))
}

func TestRemoveSessionClearsAllRooms(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("c1", "alice")
	other := newTestSession("c2", "bob")

	r.Join("room-1", s)
	r.Join("room-2", s)
	r.Join("room-1", other)

	r.RemoveSession(s)

	assert.Empty(t, s.Rooms())
	require.Len(t, r.Members("room-1"), 1)
	assert.Equal(t, "c2", r.Members("room-1")[0].ConnID)
	assert.Nil(t, r.Members("room-2"))
}

func TestBroadcastExcludesAndSnapshots(t *testing.T) {
	r := NewRegistry()
	a := newTestSession("c1", "alice")
	b := newTestSession("c2", "bob")
	out := newTestSession("c3", "carol")

	r.Join("room-1", a)
	r.Join("room-1", b)
	// carol never joins.

	r.Broadcast("room-1", []byte(`{"event":"typing:update"}`), a)

	assert.Len(t, a.send, 0)
	assert.Len(t, b.send, 1)
	assert.Len(t, out.send, 0)
}

func TestBroadcastSkipsClosedSessions(t *testing.T) {
	r := NewRegistry()
	a := newTestSession("c1", "alice")
	b := newTestSession("c2", "bob")
	r.Join("room-1", a)
	r.Join("room-1", b)

	b.Close()
	r.Broadcast("room-1", []byte("x"), nil)

	assert.Len(t, a.send, 1)
	assert.Len(t, b.send, 0)
}

func TestBroadcastClosesMemberThatCannotKeepUp(t *testing.T) {
	r := NewRegistry()
	slow := newTestSession("c1", "alice")
	r.Join("room-1", slow)

	for i := 0; i < sendQueueSize; i++ {
		require.NoError(t, slow.Deliver([]byte("fill")))
	}

	r.Broadcast("room-1", []byte("overflow"), nil)

	require.Eventually(t, func() bool { return !slow.Alive() },
		time.Second, 5*time.Millisecond, "overloaded session should be closed")
}
