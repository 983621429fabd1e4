package handlers_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatmodel "github.com/ishaan-vashist/chatcraft-ai/module/chat/model"
	"github.com/ishaan-vashist/chatcraft-ai/service/chat"
	"github.com/ishaan-vashist/chatcraft-ai/service/chat/handlers"
	"github.com/ishaan-vashist/chatcraft-ai/tools/errs"
)

// fakeTransport records every frame the session's writer goroutine flushes.
type fakeTransport struct {
	mu     sync.Mutex
	frames [][]byte
}

func (t *fakeTransport) WriteMessage(_ int, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = append(t.frames, append([]byte(nil), data...))
	return nil
}

func (t *fakeTransport) WriteControl(int, []byte, time.Time) error { return nil }
func (t *fakeTransport) SetWriteDeadline(time.Time) error          { return nil }
func (t *fakeTransport) Close() error                              { return nil }

func (t *fakeTransport) events() []chat.ServerEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]chat.ServerEvent, 0, len(t.frames))
	for _, raw := range t.frames {
		var ev chat.ServerEvent
		if json.Unmarshal(raw, &ev) == nil {
			out = append(out, ev)
		}
	}
	return out
}

type fakeStore struct {
	err     error
	created []*chatmodel.Message
}

func (f *fakeStore) CreateMessage(_ context.Context, conversationID string, sender chatmodel.Identity, content string) (*chatmodel.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	m := &chatmodel.Message{
		ID:             "m1",
		ConversationID: conversationID,
		SenderID:       sender.ID,
		Type:           chatmodel.MessageTypeText,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	f.created = append(f.created, m)
	return m, nil
}

type fixture struct {
	srv   *chat.Server
	store *fakeStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &fakeStore{}
	srv := chat.NewServer(chat.ServerConfig{GatewayID: "gw-test"}, nil, store, chat.NewRegistry(), nil, nil)
	handlers.RegisterAll(srv)
	return &fixture{srv: srv, store: store}
}

func (fx *fixture) connect(t *testing.T, userID string) (*chat.Session, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{}
	s := chat.NewSession("conn-"+userID, chatmodel.Identity{ID: userID, DisplayName: userID}, ft, func(dead *chat.Session) {
		fx.srv.Registry().RemoveSession(dead)
	})
	go s.Run()
	t.Cleanup(s.Close)
	return s, ft
}

func (fx *fixture) dispatch(t *testing.T, s *chat.Session, event string, data map[string]any) error {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"event": event, "data": data})
	require.NoError(t, err)
	return fx.srv.Disp().Dispatch(context.Background(), &chat.Context{S: fx.srv}, s, raw)
}

func waitForEvent(t *testing.T, ft *fakeTransport, name string) chat.ServerEvent {
	t.Helper()
	var found chat.ServerEvent
	require.Eventually(t, func() bool {
		for _, ev := range ft.events() {
			if ev.Event == name {
				found = ev
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond, "expected a %s event", name)
	return found
}

func assertNoEvents(t *testing.T, ft *fakeTransport) {
	t.Helper()
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, ft.events())
}

func errCode(ev chat.ServerEvent) string {
	data, _ := ev.Data.(map[string]any)
	code, _ := data["code"].(string)
	return code
}

func TestUnknownEventGetsProtocolError(t *testing.T) {
	fx := newFixture(t)
	a, ft := fx.connect(t, "alice")

	err := fx.dispatch(t, a, "room:explode", map[string]any{"conversationId": "c1"})
	require.Error(t, err)

	ev := waitForEvent(t, ft, chat.EventError)
	assert.Equal(t, errs.KindProtocol, errCode(ev))
}

func TestSendFansOutToJoinedMembers(t *testing.T) {
	fx := newFixture(t)
	a, aft := fx.connect(t, "alice")
	b, bft := fx.connect(t, "bob")

	require.NoError(t, fx.dispatch(t, a, chat.EventRoomJoin, map[string]any{"conversationId": "c1"}))
	require.NoError(t, fx.dispatch(t, b, chat.EventRoomJoin, map[string]any{"conversationId": "c1"}))

	require.NoError(t, fx.dispatch(t, a, chat.EventMessageSend, map[string]any{
		"conversationId": "c1", "content": "hello bob",
	}))

	// Both members hear the echo, sender included.
	for _, ft := range []*fakeTransport{aft, bft} {
		ev := waitForEvent(t, ft, chat.EventMessageNew)
		data := ev.Data.(map[string]any)
		assert.Equal(t, "hello bob", data["content"])
		assert.Equal(t, "alice", data["senderId"])
	}
	require.Len(t, fx.store.created, 1)
}

func TestSendWithoutJoinStillPersists(t *testing.T) {
	fx := newFixture(t)
	a, aft := fx.connect(t, "alice")

	require.NoError(t, fx.dispatch(t, a, chat.EventMessageSend, map[string]any{
		"conversationId": "c1", "content": "fire and forget",
	}))

	require.Len(t, fx.store.created, 1)
	// Not subscribed to the room, so no echo and no error.
	assertNoEvents(t, aft)
}

func TestSendByNonParticipantOnlyNotifiesSender(t *testing.T) {
	fx := newFixture(t)
	fx.store.err = errs.ErrNotParticipant.WrapMsg("user alice")
	a, aft := fx.connect(t, "alice")
	b, bft := fx.connect(t, "bob")

	require.NoError(t, fx.dispatch(t, a, chat.EventRoomJoin, map[string]any{"conversationId": "c1"}))
	require.NoError(t, fx.dispatch(t, b, chat.EventRoomJoin, map[string]any{"conversationId": "c1"}))

	err := fx.dispatch(t, a, chat.EventMessageSend, map[string]any{
		"conversationId": "c1", "content": "let me in",
	})
	require.Error(t, err)

	ev := waitForEvent(t, aft, chat.EventError)
	assert.Equal(t, errs.KindNotParticipant, errCode(ev))
	assertNoEvents(t, bft)
}

func TestPersistenceFailureNeverReachesOtherMembers(t *testing.T) {
	fx := newFixture(t)
	fx.store.err = errs.ErrPersistence.WrapMsg("db down")
	a, aft := fx.connect(t, "alice")
	b, bft := fx.connect(t, "bob")

	require.NoError(t, fx.dispatch(t, a, chat.EventRoomJoin, map[string]any{"conversationId": "c1"}))
	require.NoError(t, fx.dispatch(t, b, chat.EventRoomJoin, map[string]any{"conversationId": "c1"}))

	require.Error(t, fx.dispatch(t, a, chat.EventMessageSend, map[string]any{
		"conversationId": "c1", "content": "lost",
	}))

	ev := waitForEvent(t, aft, chat.EventError)
	assert.Equal(t, errs.KindPersistence, errCode(ev))
	assertNoEvents(t, bft)
}

func TestTypingUpdateExcludesSender(t *testing.T) {
	fx := newFixture(t)
	a, aft := fx.connect(t, "alice")
	b, bft := fx.connect(t, "bob")

	require.NoError(t, fx.dispatch(t, a, chat.EventRoomJoin, map[string]any{"conversationId": "c1"}))
	require.NoError(t, fx.dispatch(t, b, chat.EventRoomJoin, map[string]any{"conversationId": "c1"}))

	require.NoError(t, fx.dispatch(t, a, chat.EventTypingStart, map[string]any{"conversationId": "c1"}))

	ev := waitForEvent(t, bft, chat.EventTypingUpdate)
	data := ev.Data.(map[string]any)
	assert.Equal(t, "alice", data["userId"])
	assert.Equal(t, true, data["isTyping"])
	assertNoEvents(t, aft)

	require.NoError(t, fx.dispatch(t, a, chat.EventTypingStop, map[string]any{"conversationId": "c1"}))
	require.Eventually(t, func() bool {
		for _, ev := range bft.events() {
			if ev.Event == chat.EventTypingUpdate {
				if d, ok := ev.Data.(map[string]any); ok && d["isTyping"] == false {
					return true
				}
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestLeaveStopsDelivery(t *testing.T) {
	fx := newFixture(t)
	a, _ := fx.connect(t, "alice")
	b, bft := fx.connect(t, "bob")

	require.NoError(t, fx.dispatch(t, a, chat.EventRoomJoin, map[string]any{"conversationId": "c1"}))
	require.NoError(t, fx.dispatch(t, b, chat.EventRoomJoin, map[string]any{"conversationId": "c1"}))
	require.NoError(t, fx.dispatch(t, b, chat.EventRoomLeave, map[string]any{"conversationId": "c1"}))

	require.NoError(t, fx.dispatch(t, a, chat.EventMessageSend, map[string]any{
		"conversationId": "c1", "content": "bye bob",
	}))

	assertNoEvents(t, bft)
}
