package chat

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ishaan-vashist/chatcraft-ai/logger"
	chatmodel "github.com/ishaan-vashist/chatcraft-ai/module/chat/model"
)

const (
	pingInterval   = 25 * time.Second
	writeWait      = 10 * time.Second
	firstPingDelay = 5 * time.Second // first ping delayed so a fresh connection is not hit immediately
	sendQueueSize  = 256
)

var errSessionDead = errors.New("session closed")

// Transport is the write side of one client connection. *websocket.Conn
// satisfies it; tests substitute an in-memory fake.
type Transport interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session is the server-side state for one live client: its identity, the
// rooms it subscribed to and its private send queue. A single writer
// goroutine owns the transport; everyone else goes through Deliver.
type Session struct {
	ConnID   string
	Identity chatmodel.Identity

	transport Transport
	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	onClose   func(*Session)

	mu    sync.Mutex
	rooms map[RoomID]struct{}
}

// NewSession binds an authenticated identity to a transport. onClose runs
// exactly once when the session dies, however that happens.
func NewSession(connID string, identity chatmodel.Identity, t Transport, onClose func(*Session)) *Session {
	return &Session{
		ConnID:    connID,
		Identity:  identity,
		transport: t,
		send:      make(chan []byte, sendQueueSize),
		closed:    make(chan struct{}),
		onClose:   onClose,
		rooms:     make(map[RoomID]struct{}),
	}
}

// Run is the writer loop: it drains the send queue and keeps the connection
// alive with pings. Any write error kills the session; a dead transport does
// not self-heal, so there are no retries.
func (s *Session) Run() {
	ticker := time.NewTicker(pingInterval)
	first := time.NewTimer(firstPingDelay)
	defer func() {
		ticker.Stop()
		first.Stop()
		_ = s.transport.SetWriteDeadline(time.Now().Add(writeWait))
		_ = s.transport.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		_ = s.transport.Close()
	}()

	for {
		select {
		case <-s.closed:
			return
		case payload := <-s.send:
			_ = s.transport.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.transport.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Warnf("[session] write err conn=%s user=%s err=%v", s.ConnID, s.Identity.ID, err)
				s.Close()
				return
			}
		case <-first.C:
			if err := s.transport.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				logger.Warnf("[session] first ping err conn=%s err=%v", s.ConnID, err)
				s.Close()
				return
			}
		case <-ticker.C:
			if err := s.transport.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				logger.Warnf("[session] ping err conn=%s err=%v", s.ConnID, err)
				s.Close()
				return
			}
		}
	}
}

// Deliver enqueues a payload for the writer goroutine. It never blocks: a
// full queue means the client cannot keep up and the session is reported
// dead to the caller.
func (s *Session) Deliver(payload []byte) error {
	select {
	case <-s.closed:
		return errSessionDead
	default:
	}
	select {
	case s.send <- payload:
		return nil
	case <-s.closed:
		return errSessionDead
	default:
		return errors.New("send queue full")
	}
}

// Alive reports whether the session has not been closed yet.
func (s *Session) Alive() bool {
	select {
	case <-s.closed:
		return false
	default:
		return true
	}
}

// Close marks the session dead and runs the registered cleanup exactly
// once. Safe to call from any goroutine, any number of times; duplicate
// close signals from the transport are harmless.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		if s.onClose != nil {
			s.onClose(s)
		}
	})
}

// Room-membership bookkeeping below is only ever called by the Registry
// while it holds its own lock, which keeps the two sides of the membership
// mapping in step.

func (s *Session) trackJoin(roomID RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = struct{}{}
}

func (s *Session) trackLeave(roomID RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
}

// Rooms returns a snapshot of the session's current subscriptions.
func (s *Session) Rooms() []RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RoomID, 0, len(s.rooms))
	for r := range s.rooms {
		out = append(out, r)
	}
	return out
}

// InRoom reports whether the session is currently subscribed to roomID.
func (s *Session) InRoom(roomID RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[roomID]
	return ok
}
