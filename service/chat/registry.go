package chat

import (
	"sync"

	"github.com/ishaan-vashist/chatcraft-ai/logger"
	"github.com/ishaan-vashist/chatcraft-ai/tools/errs"
	"github.com/ishaan-vashist/chatcraft-ai/tools/safe"
)

// Registry is the one piece of state shared by every connection: the map
// from room to the sessions subscribed to it. It holds non-owning
// references; sessions are owned by the gateway that created them.
//
// Invariant: a session appears in rooms[r] exactly when r appears in that
// session's own room set. All mutations run under the registry lock, which
// is what keeps the two directions in step.
type Registry struct {
	mu    sync.RWMutex
	rooms map[RoomID]map[string]*Session // room -> conn_id -> session
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[RoomID]map[string]*Session)}
}

// Join subscribes the session to a room. Idempotent: joining a room the
// session is already in is a no-op. Dead sessions are refused: Close marks
// the session closed before its cleanup runs RemoveSession, so checking
// under the registry lock means a join racing a close can never re-register
// a session after its removal.
func (r *Registry) Join(roomID RoomID, s *Session) {
	if roomID == "" || s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !s.Alive() {
		return
	}
	m := r.rooms[roomID]
	if m == nil {
		m = make(map[string]*Session)
		r.rooms[roomID] = m
	}
	if _, ok := m[s.ConnID]; ok {
		return
	}
	m[s.ConnID] = s
	s.trackJoin(roomID)
}

// Leave removes the session from a room. Idempotent: leaving a room never
// joined is a no-op. Empty rooms are dropped, which is pure memory hygiene.
func (r *Registry) Leave(roomID RoomID, s *Session) {
	if roomID == "" || s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(roomID, s)
}

func (r *Registry) leaveLocked(roomID RoomID, s *Session) {
	m := r.rooms[roomID]
	if m == nil {
		return
	}
	if _, ok := m[s.ConnID]; !ok {
		return
	}
	delete(m, s.ConnID)
	s.trackLeave(roomID)
	if len(m) == 0 {
		delete(r.rooms, roomID)
	}
}

// RemoveSession drops the session from every room it was a member of.
// Called once, on disconnect.
func (r *Registry) RemoveSession(s *Session) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, roomID := range s.Rooms() {
		r.leaveLocked(roomID, s)
	}
}

// Members returns the sessions currently in the room.
func (r *Registry) Members(roomID RoomID) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.rooms[roomID]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Session, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	return out
}

// RoomCount reports how many rooms currently have members.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Broadcast delivers payload to every live member of the room as of this
// call, except exclude (used so a typing sender does not echo itself).
// Delivery is fire-and-forget per member: one dead transport must not
// abort the rest, and never surfaces to the caller. A member that fails
// delivery is scheduled for cleanup.
func (r *Registry) Broadcast(roomID RoomID, payload []byte, exclude *Session) {
	members := r.Members(roomID)
	for _, s := range members {
		if s == exclude {
			continue
		}
		if !s.Alive() {
			continue
		}
		if err := s.Deliver(payload); err != nil {
			logger.Warnf("[registry] room=%s conn=%s user=%s err=%v",
				roomID, s.ConnID, s.Identity.ID, errs.ErrDelivery.WrapMsg(err.Error()))
			victim := s
			safe.Go(victim.Close)
		}
	}
}
