package chat

import (
	"context"

	chatmodel "github.com/ishaan-vashist/chatcraft-ai/module/chat/model"
)

// RoomID keys a broadcast room. Rooms are conversation-scoped, ephemeral and
// purely in-memory; a distinct type keeps conversation ids from colliding
// with any other string-keyed namespace.
type RoomID string

func (r RoomID) String() string { return string(r) }

// TokenVerifier authenticates the bearer token presented during the
// WebSocket handshake. Failure means the connection is rejected before any
// session exists.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (chatmodel.Identity, error)
}

// MessageStore is the persistence collaborator for the socket path. The
// participant-authorization check lives behind CreateMessage: it fails with
// errs.ErrNotParticipant when the sender does not belong to the
// conversation, errs.ErrValidation for unusable content and
// errs.ErrPersistence for storage faults.
type MessageStore interface {
	CreateMessage(ctx context.Context, conversationID string, sender chatmodel.Identity, content string) (*chatmodel.Message, error)
}

// Presence records which users currently hold live connections. Optional;
// a nil Presence disables it.
type Presence interface {
	Online(ctx context.Context, userID, connID string) error
	Offline(ctx context.Context, userID, connID string) error
	Touch(ctx context.Context, userID, connID string) error
}

// EventBridge fans persisted messages out of the process (assistant worker,
// future push pipeline). Optional; a nil EventBridge disables it.
type EventBridge interface {
	PublishMessage(ctx context.Context, m *chatmodel.Message) error
}
