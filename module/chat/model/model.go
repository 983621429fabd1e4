package model

import "time"

// Identity is the authenticated principal bound to a live connection at
// handshake time. Immutable for the connection's lifetime.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// User is an account row. PasswordHash never leaves the storage layer.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Conversation is a 1:1 channel between two participants. One of the
// participants may be the built-in assistant user.
type Conversation struct {
	ID        string    `json:"id"`
	CreatorID string    `json:"creatorId"`
	PeerID    string    `json:"peerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message types. Plain text for now; the column exists so media messages
// can be added without a schema change.
const (
	MessageTypeText = "text"
)

// Message is a persisted conversation message. Content is plaintext here;
// it is encrypted at rest by the storage layer and decrypted on read.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Type           string    `json:"type"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Contact is a saved peer in a user's contact list.
type Contact struct {
	OwnerID     string    `json:"ownerId"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}
