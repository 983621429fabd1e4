package handlers

import (
	"context"

	"github.com/ishaan-vashist/chatcraft-ai/service/chat"
)

// TypingHandler is a stateless passthrough: it relays a typing indicator to
// every other member of the room, never back to the sender.
type TypingHandler struct {
	event    string
	isTyping bool
}

func NewTypingStartHandler() chat.Handler {
	return &TypingHandler{event: chat.EventTypingStart, isTyping: true}
}

func NewTypingStopHandler() chat.Handler {
	return &TypingHandler{event: chat.EventTypingStop, isTyping: false}
}

func (h *TypingHandler) Event() string { return h.event }

func (h *TypingHandler) Handle(_ context.Context, c *chat.Context, s *chat.Session, f *chat.Frame) error {
	p, err := chat.DecodePayload[chat.RoomPayload](f)
	if err != nil {
		return err
	}
	roomID := chat.RoomID(p.ConversationID)
	c.S.Registry().Broadcast(roomID, chat.BuildTypingUpdate(s.Identity.ID, roomID, h.isTyping), s)
	return nil
}
