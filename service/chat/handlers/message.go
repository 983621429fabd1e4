package handlers

import (
	"context"

	"github.com/ishaan-vashist/chatcraft-ai/service/chat"
)

// SendHandler persists and broadcasts a conversation message. Sending does
// NOT require the socket to have joined the room: authorization is
// conversation-participant membership, checked by the store — a participant
// who never sent room:join may still post, it just won't hear the echo.
type SendHandler struct{}

func NewSendHandler() chat.Handler { return &SendHandler{} }

func (h *SendHandler) Event() string { return chat.EventMessageSend }

func (h *SendHandler) Handle(ctx context.Context, c *chat.Context, s *chat.Session, f *chat.Frame) error {
	p, err := chat.DecodePayload[chat.SendPayload](f)
	if err != nil {
		return err
	}
	_, err = c.S.PostMessage(ctx, p.ConversationID, s.Identity, p.Content)
	return err
}
