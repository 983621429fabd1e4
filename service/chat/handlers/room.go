package handlers

import (
	"context"

	"github.com/ishaan-vashist/chatcraft-ai/service/chat"
)

// JoinHandler subscribes the session to a conversation's room. Success is
// silent: clients treat the absence of an error as the ack.
type JoinHandler struct{}

func NewJoinHandler() chat.Handler { return &JoinHandler{} }

func (h *JoinHandler) Event() string { return chat.EventRoomJoin }

func (h *JoinHandler) Handle(_ context.Context, c *chat.Context, s *chat.Session, f *chat.Frame) error {
	p, err := chat.DecodePayload[chat.RoomPayload](f)
	if err != nil {
		return err
	}
	c.S.Registry().Join(chat.RoomID(p.ConversationID), s)
	return nil
}

// LeaveHandler unsubscribes the session. Leaving a room never joined is a
// no-op, not an error.
type LeaveHandler struct{}

func NewLeaveHandler() chat.Handler { return &LeaveHandler{} }

func (h *LeaveHandler) Event() string { return chat.EventRoomLeave }

func (h *LeaveHandler) Handle(_ context.Context, c *chat.Context, s *chat.Session, f *chat.Frame) error {
	p, err := chat.DecodePayload[chat.RoomPayload](f)
	if err != nil {
		return err
	}
	c.S.Registry().Leave(chat.RoomID(p.ConversationID), s)
	return nil
}
