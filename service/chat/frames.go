package chat

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/ishaan-vashist/chatcraft-ai/tools/decode"
	"github.com/ishaan-vashist/chatcraft-ai/tools/errs"
)

// Client -> server event names. The protocol is fixed; anything else is a
// ProtocolError back to the sender.
const (
	EventRoomJoin    = "room:join"
	EventRoomLeave   = "room:leave"
	EventMessageSend = "message:send"
	EventTypingStart = "typing:start"
	EventTypingStop  = "typing:stop"
)

// Server -> client event names.
const (
	EventMessageNew   = "message:new"
	EventTypingUpdate = "typing:update"
	EventError        = "error"
)

// Frame is the envelope of every inbound client event.
type Frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// ParseFrame decodes a raw websocket text message into a Frame.
func ParseFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errs.ErrProtocol.WrapMsg("unparseable frame")
	}
	if f.Event == "" {
		return nil, errs.ErrProtocol.WrapMsg("missing event name")
	}
	return &f, nil
}

// RoomPayload is the data object of room:join / room:leave and the typing
// events.
type RoomPayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
}

// SendPayload is the data object of message:send.
type SendPayload struct {
	ConversationID string `json:"conversationId" validate:"required"`
	Content        string `json:"content" validate:"required,max=8000"`
}

var validate = validator.New()

// DecodePayload decodes and validates a frame's data object into a typed
// payload. Shape errors come back as ProtocolError, constraint violations
// as ValidationFailure.
func DecodePayload[T any](f *Frame) (*T, error) {
	out, err := decode.Map[T](f.Data)
	if err != nil {
		return nil, errs.ErrProtocol.WrapMsg(err.Error())
	}
	if err := validate.Struct(out); err != nil {
		return nil, errs.ErrValidation.WrapMsg(err.Error())
	}
	return out, nil
}
