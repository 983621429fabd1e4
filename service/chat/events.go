package chat

import (
	"encoding/json"
	"time"

	chatmodel "github.com/ishaan-vashist/chatcraft-ai/module/chat/model"
	"github.com/ishaan-vashist/chatcraft-ai/tools/errs"
)

// ServerEvent is the envelope of every outbound event.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type messageNewData struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Type           string    `json:"type"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

type typingUpdateData struct {
	UserID         string `json:"userId"`
	IsTyping       bool   `json:"isTyping"`
	ConversationID string `json:"conversationId"`
}

type errorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func marshalEvent(event string, data any) []byte {
	b, _ := json.Marshal(ServerEvent{Event: event, Data: data})
	return b
}

// BuildMessageNew renders a persisted message as a message:new event.
func BuildMessageNew(m *chatmodel.Message) []byte {
	return marshalEvent(EventMessageNew, messageNewData{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Type:           m.Type,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	})
}

// BuildTypingUpdate renders a typing:update event.
func BuildTypingUpdate(userID string, roomID RoomID, isTyping bool) []byte {
	return marshalEvent(EventTypingUpdate, typingUpdateData{
		UserID:         userID,
		IsTyping:       isTyping,
		ConversationID: roomID.String(),
	})
}

// BuildErrorEvent renders any error as the error event sent back to the
// originating connection only. The wire code is the error kind.
func BuildErrorEvent(err error) []byte {
	ce := errs.AsCodeError(err)
	msg := ce.Msg
	if ce.Detail != "" {
		msg = ce.Msg + ": " + ce.Detail
	}
	return marshalEvent(EventError, errorData{Code: ce.Kind, Message: msg})
}
