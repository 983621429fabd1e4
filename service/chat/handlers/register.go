package handlers

import (
	"github.com/ishaan-vashist/chatcraft-ai/service/chat"
)

// RegisterAll wires the full fixed protocol onto the server's dispatcher.
func RegisterAll(s *chat.Server) {
	s.Disp().Register(NewJoinHandler())
	s.Disp().Register(NewLeaveHandler())
	s.Disp().Register(NewSendHandler())
	s.Disp().Register(NewTypingStartHandler())
	s.Disp().Register(NewTypingStopHandler())
}
