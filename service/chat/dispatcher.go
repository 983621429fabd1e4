package chat

import (
	"context"

	"github.com/ishaan-vashist/chatcraft-ai/logger"
	"github.com/ishaan-vashist/chatcraft-ai/tools/errs"
)

// Handler processes one named protocol event for one session.
type Handler interface {
	Event() string
	Handle(ctx context.Context, c *Context, s *Session, f *Frame) error
}

// Context hands handlers their collaborators through the server that owns
// them.
type Context struct {
	S *Server
}

// Dispatcher is the single entry point for inbound events: it parses the
// frame, routes it to the registered handler and reports any failure back
// to the originating session only. Nothing a handler returns is ever
// broadcast.
type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Event()] = h }

func (d *Dispatcher) GetHandler(event string) Handler { return d.handlers[event] }

// Dispatch runs one raw inbound frame to completion. The returned error is
// for the caller's log; the sender has already been told via an error
// event. The transport write of that error event is isolated here so its
// failure cannot corrupt dispatch-level reporting.
func (d *Dispatcher) Dispatch(ctx context.Context, c *Context, s *Session, raw []byte) error {
	f, err := ParseFrame(raw)
	if err != nil {
		d.reportError(s, err)
		return err
	}

	h, ok := d.handlers[f.Event]
	if !ok {
		err := errs.ErrProtocol.WrapMsg("unknown event " + f.Event)
		d.reportError(s, err)
		return err
	}

	if err := h.Handle(ctx, c, s, f); err != nil {
		d.reportError(s, err)
		return err
	}
	return nil
}

func (d *Dispatcher) reportError(s *Session, err error) {
	if derr := s.Deliver(BuildErrorEvent(err)); derr != nil {
		logger.Warnf("[dispatch] error report not delivered conn=%s err=%v", s.ConnID, derr)
	}
}
