package assistant

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ishaan-vashist/chatcraft-ai/logger"
	chatmodel "github.com/ishaan-vashist/chatcraft-ai/module/chat/model"
	"github.com/ishaan-vashist/chatcraft-ai/service/chat"
	"github.com/ishaan-vashist/chatcraft-ai/service/natsx"
	"github.com/ishaan-vashist/chatcraft-ai/service/storage"
	"github.com/ishaan-vashist/chatcraft-ai/tools/safe"
)

const historyLimit = 20

// Worker listens to the message bus and replies in conversations the
// assistant user participates in. Replies are posted through the same
// chat.Server.PostMessage path as every other message, so they are
// persisted, encrypted and fanned out like any human message. Messages sent
// by the assistant itself are skipped, which breaks the reply loop.
type Worker struct {
	store     *storage.Store
	srv       *chat.Server
	responder Responder
	bridge    *natsx.Bridge

	identity chatmodel.Identity
	timeout  time.Duration

	sub *nats.Subscription
}

func NewWorker(store *storage.Store, srv *chat.Server, responder Responder, bridge *natsx.Bridge, identity chatmodel.Identity, timeout time.Duration) *Worker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Worker{
		store:     store,
		srv:       srv,
		responder: responder,
		bridge:    bridge,
		identity:  identity,
		timeout:   timeout,
	}
}

// Start subscribes on the "assistant" queue group. Safe to run several
// gateway instances; the group makes sure one of them answers.
func (w *Worker) Start() error {
	sub, err := w.bridge.SubscribeMessages("assistant", w.onMessage)
	if err != nil {
		return err
	}
	w.sub = sub
	logger.Infof("assistant worker started as user %s", w.identity.ID)
	return nil
}

func (w *Worker) Stop() {
	if w.sub != nil {
		_ = w.sub.Drain()
	}
}

func (w *Worker) onMessage(m *chatmodel.Message) {
	if m.SenderID == w.identity.ID {
		return
	}
	safe.Go(func() { w.reply(m) })
}

func (w *Worker) reply(m *chatmodel.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	ok, err := w.store.IsParticipant(ctx, m.ConversationID, w.identity.ID)
	if err != nil {
		logger.Errorf("assistant: participant check for %s: %v", m.ConversationID, err)
		return
	}
	if !ok {
		return
	}

	history, err := w.store.ListMessages(ctx, m.ConversationID, w.identity.ID, historyLimit)
	if err != nil {
		logger.Errorf("assistant: load history for %s: %v", m.ConversationID, err)
		return
	}

	text, err := w.responder.Reply(ctx, history, w.identity.ID)
	if err != nil {
		logger.Errorf("assistant: reply in %s: %v", m.ConversationID, err)
		return
	}
	if text == "" {
		return
	}

	if _, err := w.srv.PostMessage(ctx, m.ConversationID, w.identity, text); err != nil {
		logger.Errorf("assistant: post reply in %s: %v", m.ConversationID, err)
	}
}
