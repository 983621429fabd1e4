package natsx

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/ishaan-vashist/chatcraft-ai/logger"
	chatmodel "github.com/ishaan-vashist/chatcraft-ai/module/chat/model"
)

// SubjectMessageNew carries every persisted message, one JSON-encoded
// chatmodel.Message per event.
const SubjectMessageNew = "chat.message.new"

// Bridge publishes persisted messages onto the bus so out-of-process
// consumers (the assistant worker today) can react to them.
type Bridge struct {
	c *Client
}

func NewBridge(c *Client) *Bridge { return &Bridge{c: c} }

func (b *Bridge) PublishMessage(_ context.Context, m *chatmodel.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encode message event")
	}
	return b.c.nc.Publish(SubjectMessageNew, data)
}

// SubscribeMessages delivers every published message to fn on a queue group,
// so multiple worker instances share the load instead of duplicating it.
// Decode failures are logged and dropped; one bad event must not wedge the
// subscription.
func (b *Bridge) SubscribeMessages(queue string, fn func(*chatmodel.Message)) (*nats.Subscription, error) {
	return b.c.nc.QueueSubscribe(SubjectMessageNew, queue, func(msg *nats.Msg) {
		var m chatmodel.Message
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			logger.Errorf("bridge: drop undecodable event on %s: %v", msg.Subject, err)
			return
		}
		fn(&m)
	})
}
