package natsx

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

// Config for the NATS connection.
type Config struct {
	URL  string
	Name string
}

// Client wraps a core NATS connection. The caller owns it and hands it to
// the producers/consumers that need it.
type Client struct {
	nc *nats.Conn
}

func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url missing")
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(500 * time.Millisecond),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(3 * time.Second),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "connect nats")
	}
	return &Client{nc: nc}, nil
}

// Close drains in-flight messages before disconnecting.
func (c *Client) Close() error {
	if c.nc == nil {
		return nil
	}
	return c.nc.Drain()
}
