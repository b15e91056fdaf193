package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATS publishes each batch as one JSON message.
type NATS struct {
	conn    *nats.Conn
	subject string
}

func NewNATS(url, subject string) (*NATS, error) {
	nc, err := nats.Connect(url, nats.Name("commentscraper"))
	if err != nil {
		return nil, fmt.Errorf("NATS connect error: %w", err)
	}
	return &NATS{conn: nc, subject: subject}, nil
}

func (n *NATS) Save(_ context.Context, batch Batch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("NATS publish to %s: %w", n.subject, err)
	}
	return n.conn.Flush()
}

func (n *NATS) Close() error {
	n.conn.Close()
	return nil
}
