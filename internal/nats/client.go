// Package nats publishes decoded aviation records to a NATS JetStream
// subject for downstream consumers.
package nats

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"goadsb/internal/adsb"
)

const (
	// SubjectDecoded carries decoded aviation records as JSON.
	SubjectDecoded = "adsb.decoded"

	streamName = "ADSB_DECODED"
)

// Client wraps a JetStream publisher for decoded records.
type Client struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// New connects to the NATS server and ensures the decoded-records stream
// exists.
func New(url string) (*Client, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{SubjectDecoded},
		Storage:  nats.FileStorage,
		MaxAge:   24 * time.Hour,
	})
	if err != nil && !strings.Contains(err.Error(), "stream name already in use") {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return &Client{conn: nc, js: js}, nil
}

// PublishRecord publishes one decoded record as JSON.
func (c *Client) PublishRecord(record *adsb.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if _, err := c.js.Publish(SubjectDecoded, data); err != nil {
		return fmt.Errorf("failed to publish record: %w", err)
	}
	return nil
}

// Close closes the connection.
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
