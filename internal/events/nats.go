package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Subject is the JetStream subject carrying one auction's events.
func Subject(auctionID uuid.UUID) string {
	return "auction.events." + auctionID.String()
}

// NATSPublisher appends events to a JetStream stream for durable consumers
// such as the mailer and the order pipeline.
type NATSPublisher struct {
	js jetstream.JetStream
}

// NewNATSPublisher ensures the stream exists and returns a publisher on it.
func NewNATSPublisher(ctx context.Context, nc *nats.Conn, stream string) (*NATSPublisher, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        stream,
		Description: "Auction lifecycle and bid events",
		Subjects:    []string{"auction.events.*"},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		Duplicates:  2 * time.Minute,
		Replicas:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create/update stream: %w", err)
	}

	return &NATSPublisher{js: js}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	// the event id doubles as the JetStream dedupe key
	if _, err := p.js.Publish(ctx, Subject(e.AuctionID), data, jetstream.WithMsgID(e.ID.String())); err != nil {
		return fmt.Errorf("failed to publish to JetStream: %w", err)
	}
	return nil
}
