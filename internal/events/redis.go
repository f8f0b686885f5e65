package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel carrying one auction's events.
func Channel(auctionID uuid.UUID) string {
	return "auction_events:" + auctionID.String()
}

// RedisPublisher fans events out over Redis pub/sub for live viewers.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.client.Publish(ctx, Channel(e.AuctionID), payload).Err()
}

// RedisSubscriber opens per-auction feeds on the channels RedisPublisher writes.
type RedisSubscriber struct {
	client *redis.Client
}

func NewRedisSubscriber(client *redis.Client) *RedisSubscriber {
	return &RedisSubscriber{client: client}
}

func (s *RedisSubscriber) Subscribe(ctx context.Context, auctionID uuid.UUID) (Feed, error) {
	ps := s.client.Subscribe(ctx, Channel(auctionID))
	// wait for the subscription confirmation so no event is missed after return
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Channel(auctionID), err)
	}

	out := make(chan []byte, feedBuffer)
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			select {
			case out <- []byte(msg.Payload):
			default:
				// slow reader, skip
			}
		}
	}()
	return &redisFeed{ps: ps, out: out}, nil
}

type redisFeed struct {
	ps  *redis.PubSub
	out chan []byte
}

func (f *redisFeed) Messages() <-chan []byte {
	return f.out
}

func (f *redisFeed) Close() error {
	return f.ps.Close()
}
