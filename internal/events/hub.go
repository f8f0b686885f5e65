package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

const feedBuffer = 16

// Hub is an in-process Publisher and Subscriber used when Redis is not
// configured. Feeds only see events published by this process.
type Hub struct {
	mu    sync.Mutex
	feeds map[uuid.UUID]map[*hubFeed]struct{}
}

func NewHub() *Hub {
	return &Hub{feeds: make(map[uuid.UUID]map[*hubFeed]struct{})}
}

func (h *Hub) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for f := range h.feeds[e.AuctionID] {
		select {
		case f.out <- payload:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context, auctionID uuid.UUID) (Feed, error) {
	f := &hubFeed{hub: h, auctionID: auctionID, out: make(chan []byte, feedBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.feeds[auctionID] == nil {
		h.feeds[auctionID] = make(map[*hubFeed]struct{})
	}
	h.feeds[auctionID][f] = struct{}{}
	return f, nil
}

func (h *Hub) remove(f *hubFeed) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.feeds[f.auctionID][f]; !ok {
		return
	}
	delete(h.feeds[f.auctionID], f)
	if len(h.feeds[f.auctionID]) == 0 {
		delete(h.feeds, f.auctionID)
	}
	close(f.out)
}

type hubFeed struct {
	hub       *Hub
	auctionID uuid.UUID
	out       chan []byte
}

func (f *hubFeed) Messages() <-chan []byte {
	return f.out
}

func (f *hubFeed) Close() error {
	f.hub.remove(f)
	return nil
}
