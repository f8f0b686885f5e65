package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/internal/domain"
	"github.com/itsDrac/gemstone-auction/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) seen() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

type staticWatchers map[uuid.UUID][]uuid.UUID

func (w staticWatchers) ListWatchers(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	return w[id], nil
}

func testAuction() domain.Auction {
	return domain.Auction{
		ID:         uuid.New(),
		CurrentBid: decimal.RequireFromString("110"),
		BidCount:   2,
		Status:     domain.AuctionActive,
		EndTime:    time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC),
	}
}

func TestOutbox_DeliversToEveryPublisherWithWatchers(t *testing.T) {
	a := testAuction()
	watcher := uuid.New()
	good := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("broker down")}

	o := NewOutbox(8, staticWatchers{a.ID: {watcher}}, logger.Nop(), failing, good)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Run(ctx)
		close(done)
	}()

	o.Enqueue(New(BidPlaced, a, time.Now()).WithBid(uuid.New(), a.CurrentBid))

	require.Eventually(t, func() bool { return len(good.seen()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	got := good.seen()[0]
	assert.Equal(t, BidPlaced, got.Type)
	assert.Equal(t, []uuid.UUID{watcher}, got.Recipients)
	assert.Len(t, failing.seen(), 1)
}

func TestOutbox_EnqueueNeverBlocks(t *testing.T) {
	o := NewOutbox(1, nil, logger.Nop())
	a := testAuction()

	o.Enqueue(New(BidPlaced, a, time.Now()), New(BidOutbid, a, time.Now()), New(AuctionExtended, a, time.Now()))

	assert.Equal(t, int64(2), o.Dropped())
}

func TestOutbox_DrainsOnShutdown(t *testing.T) {
	pub := &recordingPublisher{}
	o := NewOutbox(8, nil, logger.Nop(), pub)
	a := testAuction()

	o.Enqueue(New(BidPlaced, a, time.Now()), New(AuctionSold, a, time.Now()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o.Run(ctx)

	assert.Len(t, pub.seen(), 2)
}

func TestHub_FansOutPerAuction(t *testing.T) {
	h := NewHub()
	ctx := context.Background()
	a := testAuction()

	feed, err := h.Subscribe(ctx, a.ID)
	require.NoError(t, err)
	other, err := h.Subscribe(ctx, uuid.New())
	require.NoError(t, err)
	defer other.Close()

	require.NoError(t, h.Publish(ctx, New(AuctionExtended, a, time.Now())))

	select {
	case msg := <-feed.Messages():
		var e Event
		require.NoError(t, json.Unmarshal(msg, &e))
		assert.Equal(t, AuctionExtended, e.Type)
		assert.Equal(t, a.ID, e.AuctionID)
		assert.True(t, e.CurrentBid.Equal(a.CurrentBid))
	case <-time.After(time.Second):
		t.Fatal("no event on feed")
	}

	select {
	case <-other.Messages():
		t.Fatal("event leaked to another auction's feed")
	default:
	}

	require.NoError(t, feed.Close())
	require.NoError(t, feed.Close())
	_, open := <-feed.Messages()
	assert.False(t, open)
}
