package events

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/pkg/logger"
)

const publishTimeout = 5 * time.Second

// WatcherLister resolves the users following an auction.
type WatcherLister interface {
	ListWatchers(ctx context.Context, auctionID uuid.UUID) ([]uuid.UUID, error)
}

// Outbox decouples event producers from delivery. Producers enqueue without
// blocking; Run delivers to every publisher in order of arrival.
type Outbox struct {
	queue      chan Event
	publishers []Publisher
	watchers   WatcherLister
	log        *logger.Logger
	dropped    atomic.Int64
}

var _ Sink = (*Outbox)(nil)

func NewOutbox(size int, watchers WatcherLister, log *logger.Logger, publishers ...Publisher) *Outbox {
	return &Outbox{
		queue:      make(chan Event, size),
		publishers: publishers,
		watchers:   watchers,
		log:        log.Named("outbox"),
	}
}

// Enqueue hands events to the dispatcher. A full queue drops the event.
func (o *Outbox) Enqueue(evs ...Event) {
	for _, e := range evs {
		select {
		case o.queue <- e:
		default:
			o.dropped.Add(1)
			o.log.Warnw("event dropped, outbox full", "type", e.Type, "auction_id", e.AuctionID)
		}
	}
}

// Dropped is the number of events discarded because the queue was full.
func (o *Outbox) Dropped() int64 {
	return o.dropped.Load()
}

// Run dispatches until ctx ends, then delivers whatever is still queued.
func (o *Outbox) Run(ctx context.Context) {
	o.log.Infow("outbox started", "publishers", len(o.publishers))
	for {
		select {
		case e := <-o.queue:
			o.dispatch(ctx, e)
		case <-ctx.Done():
			o.drain()
			o.log.Infow("outbox stopped", "dropped", o.Dropped())
			return
		}
	}
}

func (o *Outbox) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	for {
		select {
		case e := <-o.queue:
			o.dispatch(ctx, e)
		default:
			return
		}
	}
}

func (o *Outbox) dispatch(ctx context.Context, e Event) {
	if o.watchers != nil && len(e.Recipients) == 0 {
		ids, err := o.watchers.ListWatchers(ctx, e.AuctionID)
		if err != nil {
			o.log.Warnw("list watchers failed", "auction_id", e.AuctionID, "error", err)
		}
		e.Recipients = ids
	}

	for _, p := range o.publishers {
		pctx, cancel := context.WithTimeout(ctx, publishTimeout)
		if err := p.Publish(pctx, e); err != nil {
			o.log.Errorw("publish failed", "type", e.Type, "auction_id", e.AuctionID, "error", err)
		}
		cancel()
	}
}
