package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/internal/cache"
	"github.com/itsDrac/gemstone-auction/internal/clock"
	"github.com/itsDrac/gemstone-auction/internal/domain"
	"github.com/itsDrac/gemstone-auction/internal/events"
	"github.com/itsDrac/gemstone-auction/internal/repository"
	"github.com/itsDrac/gemstone-auction/pkg/logger"
)

// CloseOutcome is the result of resolving an auction. Changed is false when
// the auction was already terminal and nothing was written.
type CloseOutcome struct {
	domain.Outcome
	Changed bool `json:"changed"`
}

// Closer moves auctions through time-driven transitions: scheduled auctions
// open at their start and open auctions resolve once their effective end
// passes.
type Closer struct {
	store  repository.Store
	clock  clock.Clock
	events events.Sink
	cache  cache.Cacher
	log    *logger.Logger
	batch  int
}

func NewCloser(store repository.Store, clk clock.Clock, sink events.Sink, c cache.Cacher, log *logger.Logger, batch int) *Closer {
	if batch <= 0 {
		batch = 100
	}
	return &Closer{
		store:  store,
		clock:  clk,
		events: sink,
		cache:  c,
		log:    log.Named("closer"),
		batch:  batch,
	}
}

// CloseAuction resolves an auction whose effective end has passed. Calling it
// again returns the recorded outcome without re-evaluating.
func (c *Closer) CloseAuction(ctx context.Context, id uuid.UUID) (*CloseOutcome, error) {
	var (
		out CloseOutcome
		evs []events.Event
	)
	err := c.store.WithAuctionLock(ctx, id, func(tx repository.Tx) error {
		evs = nil
		a := tx.Auction()
		if a.Status.Terminal() {
			out = CloseOutcome{Outcome: a.Outcome()}
			return nil
		}
		now := c.clock.Now()
		if !a.EndedAt(now) {
			return ErrAuctionNotEnded
		}
		saved, ev, err := c.resolve(ctx, tx, a, now)
		if err != nil {
			return err
		}
		out = CloseOutcome{Outcome: saved.Outcome(), Changed: true}
		evs = append(evs, ev)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAuctionNotEnded) {
			return nil, err
		}
		return nil, storeError(err)
	}

	if out.Changed {
		c.invalidate(ctx, id)
		c.events.Enqueue(evs...)
		c.log.Infow("auction closed", "auction_id", id, "status", out.Status)
	}
	return &out, nil
}

// Settle applies whichever time-driven transition is due for the auction at
// the current instant, if any.
func (c *Closer) Settle(ctx context.Context, id uuid.UUID) (bool, error) {
	var (
		changed bool
		evs     []events.Event
	)
	err := c.store.WithAuctionLock(ctx, id, func(tx repository.Tx) error {
		changed, evs = false, nil
		a := tx.Auction()
		now := c.clock.Now()

		switch {
		case a.DueToStart(now):
			a.SetStatus(domain.AuctionActive)
			saved, err := tx.SaveAuction(ctx, a)
			if err != nil {
				return err
			}
			evs = append(evs, events.New(events.AuctionActivated, saved, now))
		case dueToClose(a, now):
			_, ev, err := c.resolve(ctx, tx, a, now)
			if err != nil {
				return err
			}
			evs = append(evs, ev)
		default:
			return nil
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, storeError(err)
	}

	if changed {
		c.invalidate(ctx, id)
		c.events.Enqueue(evs...)
	}
	return changed, nil
}

// NeedsSettle reports whether a read of a should first apply a transition.
func NeedsSettle(a domain.Auction, now time.Time) bool {
	return a.DueToStart(now) || dueToClose(a, now)
}

func dueToClose(a domain.Auction, now time.Time) bool {
	switch a.Status {
	case domain.AuctionScheduled, domain.AuctionActive:
		return a.EndedAt(now)
	case domain.AuctionPending, domain.AuctionEnded, domain.AuctionSold, domain.AuctionCancelled, domain.AuctionNoSale:
		return false
	}
	return false
}

// resolve applies the close-out rule and settles the top bid to match.
func (c *Closer) resolve(ctx context.Context, tx repository.Tx, a domain.Auction, now time.Time) (domain.Auction, events.Event, error) {
	top, err := tx.WinningBid(ctx)
	if err != nil {
		return domain.Auction{}, events.Event{}, err
	}

	status := a.Resolve(now)
	if top != nil {
		switch status {
		case domain.AuctionSold:
			err = tx.SetBidStatus(ctx, top.ID, domain.BidWon, true)
		default:
			err = tx.SetBidStatus(ctx, top.ID, domain.BidCancelled, false)
		}
		if err != nil {
			return domain.Auction{}, events.Event{}, err
		}
	}

	saved, err := tx.SaveAuction(ctx, a)
	if err != nil {
		return domain.Auction{}, events.Event{}, err
	}

	ev := events.New(events.AuctionNoSale, saved, now)
	if saved.Status == domain.AuctionSold {
		ev = events.New(events.AuctionSold, saved, now).WithBid(*saved.WinnerID, saved.WinningBid.Decimal)
	}
	return saved, ev, nil
}

// Sweep settles every auction that is due. Failures are logged per auction
// and do not stop the sweep.
func (c *Closer) Sweep(ctx context.Context) (int, error) {
	settled := 0
	for {
		ids, err := c.store.ListDueAuctions(ctx, c.clock.Now(), c.batch)
		if err != nil {
			return settled, storeError(err)
		}

		progress := 0
		for _, id := range ids {
			if ctx.Err() != nil {
				return settled, ctx.Err()
			}
			changed, err := c.Settle(ctx, id)
			if err != nil {
				c.log.Errorw("settle failed", "auction_id", id, "error", err)
				continue
			}
			if changed {
				progress++
			}
		}
		settled += progress

		// another page only when this one was full and fully handled
		if len(ids) < c.batch || progress < len(ids) {
			return settled, nil
		}
	}
}

// Run sweeps immediately and then every interval until ctx ends.
func (c *Closer) Run(ctx context.Context, interval time.Duration) {
	c.log.Infow("closer started", "interval", interval.String(), "batch", c.batch)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := c.Sweep(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			c.log.Errorw("sweep failed", "error", err)
		}
		if n > 0 {
			c.log.Infow("sweep settled auctions", "count", n)
		}

		select {
		case <-ctx.Done():
			c.log.Infow("closer stopped")
			return
		case <-ticker.C:
		}
	}
}

func (c *Closer) invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.cache.Delete(ctx, cache.AuctionKey(id)); err != nil {
		c.log.Warnw("cache invalidation failed", "auction_id", id, "error", err)
	}
}
