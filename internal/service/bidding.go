package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/internal/cache"
	"github.com/itsDrac/gemstone-auction/internal/clock"
	"github.com/itsDrac/gemstone-auction/internal/domain"
	"github.com/itsDrac/gemstone-auction/internal/events"
	"github.com/itsDrac/gemstone-auction/internal/repository"
	"github.com/itsDrac/gemstone-auction/pkg/logger"
	"github.com/shopspring/decimal"
)

// maxProxyRounds bounds the automatic bidding exchange triggered by one bid.
const maxProxyRounds = 64

type BiddingServicer interface {
	PlaceBid(ctx context.Context, in PlaceBidInput) (*BidOutcome, error)
}

type PlaceBidInput struct {
	AuctionID   uuid.UUID
	BidderID    uuid.UUID
	BidderEmail *string
	Amount      decimal.Decimal
	// MaxBid is the proxy ceiling the bidder authorises, if any.
	MaxBid decimal.NullDecimal
}

// BidOutcome describes an accepted bid attempt.
type BidOutcome struct {
	Bid            domain.Bid
	Auction        domain.Auction
	NewCurrentBid  decimal.Decimal
	NextMinimumBid decimal.Decimal
	BidCount       int
	Extended       bool
	BuyNow         bool
	// Duplicate is set when the bidder re-sent an amount they already lead
	// with. No bid was placed; at most the stored ceiling was raised.
	Duplicate bool
	// MaxBidRaised is set when a duplicate carried a higher proxy ceiling.
	MaxBidRaised bool
	// AutoBids are the proxy bids placed while resolving this attempt.
	AutoBids []domain.Bid
	// Leading reports whether the bidder holds the winning bid afterwards.
	Leading bool
}

type BiddingService struct {
	store  repository.Store
	clock  clock.Clock
	events events.Sink
	cache  cache.Cacher
	log    *logger.Logger
}

func NewBiddingService(store repository.Store, clk clock.Clock, sink events.Sink, c cache.Cacher, log *logger.Logger) (*BiddingService, error) {
	if store == nil {
		return nil, errors.New("bidding service: store is required")
	}
	return &BiddingService{
		store:  store,
		clock:  clk,
		events: sink,
		cache:  c,
		log:    log.Named("bidding"),
	}, nil
}

func (s *BiddingService) PlaceBid(ctx context.Context, in PlaceBidInput) (*BidOutcome, error) {
	if err := validateBid(in); err != nil {
		return nil, err
	}

	var (
		out *BidOutcome
		evs []events.Event
	)
	err := s.store.WithAuctionLock(ctx, in.AuctionID, func(tx repository.Tx) error {
		var err error
		out, evs, err = s.arbitrate(ctx, tx, in)
		return err
	})
	if err != nil {
		var rej *RejectionError
		if errors.As(err, &rej) {
			return nil, rej
		}
		return nil, storeError(err)
	}

	if !out.Duplicate {
		s.invalidate(ctx, in.AuctionID)
		s.events.Enqueue(evs...)
	}
	return out, nil
}

// arbitrate runs with the auction lock held. It must not do any I/O other
// than through tx.
func (s *BiddingService) arbitrate(ctx context.Context, tx repository.Tx, in PlaceBidInput) (*BidOutcome, []events.Event, error) {
	now := s.clock.Now()
	a := tx.Auction()
	var evs []events.Event

	if a.DueToStart(now) {
		a.SetStatus(domain.AuctionActive)
		evs = append(evs, events.New(events.AuctionActivated, a, now))
	}
	if !a.IsOpenAt(now) {
		return nil, nil, notOpen(a.Status)
	}

	if a.HighestBidderID != nil && *a.HighestBidderID == in.BidderID && in.Amount.LessThanOrEqual(a.CurrentBid) {
		lead, err := tx.WinningBid(ctx)
		if err != nil {
			return nil, nil, err
		}
		out := &BidOutcome{
			Auction:        a,
			NewCurrentBid:  a.CurrentBid,
			NextMinimumBid: a.NextMinimumBid(),
			BidCount:       a.BidCount,
			Duplicate:      true,
			Leading:        true,
		}
		if lead == nil {
			return out, nil, nil
		}
		if in.MaxBid.Valid {
			switch limit := lead.ProxyLimit(); {
			case in.MaxBid.Decimal.LessThan(limit):
				return nil, nil, fmt.Errorf("%w: max_bid cannot be lowered below %s", ErrInvalidBid, limit.StringFixed(2))
			case in.MaxBid.Decimal.GreaterThan(limit):
				if err := tx.SetBidMax(ctx, lead.ID, in.MaxBid); err != nil {
					return nil, nil, err
				}
				lead.MaxBid = in.MaxBid
				out.MaxBidRaised = true
			}
		}
		out.Bid = *lead
		return out, nil, nil
	}

	if floor := a.NextMinimumBid(); in.Amount.LessThan(floor) {
		return nil, nil, tooLow(floor)
	}

	prev, err := tx.WinningBid(ctx)
	if err != nil {
		return nil, nil, err
	}

	placed, step, err := s.apply(ctx, tx, &a, prev, domain.Bid{
		AuctionID:   a.ID,
		BidderID:    in.BidderID,
		BidderEmail: in.BidderEmail,
		Amount:      in.Amount,
		MaxBid:      in.MaxBid,
	}, now)
	if err != nil {
		return nil, nil, err
	}
	evs = append(evs, step.events...)

	out := &BidOutcome{
		Bid:      placed,
		Extended: step.extended,
		BuyNow:   step.buyNow,
	}

	// Proxy exchange: the bidder just superseded answers from their stored
	// maximum, then roles swap, until neither can beat the floor.
	leader, challenger := placed, prev
	for round := 0; round < maxProxyRounds && a.Status == domain.AuctionActive; round++ {
		if challenger == nil || challenger.BidderID == leader.BidderID || !challenger.HasProxy() {
			break
		}
		floor := a.NextMinimumBid()
		ceiling := challenger.ProxyLimit()
		if ceiling.LessThan(floor) {
			break
		}
		amount := decimal.Min(ceiling, decimal.Max(floor, leader.ProxyLimit().Add(a.BidIncrement)))

		superseded := leader
		auto, autoStep, err := s.apply(ctx, tx, &a, &superseded, domain.Bid{
			AuctionID:   a.ID,
			BidderID:    challenger.BidderID,
			BidderEmail: challenger.BidderEmail,
			Amount:      amount,
			MaxBid:      challenger.MaxBid,
			IsAutoBid:   true,
		}, now)
		if err != nil {
			return nil, nil, err
		}
		evs = append(evs, autoStep.events...)
		out.AutoBids = append(out.AutoBids, auto)
		out.Extended = out.Extended || autoStep.extended
		out.BuyNow = out.BuyNow || autoStep.buyNow

		leader, challenger = auto, &superseded
	}

	saved, err := tx.SaveAuction(ctx, a)
	if err != nil {
		return nil, nil, err
	}

	out.Auction = saved
	out.NewCurrentBid = saved.CurrentBid
	out.NextMinimumBid = saved.NextMinimumBid()
	out.BidCount = saved.BidCount
	out.Leading = saved.HighestBidderID != nil && *saved.HighestBidderID == in.BidderID
	if out.Bid.ID != leader.ID {
		if out.Leading {
			out.Bid = leader
		} else {
			out.Bid.Status = domain.BidOutbid
			out.Bid.IsWinning = false
		}
	}
	return out, evs, nil
}

type applied struct {
	extended bool
	buyNow   bool
	events   []events.Event
}

// apply records one accepted bid: the superseded bid is flagged outbid, the
// new bid becomes the single winning row and the auction state follows.
func (s *BiddingService) apply(ctx context.Context, tx repository.Tx, a *domain.Auction, prev *domain.Bid, b domain.Bid, now time.Time) (domain.Bid, applied, error) {
	var step applied

	if prev != nil {
		if err := tx.SetBidStatus(ctx, prev.ID, domain.BidOutbid, false); err != nil {
			return domain.Bid{}, step, fmt.Errorf("mark outbid: %w", err)
		}
		prev.Status = domain.BidOutbid
		prev.IsWinning = false
	}

	step.buyNow = a.HitsBuyNow(b.Amount)
	b.Status = domain.BidWinning
	if step.buyNow {
		b.Status = domain.BidWon
	}
	b.IsWinning = true
	b.CreatedAt = now

	placed, err := tx.AppendBid(ctx, b)
	if err != nil {
		return domain.Bid{}, step, fmt.Errorf("append bid: %w", err)
	}

	a.RecordBid(placed.BidderID, placed.Amount)
	if step.buyNow {
		a.MarkSold(placed.BidderID, placed.Amount, now)
	} else {
		step.extended = a.ExtendIfLastMinute(now)
	}

	step.events = append(step.events, events.New(events.BidPlaced, *a, now).WithBid(placed.BidderID, placed.Amount))
	if prev != nil && prev.BidderID != placed.BidderID {
		step.events = append(step.events, events.New(events.BidOutbid, *a, now).WithBid(prev.BidderID, prev.Amount))
	}
	if step.extended {
		step.events = append(step.events, events.New(events.AuctionExtended, *a, now))
	}
	if step.buyNow {
		step.events = append(step.events, events.New(events.AuctionSold, *a, now).WithBid(placed.BidderID, placed.Amount))
	}
	return placed, step, nil
}

func (s *BiddingService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.AuctionKey(id)); err != nil {
		s.log.Warnw("cache invalidation failed", "auction_id", id, "error", err)
	}
}

func validateBid(in PlaceBidInput) error {
	switch {
	case in.AuctionID == uuid.Nil:
		return fmt.Errorf("%w: auction id is required", ErrInvalidBid)
	case in.BidderID == uuid.Nil:
		return fmt.Errorf("%w: bidder id is required", ErrInvalidBid)
	case !in.Amount.IsPositive() || !domain.IsMoney(in.Amount):
		return fmt.Errorf("%w: amount must be positive with at most two decimals", ErrInvalidBid)
	case in.MaxBid.Valid && !domain.IsMoney(in.MaxBid.Decimal):
		return fmt.Errorf("%w: max_bid must have at most two decimals", ErrInvalidBid)
	case in.MaxBid.Valid && in.MaxBid.Decimal.LessThan(in.Amount):
		return fmt.Errorf("%w: max_bid must not be below amount", ErrInvalidBid)
	}
	return nil
}
