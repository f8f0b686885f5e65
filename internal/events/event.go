package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/internal/domain"
	"github.com/shopspring/decimal"
)

type Type string

const (
	BidPlaced            Type = "bid.placed"
	BidOutbid            Type = "bid.outbid"
	AuctionActivated     Type = "auction.activated"
	AuctionExtended      Type = "auction.extended"
	AuctionSold          Type = "auction.sold"
	AuctionNoSale        Type = "auction.no_sale"
	AuctionStatusChanged Type = "auction.status_changed"
)

// Event is a notification about an auction. It is produced after the state
// change it describes has committed.
type Event struct {
	ID               uuid.UUID            `json:"id"`
	Type             Type                 `json:"type"`
	AuctionID        uuid.UUID            `json:"auction_id"`
	BidderID         *uuid.UUID           `json:"bidder_id,omitempty"`
	Amount           decimal.NullDecimal  `json:"amount"`
	CurrentBid       decimal.Decimal      `json:"current_bid"`
	BidCount         int                  `json:"bid_count"`
	Status           domain.AuctionStatus `json:"status"`
	EffectiveEndTime time.Time            `json:"effective_end_time"`
	Recipients       []uuid.UUID          `json:"recipients,omitempty"`
	OccurredAt       time.Time            `json:"occurred_at"`
}

// New builds an event of type t from the auction state a.
func New(t Type, a domain.Auction, at time.Time) Event {
	return Event{
		ID:               uuid.New(),
		Type:             t,
		AuctionID:        a.ID,
		CurrentBid:       a.CurrentBid,
		BidCount:         a.BidCount,
		Status:           a.Status,
		EffectiveEndTime: a.EffectiveEndTime(),
		OccurredAt:       at,
	}
}

// WithBid attaches the bidder and amount the event is about.
func (e Event) WithBid(bidder uuid.UUID, amount decimal.Decimal) Event {
	b := bidder
	e.BidderID = &b
	e.Amount = domain.NullMoney(amount)
	return e
}

// Sink accepts events for asynchronous delivery. Enqueue must not block.
type Sink interface {
	Enqueue(evs ...Event)
}

// Publisher delivers one event to an external channel.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Feed is a live stream of encoded events for one auction.
type Feed interface {
	Messages() <-chan []byte
	Close() error
}

// Subscriber opens live feeds.
type Subscriber interface {
	Subscribe(ctx context.Context, auctionID uuid.UUID) (Feed, error)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Enqueue(...Event) {}
