package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid is one accepted row of the bid ledger. Only Status, IsWinning and a
// raised MaxBid change after insertion.
type Bid struct {
	ID          uuid.UUID           `json:"id"`
	AuctionID   uuid.UUID           `json:"auction_id"`
	BidderID    uuid.UUID           `json:"bidder_id"`
	BidderEmail *string             `json:"bidder_email,omitempty"`
	Amount      decimal.Decimal     `json:"amount"`
	MaxBid      decimal.NullDecimal `json:"max_bid"`
	IsAutoBid   bool                `json:"is_auto_bid"`
	Status      BidStatus           `json:"status"`
	IsWinning   bool                `json:"is_winning"`
	CreatedAt   time.Time           `json:"created_at"`
}

// ProxyLimit is the most this bid's owner authorised the system to bid.
func (b Bid) ProxyLimit() decimal.Decimal {
	if b.MaxBid.Valid && b.MaxBid.Decimal.GreaterThan(b.Amount) {
		return b.MaxBid.Decimal
	}
	return b.Amount
}

// HasProxy reports whether the owner left a maximum above the bid amount.
func (b Bid) HasProxy() bool {
	return b.MaxBid.Valid && b.MaxBid.Decimal.GreaterThan(b.Amount)
}

// CompareBidHistory orders bids highest amount first, earliest first on ties.
// It is shaped for slices.SortFunc.
func CompareBidHistory(a, b Bid) int {
	if c := b.Amount.Cmp(a.Amount); c != 0 {
		return c
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}
