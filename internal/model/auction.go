package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/internal/domain"
	"github.com/shopspring/decimal"
)

// AuctionView is the storefront projection of an auction.
type AuctionView struct {
	ID                     uuid.UUID            `json:"id"`
	Title                  string               `json:"title"`
	Description            *string              `json:"description,omitempty"`
	ImageURLs              []string             `json:"image_urls"`
	StartingBid            decimal.Decimal      `json:"starting_bid"`
	CurrentBid             decimal.Decimal      `json:"current_bid"`
	NextMinimumBid         decimal.Decimal      `json:"next_minimum_bid"`
	BidIncrement           decimal.Decimal      `json:"bid_increment"`
	BuyNowPrice            decimal.NullDecimal  `json:"buy_now_price"`
	ReserveMet             bool                 `json:"reserve_met"`
	HasReserve             bool                 `json:"has_reserve"`
	BidCount               int                  `json:"bid_count"`
	HighestBidderID        *uuid.UUID           `json:"highest_bidder_id,omitempty"`
	StartTime              time.Time            `json:"start_time"`
	EndTime                time.Time            `json:"end_time"`
	ExtendedEndTime        *time.Time           `json:"extended_end_time,omitempty"`
	EffectiveEndTime       time.Time            `json:"effective_end_time"`
	AutoExtend             bool                 `json:"auto_extend"`
	ExtendMinutes          int                  `json:"extend_minutes"`
	ExtendThresholdMinutes int                  `json:"extend_threshold_minutes"`
	Status                 domain.AuctionStatus `json:"status"`
	IsActive               bool                 `json:"is_active"`
	WinnerID               *uuid.UUID           `json:"winner_id,omitempty"`
	WinningBid             decimal.NullDecimal  `json:"winning_bid"`
	WonAt                  *time.Time           `json:"won_at,omitempty"`
	Version                int64                `json:"version"`
}

// NewAuctionView projects a. The reserve amount itself is never exposed.
func NewAuctionView(a domain.Auction, imageURLs []string) AuctionView {
	if imageURLs == nil {
		imageURLs = []string{}
	}
	return AuctionView{
		ID:                     a.ID,
		Title:                  a.Title,
		Description:            a.Description,
		ImageURLs:              imageURLs,
		StartingBid:            a.StartingBid,
		CurrentBid:             a.CurrentBid,
		NextMinimumBid:         a.NextMinimumBid(),
		BidIncrement:           a.BidIncrement,
		BuyNowPrice:            a.BuyNowPrice,
		ReserveMet:             a.HasBids() && a.ReserveMet(),
		HasReserve:             a.ReservePrice.Valid,
		BidCount:               a.BidCount,
		HighestBidderID:        a.HighestBidderID,
		StartTime:              a.StartTime,
		EndTime:                a.EndTime,
		ExtendedEndTime:        a.ExtendedEndTime,
		EffectiveEndTime:       a.EffectiveEndTime(),
		AutoExtend:             a.AutoExtend,
		ExtendMinutes:          a.ExtendMinutes,
		ExtendThresholdMinutes: a.ExtendThresholdMinutes,
		Status:                 a.Status,
		IsActive:               a.IsActive,
		WinnerID:               a.WinnerID,
		WinningBid:             a.WinningBid,
		WonAt:                  a.WonAt,
		Version:                a.Version,
	}
}

// BidView is a ledger row as shown in the bid history. The proxy ceiling stays
// private to its owner.
type BidView struct {
	ID        uuid.UUID        `json:"id"`
	BidderID  uuid.UUID        `json:"bidder_id"`
	Amount    decimal.Decimal  `json:"amount"`
	IsAutoBid bool             `json:"is_auto_bid"`
	Status    domain.BidStatus `json:"status"`
	IsWinning bool             `json:"is_winning"`
	CreatedAt time.Time        `json:"created_at"`
}

func NewBidView(b domain.Bid) BidView {
	return BidView{
		ID:        b.ID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		IsAutoBid: b.IsAutoBid,
		Status:    b.Status,
		IsWinning: b.IsWinning,
		CreatedAt: b.CreatedAt,
	}
}

func NewBidViews(bids []domain.Bid) []BidView {
	out := make([]BidView, 0, len(bids))
	for _, b := range bids {
		out = append(out, NewBidView(b))
	}
	return out
}

// BidResult is the response to an accepted bid attempt.
type BidResult struct {
	BidID            uuid.UUID            `json:"bid_id"`
	Amount           decimal.Decimal      `json:"amount"`
	NewCurrentBid    decimal.Decimal      `json:"new_current_bid"`
	NextMinimumBid   decimal.Decimal      `json:"next_minimum_bid"`
	BidCount         int                  `json:"bid_count"`
	Status           domain.AuctionStatus `json:"status"`
	EffectiveEndTime time.Time            `json:"effective_end_time"`
	Extended         bool                 `json:"extended"`
	BuyNow           bool                 `json:"buy_now"`
	Duplicate        bool                 `json:"duplicate"`
	MaxBidRaised     bool                 `json:"max_bid_raised"`
	Leading          bool                 `json:"leading"`
	AutoBids         []BidView            `json:"auto_bids"`
}

// Rejection is the error detail of a refused bid.
type Rejection struct {
	Reason         string               `json:"reason"`
	NextMinimumBid decimal.NullDecimal  `json:"next_minimum_bid"`
	Status         domain.AuctionStatus `json:"status,omitempty"`
}
