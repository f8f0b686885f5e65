package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Auction is the current-state aggregate of a single lot.
type Auction struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Images      []string  `json:"images"`

	StartingBid  decimal.Decimal     `json:"starting_bid"`
	CurrentBid   decimal.Decimal     `json:"current_bid"`
	ReservePrice decimal.NullDecimal `json:"reserve_price"`
	BuyNowPrice  decimal.NullDecimal `json:"buy_now_price"`
	BidIncrement decimal.Decimal     `json:"bid_increment"`

	BidCount        int        `json:"bid_count"`
	HighestBidderID *uuid.UUID `json:"highest_bidder_id,omitempty"`

	StartTime              time.Time  `json:"start_time"`
	EndTime                time.Time  `json:"end_time"`
	ExtendedEndTime        *time.Time `json:"extended_end_time,omitempty"`
	AutoExtend             bool       `json:"auto_extend"`
	ExtendMinutes          int        `json:"extend_minutes"`
	ExtendThresholdMinutes int        `json:"extend_threshold_minutes"`

	Status   AuctionStatus `json:"status"`
	IsActive bool          `json:"is_active"`

	WinnerID   *uuid.UUID          `json:"winner_id,omitempty"`
	WinningBid decimal.NullDecimal `json:"winning_bid"`
	WonAt      *time.Time          `json:"won_at,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveEndTime is the extended end when one was set, else the scheduled end.
func (a Auction) EffectiveEndTime() time.Time {
	if a.ExtendedEndTime != nil {
		return *a.ExtendedEndTime
	}
	return a.EndTime
}

// NextMinimumBid is the lowest amount the next bid may carry.
func (a Auction) NextMinimumBid() decimal.Decimal {
	if a.CurrentBid.IsZero() {
		return a.StartingBid
	}
	return a.CurrentBid.Add(a.BidIncrement)
}

// HasBids reports whether at least one bid was accepted.
func (a Auction) HasBids() bool {
	return a.BidCount > 0
}

// IsOpenAt reports whether bids may be accepted at now.
func (a Auction) IsOpenAt(now time.Time) bool {
	if a.Status != AuctionActive {
		return false
	}
	return !now.Before(a.StartTime) && now.Before(a.EffectiveEndTime())
}

// EndedAt reports whether the effective end has passed at now.
func (a Auction) EndedAt(now time.Time) bool {
	return !now.Before(a.EffectiveEndTime())
}

// DueToStart reports whether a scheduled auction should become active at now.
func (a Auction) DueToStart(now time.Time) bool {
	return a.Status == AuctionScheduled && !now.Before(a.StartTime) && now.Before(a.EffectiveEndTime())
}

// SetStatus moves the auction to s and keeps IsActive in step.
func (a *Auction) SetStatus(s AuctionStatus) {
	a.Status = s
	a.IsActive = s == AuctionActive
}

// RecordBid applies an accepted bid to the current-state fields.
func (a *Auction) RecordBid(bidder uuid.UUID, amount decimal.Decimal) {
	a.CurrentBid = amount
	a.BidCount++
	b := bidder
	a.HighestBidderID = &b
}

// ExtendIfLastMinute pushes the end out when a bid lands inside the threshold
// window. The effective end only ever moves forward.
func (a *Auction) ExtendIfLastMinute(now time.Time) bool {
	if !a.AutoExtend || a.ExtendMinutes <= 0 {
		return false
	}
	end := a.EffectiveEndTime()
	threshold := time.Duration(a.ExtendThresholdMinutes) * time.Minute
	if end.Sub(now) > threshold {
		return false
	}
	extended := now.Add(time.Duration(a.ExtendMinutes) * time.Minute)
	if !extended.After(end) {
		return false
	}
	a.ExtendedEndTime = &extended
	return true
}

// HitsBuyNow reports whether amount reaches the buy-now price.
func (a Auction) HitsBuyNow(amount decimal.Decimal) bool {
	return a.BuyNowPrice.Valid && amount.GreaterThanOrEqual(a.BuyNowPrice.Decimal)
}

// ReserveMet reports whether the current bid satisfies the reserve, if any.
func (a Auction) ReserveMet() bool {
	if !a.ReservePrice.Valid {
		return true
	}
	return a.CurrentBid.GreaterThanOrEqual(a.ReservePrice.Decimal)
}

// MarkSold sets the sale outcome. Winner fields are only ever set here.
func (a *Auction) MarkSold(winner uuid.UUID, amount decimal.Decimal, at time.Time) {
	a.SetStatus(AuctionSold)
	w := winner
	a.WinnerID = &w
	a.WinningBid = NullMoney(amount)
	t := at
	a.WonAt = &t
}

// ClearOutcome drops winner fields, used for every non-sold status.
func (a *Auction) ClearOutcome() {
	a.WinnerID = nil
	a.WinningBid = decimal.NullDecimal{}
	a.WonAt = nil
}

// Resolve applies the close-out decision rule and returns the resulting status.
func (a *Auction) Resolve(now time.Time) AuctionStatus {
	switch {
	case !a.HasBids() || a.HighestBidderID == nil:
		a.SetStatus(AuctionNoSale)
		a.ClearOutcome()
	case a.ReserveMet():
		a.MarkSold(*a.HighestBidderID, a.CurrentBid, now)
	default:
		a.SetStatus(AuctionNoSale)
		a.ClearOutcome()
	}
	return a.Status
}

// Outcome is the terminal result of an auction.
type Outcome struct {
	AuctionID  uuid.UUID           `json:"auction_id"`
	Status     AuctionStatus       `json:"status"`
	WinnerID   *uuid.UUID          `json:"winner_id,omitempty"`
	WinningBid decimal.NullDecimal `json:"winning_bid"`
	WonAt      *time.Time          `json:"won_at,omitempty"`
}

func (a Auction) Outcome() Outcome {
	return Outcome{
		AuctionID:  a.ID,
		Status:     a.Status,
		WinnerID:   a.WinnerID,
		WinningBid: a.WinningBid,
		WonAt:      a.WonAt,
	}
}

var (
	ErrEndBeforeStart       = errors.New("end_time must be after start_time")
	ErrNegativeStartingBid  = errors.New("starting_bid must be a non-negative amount with at most two decimals")
	ErrBadIncrement         = errors.New("bid_increment must be a positive amount with at most two decimals")
	ErrReserveBelowStarting = errors.New("reserve_price must be at least starting_bid")
	ErrBuyNowNotAbove       = errors.New("buy_now_price must be greater than starting_bid")
	ErrBadExtension         = errors.New("extend_minutes and extend_threshold_minutes must be positive when auto_extend is set")
	ErrBadInitialStatus     = errors.New("new auctions start as pending or scheduled")
)

// Validate checks the invariants a newly created auction must satisfy.
func (a Auction) Validate() error {
	var errs []error
	if !a.EndTime.After(a.StartTime) {
		errs = append(errs, ErrEndBeforeStart)
	}
	if !IsMoney(a.StartingBid) {
		errs = append(errs, ErrNegativeStartingBid)
	}
	if !a.BidIncrement.IsPositive() || !IsMoney(a.BidIncrement) {
		errs = append(errs, ErrBadIncrement)
	}
	if a.ReservePrice.Valid && (!IsMoney(a.ReservePrice.Decimal) || a.ReservePrice.Decimal.LessThan(a.StartingBid)) {
		errs = append(errs, ErrReserveBelowStarting)
	}
	if a.BuyNowPrice.Valid && (!IsMoney(a.BuyNowPrice.Decimal) || !a.BuyNowPrice.Decimal.GreaterThan(a.StartingBid)) {
		errs = append(errs, ErrBuyNowNotAbove)
	}
	if a.AutoExtend && (a.ExtendMinutes <= 0 || a.ExtendThresholdMinutes <= 0) {
		errs = append(errs, ErrBadExtension)
	}
	if a.Status != AuctionPending && a.Status != AuctionScheduled {
		errs = append(errs, ErrBadInitialStatus)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid auction: %w", errors.Join(errs...))
	}
	return nil
}
