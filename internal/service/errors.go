package service

import (
	"errors"
	"fmt"

	"github.com/itsDrac/gemstone-auction/internal/domain"
	"github.com/itsDrac/gemstone-auction/internal/repository"
	"github.com/shopspring/decimal"
)

var (
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrAuctionNotOpen    = errors.New("auction is not open for bidding")
	ErrBidTooLow         = errors.New("bid is below the next minimum bid")
	ErrTimeout           = errors.New("timed out waiting for the auction, retry")
	ErrStaleState        = errors.New("auction changed while the request was processed, re-read and retry")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrAuctionNotEnded   = errors.New("auction has not reached its end time")
	ErrInvalidAuction    = errors.New("invalid auction")
	ErrInvalidBid        = errors.New("invalid bid")
	ErrWatcherNotFound   = errors.New("watcher not found")
	ErrUploadDisabled    = errors.New("image upload is not configured")
	ErrInvalidLogin      = errors.New("invalid credentials")
	ErrLoginDisabled     = errors.New("operator login is not configured")
)

// RejectReason names why a bid attempt was refused.
type RejectReason string

const (
	ReasonAuctionNotOpen RejectReason = "AuctionNotOpen"
	ReasonBidTooLow      RejectReason = "BidTooLow"
)

// RejectionError is a refused bid. NextMinimumBid is set for BidTooLow so the
// client can show the exact floor.
type RejectionError struct {
	Reason         RejectReason
	NextMinimumBid decimal.NullDecimal
	Status         domain.AuctionStatus
}

func (e *RejectionError) Error() string {
	switch e.Reason {
	case ReasonBidTooLow:
		return fmt.Sprintf("%s: next minimum bid is %s", ErrBidTooLow, e.NextMinimumBid.Decimal.StringFixed(domain.MoneyPlaces))
	case ReasonAuctionNotOpen:
		return fmt.Sprintf("%s (status %s)", ErrAuctionNotOpen, e.Status)
	}
	return string(e.Reason)
}

func (e *RejectionError) Is(target error) bool {
	switch e.Reason {
	case ReasonBidTooLow:
		return target == ErrBidTooLow
	case ReasonAuctionNotOpen:
		return target == ErrAuctionNotOpen
	}
	return false
}

func tooLow(floor decimal.Decimal) *RejectionError {
	return &RejectionError{Reason: ReasonBidTooLow, NextMinimumBid: domain.NullMoney(floor)}
}

func notOpen(status domain.AuctionStatus) *RejectionError {
	return &RejectionError{Reason: ReasonAuctionNotOpen, Status: status}
}

// storeError maps repository failures onto the service taxonomy.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrAuctionNotFound
	case errors.Is(err, repository.ErrLockTimeout):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, repository.ErrStaleState):
		return fmt.Errorf("%w: %w", ErrStaleState, err)
	}
	return err
}
