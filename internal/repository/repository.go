package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound    = errors.New("repository: not found")
	ErrLockTimeout = errors.New("repository: timed out waiting for auction lock")
	ErrStaleState  = errors.New("repository: auction changed since it was read")
)

// ListFilter selects a page of auctions. A nil Status lists every status.
type ListFilter struct {
	Status *domain.AuctionStatus
	Limit  int
	Offset int
}

// Store is the auction repository plus bid ledger. Reads are lock-free and may
// be stale; every mutation of auction state or bid status goes through
// WithAuctionLock.
type Store interface {
	GetAuction(ctx context.Context, id uuid.UUID) (domain.Auction, error)
	ListAuctions(ctx context.Context, f ListFilter) ([]domain.Auction, error)
	CreateAuction(ctx context.Context, a domain.Auction) (domain.Auction, error)

	// ListBids returns the ledger for an auction, highest amount first and
	// earliest first among equal amounts.
	ListBids(ctx context.Context, auctionID uuid.UUID) ([]domain.Bid, error)

	// ListDueAuctions returns active auctions whose effective end is at or
	// before now and scheduled auctions whose start is at or before now.
	ListDueAuctions(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)

	AddWatcher(ctx context.Context, auctionID, userID uuid.UUID) error
	RemoveWatcher(ctx context.Context, auctionID, userID uuid.UUID) error
	ListWatchers(ctx context.Context, auctionID uuid.UUID) ([]uuid.UUID, error)

	// WithAuctionLock runs fn with exclusive access to one auction. Everything
	// fn writes through the Tx commits together when fn returns nil and is
	// discarded otherwise. Waiting longer than the store's lock timeout
	// returns ErrLockTimeout.
	WithAuctionLock(ctx context.Context, id uuid.UUID, fn func(tx Tx) error) error
}

// Tx is the view of a locked auction.
type Tx interface {
	// Auction is the state read when the lock was taken, updated by SaveAuction.
	Auction() domain.Auction
	// WinningBid returns the bid currently flagged winning, or nil.
	WinningBid(ctx context.Context) (*domain.Bid, error)
	AppendBid(ctx context.Context, b domain.Bid) (domain.Bid, error)
	SetBidStatus(ctx context.Context, bidID uuid.UUID, status domain.BidStatus, isWinning bool) error
	// SetBidMax replaces the proxy ceiling stored on a bid.
	SetBidMax(ctx context.Context, bidID uuid.UUID, maxBid decimal.NullDecimal) error
	// SaveAuction writes the mutable state fields. It fails with ErrStaleState
	// when a's version no longer matches the stored row.
	SaveAuction(ctx context.Context, a domain.Auction) (domain.Auction, error)
}
