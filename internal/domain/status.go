package domain

import "fmt"

// AuctionStatus is the lifecycle state of an auction.
type AuctionStatus string

const (
	AuctionPending   AuctionStatus = "pending"
	AuctionScheduled AuctionStatus = "scheduled"
	AuctionActive    AuctionStatus = "active"
	AuctionEnded     AuctionStatus = "ended"
	AuctionSold      AuctionStatus = "sold"
	AuctionCancelled AuctionStatus = "cancelled"
	AuctionNoSale    AuctionStatus = "no_sale"
)

// ParseAuctionStatus converts a stored or requested value into an AuctionStatus.
func ParseAuctionStatus(s string) (AuctionStatus, error) {
	st := AuctionStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown auction status %q", s)
	}
	return st, nil
}

func (s AuctionStatus) Valid() bool {
	switch s {
	case AuctionPending, AuctionScheduled, AuctionActive,
		AuctionEnded, AuctionSold, AuctionCancelled, AuctionNoSale:
		return true
	}
	return false
}

// Terminal reports whether no further bidding or closing can happen.
func (s AuctionStatus) Terminal() bool {
	switch s {
	case AuctionEnded, AuctionSold, AuctionCancelled, AuctionNoSale:
		return true
	case AuctionPending, AuctionScheduled, AuctionActive:
		return false
	}
	return false
}

// BidStatus is the state of a single ledger row.
type BidStatus string

const (
	BidActive    BidStatus = "active"
	BidOutbid    BidStatus = "outbid"
	BidWinning   BidStatus = "winning"
	BidWon       BidStatus = "won"
	BidCancelled BidStatus = "cancelled"
	BidRetracted BidStatus = "retracted"
)

func ParseBidStatus(s string) (BidStatus, error) {
	st := BidStatus(s)
	switch st {
	case BidActive, BidOutbid, BidWinning, BidWon, BidCancelled, BidRetracted:
		return st, nil
	}
	return "", fmt.Errorf("unknown bid status %q", s)
}
