package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PlaceBidRequest struct {
	Amount      decimal.Decimal     `json:"amount" validate:"gt=0"`
	BidderID    uuid.UUID           `json:"bidder_id" validate:"required"`
	BidderEmail *string             `json:"bidder_email" validate:"omitempty,email"`
	MaxBid      decimal.NullDecimal `json:"max_bid"`
}

type CreateAuctionRequest struct {
	Title                  string              `json:"title" validate:"required,min=3,max=200"`
	Description            *string             `json:"description" validate:"omitempty,max=5000"`
	Images                 []string            `json:"images" validate:"max=10,dive,required"`
	StartingBid            decimal.Decimal     `json:"starting_bid" validate:"gte=0"`
	ReservePrice           decimal.NullDecimal `json:"reserve_price"`
	BuyNowPrice            decimal.NullDecimal `json:"buy_now_price"`
	BidIncrement           decimal.NullDecimal `json:"bid_increment"`
	StartTime              time.Time           `json:"start_time" validate:"required"`
	EndTime                time.Time           `json:"end_time" validate:"required,gtfield=StartTime"`
	AutoExtend             bool                `json:"auto_extend"`
	ExtendMinutes          int                 `json:"extend_minutes" validate:"gte=0,lte=1440"`
	ExtendThresholdMinutes int                 `json:"extend_threshold_minutes" validate:"gte=0,lte=1440"`
	Status                 string              `json:"status" validate:"omitempty,oneof=pending scheduled"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending scheduled active ended sold cancelled no_sale"`
}

type WatchRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

type OperatorLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}
