package handlers

import (
	"net/http"

	"github.com/itsDrac/gemstone-auction/internal/domain"
	"github.com/itsDrac/gemstone-auction/internal/model"
	"github.com/itsDrac/gemstone-auction/internal/service"
)

type AuctionHandler struct {
	auctions service.AuctionServicer
	bidding  service.BiddingServicer
}

func NewAuctionHandler(auctions service.AuctionServicer, bidding service.BiddingServicer) (*AuctionHandler, error) {
	return &AuctionHandler{
		auctions: auctions,
		bidding:  bidding,
	}, nil
}

// ListAuctions godoc
//
//	@Summary		List auctions
//	@Description	List auctions, optionally filtered by status
//	@Tags			Auctions
//	@Produce		json
//	@Param			status	query		string	false	"Auction status"
//	@Param			limit	query		int		false	"Number of auctions to return"
//	@Param			offset	query		int		false	"Number of auctions to skip"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	map[string]any
//	@Router			/auctions [get]
func (h *AuctionHandler) ListAuctions(w http.ResponseWriter, r *http.Request) {
	in := service.ListAuctionsInput{
		Limit:  intQuery(r, "limit", service.DefaultPageSize),
		Offset: intQuery(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := domain.ParseAuctionStatus(raw)
		if err != nil {
			RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidParam.Error(), err.Error(), nil)
			return
		}
		in.Status = &st
	}

	list, err := h.auctions.ListAuctions(r.Context(), in)
	if err != nil {
		respondServiceError(w, r, err, "list auctions")
		return
	}

	views := make([]model.AuctionView, 0, len(list))
	for _, a := range list {
		views = append(views, model.NewAuctionView(a, h.auctions.ImageURLs(r.Context(), a)))
	}
	resp := map[string]any{
		"auctions": views,
		"limit":    in.Limit,
		"offset":   in.Offset,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Auctions fetched successfully", resp)
}

// GetAuction godoc
//
//	@Summary		Get an auction
//	@Description	Current state of an auction including the next minimum bid and effective end time
//	@Tags			Auctions
//	@Produce		json
//	@Param			auctionId	path		string	true	"Auction ID"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	map[string]any
//	@Router			/auctions/{auctionId} [get]
func (h *AuctionHandler) GetAuction(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, auctionParamKey)
	if !ok {
		return
	}

	a, err := h.auctions.GetAuction(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "get auction")
		return
	}

	resp := map[string]any{
		"auction": model.NewAuctionView(a, h.auctions.ImageURLs(r.Context(), a)),
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Auction fetched successfully", resp)
}

// ListBids godoc
//
//	@Summary		Bid history
//	@Description	Accepted bids for an auction, highest first
//	@Tags			Bids
//	@Produce		json
//	@Param			auctionId	path		string	true	"Auction ID"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	map[string]any
//	@Router			/auctions/{auctionId}/bids [get]
func (h *AuctionHandler) ListBids(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, auctionParamKey)
	if !ok {
		return
	}

	bids, err := h.auctions.ListBids(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "list bids")
		return
	}

	resp := map[string]any{
		"bids": model.NewBidViews(bids),
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Bids fetched successfully", resp)
}

// PlaceBid godoc
//
//	@Summary		Place a bid
//	@Description	Place a bid on an auction. Rejections carry the reason and the next minimum bid.
//	@Tags			Bids
//	@Accept			json
//	@Produce		json
//	@Param			auctionId	path		string					true	"Auction ID"
//	@Param			bid			body		model.PlaceBidRequest	true	"Bid details"
//	@Success		200			{object}	map[string]any
//	@Failure		400			{object}	map[string]any
//	@Failure		404			{object}	map[string]any
//	@Failure		409			{object}	map[string]any
//	@Failure		503			{object}	map[string]any
//	@Router			/auctions/{auctionId}/bids [post]
func (h *AuctionHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, auctionParamKey)
	if !ok {
		return
	}

	var req model.PlaceBidRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	out, err := h.bidding.PlaceBid(r.Context(), service.PlaceBidInput{
		AuctionID:   id,
		BidderID:    req.BidderID,
		BidderEmail: req.BidderEmail,
		Amount:      req.Amount,
		MaxBid:      req.MaxBid,
	})
	if err != nil {
		respondServiceError(w, r, err, "place bid")
		return
	}

	result := model.BidResult{
		BidID:            out.Bid.ID,
		Amount:           out.Bid.Amount,
		NewCurrentBid:    out.NewCurrentBid,
		NextMinimumBid:   out.NextMinimumBid,
		BidCount:         out.BidCount,
		Status:           out.Auction.Status,
		EffectiveEndTime: out.Auction.EffectiveEndTime(),
		Extended:         out.Extended,
		BuyNow:           out.BuyNow,
		Duplicate:        out.Duplicate,
		MaxBidRaised:     out.MaxBidRaised,
		Leading:          out.Leading,
		AutoBids:         model.NewBidViews(out.AutoBids),
	}
	message := "Bid placed successfully"
	if !out.Leading {
		message = "Bid placed but outbid by a proxy bid"
	}
	RespondSuccessJSON(w, r, http.StatusOK, message, result)
}

// Watch godoc
//
//	@Summary		Watch an auction
//	@Tags			Auctions
//	@Accept			json
//	@Produce		json
//	@Param			auctionId	path		string				true	"Auction ID"
//	@Param			watcher		body		model.WatchRequest	true	"Watcher"
//	@Success		201			{object}	map[string]any
//	@Failure		404			{object}	map[string]any
//	@Router			/auctions/{auctionId}/watchers [post]
func (h *AuctionHandler) Watch(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, auctionParamKey)
	if !ok {
		return
	}
	var req model.WatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.auctions.Watch(r.Context(), id, req.UserID); err != nil {
		respondServiceError(w, r, err, "watch auction")
		return
	}
	RespondSuccessJSON(w, r, http.StatusCreated, "Watching auction", "")
}

func (h *AuctionHandler) Unwatch(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, auctionParamKey)
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, userParamKey)
	if !ok {
		return
	}

	if err := h.auctions.Unwatch(r.Context(), id, userID); err != nil {
		respondServiceError(w, r, err, "unwatch auction")
		return
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Stopped watching auction", "")
}
