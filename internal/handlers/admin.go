package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/itsDrac/gemstone-auction/internal/domain"
	"github.com/itsDrac/gemstone-auction/internal/model"
	"github.com/itsDrac/gemstone-auction/internal/service"
)

const (
	maxUploadBody  = 50 << 20
	maxUploadImage = 10 << 20
)

// AdminHandler serves the operator routes. Every route is behind the operator
// role guard.
type AdminHandler struct {
	auctions service.AuctionServicer
}

func NewAdminHandler(auctions service.AuctionServicer) (*AdminHandler, error) {
	return &AdminHandler{auctions: auctions}, nil
}

// CreateAuction godoc
//
//	@Summary		Create an auction
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			auction	body		model.CreateAuctionRequest	true	"Auction details"
//	@Success		201		{object}	map[string]any
//	@Failure		400		{object}	map[string]any
//	@Failure		401		{object}	map[string]any
//	@Router			/auctions [post]
func (h *AdminHandler) CreateAuction(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAuctionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	a, err := h.auctions.CreateAuction(r.Context(), service.CreateAuctionInput{
		Title:                  req.Title,
		Description:            req.Description,
		Images:                 req.Images,
		StartingBid:            req.StartingBid,
		ReservePrice:           req.ReservePrice,
		BuyNowPrice:            req.BuyNowPrice,
		BidIncrement:           req.BidIncrement,
		StartTime:              req.StartTime,
		EndTime:                req.EndTime,
		AutoExtend:             req.AutoExtend,
		ExtendMinutes:          req.ExtendMinutes,
		ExtendThresholdMinutes: req.ExtendThresholdMinutes,
		Status:                 domain.AuctionStatus(req.Status),
	})
	if err != nil {
		respondServiceError(w, r, err, "create auction")
		return
	}

	resp := map[string]any{
		"auction": model.NewAuctionView(a, h.auctions.ImageURLs(r.Context(), a)),
	}
	RespondSuccessJSON(w, r, http.StatusCreated, "Auction created successfully", resp)
}

// UpdateStatus godoc
//
//	@Summary		Override an auction's status
//	@Description	Operator override. Sold sets winner fields from the highest bidder, every other status clears them.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			auctionId	path		string						true	"Auction ID"
//	@Param			status		body		model.UpdateStatusRequest	true	"New status"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	map[string]any
//	@Failure		409			{object}	map[string]any
//	@Router			/auctions/{auctionId} [put]
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, auctionParamKey)
	if !ok {
		return
	}
	var req model.UpdateStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	a, err := h.auctions.UpdateStatus(r.Context(), id, domain.AuctionStatus(req.Status))
	if err != nil {
		respondServiceError(w, r, err, "update auction status")
		return
	}

	resp := map[string]any{
		"auction": model.NewAuctionView(a, h.auctions.ImageURLs(r.Context(), a)),
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Auction status updated", resp)
}

// CloseAuction godoc
//
//	@Summary		Close an auction
//	@Description	Resolve an auction whose end has passed. Repeated calls return the recorded outcome.
//	@Tags			Admin
//	@Produce		json
//	@Param			auctionId	path		string	true	"Auction ID"
//	@Success		200			{object}	map[string]any
//	@Failure		404			{object}	map[string]any
//	@Failure		409			{object}	map[string]any
//	@Router			/auctions/{auctionId}/close [post]
func (h *AdminHandler) CloseAuction(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, auctionParamKey)
	if !ok {
		return
	}

	out, err := h.auctions.CloseAuction(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "close auction")
		return
	}

	message := "Auction closed"
	if !out.Changed {
		message = "Auction was already closed"
	}
	RespondSuccessJSON(w, r, http.StatusOK, message, out)
}

// UploadImages godoc
//
//	@Summary		Upload lot images
//	@Tags			Admin
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			images	formData	file	true	"Lot images"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	map[string]any
//	@Failure		503		{object}	map[string]any
//	@Router			/auctions/upload-images [post]
func (h *AdminHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadImage); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidForm.Error(), "failed to parse multipart form", nil)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrMissingFiles.Error(), "No images uploaded", nil)
		return
	}

	imageNames := make([]string, 0, len(files))
	for _, fileHeader := range files {
		if fileHeader.Size > maxUploadImage {
			msg := fmt.Sprintf("File %s exceeds 10MB limit", fileHeader.Filename)
			RespondErrorJSON(w, r, http.StatusBadRequest, ErrLargeFile.Error(), msg, nil)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			RespondErrorJSON(w, r, http.StatusInternalServerError, ErrFileOpen.Error(), "Failed to process uploaded file", nil)
			return
		}
		fileData, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			RespondErrorJSON(w, r, http.StatusInternalServerError, ErrFileReadError.Error(), "failed to read uploaded file", nil)
			return
		}

		detectedType := http.DetectContentType(fileData)
		if !strings.HasPrefix(detectedType, "image/") {
			msg := fmt.Sprintf("File %s is not a valid image", fileHeader.Filename)
			RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidFile.Error(), msg, nil)
			return
		}

		name, err := h.auctions.UploadImage(r.Context(), fileHeader.Filename, detectedType, fileData)
		if err != nil {
			if errors.Is(err, service.ErrUploadDisabled) {
				respondServiceError(w, r, err, "upload image")
				return
			}
			slog.Error("[Storage] failed to store image -> ", "filename", fileHeader.Filename, "error", err)
			RespondErrorJSON(w, r, http.StatusInternalServerError, ErrUploadFailed.Error(), "failed to store image", nil)
			return
		}
		imageNames = append(imageNames, name)
		slog.Info("Uploaded image", "original_filename", fileHeader.Filename, "stored_as", name)
	}

	resp := map[string]any{
		"image_names": imageNames,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Images uploaded successfully", resp)
}

// DiscardImage godoc
//
//	@Summary		Delete an uploaded image that was never attached to an auction
//	@Tags			Admin
//	@Produce		json
//	@Param			imageKey	path		string	true	"Stored image key"
//	@Success		200			{object}	map[string]any
//	@Failure		400			{object}	map[string]any
//	@Failure		503			{object}	map[string]any
//	@Router			/auctions/images/{imageKey} [delete]
func (h *AdminHandler) DiscardImage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, imageParamKey)
	if key == "" {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrMissingParam.Error(), imageParamKey+" is required", nil)
		return
	}

	if err := h.auctions.DiscardImage(r.Context(), key); err != nil {
		switch {
		case errors.Is(err, service.ErrUploadDisabled), errors.Is(err, service.ErrInvalidAuction):
			respondServiceError(w, r, err, "discard image")
		default:
			slog.Error("[Storage] failed to delete image -> ", "image", key, "error", err)
			RespondErrorJSON(w, r, http.StatusInternalServerError, ErrUploadFailed.Error(), "failed to delete image", nil)
		}
		return
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Image deleted", map[string]any{"image_name": key})
}
