package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/internal/model"
	"github.com/itsDrac/gemstone-auction/internal/service"
	"github.com/itsDrac/gemstone-auction/pkg/config"
	valid "github.com/itsDrac/gemstone-auction/pkg/validator"
)

const (
	auctionParamKey = "auctionId"
	userParamKey    = "userId"
	imageParamKey   = "imageKey"

	// retryAfterSeconds is sent with BID_TIMEOUT responses.
	retryAfterSeconds = 1
)

var (
	requestIDKey = "X-Request-ID"
	validate     = valid.GetValidator()
)

func writeJson(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to write json response", "status", status, "error", err)
	}
}

func GetUserClaims(ctx context.Context) *config.UserClaims {
	claims, ok := ctx.Value(config.UserClaimKey).(*config.UserClaims)
	if !ok {
		return nil
	}
	return claims
}

// requestID returns the caller's request id, or a fresh one, and echoes it back.
func requestID(w http.ResponseWriter, r *http.Request) string {
	reqID := r.Header.Get(requestIDKey)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	w.Header().Set(requestIDKey, reqID)
	return reqID
}

func RespondSuccessJSON[T any](w http.ResponseWriter, r *http.Request, status int, message string, data T) {
	payload := model.APIResponse[T]{
		Status:  "success",
		Message: message,
		Metadata: model.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: requestID(w, r),
		},
		Data:  data,
		Error: nil,
	}
	writeJson(w, status, payload)
}

func RespondErrorJSON(w http.ResponseWriter, r *http.Request, status int, code string, message string, details []model.ErrorDetails) {
	respondError(w, r, status, code, message, details, nil)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details []model.ErrorDetails, data any) {
	payload := model.APIResponse[any]{
		Status: "error",
		Metadata: model.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: requestID(w, r),
		},
		Error: &model.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Data: data,
	}
	writeJson(w, status, payload)
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags. It
// writes the error response itself and reports whether the handler may go on.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidJson.Error(), "Invalid JSON format", nil)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var details []model.ErrorDetails
		var validErrs validator.ValidationErrors
		if errors.As(err, &validErrs) {
			for _, vErr := range validErrs {
				details = append(details, model.ErrorDetails{
					Field: vErr.Field(),
					Issue: fmt.Sprintf("failed on tag '%s' with param '%s'", vErr.Tag(), vErr.Param()),
				})
			}
		}
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidRequest.Error(), "Input validation failed", details)
		return false
	}
	return true
}

func uuidParam(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, key)
	if raw == "" {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrMissingParam.Error(), key+" is required", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidParam.Error(), key+" must be a UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// respondServiceError maps the service error taxonomy onto HTTP responses.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var rej *service.RejectionError
	switch {
	case errors.As(err, &rej):
		code := ErrAuctionNotOpen
		if rej.Reason == service.ReasonBidTooLow {
			code = ErrBidLow
		}
		respondError(w, r, http.StatusConflict, code.Error(), rej.Error(), nil, model.Rejection{
			Reason:         string(rej.Reason),
			NextMinimumBid: rej.NextMinimumBid,
			Status:         rej.Status,
		})
	case errors.Is(err, service.ErrAuctionNotFound):
		RespondErrorJSON(w, r, http.StatusNotFound, ErrAuctionNotFound.Error(), "Auction not found", nil)
	case errors.Is(err, service.ErrTimeout):
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		RespondErrorJSON(w, r, http.StatusServiceUnavailable, ErrBidTimeout.Error(), "The auction is busy, retry shortly", nil)
	case errors.Is(err, service.ErrStaleState):
		RespondErrorJSON(w, r, http.StatusConflict, ErrStaleState.Error(), "The auction changed, re-read and retry", nil)
	case errors.Is(err, service.ErrInvalidBid):
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidBid.Error(), err.Error(), nil)
	case errors.Is(err, service.ErrInvalidAuction):
		RespondErrorJSON(w, r, http.StatusBadRequest, ErrInvalidAuction.Error(), err.Error(), nil)
	case errors.Is(err, service.ErrInvalidTransition):
		RespondErrorJSON(w, r, http.StatusConflict, ErrInvalidTransition.Error(), err.Error(), nil)
	case errors.Is(err, service.ErrAuctionNotEnded):
		RespondErrorJSON(w, r, http.StatusConflict, ErrAuctionNotEnded.Error(), "Auction has not reached its end time", nil)
	case errors.Is(err, service.ErrWatcherNotFound):
		RespondErrorJSON(w, r, http.StatusNotFound, ErrWatcherNotFound.Error(), "Watcher not found", nil)
	case errors.Is(err, service.ErrUploadDisabled):
		RespondErrorJSON(w, r, http.StatusServiceUnavailable, ErrUploadDisabled.Error(), "Image upload is not configured", nil)
	default:
		slog.Error("[DB] "+op+" failed -> ", "path", r.URL.Path, "error", err)
		RespondErrorJSON(w, r, http.StatusInternalServerError, ErrInternalServer.Error(), "Internal server error", nil)
	}
}
