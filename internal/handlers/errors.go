package handlers

import "errors"

var (
	// common error code
	ErrInternalServer = errors.New("INTERNAL_SERVER_ERROR")
	ErrInvalidRequest = errors.New("VALIDATION_FAILED")
	ErrInvalidJson    = errors.New("INVALID_JSON_FORMAT")
	ErrMissingParam   = errors.New("MISSING_PARAM")
	ErrInvalidParam   = errors.New("INVALID_PARAM")
	ErrDb             = errors.New("DB_ERROR")

	// auth error code
	ErrAuthFailed   = errors.New("AUTH_FAILED")
	ErrMissingToken = errors.New("MISSING_TOKEN")
	ErrToken        = errors.New("TOKEN_ERROR")
	ErrForbidden    = errors.New("FORBIDDEN")

	// auction error code
	ErrAuctionNotFound   = errors.New("AUCTION_NOT_FOUND")
	ErrAuctionNotEnded   = errors.New("AUCTION_NOT_ENDED")
	ErrInvalidTransition = errors.New("INVALID_TRANSITION")
	ErrInvalidAuction    = errors.New("INVALID_AUCTION")
	ErrWatcherNotFound   = errors.New("WATCHER_NOT_FOUND")

	// bid error code
	ErrBidLow          = errors.New("BID_TOO_LOW")
	ErrAuctionNotOpen  = errors.New("AUCTION_NOT_OPEN")
	ErrBidTimeout      = errors.New("BID_TIMEOUT")
	ErrStaleState      = errors.New("STALE_STATE")
	ErrInvalidBid      = errors.New("INVALID_BID")
	ErrBidCreateFailed = errors.New("BID_CREATION_FAILED")

	// file error code
	ErrInvalidForm    = errors.New("INVALID_FORM")
	ErrMissingFiles   = errors.New("MISSING_FILES")
	ErrLargeFile      = errors.New("FILE_TO_LARGE")
	ErrFileOpen       = errors.New("FILE_OPEN_ERROR")
	ErrFileReadError  = errors.New("FILE_READ_ERROR")
	ErrInvalidFile    = errors.New("INVALID_FILE_TYPE")
	ErrUploadFailed   = errors.New("UPLOAD_FAILED")
	ErrUploadDisabled = errors.New("UPLOAD_DISABLED")

	// live feed error code
	ErrLiveUnavailable = errors.New("LIVE_FEED_UNAVAILABLE")
)
