package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/internal/cache"
	"github.com/itsDrac/gemstone-auction/internal/clock"
	"github.com/itsDrac/gemstone-auction/internal/domain"
	"github.com/itsDrac/gemstone-auction/internal/events"
	"github.com/itsDrac/gemstone-auction/internal/repository"
	"github.com/itsDrac/gemstone-auction/internal/storage"
	"github.com/itsDrac/gemstone-auction/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type AuctionServicer interface {
	GetAuction(ctx context.Context, id uuid.UUID) (domain.Auction, error)
	ListAuctions(ctx context.Context, in ListAuctionsInput) ([]domain.Auction, error)
	ListBids(ctx context.Context, id uuid.UUID) ([]domain.Bid, error)
	CreateAuction(ctx context.Context, in CreateAuctionInput) (domain.Auction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AuctionStatus) (domain.Auction, error)
	CloseAuction(ctx context.Context, id uuid.UUID) (*CloseOutcome, error)
	Watch(ctx context.Context, auctionID, userID uuid.UUID) error
	Unwatch(ctx context.Context, auctionID, userID uuid.UUID) error
	UploadImage(ctx context.Context, filename, contentType string, data []byte) (string, error)
	DiscardImage(ctx context.Context, key string) error
	ImageURLs(ctx context.Context, a domain.Auction) []string
}

type ListAuctionsInput struct {
	Status *domain.AuctionStatus
	Limit  int
	Offset int
}

type CreateAuctionInput struct {
	Title                  string
	Description            *string
	Images                 []string
	StartingBid            decimal.Decimal
	ReservePrice           decimal.NullDecimal
	BuyNowPrice            decimal.NullDecimal
	BidIncrement           decimal.NullDecimal
	StartTime              time.Time
	EndTime                time.Time
	AutoExtend             bool
	ExtendMinutes          int
	ExtendThresholdMinutes int
	Status                 domain.AuctionStatus
}

type AuctionService struct {
	store    repository.Store
	closer   *Closer
	clock    clock.Clock
	events   events.Sink
	cache    cache.Cacher
	storage  storage.Storager
	cacheTTL time.Duration
	log      *logger.Logger
}

func NewAuctionService(store repository.Store, closer *Closer, clk clock.Clock, sink events.Sink, c cache.Cacher, st storage.Storager, cacheTTL time.Duration, log *logger.Logger) (*AuctionService, error) {
	if store == nil || closer == nil {
		return nil, errors.New("auction service: store and closer are required")
	}
	return &AuctionService{
		store:    store,
		closer:   closer,
		clock:    clk,
		events:   sink,
		cache:    c,
		storage:  st,
		cacheTTL: cacheTTL,
		log:      log.Named("auctions"),
	}, nil
}

// GetAuction returns the current projection. An auction whose start or end
// has passed is settled before it is returned.
func (s *AuctionService) GetAuction(ctx context.Context, id uuid.UUID) (domain.Auction, error) {
	a, cached, err := s.cachedAuction(ctx, id)
	if err != nil {
		return domain.Auction{}, err
	}

	if NeedsSettle(a, s.clock.Now()) {
		if _, err := s.closer.Settle(ctx, id); err != nil {
			return domain.Auction{}, err
		}
		a, err = s.store.GetAuction(ctx, id)
		if err != nil {
			return domain.Auction{}, storeError(err)
		}
		cached = false
	}

	if !cached {
		s.remember(ctx, a)
	}
	return a, nil
}

func (s *AuctionService) cachedAuction(ctx context.Context, id uuid.UUID) (domain.Auction, bool, error) {
	if raw, ok, err := s.cache.Get(ctx, cache.AuctionKey(id)); err != nil {
		s.log.Warnw("cache read failed", "auction_id", id, "error", err)
	} else if ok {
		var a domain.Auction
		if err := json.Unmarshal([]byte(raw), &a); err == nil {
			return a, true, nil
		}
	}

	a, err := s.store.GetAuction(ctx, id)
	if err != nil {
		return domain.Auction{}, false, storeError(err)
	}
	return a, false, nil
}

func (s *AuctionService) remember(ctx context.Context, a domain.Auction) {
	if s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.AuctionKey(a.ID), string(raw), s.cacheTTL); err != nil {
		s.log.Warnw("cache write failed", "auction_id", a.ID, "error", err)
		return
	}
	// A writer that committed between our read and the Set has already
	// deleted the key, so the copy we just wrote may be older than the row.
	if cur, err := s.store.GetAuction(ctx, a.ID); err != nil || cur.Version != a.Version {
		s.invalidate(ctx, a.ID)
	}
}

func (s *AuctionService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.AuctionKey(id)); err != nil {
		s.log.Warnw("cache invalidation failed", "auction_id", id, "error", err)
	}
}

func (s *AuctionService) ListAuctions(ctx context.Context, in ListAuctionsInput) ([]domain.Auction, error) {
	if in.Limit <= 0 {
		in.Limit = DefaultPageSize
	}
	in.Limit = min(in.Limit, MaxPageSize)
	in.Offset = max(in.Offset, 0)

	list, err := s.store.ListAuctions(ctx, repository.ListFilter{
		Status: in.Status,
		Limit:  in.Limit,
		Offset: in.Offset,
	})
	if err != nil {
		return nil, storeError(err)
	}
	return list, nil
}

// ListBids returns the bid history, highest amount first.
func (s *AuctionService) ListBids(ctx context.Context, id uuid.UUID) ([]domain.Bid, error) {
	if _, err := s.store.GetAuction(ctx, id); err != nil {
		return nil, storeError(err)
	}
	bids, err := s.store.ListBids(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return bids, nil
}

func (s *AuctionService) CreateAuction(ctx context.Context, in CreateAuctionInput) (domain.Auction, error) {
	a := domain.Auction{
		Title:                  strings.TrimSpace(in.Title),
		Description:            in.Description,
		Images:                 in.Images,
		StartingBid:            in.StartingBid,
		CurrentBid:             decimal.Zero,
		ReservePrice:           in.ReservePrice,
		BuyNowPrice:            in.BuyNowPrice,
		BidIncrement:           domain.DefaultBidIncrement,
		StartTime:              in.StartTime.UTC(),
		EndTime:                in.EndTime.UTC(),
		AutoExtend:             in.AutoExtend,
		ExtendMinutes:          in.ExtendMinutes,
		ExtendThresholdMinutes: in.ExtendThresholdMinutes,
		Status:                 in.Status,
	}
	if in.BidIncrement.Valid {
		a.BidIncrement = in.BidIncrement.Decimal
	}
	if a.Status == "" {
		a.Status = domain.AuctionPending
	}
	if a.Images == nil {
		a.Images = []string{}
	}
	if err := a.Validate(); err != nil {
		return domain.Auction{}, fmt.Errorf("%w: %w", ErrInvalidAuction, err)
	}

	created, err := s.store.CreateAuction(ctx, a)
	if err != nil {
		return domain.Auction{}, storeError(err)
	}

	for _, img := range created.Images {
		if err := s.cache.RemoveImageNameFromTempList(ctx, img); err != nil {
			s.log.Warnw("temp image list cleanup failed", "image", img, "error", err)
		}
	}
	s.log.Infow("auction created", "auction_id", created.ID, "status", created.Status)
	return created, nil
}

// UpdateStatus is the operator override. It skips the close-out rule but
// keeps winner fields tied to sold.
func (s *AuctionService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AuctionStatus) (domain.Auction, error) {
	if !status.Valid() {
		return domain.Auction{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}

	var (
		out     domain.Auction
		changed bool
		evs     []events.Event
	)
	err := s.store.WithAuctionLock(ctx, id, func(tx repository.Tx) error {
		changed, evs = false, nil
		a := tx.Auction()
		if a.Status == status {
			out = a
			return nil
		}
		if a.Status == domain.AuctionSold {
			return fmt.Errorf("%w: a sold auction is final", ErrInvalidTransition)
		}

		now := s.clock.Now()
		top, err := tx.WinningBid(ctx)
		if err != nil {
			return err
		}

		switch status {
		case domain.AuctionSold:
			if a.HighestBidderID == nil || !a.HasBids() {
				return fmt.Errorf("%w: sold requires a highest bidder", ErrInvalidTransition)
			}
			a.MarkSold(*a.HighestBidderID, a.CurrentBid, now)
			if top != nil {
				if err := tx.SetBidStatus(ctx, top.ID, domain.BidWon, true); err != nil {
					return err
				}
			}
		case domain.AuctionCancelled, domain.AuctionNoSale, domain.AuctionEnded:
			// no terminal status other than sold keeps a winning bid
			a.SetStatus(status)
			a.ClearOutcome()
			if top != nil {
				if err := tx.SetBidStatus(ctx, top.ID, domain.BidCancelled, false); err != nil {
					return err
				}
			}
		case domain.AuctionPending, domain.AuctionScheduled, domain.AuctionActive:
			if a.HasBids() && (a.Status.Terminal() || status != domain.AuctionActive) {
				return fmt.Errorf("%w: cannot reopen an auction that has bids", ErrInvalidTransition)
			}
			a.SetStatus(status)
			a.ClearOutcome()
		}

		saved, err := tx.SaveAuction(ctx, a)
		if err != nil {
			return err
		}
		out, changed = saved, true
		evs = append(evs, events.New(events.AuctionStatusChanged, saved, now))
		if saved.Status == domain.AuctionSold {
			evs = append(evs, events.New(events.AuctionSold, saved, now).WithBid(*saved.WinnerID, saved.WinningBid.Decimal))
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return domain.Auction{}, err
		}
		return domain.Auction{}, storeError(err)
	}

	if changed {
		s.invalidate(ctx, id)
		s.events.Enqueue(evs...)
		s.log.Infow("auction status overridden", "auction_id", id, "status", out.Status)
	}
	return out, nil
}

func (s *AuctionService) CloseAuction(ctx context.Context, id uuid.UUID) (*CloseOutcome, error) {
	return s.closer.CloseAuction(ctx, id)
}

func (s *AuctionService) Watch(ctx context.Context, auctionID, userID uuid.UUID) error {
	return storeError(s.store.AddWatcher(ctx, auctionID, userID))
}

func (s *AuctionService) Unwatch(ctx context.Context, auctionID, userID uuid.UUID) error {
	err := s.store.RemoveWatcher(ctx, auctionID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrWatcherNotFound
	}
	return storeError(err)
}

// UploadImage stores a lot photo and returns its object key. The key stays on
// the temp list until an auction references it.
func (s *AuctionService) UploadImage(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if s.storage == nil {
		return "", ErrUploadDisabled
	}
	key := uuid.NewString() + strings.ToLower(path.Ext(filename))
	info, err := s.storage.SaveImage(ctx, key, contentType, data)
	if err != nil {
		return "", err
	}
	if err := s.cache.AddImageNameToTempList(ctx, info.Key); err != nil {
		s.log.Warnw("temp image list update failed", "image", info.Key, "error", err)
	}
	return info.Key, nil
}

// DiscardImage deletes an uploaded image that was never attached to an
// auction.
func (s *AuctionService) DiscardImage(ctx context.Context, key string) error {
	if s.storage == nil {
		return ErrUploadDisabled
	}
	if key == "" || strings.ContainsAny(key, "/\\") {
		return fmt.Errorf("%w: bad image key %q", ErrInvalidAuction, key)
	}
	if err := s.storage.DeleteFile(ctx, key); err != nil {
		return err
	}
	if err := s.cache.RemoveImageNameFromTempList(ctx, key); err != nil {
		s.log.Warnw("temp image list update failed", "image", key, "error", err)
	}
	return nil
}

// ImageURLs resolves stored object keys to presigned URLs. Absolute URLs are
// passed through.
func (s *AuctionService) ImageURLs(ctx context.Context, a domain.Auction) []string {
	urls := make([]string, 0, len(a.Images))
	for _, img := range a.Images {
		if s.storage == nil || strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
			urls = append(urls, img)
			continue
		}
		u, err := s.storage.GetFileUrl(ctx, img)
		if err != nil {
			s.log.Warnw("presign failed", "image", img, "error", err)
			continue
		}
		urls = append(urls, u)
	}
	return urls
}
