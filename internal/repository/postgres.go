package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/internal/clock"
	"github.com/itsDrac/gemstone-auction/internal/database"
	"github.com/itsDrac/gemstone-auction/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Postgres error codes the store translates.
const (
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// PostgresStore serializes writers per auction with a row lock taken by
// SELECT ... FOR UPDATE inside a transaction.
type PostgresStore struct {
	pool        *pgxpool.Pool
	q           *database.Queries
	lockTimeout time.Duration
	clock       clock.Clock
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(pool *pgxpool.Pool, clk clock.Clock, lockTimeout time.Duration) *PostgresStore {
	return &PostgresStore{
		pool:        pool,
		q:           database.New(pool),
		lockTimeout: lockTimeout,
		clock:       clk,
	}
}

func (s *PostgresStore) GetAuction(ctx context.Context, id uuid.UUID) (domain.Auction, error) {
	row, err := s.q.GetAuction(ctx, id)
	if err != nil {
		return domain.Auction{}, classify(err)
	}
	return toDomainAuction(row), nil
}

func (s *PostgresStore) ListAuctions(ctx context.Context, f ListFilter) ([]domain.Auction, error) {
	arg := database.ListAuctionsParams{
		PageLimit:  math.MaxInt32,
		PageOffset: int32(max(f.Offset, 0)),
	}
	if f.Limit > 0 {
		arg.PageLimit = int32(min(f.Limit, math.MaxInt32))
	}
	if f.Status != nil {
		st := string(*f.Status)
		arg.Status = &st
	}

	rows, err := s.q.ListAuctions(ctx, arg)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]domain.Auction, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDomainAuction(r))
	}
	return out, nil
}

func (s *PostgresStore) CreateAuction(ctx context.Context, a domain.Auction) (domain.Auction, error) {
	if a.Images == nil {
		a.Images = []string{}
	}
	a.SetStatus(a.Status)

	row, err := s.q.CreateAuction(ctx, database.CreateAuctionParams{
		Title:                  a.Title,
		Description:            a.Description,
		Images:                 a.Images,
		StartingBid:            a.StartingBid,
		ReservePrice:           a.ReservePrice,
		BuyNowPrice:            a.BuyNowPrice,
		BidIncrement:           a.BidIncrement,
		StartTime:              a.StartTime,
		EndTime:                a.EndTime,
		AutoExtend:             a.AutoExtend,
		ExtendMinutes:          int32(a.ExtendMinutes),
		ExtendThresholdMinutes: int32(a.ExtendThresholdMinutes),
		Status:                 string(a.Status),
		IsActive:               a.IsActive,
		CreatedAt:              s.clock.Now(),
	})
	if err != nil {
		return domain.Auction{}, classify(err)
	}
	return toDomainAuction(row), nil
}

func (s *PostgresStore) ListBids(ctx context.Context, auctionID uuid.UUID) ([]domain.Bid, error) {
	rows, err := s.q.ListBidsForAuction(ctx, auctionID)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]domain.Bid, 0, len(rows))
	for _, r := range rows {
		out = append(out, toDomainBid(r))
	}
	return out, nil
}

func (s *PostgresStore) ListDueAuctions(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	ids, err := s.q.ListDueAuctions(ctx, database.ListDueAuctionsParams{
		Now:   now,
		Limit: int32(min(limit, math.MaxInt32)),
	})
	if err != nil {
		return nil, classify(err)
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}

func (s *PostgresStore) AddWatcher(ctx context.Context, auctionID, userID uuid.UUID) error {
	err := s.q.AddWatcher(ctx, database.AddWatcherParams{AuctionID: auctionID, UserID: userID})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrNotFound
	}
	return classify(err)
}

func (s *PostgresStore) RemoveWatcher(ctx context.Context, auctionID, userID uuid.UUID) error {
	n, err := s.q.RemoveWatcher(ctx, database.RemoveWatcherParams{AuctionID: auctionID, UserID: userID})
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListWatchers(ctx context.Context, auctionID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.q.ListWatchers(ctx, auctionID)
	if err != nil {
		return nil, classify(err)
	}
	return ids, nil
}

func (s *PostgresStore) WithAuctionLock(ctx context.Context, id uuid.UUID, fn func(tx Tx) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return acquireError(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	// lock_timeout bounds the wait on the row lock below; it resets at commit.
	ms := strconv.FormatInt(s.lockTimeout.Milliseconds(), 10) + "ms"
	if _, err = tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)", ms); err != nil {
		return acquireError(err)
	}

	q := s.q.WithTx(tx)
	row, err := q.GetAuctionForUpdate(ctx, id)
	if err != nil {
		return acquireError(err)
	}

	ptx := &pgTx{q: q, auction: toDomainAuction(row), clock: s.clock}
	if err = fn(ptx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return classify(err)
	}
	return nil
}

type pgTx struct {
	q       *database.Queries
	auction domain.Auction
	clock   clock.Clock
}

func (t *pgTx) Auction() domain.Auction {
	return t.auction
}

func (t *pgTx) WinningBid(ctx context.Context) (*domain.Bid, error) {
	row, err := t.q.GetWinningBid(ctx, t.auction.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	b := toDomainBid(row)
	return &b, nil
}

func (t *pgTx) AppendBid(ctx context.Context, b domain.Bid) (domain.Bid, error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	row, err := t.q.InsertBid(ctx, database.InsertBidParams{
		ID:          b.ID,
		AuctionID:   b.AuctionID,
		BidderID:    b.BidderID,
		BidderEmail: b.BidderEmail,
		Amount:      b.Amount,
		MaxBid:      b.MaxBid,
		IsAutoBid:   b.IsAutoBid,
		Status:      string(b.Status),
		IsWinning:   b.IsWinning,
		CreatedAt:   b.CreatedAt,
	})
	if err != nil {
		return domain.Bid{}, classify(err)
	}
	return toDomainBid(row), nil
}

func (t *pgTx) SetBidStatus(ctx context.Context, bidID uuid.UUID, status domain.BidStatus, isWinning bool) error {
	err := t.q.SetBidStatus(ctx, database.SetBidStatusParams{
		ID:        bidID,
		Status:    string(status),
		IsWinning: isWinning,
	})
	return classify(err)
}

func (t *pgTx) SetBidMax(ctx context.Context, bidID uuid.UUID, maxBid decimal.NullDecimal) error {
	n, err := t.q.SetBidMax(ctx, database.SetBidMaxParams{ID: bidID, MaxBid: maxBid})
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) SaveAuction(ctx context.Context, a domain.Auction) (domain.Auction, error) {
	if a.ID != t.auction.ID {
		return domain.Auction{}, ErrStaleState
	}
	now := t.clock.Now()
	n, err := t.q.UpdateAuctionState(ctx, database.UpdateAuctionStateParams{
		ID:              a.ID,
		CurrentBid:      a.CurrentBid,
		BidCount:        int32(a.BidCount),
		HighestBidderID: nullUUID(a.HighestBidderID),
		ExtendedEndTime: a.ExtendedEndTime,
		Status:          string(a.Status),
		IsActive:        a.IsActive,
		WinnerID:        nullUUID(a.WinnerID),
		WinningBid:      a.WinningBid,
		WonAt:           a.WonAt,
		UpdatedAt:       now,
		Version:         a.Version,
	})
	if err != nil {
		return domain.Auction{}, classify(err)
	}
	if n == 0 {
		return domain.Auction{}, ErrStaleState
	}
	a.Version++
	a.UpdatedAt = now
	t.auction = a
	return a, nil
}

// acquireError classifies failures while taking the row lock. Running out of
// time here means the lock was not obtained.
func acquireError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}
	return classify(err)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable:
			return fmt.Errorf("%w: %s", ErrLockTimeout, pgErr.Message)
		case pgSerializationFailure, pgDeadlockDetected, pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrStaleState, pgErr.Message)
		}
	}
	return err
}

func toDomainAuction(r database.Auction) domain.Auction {
	a := domain.Auction{
		ID:                     r.ID,
		Title:                  r.Title,
		Description:            r.Description,
		Images:                 r.Images,
		StartingBid:            r.StartingBid,
		CurrentBid:             r.CurrentBid,
		ReservePrice:           r.ReservePrice,
		BuyNowPrice:            r.BuyNowPrice,
		BidIncrement:           r.BidIncrement,
		BidCount:               int(r.BidCount),
		HighestBidderID:        uuidPtr(r.HighestBidderID),
		StartTime:              r.StartTime.UTC(),
		EndTime:                r.EndTime.UTC(),
		ExtendedEndTime:        utcPtr(r.ExtendedEndTime),
		AutoExtend:             r.AutoExtend,
		ExtendMinutes:          int(r.ExtendMinutes),
		ExtendThresholdMinutes: int(r.ExtendThresholdMinutes),
		Status:                 domain.AuctionStatus(r.Status),
		IsActive:               r.IsActive,
		WinnerID:               uuidPtr(r.WinnerID),
		WinningBid:             r.WinningBid,
		WonAt:                  utcPtr(r.WonAt),
		Version:                r.Version,
		CreatedAt:              r.CreatedAt.UTC(),
		UpdatedAt:              r.UpdatedAt.UTC(),
	}
	if a.Images == nil {
		a.Images = []string{}
	}
	return a
}

func toDomainBid(r database.Bid) domain.Bid {
	return domain.Bid{
		ID:          r.ID,
		AuctionID:   r.AuctionID,
		BidderID:    r.BidderID,
		BidderEmail: r.BidderEmail,
		Amount:      r.Amount,
		MaxBid:      r.MaxBid,
		IsAutoBid:   r.IsAutoBid,
		Status:      domain.BidStatus(r.Status),
		IsWinning:   r.IsWinning,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
