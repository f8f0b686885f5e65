package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/internal/clock"
	"github.com/itsDrac/gemstone-auction/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*MemoryStore, domain.Auction) {
	t.Helper()
	s := NewMemoryStore(clock.NewFake(t0), 50*time.Millisecond)
	a, err := s.CreateAuction(context.Background(), domain.Auction{
		Title:        "Kashmir sapphire, 3.1ct",
		StartingBid:  decimal.RequireFromString("100"),
		BidIncrement: decimal.RequireFromString("5"),
		StartTime:    t0.Add(-time.Hour),
		EndTime:      t0.Add(time.Hour),
		Status:       domain.AuctionScheduled,
	})
	require.NoError(t, err)
	return s, a
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s, a := newTestStore(t)

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.True(t, a.CurrentBid.IsZero())
	assert.Equal(t, int64(0), a.Version)
	assert.Equal(t, []string{}, a.Images)

	got, err := s.GetAuction(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Title, got.Title)

	_, err = s.GetAuction(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_WithAuctionLock_CommitsOnSuccess(t *testing.T) {
	s, a := newTestStore(t)
	ctx := context.Background()
	bidder := uuid.New()

	err := s.WithAuctionLock(ctx, a.ID, func(tx Tx) error {
		cur := tx.Auction()
		_, err := tx.AppendBid(ctx, domain.Bid{
			AuctionID: cur.ID,
			BidderID:  bidder,
			Amount:    decimal.RequireFromString("100"),
			Status:    domain.BidWinning,
			IsWinning: true,
			CreatedAt: t0,
		})
		if err != nil {
			return err
		}
		cur.RecordBid(bidder, decimal.RequireFromString("100"))
		_, err = tx.SaveAuction(ctx, cur)
		return err
	})
	require.NoError(t, err)

	got, err := s.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBid.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, 1, got.BidCount)
	assert.Equal(t, int64(1), got.Version)

	bids, err := s.ListBids(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.True(t, bids[0].IsWinning)
}

func TestMemoryStore_WithAuctionLock_DiscardsOnError(t *testing.T) {
	s, a := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithAuctionLock(ctx, a.ID, func(tx Tx) error {
		cur := tx.Auction()
		_, err := tx.AppendBid(ctx, domain.Bid{
			AuctionID: cur.ID,
			BidderID:  uuid.New(),
			Amount:    decimal.RequireFromString("100"),
			Status:    domain.BidWinning,
			IsWinning: true,
			CreatedAt: t0,
		})
		require.NoError(t, err)
		cur.RecordBid(uuid.New(), decimal.RequireFromString("100"))
		_, err = tx.SaveAuction(ctx, cur)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBid.IsZero())
	assert.Equal(t, int64(0), got.Version)

	bids, err := s.ListBids(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, bids)
}

func TestMemoryStore_SaveAuction_RejectsStaleVersion(t *testing.T) {
	s, a := newTestStore(t)
	ctx := context.Background()

	err := s.WithAuctionLock(ctx, a.ID, func(tx Tx) error {
		stale := tx.Auction()
		stale.Version = 7
		_, err := tx.SaveAuction(ctx, stale)
		return err
	})
	assert.ErrorIs(t, err, ErrStaleState)
}

func TestMemoryStore_AppendBid_SingleWinning(t *testing.T) {
	s, a := newTestStore(t)
	ctx := context.Background()

	err := s.WithAuctionLock(ctx, a.ID, func(tx Tx) error {
		for range 2 {
			if _, err := tx.AppendBid(ctx, domain.Bid{
				AuctionID: a.ID,
				BidderID:  uuid.New(),
				Amount:    decimal.RequireFromString("100"),
				Status:    domain.BidWinning,
				IsWinning: true,
				CreatedAt: t0,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	assert.ErrorIs(t, err, ErrStaleState)
}

func TestMemoryStore_WithAuctionLock_TimesOut(t *testing.T) {
	s, a := newTestStore(t)
	ctx := context.Background()

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = s.WithAuctionLock(ctx, a.ID, func(tx Tx) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	err := s.WithAuctionLock(ctx, a.ID, func(tx Tx) error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockTimeout)
	close(done)

	// another auction is not blocked by the first one's holder
	other, err := s.CreateAuction(ctx, domain.Auction{
		Title:        "Burmese ruby",
		StartingBid:  decimal.RequireFromString("10"),
		BidIncrement: decimal.RequireFromString("1"),
		StartTime:    t0,
		EndTime:      t0.Add(time.Hour),
		Status:       domain.AuctionPending,
	})
	require.NoError(t, err)
	assert.NoError(t, s.WithAuctionLock(ctx, other.ID, func(tx Tx) error { return nil }))
}

func TestMemoryStore_WithAuctionLock_ContextDeadline(t *testing.T) {
	s, a := newTestStore(t)
	s.lockTimeout = time.Hour

	held := make(chan struct{})
	done := make(chan struct{})
	defer close(done)
	go func() {
		_ = s.WithAuctionLock(context.Background(), a.ID, func(tx Tx) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.WithAuctionLock(ctx, a.ID, func(tx Tx) error { return nil })
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestMemoryStore_WithAuctionLock_Serializes(t *testing.T) {
	s, a := newTestStore(t)
	s.lockTimeout = 5 * time.Second
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithAuctionLock(ctx, a.ID, func(tx Tx) error {
				cur := tx.Auction()
				cur.BidCount++
				_, err := tx.SaveAuction(ctx, cur)
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, got.BidCount)
	assert.Equal(t, int64(workers), got.Version)
}

func TestMemoryStore_LockSlotsAreReleased(t *testing.T) {
	s, a := newTestStore(t)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, s.WithAuctionLock(ctx, a.ID, func(tx Tx) error { return nil }))
	}
	assert.Zero(t, s.locks.size(), "idle auction keeps no slot")

	held := make(chan struct{})
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_ = s.WithAuctionLock(ctx, a.ID, func(tx Tx) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	err := s.WithAuctionLock(ctx, a.ID, func(tx Tx) error { return nil })
	require.ErrorIs(t, err, ErrLockTimeout)
	assert.Equal(t, 1, s.locks.size(), "holder still owns its slot after a waiter gives up")

	close(done)
	<-finished
	assert.Zero(t, s.locks.size())

	for range 50 {
		_ = s.WithAuctionLock(ctx, uuid.New(), func(tx Tx) error { return nil })
	}
	assert.Zero(t, s.locks.size(), "unknown ids leave nothing behind")
}

func TestMemoryStore_ListBids_Order(t *testing.T) {
	s, a := newTestStore(t)
	ctx := context.Background()

	amounts := []struct {
		amount string
		at     time.Duration
	}{
		{"100", 0},
		{"120", time.Second},
		{"110", 2 * time.Second},
		{"120", 3 * time.Second},
	}
	err := s.WithAuctionLock(ctx, a.ID, func(tx Tx) error {
		for _, b := range amounts {
			if _, err := tx.AppendBid(ctx, domain.Bid{
				AuctionID: a.ID,
				BidderID:  uuid.New(),
				Amount:    decimal.RequireFromString(b.amount),
				Status:    domain.BidOutbid,
				CreatedAt: t0.Add(b.at),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	bids, err := s.ListBids(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, bids, 4)
	assert.Equal(t, "120", bids[0].Amount.String())
	assert.Equal(t, t0.Add(time.Second), bids[0].CreatedAt)
	assert.Equal(t, "120", bids[1].Amount.String())
	assert.Equal(t, "110", bids[2].Amount.String())
	assert.Equal(t, "100", bids[3].Amount.String())
}

func TestMemoryStore_ListDueAuctions(t *testing.T) {
	s, scheduled := newTestStore(t)
	ctx := context.Background()

	future, err := s.CreateAuction(ctx, domain.Auction{
		Title:        "Colombian emerald",
		StartingBid:  decimal.RequireFromString("10"),
		BidIncrement: decimal.RequireFromString("1"),
		StartTime:    t0.Add(time.Hour),
		EndTime:      t0.Add(2 * time.Hour),
		Status:       domain.AuctionScheduled,
	})
	require.NoError(t, err)

	ids, err := s.ListDueAuctions(ctx, t0, 10)
	require.NoError(t, err)
	assert.Contains(t, ids, scheduled.ID)
	assert.NotContains(t, ids, future.ID)
}

func TestMemoryStore_Watchers(t *testing.T) {
	s, a := newTestStore(t)
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, s.AddWatcher(ctx, a.ID, user))
	require.NoError(t, s.AddWatcher(ctx, a.ID, user))

	ids, err := s.ListWatchers(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{user}, ids)

	require.NoError(t, s.RemoveWatcher(ctx, a.ID, user))
	assert.ErrorIs(t, s.RemoveWatcher(ctx, a.ID, user), ErrNotFound)
	assert.ErrorIs(t, s.AddWatcher(ctx, uuid.New(), user), ErrNotFound)
}
