package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/internal/cache"
	"github.com/itsDrac/gemstone-auction/internal/clock"
	"github.com/itsDrac/gemstone-auction/internal/domain"
	"github.com/itsDrac/gemstone-auction/internal/events"
	"github.com/itsDrac/gemstone-auction/internal/repository"
	"github.com/itsDrac/gemstone-auction/internal/service"
	"github.com/itsDrac/gemstone-auction/pkg/config"
	"github.com/itsDrac/gemstone-auction/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu   sync.Mutex
	vals map[string]string
	temp map[string]bool
}

func newMemCache() *memCache {
	return &memCache{vals: map[string]string{}, temp: map[string]bool{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vals[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key, val string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals[key] = val
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.vals, key)
	return nil
}

func (c *memCache) Ping(context.Context) error { return nil }
func (c *memCache) Close() error               { return nil }

func (c *memCache) AddImageNameToTempList(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.temp[name] = true
	return nil
}

func (c *memCache) RemoveImageNameFromTempList(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.temp, name)
	return nil
}

var _ cache.Cacher = (*memCache)(nil)

type fakeStorage struct {
	saved map[string][]byte
}

func (s *fakeStorage) SaveImage(_ context.Context, key, _ string, data []byte) (*minio.UploadInfo, error) {
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[key] = data
	return &minio.UploadInfo{Key: key, Size: int64(len(data))}, nil
}

func (s *fakeStorage) GetFileUrl(_ context.Context, key string) (string, error) {
	if strings.HasPrefix(key, "broken") {
		return "", errors.New("presign failed")
	}
	return "https://cdn.test/" + key + "?sig=1", nil
}

func (s *fakeStorage) DeleteFile(_ context.Context, key string) error {
	delete(s.saved, key)
	return nil
}

type cachedFixture struct {
	clock    *clock.Fake
	cache    *memCache
	storage  *fakeStorage
	services *service.Services
}

func newCachedFixture(t *testing.T) *cachedFixture {
	t.Helper()
	clk := clock.NewFake(t0)
	c := newMemCache()
	st := &fakeStorage{}

	cfg := config.Config{}
	cfg.Redis.CacheTTL = time.Minute

	svcs, err := service.NewServices(service.Deps{
		Store:   repository.NewMemoryStore(clk, 100*time.Millisecond),
		Clock:   clk,
		Events:  events.Discard{},
		Cache:   c,
		Storage: st,
		Log:     logger.Nop(),
	}, cfg)
	require.NoError(t, err)
	return &cachedFixture{clock: clk, cache: c, storage: st, services: svcs}
}

func TestCreateAuction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		a, err := f.services.AuctionService.CreateAuction(ctx, service.CreateAuctionInput{
			Title:       "  Colombian emerald  ",
			StartingBid: money("250"),
			StartTime:   t0,
			EndTime:     t0.Add(24 * time.Hour),
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, a.ID)
		assert.Equal(t, "Colombian emerald", a.Title)
		assert.Equal(t, domain.AuctionPending, a.Status)
		assert.False(t, a.IsActive)
		assert.True(t, a.BidIncrement.Equal(domain.DefaultBidIncrement))
		assert.True(t, a.CurrentBid.IsZero())
		assert.Zero(t, a.BidCount)
		assert.NotNil(t, a.Images)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := f.services.AuctionService.CreateAuction(ctx, service.CreateAuctionInput{
			Title:        "Tanzanite",
			StartingBid:  money("100"),
			ReservePrice: domain.NullMoney(money("50")),
			StartTime:    t0,
			EndTime:      t0.Add(-time.Hour),
		})
		require.ErrorIs(t, err, service.ErrInvalidAuction)
		assert.ErrorIs(t, err, domain.ErrEndBeforeStart)
		assert.ErrorIs(t, err, domain.ErrReserveBelowStarting)
	})

	t.Run("cannot be created active", func(t *testing.T) {
		_, err := f.services.AuctionService.CreateAuction(ctx, service.CreateAuctionInput{
			Title:       "Spinel",
			StartingBid: money("10"),
			StartTime:   t0,
			EndTime:     t0.Add(time.Hour),
			Status:      domain.AuctionActive,
		})
		assert.ErrorIs(t, err, domain.ErrBadInitialStatus)
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("cancel clears the outcome and the winning flag", func(t *testing.T) {
		f := newFixture(t)
		a := f.openAuction(t)
		f.mustBid(t, a.ID, uuid.New(), "100")

		got, err := f.services.AuctionService.UpdateStatus(ctx, a.ID, domain.AuctionCancelled)
		require.NoError(t, err)
		assert.Equal(t, domain.AuctionCancelled, got.Status)
		assert.False(t, got.IsActive)
		assert.Nil(t, got.WinnerID)
		assert.Zero(t, f.winningCount(t, a.ID))
		assert.Contains(t, f.sink.types(), events.AuctionStatusChanged)

		_, err = f.bid(ctx, a.ID, uuid.New(), "200")
		assert.ErrorIs(t, err, service.ErrAuctionNotOpen)
	})

	t.Run("ended voids the winning bid", func(t *testing.T) {
		f := newFixture(t)
		a := f.openAuction(t)
		f.mustBid(t, a.ID, uuid.New(), "100")

		got, err := f.services.AuctionService.UpdateStatus(ctx, a.ID, domain.AuctionEnded)
		require.NoError(t, err)
		assert.Equal(t, domain.AuctionEnded, got.Status)
		assert.Nil(t, got.WinnerID)
		assert.Zero(t, f.winningCount(t, a.ID))

		bids, err := f.services.AuctionService.ListBids(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, bids, 1)
		assert.Equal(t, domain.BidCancelled, bids[0].Status)
	})

	t.Run("sold takes the highest bidder", func(t *testing.T) {
		f := newFixture(t)
		a := f.openAuction(t)
		leader := uuid.New()
		f.mustBid(t, a.ID, uuid.New(), "100")
		f.mustBid(t, a.ID, leader, "140")

		got, err := f.services.AuctionService.UpdateStatus(ctx, a.ID, domain.AuctionSold)
		require.NoError(t, err)
		require.NotNil(t, got.WinnerID)
		assert.Equal(t, leader, *got.WinnerID)
		assert.True(t, got.WinningBid.Decimal.Equal(money("140")))
		assert.Equal(t, t0, *got.WonAt)

		bids, err := f.store.ListBids(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BidWon, bids[0].Status)
		assert.True(t, bids[0].IsWinning)
	})

	t.Run("sold without bids is refused", func(t *testing.T) {
		f := newFixture(t)
		a := f.openAuction(t)
		_, err := f.services.AuctionService.UpdateStatus(ctx, a.ID, domain.AuctionSold)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("sold is final", func(t *testing.T) {
		f := newFixture(t)
		a := f.openAuction(t)
		f.mustBid(t, a.ID, uuid.New(), "100")
		_, err := f.services.AuctionService.UpdateStatus(ctx, a.ID, domain.AuctionSold)
		require.NoError(t, err)

		_, err = f.services.AuctionService.UpdateStatus(ctx, a.ID, domain.AuctionActive)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("no reopening once bids exist", func(t *testing.T) {
		f := newFixture(t)
		a := f.openAuction(t)
		f.mustBid(t, a.ID, uuid.New(), "100")
		_, err := f.services.AuctionService.UpdateStatus(ctx, a.ID, domain.AuctionScheduled)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("activate a pending auction", func(t *testing.T) {
		f := newFixture(t)
		a := f.openAuction(t, func(in *service.CreateAuctionInput) { in.Status = domain.AuctionPending })

		_, err := f.bid(ctx, a.ID, uuid.New(), "100")
		require.ErrorIs(t, err, service.ErrAuctionNotOpen)

		got, err := f.services.AuctionService.UpdateStatus(ctx, a.ID, domain.AuctionActive)
		require.NoError(t, err)
		assert.True(t, got.IsActive)
		f.mustBid(t, a.ID, uuid.New(), "100")
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		f := newFixture(t)
		a := f.openAuction(t)
		got, err := f.services.AuctionService.UpdateStatus(ctx, a.ID, domain.AuctionScheduled)
		require.NoError(t, err)
		assert.Equal(t, a.Version, got.Version)
		assert.Empty(t, f.sink.types())
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture(t)
		a := f.openAuction(t)
		_, err := f.services.AuctionService.UpdateStatus(ctx, a.ID, domain.AuctionStatus("closed"))
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
	})

	t.Run("missing auction", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.services.AuctionService.UpdateStatus(ctx, uuid.New(), domain.AuctionCancelled)
		assert.ErrorIs(t, err, service.ErrAuctionNotFound)
	})
}

func TestListAuctionsAndBids(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []uuid.UUID
	for range 3 {
		ids = append(ids, f.openAuction(t).ID)
	}
	f.mustBid(t, ids[0], uuid.New(), "100")
	f.mustBid(t, ids[0], uuid.New(), "110")

	all, err := f.services.AuctionService.ListAuctions(ctx, service.ListAuctionsInput{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := f.services.AuctionService.ListAuctions(ctx, service.ListAuctionsInput{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	active := domain.AuctionActive
	onlyActive, err := f.services.AuctionService.ListAuctions(ctx, service.ListAuctionsInput{Status: &active})
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, ids[0], onlyActive[0].ID)

	bids, err := f.services.AuctionService.ListBids(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, bids, 2)
	assert.True(t, bids[0].Amount.Equal(money("110")))

	empty, err := f.services.AuctionService.ListBids(ctx, ids[1])
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = f.services.AuctionService.ListBids(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrAuctionNotFound)
}

func TestWatchers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.openAuction(t)
	user := uuid.New()

	require.NoError(t, f.services.AuctionService.Watch(ctx, a.ID, user))
	require.NoError(t, f.services.AuctionService.Watch(ctx, a.ID, user))

	watchers, err := f.store.ListWatchers(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{user}, watchers)

	require.NoError(t, f.services.AuctionService.Unwatch(ctx, a.ID, user))
	assert.ErrorIs(t, f.services.AuctionService.Unwatch(ctx, a.ID, user), service.ErrWatcherNotFound)
	assert.ErrorIs(t, f.services.AuctionService.Watch(ctx, uuid.New(), user), service.ErrAuctionNotFound)
}

func TestGetAuction_CacheIsInvalidatedByBids(t *testing.T) {
	f := newCachedFixture(t)
	ctx := context.Background()

	a, err := f.services.AuctionService.CreateAuction(ctx, service.CreateAuctionInput{
		Title:       "Paraiba tourmaline",
		StartingBid: money("300"),
		StartTime:   t0.Add(-time.Minute),
		EndTime:     t0.Add(time.Hour),
		Status:      domain.AuctionScheduled,
	})
	require.NoError(t, err)

	got, err := f.services.AuctionService.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AuctionActive, got.Status)

	_, ok, _ := f.cache.Get(ctx, cache.AuctionKey(a.ID))
	require.True(t, ok, "projection is cached after a read")

	_, err = f.services.BiddingService.PlaceBid(ctx, service.PlaceBidInput{
		AuctionID: a.ID,
		BidderID:  uuid.New(),
		Amount:    money("300"),
	})
	require.NoError(t, err)

	_, ok, _ = f.cache.Get(ctx, cache.AuctionKey(a.ID))
	assert.False(t, ok, "accepted bid drops the cached projection")

	got, err = f.services.AuctionService.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBid.Equal(money("300")))
	assert.Equal(t, 1, got.BidCount)
}

// racingStore lets a hook commit a write after a projection was read but
// before the caller gets to cache it.
type racingStore struct {
	repository.Store
	mu    sync.Mutex
	after func()
}

func (s *racingStore) arm(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.after = fn
}

func (s *racingStore) GetAuction(ctx context.Context, id uuid.UUID) (domain.Auction, error) {
	s.mu.Lock()
	fn := s.after
	s.after = nil
	s.mu.Unlock()

	a, err := s.Store.GetAuction(ctx, id)
	if fn != nil {
		fn()
	}
	return a, err
}

func TestGetAuction_BidDuringCacheFillIsNotMasked(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(t0)
	c := newMemCache()
	store := &racingStore{Store: repository.NewMemoryStore(clk, 100*time.Millisecond)}

	cfg := config.Config{}
	cfg.Redis.CacheTTL = time.Minute
	svcs, err := service.NewServices(service.Deps{
		Store:  store,
		Clock:  clk,
		Events: events.Discard{},
		Cache:  c,
		Log:    logger.Nop(),
	}, cfg)
	require.NoError(t, err)

	a, err := svcs.AuctionService.CreateAuction(ctx, service.CreateAuctionInput{
		Title:       "Alexandrite, colour change",
		StartingBid: money("300"),
		StartTime:   t0.Add(-time.Minute),
		EndTime:     t0.Add(time.Hour),
		Status:      domain.AuctionScheduled,
	})
	require.NoError(t, err)

	_, err = svcs.AuctionService.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, cache.AuctionKey(a.ID)))

	store.arm(func() {
		_, err := svcs.BiddingService.PlaceBid(ctx, service.PlaceBidInput{
			AuctionID: a.ID,
			BidderID:  uuid.New(),
			Amount:    money("300"),
		})
		require.NoError(t, err)
	})

	stale, err := svcs.AuctionService.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stale.BidCount, "the read itself predates the bid")

	_, ok, _ := c.Get(ctx, cache.AuctionKey(a.ID))
	assert.False(t, ok, "pre-bid copy must not survive in the cache")

	got, err := svcs.AuctionService.GetAuction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.BidCount)
	assert.True(t, got.CurrentBid.Equal(money("300")))
}

func TestUploadImage(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without storage", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.services.AuctionService.UploadImage(ctx, "stone.jpg", "image/jpeg", []byte("x"))
		assert.ErrorIs(t, err, service.ErrUploadDisabled)
	})

	t.Run("stored and tracked until used", func(t *testing.T) {
		f := newCachedFixture(t)
		key, err := f.services.AuctionService.UploadImage(ctx, "Stone.JPG", "image/jpeg", []byte("jpeg"))
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(key, ".jpg"))
		assert.Contains(t, f.storage.saved, key)
		assert.True(t, f.cache.temp[key])

		a, err := f.services.AuctionService.CreateAuction(ctx, service.CreateAuctionInput{
			Title:       "Alexandrite",
			Images:      []string{key, "https://example.com/side.jpg", "broken.png"},
			StartingBid: money("80"),
			StartTime:   t0,
			EndTime:     t0.Add(time.Hour),
		})
		require.NoError(t, err)
		assert.False(t, f.cache.temp[key])

		urls := f.services.AuctionService.ImageURLs(ctx, a)
		assert.Equal(t, []string{
			"https://cdn.test/" + key + "?sig=1",
			"https://example.com/side.jpg",
		}, urls)
	})
}

func TestDiscardImage(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without storage", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.services.AuctionService.DiscardImage(ctx, "a.jpg"), service.ErrUploadDisabled)
	})

	t.Run("removes object and temp entry", func(t *testing.T) {
		f := newCachedFixture(t)
		key, err := f.services.AuctionService.UploadImage(ctx, "opal.png", "image/png", []byte("png"))
		require.NoError(t, err)

		require.NoError(t, f.services.AuctionService.DiscardImage(ctx, key))
		assert.NotContains(t, f.storage.saved, key)
		assert.False(t, f.cache.temp[key])
	})

	t.Run("rejects path keys", func(t *testing.T) {
		f := newCachedFixture(t)
		err := f.services.AuctionService.DiscardImage(ctx, "../other/a.png")
		assert.ErrorIs(t, err, service.ErrInvalidAuction)
	})
}
