package repository

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/internal/clock"
	"github.com/itsDrac/gemstone-auction/internal/domain"
	"github.com/shopspring/decimal"
)

// MemoryStore keeps auctions in process. It backs development runs without a
// database and the service tests.
type MemoryStore struct {
	mu       sync.RWMutex
	auctions map[uuid.UUID]domain.Auction
	bids     map[uuid.UUID][]domain.Bid
	watchers map[uuid.UUID][]uuid.UUID

	locks       *keyedLock
	lockTimeout time.Duration
	clock       clock.Clock
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(clk clock.Clock, lockTimeout time.Duration) *MemoryStore {
	return &MemoryStore{
		auctions:    make(map[uuid.UUID]domain.Auction),
		bids:        make(map[uuid.UUID][]domain.Bid),
		watchers:    make(map[uuid.UUID][]uuid.UUID),
		locks:       newKeyedLock(),
		lockTimeout: lockTimeout,
		clock:       clk,
	}
}

func (s *MemoryStore) GetAuction(ctx context.Context, id uuid.UUID) (domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[id]
	if !ok {
		return domain.Auction{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) ListAuctions(ctx context.Context, f ListFilter) ([]domain.Auction, error) {
	s.mu.RLock()
	out := make([]domain.Auction, 0, len(s.auctions))
	for _, a := range s.auctions {
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		out = append(out, a)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Auction) int {
		if c := a.EffectiveEndTime().Compare(b.EffectiveEndTime()); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})

	if f.Offset >= len(out) {
		return []domain.Auction{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemoryStore) CreateAuction(ctx context.Context, a domain.Auction) (domain.Auction, error) {
	now := s.clock.Now()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Images == nil {
		a.Images = []string{}
	}
	a.CurrentBid = decimal.Zero
	a.BidCount = 0
	a.HighestBidderID = nil
	a.ExtendedEndTime = nil
	a.ClearOutcome()
	a.SetStatus(a.Status)
	a.Version = 0
	a.CreatedAt = now
	a.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.auctions[a.ID]; exists {
		return domain.Auction{}, ErrStaleState
	}
	s.auctions[a.ID] = a
	return a, nil
}

func (s *MemoryStore) ListBids(ctx context.Context, auctionID uuid.UUID) ([]domain.Bid, error) {
	s.mu.RLock()
	bids := slices.Clone(s.bids[auctionID])
	s.mu.RUnlock()

	slices.SortFunc(bids, domain.CompareBidHistory)
	if bids == nil {
		bids = []domain.Bid{}
	}
	return bids, nil
}

func (s *MemoryStore) ListDueAuctions(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	s.mu.RLock()
	due := make([]domain.Auction, 0)
	for _, a := range s.auctions {
		switch {
		case a.Status == domain.AuctionActive && a.EndedAt(now):
			due = append(due, a)
		case a.Status == domain.AuctionScheduled && !now.Before(a.StartTime):
			due = append(due, a)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(due, func(a, b domain.Auction) int {
		return a.EffectiveEndTime().Compare(b.EffectiveEndTime())
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	ids := make([]uuid.UUID, 0, len(due))
	for _, a := range due {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (s *MemoryStore) AddWatcher(ctx context.Context, auctionID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[auctionID]; !ok {
		return ErrNotFound
	}
	if slices.Contains(s.watchers[auctionID], userID) {
		return nil
	}
	s.watchers[auctionID] = append(s.watchers[auctionID], userID)
	return nil
}

func (s *MemoryStore) RemoveWatcher(ctx context.Context, auctionID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.Index(s.watchers[auctionID], userID)
	if idx < 0 {
		return ErrNotFound
	}
	s.watchers[auctionID] = slices.Delete(s.watchers[auctionID], idx, idx+1)
	return nil
}

func (s *MemoryStore) ListWatchers(ctx context.Context, auctionID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.watchers[auctionID]), nil
}

func (s *MemoryStore) WithAuctionLock(ctx context.Context, id uuid.UUID, fn func(tx Tx) error) error {
	if _, err := s.GetAuction(ctx, id); err != nil {
		return err
	}

	release, err := s.locks.acquire(ctx, id, s.lockTimeout)
	if err != nil {
		return err
	}
	defer release()

	s.mu.RLock()
	a := s.auctions[id]
	bids := slices.Clone(s.bids[id])
	s.mu.RUnlock()

	tx := &memTx{auction: a, bids: bids, clock: s.clock}
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}

	s.mu.Lock()
	s.auctions[id] = tx.auction
	s.bids[id] = tx.bids
	s.mu.Unlock()
	return nil
}

// memTx stages writes on copies; WithAuctionLock swaps them in on success.
type memTx struct {
	auction domain.Auction
	bids    []domain.Bid
	dirty   bool
	clock   clock.Clock
}

func (t *memTx) Auction() domain.Auction {
	return t.auction
}

func (t *memTx) WinningBid(ctx context.Context) (*domain.Bid, error) {
	for i := range t.bids {
		if t.bids[i].IsWinning {
			b := t.bids[i]
			return &b, nil
		}
	}
	return nil, nil
}

func (t *memTx) AppendBid(ctx context.Context, b domain.Bid) (domain.Bid, error) {
	if b.AuctionID != t.auction.ID {
		return domain.Bid{}, errors.New("repository: bid belongs to another auction")
	}
	if b.IsWinning {
		if w, _ := t.WinningBid(ctx); w != nil {
			return domain.Bid{}, ErrStaleState
		}
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	t.bids = append(t.bids, b)
	t.dirty = true
	return b, nil
}

func (t *memTx) SetBidStatus(ctx context.Context, bidID uuid.UUID, status domain.BidStatus, isWinning bool) error {
	for i := range t.bids {
		if t.bids[i].ID == bidID {
			t.bids[i].Status = status
			t.bids[i].IsWinning = isWinning
			t.dirty = true
			return nil
		}
	}
	return ErrNotFound
}

func (t *memTx) SetBidMax(ctx context.Context, bidID uuid.UUID, maxBid decimal.NullDecimal) error {
	for i := range t.bids {
		if t.bids[i].ID == bidID {
			t.bids[i].MaxBid = maxBid
			t.dirty = true
			return nil
		}
	}
	return ErrNotFound
}

func (t *memTx) SaveAuction(ctx context.Context, a domain.Auction) (domain.Auction, error) {
	if a.ID != t.auction.ID || a.Version != t.auction.Version {
		return domain.Auction{}, ErrStaleState
	}
	a.Version++
	a.UpdatedAt = t.clock.Now()
	t.auction = a
	t.dirty = true
	return a, nil
}

// keyedLock is a set of per-auction mutexes that can be abandoned on timeout
// or context cancellation. A slot lives only while someone holds or waits on
// it.
type keyedLock struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{slots: make(map[uuid.UUID]*lockSlot)}
}

func (k *keyedLock) ref(id uuid.UUID) *lockSlot {
	k.mu.Lock()
	defer k.mu.Unlock()

	sl, ok := k.slots[id]
	if !ok {
		sl = &lockSlot{ch: make(chan struct{}, 1)}
		k.slots[id] = sl
	}
	sl.refs++
	return sl
}

func (k *keyedLock) unref(id uuid.UUID, sl *lockSlot) {
	k.mu.Lock()
	defer k.mu.Unlock()

	sl.refs--
	if sl.refs == 0 {
		delete(k.slots, id)
	}
}

func (k *keyedLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}

func (k *keyedLock) acquire(ctx context.Context, id uuid.UUID, timeout time.Duration) (func(), error) {
	sl := k.ref(id)
	release := func() {
		<-sl.ch
		k.unref(id, sl)
	}

	select {
	case sl.ch <- struct{}{}:
		return release, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case sl.ch <- struct{}{}:
		return release, nil
	case <-timer.C:
		k.unref(id, sl)
		return nil, ErrLockTimeout
	case <-ctx.Done():
		k.unref(id, sl)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrLockTimeout
		}
		return nil, ctx.Err()
	}
}
