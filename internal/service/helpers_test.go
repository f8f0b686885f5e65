package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/internal/clock"
	"github.com/itsDrac/gemstone-auction/internal/domain"
	"github.com/itsDrac/gemstone-auction/internal/events"
	"github.com/itsDrac/gemstone-auction/internal/repository"
	"github.com/itsDrac/gemstone-auction/internal/service"
	"github.com/itsDrac/gemstone-auction/pkg/config"
	"github.com/itsDrac/gemstone-auction/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// t0 is "now" at the start of every test.
var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type recordingSink struct {
	mu  sync.Mutex
	evs []events.Event
}

func (r *recordingSink) Enqueue(evs ...events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, evs...)
}

func (r *recordingSink) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.evs))
	for _, e := range r.evs {
		out = append(out, e.Type)
	}
	return out
}

func (r *recordingSink) reset() {
	r.mu.Lock()
	r.evs = nil
	r.mu.Unlock()
}

type fixture struct {
	clock    *clock.Fake
	store    *repository.MemoryStore
	sink     *recordingSink
	services *service.Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.NewFake(t0)
	store := repository.NewMemoryStore(clk, 100*time.Millisecond)
	sink := &recordingSink{}

	cfg := config.Config{}
	cfg.Auction.SweepBatch = 2

	svcs, err := service.NewServices(service.Deps{
		Store:  store,
		Clock:  clk,
		Events: sink,
		Log:    logger.Nop(),
	}, cfg)
	require.NoError(t, err)

	return &fixture{clock: clk, store: store, sink: sink, services: svcs}
}

// openAuction creates an auction that opened an hour ago and ends in an hour:
// starting bid 100, increment 5.
func (f *fixture) openAuction(t *testing.T, mutate ...func(*service.CreateAuctionInput)) domain.Auction {
	t.Helper()
	in := service.CreateAuctionInput{
		Title:        "Padparadscha sapphire, 2.4ct",
		StartingBid:  money("100"),
		BidIncrement: domain.NullMoney(money("5")),
		StartTime:    t0.Add(-time.Hour),
		EndTime:      t0.Add(time.Hour),
		Status:       domain.AuctionScheduled,
	}
	for _, m := range mutate {
		m(&in)
	}
	a, err := f.services.AuctionService.CreateAuction(context.Background(), in)
	require.NoError(t, err)
	return a
}

func (f *fixture) bid(ctx context.Context, auctionID, bidder uuid.UUID, amount string) (*service.BidOutcome, error) {
	return f.services.BiddingService.PlaceBid(ctx, service.PlaceBidInput{
		AuctionID: auctionID,
		BidderID:  bidder,
		Amount:    money(amount),
	})
}

func (f *fixture) mustBid(t *testing.T, auctionID, bidder uuid.UUID, amount string) *service.BidOutcome {
	t.Helper()
	out, err := f.bid(context.Background(), auctionID, bidder, amount)
	require.NoError(t, err)
	return out
}

func (f *fixture) winningCount(t *testing.T, auctionID uuid.UUID) int {
	t.Helper()
	bids, err := f.store.ListBids(context.Background(), auctionID)
	require.NoError(t, err)
	n := 0
	for _, b := range bids {
		if b.IsWinning {
			n++
		}
	}
	return n
}

func (f *fixture) get(t *testing.T, id uuid.UUID) domain.Auction {
	t.Helper()
	a, err := f.store.GetAuction(context.Background(), id)
	require.NoError(t, err)
	return a
}
