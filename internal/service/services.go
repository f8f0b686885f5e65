package service

import (
	"github.com/itsDrac/gemstone-auction/internal/cache"
	"github.com/itsDrac/gemstone-auction/internal/clock"
	"github.com/itsDrac/gemstone-auction/internal/events"
	"github.com/itsDrac/gemstone-auction/internal/repository"
	"github.com/itsDrac/gemstone-auction/internal/storage"
	"github.com/itsDrac/gemstone-auction/pkg/config"
	"github.com/itsDrac/gemstone-auction/pkg/logger"
)

type Services struct {
	BiddingService BiddingServicer
	AuctionService AuctionServicer
	Closer         *Closer
}

// Deps are the collaborators shared by every service. Storage may be nil when
// image upload is not configured.
type Deps struct {
	Store   repository.Store
	Clock   clock.Clock
	Events  events.Sink
	Cache   cache.Cacher
	Storage storage.Storager
	Log     *logger.Logger
}

func NewServices(d Deps, cfg config.Config) (*Services, error) {
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}
	if d.Events == nil {
		d.Events = events.Discard{}
	}
	if d.Clock == nil {
		d.Clock = clock.Real()
	}

	closer := NewCloser(d.Store, d.Clock, d.Events, d.Cache, d.Log, cfg.Auction.SweepBatch)

	biddingService, err := NewBiddingService(d.Store, d.Clock, d.Events, d.Cache, d.Log)
	if err != nil {
		return nil, err
	}

	auctionService, err := NewAuctionService(d.Store, closer, d.Clock, d.Events, d.Cache, d.Storage, cfg.Redis.CacheTTL, d.Log)
	if err != nil {
		return nil, err
	}

	return &Services{
		BiddingService: biddingService,
		AuctionService: auctionService,
		Closer:         closer,
	}, nil
}
