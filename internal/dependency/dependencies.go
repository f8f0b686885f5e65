package dependency

import (
	"context"
	"errors"
	"log/slog"

	"github.com/itsDrac/gemstone-auction/internal/cache"
	"github.com/itsDrac/gemstone-auction/internal/clock"
	"github.com/itsDrac/gemstone-auction/internal/db"
	"github.com/itsDrac/gemstone-auction/internal/events"
	"github.com/itsDrac/gemstone-auction/internal/handlers"
	"github.com/itsDrac/gemstone-auction/internal/repository"
	"github.com/itsDrac/gemstone-auction/internal/service"
	"github.com/itsDrac/gemstone-auction/internal/storage"
	"github.com/itsDrac/gemstone-auction/pkg/config"
	"github.com/itsDrac/gemstone-auction/pkg/jwt"
	"github.com/itsDrac/gemstone-auction/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// Dependencies holds all the intialized instances required by the application.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Services *service.Services
	Outbox   *events.Outbox
	Jwt      *jwt.JwtManager

	Pool  *pgxpool.Pool
	Redis *redis.Client
	NATS  *nats.Conn
	Cache cache.Cacher

	AuctionHandler *handlers.AuctionHandler
	AdminHandler   *handlers.AdminHandler
	LiveHandler    *handlers.LiveHandler
	AuthHandler    *handlers.AuthHandler
}

// NewDependencies connects to the configured infrastructure and wires up all
// services. Postgres, Redis, MinIO and NATS are each optional.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	d := &Dependencies{
		Config: cfg,
		Logger: logger.NewLogger(cfg.Env),
	}
	clk := clock.Real()

	var store repository.Store
	if cfg.DB.DSN != "" {
		if cfg.DB.AutoMigrate {
			if err := db.Migrate(cfg.DB.MigrationsURL, cfg.DB.DSN); err != nil {
				slog.Error("[DB] migration failed -> ", "error", err.Error())
				return nil, err
			}
		}
		pool, err := db.NewPool(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
		if err != nil {
			slog.Error("[DB] connection failed -> ", "error", err.Error())
			return nil, err
		}
		d.Pool = pool
		store = repository.NewPostgresStore(pool, clk, cfg.Auction.LockTimeout)
	} else {
		slog.Warn("[DB] DB_DSN not set, using in-memory store")
		store = repository.NewMemoryStore(clk, cfg.Auction.LockTimeout)
	}

	var (
		publishers []events.Publisher
		subscriber events.Subscriber
	)
	d.Cache = cache.Nop{}
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			slog.Error("[Cache] failed to initialized ->", "error", err.Error())
			d.Close(ctx)
			return nil, err
		}
		slog.Info("[Cache] connected")
		d.Redis = client
		d.Cache = cache.NewRedisCache(client)
		publishers = append(publishers, events.NewRedisPublisher(client))
		subscriber = events.NewRedisSubscriber(client)
	} else {
		slog.Warn("[Cache] REDIS_ADDR not set, live feed limited to this process")
		hub := events.NewHub()
		publishers = append(publishers, hub)
		subscriber = hub
	}

	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("gemstone-auction"))
		if err != nil {
			slog.Error("[NATS] connection failed -> ", "error", err.Error())
			d.Close(ctx)
			return nil, err
		}
		d.NATS = nc
		pub, err := events.NewNATSPublisher(ctx, nc, cfg.NATS.Stream)
		if err != nil {
			slog.Error("[NATS] stream setup failed -> ", "error", err.Error())
			d.Close(ctx)
			return nil, err
		}
		publishers = append(publishers, pub)
		slog.Info("[NATS] connected", "stream", cfg.NATS.Stream)
	}

	var images storage.Storager
	minioStorage, err := storage.NewMinioStorage(cfg.Minio)
	switch {
	case errors.Is(err, storage.ErrStorageDisabled):
		slog.Warn("[Storage] MINIO_ENDPOINT not set, image upload disabled")
	case err != nil:
		slog.Error("[Storage] failed to initialize -> ", "error", err.Error())
		d.Close(ctx)
		return nil, err
	default:
		images = minioStorage
	}

	d.Outbox = events.NewOutbox(cfg.Auction.OutboxSize, store, d.Logger, publishers...)

	services, err := service.NewServices(service.Deps{
		Store:   store,
		Clock:   clk,
		Events:  d.Outbox,
		Cache:   d.Cache,
		Storage: images,
		Log:     d.Logger,
	}, *cfg)
	if err != nil {
		slog.Error("[Service] failed to initialized -> ", "error", err.Error())
		d.Close(ctx)
		return nil, err
	}
	d.Services = services

	if cfg.Auth.AccessSecret != "" {
		d.Jwt, err = jwt.NewJwtManager(cfg.Auth.AccessSecret)
		if err != nil {
			d.Close(ctx)
			return nil, err
		}
		authService, err := service.NewAuthService(d.Jwt, cfg.Auth, d.Logger)
		if err != nil {
			slog.Error("[Auth Service] failed to initialized -> ", "error", err.Error())
			d.Close(ctx)
			return nil, err
		}
		if cfg.Auth.OperatorPasswordHash == "" {
			slog.Warn("[Auth] OPERATOR_PASSWORD_HASH not set, operator login disabled")
		}
		if d.AuthHandler, err = handlers.NewAuthHandler(authService); err != nil {
			slog.Error("[Auth Handler] failed to initialized -> ", "error", err.Error())
			d.Close(ctx)
			return nil, err
		}
	} else {
		slog.Warn("[Auth] ACCESS_TOKEN_SECRET not set, operator routes disabled")
	}

	if d.AuctionHandler, err = handlers.NewAuctionHandler(services.AuctionService, services.BiddingService); err != nil {
		slog.Error("[Auction Handler] failed to initialized -> ", "error", err.Error())
		d.Close(ctx)
		return nil, err
	}
	if d.AdminHandler, err = handlers.NewAdminHandler(services.AuctionService); err != nil {
		slog.Error("[Admin Handler] failed to initialized -> ", "error", err.Error())
		d.Close(ctx)
		return nil, err
	}
	if d.LiveHandler, err = handlers.NewLiveHandler(services.AuctionService, subscriber); err != nil {
		slog.Error("[Live Handler] failed to initialized -> ", "error", err.Error())
		d.Close(ctx)
		return nil, err
	}

	return d, nil
}

// Close releases every connection that was opened. The cache shares the
// Redis client, so closing the cache closes Redis too.
func (d *Dependencies) Close(ctx context.Context) {
	if d.NATS != nil {
		if err := d.NATS.Drain(); err != nil {
			slog.Error("[NATS] drain failed ->", "error", err.Error())
		}
	}
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			slog.Error("[Cache] close failed ->", "error", err.Error())
		}
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}
}
