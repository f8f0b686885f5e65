package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// Token Expiration Durations
	AccessTokenDuration = 15 * time.Minute

	// Context Keys
	UserClaimKey ctxKey = "user_claims"

	// Roles carried in access tokens
	RoleOperator = "admin"
	RoleBidder   = "bidder"

	// Upper bound on the closer sweep so the storefront countdown never lags a minute behind
	MaxSweepInterval = time.Minute
)

type ctxKey string

// UserClaims is the payload for the Access Token
type UserClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

type Config struct {
	Env     string        `env:"GO_ENV" envDefault:"development"`
	Server  ServerConfig  `envPrefix:"SERVER_"`
	DB      DBConfig      `envPrefix:"DB_"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`
	Minio   MinioConfig   `envPrefix:"MINIO_"`
	NATS    NATSConfig    `envPrefix:"NATS_"`
	Auth    AuthConfig
	Auction AuctionConfig `envPrefix:"AUCTION_"`
}

type ServerConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"8080"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type DBConfig struct {
	DSN           string `env:"DSN"`
	AutoMigrate   bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	MigrationsURL string `env:"MIGRATIONS_URL" envDefault:"file://migrations"`
	MaxConns      int32  `env:"MAX_CONNS" envDefault:"25"`
}

type RedisConfig struct {
	Addr     string        `env:"ADDR"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5s"`
}

type MinioConfig struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"SECRET_KEY" envDefault:"minioadmin"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
	Bucket    string `env:"BUCKET" envDefault:"auction-images"`
}

type NATSConfig struct {
	URL    string `env:"URL"`
	Stream string `env:"STREAM" envDefault:"AUCTION_EVENTS"`
}

type AuthConfig struct {
	AccessSecret string `env:"ACCESS_TOKEN_SECRET"`
	// Operator login is enabled when a bcrypt hash is set.
	OperatorUsername     string `env:"OPERATOR_USERNAME" envDefault:"operator"`
	OperatorPasswordHash string `env:"OPERATOR_PASSWORD_HASH"`
}

type AuctionConfig struct {
	LockTimeout   time.Duration `env:"LOCK_TIMEOUT" envDefault:"2s"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"30s"`
	SweepBatch    int           `env:"SWEEP_BATCH" envDefault:"100"`
	OutboxSize    int           `env:"OUTBOX_SIZE" envDefault:"1024"`
}

// IsProduction reports whether GO_ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load parses the process environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auction.LockTimeout <= 0 {
		return fmt.Errorf("AUCTION_LOCK_TIMEOUT must be positive, got %s", c.Auction.LockTimeout)
	}
	if c.Auction.SweepInterval <= 0 || c.Auction.SweepInterval > MaxSweepInterval {
		return fmt.Errorf("AUCTION_SWEEP_INTERVAL must be in (0, %s], got %s", MaxSweepInterval, c.Auction.SweepInterval)
	}
	if c.Auction.SweepBatch <= 0 {
		return fmt.Errorf("AUCTION_SWEEP_BATCH must be positive, got %d", c.Auction.SweepBatch)
	}
	if c.Auction.OutboxSize <= 0 {
		return fmt.Errorf("AUCTION_OUTBOX_SIZE must be positive, got %d", c.Auction.OutboxSize)
	}
	return nil
}
