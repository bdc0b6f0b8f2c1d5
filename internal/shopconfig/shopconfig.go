package shopconfig

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/railgate/railgate/internal/gateway"
)

// Mode is the gateway environment the merchant is configured for.
type Mode string

const (
	ModeSandbox    Mode = "sandbox"
	ModeProduction Mode = "production"
)

// Config is the merchant configuration fetched once per session. Immutable
// after the first successful load.
type Config struct {
	Mode             Mode
	MerchantID       string
	MerchantGoogleID string
	Require3DS       bool
}

// Fetcher is the slice of the gateway client the cache needs.
type Fetcher interface {
	Config(ctx context.Context) (gateway.ConfigPayload, error)
}

// Cache holds the merchant configuration for the session. Load is
// idempotent-safe: the first successful fetch wins and later calls return the
// cached value. A failed fetch leaves the cache empty so dependents fall back
// to the fail-safe defaults (wallet rails off, 3DS required).
type Cache struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu  sync.Mutex
	cfg *Config
}

// NewCache constructs a configuration cache over the gateway client.
func NewCache(fetcher Fetcher, logger *slog.Logger) *Cache {
	return &Cache{fetcher: fetcher, logger: logger}
}

// Load returns the session configuration, fetching it on first use.
func (c *Cache) Load(ctx context.Context) (Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg != nil {
		return *c.cfg, nil
	}

	payload, err := c.fetcher.Config(ctx)
	if err != nil {
		c.logger.Error("fetch merchant config", "error", err)
		return Config{}, err
	}

	cfg := Config{
		Mode:             parseMode(payload.Mode),
		MerchantID:       payload.MerchantID,
		MerchantGoogleID: payload.MerchantGoogleID,
		Require3DS:       payload.Require3DS,
	}
	c.cfg = &cfg
	return cfg, nil
}

// Require3DS reports whether strong authentication is required for the
// hosted-card rail. When configuration is absent the answer is true: a
// security-relevant flag never fails open.
func (c *Cache) Require3DS(ctx context.Context) bool {
	cfg, err := c.Load(ctx)
	if err != nil {
		return true
	}
	return cfg.Require3DS
}

// WalletsAvailable reports whether the wallet rails may initialize. Without a
// merchant id there is nothing to initialize them against.
func (c *Cache) WalletsAvailable(ctx context.Context) bool {
	cfg, err := c.Load(ctx)
	if err != nil {
		return false
	}
	return cfg.MerchantID != ""
}

func parseMode(raw string) Mode {
	if strings.EqualFold(raw, string(ModeProduction)) {
		return ModeProduction
	}
	return ModeSandbox
}
