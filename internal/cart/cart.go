package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/railgate/railgate/internal/gateway"
)

// Snapshot is the amount and destination country to charge, fetched once per
// session. A zero snapshot means the cart could not be read; callers must
// refuse to initiate a capture against it.
type Snapshot struct {
	Amount      float64
	Currency    string
	CountryCode string
}

// Zero reports whether the snapshot carries nothing chargeable.
func (s Snapshot) Zero() bool { return s.Amount <= 0 }

// Fetcher is the slice of the gateway client the loader needs.
type Fetcher interface {
	Cart(ctx context.Context) (gateway.CartPayload, error)
}

// Loader fetches the cart snapshot once and serves it afterwards. There is no
// retry logic; a failed fetch surfaces as a zero snapshot plus the error.
type Loader struct {
	fetcher  Fetcher
	currency string
	logger   *slog.Logger

	mu   sync.Mutex
	snap *Snapshot
}

// NewLoader constructs a cart loader charging in the given ISO-4217 currency.
func NewLoader(fetcher Fetcher, currency string, logger *slog.Logger) *Loader {
	return &Loader{fetcher: fetcher, currency: currency, logger: logger}
}

// Load returns the session cart snapshot, fetching it on first use.
func (l *Loader) Load(ctx context.Context) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.snap != nil {
		return *l.snap, nil
	}

	payload, err := l.fetcher.Cart(ctx)
	if err != nil {
		l.logger.Error("fetch cart", "error", err)
		return Snapshot{}, err
	}

	snap := Snapshot{
		Amount:      payload.TotalPrice,
		Currency:    l.currency,
		CountryCode: payload.ISOCountryCode,
	}
	l.snap = &snap
	return snap, nil
}
