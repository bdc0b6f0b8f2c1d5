package vault

import (
	"context"
	"errors"
)

// ErrNoVaultedCard indicates no card reference is stored for the shopper key,
// so a "use saved card" capture must fail fast.
var ErrNoVaultedCard = errors.New("no vaulted card")

// Ref is the gateway-side reference to a previously used card. At most one is
// stored per shopper key; each successful save-card capture overwrites it. Refs
// never expire on their own.
type Ref struct {
	VaultedShopperID string
}

// Store defines the contract implemented by vault backends (e.g. Postgres,
// Redis). The shopper key is the browser-identity equivalent supplied by the
// storefront.
type Store interface {
	Get(ctx context.Context, shopperKey string) (Ref, error)
	Put(ctx context.Context, shopperKey string, ref Ref) error
	Delete(ctx context.Context, shopperKey string) error
}
