package vault

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists vaulted card references in PostgreSQL, one row per
// shopper key.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgres constructs a Postgres-backed vault store.
func NewPostgres(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get returns the stored card reference for the shopper key.
func (s *PostgresStore) Get(ctx context.Context, shopperKey string) (Ref, error) {
	const query = `SELECT vaulted_shopper_id FROM vaulted_cards WHERE shopper_key = $1`
	var ref Ref
	if err := s.db.QueryRow(ctx, query, shopperKey).Scan(&ref.VaultedShopperID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ref{}, ErrNoVaultedCard
		}
		return Ref{}, err
	}
	return ref, nil
}

// Put stores the card reference, replacing any previous one for the key.
func (s *PostgresStore) Put(ctx context.Context, shopperKey string, ref Ref) error {
	const query = `INSERT INTO vaulted_cards (shopper_key, vaulted_shopper_id, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (shopper_key) DO UPDATE
        SET vaulted_shopper_id = EXCLUDED.vaulted_shopper_id, updated_at = NOW()`
	_, err := s.db.Exec(ctx, query, shopperKey, ref.VaultedShopperID)
	return err
}

// Delete removes the card reference for the shopper key if present.
func (s *PostgresStore) Delete(ctx context.Context, shopperKey string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM vaulted_cards WHERE shopper_key = $1`, shopperKey)
	return err
}
