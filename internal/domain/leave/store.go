package leave

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"campusleave/internal/platform/querier"
)

// Store is the pgx-backed StoreAPI. A Store built from a pool can open
// transactions; the store handed to InTx callbacks is bound to one.
type Store struct {
	db   querier.Querier
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{db: pool, pool: pool}
}

func (s *Store) InTx(ctx context.Context, fn func(StoreAPI) error) error {
	if s.pool == nil {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(&Store{db: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
