package iostore

import (
	"context"

	"github.com/gnames/gnvision/pkg/store"
	"github.com/jackc/pgx/v5"
)

// Querier runs PostgreSQL queries. It is satisfied by *pgxpool.Pool and by
// pgxmock pools in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type pgConn struct {
	q       Querier
	closeFn func()
}

// NewPostgres creates a store that reads PostgreSQL through q. closeFn
// releases the connections, it can be nil.
func NewPostgres(q Querier, closeFn func()) store.Store {
	return &dbStore{
		c: &pgConn{q: q, closeFn: closeFn},
		d: pgDialect{},
	}
}

func (c *pgConn) query(
	ctx context.Context,
	sql string,
	args ...any,
) (rows, error) {
	return c.q.Query(ctx, sql, args...)
}

func (c *pgConn) close() error {
	if c.closeFn != nil {
		c.closeFn()
	}
	return nil
}
