package iostore

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/gnames/gnvision/pkg/schema"
	"github.com/gnames/gnvision/pkg/store"
	_ "modernc.org/sqlite"
)

type sqliteConn struct {
	db *sql.DB
}

// sqlRows adapts sql.Rows to rows.
type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() {
	_ = r.Rows.Close()
}

// NewSQLite opens an existing SQLite snapshot.
func NewSQLite(path string) (store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, SnapshotOpenError(path, err)
	}
	db, err := openSQLite(path)
	if err != nil {
		return nil, SnapshotOpenError(path, err)
	}
	return &dbStore{c: &sqliteConn{db: db}, d: sqliteDialect{}}, nil
}

// CreateSnapshot creates an empty SQLite snapshot with all source tables.
// The caller closes the returned database.
func CreateSnapshot(path string) (*sql.DB, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, SnapshotOpenError(path, err)
	}
	for _, ddl := range schema.DDL() {
		if _, err = db.Exec(ddl); err != nil {
			db.Close()
			return nil, SnapshotOpenError(path, fmt.Errorf("%s: %w", ddl, err))
		}
	}
	return db, nil
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (c *sqliteConn) query(
	ctx context.Context,
	q string,
	args ...any,
) (rows, error) {
	rs, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rs}, nil
}

func (c *sqliteConn) close() error {
	return c.db.Close()
}
