// Package iodb connects gnvision to the PostgreSQL mirror of the
// observation database. The source store reads taxa and observations
// through its pool, the schema command uses it to prepare the mirror tables.
package iodb

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/gnames/gnvision/pkg/config"
	"github.com/gnames/gnvision/pkg/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// mirrorSchema keeps the taxa, observations, photos and flags tables.
const mirrorSchema = "public"

// Export lookups run on every worker of the pool plus the ingestion
// batches, minConns keeps a couple of connections ready between passes.
const (
	maxConns = 16
	minConns = 2
)

type pgxOperator struct {
	pool *pgxpool.Pool
}

// NewPgxOperator returns an operator that is not connected yet.
func NewPgxOperator() db.Operator {
	return &pgxOperator{}
}

// dsn builds a connection URL. User and password are escaped, so they can
// contain any characters.
func dsn(cfg *config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Database,
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}

// Connect opens the pool and pings the mirror.
func (p *pgxOperator) Connect(
	ctx context.Context,
	cfg *config.DatabaseConfig,
) error {
	connErr := func(err error) error {
		return ConnectionError(cfg.Host, cfg.Port, cfg.Database, cfg.User, err)
	}

	poolCfg, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return connErr(err)
	}
	poolCfg.MaxConns = maxConns
	poolCfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return connErr(err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return connErr(err)
	}

	p.pool = pool
	return nil
}

// Close releases the pool. It is safe to call without Connect.
func (p *pgxOperator) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *pgxOperator) Pool() *pgxpool.Pool {
	return p.pool
}

// TableExists reports if the mirror has the table.
func (p *pgxOperator) TableExists(
	ctx context.Context,
	tableName string,
) (bool, error) {
	if p.pool == nil {
		return false, NotConnectedError()
	}

	q := `SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = $2)`

	var exists bool
	err := p.pool.QueryRow(ctx, q, mirrorSchema, tableName).Scan(&exists)
	if err != nil {
		return false, TableExistsCheckError(tableName, err)
	}
	return exists, nil
}

// HasTables is true if the mirror schema is not empty. The schema command
// refuses to touch such a database unless it runs with --force.
func (p *pgxOperator) HasTables(ctx context.Context) (bool, error) {
	if p.pool == nil {
		return false, NotConnectedError()
	}

	q := `SELECT EXISTS (
		SELECT FROM information_schema.tables WHERE table_schema = $1)`

	var res bool
	if err := p.pool.QueryRow(ctx, q, mirrorSchema).Scan(&res); err != nil {
		return false, TableCheckError(err)
	}
	return res, nil
}

func (p *pgxOperator) tableNames(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT tablename FROM pg_tables WHERE schemaname = $1", mirrorSchema)
	if err != nil {
		return nil, QueryTablesError(err)
	}
	res, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, ScanTableError(err)
	}
	return res, nil
}

// DropAllTables removes every table of the mirror schema with one
// statement, so a failure leaves the schema as it was.
func (p *pgxOperator) DropAllTables(ctx context.Context) error {
	if p.pool == nil {
		return NotConnectedError()
	}

	tables, err := p.tableNames(ctx)
	if err != nil || len(tables) == 0 {
		return err
	}

	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = pgx.Identifier{mirrorSchema, t}.Sanitize()
	}
	list := strings.Join(tables, ", ")
	q := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", strings.Join(names, ", "))
	if _, err = p.pool.Exec(ctx, q); err != nil {
		return DropTableError(list, err)
	}
	return nil
}
