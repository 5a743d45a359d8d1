// Package ioschema implements SchemaManager interface for
// the source tables of an export. This is an impure I/O package
// that wraps GORM AutoMigrate functionality.
package ioschema

import (
	"context"
	"log/slog"

	gnvision "github.com/gnames/gnvision/pkg"
	"github.com/gnames/gnvision/pkg/db"
	"github.com/gnames/gnvision/pkg/schema"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// manager implements the gnvision.SchemaManager interface
// using GORM AutoMigrate.
type manager struct {
	operator db.Operator
	force    bool
}

// NewManager creates a new SchemaManager. With force, existing
// tables are dropped before creation.
func NewManager(op db.Operator, force bool) gnvision.SchemaManager {
	return &manager{operator: op, force: force}
}

// Create creates observation tables with GORM AutoMigrate and
// adds lookup indexes. It is safe to run on an existing schema.
func (m *manager) Create(ctx context.Context) error {
	pool := m.operator.Pool()
	if pool == nil {
		return NotConnectedError()
	}

	hasTables, err := m.operator.HasTables(ctx)
	if err != nil {
		return err
	}
	if hasTables && m.force {
		slog.Info("Dropping existing tables")
		if err = m.operator.DropAllTables(ctx); err != nil {
			return err
		}
	}

	sqlDB := stdlib.OpenDBFromPool(pool)

	// Connect with GORM
	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{Conn: sqlDB}),
		&gorm.Config{},
	)
	if err != nil {
		return GORMConnectionError(err)
	}

	if err = schema.Migrate(gormDB); err != nil {
		return CreateSchemaError(err)
	}

	return m.createIndexes(ctx)
}

// createIndexes adds indexes used by the export queries.
func (m *manager) createIndexes(ctx context.Context) error {
	pool := m.operator.Pool()
	for _, g := range schema.Generators() {
		for _, ddl := range g.IndexDDL() {
			if _, err := pool.Exec(ctx, idempotentIndex(ddl)); err != nil {
				return IndexError(g.TableName(), err)
			}
		}
	}
	slog.Info("Observation tables are ready",
		"tables", len(schema.Generators()))
	return nil
}
