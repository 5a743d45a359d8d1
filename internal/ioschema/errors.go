package ioschema

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnvision/pkg/errcode"
)

// NotConnectedError creates an error for when schema
// operation is attempted without database connection.
func NotConnectedError() error {
	msg := "Schema operation attempted without database connection"

	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("not connected to database"),
	}
}

// GORMConnectionError creates an error for GORM
// connection failures.
func GORMConnectionError(err error) error {
	msg := `Cannot connect to database with GORM

<em>How to fix:</em>
  1. Ensure database operator is connected
  2. Check database configuration`

	return &gn.Error{
		Code: errcode.SchemaGORMConnectionError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("failed to connect with GORM: %w", err),
	}
}

// CreateSchemaError creates an error for schema
// creation failures.
func CreateSchemaError(err error) error {
	msg := `Cannot create observation tables

<em>Possible causes:</em>
  - Insufficient database permissions
  - Existing tables with incompatible columns

<em>How to fix:</em>
  1. Check database user has CREATE permissions
  2. Run <em>gnvision schema --force</em> to recreate tables`

	return &gn.Error{
		Code: errcode.SchemaCreateError,
		Msg:  msg,
		Vars: nil,
		Err:  fmt.Errorf("failed to create schema: %w", err),
	}
}

// IndexError creates an error for index creation failures.
func IndexError(table string, err error) error {
	msg := "Cannot create indexes of <em>%s</em>"
	vars := []any{table}

	return &gn.Error{
		Code: errcode.SchemaIndexError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("failed to index %s: %w", table, err),
	}
}
