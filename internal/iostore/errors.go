package iostore

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnvision/pkg/errcode"
)

// QueryError is returned when a query to the observation database fails.
func QueryError(what string, err error) error {
	msg := "Cannot read <em>%s</em> from the database"
	vars := []any{what}
	return &gn.Error{
		Code: errcode.DBQueryError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("query %s: %w", what, err),
	}
}

// ScanError is returned when a row cannot be converted to a record.
func ScanError(what string, err error) error {
	msg := "Cannot read a row of <em>%s</em>"
	vars := []any{what}
	return &gn.Error{
		Code: errcode.DBScanError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("scan %s: %w", what, err),
	}
}

// SnapshotOpenError is returned when a SQLite snapshot cannot be opened.
func SnapshotOpenError(path string, err error) error {
	msg := `Cannot open SQLite snapshot <em>%s</em>

Check <em>export.sqlite_path</em> in config.yaml or the --sqlite flag.`
	vars := []any{path}
	return &gn.Error{
		Code: errcode.SnapshotOpenError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("open snapshot %s: %w", path, err),
	}
}
