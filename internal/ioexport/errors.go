package ioexport

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnvision/pkg/errcode"
)

// IngestBatchError is returned when some taxonomy batches did not finish.
func IngestBatchError(failed int) error {
	msg := "Taxonomy ingestion failed in <em>%d</em> batches"
	vars := []any{failed}
	return &gn.Error{
		Code: errcode.IngestBatchError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("ingestion: %d batches failed", failed),
	}
}

// EmptyTaxonomyError is returned when no eligible taxa were found.
func EmptyTaxonomyError() error {
	msg := `No eligible taxa found in the database

Make sure the <em>taxa</em> table is populated.`
	return &gn.Error{
		Code: errcode.DBEmptyDatabaseError,
		Msg:  msg,
		Err:  fmt.Errorf("ingestion: no eligible taxa"),
	}
}

// LookupError is returned when observations or photos of a taxon cannot
// be read. The taxon is left out of the export.
func LookupError(id int, err error) error {
	msg := "Cannot collect photos of taxon <em>%d</em>"
	vars := []any{id}
	return &gn.Error{
		Code: errcode.ExportLookupError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("lookup of taxon %d: %w", id, err),
	}
}

// CommitError is returned when results of a taxon cannot be saved.
func CommitError(id int, err error) error {
	msg := "Cannot save results of taxon <em>%d</em>"
	vars := []any{id}
	return &gn.Error{
		Code: errcode.ExportCommitError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("commit of taxon %d: %w", id, err),
	}
}
