package taxon

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnvision/pkg/errcode"
)

// AncestryMismatchError is returned when a taxon gets a second parent.
func AncestryMismatchError(id, oldParent, newParent, rowID int) error {
	msg := `Ancestry mismatch: taxon <em>%d</em> has parents %d and %d ` +
		`in ancestry of %d

Use <em>--skip-ancestry-mismatch</em> to log conflicts and continue.`
	vars := []any{id, oldParent, newParent, rowID}
	return &gn.Error{
		Code: errcode.IngestAncestryMismatchError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("ancestry mismatch: %d has parents [%d, %d] in ancestry of %d",
			id, newParent, oldParent, rowID),
	}
}

// AncestryParseError is returned for ancestry strings with non-numeric ids.
func AncestryParseError(rowID int, ancestry string, err error) error {
	msg := "Cannot parse ancestry <em>%s</em> of taxon %d"
	vars := []any{ancestry, rowID}
	return &gn.Error{
		Code: errcode.IngestAncestryParseError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("bad ancestry %q of %d: %w", ancestry, rowID, err),
	}
}

// StatusRegressionError is returned when a resolved taxon gets another
// status.
func StatusRegressionError(id int, from, to Status) error {
	msg := "Taxon <em>%d</em> cannot change status from %s to %s"
	vars := []any{id, from, to}
	return &gn.Error{
		Code: errcode.ExportStatusRegressionError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("status of %d cannot change from %s to %s", id, from, to),
	}
}
