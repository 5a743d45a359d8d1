package completion

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnvision/pkg/errcode"
)

// CycleError is returned when a taxon is reached again through its own
// descendants.
func CycleError(id int) error {
	msg := "Taxonomy has a cycle at taxon <em>%d</em>"
	vars := []any{id}
	return &gn.Error{
		Code: errcode.ExportCycleError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("cycle in taxonomy at %d", id),
	}
}

// NoProgressError is returned when a pass finds nothing to look up, but
// some top-level taxa are still unresolved.
func NoProgressError(pass, unsettled int) error {
	msg := "Pass %d made no progress, %d top-level taxa are unresolved"
	vars := []any{pass, unsettled}
	return &gn.Error{
		Code: errcode.ExportNoProgressError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("no progress at pass %d, unresolved %d", pass, unsettled),
	}
}

// PassLimitError is returned when the export needs more passes than
// allowed.
func PassLimitError(limit, unsettled int) error {
	msg := `Export did not finish in %d passes, %d top-level taxa are unresolved

Increase <em>export.max_passes</em> in config.yaml.`
	vars := []any{limit, unsettled}
	return &gn.Error{
		Code: errcode.ExportPassLimitError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("pass limit %d reached, unresolved %d", limit, unsettled),
	}
}
