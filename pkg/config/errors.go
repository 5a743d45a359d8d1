package config

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnvision/pkg/errcode"
)

// QuotaError creates an error for a split whose minimum exceeds its
// maximum.
func QuotaError(split string, min, max int) error {
	msg := `Inconsistent <em>%s</em> quota: minimum %d is larger than maximum %d`
	vars := []any{split, min, max}
	return &gn.Error{
		Code: errcode.ConfigQuotaError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("%s quota: min %d > max %d",
			split, min, max),
	}
}
