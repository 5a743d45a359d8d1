package iosink

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnvision/pkg/errcode"
)

// OutputFileError is returned when a manifest file cannot be created.
func OutputFileError(path string, err error) error {
	msg := "Cannot create output file <em>%s</em>"
	vars := []any{path}
	return &gn.Error{
		Code: errcode.OutputFileError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("create %s: %w", path, err),
	}
}

// WriteFileError is returned when rows cannot be written to a file.
func WriteFileError(path string, err error) error {
	msg := "Cannot write to <em>%s</em>"
	vars := []any{path}
	return &gn.Error{
		Code: errcode.WriteFileError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("write %s: %w", path, err),
	}
}
