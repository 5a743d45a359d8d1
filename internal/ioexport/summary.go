package ioexport

import (
	"os"
	"path/filepath"

	"github.com/gnames/gnvision/internal/iosink"
	gnvision "github.com/gnames/gnvision/pkg"
	"gopkg.in/yaml.v3"
)

func writeSummary(dir string, s gnvision.Summary) error {
	path := filepath.Join(dir, iosink.SummaryFile)
	bs, err := yaml.Marshal(s)
	if err != nil {
		return iosink.WriteFileError(path, err)
	}
	if err = os.WriteFile(path, bs, 0644); err != nil {
		return iosink.WriteFileError(path, err)
	}
	return nil
}
