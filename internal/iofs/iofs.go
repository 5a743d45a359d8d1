package iofs

import (
	_ "embed"
	"errors"
	"os"

	"github.com/gnames/gnvision/pkg/config"
)

//go:embed config.yaml
var ConfigYAML string

func EnsureDirs(homeDir string) error {
	dirs := []string{
		config.ConfigDir(homeDir),
		config.CacheDir(homeDir),
		config.LogDir(homeDir),
	}
	for _, v := range dirs {
		if err := touchDir(v); err != nil {
			return err
		}
	}
	return nil
}

func touchDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return CreateDirError(dir, err)
	}

	return nil
}

func EnsureConfigFile(homeDir string) error {
	configPath := config.ConfigFilePath(homeDir)

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	if err := os.WriteFile(configPath, []byte(ConfigYAML), 0644); err != nil {
		return CopyFileError(configPath, err)
	}

	return nil
}

// CheckOutputDir makes sure that the export directory exists, is a
// directory, and can be listed and written to. The directory is never
// created: a missing directory usually means a typo in the path.
func CheckOutputDir(dir string) error {
	if dir == "" {
		return OutputDirError(dir, errors.New("output directory is not set"))
	}

	info, err := os.Stat(dir)
	if err != nil {
		return OutputDirError(dir, err)
	}
	if !info.IsDir() {
		return OutputDirError(dir, errors.New("not a directory"))
	}

	if _, err = os.ReadDir(dir); err != nil {
		return OutputDirError(dir, err)
	}

	f, err := os.CreateTemp(dir, ".gnvision-*")
	if err != nil {
		return OutputDirError(dir, err)
	}
	name := f.Name()
	err = errors.Join(f.Close(), os.Remove(name))
	if err != nil {
		return OutputDirError(dir, err)
	}

	return nil
}
