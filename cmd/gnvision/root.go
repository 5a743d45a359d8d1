/*
Copyright © 2026 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gnvision/internal/iofs"
	"github.com/gnames/gnvision/internal/iologger"
	gnvision "github.com/gnames/gnvision/pkg"
	"github.com/gnames/gnvision/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfg *config.Config

func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Version: fmt.Sprintf("version: %s\nbuild:   %s",
			gnvision.Version, gnvision.Build),
		Use:   "gnvision",
		Short: "GNvision exports image datasets from observation databases",
		Long: `GNvision builds class-balanced image classification datasets
from an iNaturalist-style observation database (PostgreSQL or a SQLite
snapshot).

Features:
  - Taxonomy: reads active taxa and assembles their tree
  - Export: fills train, val and test photo sets for every taxon
    that has enough research-grade observations
  - Manifests: writes CSV manifests, a geospatial sample, the
    exported taxonomy and a summary of the run

Configuration is read from ~/.config/gnvision/config.yaml,
GNVISION_* environment variables and command line flags.`,
		PersistentPreRunE: bootstrap,
		RunE:              runRoot,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}

	// Remove the automatic "gnvision version" prefix
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Override version flag to use -V (consistent with other gn projects)
	rootCmd.Flags().BoolP("version", "V", false, "version for gnvision")

	rootCmd.AddCommand(getExportCmd())
	rootCmd.AddCommand(getSchemaCmd())

	return rootCmd
}

func bootstrap(cmd *cobra.Command, args []string) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Initialize logging with hardcoded defaults
	// Will be reconfigured later with user's config settings
	defaultLog := config.LogConfig{
		Format:      "json",
		Level:       "info",
		Destination: "file",
	}
	if err = iologger.Init(config.LogDir(homeDir), defaultLog, false); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	var cfgViper *config.Config
	if cfgViper, err = initConfig(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	cfg = config.New()
	cfg.Update(cfgViper.ToOptions())
	cfg.Update([]config.Option{config.OptHomeDir(homeDir)})

	if err = iologger.Init(config.LogDir(homeDir), cfg.Log, true); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	slog.Info("Configuration loaded",
		"config_file", config.ConfigFilePath(homeDir))

	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	versionFlag(cmd)
	return cmd.Help()
}

func initConfig(home string) (*config.Config, error) {
	var err error
	cfgPath := config.ConfigFilePath(home)
	v := viper.New()
	v.SetConfigFile(cfgPath)

	initEnvVars(v)

	if err = v.ReadInConfig(); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	var res config.Config
	if err = v.Unmarshal(&res); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	return &res, nil
}

func initEnvVars(v *viper.Viper) {
	// Only persistent fields of config.yaml can be set from environment.
	v.SetEnvPrefix("GNVISION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Database configuration
	v.BindEnv("database.host", "GNVISION_DATABASE_HOST")
	v.BindEnv("database.port", "GNVISION_DATABASE_PORT")
	v.BindEnv("database.user", "GNVISION_DATABASE_USER")
	v.BindEnv("database.password", "GNVISION_DATABASE_PASSWORD")
	v.BindEnv("database.database", "GNVISION_DATABASE_DATABASE")
	v.BindEnv("database.ssl_mode", "GNVISION_DATABASE_SSL_MODE")
	v.BindEnv("database.batch_size", "GNVISION_DATABASE_BATCH_SIZE")

	// Export configuration
	v.BindEnv("export.output_dir", "GNVISION_EXPORT_OUTPUT_DIR")
	v.BindEnv("export.train_min", "GNVISION_EXPORT_TRAIN_MIN")
	v.BindEnv("export.train_max", "GNVISION_EXPORT_TRAIN_MAX")
	v.BindEnv("export.val_min", "GNVISION_EXPORT_VAL_MIN")
	v.BindEnv("export.val_max", "GNVISION_EXPORT_VAL_MAX")
	v.BindEnv("export.test_min", "GNVISION_EXPORT_TEST_MIN")
	v.BindEnv("export.test_max", "GNVISION_EXPORT_TEST_MAX")
	v.BindEnv("export.spatial_max", "GNVISION_EXPORT_SPATIAL_MAX")
	v.BindEnv("export.train_per_observation",
		"GNVISION_EXPORT_TRAIN_PER_OBSERVATION")
	v.BindEnv("export.seed", "GNVISION_EXPORT_SEED")
	v.BindEnv("export.max_passes", "GNVISION_EXPORT_MAX_PASSES")
	v.BindEnv("export.sqlite_path", "GNVISION_EXPORT_SQLITE_PATH")

	// Log configuration
	v.BindEnv("log.level", "GNVISION_LOG_LEVEL")
	v.BindEnv("log.format", "GNVISION_LOG_FORMAT")
	v.BindEnv("log.destination", "GNVISION_LOG_DESTINATION")

	// General configuration
	v.BindEnv("jobs_number", "GNVISION_JOBS_NUMBER")

	v.AutomaticEnv()
}
