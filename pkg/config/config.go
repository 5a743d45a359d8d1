// Package config provides configuration management for GNvision.
//
// This package has no I/O dependencies (no file operations, no network calls).
// Validation functions may write user-facing warnings via gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > config.yaml > defaults
//
// # Design Principles
//
// - Default config (from New()) is always valid
// - All mutations go through Option functions - the only way to modify Config
// - Invalid options are rejected with gn.Warn() - config remains in valid state
// - Cross-field rules (min <= max for every split) are checked once by Validate()
// - ToOptions() converts persistent fields (those in config.yaml)
//
// # Persistent vs Runtime Fields
//
// Persistent fields (in ToOptions, config.yaml, and env vars):
//   - Database: host, port, user, password, database, ssl_mode, batch_size
//   - Export: output_dir, quotas, seed, max_passes, sqlite_path
//   - Log: level, format, destination
//   - General: jobs_number
//
// Runtime-only fields (CLI flags only):
//   - Export.TaxonIDs, Export.LeafTaxonIDs, Export.SkipAncestryMismatch
//   - HomeDir (set once at startup)
//
// # Environment Variables
//
// Use GNVISION_ prefix with underscores for nesting:
//
//	GNVISION_DATABASE_HOST=localhost
//	GNVISION_EXPORT_OUTPUT_DIR=/data/vision
//	GNVISION_LOG_LEVEL=info
//	GNVISION_JOBS_NUMBER=8
package config

// Config represents the complete GNvision configuration.
type Config struct {
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Export contains dataset quotas and output settings.
	Export ExportConfig `mapstructure:"export" yaml:"export"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// JobsNumber is the number of taxa looked up concurrently, and the number
	// of concurrent taxa ingestion batches. The work is bound by database
	// latency, not CPU, so the default is small and fixed.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// HomeDir determines where config, cache and logs directories reside.
	// It must be set by CLI during init, there is no default value for it.
	HomeDir string `yaml:"-"`
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname or IP address.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the PostgreSQL server port number.
	Port int `mapstructure:"port" yaml:"port"`

	// User is the PostgreSQL database username.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the PostgreSQL database password.
	Password string `mapstructure:"password" yaml:"password"`

	// Database is the PostgreSQL database name to connect to.
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode specifies the SSL connection mode.
	// Valid values: "disable", "require", "verify-ca", "verify-full"
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode"`

	// BatchSize is the width of taxon id ranges read during taxonomy
	// ingestion.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
}

// ExportConfig contains settings of the dataset export.
type ExportConfig struct {
	// OutputDir is the directory that receives all export files.
	// It must exist and be readable and writable.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// TaxonIDs is an optional allow-list. When not empty, only these taxa,
	// their descendants and their ancestors are considered.
	TaxonIDs []int `mapstructure:"taxon_ids" yaml:"-"`

	// LeafTaxonIDs are taxa treated as leaves regardless of their children.
	LeafTaxonIDs []int `mapstructure:"leaf_taxon_ids" yaml:"-"`

	TrainMin int `mapstructure:"train_min" yaml:"train_min"`
	TrainMax int `mapstructure:"train_max" yaml:"train_max"`
	ValMin   int `mapstructure:"val_min"   yaml:"val_min"`
	ValMax   int `mapstructure:"val_max"   yaml:"val_max"`
	TestMin  int `mapstructure:"test_min"  yaml:"test_min"`
	TestMax  int `mapstructure:"test_max"  yaml:"test_max"`

	// SpatialMax is the maximum number of observations in the geospatial
	// sample of one taxon.
	SpatialMax int `mapstructure:"spatial_max" yaml:"spatial_max"`

	// TrainPerObservation is the maximum number of photos of one observation
	// in the train set. Values below 2 disable multi-photo enrichment.
	TrainPerObservation int `mapstructure:"train_per_observation" yaml:"train_per_observation"`

	// SkipAncestryMismatch logs conflicting parents during ingestion
	// instead of stopping the export.
	SkipAncestryMismatch bool `mapstructure:"skip_ancestry_mismatch" yaml:"-"`

	// Seed makes shuffling reproducible. Two runs with the same data and
	// seed produce the same class indices and set memberships.
	Seed int64 `mapstructure:"seed" yaml:"seed"`

	// MaxPasses limits the number of completion passes over the taxonomy.
	// Zero means the number of ingested taxa plus one.
	MaxPasses int `mapstructure:"max_passes" yaml:"max_passes"`

	// SQLitePath points to a SQLite snapshot of the source tables.
	// When empty, data is read from PostgreSQL.
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json', 'text' or 'tint' (user-facing and colored).
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), STDERR or STDOUT
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// Quota defaults.
const (
	DefaultTrainMin            = 50
	DefaultTrainMax            = 1000
	DefaultValMin              = 25
	DefaultValMax              = 100
	DefaultTestMin             = 25
	DefaultTestMax             = 100
	DefaultSpatialMax          = 5000
	DefaultTrainPerObservation = 5
)

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
// Default values can be overridden using Option functions via Update().
func New() *Config {
	res := &Config{
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      5432,
			User:      "postgres",
			Password:  "postgres",
			Database:  "inaturalist",
			SSLMode:   "disable",
			BatchSize: 1000,
		},
		Export: ExportConfig{
			TrainMin:            DefaultTrainMin,
			TrainMax:            DefaultTrainMax,
			ValMin:              DefaultValMin,
			ValMax:              DefaultValMax,
			TestMin:             DefaultTestMin,
			TestMax:             DefaultTestMax,
			SpatialMax:          DefaultSpatialMax,
			TrainPerObservation: DefaultTrainPerObservation,
			Seed:                1,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			// for now file is rewritten every time the log starts
			Destination: "file",
		},
		JobsNumber: 5,
	}

	return res
}
