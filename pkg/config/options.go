package config

import (
	"path/filepath"
	"slices"
	"strings"
)

// Option is a function that modifies a Config.
// Options validate inputs and reject invalid values with warnings.
type Option func(*Config)

// OptDatabaseHost sets the PostgreSQL server hostname or IP address.
func OptDatabaseHost(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Host", s) {
			c.Database.Host = s
		}
	}
}

// OptDatabasePort sets the PostgreSQL server port number.
func OptDatabasePort(i int) Option {
	return func(c *Config) {
		if isValidInt("Database Port", i) {
			c.Database.Port = i
		}
	}
}

// OptDatabaseUser sets the PostgreSQL database username.
func OptDatabaseUser(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database User", s) {
			c.Database.User = s
		}
	}
}

// OptDatabasePassword sets the PostgreSQL database password.
func OptDatabasePassword(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Password", s) {
			c.Database.Password = s
		}
	}
}

// OptDatabaseDatabase sets the PostgreSQL database name to connect to.
func OptDatabaseDatabase(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Name", s) {
			c.Database.Database = s
		}
	}
}

// OptDatabaseSSLMode sets the SSL connection mode.
// Valid values: "disable", "require", "verify-ca", "verify-full".
func OptDatabaseSSLMode(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Database.SSLMode", s) {
			c.Database.SSLMode = s
		}
	}
}

// OptDatabaseBatchSize sets the width of taxon id ranges read during
// ingestion.
func OptDatabaseBatchSize(i int) Option {
	return func(c *Config) {
		if isValidInt("Batch Size", i) {
			c.Database.BatchSize = i
		}
	}
}

// OptExportOutputDir sets the directory for export files.
func OptExportOutputDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Output Directory", s) {
			c.Export.OutputDir = filepath.Clean(s)
		}
	}
}

// OptExportTaxonIDs sets the allow-list of taxa.
// Runtime-only field - not in ToOptions().
func OptExportTaxonIDs(ii []int) Option {
	return func(c *Config) {
		if len(ii) > 0 {
			c.Export.TaxonIDs = uniqueInts(ii)
		}
	}
}

// OptExportLeafTaxonIDs sets taxa that are treated as leaves.
// Runtime-only field - not in ToOptions().
func OptExportLeafTaxonIDs(ii []int) Option {
	return func(c *Config) {
		if len(ii) > 0 {
			c.Export.LeafTaxonIDs = uniqueInts(ii)
		}
	}
}

// OptExportTrainMin sets the minimal number of train photos per class.
func OptExportTrainMin(i int) Option {
	return func(c *Config) {
		if isValidInt("Train Min", i) {
			c.Export.TrainMin = i
		}
	}
}

// OptExportTrainMax sets the maximal number of train photos per class.
func OptExportTrainMax(i int) Option {
	return func(c *Config) {
		if isValidInt("Train Max", i) {
			c.Export.TrainMax = i
		}
	}
}

// OptExportValMin sets the minimal number of validation photos per class.
func OptExportValMin(i int) Option {
	return func(c *Config) {
		if isValidInt("Val Min", i) {
			c.Export.ValMin = i
		}
	}
}

// OptExportValMax sets the maximal number of validation photos per class.
func OptExportValMax(i int) Option {
	return func(c *Config) {
		if isValidInt("Val Max", i) {
			c.Export.ValMax = i
		}
	}
}

// OptExportTestMin sets the minimal number of test photos per class.
func OptExportTestMin(i int) Option {
	return func(c *Config) {
		if isValidInt("Test Min", i) {
			c.Export.TestMin = i
		}
	}
}

// OptExportTestMax sets the maximal number of test photos per class.
func OptExportTestMax(i int) Option {
	return func(c *Config) {
		if isValidInt("Test Max", i) {
			c.Export.TestMax = i
		}
	}
}

// OptExportSpatialMax sets the size limit of the geospatial sample.
func OptExportSpatialMax(i int) Option {
	return func(c *Config) {
		if isValidInt("Spatial Max", i) {
			c.Export.SpatialMax = i
		}
	}
}

// OptExportTrainPerObservation sets how many photos of one observation can
// go to the train set.
func OptExportTrainPerObservation(i int) Option {
	return func(c *Config) {
		if isValidInt("Train Photos per Observation", i) {
			c.Export.TrainPerObservation = i
		}
	}
}

// OptExportSkipAncestryMismatch makes ancestry conflicts non-fatal.
// Runtime-only field - not in ToOptions().
func OptExportSkipAncestryMismatch(b bool) Option {
	return func(c *Config) {
		c.Export.SkipAncestryMismatch = b
	}
}

// OptExportSeed sets the seed of all random shuffles.
func OptExportSeed(i int64) Option {
	return func(c *Config) {
		c.Export.Seed = i
	}
}

// OptExportMaxPasses limits the number of completion passes.
func OptExportMaxPasses(i int) Option {
	return func(c *Config) {
		if isValidInt("Max Passes", i) {
			c.Export.MaxPasses = i
		}
	}
}

// OptExportSQLitePath sets the path to a SQLite snapshot of source tables.
func OptExportSQLitePath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("SQLite Path", s) {
			c.Export.SQLitePath = s
		}
	}
}

// OptLogLevel sets the logging level.
// Valid values: "debug", "info", "warn", "error".
func OptLogLevel(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Level", s) {
			c.Log.Level = s
		}
	}
}

// OptLogFormat sets the log output format.
// Valid values: "json", "text", "tint".
func OptLogFormat(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Format", s) {
			c.Log.Format = s
		}
	}
}

// OptLogDestination sets where logs are written.
// Valid values: "file", "stderr", "stdout".
func OptLogDestination(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Destination", s) {
			c.Log.Destination = s
		}
	}
}

// OptJobsNumber sets the number of concurrent workers.
func OptJobsNumber(i int) Option {
	return func(c *Config) {
		if isValidInt("Jobs Number", i) {
			c.JobsNumber = i
		}
	}
}

// OptHomeDir sets the home directory for config, cache, and log locations.
// Set once at startup from os.UserHomeDir().
// Runtime-only field - not in ToOptions().
func OptHomeDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Home Directory", s) {
			c.HomeDir = s
		}
	}
}

func uniqueInts(ii []int) []int {
	res := slices.Clone(ii)
	slices.Sort(res)
	return slices.Compact(res)
}
