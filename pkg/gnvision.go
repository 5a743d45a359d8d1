// Package gnvision declares the main contracts of GNvision, a tool that
// exports class-balanced image classification datasets from observation
// databases.
package gnvision

import (
	"context"
	"time"

	"github.com/gnames/gnvision/pkg/config"
)

var (
	// Version of GNvision, set by build flags.
	Version = "v0.1.0"
	// Build timestamp, set by build flags.
	Build = "n/a"
)

// Exporter creates dataset manifests in the output directory.
type Exporter interface {
	// Export runs the whole export and returns its summary.
	Export(ctx context.Context) (Summary, error)
}

// SchemaManager creates source tables in an empty database. It is used for
// development and integration tests.
type SchemaManager interface {
	Create(ctx context.Context) error
}

// Summary describes a finished export. It is saved as export_summary.yaml.
type Summary struct {
	RunID     string    `yaml:"run_id"`
	Version   string    `yaml:"version"`
	Source    string    `yaml:"source"`
	StartedAt time.Time `yaml:"started_at"`
	Duration  string    `yaml:"duration"`

	Export     config.ExportConfig `yaml:"export"`
	JobsNumber int                 `yaml:"jobs_number"`

	Taxa          int            `yaml:"taxa"`
	Passes        int            `yaml:"passes"`
	Statuses      map[string]int `yaml:"statuses"`
	FailedLookups []int          `yaml:"failed_lookups,omitempty"`

	Leaves        int `yaml:"leaves"`
	IconicClasses int `yaml:"iconic_classes"`

	TrainPhotos   int `yaml:"train_photos"`
	ValPhotos     int `yaml:"val_photos"`
	TestPhotos    int `yaml:"test_photos"`
	SpatialPoints int `yaml:"spatial_points"`

	// Extent of the geospatial sample, nil when the sample is empty.
	Extent *Extent `yaml:"extent,omitempty"`
}

// Extent is a bounding box in degrees.
type Extent struct {
	MinLatitude  float64 `yaml:"min_latitude"`
	MaxLatitude  float64 `yaml:"max_latitude"`
	MinLongitude float64 `yaml:"min_longitude"`
	MaxLongitude float64 `yaml:"max_longitude"`
}
