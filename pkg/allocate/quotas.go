// Package allocate distributes photos of one taxon into train, validation
// and test splits, and picks a geospatial sample of its observations.
package allocate

import "github.com/gnames/gnvision/pkg/config"

// ChunkSize is the number of observations processed at once. Processing
// stops between chunks when all maximums are reached.
const ChunkSize = 500

// Quotas are per-class limits of the dataset.
type Quotas struct {
	TrainMin, TrainMax int
	ValMin, ValMax     int
	TestMin, TestMax   int

	SpatialMax int

	// TrainPerObservation limits photos of one observation in train.
	// Values below 2 disable enrichment.
	TrainPerObservation int
}

// NewQuotas takes quotas from the export settings.
func NewQuotas(cfg config.ExportConfig) Quotas {
	return Quotas{
		TrainMin:            cfg.TrainMin,
		TrainMax:            cfg.TrainMax,
		ValMin:              cfg.ValMin,
		ValMax:              cfg.ValMax,
		TestMin:             cfg.TestMin,
		TestMax:             cfg.TestMax,
		SpatialMax:          cfg.SpatialMax,
		TrainPerObservation: cfg.TrainPerObservation,
	}
}

// Split is one of the dataset partitions.
type Split int

const (
	Train Split = iota
	Val
	Test
)

// Splits lists all splits.
var Splits = []Split{Train, Val, Test}

func (s Split) String() string {
	switch s {
	case Train:
		return "train"
	case Val:
		return "val"
	case Test:
		return "test"
	default:
		return "unknown"
	}
}

func (q Quotas) min(s Split) int {
	switch s {
	case Train:
		return q.TrainMin
	case Val:
		return q.ValMin
	default:
		return q.TestMin
	}
}

func (q Quotas) max(s Split) int {
	switch s {
	case Train:
		return q.TrainMax
	case Val:
		return q.ValMax
	default:
		return q.TestMax
	}
}
