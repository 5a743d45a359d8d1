// Package store declares access to the observation database.
//
// Implementations live in internal/iostore: one reads PostgreSQL, another
// reads a SQLite snapshot of the same tables.
package store

import (
	"context"

	"github.com/gnames/gnvision/pkg/record"
)

// ObservationQuery selects candidate observations of a clade.
type ObservationQuery struct {
	// TaxonIDs are active ids of the clade.
	TaxonIDs []int

	// Tier selects community observations, whose community taxon is in
	// TaxonIDs, or uncurated ones, whose uploader taxon is in TaxonIDs and
	// whose community taxon is not.
	Tier record.Tier

	// Limit caps the number of rows, 0 means no limit.
	Limit int
}

// Store reads taxa, observations, photos and quality signals.
// Results are ordered by id unless stated otherwise.
type Store interface {
	// MaxTaxonID returns the largest taxon id.
	MaxTaxonID(ctx context.Context) (int, error)

	// TaxaRange returns eligible taxa with start < id <= end. Eligible taxa
	// are active, not hybrids, have rank level of at least 10 and at least
	// 50 observations.
	TaxaRange(ctx context.Context, start, end int) ([]record.TaxonRow, error)

	// TaxaByIDs returns taxa with the given ids without any filters.
	TaxaByIDs(ctx context.Context, ids []int) ([]record.TaxonRow, error)

	// ExtinctTaxonIDs returns taxa that are extinct globally.
	ExtinctTaxonIDs(ctx context.Context) ([]int, error)

	// TaxonIDs returns the taxon and its active descendants. The ancestry
	// includes the id of the taxon itself.
	TaxonIDs(ctx context.Context, id int, ancestry string) ([]int, error)

	// Observations returns observations with photos.
	Observations(ctx context.Context, q ObservationQuery) ([]record.Observation, error)

	// QualityMetrics returns quality votes of observations.
	QualityMetrics(ctx context.Context, obsIDs []int) ([]record.QualityVote, error)

	// UnresolvedFlags returns ids of objects of the given flaggable type
	// that have unresolved flags.
	UnresolvedFlags(ctx context.Context, flaggable string, ids []int) ([]int, error)

	// ObservationPhotos returns links between observations and photos.
	// Position is the photo id when the stored position is NULL.
	ObservationPhotos(ctx context.Context, obsIDs []int) ([]record.ObservationPhoto, error)

	// PhotoURLs returns medium URLs of photos that have one.
	PhotoURLs(ctx context.Context, photoIDs []int) (map[int]string, error)

	// Close releases connections.
	Close() error
}
