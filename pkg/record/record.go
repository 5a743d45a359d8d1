// Package record contains rows read from the observation database. The
// types carry no behavior besides small helpers; they are shared by the
// store contract, the fetcher and the allocator.
package record

import "time"

// TaxonRow is a row of the taxa table.
type TaxonRow struct {
	ID int

	// Ancestry is a '/'-separated list of ancestor ids from the top of the
	// tree to the parent of the taxon. It is empty for top-level taxa.
	Ancestry string

	Rank      string
	RankLevel float64
	Name      string

	ObservationsCount int

	// IconicTaxonID is 0 when the taxon has no iconic ancestor.
	IconicTaxonID int
}

// Tier is the confidence level of the taxon assignment of an observation.
type Tier int

const (
	// Community observations have a community taxon inside the exported
	// clade.
	Community Tier = iota
	// Uncurated observations were identified inside the clade by the
	// uploader only.
	Uncurated
)

func (t Tier) String() string {
	switch t {
	case Community:
		return "community"
	case Uncurated:
		return "uncurated"
	default:
		return "unknown"
	}
}

// Observation is a candidate observation of a taxon.
type Observation struct {
	ID int

	// Latitude and Longitude use private coordinates when they exist.
	Latitude  float64
	Longitude float64
	// HasCoords is false when either coordinate is NULL.
	HasCoords bool

	// PositionalAccuracy in meters, nil when unknown.
	PositionalAccuracy *int

	// ObservedOn is zero when the date is unknown.
	ObservedOn time.Time

	// TaxonID is the identification of the uploader.
	TaxonID int
	// CommunityTaxonID is 0 when there is no community consensus.
	CommunityTaxonID int

	// Captive is set by a net-negative "wild" quality metric.
	Captive bool
	// FailsNonWildMetric is set by any other net-negative quality metric.
	FailsNonWildMetric bool
}

// ObservationPhoto links a photo to its observation.
type ObservationPhoto struct {
	PhotoID       int
	ObservationID int

	// Position is a dense zero-based position of the photo within its
	// observation.
	Position int
	// Siblings is the number of eligible photos of the observation.
	Siblings int

	// URL of the medium-size image.
	URL string
}

// QualityVote is one vote on a quality metric of an observation.
type QualityVote struct {
	ObservationID int
	Metric        string
	Agree         bool
}

// WildMetric is the quality metric that marks captive organisms.
const WildMetric = "wild"

// Flaggable types of the flags table.
const (
	FlagObservation = "Observation"
	FlagPhoto       = "Photo"
)
