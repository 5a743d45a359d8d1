// Package schema provides models of the observation database tables that
// GNvision reads. Only columns used by the export are modeled. The models
// create development and test databases: PostgreSQL through GORM
// AutoMigrate, SQLite snapshots through generated DDL.
package schema

import (
	"database/sql"
)

// DDLGenerator defines how Go models generate DDL.
type DDLGenerator interface {
	// TableDDL returns the CREATE TABLE statement for this model.
	TableDDL() string

	// IndexDDL returns CREATE INDEX statements for this model.
	// Returns empty slice if no indexes needed.
	IndexDDL() []string

	// TableName returns the table name for this model.
	TableName() string
}

// Taxon is a node of the taxonomy.
type Taxon struct {
	ID int `db:"id" ddl:"INTEGER PRIMARY KEY"`

	// Ancestry is a '/'-separated list of ancestor ids, NULL for top-level
	// taxa.
	Ancestry sql.NullString `db:"ancestry" ddl:"VARCHAR(255)"`

	Rank string `db:"rank" ddl:"VARCHAR(50)"`

	// RankLevel is 10 for species, 70 for kingdoms.
	RankLevel float64 `db:"rank_level" ddl:"DOUBLE PRECISION" gorm:"type:double precision"`

	Name string `db:"name" ddl:"VARCHAR(255)"`

	// ObservationsCount is the number of observations of the clade.
	ObservationsCount int `db:"observations_count" ddl:"INTEGER NOT NULL DEFAULT 0"`

	IconicTaxonID sql.NullInt64 `db:"iconic_taxon_id" ddl:"INTEGER"`

	IsActive bool `db:"is_active" ddl:"BOOLEAN NOT NULL DEFAULT TRUE"`
}

// Observation is a record of an organism at a place and time.
type Observation struct {
	ID int `db:"id" ddl:"INTEGER PRIMARY KEY"`

	Latitude  sql.NullFloat64 `db:"latitude" ddl:"DOUBLE PRECISION"`
	Longitude sql.NullFloat64 `db:"longitude" ddl:"DOUBLE PRECISION"`

	// PrivateLatitude and PrivateLongitude are true coordinates of
	// obscured observations.
	PrivateLatitude  sql.NullFloat64 `db:"private_latitude" ddl:"DOUBLE PRECISION"`
	PrivateLongitude sql.NullFloat64 `db:"private_longitude" ddl:"DOUBLE PRECISION"`

	// PositionalAccuracy is in meters.
	PositionalAccuracy sql.NullInt64 `db:"positional_accuracy" ddl:"INTEGER"`

	// ObservedOn is a date in YYYY-MM-DD format.
	ObservedOn sql.NullString `db:"observed_on" ddl:"DATE" gorm:"type:date"`

	// TaxonID is the identification of the uploader.
	TaxonID sql.NullInt64 `db:"taxon_id" ddl:"INTEGER"`

	// CommunityTaxonID is the consensus of identifiers.
	CommunityTaxonID sql.NullInt64 `db:"community_taxon_id" ddl:"INTEGER"`

	ObservationPhotosCount int `db:"observation_photos_count" ddl:"INTEGER NOT NULL DEFAULT 0"`
}

// ObservationPhoto links photos to observations.
type ObservationPhoto struct {
	ID            int           `db:"id" ddl:"INTEGER PRIMARY KEY"`
	ObservationID int           `db:"observation_id" ddl:"INTEGER NOT NULL"`
	PhotoID       int           `db:"photo_id" ddl:"INTEGER NOT NULL"`
	Position      sql.NullInt64 `db:"position" ddl:"INTEGER"`
}

// Photo is an image file.
type Photo struct {
	ID int `db:"id" ddl:"INTEGER PRIMARY KEY"`

	// MediumURL points to a medium-size version of the image.
	MediumURL sql.NullString `db:"medium_url" ddl:"TEXT"`
}

// QualityMetric is a vote on a data quality aspect of an observation.
type QualityMetric struct {
	ID            int    `db:"id" ddl:"INTEGER PRIMARY KEY"`
	ObservationID int    `db:"observation_id" ddl:"INTEGER NOT NULL"`
	Metric        string `db:"metric" ddl:"VARCHAR(50) NOT NULL"`
	Agree         bool   `db:"agree" ddl:"BOOLEAN NOT NULL DEFAULT TRUE"`
}

// Flag reports a problem with an observation or a photo.
type Flag struct {
	ID int `db:"id" ddl:"INTEGER PRIMARY KEY"`

	// FlaggableType is 'Observation' or 'Photo'.
	FlaggableType string `db:"flaggable_type" ddl:"VARCHAR(50) NOT NULL"`
	FlaggableID   int    `db:"flaggable_id" ddl:"INTEGER NOT NULL"`
	Resolved      bool   `db:"resolved" ddl:"BOOLEAN NOT NULL DEFAULT FALSE"`
}

// ConservationStatus of a taxon, globally when PlaceID is NULL.
type ConservationStatus struct {
	ID      int           `db:"id" ddl:"INTEGER PRIMARY KEY"`
	TaxonID int           `db:"taxon_id" ddl:"INTEGER NOT NULL"`
	PlaceID sql.NullInt64 `db:"place_id" ddl:"INTEGER"`

	// IUCN code, 70 means extinct.
	IUCN int `db:"iucn" ddl:"INTEGER" gorm:"column:iucn"`
}

// IUCNExtinct is the IUCN code of extinct taxa.
const IUCNExtinct = 70
