// Package taxon keeps the taxonomy of an export run in memory.
//
// Index is an arena of taxa addressed by id, with a children adjacency
// table rooted at the virtual taxon 0. Assessor decides which taxa are
// excluded from the export before any data is looked up for them.
package taxon

import "github.com/gnames/gnvision/pkg/record"

// RootID is the id of the virtual root of the taxonomy.
const RootID = 0

// Status describes how far the export got with a taxon.
type Status int

const (
	// Unset taxa were not resolved yet.
	Unset Status = iota
	// Populated taxa have enough photos for every split and are exported.
	Populated
	// Incomplete taxa were looked up but do not reach the minimums.
	Incomplete
	// Skipped taxa are excluded together with their subtree.
	Skipped
	// Complete taxa are covered by populated or complete descendants.
	Complete
)

var statusNames = map[Status]string{
	Unset:      "unset",
	Populated:  "populated",
	Incomplete: "incomplete",
	Skipped:    "skipped",
	Complete:   "complete",
}

func (s Status) String() string {
	if res, ok := statusNames[s]; ok {
		return res
	}
	return "unknown"
}

// Terminal is true for every status except Unset.
func (s Status) Terminal() bool {
	return s != Unset
}

// Covers is true if a child with this status makes its parent complete.
func (s Status) Covers() bool {
	return s == Populated || s == Complete
}

// Taxon is a node of the taxonomy.
type Taxon struct {
	ID       int
	ParentID int

	Rank              string
	RankLevel         float64
	Name              string
	ObservationsCount int
	IconicTaxonID     int

	Status Status

	// Photos per split, recorded when the taxon is looked up.
	TrainCount int
	ValCount   int
	TestCount  int
}

// Placeholder is true for taxa that were seen only in ancestry chains.
func (t Taxon) Placeholder() bool {
	return t.Name == ""
}

func (t *Taxon) fill(row record.TaxonRow) {
	t.Rank = row.Rank
	t.RankLevel = row.RankLevel
	t.Name = row.Name
	t.ObservationsCount = row.ObservationsCount
	t.IconicTaxonID = row.IconicTaxonID
}
