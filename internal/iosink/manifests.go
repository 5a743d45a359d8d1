package iosink

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gnames/gnlib"
)

// File names of the export.
const (
	TrainFile    = "train_data.csv"
	ValFile      = "val_data.csv"
	TestFile     = "test_data.csv"
	SpatialFile  = "spatial_data.csv"
	TaxonomyFile = "taxonomy.csv"
	IconicFile   = "iconic_taxa.csv"
	VisualFile   = "taxonomy_visual.txt"
	SummaryFile  = "export_summary.yaml"
)

var (
	photoHeader = []string{
		"photo_id", "photo_url", "leaf_class_id", "iconic_class_id", "taxon_id",
		"community",
	}
	spatialHeader = []string{
		"observation_id", "latitude", "longitude", "observed_on",
		"leaf_class_id", "iconic_class_id", "taxon_id", "community", "captive",
	}
	taxonomyHeader = []string{
		"parent_taxon_id", "taxon_id", "rank_level", "leaf_class_id",
		"iconic_class_id", "name",
	}
	iconicHeader = []string{"iconic_taxon_id", "iconic_class_id", "name"}
)

// PhotoRow is a line of train, val or test manifest.
type PhotoRow struct {
	PhotoID     int
	URL         string
	LeafClass   int
	IconicClass int
	TaxonID     int
	Community   bool
}

// SpatialRow is a line of the geospatial sample.
type SpatialRow struct {
	ObservationID int
	Latitude      float64
	Longitude     float64
	ObservedOn    time.Time
	LeafClass     int
	IconicClass   int
	TaxonID       int
	Community     bool
	Captive       bool
}

// TaxonomyRow is a line of taxonomy.csv. ParentID 0 is written as an empty
// field, Exported false leaves class fields empty.
type TaxonomyRow struct {
	ParentID    int
	TaxonID     int
	RankLevel   float64
	Exported    bool
	LeafClass   int
	IconicClass int
	Name        string
}

// IconicRow is a line of iconic_taxa.csv.
type IconicRow struct {
	IconicTaxonID int
	Class         int
	Name          string
}

// Manifests holds all files of one export.
type Manifests struct {
	Dir string

	Train    *Sink
	Val      *Sink
	Test     *Sink
	Spatial  *Sink
	Taxonomy *Sink
	Iconic   *Sink
	Visual   *Sink
}

// OpenManifests creates all files in dir, overwriting existing ones.
// Files that were created before an error are closed.
func OpenManifests(dir string) (*Manifests, error) {
	res := &Manifests{Dir: dir}
	csvs := []struct {
		sink   **Sink
		name   string
		header []string
	}{
		{&res.Train, TrainFile, photoHeader},
		{&res.Val, ValFile, photoHeader},
		{&res.Test, TestFile, photoHeader},
		{&res.Spatial, SpatialFile, spatialHeader},
		{&res.Taxonomy, TaxonomyFile, taxonomyHeader},
		{&res.Iconic, IconicFile, iconicHeader},
	}

	for _, v := range csvs {
		s, err := NewCSV(filepath.Join(dir, v.name), v.header)
		if err != nil {
			_ = res.Close()
			return nil, err
		}
		*v.sink = s
	}

	s, err := NewText(filepath.Join(dir, VisualFile))
	if err != nil {
		_ = res.Close()
		return nil, err
	}
	res.Visual = s
	return res, nil
}

// Close closes all files and joins their errors.
func (m *Manifests) Close() error {
	var errs []error
	for _, s := range m.sinks() {
		if s == nil {
			continue
		}
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

func (m *Manifests) sinks() []*Sink {
	return []*Sink{
		m.Train, m.Val, m.Test, m.Spatial, m.Taxonomy, m.Iconic, m.Visual,
	}
}

// WritePhoto appends a row to a photo manifest.
func WritePhoto(ctx context.Context, s *Sink, r PhotoRow) error {
	return s.Write(ctx,
		strconv.Itoa(r.PhotoID),
		StripQuery(r.URL),
		strconv.Itoa(r.LeafClass),
		strconv.Itoa(r.IconicClass),
		strconv.Itoa(r.TaxonID),
		flag(r.Community),
	)
}

// WriteSpatial appends a row to the geospatial sample.
func (m *Manifests) WriteSpatial(ctx context.Context, r SpatialRow) error {
	var date string
	if !r.ObservedOn.IsZero() {
		date = r.ObservedOn.Format(time.DateOnly)
	}
	return m.Spatial.Write(ctx,
		strconv.Itoa(r.ObservationID),
		coord(r.Latitude),
		coord(r.Longitude),
		date,
		strconv.Itoa(r.LeafClass),
		strconv.Itoa(r.IconicClass),
		strconv.Itoa(r.TaxonID),
		flag(r.Community),
		flag(r.Captive),
	)
}

// WriteTaxon appends a row to taxonomy.csv.
func (m *Manifests) WriteTaxon(ctx context.Context, r TaxonomyRow) error {
	var parent, leaf, iconic string
	if r.ParentID != 0 {
		parent = strconv.Itoa(r.ParentID)
	}
	if r.Exported {
		leaf = strconv.Itoa(r.LeafClass)
		iconic = strconv.Itoa(r.IconicClass)
	}
	return m.Taxonomy.Write(ctx,
		parent,
		strconv.Itoa(r.TaxonID),
		strconv.FormatFloat(r.RankLevel, 'f', -1, 64),
		leaf,
		iconic,
		strings.ReplaceAll(CleanName(r.Name), ",", ""),
	)
}

// WriteIconic appends a row to iconic_taxa.csv.
func (m *Manifests) WriteIconic(ctx context.Context, r IconicRow) error {
	return m.Iconic.Write(ctx,
		strconv.Itoa(r.IconicTaxonID),
		strconv.Itoa(r.Class),
		CleanName(r.Name),
	)
}

// WriteVisual appends a line to taxonomy_visual.txt.
func (m *Manifests) WriteVisual(ctx context.Context, line string) error {
	return m.Visual.Write(ctx, line)
}

// StripQuery removes the query string from a URL.
func StripQuery(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}

// CleanName replaces broken UTF-8 sequences of a name and trims spaces.
func CleanName(name string) string {
	return strings.TrimSpace(gnlib.FixUtf8(name))
}

// coord rounds a coordinate to 4 decimal places, about 11 meters.
// Values that round to zero are written as 0, never as -0.
func coord(f float64) string {
	res := math.Round(f*1e4) / 1e4
	if res == 0 {
		res = 0
	}
	return strconv.FormatFloat(res, 'f', -1, 64)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
