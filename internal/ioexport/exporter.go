// Package ioexport runs a dataset export. It ingests the taxonomy from a
// store, drives the completion passes, commits lookup results to the
// manifests in a deterministic order and writes the taxonomy files and the
// run summary.
package ioexport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gnfmt"
	"github.com/gnames/gnvision/internal/iofs"
	"github.com/gnames/gnvision/internal/iosink"
	gnvision "github.com/gnames/gnvision/pkg"
	"github.com/gnames/gnvision/pkg/allocate"
	"github.com/gnames/gnvision/pkg/completion"
	"github.com/gnames/gnvision/pkg/config"
	"github.com/gnames/gnvision/pkg/fetch"
	"github.com/gnames/gnvision/pkg/store"
	"github.com/gnames/gnvision/pkg/taxon"
	"github.com/google/uuid"
	"github.com/twpayne/go-geom"
)

// exporter keeps the state of one export run.
type exporter struct {
	cfg      *config.Config
	st       store.Store
	progress io.Writer

	quotas  allocate.Quotas
	fetcher *fetch.Fetcher
	classes *allocate.Classes

	idx    *taxon.Index
	engine *completion.Engine
	m      *iosink.Manifests

	// totals and bounds are changed only by the committer.
	totals [3]int
	points int
	bounds *geom.Bounds
}

// Option customizes an exporter.
type Option func(*exporter)

// OptProgress sets where progress bars are drawn, nil hides them.
func OptProgress(w io.Writer) Option {
	return func(e *exporter) {
		e.progress = w
	}
}

// New creates an Exporter that reads data from st.
func New(
	cfg *config.Config,
	st store.Store,
	opts ...Option,
) gnvision.Exporter {
	res := &exporter{
		cfg:      cfg,
		st:       st,
		progress: os.Stderr,
		quotas:   allocate.NewQuotas(cfg.Export),
		fetcher:  fetch.New(st),
		classes:  allocate.NewClasses(),
		bounds:   geom.NewBounds(geom.XY),
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Export runs all stages of the export. Files written before an error are
// left in the output directory.
func (e *exporter) Export(ctx context.Context) (gnvision.Summary, error) {
	var res gnvision.Summary
	start := time.Now()

	if err := e.cfg.Validate(); err != nil {
		return res, err
	}
	dir := e.cfg.Export.OutputDir
	if err := iofs.CheckOutputDir(dir); err != nil {
		return res, err
	}

	m, err := iosink.OpenManifests(dir)
	if err != nil {
		return res, err
	}
	e.m = m

	err = e.run(ctx)
	if cerr := m.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		return res, err
	}

	res = e.summary(start)
	if err = writeSummary(dir, res); err != nil {
		return res, err
	}

	slog.Info("Export finished",
		"leaves", humanize.Comma(int64(res.Leaves)),
		"train", humanize.Comma(int64(res.TrainPhotos)),
		"val", humanize.Comma(int64(res.ValPhotos)),
		"test", humanize.Comma(int64(res.TestPhotos)),
		"duration", res.Duration,
	)
	return res, nil
}

func (e *exporter) run(ctx context.Context) error {
	var err error
	if e.idx, err = e.ingest(ctx); err != nil {
		return err
	}

	extinct, err := e.st.ExtinctTaxonIDs(ctx)
	if err != nil {
		return err
	}
	slog.Info("Extinct taxa loaded", "count", len(extinct))

	assessor := taxon.NewAssessor(e.idx, extinct, e.cfg.Export.TaxonIDs)
	e.engine = completion.New(
		e.idx, assessor, e.cfg.Export.LeafTaxonIDs, e.cfg.Export.MaxPasses,
	)
	if err = e.engine.Run(ctx, e.drain); err != nil {
		return err
	}

	if err = e.writeTaxonomy(ctx); err != nil {
		return err
	}
	return e.writeIconic(ctx)
}

func (e *exporter) summary(start time.Time) gnvision.Summary {
	res := gnvision.Summary{
		RunID:         uuid.NewString(),
		Version:       gnvision.Version,
		Source:        e.source(),
		StartedAt:     start.UTC().Truncate(time.Second),
		Duration:      gnfmt.TimeString(time.Since(start).Seconds()),
		Export:        e.cfg.Export,
		JobsNumber:    e.cfg.JobsNumber,
		Taxa:          e.idx.Len(),
		Passes:        e.engine.Passes(),
		Statuses:      make(map[string]int),
		FailedLookups: e.engine.Failed(),
		Leaves:        len(e.classes.Leaves()),
		IconicClasses: len(e.classes.IconicIDs()),
		TrainPhotos:   e.totals[allocate.Train],
		ValPhotos:     e.totals[allocate.Val],
		TestPhotos:    e.totals[allocate.Test],
		SpatialPoints: e.points,
	}
	for k, v := range e.idx.Tally() {
		res.Statuses[k.String()] = v
	}
	if !e.bounds.IsEmpty() {
		res.Extent = &gnvision.Extent{
			MinLongitude: e.bounds.Min(0),
			MaxLongitude: e.bounds.Max(0),
			MinLatitude:  e.bounds.Min(1),
			MaxLatitude:  e.bounds.Max(1),
		}
	}
	return res
}

func (e *exporter) source() string {
	if e.cfg.Export.SQLitePath != "" {
		return "sqlite:" + e.cfg.Export.SQLitePath
	}
	db := e.cfg.Database
	return fmt.Sprintf("postgresql://%s:%d/%s", db.Host, db.Port, db.Database)
}
