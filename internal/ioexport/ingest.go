package ioexport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gnfmt"
	"github.com/gnames/gnvision/pkg/record"
	"github.com/gnames/gnvision/pkg/taskpool"
	"github.com/gnames/gnvision/pkg/taxon"
)

// ingest reads eligible taxa in id ranges concurrently, adds them to the
// index in id order, then fills ancestors that did not pass the filters of
// the range query. The order matters when ancestry mismatches are
// tolerated: the parent from the row with the largest id wins.
func (e *exporter) ingest(ctx context.Context) (*taxon.Index, error) {
	start := time.Now()
	idx := taxon.NewIndex(e.cfg.Export.SkipAncestryMismatch)

	maxID, err := e.st.MaxTaxonID(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	batch := max(e.cfg.Database.BatchSize, 1)
	var mu sync.Mutex
	batches := make(map[int][]record.TaxonRow)
	var from, num int
	next := func() (taskpool.Task, bool) {
		if from >= maxID {
			return taskpool.Task{}, false
		}
		i, lo, hi := num, from, min(from+batch, maxID)
		from, num = hi, num+1
		task := taskpool.Task{
			Name: fmt.Sprintf("taxa %d-%d", lo+1, hi),
			Do: func(ctx context.Context) error {
				rows, err := e.st.TaxaRange(ctx, lo, hi)
				if err != nil {
					cancel(err)
					return err
				}
				mu.Lock()
				batches[i] = rows
				mu.Unlock()
				return nil
			},
		}
		return task, true
	}

	stats := taskpool.Run(ctx, e.cfg.JobsNumber, next)
	if err = context.Cause(ctx); err != nil {
		return nil, err
	}
	if stats.Failed > 0 {
		return nil, IngestBatchError(stats.Failed)
	}

	for i := range num {
		if err = addRows(idx, batches[i]); err != nil {
			return nil, err
		}
	}

	if err = e.ingestUnnamed(ctx, idx); err != nil {
		return nil, err
	}
	if idx.Len() == 0 {
		return nil, EmptyTaxonomyError()
	}

	slog.Info("Taxonomy ingested",
		"taxa", humanize.Comma(int64(idx.Len())),
		"batches", stats.Started,
		"mismatches", idx.Mismatches(),
		"duration", gnfmt.TimeString(time.Since(start).Seconds()),
	)
	return idx, nil
}

func addRows(idx *taxon.Index, rows []record.TaxonRow) error {
	for _, row := range rows {
		if err := idx.Add(row); err != nil {
			return err
		}
	}
	return nil
}

// ingestUnnamed reads ancestors that are known only from ancestry chains.
func (e *exporter) ingestUnnamed(ctx context.Context, idx *taxon.Index) error {
	ids := idx.Unnamed()
	if len(ids) == 0 {
		return nil
	}

	rows, err := e.st.TaxaByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if err = addRows(idx, rows); err != nil {
		return err
	}

	if left := len(idx.Unnamed()); left > 0 {
		slog.Warn("Taxa without records", "count", left)
	}
	return nil
}
