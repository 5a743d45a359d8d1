package ioexport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/gnfmt"
	"github.com/gnames/gnvision/internal/iosink"
	"github.com/gnames/gnvision/pkg/allocate"
	"github.com/gnames/gnvision/pkg/taskpool"
	"github.com/gnames/gnvision/pkg/taxon"
)

// windowFactor times JobsNumber is the number of lookups that can finish
// ahead of the oldest uncommitted one.
const windowFactor = 4

type lookupResult struct {
	id  int
	res allocate.Result
	err error
}

// drain looks up a frontier concurrently. Results are committed in the
// order of the shuffled frontier, so class indices and manifests do not
// depend on which lookup finishes first.
func (e *exporter) drain(ctx context.Context, pass int, frontier []int) error {
	start := time.Now()
	ids := slices.Clone(frontier)
	rnd := rand.New(rand.NewPCG(uint64(e.cfg.Export.Seed), uint64(pass)))
	rnd.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	jobs := max(e.cfg.JobsNumber, 1)
	window := make(chan struct{}, windowFactor*jobs)
	results := make([]chan lookupResult, len(ids))
	for i := range results {
		results[i] = make(chan lookupResult, 1)
	}

	bar := newPassBar(len(ids), pass, e.progress)
	done := make(chan error, 1)
	go func() {
		err := e.commitAll(ctx, ids, results, window, bar)
		if err != nil {
			cancel(err)
		}
		done <- err
	}()

	var i int
	next := func() (taskpool.Task, bool) {
		if i >= len(ids) {
			return taskpool.Task{}, false
		}
		select {
		case window <- struct{}{}:
		case <-ctx.Done():
			return taskpool.Task{}, false
		}
		id, out := ids[i], results[i]
		i++
		task := taskpool.Task{
			Name: fmt.Sprintf("taxon %d", id),
			Do: func(ctx context.Context) error {
				return e.lookup(ctx, id, out)
			},
		}
		return task, true
	}

	stats := taskpool.Run(ctx, jobs, next)
	err := <-done
	bar.Finish()
	if err != nil {
		return err
	}

	secs := time.Since(start).Seconds()
	slog.Info("Pass finished",
		"pass", pass,
		"taxa", humanize.Comma(int64(len(ids))),
		"failed", stats.Failed,
		"rate", fmt.Sprintf("%s/s", humanize.Comma(int64(float64(len(ids))/max(secs, 0.001)))),
		"duration", gnfmt.TimeString(secs),
	)
	return nil
}

// lookup collects the dataset of one taxon. It always sends a result, even
// when the lookup panics.
func (e *exporter) lookup(
	ctx context.Context,
	id int,
	out chan<- lookupResult,
) error {
	r := lookupResult{id: id, err: errors.New("lookup was interrupted")}
	defer func() { out <- r }()

	t, ok := e.idx.Taxon(id)
	if !ok {
		r.err = LookupError(id, errors.New("unknown taxon"))
		return r.err
	}

	ws := allocate.NewWorkingSet(e.quotas, id, e.cfg.Export.Seed)
	src := e.fetcher.Source(t, e.idx.Ancestry(id))
	if err := ws.Fill(ctx, src); err != nil {
		r.err = LookupError(id, err)
		return r.err
	}
	r.res, r.err = ws.Result(), nil
	return nil
}

// commitAll commits results in frontier order and releases a window slot
// after each commit.
func (e *exporter) commitAll(
	ctx context.Context,
	ids []int,
	results []chan lookupResult,
	window <-chan struct{},
	bar *pb.ProgressBar,
) error {
	for i := range ids {
		var r lookupResult
		select {
		case r = <-results[i]:
		case <-ctx.Done():
			return context.Cause(ctx)
		}
		if err := e.commit(ctx, r); err != nil {
			return err
		}
		<-window
		bar.Increment()
	}
	return nil
}

func (e *exporter) commit(ctx context.Context, r lookupResult) error {
	if r.err != nil {
		e.engine.Fail(r.id)
		return nil
	}

	res := r.res
	e.idx.SetCounts(r.id,
		res.Count(allocate.Train), res.Count(allocate.Val), res.Count(allocate.Test),
	)
	if !res.Populated {
		return e.idx.SetStatus(r.id, taxon.Incomplete)
	}

	t, _ := e.idx.Taxon(r.id)
	leaf, iconic := e.classes.Assign(r.id, t.IconicTaxonID)

	sinks := map[allocate.Split]*iosink.Sink{
		allocate.Train: e.m.Train,
		allocate.Val:   e.m.Val,
		allocate.Test:  e.m.Test,
	}
	placements := map[allocate.Split][]allocate.Placement{
		allocate.Train: res.Train,
		allocate.Val:   res.Val,
		allocate.Test:  res.Test,
	}
	for _, s := range allocate.Splits {
		for _, p := range placements[s] {
			row := iosink.PhotoRow{
				PhotoID:     p.Photo.PhotoID,
				URL:         p.Photo.URL,
				LeafClass:   leaf,
				IconicClass: iconic,
				TaxonID:     r.id,
				Community:   p.Community,
			}
			if err := iosink.WritePhoto(ctx, sinks[s], row); err != nil {
				return CommitError(r.id, err)
			}
		}
		e.totals[s] += len(placements[s])
	}

	for _, sp := range res.Spatial {
		o := sp.Observation
		row := iosink.SpatialRow{
			ObservationID: o.ID,
			Latitude:      o.Latitude,
			Longitude:     o.Longitude,
			ObservedOn:    o.ObservedOn,
			LeafClass:     leaf,
			IconicClass:   iconic,
			TaxonID:       r.id,
			Community:     sp.Community,
			Captive:       o.Captive,
		}
		if err := e.m.WriteSpatial(ctx, row); err != nil {
			return CommitError(r.id, err)
		}
		e.bounds.Extend(sp.Point())
	}
	e.points += len(res.Spatial)

	return e.idx.SetStatus(r.id, taxon.Populated)
}
