package allocate

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/gnames/gnuuid"
	"github.com/gnames/gnvision/pkg/record"
	"github.com/twpayne/go-geom"
)

// Placement is a photo placed into a split.
type Placement struct {
	Photo record.ObservationPhoto
	// Community is true when the photo came from the community tier.
	Community bool
}

// SpatialPoint is an observation of the geospatial sample.
type SpatialPoint struct {
	Observation record.Observation
	Community   bool
}

// Point returns the location as a WGS84 point with longitude first.
func (p SpatialPoint) Point() *geom.Point {
	coords := []float64{p.Observation.Longitude, p.Observation.Latitude}
	return geom.NewPointFlat(geom.XY, coords).SetSRID(4326)
}

// Result is the outcome of a taxon lookup.
type Result struct {
	Train, Val, Test []Placement
	Spatial          []SpatialPoint

	// Populated is true when every split reached its minimum.
	Populated bool
}

// Count returns the number of photos in a split.
func (r Result) Count(s Split) int {
	switch s {
	case Train:
		return len(r.Train)
	case Val:
		return len(r.Val)
	default:
		return len(r.Test)
	}
}

// WorkingSet accumulates the dataset of one taxon. It is owned by a single
// goroutine.
type WorkingSet struct {
	q   Quotas
	rnd *rand.Rand

	tier record.Tier

	sets [3][]Placement
	// photos of an observation per split
	obs  [3]map[int]int
	used map[int]struct{}

	spatial     []SpatialPoint
	spatialUsed map[int]struct{}

	// photos seen during the current phase, for enrichment
	pool []record.ObservationPhoto
}

// NewWorkingSet creates an empty working set. Its random source depends
// only on the taxon id and the seed of the run.
func NewWorkingSet(q Quotas, taxonID int, seed int64) *WorkingSet {
	res := &WorkingSet{
		q:           q,
		rnd:         newRand(taxonID, seed),
		used:        make(map[int]struct{}),
		spatialUsed: make(map[int]struct{}),
	}
	for i := range res.obs {
		res.obs[i] = make(map[int]int)
	}
	return res
}

func newRand(taxonID int, seed int64) *rand.Rand {
	u := gnuuid.New(fmt.Sprintf("%d:%d", taxonID, seed))
	return rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(u[:8]),
		binary.BigEndian.Uint64(u[8:]),
	))
}

// BeginPhase starts processing of a tier and clears the enrichment pool.
func (ws *WorkingSet) BeginPhase(tier record.Tier) {
	ws.tier = tier
	ws.pool = nil
}

// Chunks shuffles observations and splits them into chunks of ChunkSize.
func (ws *WorkingSet) Chunks(obs []record.Observation) [][]record.Observation {
	obs = slices.Clone(obs)
	ws.rnd.Shuffle(len(obs), func(i, j int) {
		obs[i], obs[j] = obs[j], obs[i]
	})
	return slices.Collect(slices.Chunk(obs, ChunkSize))
}

// Sample adds observations with usable coordinates to the geospatial
// sample.
func (ws *WorkingSet) Sample(obs []record.Observation) {
	if ws.HasMaximumSpatial() {
		return
	}
	obs = slices.Clone(obs)
	ws.rnd.Shuffle(len(obs), func(i, j int) {
		obs[i], obs[j] = obs[j], obs[i]
	})

	for _, o := range obs {
		if len(ws.spatial) >= ws.q.SpatialMax {
			return
		}
		if !o.HasCoords || o.Latitude == 0 || o.Longitude == 0 {
			continue
		}
		if o.PositionalAccuracy != nil && *o.PositionalAccuracy > 1000 {
			continue
		}
		if _, ok := ws.spatialUsed[o.ID]; ok {
			continue
		}
		ws.spatialUsed[o.ID] = struct{}{}
		ws.spatial = append(ws.spatial, SpatialPoint{
			Observation: o,
			Community:   ws.tier == record.Community,
		})
	}
}

// Distribute places photos of a chunk into splits.
//
// Community photos fill test and val minimums first, then train up to its
// maximum, then test and val up to their maximums. Photos of observations
// with fewer photos and earlier positions go first. Uncurated photos go to
// train only. An observation contributes to one split only.
func (ws *WorkingSet) Distribute(photos []record.ObservationPhoto) {
	if ws.HasMaximumPhotos() {
		return
	}
	ws.pool = append(ws.pool, photos...)

	if ws.tier == record.Community {
		photos = ws.byPriority(photos)
	} else {
		photos = slices.Clone(photos)
		ws.rnd.Shuffle(len(photos), func(i, j int) {
			photos[i], photos[j] = photos[j], photos[i]
		})
	}

	for _, p := range photos {
		if ws.isUsed(p) || ws.placedAnywhere(p.ObservationID) {
			continue
		}
		if ws.tier != record.Community {
			if ws.size(Train) < ws.q.TrainMax {
				ws.add(Train, p)
			}
			continue
		}
		switch {
		case ws.size(Test) < ws.q.TestMin:
			ws.add(Test, p)
		case ws.size(Val) < ws.q.ValMin:
			ws.add(Val, p)
		case ws.size(Train) < ws.q.TrainMax:
			ws.add(Train, p)
		case ws.size(Test) < ws.q.TestMax:
			ws.add(Test, p)
		case ws.size(Val) < ws.q.ValMax:
			ws.add(Val, p)
		}
	}
}

func (ws *WorkingSet) byPriority(photos []record.ObservationPhoto) []record.ObservationPhoto {
	type item struct {
		p      record.ObservationPhoto
		jitter float64
	}
	items := make([]item, len(photos))
	for i, p := range photos {
		items[i] = item{p: p, jitter: ws.rnd.Float64()}
	}
	slices.SortStableFunc(items, func(a, b item) int {
		return cmp.Or(
			cmp.Compare(a.p.Siblings, b.p.Siblings),
			cmp.Compare(a.p.Position, b.p.Position),
			cmp.Compare(a.jitter, b.jitter),
		)
	})

	res := make([]record.ObservationPhoto, len(items))
	for i := range items {
		res[i] = items[i].p
	}
	return res
}

// Enrich adds more photos of already used train observations from the
// current phase. Observations in test or val are never enriched.
func (ws *WorkingSet) Enrich() {
	if ws.q.TrainPerObservation < 2 {
		return
	}
	pool := slices.Clone(ws.pool)
	ws.rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	for _, p := range pool {
		if ws.size(Train) >= ws.q.TrainMax {
			return
		}
		if ws.isUsed(p) {
			continue
		}
		if ws.obs[Test][p.ObservationID] > 0 || ws.obs[Val][p.ObservationID] > 0 {
			continue
		}
		if ws.obs[Train][p.ObservationID] >= ws.q.TrainPerObservation {
			continue
		}
		ws.add(Train, p)
	}
}

func (ws *WorkingSet) add(s Split, p record.ObservationPhoto) {
	ws.sets[s] = append(ws.sets[s], Placement{
		Photo:     p,
		Community: ws.tier == record.Community,
	})
	ws.obs[s][p.ObservationID]++
	ws.used[p.PhotoID] = struct{}{}
}

func (ws *WorkingSet) isUsed(p record.ObservationPhoto) bool {
	_, ok := ws.used[p.PhotoID]
	return ok
}

func (ws *WorkingSet) placedAnywhere(obsID int) bool {
	for i := range ws.obs {
		if ws.obs[i][obsID] > 0 {
			return true
		}
	}
	return false
}

func (ws *WorkingSet) size(s Split) int {
	return len(ws.sets[s])
}

// HasMinimum is true when every split reached its minimum.
func (ws *WorkingSet) HasMinimum() bool {
	for _, s := range Splits {
		if ws.size(s) < ws.q.min(s) {
			return false
		}
	}
	return true
}

// HasMaximumPhotos is true when every split reached its maximum.
func (ws *WorkingSet) HasMaximumPhotos() bool {
	for _, s := range Splits {
		if ws.size(s) < ws.q.max(s) {
			return false
		}
	}
	return true
}

// HasMaximumSpatial is true when the geospatial sample is full.
func (ws *WorkingSet) HasMaximumSpatial() bool {
	return len(ws.spatial) >= ws.q.SpatialMax
}

// HasMaximumData is true when both photos and spatial sample are full.
func (ws *WorkingSet) HasMaximumData() bool {
	return ws.HasMaximumPhotos() && ws.HasMaximumSpatial()
}

// Result returns copies of the accumulated sets.
func (ws *WorkingSet) Result() Result {
	return Result{
		Train:     slices.Clone(ws.sets[Train]),
		Val:       slices.Clone(ws.sets[Val]),
		Test:      slices.Clone(ws.sets[Test]),
		Spatial:   slices.Clone(ws.spatial),
		Populated: ws.HasMinimum(),
	}
}
