// Package fetch reads eligible observations and photos of a taxon clade.
//
// Observations are eligible when they have photos, no unresolved flags, and
// no net-negative quality metric other than "wild". A net-negative "wild"
// metric marks an observation as captive. Photos are eligible when they
// have no unresolved flags and have a URL.
package fetch

import (
	"cmp"
	"context"
	"slices"

	"github.com/gnames/gnvision/pkg/record"
	"github.com/gnames/gnvision/pkg/store"
	"github.com/gnames/gnvision/pkg/taxon"
)

const (
	// ScaleThreshold is the number of observations above which only the
	// community tier of a taxon is read.
	ScaleThreshold = 100_000

	// ScaleLimit caps community observations of large taxa.
	ScaleLimit = 200_000
)

// Fetcher reads candidate data through a Store.
type Fetcher struct {
	st store.Store
}

// New creates a Fetcher.
func New(st store.Store) *Fetcher {
	return &Fetcher{st: st}
}

// Observations returns eligible observations of the clade of a taxon,
// sorted by id. The ancestry includes the id of the taxon.
func (f *Fetcher) Observations(
	ctx context.Context,
	t taxon.Taxon,
	ancestry string,
	tier record.Tier,
) ([]record.Observation, error) {
	q := store.ObservationQuery{Tier: tier}
	if t.ObservationsCount > ScaleThreshold {
		if tier != record.Community {
			return nil, nil
		}
		q.Limit = ScaleLimit
	}

	ids, err := f.st.TaxonIDs(ctx, t.ID, ancestry)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	q.TaxonIDs = ids

	obs, err := f.st.Observations(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, nil
	}

	obsIDs := make([]int, len(obs))
	for i := range obs {
		obsIDs[i] = obs[i].ID
	}

	votes, err := f.st.QualityMetrics(ctx, obsIDs)
	if err != nil {
		return nil, err
	}
	flagged, err := f.st.UnresolvedFlags(ctx, record.FlagObservation, obsIDs)
	if err != nil {
		return nil, err
	}

	applyMetrics(obs, votes)
	flags := toSet(flagged)

	res := make([]record.Observation, 0, len(obs))
	for _, o := range obs {
		if _, ok := flags[o.ID]; ok {
			continue
		}
		if o.FailsNonWildMetric {
			continue
		}
		res = append(res, o)
	}
	slices.SortFunc(res, func(a, b record.Observation) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return res, nil
}

// applyMetrics sums votes per metric: an agreement adds one, a
// disagreement subtracts one.
func applyMetrics(obs []record.Observation, votes []record.QualityVote) {
	scores := make(map[int]map[string]int)
	for _, v := range votes {
		if scores[v.ObservationID] == nil {
			scores[v.ObservationID] = make(map[string]int)
		}
		if v.Agree {
			scores[v.ObservationID][v.Metric]++
		} else {
			scores[v.ObservationID][v.Metric]--
		}
	}

	for i := range obs {
		for metric, score := range scores[obs[i].ID] {
			if score >= 0 {
				continue
			}
			if metric == record.WildMetric {
				obs[i].Captive = true
			} else {
				obs[i].FailsNonWildMetric = true
			}
		}
	}
}

// Photos returns eligible photos of observations, ordered by observation
// and position. Positions are renumbered from 0 within every observation,
// and Siblings is the number of unflagged photos of the observation.
func (f *Fetcher) Photos(
	ctx context.Context,
	obs []record.Observation,
) ([]record.ObservationPhoto, error) {
	if len(obs) == 0 {
		return nil, nil
	}
	obsIDs := make([]int, len(obs))
	for i := range obs {
		obsIDs[i] = obs[i].ID
	}

	photos, err := f.st.ObservationPhotos(ctx, obsIDs)
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, nil
	}

	photoIDs := make([]int, len(photos))
	for i := range photos {
		photoIDs[i] = photos[i].PhotoID
	}
	flagged, err := f.st.UnresolvedFlags(ctx, record.FlagPhoto, photoIDs)
	if err != nil {
		return nil, err
	}
	flags := toSet(flagged)
	photos = slices.DeleteFunc(photos, func(p record.ObservationPhoto) bool {
		_, ok := flags[p.PhotoID]
		return ok
	})

	renumber(photos)

	ids := make([]int, len(photos))
	for i := range photos {
		ids[i] = photos[i].PhotoID
	}
	urls, err := f.st.PhotoURLs(ctx, ids)
	if err != nil {
		return nil, err
	}

	res := photos[:0]
	for _, p := range photos {
		url := urls[p.PhotoID]
		if url == "" {
			continue
		}
		p.URL = url
		res = append(res, p)
	}
	return res, nil
}

// renumber sorts photos by observation and stored position, and replaces
// positions with dense ones.
func renumber(photos []record.ObservationPhoto) {
	slices.SortFunc(photos, func(a, b record.ObservationPhoto) int {
		return cmp.Or(
			cmp.Compare(a.ObservationID, b.ObservationID),
			cmp.Compare(a.Position, b.Position),
			cmp.Compare(a.PhotoID, b.PhotoID),
		)
	})

	counts := make(map[int]int)
	for _, p := range photos {
		counts[p.ObservationID]++
	}

	var pos, lastObs int
	for i := range photos {
		if i == 0 || photos[i].ObservationID != lastObs {
			lastObs = photos[i].ObservationID
			pos = 0
		} else {
			pos++
		}
		photos[i].Position = pos
		photos[i].Siblings = counts[photos[i].ObservationID]
	}
}

func toSet(ids []int) map[int]struct{} {
	res := make(map[int]struct{}, len(ids))
	for _, v := range ids {
		res[v] = struct{}{}
	}
	return res
}

// Source binds a Fetcher to one taxon.
type Source struct {
	f        *Fetcher
	t        taxon.Taxon
	ancestry string
}

// Source returns candidate data of a taxon for the allocator.
func (f *Fetcher) Source(t taxon.Taxon, ancestry string) *Source {
	return &Source{f: f, t: t, ancestry: ancestry}
}

// Observations returns eligible observations of the taxon for a tier.
func (s *Source) Observations(
	ctx context.Context,
	tier record.Tier,
) ([]record.Observation, error) {
	return s.f.Observations(ctx, s.t, s.ancestry, tier)
}

// Photos returns eligible photos of observations.
func (s *Source) Photos(
	ctx context.Context,
	obs []record.Observation,
) ([]record.ObservationPhoto, error) {
	return s.f.Photos(ctx, obs)
}
