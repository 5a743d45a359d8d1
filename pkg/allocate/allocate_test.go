package allocate_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/gnames/gnvision/pkg/allocate"
	"github.com/gnames/gnvision/pkg/config"
	"github.com/gnames/gnvision/pkg/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	obs    map[record.Tier][]record.Observation
	photos map[int][]record.ObservationPhoto
	err    error

	photoCalls int
}

func (f *fakeSource) Observations(
	_ context.Context,
	tier record.Tier,
) ([]record.Observation, error) {
	return f.obs[tier], nil
}

func (f *fakeSource) Photos(
	_ context.Context,
	obs []record.Observation,
) ([]record.ObservationPhoto, error) {
	f.photoCalls++
	if f.err != nil {
		return nil, f.err
	}
	var res []record.ObservationPhoto
	for _, o := range obs {
		res = append(res, f.photos[o.ID]...)
	}
	return res, nil
}

// addObs creates n observations starting from id, each with perObs photos.
func (f *fakeSource) addObs(tier record.Tier, id, n, perObs int) {
	if f.obs == nil {
		f.obs = make(map[record.Tier][]record.Observation)
		f.photos = make(map[int][]record.ObservationPhoto)
	}
	for i := range n {
		oid := id + i
		f.obs[tier] = append(f.obs[tier], record.Observation{
			ID:        oid,
			Latitude:  10 + float64(i)/100,
			Longitude: 20 + float64(i)/100,
			HasCoords: true,
		})
		for pos := range perObs {
			f.photos[oid] = append(f.photos[oid], record.ObservationPhoto{
				PhotoID:       oid*10 + pos,
				ObservationID: oid,
				Position:      pos,
				Siblings:      perObs,
				URL:           fmt.Sprintf("https://example.org/%d/medium.jpg", oid*10+pos),
			})
		}
	}
}

func quotas() allocate.Quotas {
	return allocate.NewQuotas(config.New().Export)
}

func smallQuotas() allocate.Quotas {
	return allocate.Quotas{
		TrainMin: 4, TrainMax: 8,
		ValMin: 2, ValMax: 3,
		TestMin: 2, TestMax: 3,
		SpatialMax:          5,
		TrainPerObservation: 3,
	}
}

func TestNewQuotas(t *testing.T) {
	q := quotas()
	assert.Equal(t, 25, q.TestMin)
	assert.Equal(t, 100, q.TestMax)
	assert.Equal(t, 25, q.ValMin)
	assert.Equal(t, 100, q.ValMax)
	assert.Equal(t, 50, q.TrainMin)
	assert.Equal(t, 1000, q.TrainMax)
	assert.Equal(t, 5000, q.SpatialMax)
	assert.Equal(t, 5, q.TrainPerObservation)
}

func TestFillNotEnoughPairs(t *testing.T) {
	src := &fakeSource{}
	src.addObs(record.Community, 1, 30, 1)

	ws := allocate.NewWorkingSet(quotas(), 42, 1)
	require.NoError(t, ws.Fill(context.Background(), src))

	res := ws.Result()
	assert.False(t, res.Populated)
	assert.Len(t, res.Test, 25)
	assert.Len(t, res.Val, 5)
	assert.Empty(t, res.Train)
	assert.Len(t, res.Spatial, 30)
}

func TestFillPopulated(t *testing.T) {
	src := &fakeSource{}
	src.addObs(record.Community, 1, 20, 2)
	src.addObs(record.Uncurated, 1000, 5, 1)

	ws := allocate.NewWorkingSet(smallQuotas(), 42, 1)
	require.NoError(t, ws.Fill(context.Background(), src))
	res := ws.Result()

	assert.True(t, res.Populated)
	assert.Len(t, res.Test, 3)
	assert.Len(t, res.Val, 3)
	assert.Len(t, res.Train, 8)
	assert.Len(t, res.Spatial, 5)
	assertDisjoint(t, res)
	for _, p := range res.Train {
		assert.True(t, p.Community, "community data is enough")
	}
}

func TestFillUncuratedTrainOnly(t *testing.T) {
	src := &fakeSource{}
	src.addObs(record.Community, 1, 6, 1)
	src.addObs(record.Uncurated, 1000, 10, 1)

	q := smallQuotas()
	q.TrainPerObservation = 1
	ws := allocate.NewWorkingSet(q, 7, 1)
	require.NoError(t, ws.Fill(context.Background(), src))
	res := ws.Result()

	assert.True(t, res.Populated)
	assert.Len(t, res.Test, 2)
	assert.Len(t, res.Val, 2)
	assert.Len(t, res.Train, 8)

	var uncurated int
	for _, p := range res.Train {
		if !p.Community {
			uncurated++
			assert.GreaterOrEqual(t, p.Photo.ObservationID, 1000)
		}
	}
	assert.Equal(t, 6, uncurated)
	for _, p := range append(res.Test, res.Val...) {
		assert.True(t, p.Community)
	}
	assertDisjoint(t, res)
}

func TestEnrichment(t *testing.T) {
	src := &fakeSource{}
	src.addObs(record.Community, 1, 6, 3)

	ws := allocate.NewWorkingSet(smallQuotas(), 3, 1)
	require.NoError(t, ws.Fill(context.Background(), src))
	res := ws.Result()

	assert.Len(t, res.Test, 2)
	assert.Len(t, res.Val, 2)
	// 2 observations are left for train, up to 3 photos each
	assert.Len(t, res.Train, 6)
	assert.True(t, res.Populated)

	testVal := make(map[int]struct{})
	for _, p := range append(res.Test, res.Val...) {
		testVal[p.Photo.ObservationID] = struct{}{}
	}
	perObs := make(map[int]int)
	for _, p := range res.Train {
		_, ok := testVal[p.Photo.ObservationID]
		assert.False(t, ok, "test and val observations are not enriched")
		perObs[p.Photo.ObservationID]++
	}
	for _, n := range perObs {
		assert.LessOrEqual(t, n, 3)
	}
	assertDisjoint(t, res)
}

func TestEnrichmentDisabled(t *testing.T) {
	src := &fakeSource{}
	src.addObs(record.Community, 1, 6, 3)

	q := smallQuotas()
	q.TrainPerObservation = 1
	ws := allocate.NewWorkingSet(q, 3, 1)
	require.NoError(t, ws.Fill(context.Background(), src))
	res := ws.Result()
	assert.Len(t, res.Train, 2)
	assert.False(t, res.Populated)
}

func TestDistributePriority(t *testing.T) {
	q := allocate.Quotas{
		TestMin: 1, TestMax: 1, ValMin: 1, ValMax: 1,
		TrainMin: 1, TrainMax: 1, SpatialMax: 1,
	}
	photos := []record.ObservationPhoto{
		{PhotoID: 1, ObservationID: 1, Position: 1, Siblings: 2},
		{PhotoID: 2, ObservationID: 1, Position: 0, Siblings: 2},
		{PhotoID: 3, ObservationID: 2, Position: 0, Siblings: 1},
		{PhotoID: 4, ObservationID: 3, Position: 0, Siblings: 3},
	}

	ws := allocate.NewWorkingSet(q, 1, 1)
	ws.BeginPhase(record.Community)
	ws.Distribute(photos)
	res := ws.Result()

	require.Len(t, res.Test, 1)
	require.Len(t, res.Val, 1)
	require.Len(t, res.Train, 1)
	assert.Equal(t, 3, res.Test[0].Photo.PhotoID, "single photo goes first")
	assert.Equal(t, 2, res.Val[0].Photo.PhotoID, "first position goes next")
	assert.Equal(t, 4, res.Train[0].Photo.PhotoID, "photo 1 shares observation")
	assert.True(t, ws.HasMaximumPhotos())
}

func TestSample(t *testing.T) {
	acc := func(i int) *int { return &i }
	obs := []record.Observation{
		{ID: 1, Latitude: 1, Longitude: 1, HasCoords: true},
		{ID: 2, Latitude: 0, Longitude: 1, HasCoords: true},
		{ID: 3, Latitude: 1, Longitude: 1},
		{ID: 4, Latitude: 1, Longitude: 1, HasCoords: true, PositionalAccuracy: acc(1001)},
		{ID: 5, Latitude: 1, Longitude: 1, HasCoords: true, PositionalAccuracy: acc(1000)},
		{ID: 6, Latitude: -1, Longitude: 0, HasCoords: true},
	}

	q := smallQuotas()
	ws := allocate.NewWorkingSet(q, 1, 1)
	ws.BeginPhase(record.Uncurated)
	ws.Sample(obs)
	ws.Sample(obs)

	res := ws.Result()
	ids := make(map[int]bool)
	for _, v := range res.Spatial {
		ids[v.Observation.ID] = v.Community
	}
	assert.Equal(t, map[int]bool{1: false, 5: false}, ids)
}

func TestSampleMax(t *testing.T) {
	src := &fakeSource{}
	src.addObs(record.Community, 1, 20, 1)

	ws := allocate.NewWorkingSet(smallQuotas(), 1, 1)
	ws.BeginPhase(record.Community)
	ws.Sample(src.obs[record.Community])
	assert.True(t, ws.HasMaximumSpatial())

	res := ws.Result()
	assert.Len(t, res.Spatial, 5)
	seen := make(map[int]struct{})
	for _, v := range res.Spatial {
		_, ok := seen[v.Observation.ID]
		assert.False(t, ok)
		seen[v.Observation.ID] = struct{}{}
		pt := v.Point()
		assert.Equal(t, v.Observation.Longitude, pt.X())
		assert.Equal(t, v.Observation.Latitude, pt.Y())
		assert.Equal(t, 4326, pt.SRID())
	}
}

func TestChunks(t *testing.T) {
	src := &fakeSource{}
	src.addObs(record.Community, 1, 1201, 0)

	ws := allocate.NewWorkingSet(quotas(), 1, 1)
	chunks := ws.Chunks(src.obs[record.Community])
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], allocate.ChunkSize)
	assert.Len(t, chunks[1], allocate.ChunkSize)
	assert.Len(t, chunks[2], 201)

	seen := make(map[int]struct{})
	for _, c := range chunks {
		for _, o := range c {
			seen[o.ID] = struct{}{}
		}
	}
	assert.Len(t, seen, 1201)
}

func TestFillStopsAtMaximum(t *testing.T) {
	src := &fakeSource{}
	src.addObs(record.Community, 1, 1500, 1)
	src.addObs(record.Uncurated, 10_000, 10, 1)

	q := smallQuotas()
	ws := allocate.NewWorkingSet(q, 1, 1)
	require.NoError(t, ws.Fill(context.Background(), src))
	assert.True(t, ws.HasMaximumData())
	assert.Equal(t, 1, src.photoCalls, "later chunks are not read")
}

func TestFillError(t *testing.T) {
	src := &fakeSource{err: errors.New("db is down")}
	src.addObs(record.Community, 1, 10, 1)

	ws := allocate.NewWorkingSet(smallQuotas(), 1, 1)
	err := ws.Fill(context.Background(), src)
	assert.ErrorIs(t, err, src.err)
}

func TestDeterminism(t *testing.T) {
	src := &fakeSource{}
	src.addObs(record.Community, 1, 700, 3)
	src.addObs(record.Uncurated, 5000, 300, 2)

	run := func(seed int64) allocate.Result {
		ws := allocate.NewWorkingSet(quotas(), 99, seed)
		require.NoError(t, ws.Fill(context.Background(), src))
		return ws.Result()
	}

	first := run(1)
	assert.Equal(t, first, run(1))
	assertDisjoint(t, first)

	other := run(2)
	assert.NotEqual(t, photoIDs(first.Test), photoIDs(other.Test))
}

func photoIDs(pp []allocate.Placement) []int {
	res := make([]int, len(pp))
	for i, p := range pp {
		res[i] = p.Photo.PhotoID
	}
	return res
}

// assertDisjoint checks that no photo is in two splits and that test and
// val observations do not appear in any other split.
func assertDisjoint(t *testing.T, res allocate.Result) {
	t.Helper()
	photos := make(map[int]string)
	obs := make(map[int]string)
	sets := map[string][]allocate.Placement{
		"train": res.Train, "val": res.Val, "test": res.Test,
	}
	for name, set := range sets {
		for _, p := range set {
			if prev, ok := photos[p.Photo.PhotoID]; ok {
				t.Errorf("photo %d is in %s and %s", p.Photo.PhotoID, prev, name)
			}
			photos[p.Photo.PhotoID] = name
			if prev, ok := obs[p.Photo.ObservationID]; ok && prev != name {
				t.Errorf("observation %d is in %s and %s",
					p.Photo.ObservationID, prev, name)
			}
			obs[p.Photo.ObservationID] = name
		}
	}
}

func TestClasses(t *testing.T) {
	c := allocate.NewClasses()

	leaf, iconic := c.Assign(500, 3)
	assert.Equal(t, 0, leaf)
	assert.Equal(t, 0, iconic)

	leaf, iconic = c.Assign(400, 47)
	assert.Equal(t, 1, leaf)
	assert.Equal(t, 1, iconic)

	leaf, iconic = c.Assign(300, 3)
	assert.Equal(t, 2, leaf)
	assert.Equal(t, 0, iconic)

	assert.Equal(t, 1, c.AssignLeaf(400), "existing index is kept")
	assert.Equal(t, 2, c.AssignIconic(0))

	assert.Equal(t, []int{500, 400, 300}, c.Leaves())
	assert.Equal(t, []int{3, 47, 0}, c.IconicIDs())

	idx, ok := c.Leaf(300)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
	_, ok = c.Iconic(42)
	assert.False(t, ok)
}

func TestClassesConcurrent(t *testing.T) {
	c := allocate.NewClasses()
	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Assign(i, i%7)
		}()
	}
	wg.Wait()

	leaves := c.Leaves()
	assert.Len(t, leaves, 100)
	for i, id := range leaves {
		idx, ok := c.Leaf(id)
		assert.True(t, ok)
		assert.Equal(t, i, idx)
	}
	assert.Len(t, c.IconicIDs(), 7)
}
