package completion_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gnames/gn"
	"github.com/gnames/gnvision/pkg/completion"
	"github.com/gnames/gnvision/pkg/errcode"
	"github.com/gnames/gnvision/pkg/record"
	"github.com/gnames/gnvision/pkg/taxon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tree:
//
//	1 Animalia
//	└── 2 Chordata
//	    ├── 3 Aves
//	    │   └── 5 Corvus corax
//	    └── 4 Mammalia
func sampleIndex(t *testing.T) *taxon.Index {
	rows := []record.TaxonRow{
		{ID: 1, Name: "Animalia", RankLevel: 70},
		{ID: 2, Ancestry: "1", Name: "Chordata", RankLevel: 60},
		{ID: 3, Ancestry: "1/2", Name: "Aves", RankLevel: 50},
		{ID: 4, Ancestry: "1/2", Name: "Mammalia", RankLevel: 50},
		{ID: 5, Ancestry: "1/2/3", Name: "Corvus corax", RankLevel: 10},
	}
	idx := taxon.NewIndex(false)
	for _, v := range rows {
		require.NoError(t, idx.Add(v))
	}
	return idx
}

// outcomes returns a drain that resolves taxa with given statuses and
// records every frontier.
func outcomes(
	t *testing.T,
	idx *taxon.Index,
	eng **completion.Engine,
	res map[int]taxon.Status,
	frontiers *[][]int,
) completion.Drain {
	return func(_ context.Context, _ int, frontier []int) error {
		*frontiers = append(*frontiers, frontier)
		for _, id := range frontier {
			st, ok := res[id]
			if !ok {
				(*eng).Fail(id)
				continue
			}
			require.NoError(t, idx.SetStatus(id, st))
		}
		return nil
	}
}

func TestFrontierOrder(t *testing.T) {
	idx := sampleIndex(t)
	eng := completion.New(idx, taxon.NewAssessor(idx, nil, nil), nil, 0)

	res, err := eng.Frontier()
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4}, res)
	assert.False(t, eng.Done())
}

func TestFrontierCustomLeaf(t *testing.T) {
	idx := sampleIndex(t)
	eng := completion.New(idx, taxon.NewAssessor(idx, nil, nil), []int{3}, 0)

	assert.True(t, eng.IsLeaf(3))
	assert.False(t, eng.IsLeaf(2))
	res, err := eng.Frontier()
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, res)
}

func TestRunExtinctSubtree(t *testing.T) {
	idx := sampleIndex(t)
	eng := completion.New(idx, taxon.NewAssessor(idx, []int{3}, nil), nil, 0)

	var frontiers [][]int
	drain := outcomes(t, idx, &eng, map[int]taxon.Status{
		4: taxon.Populated,
	}, &frontiers)

	require.NoError(t, eng.Run(context.Background(), drain))
	assert.Equal(t, [][]int{{4}}, frontiers)
	assert.Equal(t, 1, eng.Passes())

	assert.Equal(t, taxon.Skipped, idx.Status(3))
	assert.Equal(t, taxon.Skipped, idx.Status(5))
	assert.Equal(t, taxon.Complete, idx.Status(2))
	assert.Equal(t, taxon.Complete, idx.Status(1))
}

func TestRunCompleteWithoutLookup(t *testing.T) {
	idx := sampleIndex(t)
	eng := completion.New(idx, taxon.NewAssessor(idx, nil, nil), nil, 0)

	var frontiers [][]int
	drain := outcomes(t, idx, &eng, map[int]taxon.Status{
		5: taxon.Populated,
		4: taxon.Incomplete,
	}, &frontiers)

	require.NoError(t, eng.Run(context.Background(), drain))
	assert.Equal(t, [][]int{{5, 4}}, frontiers)
	for _, id := range []int{1, 2, 3} {
		assert.Equal(t, taxon.Complete, idx.Status(id), id)
	}
	assert.Equal(t, taxon.Incomplete, idx.Status(4))
}

func TestRunParentLookup(t *testing.T) {
	idx := sampleIndex(t)
	eng := completion.New(idx, taxon.NewAssessor(idx, nil, nil), nil, 0)

	var frontiers [][]int
	drain := outcomes(t, idx, &eng, map[int]taxon.Status{
		5: taxon.Incomplete,
		4: taxon.Incomplete,
		3: taxon.Populated,
	}, &frontiers)

	require.NoError(t, eng.Run(context.Background(), drain))
	assert.Equal(t, [][]int{{5, 4}, {3}}, frontiers)
	assert.Equal(t, 2, eng.Passes())
	assert.Equal(t, taxon.Populated, idx.Status(3))
	assert.Equal(t, taxon.Complete, idx.Status(2))
	assert.Equal(t, taxon.Complete, idx.Status(1))
}

func TestRunFailedLookup(t *testing.T) {
	idx := sampleIndex(t)
	eng := completion.New(idx, taxon.NewAssessor(idx, nil, nil), nil, 0)

	var frontiers [][]int
	// 5 fails, nothing else is populated
	drain := outcomes(t, idx, &eng, map[int]taxon.Status{
		4: taxon.Incomplete,
		3: taxon.Incomplete,
		2: taxon.Incomplete,
		1: taxon.Incomplete,
	}, &frontiers)

	require.NoError(t, eng.Run(context.Background(), drain))
	assert.Equal(t, [][]int{{5, 4}, {3}, {2}, {1}}, frontiers)
	assert.Equal(t, []int{5}, eng.Failed())
	assert.Equal(t, taxon.Unset, idx.Status(5))
	assert.Equal(t, taxon.Incomplete, idx.Status(1))
}

func TestRunSelection(t *testing.T) {
	idx := sampleIndex(t)
	eng := completion.New(idx, taxon.NewAssessor(idx, nil, []int{3}), nil, 0)

	var frontiers [][]int
	drain := outcomes(t, idx, &eng, map[int]taxon.Status{
		5: taxon.Populated,
	}, &frontiers)

	require.NoError(t, eng.Run(context.Background(), drain))
	assert.Equal(t, [][]int{{5}}, frontiers)
	assert.Equal(t, taxon.Skipped, idx.Status(4))
	assert.Equal(t, taxon.Complete, idx.Status(1))
}

func TestRunPassLimit(t *testing.T) {
	idx := sampleIndex(t)
	eng := completion.New(idx, taxon.NewAssessor(idx, nil, nil), nil, 2)

	// every pass resolves only the first taxon of the frontier
	var calls int
	drain := func(_ context.Context, _ int, frontier []int) error {
		calls++
		return idx.SetStatus(frontier[0], taxon.Incomplete)
	}

	err := eng.Run(context.Background(), drain)
	require.Error(t, err)
	gnErr, ok := err.(*gn.Error)
	require.True(t, ok)
	assert.Equal(t, errcode.ExportPassLimitError, gnErr.Code)
	assert.Equal(t, []any{2, 1}, gnErr.Vars)
	assert.Equal(t, 2, calls)
}

func TestRunNoProgress(t *testing.T) {
	idx := sampleIndex(t)
	eng := completion.New(idx, taxon.NewAssessor(idx, nil, nil), nil, 0)

	var calls int
	drain := func(context.Context, int, []int) error {
		calls++
		return nil
	}

	err := eng.Run(context.Background(), drain)
	require.Error(t, err)
	gnErr, ok := err.(*gn.Error)
	require.True(t, ok)
	assert.Equal(t, errcode.ExportNoProgressError, gnErr.Code)
	assert.Equal(t, []any{1, 1}, gnErr.Vars)
	assert.Equal(t, 1, calls)
}

// TestRunRepeatedAncestry makes sure a taxon with a looping ancestry is
// not dropped silently: ingestion stops, and the rest of the tree is
// processed as usual.
func TestRunRepeatedAncestry(t *testing.T) {
	idx := sampleIndex(t)
	err := idx.Add(record.TaxonRow{ID: 6, Ancestry: "1/2/1", Name: "Loop"})
	require.Error(t, err)
	gnErr, ok := err.(*gn.Error)
	require.True(t, ok)
	assert.Equal(t, errcode.IngestAncestryParseError, gnErr.Code)

	eng := completion.New(idx, taxon.NewAssessor(idx, nil, nil), nil, 0)
	var frontiers [][]int
	drain := outcomes(t, idx, &eng, map[int]taxon.Status{
		5: taxon.Populated,
		4: taxon.Populated,
	}, &frontiers)

	require.NoError(t, eng.Run(context.Background(), drain))
	assert.Equal(t, [][]int{{5, 4}}, frontiers)
	assert.Equal(t, map[taxon.Status]int{
		taxon.Populated: 2,
		taxon.Complete:  3,
	}, idx.Tally())
}

func TestRunDrainError(t *testing.T) {
	idx := sampleIndex(t)
	eng := completion.New(idx, taxon.NewAssessor(idx, nil, nil), nil, 0)

	boom := errors.New("boom")
	err := eng.Run(context.Background(), func(context.Context, int, []int) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunCancelled(t *testing.T) {
	idx := sampleIndex(t)
	eng := completion.New(idx, taxon.NewAssessor(idx, nil, nil), nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := eng.Run(ctx, func(context.Context, int, []int) error {
		t.Fatal("drain must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEmptyTaxonomy(t *testing.T) {
	idx := taxon.NewIndex(false)
	eng := completion.New(idx, taxon.NewAssessor(idx, nil, nil), nil, 0)
	assert.True(t, eng.Done())
	require.NoError(t, eng.Run(context.Background(), nil))
	assert.Equal(t, 0, eng.Passes())
}

func TestErrors(t *testing.T) {
	tests := []struct {
		err  error
		code gn.ErrorCode
	}{
		{completion.CycleError(3), errcode.ExportCycleError},
		{completion.NoProgressError(2, 1), errcode.ExportNoProgressError},
		{completion.PassLimitError(5, 1), errcode.ExportPassLimitError},
	}
	for _, v := range tests {
		gnErr, ok := v.err.(*gn.Error)
		require.True(t, ok)
		assert.Equal(t, v.code, gnErr.Code)
		assert.NotEmpty(t, gnErr.Msg)
		assert.Error(t, gnErr.Err)
	}
}
