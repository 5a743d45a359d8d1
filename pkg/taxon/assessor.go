package taxon

import (
	"strconv"
	"strings"
)

// Assessor excludes globally extinct taxa and, when a selection is given,
// taxa outside of the selected branches.
type Assessor struct {
	idx       *Index
	extinct   map[int]struct{}
	selected  map[int]struct{}
	ancestors map[int]struct{}
}

// NewAssessor creates an Assessor. It must be created after ingestion,
// because ancestors of selected taxa are taken from the index. Selected
// ids that are not in the index are ignored.
func NewAssessor(idx *Index, extinctIDs, selectedIDs []int) *Assessor {
	res := &Assessor{
		idx:       idx,
		extinct:   toSet(extinctIDs),
		selected:  toSet(selectedIDs),
		ancestors: make(map[int]struct{}),
	}

	for id := range res.selected {
		if _, ok := idx.Taxon(id); !ok {
			continue
		}
		for _, v := range strings.Split(idx.Ancestry(id), "/") {
			if aid, err := strconv.Atoi(v); err == nil {
				res.ancestors[aid] = struct{}{}
			}
		}
	}
	return res
}

func toSet(ids []int) map[int]struct{} {
	res := make(map[int]struct{}, len(ids))
	for _, v := range ids {
		res[v] = struct{}{}
	}
	return res
}

// Extinct is true for globally extinct taxa.
func (a *Assessor) Extinct(id int) bool {
	_, ok := a.extinct[id]
	return ok
}

// Assess runs on the first visit of an unresolved taxon. The within flag
// tells that an ancestor of the taxon is selected. It returns the flag for
// the children of the taxon. Excluded taxa are marked Skipped together
// with their subtree.
func (a *Assessor) Assess(id int, within bool) (bool, error) {
	if a.Extinct(id) {
		return within, a.idx.SkipSubtree(id)
	}

	if within || len(a.selected) == 0 {
		return within, nil
	}
	if _, ok := a.selected[id]; ok {
		return true, nil
	}
	if _, ok := a.ancestors[id]; !ok {
		return false, a.idx.SkipSubtree(id)
	}
	return false, nil
}
