package taxon

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/gnames/gnvision/pkg/record"
)

// Index stores taxa of a run and the children of every taxon. It is safe
// for concurrent use.
type Index struct {
	mu       sync.RWMutex
	taxa     map[int]*Taxon
	children map[int][]int

	skipMismatch bool
	mismatches   int
}

// NewIndex creates an empty taxonomy. When skipMismatch is true, a taxon
// that gets a second parent is logged and moved to the new parent instead
// of stopping ingestion.
func NewIndex(skipMismatch bool) *Index {
	return &Index{
		taxa:         make(map[int]*Taxon),
		children:     make(map[int][]int),
		skipMismatch: skipMismatch,
	}
}

// Add ingests a taxon row. Every id of the row's ancestry becomes a
// placeholder taxon if it is not known yet, and gets its parent pointer
// from the chain.
func (idx *Index) Add(row record.TaxonRow) error {
	chain, err := parseAncestry(row)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	parent := RootID
	for _, id := range chain {
		t, ok := idx.taxa[id]
		switch {
		case !ok:
			idx.taxa[id] = &Taxon{ID: id, ParentID: parent}
			idx.addChild(parent, id)
		case t.ParentID != parent:
			if !idx.skipMismatch {
				return AncestryMismatchError(id, t.ParentID, parent, row.ID)
			}
			idx.mismatches++
			slog.Warn("Ancestry mismatch",
				"taxon_id", id,
				"old_parent_id", t.ParentID,
				"new_parent_id", parent,
				"row_id", row.ID,
			)
			idx.removeChild(t.ParentID, id)
			t.ParentID = parent
			idx.addChild(parent, id)
		}
		parent = id
	}

	idx.taxa[row.ID].fill(row)
	return nil
}

// parseAncestry returns the chain of ids from the top-most ancestor to the
// taxon itself. A chain that repeats an id is rejected: Add sets every
// parent pointer to the previous id of the chain, so a repeated id would
// create a cycle detached from the root.
func parseAncestry(row record.TaxonRow) ([]int, error) {
	var res []int
	ancestry := strings.TrimSpace(row.Ancestry)
	if ancestry != "" {
		for _, v := range strings.Split(ancestry, "/") {
			id, err := strconv.Atoi(v)
			if err != nil {
				return nil, AncestryParseError(row.ID, row.Ancestry, err)
			}
			res = append(res, id)
		}
	}
	res = append(res, row.ID)

	seen := make(map[int]struct{}, len(res))
	for _, id := range res {
		if id == RootID {
			err := fmt.Errorf("reserved id %d", id)
			return nil, AncestryParseError(row.ID, row.Ancestry, err)
		}
		if _, ok := seen[id]; ok {
			err := fmt.Errorf("id %d repeats", id)
			return nil, AncestryParseError(row.ID, row.Ancestry, err)
		}
		seen[id] = struct{}{}
	}
	return res, nil
}

func (idx *Index) addChild(parent, id int) {
	ch := idx.children[parent]
	i, found := slices.BinarySearch(ch, id)
	if !found {
		idx.children[parent] = slices.Insert(ch, i, id)
	}
}

func (idx *Index) removeChild(parent, id int) {
	ch := idx.children[parent]
	if i, found := slices.BinarySearch(ch, id); found {
		idx.children[parent] = slices.Delete(ch, i, i+1)
	}
}

// Unnamed returns sorted ids of placeholder taxa that never got their own
// row.
func (idx *Index) Unnamed() []int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var res []int
	for id, t := range idx.taxa {
		if t.Placeholder() {
			res = append(res, id)
		}
	}
	slices.Sort(res)
	return res
}

// Mismatches returns the number of tolerated ancestry conflicts.
func (idx *Index) Mismatches() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.mismatches
}

// Len returns the number of taxa, placeholders included.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.taxa)
}

// Taxon returns a copy of the taxon with the given id.
func (idx *Index) Taxon(id int) (Taxon, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	t, ok := idx.taxa[id]
	if !ok {
		return Taxon{}, false
	}
	return *t, true
}

// Children returns ascending ids of direct children. RootID gives the
// top-level taxa.
func (idx *Index) Children(id int) []int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return slices.Clone(idx.children[id])
}

// Status returns the status of a taxon, Unset for unknown ids.
func (idx *Index) Status(id int) Status {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if t, ok := idx.taxa[id]; ok {
		return t.Status
	}
	return Unset
}

// SetStatus resolves a taxon. A status can be set only once.
func (idx *Index) SetStatus(id int, s Status) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.setStatus(id, s)
}

func (idx *Index) setStatus(id int, s Status) error {
	t, ok := idx.taxa[id]
	if !ok {
		return fmt.Errorf("unknown taxon %d", id)
	}
	if t.Status.Terminal() || !s.Terminal() {
		return StatusRegressionError(id, t.Status, s)
	}
	t.Status = s
	return nil
}

// SkipSubtree marks the taxon and all its unresolved descendants as
// Skipped. Resolved descendants keep their status.
func (idx *Index) SkipSubtree(id int) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.taxa[id]; !ok {
		return fmt.Errorf("unknown taxon %d", id)
	}

	stack := []int{id}
	seen := make(map[int]struct{})
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}

		if idx.taxa[cur].Status.Terminal() {
			continue
		}
		if err := idx.setStatus(cur, Skipped); err != nil {
			return err
		}
		stack = append(stack, idx.children[cur]...)
	}
	return nil
}

// SetCounts records how many photos a looked-up taxon got in each split.
func (idx *Index) SetCounts(id, train, val, test int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if t, ok := idx.taxa[id]; ok {
		t.TrainCount = train
		t.ValCount = val
		t.TestCount = test
	}
}

// Ancestry returns '/'-separated ids from the top-level ancestor down to
// the taxon itself.
func (idx *Index) Ancestry(id int) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var chain []string
	cur, ok := idx.taxa[id]
	// the limit stops the walk on cyclic parent pointers
	for steps := 0; ok && steps <= len(idx.taxa); steps++ {
		chain = append(chain, strconv.Itoa(cur.ID))
		if cur.ParentID == RootID {
			break
		}
		cur, ok = idx.taxa[cur.ParentID]
	}
	slices.Reverse(chain)
	return strings.Join(chain, "/")
}

// Tally counts taxa by status.
func (idx *Index) Tally() map[Status]int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	res := make(map[Status]int)
	for _, t := range idx.taxa {
		res[t.Status]++
	}
	return res
}
