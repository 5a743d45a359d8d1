// Package completion decides which taxa need their own data lookup.
//
// A taxon is covered when any of its non-skipped children is populated or
// complete. Children outcomes are known only after their lookups, so the
// taxonomy is walked again and again: every pass collects a frontier of
// taxa that need a lookup, the caller drains it, and the next pass sees the
// updated statuses. The run is over when every top-level taxon is settled.
package completion

import (
	"context"
	"slices"
	"sync"

	"github.com/gnames/gnvision/pkg/taxon"
)

// Drain looks up every taxon of the frontier and resolves it. Taxa that
// could not be looked up are reported with Engine.Fail.
type Drain func(ctx context.Context, pass int, frontier []int) error

// Engine walks the taxonomy and keeps track of failed lookups.
type Engine struct {
	idx       *taxon.Index
	assessor  *taxon.Assessor
	leaves    map[int]struct{}
	maxPasses int

	mu     sync.Mutex
	failed map[int]struct{}
	passes int
}

// New creates an Engine. Taxa from leafIDs are treated as leaves even if
// they have children. With maxPasses 0 the limit is the number of taxa
// plus one.
func New(
	idx *taxon.Index,
	assessor *taxon.Assessor,
	leafIDs []int,
	maxPasses int,
) *Engine {
	res := &Engine{
		idx:       idx,
		assessor:  assessor,
		leaves:    make(map[int]struct{}, len(leafIDs)),
		maxPasses: maxPasses,
		failed:    make(map[int]struct{}),
	}
	for _, v := range leafIDs {
		res.leaves[v] = struct{}{}
	}
	return res
}

// Fail marks a taxon whose lookup failed. It stays Unset, but is never
// enqueued again and does not cover its parent.
func (e *Engine) Fail(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failed[id] = struct{}{}
}

// Failed returns sorted ids of taxa with failed lookups.
func (e *Engine) Failed() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := make([]int, 0, len(e.failed))
	for id := range e.failed {
		res = append(res, id)
	}
	slices.Sort(res)
	return res
}

// Passes returns the number of drained passes.
func (e *Engine) Passes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.passes
}

// IsLeaf is true for taxa that are not descended into.
func (e *Engine) IsLeaf(id int) bool {
	if _, ok := e.leaves[id]; ok {
		return true
	}
	return len(e.idx.Children(id)) == 0
}

func (e *Engine) settled(id int) bool {
	if e.idx.Status(id).Terminal() {
		return true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.failed[id]
	return ok
}

// Done is true when every top-level taxon is settled.
func (e *Engine) Done() bool {
	for _, id := range e.idx.Children(taxon.RootID) {
		if !e.settled(id) {
			return false
		}
	}
	return true
}

type frame struct {
	id       int
	within   bool
	expanded bool
}

// Frontier makes one depth-first pass over unsettled taxa. It marks taxa
// covered by their children as complete, skips excluded taxa, and returns
// ids of taxa that need a lookup, in traversal order.
func (e *Engine) Frontier() ([]int, error) {
	var res []int
	onStack := make(map[int]struct{})
	stack := e.push(nil, taxon.RootID, false)

	for len(stack) > 0 {
		f := &stack[len(stack)-1]

		if f.expanded {
			stack = stack[:len(stack)-1]
			delete(onStack, f.id)
			enqueue, err := e.resolve(f.id)
			if err != nil {
				return nil, err
			}
			if enqueue {
				res = append(res, f.id)
			}
			continue
		}

		if e.settled(f.id) {
			stack = stack[:len(stack)-1]
			continue
		}

		within, err := e.assessor.Assess(f.id, f.within)
		if err != nil {
			return nil, err
		}
		if e.settled(f.id) {
			stack = stack[:len(stack)-1]
			continue
		}

		if e.IsLeaf(f.id) {
			stack = stack[:len(stack)-1]
			res = append(res, f.id)
			continue
		}

		f.expanded = true
		id := f.id
		onStack[id] = struct{}{}
		for _, ch := range e.idx.Children(id) {
			if _, ok := onStack[ch]; ok {
				return nil, CycleError(ch)
			}
		}
		stack = e.push(stack, id, within)
	}

	return res, nil
}

// push adds unsettled children of the taxon to the stack, so that the
// smallest id is on top.
func (e *Engine) push(stack []frame, id int, within bool) []frame {
	children := e.idx.Children(id)
	for i := len(children) - 1; i >= 0; i-- {
		if !e.settled(children[i]) {
			stack = append(stack, frame{id: children[i], within: within})
		}
	}
	return stack
}

// resolve runs after all unsettled children of a taxon were visited. It
// returns true if the taxon needs its own lookup.
func (e *Engine) resolve(id int) (bool, error) {
	var covered bool
	for _, ch := range e.idx.Children(id) {
		if !e.settled(ch) {
			return false, nil
		}
		if e.idx.Status(ch).Covers() {
			covered = true
		}
	}
	if covered {
		return false, e.idx.SetStatus(id, taxon.Complete)
	}
	return true, nil
}

// Run repeats passes until every top-level taxon is settled. Every
// non-empty frontier is handed to drain, which has to settle at least one
// of its taxa.
func (e *Engine) Run(ctx context.Context, drain Drain) error {
	limit := e.maxPasses
	if limit < 1 {
		limit = e.idx.Len() + 1
	}

	for pass := 1; !e.Done(); pass++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if pass > limit {
			return PassLimitError(limit, e.unsettledRoots())
		}

		frontier, err := e.Frontier()
		if err != nil {
			return err
		}
		if len(frontier) == 0 {
			if e.Done() {
				return nil
			}
			return NoProgressError(pass, e.unsettledRoots())
		}

		e.mu.Lock()
		e.passes = pass
		e.mu.Unlock()

		if err = drain(ctx, pass, frontier); err != nil {
			return err
		}
		if !e.progressed(frontier) {
			return NoProgressError(pass, e.unsettledRoots())
		}
	}
	return nil
}

// progressed is true if a drain settled at least one taxon of the
// frontier.
func (e *Engine) progressed(frontier []int) bool {
	for _, id := range frontier {
		if e.settled(id) {
			return true
		}
	}
	return false
}

func (e *Engine) unsettledRoots() int {
	var res int
	for _, id := range e.idx.Children(taxon.RootID) {
		if !e.settled(id) {
			res++
		}
	}
	return res
}
