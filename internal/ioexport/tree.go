package ioexport

import (
	"context"
	"fmt"
	"slices"

	"github.com/gnames/gnvision/internal/iosink"
	"github.com/gnames/gnvision/pkg/allocate"
	"github.com/gnames/gnvision/pkg/taxon"
)

type treeFrame struct {
	id int
	// indent continues lines of ancestors, branch is the prefix of the
	// taxon's own line.
	indent, branch string
}

// writeTaxonomy writes taxonomy.csv and taxonomy_visual.txt in one
// depth-first walk. Skipped subtrees are left out and custom leaves are not
// descended.
func (e *exporter) writeTaxonomy(ctx context.Context) error {
	failed := make(map[int]struct{})
	for _, id := range e.engine.Failed() {
		failed[id] = struct{}{}
	}

	stack := e.pushChildren(nil, treeFrame{id: taxon.RootID})
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		t, _ := e.idx.Taxon(f.id)
		if t.Status.Covers() {
			if err := e.m.WriteTaxon(ctx, e.taxonomyRow(t)); err != nil {
				return err
			}
		}

		status := t.Status.String()
		if _, ok := failed[t.ID]; ok {
			status = "failed"
		}
		line := fmt.Sprintf("%s%s, %d, %s, %s",
			f.branch, iosink.CleanName(t.Name), t.ID, t.Rank, status)
		if t.Status != taxon.Complete {
			line += fmt.Sprintf(", %d::%d::%d", t.TrainCount, t.ValCount, t.TestCount)
		}
		if err := e.m.WriteVisual(ctx, line); err != nil {
			return err
		}

		if !e.engine.IsLeaf(f.id) {
			stack = e.pushChildren(stack, f)
		}
	}

	return e.writeStats(ctx)
}

// pushChildren adds not skipped children of f in reverse order, so the
// smallest id is visited first.
func (e *exporter) pushChildren(stack []treeFrame, f treeFrame) []treeFrame {
	var kids []int
	for _, id := range e.idx.Children(f.id) {
		if e.idx.Status(id) != taxon.Skipped {
			kids = append(kids, id)
		}
	}

	for i, id := range slices.Backward(kids) {
		branch, indent := "├──", "│   "
		if i == len(kids)-1 {
			branch, indent = "└──", "   "
		}
		if f.id == taxon.RootID {
			branch, indent = "", ""
		}
		stack = append(stack, treeFrame{
			id:     id,
			indent: f.indent + indent,
			branch: f.indent + branch,
		})
	}
	return stack
}

func (e *exporter) taxonomyRow(t taxon.Taxon) iosink.TaxonomyRow {
	res := iosink.TaxonomyRow{
		ParentID:  t.ParentID,
		TaxonID:   t.ID,
		RankLevel: t.RankLevel,
		Name:      t.Name,
	}
	if leaf, ok := e.classes.Leaf(t.ID); ok {
		res.Exported = true
		res.LeafClass = leaf
		res.IconicClass, _ = e.classes.Iconic(t.IconicTaxonID)
	}
	return res
}

func (e *exporter) writeStats(ctx context.Context) error {
	stats := []string{
		fmt.Sprintf("Total leaves: %d", len(e.classes.Leaves())),
		fmt.Sprintf("Total train photos: %d", e.totals[allocate.Train]),
		fmt.Sprintf("Total val photos: %d", e.totals[allocate.Val]),
		fmt.Sprintf("Total test photos: %d", e.totals[allocate.Test]),
	}
	for _, v := range stats {
		if err := e.m.WriteVisual(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// writeIconic writes iconic classes in class index order.
func (e *exporter) writeIconic(ctx context.Context) error {
	for i, id := range e.classes.IconicIDs() {
		name := "Unassigned"
		if t, ok := e.idx.Taxon(id); ok && t.Name != "" {
			name = t.Name
		}
		row := iosink.IconicRow{IconicTaxonID: id, Class: i, Name: name}
		if err := e.m.WriteIconic(ctx, row); err != nil {
			return err
		}
	}
	return nil
}
