package allocate

import (
	"slices"
	"sync"
)

// Classes gives dense indices to exported leaf taxa and to their iconic
// taxa, in order of assignment. It is safe for concurrent use.
type Classes struct {
	mu sync.Mutex

	leaf      map[int]int
	leafOrder []int

	iconic      map[int]int
	iconicOrder []int
}

// NewClasses creates empty class tables.
func NewClasses() *Classes {
	return &Classes{
		leaf:   make(map[int]int),
		iconic: make(map[int]int),
	}
}

// Assign gives indices to a populated taxon and its iconic taxon.
func (c *Classes) Assign(taxonID, iconicID int) (leaf, iconic int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assignLeaf(taxonID), c.assignIconic(iconicID)
}

// AssignLeaf returns the index of a leaf class, creating it if needed.
func (c *Classes) AssignLeaf(taxonID int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assignLeaf(taxonID)
}

// AssignIconic returns the index of an iconic class, creating it if needed.
func (c *Classes) AssignIconic(iconicID int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assignIconic(iconicID)
}

func (c *Classes) assignLeaf(id int) int {
	if res, ok := c.leaf[id]; ok {
		return res
	}
	res := len(c.leafOrder)
	c.leaf[id] = res
	c.leafOrder = append(c.leafOrder, id)
	return res
}

func (c *Classes) assignIconic(id int) int {
	if res, ok := c.iconic[id]; ok {
		return res
	}
	res := len(c.iconicOrder)
	c.iconic[id] = res
	c.iconicOrder = append(c.iconicOrder, id)
	return res
}

// Leaf returns the class index of a taxon.
func (c *Classes) Leaf(taxonID int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.leaf[taxonID]
	return res, ok
}

// Iconic returns the class index of an iconic taxon.
func (c *Classes) Iconic(iconicID int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.iconic[iconicID]
	return res, ok
}

// Leaves returns taxon ids in class index order.
func (c *Classes) Leaves() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.leafOrder)
}

// IconicIDs returns iconic taxon ids in class index order.
func (c *Classes) IconicIDs() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.iconicOrder)
}
