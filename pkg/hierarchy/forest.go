// Package hierarchy stores the category forest as a flat arena keyed by id with
// a parent pointer and an ordered children index per node. Nesting is derived
// on demand, which keeps ancestry checks at O(depth).
package hierarchy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vanderheijden86/categorytree/pkg/model"
)

var (
	// ErrNotFound is returned when a category id is not in the forest
	ErrNotFound = errors.New("category not found")
	// ErrInvalidMove is returned when a move would make a category its own ancestor
	ErrInvalidMove = errors.New("invalid move")
	// ErrDuplicateID is returned when two categories share an id
	ErrDuplicateID = errors.New("duplicate category id")
)

// noParent marks a root in the arena. Ids are positive, so zero is free.
const noParent = model.RootDropTarget

type node struct {
	cat      model.Category // Children is always nil here; see children
	parent   int
	children []int
}

// Forest is an arena of categories indexed by id.
type Forest struct {
	nodes  map[int]*node
	roots  []int
	broken []int // ids detached from a cycle or duplicate while building
}

// New returns an empty forest.
func New() *Forest {
	return &Forest{nodes: make(map[int]*node)}
}

// Build constructs a forest from pre-nested categories. The nesting is
// authoritative: ParentID is rewritten to match the enclosing category, and a
// repeated id is dropped so each node appears under exactly one parent.
func Build(roots []model.Category) *Forest {
	f := New()
	for i := range roots {
		f.insertNested(&roots[i], noParent)
	}
	return f
}

func (f *Forest) insertNested(c *model.Category, parent int) {
	if _, dup := f.nodes[c.ID]; dup {
		f.broken = append(f.broken, c.ID)
		return
	}
	flat := c.Clone()
	flat.Children = nil
	if parent == noParent {
		flat.ParentID = nil
		f.roots = append(f.roots, c.ID)
	} else {
		flat.ParentID = model.IntPtr(parent)
		p := f.nodes[parent]
		p.children = append(p.children, c.ID)
	}
	f.nodes[c.ID] = &node{cat: flat, parent: parent}
	for i := range c.Children {
		f.insertNested(&c.Children[i], c.ID)
	}
}

// FromFlat constructs a forest from parent-pointer rows. Siblings are ordered
// by Sequence, then by input order. A row whose parent is missing becomes a
// root. Rows stuck in a parent cycle are detached and promoted to roots so
// that every row stays reachable; Broken reports them.
func FromFlat(flat []model.Category) (*Forest, error) {
	f := New()
	order := make([]int, 0, len(flat))
	for i := range flat {
		c := flat[i].Clone()
		c.Children = nil
		if _, dup := f.nodes[c.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, c.ID)
		}
		f.nodes[c.ID] = &node{cat: c, parent: noParent}
		order = append(order, c.ID)
	}

	for _, id := range order {
		n := f.nodes[id]
		if n.cat.ParentID == nil {
			continue
		}
		pid := *n.cat.ParentID
		if _, ok := f.nodes[pid]; !ok || pid == id {
			// Dangling or self reference: treat as root rather than losing the row
			n.cat.ParentID = nil
			continue
		}
		n.parent = pid
	}

	for _, id := range order {
		n := f.nodes[id]
		if n.parent == noParent {
			f.roots = append(f.roots, id)
		} else {
			p := f.nodes[n.parent]
			p.children = append(p.children, id)
		}
	}

	// Anything not reachable from a root sits on a cycle (or under one).
	reached := make(map[int]bool, len(f.nodes))
	for _, r := range f.roots {
		f.mark(r, reached)
	}
	for _, id := range order {
		if reached[id] {
			continue
		}
		f.detach(id)
		f.nodes[id].cat.ParentID = nil
		f.roots = append(f.roots, id)
		f.broken = append(f.broken, id)
		f.mark(id, reached)
	}

	f.sortSiblings(f.roots)
	for _, n := range f.nodes {
		f.sortSiblings(n.children)
	}
	return f, nil
}

func (f *Forest) mark(id int, reached map[int]bool) {
	if reached[id] {
		return
	}
	reached[id] = true
	for _, c := range f.nodes[id].children {
		f.mark(c, reached)
	}
}

func (f *Forest) sortSiblings(ids []int) {
	sort.SliceStable(ids, func(i, j int) bool {
		return f.nodes[ids[i]].cat.Sequence < f.nodes[ids[j]].cat.Sequence
	})
}

// Len returns the number of categories in the forest.
func (f *Forest) Len() int {
	return len(f.nodes)
}

// Broken returns ids that were detached while building (cycles, duplicates).
func (f *Forest) Broken() []int {
	return append([]int(nil), f.broken...)
}

// Has reports whether id is in the forest.
func (f *Forest) Has(id int) bool {
	_, ok := f.nodes[id]
	return ok
}

// Get returns the category without nested children.
func (f *Forest) Get(id int) (model.Category, bool) {
	n, ok := f.nodes[id]
	if !ok {
		return model.Category{}, false
	}
	c := n.cat.Clone()
	c.ChildCount = model.IntPtr(len(n.children))
	return c, true
}

// Subtree returns the category with its descendants nested under Children.
func (f *Forest) Subtree(id int) (model.Category, bool) {
	if _, ok := f.nodes[id]; !ok {
		return model.Category{}, false
	}
	return f.nest(id), true
}

func (f *Forest) nest(id int) model.Category {
	n := f.nodes[id]
	c := n.cat.Clone()
	c.ChildCount = model.IntPtr(len(n.children))
	if len(n.children) > 0 {
		c.Children = make([]model.Category, 0, len(n.children))
		for _, cid := range n.children {
			c.Children = append(c.Children, f.nest(cid))
		}
	}
	return c
}

// Roots returns root ids in display order.
func (f *Forest) Roots() []int {
	return append([]int(nil), f.roots...)
}

// Children returns the ordered child ids of id.
func (f *Forest) Children(id int) []int {
	n, ok := f.nodes[id]
	if !ok {
		return nil
	}
	return append([]int(nil), n.children...)
}

// HasChildren reports whether id has at least one child.
func (f *Forest) HasChildren(id int) bool {
	n, ok := f.nodes[id]
	return ok && len(n.children) > 0
}

// Parent returns the parent id of id and false for roots or unknown ids.
func (f *Forest) Parent(id int) (int, bool) {
	n, ok := f.nodes[id]
	if !ok || n.parent == noParent {
		return 0, false
	}
	return n.parent, true
}

// Depth returns the nesting level of id (0 for roots, -1 if unknown).
func (f *Forest) Depth(id int) int {
	n, ok := f.nodes[id]
	if !ok {
		return -1
	}
	depth := 0
	for n.parent != noParent {
		depth++
		n = f.nodes[n.parent]
	}
	return depth
}

// Path returns the category names from the root down to id.
func (f *Forest) Path(id int) []string {
	var path []string
	n, ok := f.nodes[id]
	for ok {
		path = append([]string{n.cat.Name}, path...)
		if n.parent == noParent {
			break
		}
		n, ok = f.nodes[n.parent]
	}
	return path
}

// Ancestors returns the ids from the root down to the parent of id.
func (f *Forest) Ancestors(id int) []int {
	var out []int
	n, ok := f.nodes[id]
	for ok && n.parent != noParent {
		out = append([]int{n.parent}, out...)
		n, ok = f.nodes[n.parent]
	}
	return out
}

// Siblings returns the ordered list id belongs to (roots for a root).
func (f *Forest) Siblings(id int) []int {
	n, ok := f.nodes[id]
	if !ok {
		return nil
	}
	if n.parent == noParent {
		return f.Roots()
	}
	return f.Children(n.parent)
}

// Walk visits every category in pre-order with its depth. Returning false from
// fn skips that category's descendants.
func (f *Forest) Walk(fn func(c model.Category, depth int) bool) {
	var visit func(id, depth int)
	visit = func(id, depth int) {
		c, _ := f.Get(id)
		if !fn(c, depth) {
			return
		}
		for _, cid := range f.nodes[id].children {
			visit(cid, depth+1)
		}
	}
	for _, r := range f.roots {
		visit(r, 0)
	}
}

// IDs returns every category id in pre-order. This is the id universe used by
// expand-all.
func (f *Forest) IDs() []int {
	out := make([]int, 0, len(f.nodes))
	f.Walk(func(c model.Category, _ int) bool {
		out = append(out, c.ID)
		return true
	})
	return out
}

// ExpandableIDs returns ids of categories that have children, in pre-order.
func (f *Forest) ExpandableIDs() []int {
	var out []int
	f.Walk(func(c model.Category, _ int) bool {
		if f.HasChildren(c.ID) {
			out = append(out, c.ID)
		}
		return true
	})
	return out
}

// Nested rebuilds the nested representation with ParentID and ChildCount set.
func (f *Forest) Nested() []model.Category {
	out := make([]model.Category, 0, len(f.roots))
	for _, r := range f.roots {
		out = append(out, f.nest(r))
	}
	return out
}

// Flatten returns every category without nesting, in pre-order.
func (f *Forest) Flatten() []model.Category {
	out := make([]model.Category, 0, len(f.nodes))
	f.Walk(func(c model.Category, _ int) bool {
		out = append(out, c)
		return true
	})
	return out
}

// FillTotals computes TotalProductCount for categories whose source left it
// empty, summing direct counts over the subtree.
func (f *Forest) FillTotals() {
	var total func(id int) int
	total = func(id int) int {
		n := f.nodes[id]
		sum := n.cat.DirectCount()
		for _, cid := range n.children {
			sum += total(cid)
		}
		if n.cat.TotalProductCount == nil {
			n.cat.TotalProductCount = model.IntPtr(sum)
		}
		return sum
	}
	for _, r := range f.roots {
		total(r)
	}
}
