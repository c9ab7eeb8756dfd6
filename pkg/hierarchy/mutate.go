package hierarchy

import (
	"fmt"

	"github.com/vanderheijden86/categorytree/pkg/model"
)

// SequenceStep is the gap left between sibling sequence numbers after a
// re-sequence, so a store can slot rows in without renumbering everything.
const SequenceStep = 10

// detach removes id from its parent's children (or from roots) and marks it
// parentless. The node itself stays in the arena.
func (f *Forest) detach(id int) {
	n := f.nodes[id]
	if n.parent == noParent {
		f.roots = removeID(f.roots, id)
	} else if p, ok := f.nodes[n.parent]; ok {
		p.children = removeID(p.children, id)
	}
	n.parent = noParent
}

func removeID(ids []int, id int) []int {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func insertAfter(ids []int, id int, after *int) []int {
	if after != nil {
		for i, v := range ids {
			if v == *after {
				ids = append(ids, 0)
				copy(ids[i+2:], ids[i+1:])
				ids[i+1] = id
				return ids
			}
		}
	}
	return append(ids, id)
}

func (f *Forest) resequence(ids []int) {
	for i, id := range ids {
		f.nodes[id].cat.Sequence = (i + 1) * SequenceStep
	}
}

func (f *Forest) siblingList(parent int) []int {
	if parent == noParent {
		return f.roots
	}
	return f.nodes[parent].children
}

func (f *Forest) setSiblingList(parent int, ids []int) {
	if parent == noParent {
		f.roots = ids
		return
	}
	f.nodes[parent].children = ids
}

// Apply performs a move on the forest. The category is appended to the new
// parent's children unless AfterID names one of them, in which case it is
// placed directly after that sibling. Both the old and the new sibling lists
// are re-sequenced. A move that would place a category under itself or one
// of its descendants fails with ErrInvalidMove and leaves the forest untouched.
func (f *Forest) Apply(req model.MoveRequest) error {
	n, ok := f.nodes[req.CategoryID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, req.CategoryID)
	}
	newParent := noParent
	if req.NewParentID != nil {
		newParent = *req.NewParentID
		if !f.Has(newParent) {
			return fmt.Errorf("%w: parent %d", ErrNotFound, newParent)
		}
		if newParent == req.CategoryID || f.IsDescendant(req.CategoryID, newParent) {
			return fmt.Errorf("%w: %s would create a cycle", ErrInvalidMove, req)
		}
	}
	if req.AfterID != nil && *req.AfterID == req.CategoryID {
		return fmt.Errorf("%w: %s places a category after itself", ErrInvalidMove, req)
	}

	oldParent := n.parent
	f.detach(req.CategoryID)
	f.resequence(f.siblingList(oldParent))

	f.setSiblingList(newParent, insertAfter(f.siblingList(newParent), req.CategoryID, req.AfterID))
	n.parent = newParent
	if newParent == noParent {
		n.cat.ParentID = nil
	} else {
		n.cat.ParentID = model.IntPtr(newParent)
	}
	f.resequence(f.siblingList(newParent))
	return nil
}

// Remove deletes a category. Its children are promoted to roots, mirroring an
// ON DELETE SET NULL parent reference.
func (f *Forest) Remove(id int) error {
	n, ok := f.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	f.detach(id)
	for _, cid := range n.children {
		c := f.nodes[cid]
		c.parent = noParent
		c.cat.ParentID = nil
		f.roots = append(f.roots, cid)
	}
	delete(f.nodes, id)
	f.resequence(f.roots)
	return nil
}

// Rename changes the display name of a category.
func (f *Forest) Rename(id int, name string) error {
	n, ok := f.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	c := n.cat.Clone()
	c.Name = name
	if err := c.Validate(); err != nil {
		return err
	}
	n.cat.Name = name
	return nil
}

// Insert adds a new leaf category under parentID (nil for a root), appended
// after its siblings.
func (f *Forest) Insert(c model.Category, parentID *int) error {
	if f.Has(c.ID) {
		return fmt.Errorf("%w: %d", ErrDuplicateID, c.ID)
	}
	parent := noParent
	if parentID != nil {
		parent = *parentID
		if !f.Has(parent) {
			return fmt.Errorf("%w: parent %d", ErrNotFound, parent)
		}
	}
	c = c.Clone()
	c.Children = nil
	c.ParentID = nil
	if parent != noParent {
		c.ParentID = model.IntPtr(parent)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	f.nodes[c.ID] = &node{cat: c, parent: parent}
	f.setSiblingList(parent, append(f.siblingList(parent), c.ID))
	f.resequence(f.siblingList(parent))
	return nil
}

// Clone returns an independent copy of the forest.
func (f *Forest) Clone() *Forest {
	out := &Forest{
		nodes:  make(map[int]*node, len(f.nodes)),
		roots:  append([]int(nil), f.roots...),
		broken: append([]int(nil), f.broken...),
	}
	for id, n := range f.nodes {
		out.nodes[id] = &node{
			cat:      n.cat.Clone(),
			parent:   n.parent,
			children: append([]int(nil), n.children...),
		}
	}
	return out
}
