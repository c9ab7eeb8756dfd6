package hierarchy

import (
	"github.com/vanderheijden86/categorytree/pkg/model"
)

// IsDescendant walks ancestor.Children recursively and reports whether any
// nested category has targetID. A category with no children has no
// descendants. The ancestor itself does not count.
func IsDescendant(ancestor model.Category, targetID int) bool {
	for _, child := range ancestor.Children {
		if child.ID == targetID || IsDescendant(child, targetID) {
			return true
		}
	}
	return false
}

// CanDrop reports whether dragged may be dropped onto hoveredID: something is
// being dragged, the target is not the dragged category, and the target is
// not one of its descendants.
func CanDrop(dragged *model.Category, hoveredID int) bool {
	return dragged != nil && dragged.ID != hoveredID && !IsDescendant(*dragged, hoveredID)
}

// IsDescendant reports whether targetID sits somewhere below ancestorID.
// It walks parent pointers up from the target, so the cost is the target's
// depth rather than the size of the ancestor's subtree.
func (f *Forest) IsDescendant(ancestorID, targetID int) bool {
	n, ok := f.nodes[targetID]
	if !ok || ancestorID == targetID {
		return false
	}
	for n.parent != noParent {
		if n.parent == ancestorID {
			return true
		}
		n = f.nodes[n.parent]
	}
	return false
}

// CanDrop is the arena form of CanDrop.
func (f *Forest) CanDrop(draggedID, hoveredID int) bool {
	if !f.Has(draggedID) || draggedID == hoveredID {
		return false
	}
	return !f.IsDescendant(draggedID, hoveredID)
}

// ValidParents returns the ids that id may be re-parented under, in pre-order.
// The current parent is excluded since moving there changes nothing.
func (f *Forest) ValidParents(id int) []int {
	if !f.Has(id) {
		return nil
	}
	current, _ := f.Parent(id)
	var out []int
	f.Walk(func(c model.Category, _ int) bool {
		if c.ID == id {
			return false // skip the whole subtree
		}
		if c.ID != current {
			out = append(out, c.ID)
		}
		return true
	})
	return out
}
