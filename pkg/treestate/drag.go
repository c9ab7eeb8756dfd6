// Package treestate holds the transient state of the category tree: the drag
// session, the expansion set and keyboard focus. Each piece is a small value
// or object that only changes through its transition methods.
package treestate

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
	"github.com/vanderheijden86/categorytree/pkg/model"
)

// AfterMode decides what an "after" drop means.
type AfterMode string

const (
	// AfterSibling places the dragged category directly after the target,
	// under the target's parent.
	AfterSibling AfterMode = "sibling"
	// AfterReparent nests under the target, same as "inside". The position
	// only changes the drop indicator.
	AfterReparent AfterMode = "reparent"
)

// ParseAfterMode parses "sibling" or "reparent". Empty means sibling.
func ParseAfterMode(s string) (AfterMode, error) {
	switch m := AfterMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return AfterSibling, nil
	case AfterSibling, AfterReparent:
		return m, nil
	default:
		return "", fmt.Errorf("invalid after mode %q (want sibling or reparent)", s)
	}
}

// Pointer locates the cursor relative to the hovered row. Top and Height
// describe the row's bounding box on the same axis as Y.
type Pointer struct {
	Y      float64
	Top    float64
	Height float64
}

// TopHalf returns a pointer sitting in the upper half of a unit-height row.
func TopHalf() Pointer { return Pointer{Y: 0.25, Height: 1} }

// BottomHalf returns a pointer sitting in the lower half of a unit-height row.
func BottomHalf() Pointer { return Pointer{Y: 0.75, Height: 1} }

// ResolvePosition maps the pointer to a drop position. Rows without children
// always resolve to inside. For rows with children the top half means inside
// and the bottom half means after.
func ResolvePosition(hasChildren bool, p Pointer) model.DropPosition {
	if !hasChildren {
		return model.DropInside
	}
	if p.Y-p.Top < p.Height/2 {
		return model.DropInside
	}
	return model.DropAfter
}

// Drag is a drag session. The zero value (plus a Mode) is the idle state.
// Dragged carries its nested Children so the ancestry guard can run without
// the forest.
type Drag struct {
	Mode      AfterMode
	Dragged   *model.Category
	TargetID  int
	TargetSet bool
	Position  model.DropPosition
	RootHover bool
}

// NewDrag returns an idle session using mode for "after" drops.
func NewDrag(mode AfterMode) Drag {
	return Drag{Mode: mode}
}

// Active reports whether a category is being dragged.
func (d Drag) Active() bool {
	return d.Dragged != nil
}

// Start records c as the dragged category. It is refused while a move is in
// flight or while another session is still active.
func (d Drag) Start(c model.Category, isMoving bool) (Drag, bool) {
	if isMoving || d.Active() {
		return d, false
	}
	dragged := c.Clone()
	return Drag{Mode: d.Mode, Dragged: &dragged}, true
}

// Over recomputes the hover target and position. It runs on every pointer
// move without debouncing.
func (d Drag) Over(targetID int, hasChildren bool, p Pointer) Drag {
	if !d.Active() {
		return d
	}
	d.TargetID = targetID
	d.TargetSet = true
	d.Position = ResolvePosition(hasChildren, p)
	d.RootHover = false
	return d
}

// OverRoot moves the hover to the root drop zone.
func (d Drag) OverRoot() Drag {
	if !d.Active() {
		return d
	}
	d.TargetID = model.RootDropTarget
	d.TargetSet = false
	d.Position = ""
	d.RootHover = true
	return d
}

// CanDrop applies the ancestry guard to targetID.
func (d Drag) CanDrop(targetID int) bool {
	return hierarchy.CanDrop(d.Dragged, targetID)
}

// HoverValid reports whether the current hover target would accept the drop.
// Invalid targets are never highlighted.
func (d Drag) HoverValid() bool {
	if d.RootHover {
		return d.RootAccepts()
	}
	return d.TargetSet && d.CanDrop(d.TargetID)
}

// RootAccepts reports whether the root drop zone accepts the dragged
// category. Categories that are already roots are refused.
func (d Drag) RootAccepts() bool {
	return d.Active() && d.Dragged.ParentID != nil
}

// Drop finalizes the session over target. It returns at most one move
// request and always returns the cleared session.
func (d Drag) Drop(target model.Category, position model.DropPosition) (*model.MoveRequest, Drag) {
	next := d.End()
	if !d.CanDrop(target.ID) {
		return nil, next
	}
	req := &model.MoveRequest{CategoryID: d.Dragged.ID, Position: position}
	if position == model.DropAfter && d.Mode != AfterReparent {
		if target.ParentID != nil {
			req.NewParentID = model.IntPtr(*target.ParentID)
		}
		req.AfterID = model.IntPtr(target.ID)
		return req, next
	}
	if position != model.DropAfter {
		req.Position = model.DropInside
	}
	req.NewParentID = model.IntPtr(target.ID)
	return req, next
}

// DropOnRoot finalizes the session over the root drop zone.
func (d Drag) DropOnRoot() (*model.MoveRequest, Drag) {
	next := d.End()
	if !d.RootAccepts() {
		return nil, next
	}
	return &model.MoveRequest{CategoryID: d.Dragged.ID, Position: model.DropInside}, next
}

// End clears the session unconditionally. Cancel paths (escape, focus loss,
// release outside any row) call this directly.
func (d Drag) End() Drag {
	return Drag{Mode: d.Mode}
}
