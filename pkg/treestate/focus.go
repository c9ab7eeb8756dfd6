package treestate

// Focus is the single focused category shared by the whole tree.
type Focus struct {
	ID  int
	Set bool
}

// FocusOn returns focus on id. Changed is false when id was already focused,
// so callers only scroll once per focus change.
func (f Focus) FocusOn(id int) (next Focus, changed bool) {
	if f.Set && f.ID == id {
		return f, false
	}
	return Focus{ID: id, Set: true}, true
}

// Is reports whether id holds the focus.
func (f Focus) Is(id int) bool {
	return f.Set && f.ID == id
}

// Clear drops the focus.
func (f Focus) Clear() Focus {
	return Focus{}
}

// ScrollTo returns the viewport offset that brings row into a window of
// height rows starting at offset, moving by the smallest amount needed.
func ScrollTo(offset, row, height int) int {
	if height <= 0 {
		return offset
	}
	if row < offset {
		return row
	}
	if row >= offset+height {
		return row - height + 1
	}
	return offset
}
