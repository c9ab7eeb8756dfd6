// Package export renders the category tree to Markdown, SVG and PNG.
package export

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
	"github.com/vanderheijden86/categorytree/pkg/model"
)

// Row is one line of a rendered tree.
type Row struct {
	Category model.Category
	Depth    int
	// Last is true when the category is the last of its siblings.
	Last bool
	// Guides[i] is true when a vertical guide continues at level i, i.e. the
	// ancestor at that level still has siblings below.
	Guides []bool
	// Expandable is true when the category has children.
	Expandable bool
}

// Layout flattens the forest into rows in display order. When expanded is
// nil every category is shown; otherwise children of collapsed categories
// are skipped.
func Layout(f *hierarchy.Forest, expanded func(id int) bool) []Row {
	var rows []Row
	var visit func(ids []int, depth int, guides []bool)
	visit = func(ids []int, depth int, guides []bool) {
		for i, id := range ids {
			c, _ := f.Get(id)
			last := i == len(ids)-1
			children := f.Children(id)
			rows = append(rows, Row{
				Category:   c,
				Depth:      depth,
				Last:       last,
				Guides:     append([]bool(nil), guides...),
				Expandable: len(children) > 0,
			})
			if len(children) > 0 && (expanded == nil || expanded(id)) {
				visit(children, depth+1, append(append([]bool(nil), guides...), !last))
			}
		}
	}
	visit(f.Roots(), 0, nil)
	return rows
}

// Prefix returns the box-drawing guide for a row, e.g. "│   ├── ".
func (r Row) Prefix() string {
	if r.Depth == 0 {
		return ""
	}
	var sb strings.Builder
	// Guides[0] belongs to the root level, which draws no connector.
	for _, g := range r.Guides[1:] {
		if g {
			sb.WriteString("│   ")
		} else {
			sb.WriteString("    ")
		}
	}
	if r.Last {
		sb.WriteString("└── ")
	} else {
		sb.WriteString("├── ")
	}
	return sb.String()
}

// Label returns the name followed by its count badges.
func (r Row) Label() string {
	var sb strings.Builder
	sb.WriteString(r.Category.Name)
	if n := r.Category.DirectCount(); n > 0 {
		fmt.Fprintf(&sb, " (%d)", n)
	}
	if r.Category.ShowTotalBadge() {
		fmt.Fprintf(&sb, " [Σ %d]", r.Category.TotalCount())
	}
	return sb.String()
}
