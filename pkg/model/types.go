package model

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RootDropTarget is the drop target id that stands for "no parent".
// Category ids are always positive, so zero never collides with a real node.
const RootDropTarget = 0

// Category represents a node in the product classification hierarchy
type Category struct {
	ID                int        `json:"id" validate:"gt=0"`
	Name              string     `json:"name" validate:"required,max=255"`
	ParentID          *int       `json:"parent_id"`
	Sequence          int        `json:"sequence,omitempty"`
	Children          []Category `json:"children,omitempty" validate:"dive"`
	ProductCount      *int       `json:"product_count,omitempty" validate:"omitempty,gte=0"`
	TotalProductCount *int       `json:"total_product_count,omitempty" validate:"omitempty,gte=0"`
	ChildCount        *int       `json:"child_count,omitempty" validate:"omitempty,gte=0"`
}

var validate = validator.New()

// Validate checks field-level constraints of the category and its nested children.
// Structural invariants (no cycles, unique ids) are checked by the hierarchy package.
func (c *Category) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if c.ParentID != nil && *c.ParentID == c.ID {
		return fmt.Errorf("category %d cannot be its own parent", c.ID)
	}
	return nil
}

func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, e.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s cannot be negative", field))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return fmt.Errorf("invalid category: %s", strings.Join(msgs, "; "))
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// HasChildren reports whether the category has at least one nested child.
func (c *Category) HasChildren() bool {
	return len(c.Children) > 0
}

// DirectCount returns the number of products assigned directly to the category.
func (c *Category) DirectCount() int {
	if c.ProductCount == nil {
		return 0
	}
	return *c.ProductCount
}

// TotalCount returns the product count including descendants, falling back to
// the direct count when the source did not provide a subtree total.
func (c *Category) TotalCount() int {
	if c.TotalProductCount == nil {
		return c.DirectCount()
	}
	return *c.TotalProductCount
}

// ShowTotalBadge reports whether the subtree total differs from (exceeds) the
// direct count, which is the only case the total badge is rendered.
func (c *Category) ShowTotalBadge() bool {
	return c.TotalProductCount != nil && c.TotalCount() > c.DirectCount()
}

// Clone creates a deep copy of the category and its children
func (c Category) Clone() Category {
	clone := c
	if c.ParentID != nil {
		v := *c.ParentID
		clone.ParentID = &v
	}
	if c.ProductCount != nil {
		v := *c.ProductCount
		clone.ProductCount = &v
	}
	if c.TotalProductCount != nil {
		v := *c.TotalProductCount
		clone.TotalProductCount = &v
	}
	if c.ChildCount != nil {
		v := *c.ChildCount
		clone.ChildCount = &v
	}
	if c.Children != nil {
		clone.Children = make([]Category, len(c.Children))
		for i, child := range c.Children {
			clone.Children[i] = child.Clone()
		}
	}
	return clone
}

// IntPtr returns a pointer to v. Handy for ParentID and counts.
func IntPtr(v int) *int {
	return &v
}

// DropPosition describes where a dragged category lands relative to the hovered one
type DropPosition string

const (
	DropInside DropPosition = "inside" // nest under the hovered category
	DropAfter  DropPosition = "after"  // place after the hovered category
)

// IsValid returns true if the position is a recognized value
func (p DropPosition) IsValid() bool {
	return p == DropInside || p == DropAfter
}

// ParseDropPosition parses "inside" or "after" (case-insensitive).
func ParseDropPosition(s string) (DropPosition, error) {
	p := DropPosition(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid drop position %q (want inside or after)", s)
	}
	return p, nil
}

// MoveRequest is the one-way instruction emitted when a drop resolves.
// NewParentID nil means the category becomes a root. AfterID is set only when
// the drop places the category directly after a sibling.
type MoveRequest struct {
	CategoryID  int          `json:"category_id"`
	NewParentID *int         `json:"new_parent_id"`
	Position    DropPosition `json:"position"`
	AfterID     *int         `json:"after_id,omitempty"`
}

// String renders the request for logs and status messages.
func (r MoveRequest) String() string {
	parent := "root"
	if r.NewParentID != nil {
		parent = fmt.Sprintf("%d", *r.NewParentID)
	}
	if r.AfterID != nil {
		return fmt.Sprintf("move %d -> parent %s after %d", r.CategoryID, parent, *r.AfterID)
	}
	return fmt.Sprintf("move %d -> parent %s", r.CategoryID, parent)
}
