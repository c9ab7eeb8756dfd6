package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
	"github.com/vanderheijden86/categorytree/pkg/model"
)

const topLevelOption = "(top level)"

// pickerWindow is the number of parent options shown at once.
const pickerWindow = 10

// parentOption is one choice in the parent picker. root is true for the
// top-level entry.
type parentOption struct {
	id    int
	root  bool
	label string
}

// ParentPickerModel is the keyboard alternative to dragging: it lists every
// category the current one may be moved under.
type ParentPickerModel struct {
	category      model.Category
	options       []parentOption
	selectedIndex int
	width         int
	height        int
	theme         Theme
}

// NewParentPickerModel builds the choices for moving id. Its own subtree and
// current parent are left out. The top-level entry is offered only when the
// category has a parent.
func NewParentPickerModel(f *hierarchy.Forest, id int, theme Theme) ParentPickerModel {
	c, _ := f.Get(id)
	var options []parentOption
	if c.ParentID != nil {
		options = append(options, parentOption{root: true, label: topLevelOption})
	}
	for _, pid := range f.ValidParents(id) {
		options = append(options, parentOption{id: pid, label: strings.Join(f.Path(pid), " / ")})
	}
	return ParentPickerModel{
		category: c,
		options:  options,
		theme:    theme,
	}
}

// SetSize updates the picker dimensions
func (m *ParentPickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// MoveUp moves selection up
func (m *ParentPickerModel) MoveUp() {
	if m.selectedIndex > 0 {
		m.selectedIndex--
	}
}

// MoveDown moves selection down
func (m *ParentPickerModel) MoveDown() {
	if m.selectedIndex < len(m.options)-1 {
		m.selectedIndex++
	}
}

// Len returns the number of choices.
func (m *ParentPickerModel) Len() int {
	return len(m.options)
}

// Selected returns the label of the highlighted choice.
func (m *ParentPickerModel) Selected() string {
	if m.selectedIndex >= 0 && m.selectedIndex < len(m.options) {
		return m.options[m.selectedIndex].label
	}
	return ""
}

// Request returns the move for the highlighted choice. ok is false when
// there is nothing to choose.
func (m *ParentPickerModel) Request() (req model.MoveRequest, ok bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.options) {
		return model.MoveRequest{}, false
	}
	opt := m.options[m.selectedIndex]
	req = model.MoveRequest{CategoryID: m.category.ID, Position: model.DropInside}
	if !opt.root {
		req.NewParentID = model.IntPtr(opt.id)
	}
	return req, true
}

// View renders the parent picker overlay
func (m *ParentPickerModel) View() string {
	if m.width == 0 {
		m.width = 60
	}
	if m.height == 0 {
		m.height = 20
	}

	t := m.theme

	boxWidth := 50
	if m.width < 60 {
		boxWidth = m.width - 10
	}
	if boxWidth < 25 {
		boxWidth = 25
	}

	var lines []string

	titleStyle := t.Renderer.NewStyle().
		Foreground(t.Primary).
		Bold(true)
	lines = append(lines, titleStyle.Render("Move "+runewidth.Truncate(m.category.Name, boxWidth-12, "…")))
	lines = append(lines, "")

	if len(m.options) == 0 {
		lines = append(lines, t.Renderer.NewStyle().Foreground(t.Muted).Render("No other place to move to"))
	}

	start := 0
	if m.selectedIndex >= pickerWindow {
		start = m.selectedIndex - pickerWindow + 1
	}
	end := start + pickerWindow
	if end > len(m.options) {
		end = len(m.options)
	}
	if start > 0 {
		lines = append(lines, t.Renderer.NewStyle().Foreground(t.Muted).Render(fmt.Sprintf("  ↑ %d more", start)))
	}
	for i := start; i < end; i++ {
		opt := m.options[i]
		isSelected := i == m.selectedIndex

		itemStyle := t.Renderer.NewStyle()
		if isSelected {
			itemStyle = itemStyle.Foreground(t.Primary).Bold(true)
		} else {
			itemStyle = itemStyle.Foreground(t.Base.GetForeground())
		}
		if opt.root && !isSelected {
			itemStyle = itemStyle.Foreground(t.Success)
		}

		prefix := "  "
		if isSelected {
			prefix = "> "
		}
		label := runewidth.Truncate(opt.label, boxWidth-8, "…")
		lines = append(lines, itemStyle.Render(prefix+label))
	}
	if end < len(m.options) {
		lines = append(lines, t.Renderer.NewStyle().Foreground(t.Muted).Render(fmt.Sprintf("  ↓ %d more", len(m.options)-end)))
	}

	lines = append(lines, "")
	footerStyle := t.Renderer.NewStyle().
		Foreground(t.Secondary).
		Italic(true)
	lines = append(lines, footerStyle.Render("j/k: navigate | enter: move | esc: cancel"))

	content := strings.Join(lines, "\n")

	boxStyle := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(boxWidth)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		boxStyle.Render(content),
	)
}
