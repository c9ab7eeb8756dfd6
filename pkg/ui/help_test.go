package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

func TestHelpMarkdown(t *testing.T) {
	tree := HelpMarkdown(HelpTree)
	if !strings.Contains(tree, "## Category tree") {
		t.Error("tree help missing its heading")
	}
	if strings.Contains(tree, "## Moving a category") {
		t.Error("tree help should not include the drag section")
	}

	drag := HelpMarkdown(HelpDrag)
	if !strings.HasPrefix(drag, "## Moving a category") {
		t.Error("drag help should start with its own section")
	}
	if !strings.Contains(drag, "## Category tree") {
		t.Error("context help should include the general reference")
	}

	if HelpMarkdown(HelpContext(42)) != helpTree {
		t.Error("unknown contexts fall back to the tree help")
	}
}

func TestHelpModel_Render(t *testing.T) {
	h := NewHelpModel(newTreeTestTheme(), "dark")
	h.Open(HelpPicker, 100, 60)

	if h.Context() != HelpPicker {
		t.Errorf("context = %v", h.Context())
	}
	out := ansi.Strip(h.View())
	for _, want := range []string{"Quick Reference", "Parent picker", "esc to close"} {
		if !strings.Contains(out, want) {
			t.Errorf("help view missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "**") {
		t.Error("markdown should be rendered, not shown raw")
	}
}

func TestHelpModel_Scrolls(t *testing.T) {
	h := NewHelpModel(newTreeTestTheme(), "notty")
	h.Open(HelpDrag, 80, 14)

	if !h.viewport.AtTop() {
		t.Fatal("help should open at the top")
	}
	h, _ = h.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	if h.viewport.YOffset != 1 {
		t.Errorf("j should scroll one line, offset = %d", h.viewport.YOffset)
	}
}
