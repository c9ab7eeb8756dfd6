package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
	"github.com/vanderheijden86/categorytree/pkg/model"
)

func TestNewParentPickerModel(t *testing.T) {
	picker := NewParentPickerModel(sampleForest(), 4, newTreeTestTheme())

	want := []string{topLevelOption, "Electronics", "Electronics / Laptops", "Books"}
	if picker.Len() != len(want) {
		t.Fatalf("Expected %d options, got %d", len(want), picker.Len())
	}
	for i, label := range want {
		if picker.options[i].label != label {
			t.Errorf("option %d = %q, want %q", i, picker.options[i].label, label)
		}
	}
}

func TestParentPickerRootHasNoTopLevelOption(t *testing.T) {
	picker := NewParentPickerModel(sampleForest(), 1, newTreeTestTheme())

	// its own subtree is excluded, only Books remains
	if picker.Len() != 1 || picker.Selected() != "Books" {
		t.Errorf("unexpected options %+v", picker.options)
	}
}

func TestParentPickerNavigation(t *testing.T) {
	picker := NewParentPickerModel(sampleForest(), 4, newTreeTestTheme())

	picker.MoveUp()
	if picker.selectedIndex != 0 {
		t.Errorf("MoveUp at start should stay at 0, got %d", picker.selectedIndex)
	}
	for i := 0; i < 10; i++ {
		picker.MoveDown()
	}
	if picker.selectedIndex != picker.Len()-1 {
		t.Errorf("expected last index, got %d", picker.selectedIndex)
	}
	if picker.Selected() != "Books" {
		t.Errorf("expected Books, got %q", picker.Selected())
	}
}

func TestParentPickerRequest(t *testing.T) {
	picker := NewParentPickerModel(sampleForest(), 4, newTreeTestTheme())

	req, ok := picker.Request()
	if !ok || req.CategoryID != 4 || req.NewParentID != nil || req.Position != model.DropInside {
		t.Errorf("top level choice: got %s ok=%v", req, ok)
	}

	picker.MoveDown()
	req, _ = picker.Request()
	if req.NewParentID == nil || *req.NewParentID != 1 {
		t.Errorf("expected parent 1, got %s", req)
	}
}

func TestParentPickerEmpty(t *testing.T) {
	f := hierarchy.Build([]model.Category{{ID: 1, Name: "Only"}})
	picker := NewParentPickerModel(f, 1, newTreeTestTheme())

	if _, ok := picker.Request(); ok {
		t.Error("no options should yield no request")
	}
	picker.SetSize(80, 30)
	if !strings.Contains(ansi.Strip(picker.View()), "No other place to move to") {
		t.Error("expected empty message")
	}
}

func TestParentPickerView(t *testing.T) {
	picker := NewParentPickerModel(sampleForest(), 4, newTreeTestTheme())
	picker.SetSize(80, 30)

	output := ansi.Strip(picker.View())
	for _, expected := range []string{
		"Move Android",
		topLevelOption,
		"Electronics / Laptops",
		"j/k: navigate",
		"enter: move",
		"esc: cancel",
		"> ",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("Expected View() to contain %q", expected)
		}
	}
}

func TestParentPickerWindowScrolls(t *testing.T) {
	var roots []model.Category
	for i := 1; i <= 25; i++ {
		roots = append(roots, model.Category{ID: i, Name: "node"})
	}
	roots[24].Name = "tail"
	picker := NewParentPickerModel(hierarchy.Build(roots), 1, newTreeTestTheme())
	picker.SetSize(80, 40)

	if strings.Contains(ansi.Strip(picker.View()), "tail") {
		t.Error("options past the window should be hidden")
	}
	for i := 0; i < picker.Len(); i++ {
		picker.MoveDown()
	}
	output := ansi.Strip(picker.View())
	if !strings.Contains(output, "tail") || !strings.Contains(output, "↑ 14 more") {
		t.Errorf("window should follow the selection:\n%s", output)
	}
}
