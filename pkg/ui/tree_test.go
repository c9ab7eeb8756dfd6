package ui

import (
	"io"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"pgregory.net/rapid"

	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
	"github.com/vanderheijden86/categorytree/pkg/model"
	"github.com/vanderheijden86/categorytree/pkg/treestate"
)

func newTreeTestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(io.Discard))
}

// sampleForest: 1 Electronics{2 Phones{4 Android}, 3 Laptops}, 5 Books
func sampleForest() *hierarchy.Forest {
	f := hierarchy.Build([]model.Category{
		{ID: 1, Name: "Electronics", ProductCount: model.IntPtr(5), Children: []model.Category{
			{ID: 2, Name: "Phones", ProductCount: model.IntPtr(7), Children: []model.Category{
				{ID: 4, Name: "Android"},
			}},
			{ID: 3, Name: "Laptops"},
		}},
		{ID: 5, Name: "Books"},
	})
	f.FillTotals()
	return f
}

// scenarioForest: A{B}, C
func scenarioForest() *hierarchy.Forest {
	return hierarchy.Build([]model.Category{
		{ID: 1, Name: "A", Children: []model.Category{{ID: 2, Name: "B"}}},
		{ID: 3, Name: "C"},
	})
}

func newTestTree(f *hierarchy.Forest, port treestate.Persistence) TreeModel {
	if port == nil {
		port = &treestate.MemoryPersistence{}
	}
	tree := NewTreeModel(newTreeTestTheme(), TreeOptions{Persistence: port})
	tree.SetSize(80, 20)
	tree.SetCategories(f)
	return tree
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds keys to the tree and returns every message the commands produce.
func press(tree *TreeModel, keys ...string) []tea.Msg {
	var out []tea.Msg
	for _, k := range keys {
		var cmd tea.Cmd
		*tree, cmd = tree.Update(keyMsg(k))
		out = append(out, collect(cmd)...)
	}
	return out
}

// collect runs cmd, unpacking batches and sequences.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	v := reflect.ValueOf(msg)
	if v.Kind() == reflect.Slice && v.Type().Elem() == reflect.TypeOf(tea.Cmd(nil)) {
		var out []tea.Msg
		for i := 0; i < v.Len(); i++ {
			c, _ := v.Index(i).Interface().(tea.Cmd)
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func moveRequests(msgs []tea.Msg) []model.MoveRequest {
	var out []model.MoveRequest
	for _, m := range msgs {
		if mr, ok := m.(MoveRequestMsg); ok {
			out = append(out, mr.Request)
		}
	}
	return out
}

func plainView(tree *TreeModel) string {
	return ansi.Strip(tree.View())
}

func lineContaining(view, needle string) string {
	for _, line := range strings.Split(view, "\n") {
		if strings.Contains(line, needle) {
			return line
		}
	}
	return ""
}

func TestTreeEmptyState(t *testing.T) {
	tree := newTestTree(hierarchy.New(), nil)

	view := plainView(&tree)
	if !strings.Contains(view, "No categories yet") {
		t.Errorf("expected empty placeholder, got:\n%s", view)
	}
	if strings.Contains(view, strings.TrimSpace(rootZoneIdle)) {
		t.Error("root drop zone should not render for an empty tree")
	}
	if _, ok := tree.Focused(); ok {
		t.Error("empty tree should have no focus")
	}
}

func TestTreeDefaultsToAllExpanded(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)

	want := []int{1, 2, 4, 3, 5}
	if got := tree.VisibleIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("visible = %v, want %v", got, want)
	}
	if c, ok := tree.Focused(); !ok || c.ID != 1 {
		t.Errorf("expected focus on first row, got %+v", c)
	}
}

func TestTreeViewGuidesAndRootZone(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)
	view := plainView(&tree)

	lines := strings.Split(view, "\n")
	if !strings.Contains(lines[0], "top level") {
		t.Errorf("first line should be the root zone, got %q", lines[0])
	}
	for _, want := range []string{"├── ", "│   └── ", "└── ", "▾ "} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, rootZoneLabel) {
		t.Error("idle root zone must not show the drop label")
	}
}

func TestTreeToggleEmitsExpandedChanged(t *testing.T) {
	port := &treestate.MemoryPersistence{}
	tree := newTestTree(sampleForest(), port)

	msgs := press(&tree, "enter")

	if got := tree.VisibleIDs(); !reflect.DeepEqual(got, []int{1, 5}) {
		t.Errorf("after collapsing 1, visible = %v", got)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d: %#v", len(msgs), msgs)
	}
	changed, ok := msgs[0].(ExpandedChangedMsg)
	if !ok {
		t.Fatalf("expected ExpandedChangedMsg, got %T", msgs[0])
	}
	if changed.Expanded.Has(1) || !changed.Expanded.Has(2) {
		t.Errorf("unexpected set %v", changed.Expanded.IDs())
	}
	if port.Saves != 1 {
		t.Errorf("expected one save, got %d", port.Saves)
	}
}

func TestTreeToggleIgnoresLeaves(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)
	press(&tree, "G")

	if msgs := press(&tree, "enter"); len(msgs) != 0 {
		t.Errorf("toggling a leaf should not change the set, got %#v", msgs)
	}
}

func TestTreeLeftRightKeys(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)

	press(&tree, "down") // Phones
	press(&tree, "left")
	if tree.IsExpanded(2) {
		t.Fatal("left on an expanded node should collapse it")
	}
	if got := tree.VisibleIDs(); !reflect.DeepEqual(got, []int{1, 2, 3, 5}) {
		t.Errorf("visible = %v", got)
	}

	press(&tree, "left")
	if c, _ := tree.Focused(); c.ID != 1 {
		t.Errorf("left on a collapsed node should jump to its parent, focus = %d", c.ID)
	}

	press(&tree, "right")
	if c, _ := tree.Focused(); c.ID != 2 {
		t.Errorf("right on an expanded node should move to its first child, focus = %d", c.ID)
	}

	press(&tree, "l")
	if !tree.IsExpanded(2) {
		t.Error("right on a collapsed node should expand it")
	}
}

func TestTreeNavigationBounds(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)

	press(&tree, "up")
	if c, _ := tree.Focused(); c.ID != 1 {
		t.Errorf("up at the top should stay, focus = %d", c.ID)
	}
	press(&tree, "G")
	if c, _ := tree.Focused(); c.ID != 5 {
		t.Errorf("G should focus the last row, focus = %d", c.ID)
	}
	press(&tree, "j")
	if c, _ := tree.Focused(); c.ID != 5 {
		t.Errorf("down at the bottom should stay, focus = %d", c.ID)
	}
	press(&tree, "g")
	if c, _ := tree.Focused(); c.ID != 1 {
		t.Errorf("g should focus the first row, focus = %d", c.ID)
	}
}

func TestTreeCollapseMovesHiddenFocusToAncestor(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)
	tree.FocusID(4)

	off := false
	tree.SetExpandAll(&off)

	if c, _ := tree.Focused(); c.ID != 1 {
		t.Errorf("focus should move to the collapsed ancestor, got %d", c.ID)
	}
}

func TestTreeEditDeleteRequests(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)
	press(&tree, "down")

	msgs := press(&tree, "e", "d")
	if len(msgs) != 2 {
		t.Fatalf("expected two messages, got %#v", msgs)
	}
	if edit, ok := msgs[0].(EditRequestMsg); !ok || edit.Category.ID != 2 {
		t.Errorf("expected edit request for 2, got %#v", msgs[0])
	}
	if del, ok := msgs[1].(DeleteRequestMsg); !ok || del.Category.ID != 2 {
		t.Errorf("expected delete request for 2, got %#v", msgs[1])
	}
}

func TestTreeDragScenario(t *testing.T) {
	tree := newTestTree(scenarioForest(), nil)

	// C dropped inside A
	press(&tree, "G", "m")
	if !tree.Dragging() {
		t.Fatal("m should pick up the focused category")
	}
	msgs := press(&tree, "up", "up", "enter")
	reqs := moveRequests(msgs)
	if len(reqs) != 1 {
		t.Fatalf("expected one move request, got %#v", msgs)
	}
	req := reqs[0]
	if req.CategoryID != 3 || req.NewParentID == nil || *req.NewParentID != 1 || req.Position != model.DropInside {
		t.Errorf("unexpected request %s", req)
	}
	if tree.Dragging() {
		t.Error("drop must clear the session")
	}

	// A dropped onto its own child B
	if !tree.StartDrag(1) {
		t.Fatal("StartDrag(1) refused")
	}
	tree.HoverID(2)
	if tree.Drag().HoverValid() {
		t.Error("a descendant must not be a valid target")
	}
	if reqs := moveRequests(collect(tree.Drop())); len(reqs) != 0 {
		t.Errorf("drop on a descendant emitted %v", reqs)
	}
	if tree.Dragging() {
		t.Error("invalid drop must still clear the session")
	}
}

func TestTreeSelfDropIsIgnored(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)
	tree.StartDrag(2)

	if cmd := tree.Drop(); cmd != nil {
		t.Errorf("dropping onto itself emitted %#v", collect(cmd))
	}
}

func TestTreeInvalidTargetNotHighlighted(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)
	tree.StartDrag(1)
	tree.HoverID(4)

	line := lineContaining(plainView(&tree), "Android")
	if strings.Contains(line, "⤷") || strings.Contains(line, "⤵") {
		t.Errorf("invalid target shows a drop marker: %q", line)
	}

	tree.CancelDrag()
	tree.StartDrag(3)
	tree.HoverID(4)
	line = lineContaining(plainView(&tree), "Android")
	if !strings.Contains(line, "⤷ inside") {
		t.Errorf("valid leaf target should show the inside marker: %q", line)
	}
}

func TestTreeFlipSelectsAfter(t *testing.T) {
	tree := newTestTree(scenarioForest(), nil)
	tree.StartDrag(3)
	tree.HoverID(1)
	if tree.Drag().Position != model.DropInside {
		t.Fatalf("top half over a parent should be inside, got %q", tree.Drag().Position)
	}

	press(&tree, "tab")
	if tree.Drag().Position != model.DropAfter {
		t.Fatalf("bottom half over a parent should be after, got %q", tree.Drag().Position)
	}
	if line := lineContaining(plainView(&tree), " A"); !strings.Contains(line, "⤵ after") {
		t.Errorf("after marker missing: %q", line)
	}

	reqs := moveRequests(press(&tree, "enter"))
	if len(reqs) != 1 {
		t.Fatalf("expected one request, got %v", reqs)
	}
	req := reqs[0]
	if req.NewParentID != nil || req.AfterID == nil || *req.AfterID != 1 {
		t.Errorf("after a root should place C as a root after A, got %s", req)
	}
}

func TestTreeRootZone(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)

	tree.StartDrag(4)
	press(&tree, "r")
	if !strings.Contains(plainView(&tree), rootZoneLabel) {
		t.Error("root zone should highlight for a nested category")
	}
	reqs := moveRequests(press(&tree, "enter"))
	if len(reqs) != 1 || reqs[0].CategoryID != 4 || reqs[0].NewParentID != nil {
		t.Fatalf("expected promotion of 4, got %v", reqs)
	}

	tree.StartDrag(5)
	press(&tree, "r")
	if strings.Contains(plainView(&tree), rootZoneLabel) {
		t.Error("root zone must not highlight for a root category")
	}
	if reqs := moveRequests(press(&tree, "enter")); len(reqs) != 0 {
		t.Errorf("root category dropped on the zone emitted %v", reqs)
	}
	if tree.Dragging() {
		t.Error("session should be cleared")
	}
}

func TestTreeUpFromFirstRowHoversRootZone(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)
	tree.StartDrag(2)
	press(&tree, "up", "up")

	if !tree.Drag().RootHover {
		t.Error("moving above the first row should hover the root zone")
	}
	press(&tree, "down")
	if tree.Drag().RootHover || tree.Drag().TargetID != 1 {
		t.Errorf("moving down from the zone should hover the first row, got %+v", tree.Drag())
	}
}

func TestTreeDragRefusedWhileMoving(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)
	tree.SetMoving(true)

	press(&tree, "m")
	if tree.Dragging() {
		t.Error("drag must not start while a move is in flight")
	}
	tree.SetMoving(false)
	press(&tree, "m")
	if !tree.Dragging() {
		t.Error("drag should start once the move finished")
	}
}

func TestTreeEscapeCancels(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)
	tree.StartDrag(2)
	tree.HoverID(5)

	msgs := press(&tree, "esc")
	if tree.Dragging() || len(moveRequests(msgs)) != 0 {
		t.Error("escape should cancel without a move")
	}
	if tree.StartDrag(3) != true {
		t.Error("a new drag should be possible after cancel")
	}
}

func TestTreeBlurCancelsDrag(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)
	tree.StartDrag(2)

	tree, _ = tree.Update(tea.BlurMsg{})
	if tree.Dragging() {
		t.Error("losing focus should end the drag")
	}
}

func TestTreeMouseDragToRootZone(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)

	mouse := func(x, y int, action tea.MouseAction) []tea.Msg {
		var cmd tea.Cmd
		tree, cmd = tree.Update(tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft})
		return collect(cmd)
	}

	// rows start below the root zone line: Android is the third row
	mouse(20, 3, tea.MouseActionPress)
	if c, _ := tree.Focused(); c.ID != 4 {
		t.Fatalf("press should focus Android, focus = %d", c.ID)
	}
	if tree.Dragging() {
		t.Fatal("a press alone must not start a drag")
	}
	mouse(20, 0, tea.MouseActionMotion)
	if !tree.Dragging() || !tree.Drag().RootHover {
		t.Fatalf("motion onto the zone should drag and hover it, got %+v", tree.Drag())
	}
	reqs := moveRequests(mouse(20, 0, tea.MouseActionRelease))
	if len(reqs) != 1 || reqs[0].CategoryID != 4 || reqs[0].NewParentID != nil {
		t.Fatalf("expected promotion of 4, got %v", reqs)
	}
}

func TestTreeMouseReleaseOutsideCancels(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)
	send := func(y int, action tea.MouseAction) []tea.Msg {
		var cmd tea.Cmd
		tree, cmd = tree.Update(tea.MouseMsg{X: 20, Y: y, Action: action, Button: tea.MouseButtonLeft})
		return collect(cmd)
	}

	send(5, tea.MouseActionPress) // Books
	send(1, tea.MouseActionMotion)
	if !tree.Dragging() {
		t.Fatal("expected a drag")
	}
	if reqs := moveRequests(send(60, tea.MouseActionRelease)); len(reqs) != 0 {
		t.Errorf("release outside emitted %v", reqs)
	}
	if tree.Dragging() {
		t.Error("release outside should end the drag")
	}
}

func TestTreeMouseClickOnGlyphToggles(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)

	// Phones: depth 1, glyph after the handle and one indent
	tree, _ = tree.Update(tea.MouseMsg{X: handleWidth + 4, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if tree.IsExpanded(2) {
		t.Error("clicking the toggle glyph should collapse Phones")
	}
}

func TestTreeExpandAllProp(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)
	press(&tree, "enter") // collapse 1

	on := true
	if msgs := collect(tree.SetExpandAll(&on)); len(msgs) != 1 {
		t.Errorf("expected one change message, got %#v", msgs)
	}
	if got := tree.VisibleIDs(); !reflect.DeepEqual(got, []int{1, 2, 4, 3, 5}) {
		t.Errorf("expand all: visible = %v", got)
	}
	if cmd := tree.SetExpandAll(&on); cmd != nil {
		t.Error("an unchanged prop must not re-apply")
	}

	off := false
	tree.SetExpandAll(&off)
	if got := tree.VisibleIDs(); !reflect.DeepEqual(got, []int{1, 5}) {
		t.Errorf("collapse all: visible = %v", got)
	}
	for _, id := range []int{1, 2} {
		if tree.IsExpanded(id) {
			t.Errorf("%d still expanded", id)
		}
	}
	if tree.SetExpandAll(nil) != nil {
		t.Error("nil prop should be ignored")
	}
}

func TestTreeBadges(t *testing.T) {
	f := hierarchy.Build([]model.Category{
		{ID: 1, Name: "Same", ProductCount: model.IntPtr(5), TotalProductCount: model.IntPtr(5)},
		{ID: 2, Name: "More", ProductCount: model.IntPtr(5), TotalProductCount: model.IntPtr(12)},
		{ID: 3, Name: "Empty"},
	})
	tree := newTestTree(f, nil)
	view := plainView(&tree)

	same := lineContaining(view, "Same")
	if !strings.Contains(same, "(5)") || strings.Contains(same, "Σ") {
		t.Errorf("equal totals should show only the direct badge: %q", same)
	}
	more := lineContaining(view, "More")
	if !strings.Contains(more, "(5)") || !strings.Contains(more, "[Σ 12]") {
		t.Errorf("larger total should show both badges: %q", more)
	}
	empty := lineContaining(view, "Empty")
	if strings.Contains(empty, "(") || strings.Contains(empty, "↳") {
		t.Errorf("no badges expected: %q", empty)
	}
}

func TestTreeChildCountBadge(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)
	line := lineContaining(plainView(&tree), "Electronics")
	if !strings.Contains(line, "↳2") {
		t.Errorf("expected child count badge: %q", line)
	}
}

func TestTreeFocusedRowShowsHints(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)
	view := plainView(&tree)
	if !strings.Contains(lineContaining(view, "Electronics"), "⠿") {
		t.Error("focused row should show the drag handle")
	}
	if strings.Contains(lineContaining(view, "Books"), "e edit") {
		t.Error("hints belong to the focused row only")
	}
}

func TestTreeIconsAndTruncation(t *testing.T) {
	f := hierarchy.Build([]model.Category{
		{ID: 1, Name: strings.Repeat("Very long category name ", 10), Children: []model.Category{{ID: 2, Name: "Leaf"}}},
	})
	tree := NewTreeModel(newTreeTestTheme(), TreeOptions{Icons: true})
	tree.SetSize(40, 10)
	tree.SetCategories(f)

	view := plainView(&tree)
	if !strings.Contains(view, "📂") || !strings.Contains(view, "📄") {
		t.Errorf("expected folder and leaf icons:\n%s", view)
	}
	if !strings.Contains(view, "…") {
		t.Errorf("long name should be truncated:\n%s", view)
	}
}

func TestTreeScrollFollowsFocus(t *testing.T) {
	var roots []model.Category
	for i := 1; i <= 30; i++ {
		roots = append(roots, model.Category{ID: i, Name: "cat" + string(rune('A'+i%26))})
	}
	tree := newTestTree(hierarchy.Build(roots), nil)
	tree.SetSize(80, 6)

	press(&tree, "G")
	if tree.offset == 0 {
		t.Fatal("focusing the last row should scroll")
	}
	if !strings.Contains(lineContaining(plainView(&tree), "⠿"), "cat") {
		t.Error("focused row should be rendered after scrolling")
	}
	press(&tree, "g")
	if tree.offset != 0 {
		t.Errorf("back to top should reset offset, got %d", tree.offset)
	}
}

func TestTreeExpansionSurvivesRemount(t *testing.T) {
	port := treestate.NewFilePersistence(t.TempDir(), treestate.DefaultStateKey)

	first := newTestTree(sampleForest(), port)
	first.FocusID(2)
	press(&first, "enter")

	second := newTestTree(sampleForest(), port)
	if second.IsExpanded(2) {
		t.Error("collapsed node should stay collapsed after remount")
	}
	if !second.IsExpanded(1) {
		t.Error("other nodes should keep their state")
	}
}

func TestTreeSetCategoriesDropsStaleDrag(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)
	tree.StartDrag(4)

	f := sampleForest()
	if err := f.Remove(4); err != nil {
		t.Fatal(err)
	}
	tree.SetCategories(f)
	if tree.Dragging() {
		t.Error("drag of a removed category should end")
	}
}

func TestTreeSetCategoriesKeepsFocus(t *testing.T) {
	tree := newTestTree(sampleForest(), nil)
	tree.FocusID(3)

	f := sampleForest()
	if err := f.Apply(model.MoveRequest{CategoryID: 3, Position: model.DropInside}); err != nil {
		t.Fatal(err)
	}
	tree.SetCategories(f)
	if c, _ := tree.Focused(); c.ID != 3 {
		t.Errorf("focus should follow the moved category, got %d", c.ID)
	}
}

func TestTreeDragAlwaysTerminates(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tree := newTestTree(sampleForest(), nil)
		ids := tree.VisibleIDs()
		tree.StartDrag(rapid.SampledFrom(ids).Draw(rt, "dragged"))

		keys := rapid.SliceOf(rapid.SampledFrom([]string{"up", "down", "tab", "r", "left", "right"})).Draw(rt, "keys")
		press(&tree, keys...)
		press(&tree, rapid.SampledFrom([]string{"enter", "esc"}).Draw(rt, "finish"))

		d := tree.Drag()
		if d.Active() || d.TargetSet || d.RootHover || d.Position != "" {
			rt.Fatalf("session not cleared: %+v", d)
		}
	})
}
