// tree.go - Category tree with expand/collapse, focus and drag-to-reparent
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/categorytree/pkg/export"
	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
	"github.com/vanderheijden86/categorytree/pkg/logging"
	"github.com/vanderheijden86/categorytree/pkg/model"
	"github.com/vanderheijden86/categorytree/pkg/treestate"
)

// EditRequestMsg asks the owner to edit a category.
type EditRequestMsg struct {
	Category model.Category
}

// DeleteRequestMsg asks the owner to delete a category.
type DeleteRequestMsg struct {
	Category model.Category
}

// MoveRequestMsg carries a resolved drop. The tree has already cleared its
// drag session when this is sent and never waits for the outcome.
type MoveRequestMsg struct {
	Request model.MoveRequest
}

// ExpandedChangedMsg is sent after every change of the expansion set, in the
// order the changes happened.
type ExpandedChangedMsg struct {
	Expanded treestate.Set
}

const (
	rootZoneLabel = "↑ Drop here to make top-level"
	rootZoneIdle  = "  top level"
	handleWidth   = 2
)

// TreeOptions configures a TreeModel.
type TreeOptions struct {
	// Persistence stores the expansion set. Nil keeps it in memory.
	Persistence treestate.Persistence
	AfterMode   treestate.AfterMode
	// IndentWidth is the number of columns per nesting level. Zero means 4.
	IndentWidth int
	Icons       bool
	// OnExpandedChange is called synchronously after each expansion change,
	// before the matching ExpandedChangedMsg is delivered.
	OnExpandedChange func(treestate.Set)
}

// expansionLog collects observer calls until the next Update returns them as
// messages. It is shared between copies of the model.
type expansionLog struct {
	sets []treestate.Set
}

// TreeModel renders the category forest and owns its transient state: the
// drag session, the expansion set and the focused category.
type TreeModel struct {
	theme Theme
	keys  KeyMap

	forest *hierarchy.Forest
	rows   []export.Row
	index  map[int]int // category id -> row

	expansion *treestate.Expansion
	changes   *expansionLog
	drag      treestate.Drag
	focus     treestate.Focus
	pointer   treestate.Pointer // keyboard and mouse hover half

	// pressed is the category under a mouse press that has not become a
	// drag yet.
	pressed    int
	hasPressed bool

	isMoving     bool
	expandAll    *bool
	expandAllVal bool

	offset      int
	width       int
	height      int
	indentWidth int
	icons       bool
}

// NewTreeModel creates an empty tree. Call SetCategories to fill it.
func NewTreeModel(theme Theme, opts TreeOptions) TreeModel {
	log := &expansionLog{}
	observer := func(s treestate.Set) {
		log.sets = append(log.sets, s)
		if opts.OnExpandedChange != nil {
			opts.OnExpandedChange(s)
		}
	}
	indent := opts.IndentWidth
	if indent <= 0 {
		indent = 4
	}
	mode := opts.AfterMode
	if mode == "" {
		mode = treestate.AfterSibling
	}
	return TreeModel{
		theme:       theme,
		keys:        DefaultKeyMap(),
		forest:      hierarchy.New(),
		index:       make(map[int]int),
		expansion:   treestate.NewExpansion(opts.Persistence, nil, observer),
		changes:     log,
		drag:        treestate.NewDrag(mode),
		pointer:     treestate.TopHalf(),
		indentWidth: indent,
		icons:       opts.Icons,
	}
}

// SetSize updates the available dimensions for the tree view
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.clampOffset()
}

// SetCategories replaces the rendered forest. Expansion, focus and an active
// drag survive as long as the ids they refer to still exist.
func (t *TreeModel) SetCategories(f *hierarchy.Forest) {
	if f == nil {
		f = hierarchy.New()
	}
	t.forest = f
	t.expansion.SetUniverse(f.IDs())

	if t.drag.Active() && !f.Has(t.drag.Dragged.ID) {
		t.drag = t.drag.End()
	} else if t.drag.Active() {
		// keep the guard in sync with the new nesting
		if sub, ok := f.Subtree(t.drag.Dragged.ID); ok {
			t.drag.Dragged = &sub
		}
		if t.drag.TargetSet && !f.Has(t.drag.TargetID) {
			t.drag.TargetSet = false
		}
	}
	if t.hasPressed && !f.Has(t.pressed) {
		t.hasPressed = false
	}
	t.rebuildRows()
	if !t.focus.Set || !f.Has(t.focus.ID) {
		t.focus = t.focus.Clear()
		if len(t.rows) > 0 {
			t.setFocus(t.rows[0].Category.ID)
		}
	}
}

// Forest returns the rendered forest.
func (t *TreeModel) Forest() *hierarchy.Forest {
	return t.forest
}

// SetMoving marks whether a structural mutation is in flight. Dragging is
// disabled while it is.
func (t *TreeModel) SetMoving(moving bool) {
	t.isMoving = moving
}

// IsMoving reports the last value passed to SetMoving.
func (t *TreeModel) IsMoving() bool {
	return t.isMoving
}

// SetExpandAll applies a bulk expand (true) or collapse (false) when v
// differs from the previously applied prop. A fresh pointer counts as a
// change, so owners can re-apply the same value. Nil is ignored.
func (t *TreeModel) SetExpandAll(v *bool) tea.Cmd {
	if v == nil {
		return nil
	}
	if t.expandAll == v && t.expandAllVal == *v {
		return nil
	}
	t.expandAll, t.expandAllVal = v, *v
	t.expansion.ApplyExpandAll(*v)
	t.rebuildRows()
	return t.flushExpansion()
}

// Expanded returns a copy of the expansion set.
func (t *TreeModel) Expanded() treestate.Set {
	return t.expansion.Set()
}

// IsExpanded reports whether id is expanded.
func (t *TreeModel) IsExpanded(id int) bool {
	return t.expansion.IsExpanded(id)
}

// Drag returns the current drag session.
func (t *TreeModel) Drag() treestate.Drag {
	return t.drag
}

// Dragging reports whether a category is picked up.
func (t *TreeModel) Dragging() bool {
	return t.drag.Active()
}

// CancelDrag ends an active drag without a move, e.g. when the window loses
// focus.
func (t *TreeModel) CancelDrag() {
	t.drag = t.drag.End()
	t.hasPressed = false
}

// Focused returns the focused category.
func (t *TreeModel) Focused() (model.Category, bool) {
	if !t.focus.Set {
		return model.Category{}, false
	}
	return t.forest.Get(t.focus.ID)
}

// FocusID focuses id if it is visible. It returns false otherwise.
func (t *TreeModel) FocusID(id int) bool {
	if _, ok := t.index[id]; !ok {
		return false
	}
	t.setFocus(id)
	return true
}

// Reveal expands the ancestors of id and focuses it.
func (t *TreeModel) Reveal(id int) tea.Cmd {
	if !t.forest.Has(id) {
		return nil
	}
	t.expansion.ExpandPath(t.forest.Ancestors(id))
	t.rebuildRows()
	t.setFocus(id)
	return t.flushExpansion()
}

// VisibleIDs returns the ids of the rendered rows in order.
func (t *TreeModel) VisibleIDs() []int {
	ids := make([]int, len(t.rows))
	for i, r := range t.rows {
		ids[i] = r.Category.ID
	}
	return ids
}

// NodeCount returns the total number of visible nodes.
func (t *TreeModel) NodeCount() int {
	return len(t.rows)
}

// Empty reports whether there are no categories at all.
func (t *TreeModel) Empty() bool {
	return t.forest.Len() == 0
}

// Update handles keys and mouse events. Mouse coordinates are relative to the
// top-left corner of the tree view.
func (t TreeModel) Update(msg tea.Msg) (TreeModel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if t.drag.Active() {
			cmd = t.updateDragKeys(msg)
		} else {
			cmd = t.updateKeys(msg)
		}
	case tea.MouseMsg:
		cmd = t.updateMouse(msg)
	case tea.BlurMsg:
		t.CancelDrag()
	}
	return t, sequence(cmd, t.flushExpansion())
}

func (t *TreeModel) updateKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, t.keys.Up):
		t.moveFocus(-1)
	case key.Matches(msg, t.keys.Down):
		t.moveFocus(1)
	case key.Matches(msg, t.keys.PageUp):
		t.moveFocus(-t.pageSize())
	case key.Matches(msg, t.keys.PageDown):
		t.moveFocus(t.pageSize())
	case key.Matches(msg, t.keys.Top):
		if len(t.rows) > 0 {
			t.setFocus(t.rows[0].Category.ID)
		}
	case key.Matches(msg, t.keys.Bottom):
		if len(t.rows) > 0 {
			t.setFocus(t.rows[len(t.rows)-1].Category.ID)
		}
	case key.Matches(msg, t.keys.Toggle):
		if t.focus.Set && t.forest.HasChildren(t.focus.ID) {
			t.toggle(t.focus.ID)
		}
	case key.Matches(msg, t.keys.Right):
		t.ExpandOrMoveToChild()
	case key.Matches(msg, t.keys.Left):
		t.CollapseOrJumpToParent()
	case key.Matches(msg, t.keys.Edit):
		if c, ok := t.Focused(); ok {
			return emit(EditRequestMsg{Category: c})
		}
	case key.Matches(msg, t.keys.Delete):
		if c, ok := t.Focused(); ok {
			return emit(DeleteRequestMsg{Category: c})
		}
	case key.Matches(msg, t.keys.Move):
		if t.focus.Set {
			t.StartDrag(t.focus.ID)
		}
	}
	return nil
}

func (t *TreeModel) updateDragKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, t.keys.Cancel):
		t.CancelDrag()
	case key.Matches(msg, t.keys.Drop):
		return t.Drop()
	case key.Matches(msg, t.keys.RootZone):
		t.HoverRoot()
	case key.Matches(msg, t.keys.Flip):
		if t.pointer.Y < t.pointer.Height/2 {
			t.pointer = treestate.BottomHalf()
		} else {
			t.pointer = treestate.TopHalf()
		}
		if t.drag.TargetSet {
			t.HoverID(t.drag.TargetID)
		}
	case key.Matches(msg, t.keys.Up):
		t.moveHover(-1)
	case key.Matches(msg, t.keys.Down):
		t.moveHover(1)
	case key.Matches(msg, t.keys.Right):
		if t.drag.TargetSet && t.forest.HasChildren(t.drag.TargetID) {
			t.expand(t.drag.TargetID)
		}
	case key.Matches(msg, t.keys.Left):
		if t.drag.TargetSet && t.expansion.IsExpanded(t.drag.TargetID) && t.forest.HasChildren(t.drag.TargetID) {
			t.collapse(t.drag.TargetID)
		}
	}
	return nil
}

func (t *TreeModel) updateMouse(msg tea.MouseMsg) tea.Cmd {
	if t.Empty() {
		return nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		t.offset--
		t.clampOffset()
		return nil
	case tea.MouseButtonWheelDown:
		t.offset++
		t.clampOffset()
		return nil
	}

	row, zone, ok := t.hitTest(msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !ok || zone {
			return nil
		}
		id := t.rows[row].Category.ID
		if t.rows[row].Expandable && msg.X == t.glyphColumn(t.rows[row]) {
			t.toggle(id)
			return nil
		}
		t.setFocus(id)
		t.pressed, t.hasPressed = id, true

	case tea.MouseActionMotion:
		if msg.Button != tea.MouseButtonLeft {
			return nil
		}
		if !t.drag.Active() {
			if !t.hasPressed || (ok && !zone && t.rows[row].Category.ID == t.pressed) {
				return nil
			}
			if !t.StartDrag(t.pressed) {
				t.hasPressed = false
				return nil
			}
		}
		switch {
		case zone:
			t.drag = t.drag.OverRoot()
		case ok:
			t.HoverID(t.rows[row].Category.ID)
		}

	case tea.MouseActionRelease:
		t.hasPressed = false
		if !t.drag.Active() {
			return nil
		}
		if !ok {
			// released outside any row
			t.CancelDrag()
			return nil
		}
		if zone {
			t.drag = t.drag.OverRoot()
		} else {
			t.HoverID(t.rows[row].Category.ID)
		}
		return t.Drop()
	}
	return nil
}

// StartDrag picks up id. It is refused while a move is in flight or another
// drag is active.
func (t *TreeModel) StartDrag(id int) bool {
	sub, ok := t.forest.Subtree(id)
	if !ok {
		return false
	}
	next, started := t.drag.Start(sub, t.isMoving)
	if !started {
		return false
	}
	t.drag = next
	t.pointer = treestate.TopHalf()
	t.HoverID(id)
	return true
}

// HoverID moves the drag hover onto id using the current pointer half.
func (t *TreeModel) HoverID(id int) {
	if !t.drag.Active() || !t.forest.Has(id) {
		return
	}
	t.drag = t.drag.Over(id, t.forest.HasChildren(id), t.pointer)
	if row, ok := t.index[id]; ok {
		t.scrollTo(row)
	}
}

// HoverRoot moves the drag hover onto the root drop zone.
func (t *TreeModel) HoverRoot() {
	t.drag = t.drag.OverRoot()
}

// SetPointer sets the half of the hovered row the pointer sits in.
func (t *TreeModel) SetPointer(p treestate.Pointer) {
	t.pointer = p
	if t.drag.TargetSet {
		t.HoverID(t.drag.TargetID)
	}
}

// Drop resolves the drag at the current hover. The session is always cleared.
// A MoveRequestMsg is emitted only for a valid target.
func (t *TreeModel) Drop() tea.Cmd {
	if !t.drag.Active() {
		return nil
	}
	var req *model.MoveRequest
	switch {
	case t.drag.RootHover:
		req, t.drag = t.drag.DropOnRoot()
	case t.drag.TargetSet:
		target, _ := t.forest.Get(t.drag.TargetID)
		req, t.drag = t.drag.Drop(target, t.drag.Position)
	default:
		t.drag = t.drag.End()
	}
	if req == nil {
		return nil
	}
	logging.Named("tree").Debugw("drop", "request", req.String())
	return emit(MoveRequestMsg{Request: *req})
}

func (t *TreeModel) moveHover(delta int) {
	if len(t.rows) == 0 {
		return
	}
	if t.drag.RootHover {
		if delta > 0 {
			t.HoverID(t.rows[0].Category.ID)
		}
		return
	}
	row, ok := t.index[t.drag.TargetID]
	if !ok {
		row = 0
	}
	row += delta
	if row < 0 {
		t.HoverRoot()
		return
	}
	if row >= len(t.rows) {
		row = len(t.rows) - 1
	}
	t.HoverID(t.rows[row].Category.ID)
}

func (t *TreeModel) moveFocus(delta int) {
	if len(t.rows) == 0 {
		return
	}
	row, ok := t.index[t.focus.ID]
	if !ok || !t.focus.Set {
		t.setFocus(t.rows[0].Category.ID)
		return
	}
	row += delta
	if row < 0 {
		row = 0
	}
	if row >= len(t.rows) {
		row = len(t.rows) - 1
	}
	t.setFocus(t.rows[row].Category.ID)
}

// ExpandOrMoveToChild handles the → / l key:
// - If node has children and is collapsed: expand it
// - If node has children and is expanded: move to first child
// - If node is a leaf: do nothing
func (t *TreeModel) ExpandOrMoveToChild() {
	if !t.focus.Set || !t.forest.HasChildren(t.focus.ID) {
		return
	}
	if !t.expansion.IsExpanded(t.focus.ID) {
		t.expand(t.focus.ID)
		return
	}
	t.setFocus(t.forest.Children(t.focus.ID)[0])
}

// CollapseOrJumpToParent handles the ← / h key:
// - If node has children and is expanded: collapse it
// - If node is collapsed or is a leaf: jump to parent
func (t *TreeModel) CollapseOrJumpToParent() {
	if !t.focus.Set {
		return
	}
	if t.forest.HasChildren(t.focus.ID) && t.expansion.IsExpanded(t.focus.ID) {
		t.collapse(t.focus.ID)
		return
	}
	if parent, ok := t.forest.Parent(t.focus.ID); ok {
		t.setFocus(parent)
	}
}

func (t *TreeModel) toggle(id int) {
	t.expansion.Toggle(id)
	t.rebuildRows()
}

func (t *TreeModel) expand(id int) {
	t.expansion.Expand(id)
	t.rebuildRows()
}

func (t *TreeModel) collapse(id int) {
	t.expansion.Collapse(id)
	t.rebuildRows()
}

// setFocus moves focus and scrolls once per actual focus change.
func (t *TreeModel) setFocus(id int) {
	next, changed := t.focus.FocusOn(id)
	t.focus = next
	if !changed {
		return
	}
	if row, ok := t.index[id]; ok {
		t.scrollTo(row)
	}
}

func (t *TreeModel) scrollTo(row int) {
	t.offset = treestate.ScrollTo(t.offset, row, t.bodyHeight())
	t.clampOffset()
}

func (t *TreeModel) bodyHeight() int {
	h := t.height
	if h <= 0 {
		h = 20
	}
	// first line is the root drop zone
	if h > 1 {
		h--
	}
	return h
}

func (t *TreeModel) pageSize() int {
	if n := t.bodyHeight() / 2; n > 0 {
		return n
	}
	return 5
}

func (t *TreeModel) clampOffset() {
	limit := len(t.rows) - t.bodyHeight()
	if limit < 0 {
		limit = 0
	}
	if t.offset > limit {
		t.offset = limit
	}
	if t.offset < 0 {
		t.offset = 0
	}
}

// rebuildRows recomputes the visible rows. A focused category hidden by a
// collapse hands the focus to its nearest visible ancestor.
func (t *TreeModel) rebuildRows() {
	t.rows = export.Layout(t.forest, t.expansion.IsExpanded)
	t.index = make(map[int]int, len(t.rows))
	for i, r := range t.rows {
		t.index[r.Category.ID] = i
	}
	if t.focus.Set {
		if _, visible := t.index[t.focus.ID]; !visible && t.forest.Has(t.focus.ID) {
			ancestors := t.forest.Ancestors(t.focus.ID)
			for i := len(ancestors) - 1; i >= 0; i-- {
				if _, ok := t.index[ancestors[i]]; ok {
					t.setFocus(ancestors[i])
					break
				}
			}
		}
	}
	t.clampOffset()
}

func (t *TreeModel) flushExpansion() tea.Cmd {
	if len(t.changes.sets) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(t.changes.sets))
	for _, s := range t.changes.sets {
		cmds = append(cmds, emit(ExpandedChangedMsg{Expanded: s}))
	}
	t.changes.sets = nil
	return sequence(cmds...)
}

// hitTest maps a view-relative y to a row. zone is true for the root drop
// zone line.
func (t *TreeModel) hitTest(y int) (row int, zone bool, ok bool) {
	if y == 0 {
		return 0, true, true
	}
	row = t.offset + y - 1
	if y < 0 || y > t.bodyHeight() || row >= len(t.rows) {
		return 0, false, false
	}
	return row, false, true
}

func (t *TreeModel) glyphColumn(r export.Row) int {
	return handleWidth + r.Depth*t.indentWidth
}

// View renders the tree view.
func (t *TreeModel) View() string {
	if t.Empty() {
		return t.renderEmptyState()
	}

	lines := []string{t.renderRootZone()}
	end := t.offset + t.bodyHeight()
	if end > len(t.rows) {
		end = len(t.rows)
	}
	for i := t.offset; i < end; i++ {
		lines = append(lines, t.renderRow(t.rows[i]))
	}
	return strings.Join(lines, "\n")
}

// renderEmptyState renders the view when there are no categories.
func (t *TreeModel) renderEmptyState() string {
	r := t.theme.Renderer
	titleStyle := r.NewStyle().Foreground(t.theme.Primary).Bold(true)
	mutedStyle := r.NewStyle().Foreground(t.theme.Muted)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("🗂  No categories yet"))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("Categories appear here once the source file has entries."))
	return sb.String()
}

// renderRootZone renders the drop target that promotes to top level. It only
// highlights while hovered by a category that has a parent.
func (t *TreeModel) renderRootZone() string {
	r := t.theme.Renderer
	if t.drag.RootHover && t.drag.RootAccepts() {
		return r.NewStyle().
			Foreground(t.theme.Success).
			Bold(true).
			Render(rootZoneLabel)
	}
	return r.NewStyle().Foreground(t.theme.Muted).Italic(true).Render(rootZoneIdle)
}

// renderRow renders one category with guides, toggle, icon, badges and the
// focus and drag decorations.
func (t *TreeModel) renderRow(row export.Row) string {
	c := row.Category
	r := t.theme.Renderer
	focused := t.focus.Is(c.ID)
	dragging := t.drag.Active()
	dragged := dragging && t.drag.Dragged.ID == c.ID
	hovered := dragging && !t.drag.RootHover && t.drag.TargetSet && t.drag.TargetID == c.ID
	validTarget := hovered && t.drag.HoverValid()
	expanded := t.expansion.IsExpanded(c.ID)

	handle := "  "
	switch {
	case hovered:
		handle = "› "
	case focused && !dragging:
		handle = "⠿ "
	}
	prefix := t.treePrefix(row)
	glyph := "  "
	if row.Expandable {
		if expanded {
			glyph = "▾ "
		} else {
			glyph = "▸ "
		}
	}
	icon := ""
	if t.icons {
		icon = folderIcon(row.Expandable, expanded) + " "
	}

	badges := badgeTexts(c, len(t.forest.Children(c.ID)))
	hints := ""
	if focused && !dragging {
		hints = "  e edit · d delete · m move"
	}
	marker := ""
	if validTarget {
		if t.drag.Position == model.DropAfter {
			marker = "  ⤵ after"
		} else {
			marker = "  ⤷ inside"
		}
	}

	width := t.width
	if width <= 0 {
		width = 80
	}
	used := runewidth.StringWidth(handle + prefix + glyph + icon + hints + marker)
	for _, b := range badges {
		used += 1 + runewidth.StringWidth(b)
	}
	avail := width - used
	if avail < 8 {
		avail = 8
	}
	name := runewidth.Truncate(c.Name, avail, "…")

	if dragged {
		plain := handle + prefix + glyph + icon + name
		if len(badges) > 0 {
			plain += " " + strings.Join(badges, " ")
		}
		line := t.theme.Dimmed.Render(plain)
		if focused {
			line = t.theme.Selected.Render(line)
		}
		return line
	}

	var sb strings.Builder
	sb.WriteString(r.NewStyle().Foreground(t.theme.Highlight).Render(handle))
	sb.WriteString(r.NewStyle().Foreground(t.theme.Muted).Render(prefix))
	sb.WriteString(r.NewStyle().Foreground(t.theme.Secondary).Render(glyph))
	sb.WriteString(icon)

	nameStyle := t.theme.Base
	switch {
	case validTarget && t.drag.Position == model.DropAfter:
		nameStyle = r.NewStyle().Foreground(t.theme.Info).Bold(true)
	case validTarget:
		nameStyle = r.NewStyle().Foreground(t.theme.Success).Bold(true)
	}
	sb.WriteString(nameStyle.Render(name))

	badgeStyle := r.NewStyle().Foreground(t.theme.Info)
	for _, b := range badges {
		sb.WriteString(" ")
		sb.WriteString(badgeStyle.Render(b))
	}
	if marker != "" {
		sb.WriteString(nameStyle.Render(marker))
	}
	if hints != "" {
		sb.WriteString(r.NewStyle().Foreground(t.theme.Muted).Italic(true).Render(hints))
	}

	line := sb.String()
	if focused {
		line = t.theme.Selected.Render(line)
	}
	return line
}

// treePrefix builds the indentation and branch characters for a row, scaled
// to the configured indent width.
func (t *TreeModel) treePrefix(row export.Row) string {
	if row.Depth == 0 {
		return ""
	}
	w := t.indentWidth
	if w < 2 {
		return strings.Repeat(" ", row.Depth*w)
	}
	var sb strings.Builder
	// Guides[0] belongs to the root level, which draws no connector.
	for _, g := range row.Guides[1:] {
		if g {
			sb.WriteString("│" + strings.Repeat(" ", w-1))
		} else {
			sb.WriteString(strings.Repeat(" ", w))
		}
	}
	if row.Last {
		sb.WriteString("└")
	} else {
		sb.WriteString("├")
	}
	sb.WriteString(strings.Repeat("─", w-2) + " ")
	return sb.String()
}

// badgeTexts returns the count badges: direct products when positive, the
// subtree total only when it exceeds the direct count, and the number of
// children when there are any.
func badgeTexts(c model.Category, children int) []string {
	var out []string
	if n := c.DirectCount(); n > 0 {
		out = append(out, fmt.Sprintf("(%d)", n))
	}
	if c.ShowTotalBadge() {
		out = append(out, fmt.Sprintf("[Σ %d]", c.TotalCount()))
	}
	if c.ChildCount != nil && *c.ChildCount > children {
		children = *c.ChildCount
	}
	if children > 0 {
		out = append(out, fmt.Sprintf("↳%d", children))
	}
	return out
}

func folderIcon(hasChildren, expanded bool) string {
	switch {
	case !hasChildren:
		return "📄"
	case expanded:
		return "📂"
	default:
		return "📁"
	}
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// sequence drops nil commands and runs the rest in order. A single command is
// returned as is.
func sequence(cmds ...tea.Cmd) tea.Cmd {
	var valid []tea.Cmd
	for _, c := range cmds {
		if c != nil {
			valid = append(valid, c)
		}
	}
	switch len(valid) {
	case 0:
		return nil
	case 1:
		return valid[0]
	default:
		return tea.Sequence(valid...)
	}
}
