package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
	"github.com/vanderheijden86/categorytree/pkg/logging"
	"github.com/vanderheijden86/categorytree/pkg/model"
)

// footerHeight is the status line plus the key help line.
const footerHeight = 2

// appMode selects which component receives keys.
type appMode int

const (
	modeTree appMode = iota
	modeFind
	modePicker
	modeForm
	modeHelp
)

// Options configures the app model.
type Options struct {
	// Source labels the title bar, usually the category file name.
	Source string
	Tree   TreeOptions
	// Writer applies moves, renames and deletes. Nil makes the app read-only.
	Writer *CategoryWriter
	// Worker reloads the source after mutations and on R. It may be nil.
	Worker *BackgroundWorker
	// GlamourStyle names the help overlay style; empty detects it.
	GlamourStyle string
	// Renderer defaults to the renderer of stdout.
	Renderer *lipgloss.Renderer
	// CopyText defaults to the system clipboard.
	CopyText func(string) error
}

// Model is the main Bubble Tea model for the category manager.
type Model struct {
	theme   Theme
	keys    KeyMap
	mode    appMode
	header  HeaderModel
	tree    TreeModel
	picker  ParentPickerModel
	form    *FormModel
	overlay HelpModel
	help    help.Model

	writer   *CategoryWriter
	worker   *BackgroundWorker
	copyText func(string) error

	// expandAll is handed to the tree as a fresh pointer on every E / C.
	expandAll *bool

	status      string
	statusIsErr bool

	width  int
	height int
	ready  bool
}

// NewModel creates the app showing f.
func NewModel(f *hierarchy.Forest, opts Options) Model {
	r := opts.Renderer
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	theme := DefaultTheme(r)

	h := help.New()
	h.Styles.ShortKey = r.NewStyle().Foreground(theme.Info).Bold(true)
	h.Styles.ShortDesc = r.NewStyle().Foreground(theme.Subtext)
	h.Styles.ShortSeparator = r.NewStyle().Foreground(theme.Border)

	copyText := opts.CopyText
	if copyText == nil {
		copyText = clipboard.WriteAll
	}

	m := Model{
		theme:    theme,
		keys:     DefaultKeyMap(),
		header:   NewHeader(opts.Source, theme),
		tree:     NewTreeModel(theme, opts.Tree),
		overlay:  NewHelpModel(theme, opts.GlamourStyle),
		help:     h,
		writer:   opts.Writer,
		worker:   opts.Worker,
		copyText: copyText,
	}
	m.setForest(f)
	return m
}

func (m *Model) setForest(f *hierarchy.Forest) {
	if f == nil {
		f = hierarchy.New()
	}
	m.tree.SetCategories(f)
	m.header.SetForest(f)
	if m.mode == modePicker {
		m.openPicker(m.picker.category.ID)
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("ct")
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		if m.mode == modeHelp {
			m.overlay.Open(m.overlay.Context(), m.width, m.height)
		}
		if m.form != nil {
			m.form.SetWidth(m.width)
		}
		return m, nil

	case SnapshotReadyMsg:
		if msg.Snapshot != nil {
			m.setForest(msg.Snapshot.Forest)
			m.layout()
		}
		return m, nil

	case SnapshotErrorMsg:
		m.setStatus(fmt.Sprintf("reload failed: %v", msg.Err), true)
		return m, nil

	case MoveRequestMsg:
		return m, m.startMove(msg.Request)

	case MutationResultMsg:
		if msg.Operation == OpMove {
			m.tree.SetMoving(false)
		}
		m.setStatus(msg.Status(), !msg.Success)
		if msg.Success && m.worker != nil {
			m.worker.TriggerRefresh()
		}
		return m, nil

	case EditRequestMsg:
		return m, m.openForm(NewRenameForm(msg.Category, m.theme))

	case DeleteRequestMsg:
		children := len(m.tree.Forest().Children(msg.Category.ID))
		return m, m.openForm(NewDeleteForm(msg.Category, children, m.theme))

	case RenameSubmitMsg:
		m.closeForm()
		return m, m.writer.Rename(msg.ID, msg.Name)

	case DeleteConfirmMsg:
		m.closeForm()
		return m, m.writer.Delete(msg.ID)

	case FormCancelledMsg:
		m.closeForm()
		return m, nil

	case RevealMsg:
		cmd = m.tree.Reveal(msg.ID)
		m.layout()
		return m, cmd

	case ExpandedChangedMsg:
		// persisted by the tree's expansion store
		return m, nil

	case tea.BlurMsg:
		m.tree, cmd = m.tree.Update(msg)
		m.header.SetDragging(false)
		return m, cmd

	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.MouseMsg:
		if m.mode != modeTree {
			return m, nil
		}
		mouse := msg
		mouse.Y -= m.header.Height()
		m.tree, cmd = m.tree.Update(mouse)
		m.header.SetDragging(m.tree.Dragging())
		return m, cmd
	}

	// huh sends its own messages while a form is open
	if m.mode == modeForm && m.form != nil {
		return m, m.form.Update(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case modeHelp:
		switch msg.String() {
		case "?", "esc", "q":
			m.mode = modeTree
			return m, nil
		}
		m.overlay, cmd = m.overlay.Update(msg)
		return m, cmd

	case modeFind:
		m.header, cmd = m.header.Update(msg)
		if !m.header.Finding() {
			m.mode = modeTree
		}
		m.layout()
		return m, cmd

	case modePicker:
		switch msg.String() {
		case "up", "k":
			m.picker.MoveUp()
		case "down", "j":
			m.picker.MoveDown()
		case "enter":
			m.mode = modeTree
			if req, ok := m.picker.Request(); ok {
				return m, m.startMove(req)
			}
		case "esc", "q":
			m.mode = modeTree
		}
		return m, nil

	case modeForm:
		if m.form == nil {
			m.mode = modeTree
			return m, nil
		}
		return m, m.form.Update(msg)
	}

	if m.tree.Dragging() {
		if key.Matches(msg, m.keys.Help) {
			m.openHelp(HelpDrag)
			return m, nil
		}
		m.tree, cmd = m.tree.Update(msg)
		m.header.SetDragging(m.tree.Dragging())
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.openHelp(HelpTree)
		return m, nil
	case key.Matches(msg, m.keys.Find):
		if m.tree.Empty() {
			return m, nil
		}
		m.mode = modeFind
		cmd = m.header.StartFind()
		m.layout()
		return m, cmd
	case key.Matches(msg, m.keys.Parent):
		if m.tree.IsMoving() {
			m.setStatus("a move is still being saved", true)
			return m, nil
		}
		if c, ok := m.tree.Focused(); ok {
			m.openPicker(c.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.Yank):
		m.yankFocused()
		return m, nil
	case key.Matches(msg, m.keys.ExpandAll):
		return m, m.setExpandAll(true)
	case key.Matches(msg, m.keys.CollapseAll):
		return m, m.setExpandAll(false)
	case key.Matches(msg, m.keys.Reload):
		if m.worker != nil {
			m.worker.TriggerRefresh()
			m.setStatus("reloading…", false)
		}
		return m, nil
	case key.Matches(msg, m.keys.Move) && m.tree.IsMoving():
		m.setStatus("a move is still being saved", true)
		return m, nil
	}

	m.tree, cmd = m.tree.Update(msg)
	m.header.SetDragging(m.tree.Dragging())
	return m, cmd
}

// startMove hands a resolved drop to the writer. The tree stays usable but
// refuses new drags and moves until the result arrives.
func (m *Model) startMove(req model.MoveRequest) tea.Cmd {
	if m.tree.IsMoving() {
		m.setStatus("a move is still being saved", true)
		return nil
	}
	if !m.writer.IsAvailable() {
		m.setStatus("source is read-only", true)
		return nil
	}
	logging.Named("app").Debugw("move requested", "category", req.CategoryID, "position", string(req.Position))
	m.tree.SetMoving(true)
	m.setStatus("moving…", false)
	return m.writer.Move(req)
}

func (m *Model) setExpandAll(v bool) tea.Cmd {
	m.expandAll = &v
	return m.tree.SetExpandAll(m.expandAll)
}

func (m *Model) openPicker(id int) {
	if !m.tree.Forest().Has(id) {
		m.mode = modeTree
		return
	}
	m.picker = NewParentPickerModel(m.tree.Forest(), id, m.theme)
	m.picker.SetSize(m.width, m.height)
	m.mode = modePicker
}

func (m *Model) openForm(f *FormModel) tea.Cmd {
	if m.width > 0 {
		f.SetWidth(m.width)
	}
	m.form = f
	m.mode = modeForm
	return f.Init()
}

func (m *Model) closeForm() {
	m.form = nil
	if m.mode == modeForm {
		m.mode = modeTree
	}
}

func (m *Model) openHelp(ctx HelpContext) {
	m.overlay.Open(ctx, m.width, m.height)
	m.mode = modeHelp
}

func (m *Model) yankFocused() {
	c, ok := m.tree.Focused()
	if !ok {
		return
	}
	path := strings.Join(m.tree.Forest().Path(c.ID), " / ")
	if err := m.copyText(path); err != nil {
		m.setStatus(fmt.Sprintf("copy failed: %v", err), true)
		return
	}
	m.setStatus("copied "+path, false)
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusIsErr = isErr
}

// layout sizes the tree between the header and the footer. The header
// grows while find results are listed.
func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	m.header.SetSize(m.width)
	m.help.Width = m.width
	treeHeight := m.height - m.header.Height() - footerHeight
	if treeHeight < 2 {
		treeHeight = 2
	}
	m.tree.SetSize(m.width, treeHeight)
}

// Status returns the status line text and whether it reports an error.
func (m Model) Status() (string, bool) {
	return m.status, m.statusIsErr
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case modeHelp:
		return m.overlay.View()
	case modePicker:
		return m.picker.View()
	case modeForm:
		if m.form != nil {
			return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.form.View())
		}
	}

	body := m.tree.View()
	bodyHeight := m.height - m.header.Height() - footerHeight
	if bodyHeight > 0 {
		body = m.theme.Renderer.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		body,
		m.renderStatus(),
		m.renderHelp(),
	)
}

func (m *Model) renderStatus() string {
	t := m.theme
	style := t.Renderer.NewStyle().Foreground(t.Subtext)
	text := m.status
	switch {
	case m.statusIsErr:
		style = style.Foreground(t.Danger)
	case m.tree.IsMoving():
		style = style.Foreground(t.Warning)
	case text == "":
		text = fmt.Sprintf("%d visible", m.tree.NodeCount())
		style = style.Foreground(t.Muted)
	}
	return style.Render(" " + text)
}

func (m *Model) renderHelp() string {
	if m.tree.Dragging() {
		return " " + m.help.ShortHelpView(m.keys.DragHelp())
	}
	return " " + m.help.View(m.keys)
}
