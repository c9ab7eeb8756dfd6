package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/categorytree/pkg/model"
)

// RenameSubmitMsg is sent when the rename form is submitted with a new name.
type RenameSubmitMsg struct {
	ID   int
	Name string
}

// DeleteConfirmMsg is sent when a delete is confirmed.
type DeleteConfirmMsg struct {
	ID int
}

// FormCancelledMsg is sent when a form is dismissed without a change.
type FormCancelledMsg struct{}

type formKind int

const (
	formRename formKind = iota
	formDelete
)

// FormModel wraps a huh form for renaming or deleting one category. It is
// used through a pointer so the form's bound values stay addressable.
type FormModel struct {
	form     *huh.Form
	kind     formKind
	category model.Category
	theme    Theme
	width    int

	name    string
	confirm bool
	done    bool
}

// NewRenameForm asks for a new name for c.
func NewRenameForm(c model.Category, theme Theme) *FormModel {
	f := &FormModel{kind: formRename, category: c, theme: theme, name: c.Name}
	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Rename category").
				Description(fmt.Sprintf("id %d", c.ID)).
				CharLimit(255).
				Value(&f.name).
				Validate(validateName),
		),
	).WithShowHelp(true)
	return f
}

// NewDeleteForm asks to confirm deleting c, which has children direct
// children.
func NewDeleteForm(c model.Category, children int, theme Theme) *FormModel {
	f := &FormModel{kind: formDelete, category: c, theme: theme}
	desc := "This cannot be undone."
	if children > 0 {
		desc = fmt.Sprintf("Its %d child categories move to the top level.", children)
	}
	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", c.Name)).
				Description(desc).
				Affirmative("Delete").
				Negative("Cancel").
				Value(&f.confirm),
		),
	).WithShowHelp(true)
	return f
}

var errEmptyName = errors.New("name cannot be empty")

// validateName applies the same rules as loading a category.
func validateName(s string) error {
	name := strings.TrimSpace(s)
	if name == "" {
		return errEmptyName
	}
	c := model.Category{ID: 1, Name: name}
	return c.Validate()
}

// SetWidth limits the form width.
func (f *FormModel) SetWidth(w int) {
	f.width = w
	f.form = f.form.WithWidth(min(max(w-8, 20), 60))
}

// Init starts the form.
func (f *FormModel) Init() tea.Cmd {
	return f.form.Init()
}

// Done reports whether the form has finished.
func (f *FormModel) Done() bool {
	return f.done
}

// Update forwards msg to the form and reports the outcome once it finishes.
// Escape always cancels.
func (f *FormModel) Update(msg tea.Msg) tea.Cmd {
	if f.done {
		return nil
	}
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		f.done = true
		return emit(FormCancelledMsg{})
	}
	m, cmd := f.form.Update(msg)
	if form, ok := m.(*huh.Form); ok {
		f.form = form
	}
	return sequence(cmd, f.outcome())
}

// outcome returns the result message once the form left its normal state.
func (f *FormModel) outcome() tea.Cmd {
	switch f.form.State {
	case huh.StateAborted:
		f.done = true
		return emit(FormCancelledMsg{})
	case huh.StateCompleted:
		f.done = true
		return emit(f.result())
	}
	return nil
}

func (f *FormModel) result() tea.Msg {
	switch f.kind {
	case formRename:
		name := strings.TrimSpace(f.name)
		if name == "" || name == f.category.Name {
			return FormCancelledMsg{}
		}
		return RenameSubmitMsg{ID: f.category.ID, Name: name}
	default:
		if !f.confirm {
			return FormCancelledMsg{}
		}
		return DeleteConfirmMsg{ID: f.category.ID}
	}
}

// View renders the form in a bordered box.
func (f *FormModel) View() string {
	t := f.theme
	border := t.Primary
	if f.kind == formDelete {
		border = t.Danger
	}
	return t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2).
		Render(f.form.View())
}
