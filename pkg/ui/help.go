package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// HelpContext selects the section shown first in the help overlay.
type HelpContext int

const (
	HelpTree HelpContext = iota
	HelpDrag
	HelpFind
	HelpPicker
)

// helpContent holds the markdown for each context. Every context also gets
// the general tree reference below its own section.
var helpContent = map[HelpContext]string{
	HelpTree:   helpTree,
	HelpDrag:   helpDrag,
	HelpFind:   helpFind,
	HelpPicker: helpPicker,
}

// HelpMarkdown returns the help text for ctx.
func HelpMarkdown(ctx HelpContext) string {
	content, ok := helpContent[ctx]
	if !ok || ctx == HelpTree {
		return helpTree
	}
	return content + "\n\n" + helpTree
}

// HelpModel is the help overlay: markdown rendered by glamour inside a
// scrollable viewport.
type HelpModel struct {
	viewport viewport.Model
	theme    Theme
	style    string // glamour standard style; empty picks one from the terminal
	ctx      HelpContext
	width    int
	height   int
}

// NewHelpModel creates the overlay. glamourStyle names a glamour standard
// style such as "dark" or "notty"; empty detects it from the terminal.
func NewHelpModel(theme Theme, glamourStyle string) HelpModel {
	return HelpModel{
		viewport: viewport.New(56, 16),
		theme:    theme,
		style:    glamourStyle,
	}
}

// Open renders the help for ctx sized to the terminal.
func (h *HelpModel) Open(ctx HelpContext, width, height int) {
	h.ctx = ctx
	h.width, h.height = width, height

	modalWidth := min(72, max(width-4, 30))
	vpHeight := max(height-8, 5)
	h.viewport = viewport.New(modalWidth-6, vpHeight)

	h.viewport.SetContent(h.render(HelpMarkdown(ctx), modalWidth-6))
	h.viewport.GotoTop()
}

func (h *HelpModel) render(md string, wrap int) string {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wrap)}
	if h.style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(h.style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// Context returns the context the overlay was opened for.
func (h *HelpModel) Context() HelpContext {
	return h.ctx
}

// Update scrolls the help text.
func (h HelpModel) Update(msg tea.Msg) (HelpModel, tea.Cmd) {
	var cmd tea.Cmd
	h.viewport, cmd = h.viewport.Update(msg)
	return h, cmd
}

// View renders the overlay centered in the terminal.
func (h *HelpModel) View() string {
	t := h.theme
	r := t.Renderer

	titleStyle := r.NewStyle().Bold(true).Foreground(t.Primary)
	footerStyle := r.NewStyle().Foreground(t.Muted).Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Quick Reference"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(t.Border).Render(strings.Repeat("─", h.viewport.Width)))
	b.WriteString("\n")
	b.WriteString(h.viewport.View())
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("j/k scroll │ ? or esc to close"))

	modal := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Secondary).
		Padding(0, 2).
		Render(b.String())

	if h.width == 0 || h.height == 0 {
		return modal
	}
	return lipgloss.Place(h.width, h.height, lipgloss.Center, lipgloss.Center, modal)
}

const helpTree = `## Category tree

**Navigation**

| Key | Action |
|---|---|
| j / k | Move focus down / up |
| g / G | First / last row |
| PgUp / PgDn | Page up / down |
| enter / space | Expand or collapse |
| l / → | Expand, or go to first child |
| h / ← | Collapse, or go to parent |
| E / C | Expand all / collapse all |

**Editing**

| Key | Action |
|---|---|
| m | Pick up the focused category |
| p | Choose a new parent from a list |
| e | Rename |
| d | Delete (children move to top level) |
| y | Copy the category path |
| / | Find by path |
| R | Reload from disk |

Badges: ` + "`(n)`" + ` products in the category, ` + "`[Σ n]`" + ` products in
the whole subtree when it has more, ` + "`↳n`" + ` child categories.`

const helpDrag = `## Moving a category

The picked-up row is dimmed. Move the target with **j / k**.

- A target **with children** takes the category *inside* when hovered in
  the top half; **tab** flips to the bottom half, which places it *after*.
- A **leaf** target always takes the category *inside*.
- **r** or moving above the first row targets the top-level zone. It only
  lights up for categories that have a parent.
- A category cannot be dropped onto itself or its own descendants. Those
  targets are never highlighted, and dropping there does nothing.

**enter** drops, **esc** cancels. With the mouse, press a row, drag, and
release on the target; releasing outside the tree cancels.`

const helpFind = `## Find

Type part of a path such as ` + "`elec/pho`" + `; letters match in order.
**↑ / ↓** choose a result, **enter** expands its parents and focuses it,
**esc** closes.`

const helpPicker = `## Parent picker

Lists every category the focused one may be moved under. Its own subtree
and its current parent are left out. **(top level)** promotes it to a root.
**j / k** choose, **enter** moves, **esc** cancels.`
