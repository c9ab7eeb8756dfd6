package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"github.com/vanderheijden86/categorytree/pkg/hierarchy"
	"github.com/vanderheijden86/categorytree/pkg/model"
)

// maxFindResults is the number of matches listed under the find input.
const maxFindResults = 5

// RevealMsg is sent when the user picks a find result.
type RevealMsg struct {
	ID int
}

// HeaderStats summarizes a forest for the header chips.
type HeaderStats struct {
	Categories int
	Roots      int
	Depth      int
	Products   int
	Broken     int
}

// StatsOf computes the header summary of f.
func StatsOf(f *hierarchy.Forest) HeaderStats {
	s := HeaderStats{Roots: len(f.Roots()), Broken: len(f.Broken())}
	f.Walk(func(c model.Category, depth int) bool {
		s.Categories++
		s.Products += c.DirectCount()
		if depth+1 > s.Depth {
			s.Depth = depth + 1
		}
		return true
	})
	return s
}

// pathIndex adapts category paths to fuzzy.Source.
type pathIndex struct {
	ids   []int
	paths []string
}

func (p pathIndex) String(i int) string { return p.paths[i] }
func (p pathIndex) Len() int            { return len(p.paths) }

// HeaderModel is the always-visible k9s-style header: a shortcut bar, summary
// chips and a title bar. It also owns find mode, which fuzzy-matches
// category paths.
type HeaderModel struct {
	source   string
	stats    HeaderStats
	index    pathIndex
	matches  fuzzy.Matches
	cursor   int
	width    int
	dragging bool

	findInput textinput.Model
	finding   bool
	theme     Theme
}

// NewHeader creates a header titled after source.
func NewHeader(source string, theme Theme) HeaderModel {
	ti := textinput.New()
	ti.Placeholder = "type to find..."
	ti.CharLimit = 80
	ti.Width = 30

	return HeaderModel{
		source:    source,
		findInput: ti,
		theme:     theme,
	}
}

// SetSize updates the header width.
func (m *HeaderModel) SetSize(w int) {
	m.width = w
}

// SetForest refreshes the stats and the find index.
func (m *HeaderModel) SetForest(f *hierarchy.Forest) {
	m.stats = StatsOf(f)
	m.index = pathIndex{}
	f.Walk(func(c model.Category, _ int) bool {
		m.index.ids = append(m.index.ids, c.ID)
		m.index.paths = append(m.index.paths, strings.Join(f.Path(c.ID), " / "))
		return true
	})
	if m.finding {
		m.applyFilter()
	}
}

// SetDragging switches the shortcut bar to the drag keys.
func (m *HeaderModel) SetDragging(dragging bool) {
	m.dragging = dragging
}

// Stats returns the current summary.
func (m *HeaderModel) Stats() HeaderStats {
	return m.stats
}

// StartFind enters find mode.
func (m *HeaderModel) StartFind() tea.Cmd {
	m.finding = true
	m.cursor = 0
	m.findInput.SetValue("")
	m.applyFilter()
	return m.findInput.Focus()
}

// Update handles keys while finding. Outside find mode it does nothing.
func (m HeaderModel) Update(msg tea.Msg) (HeaderModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !m.finding {
		return m, nil
	}
	switch keyMsg.String() {
	case "esc":
		m.stopFind()
		return m, nil
	case "enter":
		id, found := m.SelectedID()
		m.stopFind()
		if !found {
			return m, nil
		}
		return m, func() tea.Msg { return RevealMsg{ID: id} }
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if m.cursor < m.resultCount()-1 {
			m.cursor++
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.findInput, cmd = m.findInput.Update(keyMsg)
		m.applyFilter()
		return m, cmd
	}
}

func (m *HeaderModel) stopFind() {
	m.finding = false
	m.findInput.SetValue("")
	m.findInput.Blur()
	m.matches = nil
	m.cursor = 0
}

// applyFilter re-runs the fuzzy match. An empty query lists categories in
// tree order.
func (m *HeaderModel) applyFilter() {
	query := strings.TrimSpace(m.findInput.Value())
	if query == "" {
		m.matches = make(fuzzy.Matches, len(m.index.paths))
		for i, p := range m.index.paths {
			m.matches[i] = fuzzy.Match{Str: p, Index: i}
		}
	} else {
		m.matches = fuzzy.FindFrom(query, m.index)
	}
	if m.cursor >= m.resultCount() {
		m.cursor = max(0, m.resultCount()-1)
	}
}

func (m *HeaderModel) resultCount() int {
	return min(len(m.matches), maxFindResults)
}

// Finding returns whether find mode is active.
func (m *HeaderModel) Finding() bool {
	return m.finding
}

// MatchCount returns the number of categories matching the query.
func (m *HeaderModel) MatchCount() int {
	return len(m.matches)
}

// SelectedID returns the highlighted result.
func (m *HeaderModel) SelectedID() (int, bool) {
	if m.cursor >= m.resultCount() {
		return 0, false
	}
	return m.index.ids[m.matches[m.cursor].Index], true
}

// View renders the header.
func (m *HeaderModel) View() string {
	if m.width == 0 {
		m.width = 80
	}
	w := m.width
	t := m.theme

	sections := []string{m.renderShortcutBar()}

	if m.finding {
		sections = append(sections, t.Renderer.NewStyle().
			Foreground(t.Primary).
			Render("  / "+m.findInput.View()))
		sections = append(sections, m.renderMatches(w)...)
	}

	sections = append(sections, m.renderChips())
	sections = append(sections, m.renderTitleBar(w))
	return strings.Join(sections, "\n")
}

// Height returns the number of terminal lines the header uses.
func (m *HeaderModel) Height() int {
	lines := 3 // shortcut bar, chips, title bar
	if m.finding {
		lines++
		if n := m.resultCount(); n > 0 {
			lines += n
		} else {
			lines++ // "no match" line
		}
	}
	return lines
}

func (m *HeaderModel) renderShortcutBar() string {
	t := m.theme

	keyStyle := t.Renderer.NewStyle().
		Foreground(t.Info).
		Bold(true)
	descStyle := t.Renderer.NewStyle().
		Foreground(t.Subtext)

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"<m>", "Move"},
		{"<p>", "Parent"},
		{"<e>", "Rename"},
		{"<d>", "Delete"},
		{"</>", "Find"},
		{"<?>", "Help"},
	}
	if m.dragging {
		shortcuts = []struct {
			key  string
			desc string
		}{
			{"<↑↓>", "Target"},
			{"<tab>", "Inside/After"},
			{"<r>", "Top Level"},
			{"<enter>", "Drop"},
			{"<esc>", "Cancel"},
		}
	}

	var parts []string
	for _, s := range shortcuts {
		parts = append(parts, keyStyle.Render(s.key)+" "+descStyle.Render(s.desc))
	}
	return " " + strings.Join(parts, "  ")
}

// renderChips shows the summary of the loaded forest.
func (m *HeaderModel) renderChips() string {
	t := m.theme
	labelStyle := t.Renderer.NewStyle().Foreground(t.Subtext)
	valueStyle := t.Renderer.NewStyle().Foreground(t.Base.GetForeground()).Bold(true)

	chip := func(label string, v int) string {
		return labelStyle.Render(label+":") + valueStyle.Render(fmt.Sprintf("%d", v))
	}
	parts := []string{
		chip("categories", m.stats.Categories),
		chip("top", m.stats.Roots),
		chip("depth", m.stats.Depth),
		chip("products", m.stats.Products),
	}
	if m.stats.Broken > 0 {
		parts = append(parts, t.Renderer.NewStyle().
			Foreground(t.Warning).
			Render(fmt.Sprintf("broken:%d", m.stats.Broken)))
	}
	return "  " + strings.Join(parts, "  ")
}

// renderMatches lists the first find results with matched runes in bold.
func (m *HeaderModel) renderMatches(w int) []string {
	t := m.theme
	if m.resultCount() == 0 {
		return []string{t.Renderer.NewStyle().Foreground(t.Secondary).Italic(true).Render("    no match")}
	}

	normal := t.Renderer.NewStyle().Foreground(t.Base.GetForeground())
	hit := t.Renderer.NewStyle().Foreground(t.Highlight).Bold(true)

	var lines []string
	for i := 0; i < m.resultCount(); i++ {
		match := m.matches[i]
		text := runewidth.Truncate(match.Str, max(w-6, 10), "…")
		matched := make(map[int]bool, len(match.MatchedIndexes))
		for _, idx := range match.MatchedIndexes {
			matched[idx] = true
		}
		var sb strings.Builder
		if i == m.cursor {
			sb.WriteString(hit.Render("  > "))
		} else {
			sb.WriteString("    ")
		}
		for pos, r := range text {
			if matched[pos] {
				sb.WriteString(hit.Render(string(r)))
			} else {
				sb.WriteString(normal.Render(string(r)))
			}
		}
		lines = append(lines, sb.String())
	}
	return lines
}

// renderTitleBar renders the k9s-style title bar: categories(source)[count]
func (m *HeaderModel) renderTitleBar(w int) string {
	t := m.theme

	titleText := t.Renderer.NewStyle().
		Foreground(t.Primary).
		Bold(true)
	countText := t.Renderer.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"})

	label := "categories"
	count := m.stats.Categories
	if m.finding && m.findInput.Value() != "" {
		label = fmt.Sprintf("categories(/%s)", m.findInput.Value())
		count = len(m.matches)
	} else if m.source != "" {
		label = fmt.Sprintf("categories(%s)", m.source)
	}
	countLabel := fmt.Sprintf("[%d]", count)
	title := titleText.Render(label) + countText.Render(countLabel)

	sepChar := "─"
	sepStyle := t.Renderer.NewStyle().Foreground(t.Border)

	titleLen := runewidth.StringWidth(label) + len(countLabel)
	leftPad := (w - titleLen - 4) / 2
	rightPad := w - titleLen - 4 - leftPad
	if leftPad < 1 {
		leftPad = 1
	}
	if rightPad < 1 {
		rightPad = 1
	}

	return sepStyle.Render(strings.Repeat(sepChar, leftPad)) + " " + title + " " + sepStyle.Render(strings.Repeat(sepChar, rightPad))
}
