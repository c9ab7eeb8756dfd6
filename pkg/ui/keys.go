package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists every binding the category tree and the app respond to.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Toggle   key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	Edit   key.Binding
	Delete key.Binding
	Parent key.Binding
	Yank   key.Binding
	Find   key.Binding

	Move     key.Binding
	Flip     key.Binding
	RootZone key.Binding
	Drop     key.Binding
	Cancel   key.Binding

	ExpandAll   key.Binding
	CollapseAll key.Binding
	Reload      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand")),
		Toggle:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "toggle")),
		Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),

		Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Parent: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "move to…")),
		Yank:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy path")),
		Find:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "find")),

		Move:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "pick up")),
		Flip:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "inside/after")),
		RootZone: key.NewBinding(key.WithKeys("r", "0"), key.WithHelp("r", "top level")),
		Drop:     key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "drop")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),

		ExpandAll:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
		CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),
		Reload:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Move, k.Parent, k.Edit, k.Delete, k.Find, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Toggle, k.Top, k.Bottom},
		{k.Edit, k.Delete, k.Parent, k.Yank, k.Find},
		{k.Move, k.Flip, k.RootZone, k.Drop, k.Cancel},
		{k.ExpandAll, k.CollapseAll, k.Reload, k.Help, k.Quit},
	}
}

// DragHelp is shown in the footer while a category is picked up.
func (k KeyMap) DragHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Flip, k.RootZone, k.Drop, k.Cancel}
}
