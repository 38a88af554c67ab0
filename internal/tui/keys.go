package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Collapse   key.Binding
	Expand     key.Binding
	Children   key.Binding
	More       key.Binding
	SwitchPane key.Binding
	DomainView key.Binding
	Search     key.Binding
	Cancel     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Collapse:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
		Expand:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand")),
		Children:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "load children / set")),
		More:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "more nodes")),
		SwitchPane: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "switch pane")),
		DomainView: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "pretty/simple")),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search vars")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Expand, k.Children, k.DomainView, k.Search, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Collapse, k.Expand},
		{k.Children, k.More, k.SwitchPane, k.DomainView},
		{k.Search, k.Cancel, k.Help, k.Quit},
	}
}
