package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap documents the browsing keys for the help footer. The keys
// themselves are interpreted by the state machine.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Column   key.Binding
	Activate key.Binding
	Stay     key.Binding
	Reauth   key.Binding
	Edit     key.Binding
	Add      key.Binding
	Delete   key.Binding
	Sync     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Column:   key.NewBinding(key.WithKeys("left", "right", "h", "l"), key.WithHelp("←/→", "column")),
	Activate: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "activate & quit")),
	Stay:     key.NewBinding(key.WithKeys("alt+enter"), key.WithHelp("alt+enter", "activate")),
	Reauth:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "re-auth")),
	Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Add:      key.NewBinding(key.WithKeys("a", "n"), key.WithHelp("a", "add")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Sync:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync mode")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
	Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Activate, k.Column, k.Edit, k.Add, k.Delete, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Column},
		{k.Activate, k.Stay, k.Reauth},
		{k.Edit, k.Add, k.Delete},
		{k.Sync, k.Help, k.Quit},
	}
}
