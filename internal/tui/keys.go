package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left            key.Binding
	Right           key.Binding
	Up              key.Binding
	Down            key.Binding
	EditTitle       key.Binding
	EditDescription key.Binding
	Toggle          key.Binding
	Delete          key.Binding
	Add             key.Binding
	Grab            key.Binding
	Drop            key.Binding
	Cancel          key.Binding
	FullSend        key.Binding
	FocusChat       key.Binding
	ToggleChat      key.Binding
	Quit            key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left:            key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "lane")),
		Right:           key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "lane")),
		Up:              key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "card")),
		Down:            key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "card")),
		EditTitle:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit title")),
		EditDescription: key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "edit description")),
		Toggle:          key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "toggle done")),
		Delete:          key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Add:             key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
		Grab:            key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move")),
		Drop:            key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		Cancel:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		FullSend:        key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "complete all")),
		FocusChat:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "chat")),
		ToggleChat:      key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "sidebar")),
		Quit:            key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp satisfies help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.EditTitle, k.Toggle, k.Delete, k.Add, k.Grab, k.FocusChat, k.Quit}
}

// FullHelp satisfies help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.EditTitle, k.EditDescription, k.Toggle, k.Delete, k.Add},
		{k.Grab, k.Drop, k.Cancel, k.FullSend},
		{k.FocusChat, k.ToggleChat, k.Quit},
	}
}

func (k keyMap) grabHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Drop, k.Cancel}
}
