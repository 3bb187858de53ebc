package tui

import "github.com/charmbracelet/bubbles/key"

var decisionKeys = struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Persist key.Binding
	SkipAll key.Binding
	KeepAll key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "skip/keep")),
	Persist: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "always skip")),
	SkipAll: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip all")),
	KeepAll: key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "keep all")),
	Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	Cancel:  key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
}

var indexKeys = struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Fold   key.Binding
	Filter key.Binding
	All    key.Binding
	None   key.Binding
	Accept key.Binding
	Quit   key.Binding
}{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	Fold:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "fold")),
	Filter: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	All:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
	None:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "select none")),
	Accept: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "copy")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "quit")),
}

var filterKeys = struct {
	Apply key.Binding
	Clear key.Binding
}{
	Apply: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
	Clear: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
}

var loadingKeys = struct {
	Cancel key.Binding
}{
	Cancel: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
}
