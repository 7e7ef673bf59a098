package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	CycleTheme key.Binding

	// Login form
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding

	// Session view
	Classes key.Binding
	Logout  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "Quit"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "Cycle theme"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Log in"),
		),
		Classes: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Load classes"),
		),
		Logout: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Log out"),
		),
	}
}

// helpLine renders bindings as "key desc · key desc".
func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return joinNonEmpty(parts, " · ")
}
