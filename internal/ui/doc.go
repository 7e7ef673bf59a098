// Package ui implements the interactive regsync terminal interface.
//
// It is a small Bubble Tea program: a login form that hands credentials to the
// session manager, a spinner that follows the login state machine through the
// shared state.Store while candidate paths are probed, and a session card from
// which the class list can be fetched. Lipgloss themes are persisted through
// the prefs file.
package ui
