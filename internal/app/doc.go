// Package app is the composition root for regsync.
//
// Run loads the TOML config, opens the zerolog file sink and wires one set of
// components per invocation:
//
//	config.Load()            settings and per-call timeouts
//	logging.New()            JSON log file
//	prefs.NewFileStore()     base URL override, cached login path, theme
//	endpoints.NewRegistry()  candidate paths over the prefs store
//	transport.New()          HTTP sender
//	portal.NewManager()      login with path discovery
//	portal.NewResolver()     sentinel probe
//	portal.NewSubmitter()    class list, absence detail, submissions
//	state.Store{}            login state observed by the UI
//
// It then dispatches the named command. Commands that talk to the registry
// log in first, taking credentials from REGSYNC_USERNAME and REGSYNC_PASSWORD
// or prompting on the terminal. The login command opens the Bubble Tea form
// when stdin is a terminal.
//
// Errors are returned unchanged so the caller can render them with
// portal.UserMessage.
package app
