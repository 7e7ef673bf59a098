// Package state holds the latest registry session and sync result for the UI.
//
// # Overview
//
// The UI runs registry calls as background commands and renders from a
// Snapshot. Store is the hand-off point between the two:
//
//	Commands (login, sync):        UI:
//	┌────────────────────┐        ┌───────────────────┐
//	│ SetLoginState()    │        │                   │
//	│ SetSession()       │───────→│ store.Snapshot()  │
//	│ RecordResult()     │ (mutex)│   render views    │
//	└────────────────────┘        └───────────────────┘
//
// # Semantics
//
//   - SetSession replaces the session and clears the last error.
//   - RecordResult keeps the session; failures bump ConsecutiveFailures.
//   - Clear drops the session, as on logout.
//
// Snapshots are copies: callers may modify them freely.
package state
