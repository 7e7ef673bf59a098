// Package config loads regsync's runtime settings from a TOML file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/regsync/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - Base URL: empty, deferring to the prefs override and then the compiled-in registry address
//   - Timeouts: probe 8s, login 15s, list 10s, detail 15s, submit 20s
//   - Log file: ~/.local/state/regsync/regsync.log at level info
//
// # TOML Format
//
//	base_url = "https://registry.example/Services/MTletIt.svc"
//	user_agent = "regsync/1.0"
//	probe_timeout = "5s"
//	login_timeout = "20s"
//	submit_timeout = "30s"
//	log_file = "~/.local/state/regsync/regsync.log"
//	log_level = "debug"
//	prefs_path = "~/.config/regsync/prefs.toml"
//
// Every field is optional. Tilde expansion is performed for paths.
//
// # Error Handling
//
// Load returns errors for path expansion failures, unreadable files, TOML
// parsing errors, a base_url that is not an absolute http(s) URL, and
// durations that do not parse or are not positive. Missing config files are
// NOT an error.
//
// Credentials never live here; they come from REGSYNC_USERNAME and
// REGSYNC_PASSWORD or the login form.
package config
