// Package config loads vrcwatch configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/vrcwatch/config.toml
//  3. If the config file doesn't exist, fall back to defaults
//  4. VRCHAT_USERNAME and VRCHAT_PASSWORD override the file's credentials
//
// # TOML Format
//
//	username = "me"
//	password = "secret"
//	api_base = "https://vrchat.com/api/1"
//	proxy_url = ""
//	requests_per_second = 2
//	log_file = "~/.local/state/vrcwatch/vrcwatch.log"
//	log_level = "info"
//
// Every field is optional. Tilde expansion is applied to log_file.
//
// # Error Handling
//
// Load returns errors for unreadable files, TOML syntax errors and negative
// rates. Missing credentials are not a load error; Validate reports them so
// callers decide whether they are fatal.
package config
