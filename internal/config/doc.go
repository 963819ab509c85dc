// Package config loads stylefix configuration.
//
// # Resolution Order
//
//  1. Built-in defaults
//  2. The TOML file at the given path, or ~/.config/stylefix/config.toml
//  3. The FORGE_EXPERIENCE_DESIGN_CONFIG environment variable
//
// A missing file is not an error. Empty or non-positive values in the file
// keep the default. Command-line flags are applied by the caller after Load.
//
// # Default Values
//
//   - api_url: http://localhost:8003
//   - application_id: forgetest-studio
//   - auto_apply: true
//   - poll_interval_ms: 30000
//   - limit: 50
//   - report_status: false
//   - server.listen: 127.0.0.1:8787
//   - browser.headless: true
//   - log.level: info
//   - log.file: ~/.local/state/stylefix/stylefix.log (used when the console
//     owns the terminal)
//
// # TOML Format
//
//	api_url = "http://localhost:8003"
//	application_id = "forgetest-studio"
//	auto_apply = true
//	poll_interval_ms = 30000
//
//	[server]
//	listen = "127.0.0.1:8787"
//
//	[browser]
//	page_url = "http://localhost:3000"
//	headless = true
//
//	[log]
//	level = "debug"
//
// # Environment Override
//
// A host may override engine settings without touching the file:
//
//	FORGE_EXPERIENCE_DESIGN_CONFIG='{"apiUrl":"http://api:8003","autoApply":false,"pollInterval":10000}'
//
// Recognised keys are apiUrl, applicationId, autoApply and pollInterval
// (milliseconds). Invalid JSON fails Load.
//
// Tilde expansion applies to the config path and log.file.
package config
