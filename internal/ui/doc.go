// Package ui provides the operator console for the stylefix engine.
//
// # Architecture Overview
//
// The console is a Bubble Tea program in the Elm style: Model holds all
// state, Update folds messages into it, View renders it. It never touches
// the injector directly for reads. Every tick it pulls a state.Snapshot,
// the same copy the bridge status endpoint serves, and it drives the engine
// only through the Engine interface (*bridge.Handle in production).
//
// # Package Structure
//
//   - app.go: Model, Update, key dispatch, commands and Run
//   - header.go: status header, command bar and flash line
//   - fixes.go: applied-fix table and the CSS block of the selection
//   - logs.go: log file tail with follow mode and level filter
//   - help.go: key reference overlay
//   - keys.go: key bindings
//   - theme.go, style_helpers.go: Lipgloss palettes and background-safe rendering
//
// # Views
//
//   - Fixes: applied fixes in application order. r rolls back the selected
//     fix; c asks for confirmation, a second c clears everything.
//   - Logs: the engine log file, parsed from slog text lines. Space toggles
//     follow, L raises the minimum level.
//
// s and x start and stop polling in either view. T cycles the theme. The
// theme and the last view are saved to prefs.toml on change.
//
// # Refresh Cycle
//
//	tickMsg ──→ fetchSnapshotCmd ──→ snapshotMsg ──→ render
//	        └─→ loadLogsCmd (logs view, follow on) ──→ logsMsg
//
// Engine commands run as tea.Cmd goroutines and report back with actionMsg,
// which triggers an immediate snapshot refresh.
package ui
