// Package app is the composition root for stylefix.
//
// # Overview
//
// This package wires configuration, logging, the page document, the applier,
// the injector, the bridge and the HTTP server into one running engine, and
// optionally puts the operator console in front of it.
//
// # Architecture
//
//  1. Load config.toml, then apply FORGE_EXPERIENCE_DESIGN_CONFIG and flags
//  2. Build a slog text logger (stderr, or the log file when the console runs)
//  3. Open the page through Chrome, or fall back to an in-memory document
//  4. Build the applier, the backend client, the injector and the bridge
//  5. Register the bridge handle globally
//  6. Run the server, the poll loop and the console under one errgroup
//
// # Components
//
//   - app.go: Run, flag overrides and the errgroup
//   - engine.go: Build and Close, the object graph without goroutines
//   - logging.go: logger construction
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()        file + env override
//	       ├─────> Build()              document, applier, injector, server
//	       ├─────> bridge.Register()    global handle
//	       └─────> errgroup
//	                ├─> server.Run()    bridge HTTP API
//	                ├─> injector.Start() until ctx ends, then Stop()
//	                └─> ui.Run()        console (optional)
//
// # Error Handling
//
// Fatal errors, returned from Run:
//   - Invalid config file or override JSON
//   - Unreachable page or Chrome when a page URL is configured
//   - Malformed backend URL
//   - A second Register in the same process
//   - The server failing to listen
//
// Recoverable errors are logged by the injector and polling continues:
//   - Backend fetch failures and timeouts
//   - Document faults while applying a fix
//   - Status report failures
//
// Quitting the console cancels the run; cancelling the context closes the
// console.
package app
