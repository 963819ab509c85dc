// Package server exposes the bridge over HTTP so a host page, or the
// "stylefix ctl" command, can drive an engine it did not start.
//
// # Routes
//
//	POST   /bridge/start        start polling ({"started": bool})
//	POST   /bridge/stop         stop polling
//	GET    /bridge/status       Status
//	GET    /bridge/fixes        applied fixes
//	POST   /bridge/fixes        manual apply (ApplyResult; 400 when invalid)
//	DELETE /bridge/fixes        clear all
//	DELETE /bridge/fixes/{id}   rollback (404 when not applied)
//	POST   /bridge/preview      diff of the sheet with a candidate fix
//	GET    /fixes.css           current sheet text
//	GET    /fix-injector.js     loader script for host pages
//	GET    /metrics             Prometheus metrics
//	GET    /healthz             liveness
//
// Manual applies without an id get a random UUID. Bodies are validated with
// fixes.Fix.Validate before they reach the engine.
//
// # Loader
//
// A host page includes /fix-injector.js by URL. The script keeps a <link>
// to /fixes.css fresh on the poll interval and publishes a small control
// object under bridge.Namespace on window. Bridge routes answer CORS
// preflights so the script can call them from the page origin.
package server
