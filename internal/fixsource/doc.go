// Package fixsource provides an HTTP client for the fix-generation backend.
//
// # Endpoints
//
//   - GET  /api/fixes/generate?application_id=<id>&limit=<n>: JSON array of fixes
//   - POST /api/fixes/{id}/apply: record that the engine applied a fix
//   - POST /api/fixes/{id}/rollback: record that the engine rolled a fix back
//
// There is no authentication, pagination or conditional fetch. Every poll is
// a full re-fetch of up to limit items.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json and User-Agent: stylefix/0.1
//   - Have a 5-second timeout unless a custom http.Client is supplied
//   - Treat any non-2xx status as an error, including up to 512 bytes of the
//     response body for context
//
// # URL Construction
//
// The API URL accepts several forms:
//
//   - "localhost:8003" -> http://localhost:8003
//   - "https://fixes.example.com" -> https://fixes.example.com
//   - "http://gateway/backend/" -> endpoints under /backend/api/...
//
// # Design Rationale
//
// The client does not retry. The injector's poll interval is the only retry
// mechanism, so a down backend degrades to "fixes stop appearing" rather than
// a burst of requests.
package fixsource
