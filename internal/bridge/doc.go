// Package bridge exposes an injector to code that did not construct it.
//
// A Handle is an explicit value callers can pass around. Register publishes
// one Handle under Namespace for the life of the process; Global looks it
// up. The HTTP routes in internal/server are the out-of-process equivalent.
package bridge
