// Package applier materialises fixes into a host document and reverses them.
//
// # Overview
//
// The Applier owns exactly one style node in the host document and a
// registry of the fixes currently in force. It has no knowledge of polling or
// networking; the injector package drives it.
//
// # Apply
//
// A css fix becomes one marker-delimited block:
//
//	/* Fix: f1 */
//	.btn {
//	  color: red !important;
//	}
//
// The style node is created on the first css fix and reused afterwards. Each
// apply appends the fix's block to an ordered id -> block mapping
// (stylesheet.Sheet) and writes the rendered text to the node. A javascript
// fix is recognised but never executed: ApplyFix returns false so callers can
// surface "unsupported".
//
// # Rollback
//
// Rollback drops the id's entry from the mapping and re-renders, so neighbour
// blocks stay byte-for-byte identical without any brace scanning. Unknown ids
// return false.
//
// # Failure model
//
// Document faults (detached page, closed tab, expired context) are logged and
// reported as false. The sheet and the registry only change after the
// document accepted the new text, so a failed call leaves the previous state
// in force. Panics inside apply or rollback are recovered at the method
// boundary.
//
// # Adopted nodes
//
// When the document already holds a node with the same id (for example one
// written by the loader script or a previous process), its foreign text is
// kept as a preamble and any stale marker blocks are scrubbed with
// stylesheet.RemoveMarked.
package applier
