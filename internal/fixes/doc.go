// Package fixes defines the Fix payload exchanged with the fix-generation
// backend.
//
// A Fix is a declarative UI correction: a selector plus an ordered list of
// property/value changes. Only the css type has an execution semantic; the
// javascript type is recognised so callers can tell "unsupported" apart from
// "failed".
//
// # Ownership
//
// Status is written by two parties on physically different copies. The
// backend assigns pending and validated. Once a *Fix is handed to the engine
// it becomes the engine's exclusive copy: the engine sets applied and
// rolled_back in place, and later poll responses for the same id are never
// merged back into it.
//
// # Validation
//
// Fixes arriving through the poll path are trusted as-is. Fixes submitted by
// a host through the bridge go through Validate, which uses
// go-playground/validator struct tags plus a struct-level rule requiring a
// selector on css fixes.
package fixes
