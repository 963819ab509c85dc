// Package state provides a thread-safe view of the injection engine for
// readers that must not touch the engine's locks.
//
// # Overview
//
// The injector writes a Snapshot after every sync cycle and every manual
// apply, rollback or clear. The operator console and the bridge status
// endpoint read it on their own schedule.
//
//	Producer (Injector):            Consumers:
//	┌──────────────────────┐       ┌───────────────────────┐
//	│ Cycle()              │       │ ui: every tick        │
//	│   store.RecordCycle()│──────→│ server: GET /status   │
//	│ ApplyFix/Rollback    │(mutex)│   store.Snapshot()    │
//	│   store.SetApplied() │       │                       │
//	└──────────────────────┘       └───────────────────────┘
//
// # Concurrency Model
//
// The Store uses a readers-writer lock. Writers hold it only while copying;
// no network I/O or document mutation happens under it.
//
// # Cycle Semantics
//
//	// Success: replace counts, clear the error
//	store.RecordCycle(fetched, pending, nil)
//
//	// Failure: keep previous counts, record error, bump failure streak
//	store.RecordCycle(0, 0, err)
//
// IsOffline reports two or more consecutive failures, which the console
// renders as "backend offline".
//
// # Copy Semantics
//
// SetApplied copies the fixes it is given and Snapshot copies again on the
// way out, including each fix's Changes slice. The engine keeps exclusive
// ownership of the *fixes.Fix values it mutates; readers only ever see
// copies.
//
// The zero Store is ready to use.
package state
