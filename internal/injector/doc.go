// Package injector runs the poll loop that pulls pending fixes from the
// backend and hands them to the applier.
//
// # Lifecycle
//
//	inj := injector.New(opts)
//	inj.Start(ctx)    // cycle now, then every PollInterval
//	...
//	inj.Stop()        // cancels an in-flight fetch, waits for the cycle
//
// Start on a running injector logs a warning and returns false. Stop on a
// stopped injector does nothing. Cancelling the context passed to Start has
// the same effect as Stop.
//
// # Cycle
//
// Each cycle fetches up to Limit fixes, keeps those with status "pending"
// whose id has not been seen, and, when AutoApply is set, applies them in
// response order. An id enters the seen set only after a successful apply,
// so failures and unsupported types are retried on the next tick. Rollback
// and ClearAll remove ids from the seen set; a fix still pending upstream
// will be applied again.
//
// Fetch errors are logged and recorded in the state.Store. There is no
// backoff: the fixed interval is the retry schedule.
//
// # Concurrency
//
// Manual ApplyFix, RollbackFix and ClearAll may be called from any goroutine
// while the loop runs. The applier call and the seen-set update happen under
// one lock, so a poll never reapplies a fix a manual call is handling.
package injector
