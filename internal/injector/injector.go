package injector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/stylefix/internal/fixes"
	"github.com/five82/stylefix/internal/fixsource"
	"github.com/five82/stylefix/internal/metrics"
	"github.com/five82/stylefix/internal/state"
)

const (
	defaultPollInterval = 30 * time.Second
	reportTimeout       = 5 * time.Second
)

// FixApplier is the subset of *applier.Applier the injector drives.
type FixApplier interface {
	ApplyFix(ctx context.Context, fix *fixes.Fix) bool
	RollbackFix(ctx context.Context, id string) bool
	ClearAll(ctx context.Context)
	AppliedFixes() []*fixes.Fix
}

// Config holds the tunables read at construction.
type Config struct {
	ApplicationID string
	AutoApply     bool
	PollInterval  time.Duration
	// ReportStatus posts apply/rollback events back to the backend.
	ReportStatus bool
}

// Options wire an Injector to its collaborators. Source and Applier are
// required.
type Options struct {
	Config   Config
	Source   fixsource.Source
	Reporter fixsource.Reporter
	Applier  FixApplier
	Store    *state.Store
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Injector keeps the applied set in sync with the backend's pending fixes.
type Injector struct {
	cfg      Config
	source   fixsource.Source
	reporter fixsource.Reporter
	applier  FixApplier
	store    *state.Store
	metrics  *metrics.Metrics
	log      *slog.Logger

	// loopMu guards the running handle. cancel is nil when stopped.
	loopMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// cycleMu serialises cycle bodies.
	cycleMu sync.Mutex

	// mu guards seen and makes "apply then mark seen" atomic with respect to
	// other applies and rollbacks.
	mu   sync.Mutex
	seen map[string]struct{}
}

// New builds a stopped Injector.
func New(opts Options) *Injector {
	if opts.Config.PollInterval <= 0 {
		opts.Config.PollInterval = defaultPollInterval
	}
	if opts.Store == nil {
		opts.Store = &state.Store{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Injector{
		cfg:      opts.Config,
		source:   opts.Source,
		reporter: opts.Reporter,
		applier:  opts.Applier,
		store:    opts.Store,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		seen:     make(map[string]struct{}),
	}
}

// Config returns the configuration the injector runs with.
func (inj *Injector) Config() Config { return inj.cfg }

// Store returns the snapshot store the injector writes to.
func (inj *Injector) Store() *state.Store { return inj.store }

// Start launches the poll loop: one cycle immediately, then one per
// PollInterval until Stop or ctx cancellation. Starting a running injector
// logs a warning and returns false; there is never more than one loop.
func (inj *Injector) Start(ctx context.Context) bool {
	inj.loopMu.Lock()
	defer inj.loopMu.Unlock()

	if inj.cancel != nil {
		inj.log.Warn("injector: already running")
		return false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	inj.cancel = cancel
	inj.done = done
	inj.store.SetRunning(true)

	inj.log.Info("injector: started",
		"application", inj.cfg.ApplicationID,
		"interval", inj.cfg.PollInterval,
		"auto_apply", inj.cfg.AutoApply)

	go inj.loop(loopCtx, done)
	return true
}

// Stop cancels the poll loop and waits for an in-flight cycle to finish.
// Stopping a stopped injector is a no-op.
func (inj *Injector) Stop() {
	inj.loopMu.Lock()
	cancel, done := inj.cancel, inj.done
	inj.cancel = nil
	inj.done = nil
	inj.loopMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	inj.store.SetRunning(false)
	inj.log.Info("injector: stopped")
}

// Running reports whether the poll loop is live.
func (inj *Injector) Running() bool {
	inj.loopMu.Lock()
	defer inj.loopMu.Unlock()
	return inj.cancel != nil
}

func (inj *Injector) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		// The parent context ended without Stop: drop the stale handle.
		inj.loopMu.Lock()
		if inj.done == done {
			inj.cancel()
			inj.cancel = nil
			inj.done = nil
			inj.store.SetRunning(false)
		}
		inj.loopMu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(inj.cfg.PollInterval)
	defer ticker.Stop()

	for {
		inj.Cycle(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Cycle runs one fetch-filter-apply pass. Fetch failures are logged and
// recorded, never returned: the next tick is the retry.
func (inj *Injector) Cycle(ctx context.Context) {
	inj.cycleMu.Lock()
	defer inj.cycleMu.Unlock()

	inj.metrics.PollCycle()
	fetched, err := inj.source.FetchFixes(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		inj.metrics.PollFailed()
		inj.store.RecordCycle(0, 0, err)
		inj.log.Warn("injector: fetch fixes failed", "error", err)
		return
	}

	pending := inj.unseenPending(fetched)
	inj.store.RecordCycle(len(fetched), len(pending), nil)
	if len(pending) == 0 {
		return
	}
	if !inj.cfg.AutoApply {
		inj.log.Debug("injector: pending fixes observed", "count", len(pending))
		return
	}

	inj.log.Info("injector: applying fixes", "count", len(pending))
	for _, fix := range pending {
		if ctx.Err() != nil {
			break
		}
		inj.apply(ctx, fix, "poll")
	}
	inj.store.SetApplied(inj.applier.AppliedFixes())
}

// unseenPending keeps fixes that are pending and not yet seen. The returned
// pointers address the freshly decoded slice, which becomes the engine's own
// copy of each fix.
func (inj *Injector) unseenPending(fetched []fixes.Fix) []*fixes.Fix {
	inj.mu.Lock()
	defer inj.mu.Unlock()

	var out []*fixes.Fix
	batch := make(map[string]struct{}, len(fetched))
	for i := range fetched {
		f := &fetched[i]
		if !f.IsPending() {
			continue
		}
		if _, ok := inj.seen[f.ID]; ok {
			continue
		}
		if _, ok := batch[f.ID]; ok {
			continue
		}
		batch[f.ID] = struct{}{}
		out = append(out, f)
	}
	return out
}

func (inj *Injector) apply(ctx context.Context, fix *fixes.Fix, source string) bool {
	inj.mu.Lock()
	if _, ok := inj.seen[fix.ID]; ok && source == "poll" {
		// Another path applied it between filter and apply.
		inj.mu.Unlock()
		return false
	}
	ok := inj.applier.ApplyFix(ctx, fix)
	if ok {
		inj.seen[fix.ID] = struct{}{}
	}
	inj.mu.Unlock()

	if !ok {
		inj.log.Debug("injector: fix not applied", "fix", fix.ID, "type", fix.Type, "source", source)
		return false
	}
	inj.metrics.Applied(source)
	inj.log.Info("injector: fix applied", "fix", fix.ID, "selector", fix.Selector(), "source", source)
	inj.report(ctx, fix.ID, true)
	return true
}

// ApplyFix applies fix directly, bypassing the poll filter, and marks it
// seen on success.
func (inj *Injector) ApplyFix(ctx context.Context, fix *fixes.Fix) bool {
	if fix == nil {
		return false
	}
	ok := inj.apply(ctx, fix, "manual")
	inj.store.SetApplied(inj.applier.AppliedFixes())
	return ok
}

// RollbackFix reverts id and forgets it, so a later poll may reapply it if
// the backend still reports it pending.
func (inj *Injector) RollbackFix(ctx context.Context, id string) bool {
	inj.mu.Lock()
	ok := inj.applier.RollbackFix(ctx, id)
	if ok {
		delete(inj.seen, id)
	}
	inj.mu.Unlock()

	if ok {
		inj.log.Info("injector: fix rolled back", "fix", id)
		inj.report(ctx, id, false)
	}
	inj.store.SetApplied(inj.applier.AppliedFixes())
	return ok
}

// ClearAll drops every applied fix and the seen set. Polling is left as is;
// the next cycle may reapply fixes the backend still lists as pending.
func (inj *Injector) ClearAll(ctx context.Context) {
	inj.mu.Lock()
	inj.applier.ClearAll(ctx)
	inj.seen = make(map[string]struct{})
	inj.mu.Unlock()

	inj.store.SetApplied(nil)
	inj.log.Info("injector: all fixes cleared")
}

// AppliedFixes returns the fixes currently in force.
func (inj *Injector) AppliedFixes() []*fixes.Fix {
	return inj.applier.AppliedFixes()
}

// Seen reports whether id is in the seen set.
func (inj *Injector) Seen(id string) bool {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	_, ok := inj.seen[id]
	return ok
}

// SeenCount returns the size of the seen set.
func (inj *Injector) SeenCount() int {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	return len(inj.seen)
}

func (inj *Injector) report(ctx context.Context, id string, applied bool) {
	if !inj.cfg.ReportStatus || inj.reporter == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
	defer cancel()

	var err error
	if applied {
		err = inj.reporter.MarkApplied(rctx, id)
	} else {
		err = inj.reporter.MarkRolledBack(rctx, id)
	}
	if err != nil {
		inj.log.Warn("injector: status report failed", "fix", id, "applied", applied, "error", err)
	}
}
