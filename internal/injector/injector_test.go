package injector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/five82/stylefix/internal/applier"
	"github.com/five82/stylefix/internal/dom"
	"github.com/five82/stylefix/internal/fixes"
	"github.com/five82/stylefix/internal/state"
)

type fakeSource struct {
	mu      sync.Mutex
	calls   int
	replies []reply
	fixed   []fixes.Fix
}

type reply struct {
	fixes []fixes.Fix
	err   error
}

// FetchFixes serves scripted replies in order, then fixed forever.
func (s *fakeSource) FetchFixes(ctx context.Context) ([]fixes.Fix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.replies) > 0 {
		r := s.replies[0]
		s.replies = s.replies[1:]
		return copyFixes(r.fixes), r.err
	}
	return copyFixes(s.fixed), nil
}

func (s *fakeSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func copyFixes(in []fixes.Fix) []fixes.Fix {
	if in == nil {
		return nil
	}
	out := make([]fixes.Fix, len(in))
	copy(out, in)
	return out
}

type fakeReporter struct {
	mu      sync.Mutex
	applied []string
	rolled  []string
}

func (r *fakeReporter) MarkApplied(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, id)
	return nil
}

func (r *fakeReporter) MarkRolledBack(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rolled = append(r.rolled, id)
	return errors.New("backend down")
}

// countingApplier records how often ApplyFix is attempted.
type countingApplier struct {
	*applier.Applier
	mu       sync.Mutex
	attempts map[string]int
}

func (c *countingApplier) ApplyFix(ctx context.Context, fix *fixes.Fix) bool {
	c.mu.Lock()
	c.attempts[fix.ID]++
	c.mu.Unlock()
	return c.Applier.ApplyFix(ctx, fix)
}

func (c *countingApplier) Attempts(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts[id]
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	inj     *Injector
	source  *fakeSource
	applier *countingApplier
	doc     *dom.Memory
	store   *state.Store
}

func newHarness(t *testing.T, cfg Config, source *fakeSource) *harness {
	t.Helper()
	doc := dom.NewMemory()
	app := &countingApplier{
		Applier:  applier.New(applier.Options{Document: doc, Logger: discard()}),
		attempts: make(map[string]int),
	}
	store := &state.Store{}
	inj := New(Options{
		Config:  cfg,
		Source:  source,
		Applier: app,
		Store:   store,
		Logger:  discard(),
	})
	t.Cleanup(inj.Stop)
	return &harness{inj: inj, source: source, applier: app, doc: doc, store: store}
}

func pendingCSS(id, selector string) fixes.Fix {
	return fixes.Fix{
		ID:             id,
		Type:           fixes.TypeCSS,
		TargetSelector: selector,
		Changes:        []fixes.Change{{Property: "color", Value: "red"}},
		Status:         fixes.StatusPending,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStart_RunsImmediateCycle(t *testing.T) {
	src := &fakeSource{fixed: []fixes.Fix{pendingCSS("f1", ".btn")}}
	h := newHarness(t, Config{AutoApply: true, PollInterval: time.Hour}, src)

	if !h.inj.Start(context.Background()) {
		t.Fatalf("Start() = false, want true")
	}
	waitFor(t, "f1 applied", func() bool { return h.inj.Seen("f1") })

	if !h.store.Snapshot().Running {
		t.Fatalf("snapshot Running = false, want true")
	}
	if got := len(h.inj.AppliedFixes()); got != 1 {
		t.Fatalf("applied count = %d, want 1", got)
	}
}

func TestStart_TwiceKeepsSingleLoop(t *testing.T) {
	src := &fakeSource{}
	h := newHarness(t, Config{AutoApply: true, PollInterval: time.Hour}, src)
	ctx := context.Background()

	if !h.inj.Start(ctx) {
		t.Fatalf("first Start() = false, want true")
	}
	if h.inj.Start(ctx) {
		t.Fatalf("second Start() = true, want false")
	}
	waitFor(t, "first fetch", func() bool { return src.Calls() >= 1 })
	time.Sleep(50 * time.Millisecond)
	if got := src.Calls(); got != 1 {
		t.Fatalf("fetch calls = %d, want 1", got)
	}

	h.inj.Stop()
	if h.inj.Running() {
		t.Fatalf("Running() = true after Stop")
	}
	if h.store.Snapshot().Running {
		t.Fatalf("snapshot Running = true after Stop")
	}

	if !h.inj.Start(ctx) {
		t.Fatalf("Start() after Stop = false, want true")
	}
	waitFor(t, "second fetch", func() bool { return src.Calls() == 2 })
}

func TestStop_Idempotent(t *testing.T) {
	h := newHarness(t, Config{PollInterval: time.Hour}, &fakeSource{})
	h.inj.Stop()
	h.inj.Start(context.Background())
	h.inj.Stop()
	h.inj.Stop()
	if h.inj.Running() {
		t.Fatalf("Running() = true, want false")
	}
}

func TestLoop_ParentContextCancelClearsHandle(t *testing.T) {
	h := newHarness(t, Config{PollInterval: time.Hour}, &fakeSource{})
	ctx, cancel := context.WithCancel(context.Background())

	h.inj.Start(ctx)
	cancel()
	waitFor(t, "loop exit", func() bool { return !h.inj.Running() })

	if !h.inj.Start(context.Background()) {
		t.Fatalf("Start() after parent cancel = false, want true")
	}
}

func TestLoop_TicksRepeatedly(t *testing.T) {
	src := &fakeSource{}
	h := newHarness(t, Config{PollInterval: 10 * time.Millisecond}, src)
	h.inj.Start(context.Background())
	waitFor(t, "three cycles", func() bool { return src.Calls() >= 3 })
}

func TestCycle_SeenFixesAreNotReapplied(t *testing.T) {
	src := &fakeSource{fixed: []fixes.Fix{pendingCSS("f1", ".btn")}}
	h := newHarness(t, Config{AutoApply: true}, src)
	ctx := context.Background()

	h.inj.Cycle(ctx)
	h.inj.Cycle(ctx)
	h.inj.Cycle(ctx)

	if got := h.applier.Attempts("f1"); got != 1 {
		t.Fatalf("ApplyFix attempts for f1 = %d, want 1", got)
	}
	if snap := h.store.Snapshot(); snap.LastFetched != 1 || snap.LastPending != 0 {
		t.Fatalf("last cycle fetched/pending = %d/%d, want 1/0", snap.LastFetched, snap.LastPending)
	}
}

func TestCycle_FiltersNonPendingAndBatchDuplicates(t *testing.T) {
	done := pendingCSS("done", ".a")
	done.Status = fixes.StatusApplied
	validated := pendingCSS("ok", ".b")
	validated.Status = fixes.StatusValidated
	src := &fakeSource{fixed: []fixes.Fix{done, validated, pendingCSS("f1", ".c"), pendingCSS("f1", ".c")}}
	h := newHarness(t, Config{AutoApply: true}, src)

	h.inj.Cycle(context.Background())

	if h.applier.Attempts("done") != 0 || h.applier.Attempts("ok") != 0 {
		t.Fatalf("non-pending fixes were attempted")
	}
	if got := h.applier.Attempts("f1"); got != 1 {
		t.Fatalf("attempts for duplicated f1 = %d, want 1", got)
	}
}

func TestCycle_FetchFailureRetriesNextCycle(t *testing.T) {
	src := &fakeSource{
		replies: []reply{{err: errors.New("api returned status 500")}},
		fixed:   []fixes.Fix{pendingCSS("f1", ".btn")},
	}
	h := newHarness(t, Config{AutoApply: true}, src)
	ctx := context.Background()

	h.inj.Cycle(ctx)
	snap := h.store.Snapshot()
	if snap.LastError == nil || snap.ConsecutiveFailures != 1 {
		t.Fatalf("after failure: err=%v failures=%d", snap.LastError, snap.ConsecutiveFailures)
	}
	if len(h.inj.AppliedFixes()) != 0 {
		t.Fatalf("fixes applied despite fetch failure")
	}

	h.inj.Cycle(ctx)
	snap = h.store.Snapshot()
	if snap.LastError != nil {
		t.Fatalf("LastError = %v after recovery, want nil", snap.LastError)
	}
	if !h.inj.Seen("f1") {
		t.Fatalf("f1 not applied after recovery")
	}
}

func TestCycle_ApplyFailureLeavesFixUnseen(t *testing.T) {
	src := &fakeSource{fixed: []fixes.Fix{pendingCSS("f1", ".btn")}}
	h := newHarness(t, Config{AutoApply: true}, src)
	ctx := context.Background()

	h.doc.Detach()
	h.inj.Cycle(ctx)
	if h.inj.Seen("f1") {
		t.Fatalf("f1 marked seen after failed apply")
	}

	h.doc.Attach()
	h.inj.Cycle(ctx)
	if !h.inj.Seen("f1") {
		t.Fatalf("f1 not seen after retry")
	}
	if got := h.applier.Attempts("f1"); got != 2 {
		t.Fatalf("attempts = %d, want 2", got)
	}
}

func TestCycle_JavaScriptFixRetriedEveryCycle(t *testing.T) {
	js := fixes.Fix{ID: "j1", Type: fixes.TypeJavaScript, Status: fixes.StatusPending}
	src := &fakeSource{fixed: []fixes.Fix{js}}
	h := newHarness(t, Config{AutoApply: true}, src)
	ctx := context.Background()

	h.inj.Cycle(ctx)
	h.inj.Cycle(ctx)

	if got := h.applier.Attempts("j1"); got != 2 {
		t.Fatalf("attempts = %d, want 2", got)
	}
	if h.inj.SeenCount() != 0 {
		t.Fatalf("SeenCount = %d, want 0", h.inj.SeenCount())
	}
}

func TestCycle_AutoApplyDisabledOnlyObserves(t *testing.T) {
	src := &fakeSource{fixed: []fixes.Fix{pendingCSS("f1", ".btn")}}
	h := newHarness(t, Config{AutoApply: false}, src)

	h.inj.Cycle(context.Background())

	if got := h.applier.Attempts("f1"); got != 0 {
		t.Fatalf("attempts = %d, want 0", got)
	}
	if snap := h.store.Snapshot(); snap.LastPending != 1 {
		t.Fatalf("LastPending = %d, want 1", snap.LastPending)
	}
}

func TestManualApplyAndRollback(t *testing.T) {
	src := &fakeSource{fixed: []fixes.Fix{pendingCSS("f1", ".btn")}}
	h := newHarness(t, Config{AutoApply: true}, src)
	ctx := context.Background()

	f2 := pendingCSS("f2", ".nav")
	if !h.inj.ApplyFix(ctx, &f2) {
		t.Fatalf("ApplyFix(f2) = false, want true")
	}
	if !h.inj.Seen("f2") {
		t.Fatalf("f2 not seen after manual apply")
	}
	if got := len(h.store.Snapshot().Applied); got != 1 {
		t.Fatalf("snapshot applied = %d, want 1", got)
	}

	h.inj.Cycle(ctx)
	if !h.inj.RollbackFix(ctx, "f1") {
		t.Fatalf("RollbackFix(f1) = false, want true")
	}
	if h.inj.Seen("f1") {
		t.Fatalf("f1 still seen after rollback")
	}

	// Still pending upstream, so the next cycle applies it again.
	h.inj.Cycle(ctx)
	if got := h.applier.Attempts("f1"); got != 2 {
		t.Fatalf("attempts for f1 = %d, want 2", got)
	}

	if h.inj.RollbackFix(ctx, "missing") {
		t.Fatalf("RollbackFix(missing) = true, want false")
	}
	if h.inj.ApplyFix(ctx, nil) {
		t.Fatalf("ApplyFix(nil) = true, want false")
	}
}

func TestClearAll_ResetsSeenAndKeepsRunning(t *testing.T) {
	src := &fakeSource{fixed: []fixes.Fix{pendingCSS("f1", ".btn")}}
	h := newHarness(t, Config{AutoApply: true, PollInterval: time.Hour}, src)
	ctx := context.Background()

	h.inj.Start(ctx)
	waitFor(t, "f1 applied", func() bool { return h.inj.Seen("f1") })

	h.inj.ClearAll(ctx)
	if h.inj.SeenCount() != 0 || len(h.inj.AppliedFixes()) != 0 {
		t.Fatalf("state not cleared: seen=%d applied=%d", h.inj.SeenCount(), len(h.inj.AppliedFixes()))
	}
	if h.doc.Exists() {
		t.Fatalf("style node still present after ClearAll")
	}
	if !h.inj.Running() {
		t.Fatalf("ClearAll stopped the poll loop")
	}
	if got := len(h.store.Snapshot().Applied); got != 0 {
		t.Fatalf("snapshot applied = %d, want 0", got)
	}
}

func TestReportStatus(t *testing.T) {
	src := &fakeSource{fixed: []fixes.Fix{pendingCSS("f1", ".btn")}}
	rep := &fakeReporter{}
	doc := dom.NewMemory()
	inj := New(Options{
		Config:   Config{AutoApply: true, ReportStatus: true},
		Source:   src,
		Reporter: rep,
		Applier:  applier.New(applier.Options{Document: doc, Logger: discard()}),
		Logger:   discard(),
	})
	ctx := context.Background()

	inj.Cycle(ctx)
	// A failed rollback report is logged, not surfaced.
	if !inj.RollbackFix(ctx, "f1") {
		t.Fatalf("RollbackFix(f1) = false, want true")
	}

	rep.mu.Lock()
	defer rep.mu.Unlock()
	if len(rep.applied) != 1 || rep.applied[0] != "f1" {
		t.Fatalf("applied reports = %v, want [f1]", rep.applied)
	}
	if len(rep.rolled) != 1 || rep.rolled[0] != "f1" {
		t.Fatalf("rollback reports = %v, want [f1]", rep.rolled)
	}
}

func TestReportStatus_DisabledByDefault(t *testing.T) {
	src := &fakeSource{fixed: []fixes.Fix{pendingCSS("f1", ".btn")}}
	rep := &fakeReporter{}
	inj := New(Options{
		Config:   Config{AutoApply: true},
		Source:   src,
		Reporter: rep,
		Applier:  applier.New(applier.Options{Document: dom.NewMemory(), Logger: discard()}),
		Logger:   discard(),
	})

	inj.Cycle(context.Background())
	if len(rep.applied) != 0 {
		t.Fatalf("applied reports = %v, want none", rep.applied)
	}
}
