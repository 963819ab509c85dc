package applier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/stylefix/internal/dom"
	"github.com/five82/stylefix/internal/fixes"
	"github.com/five82/stylefix/internal/metrics"
	"github.com/five82/stylefix/internal/preview"
	"github.com/five82/stylefix/internal/stylesheet"
)

const defaultMutationTimeout = 5 * time.Second

// Options configure an Applier.
type Options struct {
	Document dom.Document
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	// Timeout bounds each document mutation. Default: 5s.
	Timeout time.Duration
}

// Applier turns fixes into reversible mutations of one shared style node and
// remembers enough to reverse them. It is safe for concurrent use.
type Applier struct {
	doc     dom.Document
	log     *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	mu         sync.Mutex
	styleReady bool
	// preamble is foreign text found in an adopted style node, kept in front
	// of the blocks this applier renders.
	preamble string
	sheet    stylesheet.Sheet
	order    []string
	applied  map[string]*fixes.Fix
}

// New returns an Applier writing to opts.Document. A nil document gets an
// in-memory one.
func New(opts Options) *Applier {
	if opts.Document == nil {
		opts.Document = dom.NewMemory()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultMutationTimeout
	}
	return &Applier{
		doc:     opts.Document,
		log:     opts.Logger,
		metrics: opts.Metrics,
		timeout: opts.Timeout,
		applied: make(map[string]*fixes.Fix),
	}
}

// ApplyFix materialises fix and reports whether it is now in force. A false
// result means unsupported (javascript), unknown type, or a document fault;
// nothing is ever propagated to the caller as a panic.
func (a *Applier) ApplyFix(ctx context.Context, fix *fixes.Fix) (ok bool) {
	if fix == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("applier: apply panicked", "fix", fix.ID, "panic", r)
			ok = false
		}
	}()

	switch fix.Type {
	case fixes.TypeCSS:
		ok = a.applyCSS(ctx, fix)
	case fixes.TypeJavaScript:
		// Extension point: behavioral fixes are declared but not executed.
		a.log.Warn("applier: javascript fixes are not supported", "fix", fix.ID)
		ok = false
	default:
		a.log.Warn("applier: unknown fix type", "fix", fix.ID, "type", fix.Type)
		ok = false
	}
	if !ok {
		a.metrics.ApplyFailed(string(fix.Type))
	}
	return ok
}

func (a *Applier) applyCSS(ctx context.Context, fix *fixes.Fix) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureStyleLocked(ctx); err != nil {
		a.log.Error("applier: create style node failed", "fix", fix.ID, "error", err)
		return false
	}

	next := a.sheet.Clone()
	next.Append(fix.ID, stylesheet.Block(fix))
	if err := a.writeLocked(ctx, next); err != nil {
		a.log.Error("applier: write style failed", "fix", fix.ID, "error", err)
		return false
	}
	a.sheet = *next

	fix.Status = fixes.StatusApplied
	if _, exists := a.applied[fix.ID]; exists {
		a.dropOrderLocked(fix.ID)
	}
	a.order = append(a.order, fix.ID)
	a.applied[fix.ID] = fix
	a.metrics.SetActive(len(a.applied))
	a.log.Debug("applier: fix applied", "fix", fix.ID, "selector", fix.Selector(), "changes", len(fix.Changes))
	return true
}

// RollbackFix removes the block owned by id. Unknown ids return false with
// no mutation; that is the normal "already absent" outcome.
func (a *Applier) RollbackFix(ctx context.Context, id string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("applier: rollback panicked", "fix", id, "panic", r)
			ok = false
		}
	}()

	a.mu.Lock()
	defer a.mu.Unlock()

	fix, exists := a.applied[id]
	if !exists {
		return false
	}

	if fix.Type == fixes.TypeCSS && a.styleReady {
		next := a.sheet.Clone()
		next.Remove(id)
		if err := a.writeLocked(ctx, next); err != nil {
			a.log.Error("applier: rollback write failed", "fix", id, "error", err)
			return false
		}
		a.sheet = *next
	}

	fix.Status = fixes.StatusRolledBack
	delete(a.applied, id)
	a.dropOrderLocked(id)
	a.metrics.RolledBack()
	a.metrics.SetActive(len(a.applied))
	return true
}

// ClearAll removes the style node and forgets every applied fix. It always
// leaves the registry empty, even when the document refuses the removal.
func (a *Applier) ClearAll(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.styleReady {
		mctx, cancel := context.WithTimeout(ctx, a.timeout)
		err := a.doc.RemoveStyle(mctx)
		cancel()
		if err != nil {
			a.log.Warn("applier: remove style node failed", "error", err)
		}
	}
	a.styleReady = false
	a.preamble = ""
	a.sheet.Reset()
	a.order = nil
	a.applied = make(map[string]*fixes.Fix)
	a.metrics.SetActive(0)
}

// AppliedFixes returns the registry in insertion order.
func (a *Applier) AppliedFixes() []*fixes.Fix {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*fixes.Fix, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.applied[id])
	}
	return out
}

// IsApplied reports whether id is currently materialised.
func (a *Applier) IsApplied(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.applied[id]
	return ok
}

// Count returns the registry size.
func (a *Applier) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.applied)
}

// Text returns the style node text as last written; empty when there is no
// node.
func (a *Applier) Text() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.styleReady {
		return ""
	}
	return a.preamble + a.sheet.Render()
}

// Preview diffs the current sheet against the sheet with fix applied. Nothing
// is mutated.
func (a *Applier) Preview(fix *fixes.Fix) (preview.Result, error) {
	if fix == nil {
		return preview.Result{}, fmt.Errorf("preview: fix is nil")
	}
	if fix.Type != fixes.TypeCSS {
		return preview.Result{}, fmt.Errorf("preview: %s fixes are not supported", fix.Type)
	}
	a.mu.Lock()
	before := a.preamble + a.sheet.Render()
	next := a.sheet.Clone()
	after := a.preamble
	a.mu.Unlock()

	next.Append(fix.ID, stylesheet.Block(fix))
	after += next.Render()
	return preview.Diff(fix.ID, before, after), nil
}

func (a *Applier) ensureStyleLocked(ctx context.Context) error {
	if a.styleReady {
		return nil
	}
	mctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	existing, created, err := a.doc.EnsureStyle(mctx)
	if err != nil {
		return err
	}
	if !created && existing != "" {
		stale := stylesheet.MarkedIDs(existing)
		for _, id := range stale {
			existing, _ = stylesheet.RemoveMarked(existing, id)
		}
		a.preamble = existing
		a.log.Info("applier: adopted existing style node", "stale_blocks", len(stale))
	}
	a.styleReady = true
	return nil
}

func (a *Applier) writeLocked(ctx context.Context, next *stylesheet.Sheet) error {
	mctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.doc.SetStyleText(mctx, a.preamble+next.Render())
}

func (a *Applier) dropOrderLocked(id string) {
	for i, v := range a.order {
		if v == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			return
		}
	}
}
