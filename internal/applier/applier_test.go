package applier

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/five82/stylefix/internal/dom"
	"github.com/five82/stylefix/internal/fixes"
	"github.com/five82/stylefix/internal/stylesheet"
)

func newTestApplier(t *testing.T) (*Applier, *dom.Memory) {
	t.Helper()
	doc := dom.NewMemory()
	a := New(Options{
		Document: doc,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return a, doc
}

func cssFix(id, selector string, changes ...fixes.Change) *fixes.Fix {
	return &fixes.Fix{
		ID:             id,
		Type:           fixes.TypeCSS,
		TargetSelector: selector,
		Changes:        changes,
		Status:         fixes.StatusPending,
	}
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestApplyFix_SingleFixRoundTrip(t *testing.T) {
	a, doc := newTestApplier(t)
	ctx := context.Background()
	f1 := cssFix("f1", ".btn", fixes.Change{Property: "color", Value: "red"})

	if !a.ApplyFix(ctx, f1) {
		t.Fatalf("ApplyFix(f1) = false, want true")
	}
	want := "/* Fix: f1 */\n.btn {\n  color: red !important;\n}"
	if squash(doc.Text()) != squash(want) {
		t.Fatalf("style text = %q, want %q", doc.Text(), want)
	}
	if f1.Status != fixes.StatusApplied {
		t.Fatalf("status = %q, want applied", f1.Status)
	}

	if !a.RollbackFix(ctx, "f1") {
		t.Fatalf("RollbackFix(f1) = false, want true")
	}
	if doc.Text() != "" {
		t.Fatalf("style text after rollback = %q, want empty", doc.Text())
	}
	if f1.Status != fixes.StatusRolledBack {
		t.Fatalf("status = %q, want rolled_back", f1.Status)
	}
	if a.Count() != 0 {
		t.Fatalf("Count = %d, want 0", a.Count())
	}
}

func TestApplyFix_EmitsDeclarationsInOrder(t *testing.T) {
	a, doc := newTestApplier(t)
	f := cssFix("f1", ".card",
		fixes.Change{Property: "margin", Value: "0"},
		fixes.Change{Property: "padding", Value: "8px"},
		fixes.Change{Property: "margin", Value: "4px"},
	)
	if !a.ApplyFix(context.Background(), f) {
		t.Fatalf("ApplyFix = false")
	}
	text := doc.Text()
	marker := strings.Index(text, "/* Fix: f1 */")
	sel := strings.Index(text, ".card")
	d1 := strings.Index(text, "margin: 0 !important;")
	d2 := strings.Index(text, "padding: 8px !important;")
	d3 := strings.Index(text, "margin: 4px !important;")
	if marker < 0 || !(marker < sel && sel < d1 && d1 < d2 && d2 < d3) {
		t.Fatalf("style text out of order:\n%s", text)
	}
}

func TestRollbackFix_LeavesOtherBlocksUnchanged(t *testing.T) {
	a, doc := newTestApplier(t)
	ctx := context.Background()
	f1 := cssFix("f1", ".btn", fixes.Change{Property: "color", Value: "red"})
	f2 := cssFix("f2", ".card", fixes.Change{Property: "margin", Value: "0"})

	a.ApplyFix(ctx, f1)
	a.ApplyFix(ctx, f2)
	f2Block := stylesheet.Block(f2)

	if !a.RollbackFix(ctx, "f1") {
		t.Fatalf("RollbackFix(f1) = false")
	}
	if doc.Text() != f2Block {
		t.Fatalf("style text = %q, want only f2 block %q", doc.Text(), f2Block)
	}
	if strings.Contains(doc.Text(), "f1") || strings.Contains(doc.Text(), ".btn") {
		t.Fatalf("f1 fragments left behind: %q", doc.Text())
	}
	applied := a.AppliedFixes()
	if len(applied) != 1 || applied[0].ID != "f2" {
		t.Fatalf("AppliedFixes = %v, want [f2]", applied)
	}
}

func TestRollbackFix_UnknownIDIsNoop(t *testing.T) {
	a, doc := newTestApplier(t)
	ctx := context.Background()
	a.ApplyFix(ctx, cssFix("f1", ".btn", fixes.Change{Property: "color", Value: "red"}))
	before := doc.Text()

	if a.RollbackFix(ctx, "missing") {
		t.Fatalf("RollbackFix(missing) = true, want false")
	}
	if doc.Text() != before {
		t.Fatalf("style text mutated by unknown rollback")
	}
}

func TestApplyFix_JavaScriptRejected(t *testing.T) {
	a, doc := newTestApplier(t)
	f := &fixes.Fix{ID: "js1", Type: fixes.TypeJavaScript, Status: fixes.StatusPending}
	if a.ApplyFix(context.Background(), f) {
		t.Fatalf("ApplyFix(javascript) = true, want false")
	}
	if a.Count() != 0 || doc.Exists() {
		t.Fatalf("javascript fix mutated state: count=%d node=%v", a.Count(), doc.Exists())
	}
	if f.Status != fixes.StatusPending {
		t.Fatalf("status = %q, want pending", f.Status)
	}
}

func TestApplyFix_UnknownTypeAndNil(t *testing.T) {
	a, _ := newTestApplier(t)
	if a.ApplyFix(context.Background(), &fixes.Fix{ID: "x", Type: "html"}) {
		t.Fatalf("ApplyFix(unknown type) = true")
	}
	if a.ApplyFix(context.Background(), nil) {
		t.Fatalf("ApplyFix(nil) = true")
	}
}

func TestApplyFix_CreatesStyleNodeOnce(t *testing.T) {
	a, doc := newTestApplier(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		a.ApplyFix(ctx, cssFix(id, "."+id, fixes.Change{Property: "color", Value: "red"}))
	}
	if doc.Inserts() != 1 {
		t.Fatalf("Inserts = %d, want 1", doc.Inserts())
	}
}

func TestApplyFix_ReapplyKeepsLastValues(t *testing.T) {
	a, doc := newTestApplier(t)
	ctx := context.Background()
	a.ApplyFix(ctx, cssFix("f1", ".btn", fixes.Change{Property: "color", Value: "red"}))
	a.ApplyFix(ctx, cssFix("f2", ".card", fixes.Change{Property: "margin", Value: "0"}))
	a.ApplyFix(ctx, cssFix("f1", ".btn", fixes.Change{Property: "color", Value: "blue"}))

	text := doc.Text()
	if strings.Contains(text, "color: red") {
		t.Fatalf("stale values left in force: %q", text)
	}
	if strings.Index(text, ".card") > strings.Index(text, "color: blue") {
		t.Fatalf("re-applied block should render last: %q", text)
	}
	if a.Count() != 2 {
		t.Fatalf("Count = %d, want 2", a.Count())
	}
	ids := a.AppliedFixes()
	if ids[0].ID != "f2" || ids[1].ID != "f1" {
		t.Fatalf("order = [%s %s], want [f2 f1]", ids[0].ID, ids[1].ID)
	}
}

func TestApplyFix_DetachedDocumentReturnsFalse(t *testing.T) {
	a, doc := newTestApplier(t)
	ctx := context.Background()
	f1 := cssFix("f1", ".btn", fixes.Change{Property: "color", Value: "red"})
	a.ApplyFix(ctx, f1)

	doc.Detach()
	f2 := cssFix("f2", ".card", fixes.Change{Property: "margin", Value: "0"})
	if a.ApplyFix(ctx, f2) {
		t.Fatalf("ApplyFix on detached document = true")
	}
	if a.IsApplied("f2") || f2.Status != fixes.StatusPending {
		t.Fatalf("failed apply left f2 registered (status %q)", f2.Status)
	}
	if a.RollbackFix(ctx, "f1") {
		t.Fatalf("RollbackFix on detached document = true")
	}
	if !a.IsApplied("f1") {
		t.Fatalf("failed rollback dropped f1 from registry")
	}

	doc.Attach()
	if !a.ApplyFix(ctx, f2) {
		t.Fatalf("ApplyFix after reattach = false")
	}
	if !strings.Contains(doc.Text(), "/* Fix: f1 */") || !strings.Contains(doc.Text(), "/* Fix: f2 */") {
		t.Fatalf("style text = %q, want f1 and f2", doc.Text())
	}
}

func TestClearAll(t *testing.T) {
	a, doc := newTestApplier(t)
	ctx := context.Background()
	a.ApplyFix(ctx, cssFix("f1", ".btn", fixes.Change{Property: "color", Value: "red"}))
	a.ApplyFix(ctx, cssFix("f2", ".card", fixes.Change{Property: "margin", Value: "0"}))

	a.ClearAll(ctx)
	if a.Count() != 0 || len(a.AppliedFixes()) != 0 {
		t.Fatalf("registry not empty after ClearAll")
	}
	if doc.Exists() {
		t.Fatalf("style node still present after ClearAll")
	}
	if a.Text() != "" {
		t.Fatalf("Text = %q, want empty", a.Text())
	}

	// A clear with no node and a detached document still empties the registry.
	a.ApplyFix(ctx, cssFix("f3", ".nav", fixes.Change{Property: "gap", Value: "0"}))
	doc.Detach()
	a.ClearAll(ctx)
	if a.Count() != 0 {
		t.Fatalf("Count = %d after ClearAll on detached doc, want 0", a.Count())
	}
}

func TestApplyFix_AdoptsExistingNodeAndScrubsStaleBlocks(t *testing.T) {
	a, doc := newTestApplier(t)
	ctx := context.Background()
	stale := stylesheet.Block(cssFix("old", ".legacy", fixes.Change{Property: "color", Value: "green"}))
	doc.Seed("body { margin: 0; }\n" + stale)

	a.ApplyFix(ctx, cssFix("f1", ".btn", fixes.Change{Property: "color", Value: "red"}))
	text := doc.Text()
	if strings.Contains(text, "old") || strings.Contains(text, ".legacy") {
		t.Fatalf("stale block kept: %q", text)
	}
	if !strings.HasPrefix(text, "body { margin: 0; }\n") {
		t.Fatalf("foreign text dropped: %q", text)
	}
	if doc.Inserts() != 0 {
		t.Fatalf("Inserts = %d, want 0 for adopted node", doc.Inserts())
	}
}

func TestPreview_DoesNotMutate(t *testing.T) {
	a, doc := newTestApplier(t)
	ctx := context.Background()
	a.ApplyFix(ctx, cssFix("f1", ".btn", fixes.Change{Property: "color", Value: "red"}))
	before := doc.Text()

	res, err := a.Preview(cssFix("f2", ".card", fixes.Change{Property: "margin", Value: "0"}))
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if res.AddedLines != 4 || res.RemovedLines != 0 {
		t.Fatalf("preview added/removed = %d/%d, want 4/0", res.AddedLines, res.RemovedLines)
	}
	if doc.Text() != before || a.IsApplied("f2") {
		t.Fatalf("Preview mutated state")
	}

	if _, err := a.Preview(&fixes.Fix{ID: "js", Type: fixes.TypeJavaScript}); err == nil {
		t.Fatalf("Preview(javascript) = nil error")
	}
}
