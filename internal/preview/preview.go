// Package preview renders the effect of a candidate fix on the shared style
// sheet as a unified diff.
package preview

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Result is the diff between the current and the candidate sheet text.
type Result struct {
	FixID        string `json:"fix_id"`
	Diff         string `json:"diff"`
	AddedLines   int    `json:"added_lines"`
	RemovedLines int    `json:"removed_lines"`
	LineCount    int    `json:"line_count"`
}

// Unchanged reports whether the candidate text equals the current one.
func (r Result) Unchanged() bool {
	return r.AddedLines == 0 && r.RemovedLines == 0
}

// Diff compares before and after line by line.
func Diff(fixID, before, after string) Result {
	res := Result{FixID: fixID, LineCount: countLines(after)}
	if before == after {
		return res
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	for _, d := range diffs {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			res.AddedLines += n
		case diffmatchpatch.DiffDelete:
			res.RemovedLines += n
		}
	}

	patches := dmp.PatchMake(before, diffs)
	res.Diff = dmp.PatchToText(patches)
	return res
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
