package diff

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	godiff "github.com/sourcegraph/go-diff/diff"

	"github.com/launchdarkly/folder-diff-report/internal/util/diff_util"
)

const DefaultContext = 3

type Options struct {
	// FromLabel and ToLabel name the two sides in the "---" and "+++" lines.
	// Both empty omits those lines.
	FromLabel string
	ToLabel   string
	// Context is the number of unchanged lines kept around each change.
	// Zero keeps none, so the zero Options value gives bare changes.
	// Negative means DefaultContext.
	Context int
}

// Generate computes the unified diff between a and b. Alignment comes from
// difflib's SequenceMatcher, so hunks match what Python's difflib and most
// diff viewers produce for the same input.
func Generate(a, b []string, opts Options) Result {
	context := opts.Context
	if context < 0 {
		context = DefaultContext
	}

	result := Result{FromLabel: opts.FromLabel, ToLabel: opts.ToLabel}
	matcher := difflib.NewMatcher(a, b)
	for _, group := range matcher.GetGroupedOpCodes(context) {
		if onlyEqual(group) {
			continue
		}
		result.Hunks = append(result.Hunks, buildHunk(a, b, group))
	}
	if !result.HasDiff() {
		return result
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        terminated(a),
		B:        terminated(b),
		FromFile: opts.FromLabel,
		ToFile:   opts.ToLabel,
		Context:  context,
	})
	if err != nil {
		// Unreachable with a bytes.Buffer behind the writer.
		result.Lines = assemble(result.Hunks, opts)
		return result
	}
	result.Lines = strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	return result
}

// terminated appends the line feed difflib's writer expects on every input
// line.
func terminated(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line + "\n"
	}
	return out
}

func assemble(hunks []Hunk, opts Options) []string {
	var lines []string
	if opts.FromLabel != "" || opts.ToLabel != "" {
		lines = append(lines, "--- "+opts.FromLabel, "+++ "+opts.ToLabel)
	}
	for _, h := range hunks {
		lines = append(lines, h.Header)
		lines = append(lines, h.Lines...)
	}
	return lines
}

func onlyEqual(group []difflib.OpCode) bool {
	for _, op := range group {
		if op.Tag != 'e' {
			return false
		}
	}
	return true
}

func buildHunk(a, b []string, group []difflib.OpCode) Hunk {
	first, last := group[0], group[len(group)-1]
	h := Hunk{
		OrigStart: rangeStart(first.I1, last.I2),
		OrigLines: last.I2 - first.I1,
		NewStart:  rangeStart(first.J1, last.J2),
		NewLines:  last.J2 - first.J1,
	}
	h.Header = fmt.Sprintf("@@ -%s +%s @@", formatRange(first.I1, last.I2), formatRange(first.J1, last.J2))

	for _, op := range group {
		if op.Tag == 'e' {
			for _, line := range a[op.I1:op.I2] {
				h.Lines = append(h.Lines, diff_util.OperationEqual.Prefix()+line)
			}
			continue
		}
		if op.Tag == 'r' || op.Tag == 'd' {
			for _, line := range a[op.I1:op.I2] {
				h.Lines = append(h.Lines, diff_util.OperationDelete.Prefix()+line)
			}
		}
		if op.Tag == 'r' || op.Tag == 'i' {
			for _, line := range b[op.J1:op.J2] {
				h.Lines = append(h.Lines, diff_util.OperationAdd.Prefix()+line)
			}
		}
	}
	return h
}

// formatRange renders a half-open range [start, stop) like difflib's hunk
// headers: a lone line is just its number, an empty range points at the line
// before it. Hunk.Header needs it since difflib only exposes the whole text.
func formatRange(start, stop int) string {
	beginning := rangeStart(start, stop)
	length := stop - start
	if length == 1 {
		return strconv.Itoa(beginning)
	}
	return strconv.Itoa(beginning) + "," + strconv.Itoa(length)
}

func rangeStart(start, stop int) int {
	if stop == start {
		return start
	}
	return start + 1
}

// String renders the diff with newline terminators.
func (r Result) String() string {
	if len(r.Lines) == 0 {
		return ""
	}
	return strings.Join(r.Lines, "\n") + "\n"
}

// Stat parses the rendered diff back and counts added, changed and deleted
// lines.
func (r Result) Stat() (Stat, error) {
	if !r.HasDiff() {
		return Stat{}, nil
	}
	fd, err := godiff.ParseFileDiff([]byte(r.String()))
	if err != nil {
		return Stat{}, errors.Wrap(err, "parse rendered diff")
	}
	st := fd.Stat()
	return Stat{Added: int(st.Added), Changed: int(st.Changed), Deleted: int(st.Deleted)}, nil
}

// Counts tallies the +/- lines of the rendered hunks.
func (r Result) Counts() (added, deleted int) {
	for _, h := range r.Hunks {
		for _, line := range h.Lines {
			switch diff_util.LineOperation(line) {
			case diff_util.OperationAdd:
				added++
			case diff_util.OperationDelete:
				deleted++
			}
		}
	}
	return added, deleted
}
