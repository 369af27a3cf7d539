package summary

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/launchdarkly/folder-diff-report/internal/util/diff_util"
	"github.com/launchdarkly/folder-diff-report/internal/utils"
)

type lineCounts struct {
	added   int
	deleted int
}

// Builder accumulates pair outcomes while a run progresses.
type Builder struct {
	runID     string
	started   time.Time
	identical map[string]struct{}
	differing map[string]*lineCounts
	failed    map[string]error
	onlyInA   []string
	onlyInB   []string
	reports   []string
	err       error // run-level failure
}

func NewBuilder(runID string, started time.Time) *Builder {
	return &Builder{
		runID:     runID,
		started:   started,
		identical: make(map[string]struct{}),
		differing: make(map[string]*lineCounts),
		failed:    make(map[string]error),
	}
}

// Unmatched records keys that were found under only one root.
func (b *Builder) Unmatched(onlyInA, onlyInB []string) {
	b.onlyInA = append(b.onlyInA, onlyInA...)
	b.onlyInB = append(b.onlyInB, onlyInB...)
}

func (b *Builder) AddIdentical(key string) {
	b.identical[key] = struct{}{}
}

// AddDifferent records a differing pair.
func (b *Builder) AddDifferent(key string) {
	if _, ok := b.differing[key]; !ok {
		b.differing[key] = &lineCounts{}
	}
}

// AddLine counts a rendered hunk line of a differing pair.
func (b *Builder) AddLine(key string, op diff_util.Operation) error {
	b.AddDifferent(key)
	switch op {
	case diff_util.OperationAdd:
		b.differing[key].added++
	case diff_util.OperationDelete:
		b.differing[key].deleted++
	case diff_util.OperationEqual:
	default:
		return fmt.Errorf("invalid operation=%d", op)
	}
	return nil
}

// AddFailure records a pair that could not be compared.
func (b *Builder) AddFailure(key string, err error) {
	b.failed[key] = err
}

func (b *Builder) AddReport(path string) {
	b.reports = append(b.reports, path)
}

// Fail records the error that ended the run early.
func (b *Builder) Fail(err error) {
	b.err = multierr.Append(b.err, err)
}

func (b *Builder) Compared() int {
	return len(b.identical) + len(b.differing) + len(b.failed)
}

func (b *Builder) Build(outcome Outcome, reason string, finished time.Time) Summary {
	s := Summary{
		RunID:         b.runID,
		Started:       b.started,
		Finished:      finished,
		Outcome:       outcome,
		Reason:        reason,
		Compared:      b.Compared(),
		Differing:     len(b.differing),
		Identical:     len(b.identical),
		Failed:        len(b.failed),
		DifferingKeys: sortedKeys(b.differing),
		FailedKeys:    sortedKeys(b.failed),
		OnlyInA:       sorted(b.onlyInA),
		OnlyInB:       sorted(b.onlyInB),
		Reports:       sorted(b.reports),
	}
	for _, c := range b.differing {
		s.LinesAdded += c.added
		s.LinesDeleted += c.deleted
	}

	err := b.err
	for _, key := range s.FailedKeys {
		err = multierr.Append(err, b.failed[key])
	}
	s.Err = err
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

func sorted(s []string) []string {
	out := utils.Dedupe(append([]string(nil), s...))
	slices.Sort(out)
	return out
}
