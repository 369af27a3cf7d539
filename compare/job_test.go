package compare

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/folder-diff-report/charset"
	"github.com/launchdarkly/folder-diff-report/internal/logging"
	"github.com/launchdarkly/folder-diff-report/internal/summary"
)

func drain(j *Job) []Event {
	var events []Event
	for e := range j.Events() {
		events = append(events, e)
	}
	return events
}

func TestJob_EventsAreOrdered(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, map[string]string{
		"/a/1.txt": fooBar, "/b/1.txt": fooBaz,
		"/a/2.txt": noDifference, "/b/2.txt": noDifference,
	})
	opts, rec := testOptions(fs, charset.BestEffort)

	j := Start(context.Background(), testConfig(), opts)
	events := drain(j)
	s := j.Wait()

	assert.Equal(t, summary.Completed, s.Outcome)
	assert.Equal(t, 2, s.Compared)
	assert.False(t, j.Cancelled())

	var logged []string
	var progress []Progress
	for _, e := range events {
		switch e.Kind {
		case EventLog:
			logged = append(logged, e.Entry.Message)
		case EventProgress:
			progress = append(progress, e.Progress)
		}
	}
	assert.Equal(t, rec.Messages(logging.LevelDebug), logged)
	assert.Equal(t, []Progress{{1, 2, "1.txt"}, {2, 2, "2.txt"}}, progress)
	assert.Equal(t, []string{
		"Compared 2 files: 1 differing, 1 identical, 0 failed",
		"Reports written to /out",
	}, logged[len(logged)-2:])

	// progress for a pair arrives before that pair's log lines
	var firstProgress, firstPairLine int
	for i, e := range events {
		if e.Kind == EventProgress && firstProgress == 0 {
			firstProgress = i
		}
		if e.Kind == EventLog && e.Entry.Message == "1.txt: 6 diff lines (+1 -1)" {
			firstPairLine = i
		}
	}
	assert.Less(t, firstProgress, firstPairLine)
}

func TestJob_ConfigIsCopied(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, map[string]string{"/a/1.txt": fooBar, "/b/1.txt": fooBaz})
	opts, _ := testOptions(fs, charset.BestEffort)
	cfg := testConfig()

	release := make(chan struct{})
	opts.Progress = func(Progress) { <-release }
	j := Start(context.Background(), cfg, opts)
	cfg.Output = "/elsewhere"
	close(release)
	drain(j)

	s := j.Wait()
	assert.Equal(t, []string{"/out/1-diff.md"}, s.Reports)
}

func TestJob_Cancel(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, map[string]string{
		"/a/1.txt": fooBar, "/b/1.txt": fooBaz,
		"/a/2.txt": fooBar, "/b/2.txt": fooBaz,
	})
	opts, _ := testOptions(fs, charset.BestEffort)

	started := make(chan struct{})
	release := make(chan struct{})
	opts.Progress = func(p Progress) {
		if p.Current == 1 {
			close(started)
			<-release
		}
	}

	j := Start(context.Background(), testConfig(), opts)
	<-started
	j.Cancel()
	j.Cancel()
	close(release)
	drain(j)

	s := j.Wait()
	assert.True(t, j.Cancelled())
	assert.Equal(t, summary.Cancelled, s.Outcome)
	assert.Equal(t, 1, s.Compared)
}

func TestJob_ParentContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, map[string]string{"/a/1.txt": fooBar, "/b/1.txt": fooBaz})
	opts, _ := testOptions(fs, charset.BestEffort)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	j := Start(ctx, testConfig(), opts)
	drain(j)
	assert.Equal(t, summary.Cancelled, j.Wait().Outcome)
	assert.False(t, j.Cancelled())
}

func TestJob_Panic(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, map[string]string{"/a/1.txt": fooBar, "/b/1.txt": fooBaz})
	opts, _ := testOptions(fs, charset.BestEffort)
	opts.Progress = func(Progress) { panic("boom") }

	j := Start(context.Background(), testConfig(), opts)
	drain(j)

	s := j.Wait()
	assert.Equal(t, summary.Aborted, s.Outcome)
	require.Error(t, s.Err)
	assert.Contains(t, s.Err.Error(), "comparison panicked")
	assert.Contains(t, s.Err.Error(), "boom")
}
