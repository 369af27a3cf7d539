package compare

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sourcegraph/conc"
	"go.uber.org/atomic"

	"github.com/launchdarkly/folder-diff-report/config"
	"github.com/launchdarkly/folder-diff-report/internal/logging"
	"github.com/launchdarkly/folder-diff-report/internal/summary"
)

type EventKind int

const (
	EventLog EventKind = iota
	EventProgress
)

// Event is a log line or a progress update from a running job.
type Event struct {
	Kind     EventKind
	Entry    logging.Entry
	Progress Progress
}

const eventBuffer = 64

// Job is a comparison running on its own goroutine.
type Job struct {
	wg        conc.WaitGroup
	events    chan Event
	done      chan struct{}
	cancel    context.CancelFunc
	cancelled *atomic.Bool
	summary   summary.Summary
}

// Start launches Run in the background. Events must be drained until it is
// closed or the job stalls once the buffer fills.
func Start(ctx context.Context, cfg *config.Config, opts Options) *Job {
	ctx, cancel := context.WithCancel(ctx)
	j := &Job{
		events:    make(chan Event, eventBuffer),
		done:      make(chan struct{}),
		cancel:    cancel,
		cancelled: atomic.NewBool(false),
	}

	// the worker gets its own copy of the settings
	own := *cfg
	own.Exclude = append([]string(nil), cfg.Exclude...)

	base := opts.Log
	if base == nil {
		base = logging.New(own.Verbose)
	}
	opts.Log = base.With(logging.SinkFunc(func(e logging.Entry) {
		j.events <- Event{Kind: EventLog, Entry: e}
	}))
	progress := opts.Progress
	opts.Progress = func(p Progress) {
		if progress != nil {
			progress(p)
		}
		j.events <- Event{Kind: EventProgress, Progress: p}
	}

	j.wg.Go(func() {
		defer close(j.events)
		j.summary = Run(ctx, &own, opts)
	})
	go func() {
		defer close(j.done)
		defer cancel()
		if r := j.wg.WaitAndRecover(); r != nil {
			j.summary = summary.Summary{
				Outcome: summary.Aborted,
				Reason:  "internal error",
				Err:     errors.Wrap(r.AsError(), "comparison panicked"),
			}
		}
	}()
	return j
}

// Events delivers log lines and progress updates in the order they happened.
// It is closed when the run ends.
func (j *Job) Events() <-chan Event {
	return j.events
}

// Wait blocks until the run has ended and returns its summary.
func (j *Job) Wait() summary.Summary {
	<-j.done
	return j.summary
}

// Cancel asks the run to stop before the next pair. Calling it more than once
// has no further effect.
func (j *Job) Cancel() {
	if !j.cancelled.Swap(true) {
		j.cancel()
	}
}

func (j *Job) Cancelled() bool {
	return j.cancelled.Load()
}
