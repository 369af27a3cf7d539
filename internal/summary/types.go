package summary

import "time"

type Outcome string

const (
	Completed        Outcome = "completed"
	NothingToCompare Outcome = "nothing-to-compare"
	Aborted          Outcome = "aborted"
	Cancelled        Outcome = "cancelled"
)

// Summary describes a finished comparison run.
type Summary struct {
	RunID    string
	Started  time.Time
	Finished time.Time

	Outcome Outcome
	// Reason explains an aborted or empty run.
	Reason string

	// Compared counts every matched pair that was attempted, Failed included.
	Compared  int
	Differing int
	Identical int
	Failed    int

	LinesAdded   int
	LinesDeleted int

	DifferingKeys []string
	FailedKeys    []string
	OnlyInA       []string
	OnlyInB       []string
	// Reports lists artifacts written during the run.
	Reports []string

	// Err combines the error that aborted the run with every per-pair failure.
	Err error
}

func (s Summary) AnyDifferences() bool {
	return s.Differing > 0
}

// Succeeded reports whether the run went through every matched pair.
func (s Summary) Succeeded() bool {
	return s.Outcome == Completed || s.Outcome == NothingToCompare
}

func (s Summary) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}
