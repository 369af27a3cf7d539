package diff

import "fmt"

// Hunk is one region of change with its surrounding context. Starts are
// 1-based, as printed in the hunk header.
type Hunk struct {
	OrigStart int
	OrigLines int
	NewStart  int
	NewLines  int
	Header    string
	Lines     []string
}

// Result is the unified diff between two line sequences.
type Result struct {
	FromLabel string
	ToLabel   string
	Hunks     []Hunk
	// Lines is the rendered diff, file header included. Empty when the
	// inputs are identical.
	Lines []string
}

func (r Result) HasDiff() bool {
	return len(r.Hunks) > 0
}

// LineCount is the number of rendered diff lines.
func (r Result) LineCount() int {
	return len(r.Lines)
}

// Stat counts changed lines.
type Stat struct {
	Added   int
	Changed int
	Deleted int
}

func (s Stat) String() string {
	return fmt.Sprintf("+%d -%d", s.Added+s.Changed, s.Deleted+s.Changed)
}
