package github_actions

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/launchdarkly/folder-diff-report/internal/logging"
)

// Running reports whether the process is a GitHub Actions step.
func Running() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// SetOutput appends name=value to the step output file. It is a no-op
// outside of GitHub Actions.
func SetOutput(name, value string) error {
	output := os.Getenv("GITHUB_OUTPUT")
	if output == "" {
		return nil
	}

	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "open %s", output)
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s=%s\n", name, value)
	return err
}

// Sink renders log entries as workflow commands so warnings and errors are
// annotated on the run.
type Sink struct {
	w io.Writer
}

func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

func (s *Sink) Emit(e logging.Entry) {
	msg := escapeData(e.Message)
	switch e.Level {
	case logging.LevelDebug:
		fmt.Fprintf(s.w, "::debug::%s\n", msg)
	case logging.LevelWarning:
		fmt.Fprintf(s.w, "::warning::%s\n", msg)
	case logging.LevelError:
		fmt.Fprintf(s.w, "::error::%s\n", msg)
	default:
		fmt.Fprintln(s.w, e.Message)
	}
}

func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}
