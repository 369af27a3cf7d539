package report

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	lerrors "github.com/launchdarkly/folder-diff-report/errors"
)

// Writer places artifacts in a single output directory.
type Writer struct {
	fs  afero.Fs
	dir string
}

func NewWriter(fs afero.Fs, dir string) *Writer {
	return &Writer{fs: fs, dir: dir}
}

func (w *Writer) Dir() string {
	return w.dir
}

// Path is where the artifact called name lives.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Write replaces the artifact called name with body and returns its path.
// The body is written to a sibling file first so a failed write never
// leaves a truncated report behind.
func (w *Writer) Write(name, body string) (string, error) {
	dest := w.Path(name)
	tmp := dest + ".tmp"
	if err := afero.WriteFile(w.fs, tmp, []byte(body), 0o644); err != nil {
		_ = w.fs.Remove(tmp)
		return "", lerrors.NewPathError(lerrors.IOError, dest, errors.Wrap(err, "write report"))
	}
	if err := w.fs.Rename(tmp, dest); err != nil {
		_ = w.fs.Remove(tmp)
		return "", lerrors.NewPathError(lerrors.IOError, dest, errors.Wrap(err, "write report"))
	}
	return dest, nil
}

// Remove deletes a stale artifact. It reports whether one existed.
func (w *Writer) Remove(name string) (bool, error) {
	dest := w.Path(name)
	err := w.fs.Remove(dest)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, lerrors.NewPathError(lerrors.IOError, dest, errors.Wrap(err, "remove stale report"))
}
