package errors

import "github.com/pkg/errors"

var (
	MissingSourceError = errors.New("source folder does not exist")
	EncodingError      = errors.New("no usable text encoding")
	IOError            = errors.New("file could not be read or written")
)

// Is reports whether err, or the error it wraps, is target.
func Is(err, target error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, target) || errors.Cause(err) == target
}

// PathError ties a failure kind to the file it happened on.
type PathError struct {
	Kind error
	Path string
	Err  error
}

func NewPathError(kind error, path string, err error) *PathError {
	return &PathError{Kind: kind, Path: path, Err: err}
}

func (e *PathError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error { return e.Err }

func (e *PathError) Is(target error) bool { return target == e.Kind }
