package files

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/launchdarkly/folder-diff-report/charset"
	lerrors "github.com/launchdarkly/folder-diff-report/errors"
	"github.com/launchdarkly/folder-diff-report/internal/logging"
)

const replacement = "\ufffd"

type Reader struct {
	fs       afero.Fs
	detector *charset.Detector
	log      *logging.Logger

	// Fallbacks are tried in order when the detected encoding fails.
	Fallbacks []string
}

func NewReader(fs afero.Fs, detector *charset.Detector, log *logging.Logger) *Reader {
	if log == nil {
		log = logging.Discard()
	}
	return &Reader{fs: fs, detector: detector, log: log, Fallbacks: charset.Fallbacks}
}

// ReadLines decodes the file at path and splits it into lines without their
// terminators. Under the best-effort policy decoding never fails; under the
// strict policy undetectable content is reported as an encoding error.
func (r *Reader) ReadLines(path string) (Lines, error) {
	raw, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return Lines{}, lerrors.NewPathError(lerrors.IOError, path, err)
	}

	det, err := r.detector.Detect(raw)
	if err != nil {
		return Lines{}, lerrors.NewPathError(lerrors.EncodingError, path, err)
	}
	r.log.Debug("%s: %s (%s, confidence %.2f)", path, det.Encoding, det.Strategy, det.Confidence)

	if r.detector.Policy == charset.Strict {
		return r.decodeStrict(path, raw, det)
	}
	return r.decodeBestEffort(path, raw, det), nil
}

func (r *Reader) decodeStrict(path string, raw []byte, det charset.Detection) (Lines, error) {
	text, err := charset.Replace(raw, det.Encoding)
	if err != nil {
		return Lines{}, lerrors.NewPathError(lerrors.EncodingError, path, err)
	}
	lossy := strings.Contains(text, replacement) && !bytes.Contains(raw, []byte(replacement))
	if lossy {
		r.log.Warning("%s: invalid %s sequences replaced", path, det.Encoding)
	}
	return Lines{Lines: SplitLines(text), Encoding: det.Encoding, Lossy: lossy}, nil
}

func (r *Reader) decodeBestEffort(path string, raw []byte, det charset.Detection) Lines {
	if text, err := charset.Decode(raw, det.Encoding); err == nil {
		if det.Encoding != charset.UTF8 {
			r.log.Log("Reading %s as %s", path, det.Encoding)
		}
		return Lines{Lines: SplitLines(text), Encoding: det.Encoding}
	}

	for _, name := range r.Fallbacks {
		if text, err := charset.Decode(raw, name); err == nil {
			r.log.Warning("Reading %s as %s (detected %s did not decode)", path, name, det.Encoding)
			return Lines{Lines: SplitLines(text), Encoding: name, Fallback: true}
		}
	}

	r.log.Warning("Reading %s as utf-8, dropping undecodable bytes", path)
	return Lines{Lines: SplitLines(charset.DropInvalidUTF8(raw)), Encoding: charset.UTF8, Fallback: true, Lossy: true}
}

// SplitLines splits on the same boundaries as Python's str.splitlines: \n,
// \r\n, \r, \v, \f, \x1c to \x1e, U+0085, U+2028 and U+2029. A trailing
// terminator does not produce an empty final line, and a leading byte order
// mark is dropped.
func SplitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	if text == "" {
		return []string{}
	}
	lines := make([]string, 0, strings.Count(text, "\n")+1)
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isLineBreak(r) {
			i += size
			continue
		}
		lines = append(lines, text[start:i])
		i += size
		if r == '\r' && i < len(text) && text[i] == '\n' {
			i++
		}
		start = i
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
