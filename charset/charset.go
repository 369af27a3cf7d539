// Package charset guesses and applies text encodings for files whose
// encoding is not declared anywhere. Detection is an ordered list of
// strategies; the first one that produces an answer wins.
package charset

import (
	"bytes"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/saintfish/chardet"

	lerrors "github.com/launchdarkly/folder-diff-report/errors"
)

type Policy string

const (
	// BestEffort never fails: unknown input decodes as UTF-8.
	BestEffort Policy = "best-effort"
	// Strict reports undetectable input so the caller can skip it.
	Strict Policy = "strict"
)

const DefaultThreshold = 0.7

// Candidates are tried in order when the statistical guess is not confident.
var Candidates = []string{UTF8, GB2312, GBK, GB18030}

// Fallbacks are tried in order when decoding with the detected encoding fails.
var Fallbacks = []string{UTF8, GB2312, GBK, GB18030, Latin1}

type Detection struct {
	Encoding   string
	Confidence float64
	Strategy   string
}

// Guess is a statistical encoding guess. Confidence is in [0, 100].
type Guess struct {
	Charset    string
	Confidence int
}

type GuessFunc func(raw []byte) (Guess, error)

type Detector struct {
	Threshold float64
	Policy    Policy
	// Guesser defaults to a chardet text detector.
	Guesser GuessFunc
}

func NewDetector(threshold float64, policy Policy) *Detector {
	return &Detector{Threshold: threshold, Policy: policy}
}

type probe struct {
	raw   []byte
	guess *Guess
}

type strategy struct {
	name   string
	detect func(p *probe) (Detection, bool)
}

func (d *Detector) strategies() []strategy {
	return []strategy{
		{"empty", detectEmpty},
		{"bom", detectBOM},
		{"utf-8", detectUTF8},
		{"statistical", d.detectStatistical},
		{"candidates", detectCandidates},
		{"guess", detectGuess},
	}
}

// Detect returns the encoding to decode raw with. It is a pure function of
// raw and the detector settings.
func (d *Detector) Detect(raw []byte) (Detection, error) {
	p := &probe{raw: raw}
	for _, s := range d.strategies() {
		if det, ok := s.detect(p); ok {
			det.Strategy = s.name
			return det, nil
		}
	}

	if d.Policy == Strict {
		return Detection{}, errors.Wrap(lerrors.EncodingError, "encoding could not be detected")
	}
	return Detection{Encoding: UTF8, Strategy: "default"}, nil
}

func (d *Detector) threshold() float64 {
	if d.Threshold <= 0 {
		return DefaultThreshold
	}
	return d.Threshold
}

func (d *Detector) guess(raw []byte) (Guess, error) {
	if d.Guesser != nil {
		return d.Guesser(raw)
	}
	return chardetGuess(raw)
}

func chardetGuess(raw []byte) (Guess, error) {
	res, err := chardet.NewTextDetector().DetectBest(raw)
	if err != nil {
		return Guess{}, err
	}
	return Guess{Charset: res.Charset, Confidence: res.Confidence}, nil
}

func detectEmpty(p *probe) (Detection, bool) {
	if len(p.raw) != 0 {
		return Detection{}, false
	}
	return Detection{Encoding: UTF8, Confidence: 1}, true
}

var boms = []struct {
	mark []byte
	name string
}{
	{[]byte{0xef, 0xbb, 0xbf}, UTF8},
	{[]byte{0xff, 0xfe}, UTF16LE},
	{[]byte{0xfe, 0xff}, UTF16BE},
}

func detectBOM(p *probe) (Detection, bool) {
	for _, b := range boms {
		if bytes.HasPrefix(p.raw, b.mark) {
			return Detection{Encoding: b.name, Confidence: 1}, true
		}
	}
	return Detection{}, false
}

// Valid UTF-8 with at least one multi-byte sequence is practically never
// anything else, and statistical detectors tend to confuse it with CJK
// double-byte encodings on short inputs.
func detectUTF8(p *probe) (Detection, bool) {
	if !utf8.Valid(p.raw) || isASCII(p.raw) {
		return Detection{}, false
	}
	return Detection{Encoding: UTF8, Confidence: 1}, true
}

func (d *Detector) detectStatistical(p *probe) (Detection, bool) {
	g, err := d.guess(p.raw)
	if err != nil {
		return Detection{}, false
	}
	p.guess = &g

	confidence := float64(g.Confidence) / 100
	if confidence < d.threshold() || !Known(g.Charset) {
		return Detection{}, false
	}
	return Detection{Encoding: Normalize(g.Charset), Confidence: confidence}, true
}

func detectCandidates(p *probe) (Detection, bool) {
	for _, name := range Candidates {
		if _, err := Decode(p.raw, name); err == nil {
			return Detection{Encoding: name, Confidence: p.confidence()}, true
		}
	}
	return Detection{}, false
}

func detectGuess(p *probe) (Detection, bool) {
	if p.guess == nil || p.guess.Charset == "" || !Known(p.guess.Charset) {
		return Detection{}, false
	}
	return Detection{Encoding: Normalize(p.guess.Charset), Confidence: p.confidence()}, true
}

func (p *probe) confidence() float64 {
	if p.guess == nil {
		return 0
	}
	return float64(p.guess.Confidence) / 100
}

func isASCII(raw []byte) bool {
	for _, c := range raw {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
