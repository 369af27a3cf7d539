package files

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/folder-diff-report/charset"
	lerrors "github.com/launchdarkly/folder-diff-report/errors"
	"github.com/launchdarkly/folder-diff-report/internal/logging"
)

func guesser(name string, confidence int) charset.GuessFunc {
	return func([]byte) (charset.Guess, error) {
		if name == "" {
			return charset.Guess{}, errors.New("not detected")
		}
		return charset.Guess{Charset: name, Confidence: confidence}, nil
	}
}

func newTestReader(t *testing.T, policy charset.Policy, guess charset.GuessFunc, files map[string][]byte) (*Reader, *logging.Recorder) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, content, 0o644))
	}
	rec := &logging.Recorder{}
	d := &charset.Detector{Threshold: charset.DefaultThreshold, Policy: policy, Guesser: guess}
	return NewReader(fs, d, logging.New(true, rec)), rec
}

func TestSplitLines(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		expected []string
	}{
		{name: "empty", text: "", expected: []string{}},
		{name: "no terminator", text: "a", expected: []string{"a"}},
		{name: "trailing newline", text: "foo\nbar\n", expected: []string{"foo", "bar"}},
		{name: "crlf", text: "foo\r\nbar\r\n", expected: []string{"foo", "bar"}},
		{name: "bare cr", text: "a\rb\nc", expected: []string{"a", "b", "c"}},
		{name: "blank lines kept", text: "a\n\nb\n", expected: []string{"a", "", "b"}},
		{name: "bom dropped", text: "\ufeffhello\n", expected: []string{"hello"}},
		{name: "trailing whitespace kept", text: "a  \nb\t\n", expected: []string{"a  ", "b\t"}},
		{name: "cr before crlf", text: "a\r\r\nb", expected: []string{"a", "", "b"}},
		{name: "vertical tab and form feed", text: "a\vb\fc", expected: []string{"a", "b", "c"}},
		{name: "ascii separators", text: "a\x1cb\x1dc\x1ed\x1e", expected: []string{"a", "b", "c", "d"}},
		{name: "next line", text: "a\u0085b", expected: []string{"a", "b"}},
		{name: "unicode separators", text: "中\u2028文\u2029\n", expected: []string{"中", "文", ""}},
		{name: "tab is not a break", text: "a\tb\x1fc", expected: []string{"a\tb\x1fc"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SplitLines(tc.text))
		})
	}
}

func TestReader_UTF8(t *testing.T) {
	r, _ := newTestReader(t, charset.BestEffort, guesser("", 0), map[string][]byte{
		"/a.txt": []byte("foo\r\n中文\r\n"),
	})

	lines, err := r.ReadLines("/a.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "中文"}, lines.Lines)
	assert.Equal(t, charset.UTF8, lines.Encoding)
	assert.False(t, lines.Fallback)
	assert.False(t, lines.Lossy)
}

func TestReader_GB2312(t *testing.T) {
	r, rec := newTestReader(t, charset.BestEffort, guesser("ISO-8859-1", 30), map[string][]byte{
		"/gb.txt": {0xd6, 0xd0, 0xce, 0xc4, '\n', 'o', 'k', '\n'},
	})

	lines, err := r.ReadLines("/gb.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"中文", "ok"}, lines.Lines)
	assert.Equal(t, charset.GB2312, lines.Encoding)
	assert.Contains(t, rec.Messages(logging.LevelInfo), "Reading /gb.txt as gb2312")
}

func TestReader_Fallback(t *testing.T) {
	r, rec := newTestReader(t, charset.BestEffort, guesser("GB2312", 95), map[string][]byte{
		"/gbk.txt": {0x81, 0x40, '\n'},
	})

	lines, err := r.ReadLines("/gbk.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"丂"}, lines.Lines)
	assert.Equal(t, charset.GBK, lines.Encoding)
	assert.True(t, lines.Fallback)
	assert.Len(t, rec.Messages(logging.LevelWarning), 1)
}

func TestReader_Latin1LastFallback(t *testing.T) {
	r, _ := newTestReader(t, charset.BestEffort, guesser("", 0), map[string][]byte{
		"/bin.txt": {0xff, 0xff, 0x80},
	})

	first, err := r.ReadLines("/bin.txt")
	require.NoError(t, err)
	second, err := r.ReadLines("/bin.txt")
	require.NoError(t, err)

	assert.Equal(t, charset.Latin1, first.Encoding)
	assert.Equal(t, first, second)
}

func TestReader_LossyLastResort(t *testing.T) {
	r, rec := newTestReader(t, charset.BestEffort, guesser("", 0), map[string][]byte{
		"/bin.txt": []byte("ok\xff\n"),
	})
	r.Fallbacks = []string{charset.UTF8}

	lines, err := r.ReadLines("/bin.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, lines.Lines)
	assert.True(t, lines.Lossy)
	assert.Contains(t, rec.Messages(logging.LevelWarning), "Reading /bin.txt as utf-8, dropping undecodable bytes")
}

func TestReader_Strict(t *testing.T) {
	t.Run("undetectable", func(t *testing.T) {
		r, _ := newTestReader(t, charset.Strict, guesser("", 0), map[string][]byte{
			"/bin.txt": {0xff, 0xff, 0x80},
		})

		_, err := r.ReadLines("/bin.txt")
		require.Error(t, err)
		assert.True(t, lerrors.Is(err, lerrors.EncodingError))

		_, again := r.ReadLines("/bin.txt")
		assert.Equal(t, err.Error(), again.Error())
	})

	t.Run("replaces invalid sequences", func(t *testing.T) {
		r, rec := newTestReader(t, charset.Strict, guesser("GBK", 95), map[string][]byte{
			"/gbk.txt": {'a', 0xff, '\n'},
		})

		lines, err := r.ReadLines("/gbk.txt")
		require.NoError(t, err)
		assert.Equal(t, []string{"a\ufffd"}, lines.Lines)
		assert.True(t, lines.Lossy)
		assert.Len(t, rec.Messages(logging.LevelWarning), 1)
	})
}

func TestReader_MissingFile(t *testing.T) {
	r, _ := newTestReader(t, charset.BestEffort, guesser("", 0), nil)

	_, err := r.ReadLines("/nope.txt")
	require.Error(t, err)
	assert.True(t, lerrors.Is(err, lerrors.IOError))
	assert.False(t, lerrors.Is(err, lerrors.EncodingError))
}
