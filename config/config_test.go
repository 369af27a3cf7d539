package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/folder-diff-report/charset"
	"github.com/launchdarkly/folder-diff-report/files"
	"github.com/launchdarkly/folder-diff-report/report"
)

func abs(t *testing.T, p string) string {
	t.Helper()
	a, err := filepath.Abs(p)
	require.NoError(t, err)
	return a
}

func TestValidateInputandParse_Defaults(t *testing.T) {
	config, err := ValidateInputandParse([]string{"left", "right", "out"})
	require.NoError(t, err)

	assert.Equal(t, abs(t, "left"), config.FolderA)
	assert.Equal(t, abs(t, "right"), config.FolderB)
	assert.Equal(t, abs(t, "out"), config.Output)
	assert.Equal(t, ".txt", config.Extension)
	assert.Equal(t, files.MatchRelative, config.Match)
	assert.Equal(t, report.PerFile, config.Report)
	assert.Equal(t, charset.BestEffort, config.EncodingPolicy)
	assert.Equal(t, charset.DefaultThreshold, config.Confidence)
	assert.Equal(t, 3, config.Context)
	assert.Equal(t, ColorAuto, config.Color)
	assert.False(t, config.RespectIgnore)
	assert.False(t, config.Verbose)
	assert.Empty(t, config.Exclude)
}

func TestValidateInputandParse_Flags(t *testing.T) {
	config, err := ValidateInputandParse([]string{
		"--folder-a", "a",
		"--folder-b", "b",
		"--output", "o",
		"-e", "MD ",
		"--match", "FLAT",
		"--report", "aggregated",
		"--encoding-policy", "strict",
		"--confidence", "0.5",
		"--context", "0",
		"--respect-ignore",
		"--exclude", "vendor/**",
		"--exclude", "*.tmp.md,vendor/**",
		"--color", "never",
		"-v",
	})
	require.NoError(t, err)

	assert.Equal(t, ".MD", config.Extension)
	assert.Equal(t, files.MatchFlat, config.Match)
	assert.Equal(t, report.Aggregated, config.Report)
	assert.Equal(t, charset.Strict, config.EncodingPolicy)
	assert.Equal(t, 0.5, config.Confidence)
	assert.Equal(t, 0, config.Context)
	assert.True(t, config.RespectIgnore)
	assert.Equal(t, []string{"vendor/**", "*.tmp.md"}, config.Exclude)
	assert.Equal(t, ColorNever, config.Color)
	assert.True(t, config.Verbose)

	opts := config.MatchOptions()
	assert.Equal(t, []string{config.Output}, opts.Skip)
	assert.Equal(t, files.MatchFlat, opts.Mode)
}

func TestValidateInputandParse_Environment(t *testing.T) {
	t.Setenv("FOLDER_DIFF_FOLDER_A", "env-a")
	t.Setenv("INPUT_FOLDER-B", "input-b")
	t.Setenv("INPUT_OUTPUT", "input-out")
	t.Setenv("FOLDER_DIFF_EXTENSION", "md")
	t.Setenv("INPUT_EXTENSION", "ignored")
	t.Setenv("INPUT_EXCLUDE", "a/**, b/**")
	t.Setenv("INPUT_VERBOSE", "true")

	config, err := ValidateInputandParse(nil)
	require.NoError(t, err)
	assert.Equal(t, abs(t, "env-a"), config.FolderA)
	assert.Equal(t, abs(t, "input-b"), config.FolderB)
	assert.Equal(t, abs(t, "input-out"), config.Output)
	assert.Equal(t, ".md", config.Extension)
	assert.Equal(t, []string{"a/**", "b/**"}, config.Exclude)
	assert.True(t, config.Verbose)
}

func TestValidateInputandParse_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(file, []byte("folder-a: file-a\nfolder-b: file-b\noutput: file-out\nextension: csv\ncontext: 5\nreport: aggregated\n"), 0o644))
	t.Setenv("FOLDER_DIFF_EXTENSION", "log")

	config, err := ValidateInputandParse([]string{"--config", file, "--context", "1", "arg-a"})
	require.NoError(t, err)

	assert.Equal(t, abs(t, "arg-a"), config.FolderA, "argument beats config file")
	assert.Equal(t, abs(t, "file-b"), config.FolderB)
	assert.Equal(t, ".log", config.Extension, "environment beats config file")
	assert.Equal(t, 1, config.Context, "flag beats config file")
	assert.Equal(t, report.Aggregated, config.Report)
}

func TestValidateInputandParse_Errors(t *testing.T) {
	cases := []struct {
		name     string
		args     []string
		expected string
	}{
		{name: "missing folder a", args: []string{}, expected: "`folder-a` is required."},
		{name: "missing folder b", args: []string{"a"}, expected: "`folder-b` is required."},
		{name: "missing output", args: []string{"a", "b"}, expected: "`output` is required."},
		{name: "output is folder a", args: []string{"a", "b", "a"}, expected: "`output` must not be the same folder as `folder-a`."},
		{name: "output is folder b", args: []string{"a", "b", "./b/"}, expected: "`output` must not be the same folder as `folder-b`."},
		{name: "blank extension", args: []string{"a", "b", "o", "--extension", " . "}, expected: "`extension` is required."},
		{name: "bad match", args: []string{"a", "b", "o", "--match", "fuzzy"}, expected: "`match` must be one of relative, flat."},
		{name: "bad report", args: []string{"a", "b", "o", "--report", "html"}, expected: "`report` must be one of per-file, aggregated."},
		{name: "bad policy", args: []string{"a", "b", "o", "--encoding-policy", "lenient"}, expected: "`encoding-policy` must be one of best-effort, strict."},
		{name: "bad color", args: []string{"a", "b", "o", "--color", "sometimes"}, expected: "`color` must be one of auto, always, never."},
		{name: "confidence too high", args: []string{"a", "b", "o", "--confidence", "1.5"}, expected: "`confidence` must be between 0 and 1."},
		{name: "negative context", args: []string{"a", "b", "o", "--context", "-1"}, expected: "`context` must not be negative."},
		{name: "extra argument", args: []string{"a", "b", "o", "d"}, expected: `unexpected argument "d"`},
		{name: "flag and argument", args: []string{"--folder-a", "a", "b"}, expected: "`folder-a` given both as a flag and as an argument."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateInputandParse(tc.args)
			require.Error(t, err)
			assert.Equal(t, tc.expected, err.Error())
		})
	}
}

func TestValidateInputandParse_MissingConfigFile(t *testing.T) {
	_, err := ValidateInputandParse([]string{"a", "b", "o", "--config", filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestValidateInputandParse_Help(t *testing.T) {
	_, err := ValidateInputandParse([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestValidateInputandParse_Version(t *testing.T) {
	config, err := ValidateInputandParse([]string{"--version"})
	require.NoError(t, err)
	assert.True(t, config.ShowVersion)
}
