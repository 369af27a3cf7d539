package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"

	"github.com/launchdarkly/folder-diff-report/charset"
	"github.com/launchdarkly/folder-diff-report/files"
	"github.com/launchdarkly/folder-diff-report/internal/utils"
	"github.com/launchdarkly/folder-diff-report/report"
)

const (
	keyFolderA        = "folder-a"
	keyFolderB        = "folder-b"
	keyOutput         = "output"
	keyExtension      = "extension"
	keyMatch          = "match"
	keyReport         = "report"
	keyEncodingPolicy = "encoding-policy"
	keyConfidence     = "confidence"
	keyContext        = "context"
	keyRespectIgnore  = "respect-ignore"
	keyExclude        = "exclude"
	keyColor          = "color"
	keyVerbose        = "verbose"
	keyConfig         = "config"
	keyVersion        = "version"
)

// positional arguments fill these keys in order when their flags are unset
var positional = []string{keyFolderA, keyFolderB, keyOutput}

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

type Config struct {
	FolderA string
	FolderB string
	Output  string

	Extension      string
	Match          files.MatchMode
	Report         report.Mode
	EncodingPolicy charset.Policy
	Confidence     float64
	Context        int

	RespectIgnore bool
	Exclude       []string

	Color       ColorMode
	Verbose     bool
	ShowVersion bool
}

// MatchOptions returns the matcher settings for one root. The output folder
// is always skipped.
func (c *Config) MatchOptions() files.MatchOptions {
	return files.MatchOptions{
		Extension:     c.Extension,
		Mode:          c.Match,
		RespectIgnore: c.RespectIgnore,
		Exclude:       c.Exclude,
		Skip:          []string{c.Output},
	}
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("folder-diff-report", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.String(keyFolderA, "", "First folder to compare")
	fs.String(keyFolderB, "", "Second folder to compare")
	fs.String(keyOutput, "", "Folder receiving the Markdown reports")
	fs.StringP(keyExtension, "e", ".txt", "Only compare files with this extension")
	fs.String(keyMatch, string(files.MatchRelative), "How files are paired: relative | flat")
	fs.String(keyReport, string(report.PerFile), "Report layout: per-file | aggregated")
	fs.String(keyEncodingPolicy, string(charset.BestEffort), "Undecodable files: best-effort | strict")
	fs.Float64(keyConfidence, charset.DefaultThreshold, "Minimum detector confidence, between 0 and 1")
	fs.Int(keyContext, 3, "Unchanged lines shown around each change")
	fs.Bool(keyRespectIgnore, false, "Honor .gitignore, .ignore and .folderdiffignore files")
	fs.StringSlice(keyExclude, nil, "Glob of relative paths to leave out (repeatable)")
	fs.String(keyColor, string(ColorAuto), "Colored log output: auto | always | never")
	fs.BoolP(keyVerbose, "v", false, "Log debug lines")
	fs.String(keyConfig, "", "Read settings from this file")
	fs.Bool(keyVersion, false, "Print the version and exit")
	return fs
}

// envNames lists the variables consulted for key, first match wins.
func envNames(key string) []string {
	underscored := strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
	names := []string{"FOLDER_DIFF_" + underscored, "INPUT_" + underscored}
	if strings.Contains(key, "-") {
		names = append(names, "INPUT_"+strings.ToUpper(key))
	}
	return names
}

// ValidateInputandParse reads settings from args, the environment and an
// optional config file, in that order of precedence. It returns
// pflag.ErrHelp when help was requested.
func ValidateInputandParse(args []string) (*Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.Wrap(err, "bind flags")
	}
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if bindErr == nil {
			bindErr = v.BindEnv(append([]string{f.Name}, envNames(f.Name)...)...)
		}
	})
	if bindErr != nil {
		return nil, errors.Wrap(bindErr, "bind environment")
	}

	rest := fs.Args()
	if len(rest) > len(positional) {
		return nil, fmt.Errorf("unexpected argument %q", rest[len(positional)])
	}
	for i, arg := range rest {
		if fs.Changed(positional[i]) {
			return nil, fmt.Errorf("`%s` given both as a flag and as an argument.", positional[i])
		}
		v.Set(positional[i], arg)
	}

	if path := v.GetString(keyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	config := Config{ShowVersion: v.GetBool(keyVersion)}
	if config.ShowVersion {
		return &config, nil
	}

	var err error
	if config.FolderA, err = requiredPath(v, keyFolderA); err != nil {
		return nil, err
	}
	if config.FolderB, err = requiredPath(v, keyFolderB); err != nil {
		return nil, err
	}
	if config.Output, err = requiredPath(v, keyOutput); err != nil {
		return nil, err
	}
	for _, root := range []struct{ key, path string }{{keyFolderA, config.FolderA}, {keyFolderB, config.FolderB}} {
		if config.Output == root.path {
			return nil, fmt.Errorf("`%s` must not be the same folder as `%s`.", keyOutput, root.key)
		}
	}

	config.Extension = files.NormalizeExtension(v.GetString(keyExtension))
	if config.Extension == "" {
		return nil, errors.New("`extension` is required.")
	}

	match, err := oneOf(v, keyMatch, files.MatchRelative, files.MatchFlat)
	if err != nil {
		return nil, err
	}
	config.Match = match

	mode, err := oneOf(v, keyReport, report.PerFile, report.Aggregated)
	if err != nil {
		return nil, err
	}
	config.Report = mode

	policy, err := oneOf(v, keyEncodingPolicy, charset.BestEffort, charset.Strict)
	if err != nil {
		return nil, err
	}
	config.EncodingPolicy = policy

	color, err := oneOf(v, keyColor, ColorAuto, ColorAlways, ColorNever)
	if err != nil {
		return nil, err
	}
	config.Color = color

	config.Confidence = v.GetFloat64(keyConfidence)
	if config.Confidence < 0 || config.Confidence > 1 {
		return nil, errors.New("`confidence` must be between 0 and 1.")
	}
	config.Context = v.GetInt(keyContext)
	if config.Context < 0 {
		return nil, errors.New("`context` must not be negative.")
	}

	config.RespectIgnore = v.GetBool(keyRespectIgnore)
	config.Exclude = splitList(v.GetStringSlice(keyExclude))
	config.Verbose = v.GetBool(keyVerbose)

	return &config, nil
}

func requiredPath(v *viper.Viper, key string) (string, error) {
	p := strings.TrimSpace(v.GetString(key))
	if p == "" {
		return "", fmt.Errorf("`%s` is required.", key)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", key)
	}
	return abs, nil
}

func oneOf[T ~string](v *viper.Viper, key string, allowed ...T) (T, error) {
	val := T(strings.ToLower(strings.TrimSpace(v.GetString(key))))
	if slices.Contains(allowed, val) {
		return val, nil
	}
	names := make([]string, 0, len(allowed))
	for _, a := range allowed {
		names = append(names, string(a))
	}
	return "", fmt.Errorf("`%s` must be one of %s.", key, strings.Join(names, ", "))
}

// splitList accepts repeated values as well as comma separated ones, which is
// how list inputs arrive from the environment.
func splitList(values []string) []string {
	var out []string
	for _, val := range values {
		out = append(out, strings.Split(val, ",")...)
	}
	return utils.Dedupe(utils.TrimAll(out))
}
