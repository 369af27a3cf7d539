// Package compare runs a folder comparison: it pairs the files of two roots,
// diffs every pair in key order and writes the Markdown reports.
package compare

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/launchdarkly/folder-diff-report/charset"
	"github.com/launchdarkly/folder-diff-report/config"
	"github.com/launchdarkly/folder-diff-report/diff"
	lerrors "github.com/launchdarkly/folder-diff-report/errors"
	"github.com/launchdarkly/folder-diff-report/files"
	"github.com/launchdarkly/folder-diff-report/internal/logging"
	"github.com/launchdarkly/folder-diff-report/internal/summary"
	"github.com/launchdarkly/folder-diff-report/internal/util/diff_util"
	"github.com/launchdarkly/folder-diff-report/report"
)

// Progress is reported before each matched pair is compared.
type Progress struct {
	Current int
	Total   int
	Key     string
}

type Options struct {
	Fs       afero.Fs
	Log      *logging.Logger
	Now      func() time.Time
	Progress func(Progress)
	// Detector replaces the one built from the config.
	Detector *charset.Detector
	RunID    string
}

func (o Options) withDefaults(cfg *config.Config) Options {
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Log == nil {
		o.Log = logging.New(cfg.Verbose)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Progress == nil {
		o.Progress = func(Progress) {}
	}
	if o.Detector == nil {
		o.Detector = charset.NewDetector(cfg.Confidence, cfg.EncodingPolicy)
	}
	if o.RunID == "" {
		o.RunID = uuid.NewString()
	}
	return o
}

type run struct {
	cfg     *config.Config
	opts    Options
	log     *logging.Logger
	reader  *files.Reader
	writer  *report.Writer
	builder *summary.Builder
	names   map[string]string
	// written holds the artifact names produced by this run
	written map[string]struct{}
	agg     *report.Aggregate
}

// Run compares cfg.FolderA with cfg.FolderB. Failures on a single pair are
// logged and recorded; only unusable roots or output folders abort the run.
// ctx is checked before every pair.
func Run(ctx context.Context, cfg *config.Config, opts Options) summary.Summary {
	opts = opts.withDefaults(cfg)
	log := opts.Log
	b := summary.NewBuilder(opts.RunID, opts.Now())

	abort := func(err error) summary.Summary {
		log.LogError(err)
		b.Fail(err)
		return b.Build(summary.Aborted, err.Error(), opts.Now())
	}

	for _, root := range []string{cfg.FolderA, cfg.FolderB} {
		if err := checkRoot(opts.Fs, root); err != nil {
			return abort(err)
		}
		if filepath.Clean(root) == filepath.Clean(cfg.Output) {
			return abort(lerrors.NewPathError(lerrors.IOError, root, errors.New("output folder is also a source folder")))
		}
	}
	if err := opts.Fs.MkdirAll(cfg.Output, 0o755); err != nil {
		return abort(lerrors.NewPathError(lerrors.IOError, cfg.Output, errors.Wrap(err, "create output folder")))
	}

	log.Log("Comparing *%s files in %s and %s", cfg.Extension, cfg.FolderA, cfg.FolderB)
	mapA, err := files.BuildMapping(opts.Fs, cfg.FolderA, cfg.MatchOptions())
	if err != nil {
		return abort(lerrors.NewPathError(lerrors.IOError, cfg.FolderA, err))
	}
	mapB, err := files.BuildMapping(opts.Fs, cfg.FolderB, cfg.MatchOptions())
	if err != nil {
		return abort(lerrors.NewPathError(lerrors.IOError, cfg.FolderB, err))
	}
	for _, m := range []files.Mapping{mapA, mapB} {
		for _, key := range m.Duplicates {
			log.Warning("Several files in %s match %s, using %s", m.Root, key, m.Records[key].Path)
		}
	}

	match := files.Intersect(mapA, mapB)
	b.Unmatched(match.OnlyInA, match.OnlyInB)
	for _, key := range match.OnlyInA {
		log.Log("Only in %s: %s", cfg.FolderA, key)
	}
	for _, key := range match.OnlyInB {
		log.Log("Only in %s: %s", cfg.FolderB, key)
	}
	if match.Empty() {
		log.Warning("No matching *%s files found", cfg.Extension)
		return b.Build(summary.NothingToCompare, "no matching files", opts.Now())
	}

	r := &run{
		cfg:     cfg,
		opts:    opts,
		log:     log,
		reader:  files.NewReader(opts.Fs, opts.Detector, log),
		writer:  report.NewWriter(opts.Fs, cfg.Output),
		builder: b,
		names:   report.FileNames(match.Common),
		written: make(map[string]struct{}),
	}
	if cfg.Report == report.Aggregated {
		r.agg = &report.Aggregate{
			Extension: cfg.Extension,
			FolderA:   cfg.FolderA,
			FolderB:   cfg.FolderB,
			RunID:     opts.RunID,
		}
	}

	total := len(match.Common)
	log.Log("Found %d matching files", total)
	for i, key := range match.Common {
		if ctx.Err() != nil {
			log.Warning("Cancelled after %d of %d files", i, total)
			return b.Build(summary.Cancelled, "cancelled", opts.Now())
		}
		opts.Progress(Progress{Current: i + 1, Total: total, Key: key})
		r.pair(key, mapA.Records[key], mapB.Records[key])
	}

	if r.agg != nil {
		r.writeAggregate()
	}

	s := b.Build(summary.Completed, "", opts.Now())
	log.Log("Compared %d files: %d differing, %d identical, %d failed", s.Compared, s.Differing, s.Identical, s.Failed)
	if len(s.Reports) > 0 {
		log.Log("Reports written to %s", cfg.Output)
	}
	return s
}

func checkRoot(fs afero.Fs, root string) error {
	info, err := fs.Stat(root)
	if err != nil {
		return lerrors.NewPathError(lerrors.MissingSourceError, root, lerrors.MissingSourceError)
	}
	if !info.IsDir() {
		return lerrors.NewPathError(lerrors.MissingSourceError, root, errors.New("source is not a folder"))
	}
	return nil
}

func (r *run) pair(key string, a, b files.Record) {
	linesA, err := r.reader.ReadLines(a.Path)
	if err != nil {
		r.fail(key, err)
		return
	}
	linesB, err := r.reader.ReadLines(b.Path)
	if err != nil {
		r.fail(key, err)
		return
	}

	res := diff.Generate(linesA.Lines, linesB.Lines, diff.Options{
		FromLabel: a.Path,
		ToLabel:   b.Path,
		Context:   r.cfg.Context,
	})
	if !res.HasDiff() {
		r.identical(key)
		return
	}

	stat, err := res.Stat()
	if err != nil {
		r.log.Debug("%s: %v", key, err)
	}

	if r.agg != nil {
		r.agg.Add(report.Section{Key: key, Status: report.StatusDifferent, Result: res})
	} else {
		body, err := report.FileReport{
			Key:       key,
			FileA:     a.Path,
			FileB:     b.Path,
			Generated: r.opts.Now(),
			RunID:     r.opts.RunID,
			Result:    res,
			Stat:      stat,
		}.Render()
		if err != nil {
			r.fail(key, errors.Wrapf(err, "render report for %s", key))
			return
		}
		name := r.names[key]
		if _, ok := r.written[name]; ok {
			r.fail(key, lerrors.NewPathError(lerrors.IOError, r.writer.Path(name), errors.New("report already written by another pair")))
			return
		}
		path, err := r.writer.Write(name, body)
		if err != nil {
			r.fail(key, err)
			return
		}
		r.written[name] = struct{}{}
		r.builder.AddReport(path)
	}

	r.builder.AddDifferent(key)
	for _, h := range res.Hunks {
		for _, line := range h.Lines {
			if err := r.builder.AddLine(key, diff_util.LineOperation(line)); err != nil {
				r.log.LogError(err)
			}
		}
	}
	r.log.Log("%s: %d diff lines (%s)", key, res.LineCount(), stat)
}

func (r *run) identical(key string) {
	r.builder.AddIdentical(key)
	r.log.Debug("%s: no difference", key)
	if r.agg != nil {
		r.agg.Add(report.Section{Key: key, Status: report.StatusIdentical})
		return
	}
	if _, ok := r.written[r.names[key]]; ok {
		r.log.Warning("Keeping %s, written for another pair", r.writer.Path(r.names[key]))
		return
	}
	removed, err := r.writer.Remove(r.names[key])
	if err != nil {
		r.log.Warning("%v", err)
		return
	}
	if removed {
		r.log.Log("Removed stale report %s", r.writer.Path(r.names[key]))
	}
}

func (r *run) fail(key string, err error) {
	r.builder.AddFailure(key, err)
	r.log.LogError(errors.Wrapf(err, "skipping %s", key))
	if r.agg != nil {
		r.agg.Add(report.Section{Key: key, Status: report.StatusSkipped, Reason: err.Error()})
	}
}

func (r *run) writeAggregate() {
	r.agg.Generated = r.opts.Now()
	body, err := r.agg.Render()
	if err != nil {
		r.builder.Fail(errors.Wrap(err, "render aggregated report"))
		r.log.LogError(err)
		return
	}
	path, err := r.writer.Write(report.AggregateName(r.cfg.Extension), body)
	if err != nil {
		r.builder.Fail(err)
		r.log.LogError(err)
		return
	}
	r.builder.AddReport(path)
}
