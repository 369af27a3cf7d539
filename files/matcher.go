package files

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/launchdarkly/folder-diff-report/ignore"
)

type MatchMode string

const (
	// MatchRelative walks the tree and matches on the exact relative path.
	MatchRelative MatchMode = "relative"
	// MatchFlat lists only the root and matches file names case-insensitively.
	MatchFlat MatchMode = "flat"
)

type MatchOptions struct {
	Extension     string
	Mode          MatchMode
	RespectIgnore bool
	Exclude       []string
	// Skip lists directories that are never descended into, such as the
	// report output folder when it lives inside a root.
	Skip []string
}

// NormalizeExtension trims ext and gives it exactly one leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.TrimLeft(strings.TrimSpace(ext), ".")
	if ext == "" {
		return ""
	}
	return "." + ext
}

// BuildMapping enumerates the regular files under root whose name ends with
// the configured extension.
func BuildMapping(fs afero.Fs, root string, opts MatchOptions) (Mapping, error) {
	ext := NormalizeExtension(opts.Extension)
	if ext == "" {
		return Mapping{}, errors.New("extension must not be empty")
	}
	ign, err := ignore.NewIgnore(fs, root, opts.RespectIgnore, opts.Exclude)
	if err != nil {
		return Mapping{}, err
	}

	m := Mapping{Root: root, Records: make(map[string]Record)}
	if opts.Mode == MatchFlat {
		err = buildFlat(fs, root, ext, ign, &m)
	} else {
		err = buildRelative(fs, root, ext, ign, opts.Skip, &m)
	}
	if err != nil {
		return Mapping{}, errors.Wrapf(err, "list %s", root)
	}
	return m, nil
}

func buildRelative(fs afero.Fs, root, ext string, ign *ignore.Ignore, skip []string, m *Mapping) error {
	skipped := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		skipped[filepath.Clean(s)] = struct{}{}
	}

	return afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if _, ok := skipped[filepath.Clean(path)]; ok || ign.Match(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || !strings.HasSuffix(info.Name(), ext) || ign.Match(rel, false) {
			return nil
		}
		m.Records[rel] = Record{RelPath: rel, Path: path}
		return nil
	})
}

func buildFlat(fs afero.Fs, root, ext string, ign *ignore.Ignore, m *Mapping) error {
	infos, err := afero.ReadDir(fs, root)
	if err != nil {
		return err
	}
	lowerExt := strings.ToLower(ext)
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		name := info.Name()
		if !strings.HasSuffix(strings.ToLower(name), lowerExt) || ign.Match(name, false) {
			continue
		}
		// Later entries win when two names differ only by case.
		key := strings.ToLower(name)
		if _, ok := m.Records[key]; ok {
			m.Duplicates = append(m.Duplicates, key)
		}
		m.Records[key] = Record{RelPath: key, Path: filepath.Join(root, name)}
	}
	return nil
}

// Intersect splits the keys of a and b into those present in both and those
// present in only one.
func Intersect(a, b Mapping) Match {
	var match Match
	for key := range a.Records {
		if _, ok := b.Records[key]; ok {
			match.Common = append(match.Common, key)
		} else {
			match.OnlyInA = append(match.OnlyInA, key)
		}
	}
	for key := range b.Records {
		if _, ok := a.Records[key]; !ok {
			match.OnlyInB = append(match.OnlyInB, key)
		}
	}
	slices.Sort(match.Common)
	slices.Sort(match.OnlyInA)
	slices.Sort(match.OnlyInB)
	return match
}

// Keys returns the mapping's keys in sorted order.
func (m Mapping) Keys() []string {
	keys := maps.Keys(m.Records)
	slices.Sort(keys)
	return keys
}
