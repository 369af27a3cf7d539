// Package report renders comparison results as Markdown and writes them to
// the output folder.
package report

import (
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/launchdarkly/folder-diff-report/diff"
)

type Mode string

const (
	// PerFile writes one <stem>-diff.md for every differing pair.
	PerFile Mode = "per-file"
	// Aggregated writes a single <ext>-diff.md covering every compared pair.
	Aggregated Mode = "aggregated"
)

const suffix = "-diff.md"

// FileReport is the content of a per-file artifact.
type FileReport struct {
	Key       string
	FileA     string
	FileB     string
	Generated time.Time
	RunID     string
	Result    diff.Result
	Stat      diff.Stat
}

func (r FileReport) Diff() string {
	return strings.Join(r.Result.Lines, "\n")
}

// Render returns the Markdown for the report.
func (r FileReport) Render() (string, error) {
	return render(fileTemplate, r)
}

type Status string

const (
	StatusIdentical Status = "identical"
	StatusDifferent Status = "different"
	StatusSkipped   Status = "skipped"
)

// Section is one compared pair inside an aggregated report.
type Section struct {
	Key    string
	Status Status
	Result diff.Result
	Reason string
}

func (s Section) Diff() string {
	return strings.Join(s.Result.Lines, "\n")
}

// Aggregate is the content of an aggregated artifact.
type Aggregate struct {
	Extension string
	FolderA   string
	FolderB   string
	Generated time.Time
	RunID     string
	Sections  []Section
}

func (a *Aggregate) Add(s Section) {
	a.Sections = append(a.Sections, s)
}

func (a Aggregate) Render() (string, error) {
	return render(aggregateTemplate, a)
}

// AggregateName is the artifact name for an aggregated report over files with
// extension ext.
func AggregateName(ext string) string {
	return strings.TrimPrefix(ext, ".") + suffix
}

// FileName is the artifact name for key when no other key shares its stem.
func FileName(key string) string {
	return stem(key) + suffix
}

// FileNames assigns a distinct artifact name to every key. Keys whose stems
// collide (ignoring case) are prefixed with their directory, flattened with
// "__". A prefixed name can still equal another key's name, as for a/x.txt
// and a__x.txt, so clashing names get a short hash of the key instead.
func FileNames(keys []string) map[string]string {
	names := make(map[string]string, len(keys))
	for _, group := range groupBy(keys, func(key string) string { return stem(key) }) {
		if len(group) == 1 {
			names[group[0]] = FileName(group[0])
			continue
		}
		for _, key := range group {
			names[key] = qualifiedName(key)
		}
	}
	for _, group := range groupBy(keys, func(key string) string { return names[key] }) {
		if len(group) == 1 {
			continue
		}
		for _, key := range group {
			names[key] = hashedName(key)
		}
	}

	sorted := append([]string(nil), keys...)
	slices.Sort(sorted)
	taken := make(map[string]struct{}, len(keys))
	for _, key := range sorted {
		name := names[key]
		for n := 2; ; n++ {
			if _, ok := taken[strings.ToLower(name)]; !ok {
				break
			}
			name = strings.TrimSuffix(names[key], suffix) + "-" + strconv.Itoa(n) + suffix
		}
		taken[strings.ToLower(name)] = struct{}{}
		names[key] = name
	}
	return names
}

// groupBy groups keys whose label is equal ignoring case.
func groupBy(keys []string, label func(string) string) map[string][]string {
	groups := make(map[string][]string, len(keys))
	for _, key := range keys {
		l := strings.ToLower(label(key))
		groups[l] = append(groups[l], key)
	}
	return groups
}

func hashedName(key string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()[:8]
	return strings.TrimSuffix(qualifiedName(key), suffix) + "-" + id + suffix
}

func qualifiedName(key string) string {
	dir := path.Dir(key)
	if dir == "." {
		return FileName(key)
	}
	return strings.ReplaceAll(dir, "/", "__") + "__" + FileName(key)
}

func stem(key string) string {
	base := path.Base(key)
	return strings.TrimSuffix(base, path.Ext(base))
}
