package report

import (
	"strings"
	"text/template"

	sprig "github.com/Masterminds/sprig/v3"
)

const (
	fence      = "```"
	timeLayout = "2006-01-02 15:04:05"
)

// All whitespace in the templates is significant for the rendered Markdown.
var fileTemplate = template.Must(template.New("file").Funcs(sprig.TxtFuncMap()).Parse(
	`# File comparison report: {{ .Key }}` + "\n\n" +
		`**File A:** {{ .FileA }}` + "\n" +
		`**File B:** {{ .FileB }}` + "\n" +
		`**Compared at:** {{ .Generated | date "` + timeLayout + `" }}` + "\n" +
		`{{- with .RunID }}` + "\n" + `**Run:** {{ . }}{{ end }}` + "\n\n" +
		`## Differences ({{ .Stat }})` + "\n\n" +
		fence + "diff\n" +
		`{{ .Diff }}` + "\n" +
		fence + "\n",
))

var aggregateTemplate = template.Must(template.New("aggregate").Funcs(sprig.TxtFuncMap()).Parse(
	`# {{ .Extension | trimPrefix "." | upper }} file differences` + "\n\n" +
		`**Folder A:** {{ .FolderA }}` + "\n" +
		`**Folder B:** {{ .FolderB }}` + "\n" +
		`**Compared at:** {{ .Generated | date "` + timeLayout + `" }}` + "\n" +
		`{{- with .RunID }}` + "\n" + `**Run:** {{ . }}{{ end }}` + "\n" +
		`{{- range .Sections }}` + "\n\n" +
		`### {{ .Key }}` + "\n\n" +
		`{{ if eq .Status "identical" }}**{{ .Key }}: no difference**` +
		`{{ else if eq .Status "skipped" }}**{{ .Key }}: skipped** ({{ .Reason | default "unreadable" }})` +
		`{{ else }}` + fence + "diff\n" + `{{ .Diff }}` + "\n" + fence +
		`{{ end }}` +
		`{{ end }}` + "\n",
))

func render(t *template.Template, data interface{}) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
