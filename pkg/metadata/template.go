package metadata

import (
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

// DefaultFilenameTemplate produces names like
// "Author One, Author Two - [Series] - Title - Subtitle (2019) [9780000000000].epub".
const DefaultFilenameTemplate = `{{.AUTHORS | replaceAll " & " ", "}} - {{with .SERIES}}[{{.}}] - {{end}}{{.TITLE | replace ":" " -"}}{{with .PUBLISHED}} ({{year .}}){{end}}{{with .ISBN}} [{{.}}]{{end}}.{{.EXT}}`

var funcs = template.FuncMap{
	"replace": func(old, new, s string) string {
		return strings.Replace(s, old, new, 1)
	},
	"replaceAll": func(old, new, s string) string {
		return strings.ReplaceAll(s, old, new)
	},
	// year keeps everything before the first dash of a date.
	"year": func(s string) string {
		y, _, _ := strings.Cut(s, "-")
		return y
	},
}

// FilenameTemplate renders the new name of an organized file.
type FilenameTemplate struct {
	tmpl *template.Template
}

func ParseFilenameTemplate(text string) (*FilenameTemplate, error) {
	tmpl, err := template.New("filename").Funcs(funcs).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "invalid output filename template")
	}
	return &FilenameTemplate{tmpl: tmpl}, nil
}

func (t *FilenameTemplate) Render(r *Record) (string, error) {
	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, r.Map()); err != nil {
		return "", errors.Wrap(err, "couldn't render filename")
	}
	return strings.TrimSpace(sb.String()), nil
}
