package render

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io"

	"github.com/leodido/envcheck"
	"github.com/yuin/goldmark"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"statusClass":    statusClass,
	"installedLabel": installedLabel,
	"versionStatus":  versionStatus,
	"hostLine":       hostLine,
	"dict":           dict,
}).ParseFS(templateFS, "templates/report.html.tmpl"))

// goldmark escapes raw HTML unless the unsafe renderer option is set.
var markdown = goldmark.New()

type htmlData struct {
	Report      *envcheck.Report
	Description template.HTML
	Ready       bool
	Problems    []string
}

// HTML writes the report as a standalone page.
// The profile description is rendered from markdown.
func HTML(w io.Writer, r *envcheck.Report) error {
	data := htmlData{
		Report:   r,
		Ready:    r.Ready(),
		Problems: r.Problems(),
	}
	if r.Description != "" {
		var desc bytes.Buffer
		if err := markdown.Convert([]byte(r.Description), &desc); err != nil {
			return err
		}
		data.Description = template.HTML(desc.String())
	}

	var page bytes.Buffer
	if err := htmlTemplate.Execute(&page, data); err != nil {
		return err
	}
	_, err := page.WriteTo(w)
	return err
}

func statusClass(ok bool) string {
	if ok {
		return "ok"
	}
	return "fail"
}

func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict: odd number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, errors.New("dict: keys must be strings")
		}
		m[k] = kv[i+1]
	}
	return m, nil
}
