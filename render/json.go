package render

import (
	"encoding/json"
	"io"

	"github.com/leodido/envcheck"
)

type jsonReport struct {
	*envcheck.Report
	Ready    bool     `json:"ready"`
	Problems []string `json:"problems"`
}

// JSON writes the report as indented JSON. Values are not HTML-escaped.
func JSON(w io.Writer, r *envcheck.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(jsonReport{
		Report:   r,
		Ready:    r.Ready(),
		Problems: r.Problems(),
	})
}
