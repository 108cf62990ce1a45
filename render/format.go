// Package render turns an [envcheck.Report] into documents.
//
// Renderers only read the report; they never query the runtime.
package render

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/leodido/envcheck"
)

// Format selects a renderer.
type Format int

const (
	// FormatHTML renders a standalone HTML page.
	FormatHTML Format = iota
	// FormatJSON renders the report as indented JSON.
	FormatJSON
	// FormatText renders an aligned terminal table.
	FormatText
	// FormatMarkdown renders markdown tables, e.g. for CI job summaries.
	FormatMarkdown
)

var formatIdentifiers = map[Format][]string{
	FormatHTML:     {"html"},
	FormatJSON:     {"json"},
	FormatText:     {"text", "txt"},
	FormatMarkdown: {"markdown", "md"},
}

func (f Format) String() string {
	if ids, ok := formatIdentifiers[f]; ok {
		return ids[0]
	}
	return fmt.Sprintf("Format(%d)", f)
}

// Identifiers returns the accepted names of every format, canonical name first.
func Identifiers() map[Format][]string {
	out := make(map[Format][]string, len(formatIdentifiers))
	for f, ids := range formatIdentifiers {
		out[f] = slices.Clone(ids)
	}
	return out
}

// Names returns the canonical format names in declaration order.
func Names() []string {
	names := make([]string, 0, len(formatIdentifiers))
	for f := FormatHTML; f <= FormatMarkdown; f++ {
		names = append(names, f.String())
	}
	return names
}

// ParseFormat accepts any identifier of a format, case-insensitively.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, ids := range formatIdentifiers {
		if slices.Contains(ids, s) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown format %q (available: %s)", s, strings.Join(Names(), ", "))
}

// ContentType returns the media type of documents in format f.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Options tune rendering.
type Options struct {
	// Color enables ANSI colors in text output.
	Color bool
}

// Render writes r to w in format f.
func Render(w io.Writer, f Format, r *envcheck.Report, opts Options) error {
	switch f {
	case FormatHTML:
		return HTML(w, r)
	case FormatJSON:
		return JSON(w, r)
	case FormatText:
		return Text(w, r, opts.Color)
	case FormatMarkdown:
		return Markdown(w, r)
	default:
		return fmt.Errorf("unsupported format %s", f)
	}
}

func installedLabel(present bool) string {
	if present {
		return "Installed"
	}
	return "Not Installed"
}

func versionStatus(v envcheck.VersionCheckResult) string {
	if v.OK() {
		return "OK"
	}
	return "Upgrade required"
}

func hostLine(h envcheck.HostInfo) string {
	parts := []string{h.OS + "/" + h.Arch}
	if h.Hostname != "" {
		parts = append(parts, h.Hostname)
	}
	if h.KernelRelease != "" {
		parts = append(parts, "kernel "+h.KernelRelease)
	}
	return strings.Join(parts, ", ")
}
