package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/leodido/envcheck"
	"github.com/mattn/go-runewidth"
)

// Text writes a human-readable summary aligned for terminals.
// When colored is true, statuses are highlighted with ANSI colors.
func Text(w io.Writer, r *envcheck.Report, colored bool) error {
	ok := color.New(color.FgGreen, color.Bold)
	fail := color.New(color.FgRed, color.Bold)
	muted := color.New(color.FgYellow)
	heading := color.New(color.Bold)
	for _, c := range []*color.Color{ok, fail, muted, heading} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", heading.Sprintf("%s environment check", r.Profile))
	fmt.Fprintf(&b, "Host: %s\n", hostLine(r.Host))
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s\n", heading.Sprintf("%s Version", r.Runtime))
	status := ok.Sprint(versionStatus(r.Version))
	if !r.Version.OK() {
		status = fail.Sprint(versionStatus(r.Version))
	}
	rows := [][2]string{
		{"Current", r.Version.Current},
		{"Required", ">= " + r.Version.Required},
	}
	if r.Version.Constraint != "" {
		rows = append(rows, [2]string{"Constraint", r.Version.Constraint})
	}
	rows = append(rows, [2]string{"Status", status})
	writeRows(&b, rows)
	b.WriteString("\n")

	writeFeatures(&b, heading.Sprintf("Required %s Extensions", r.Runtime), r.RequiredFeatures, ok, fail)
	writeFeatures(&b, heading.Sprintf("Optional %s Extensions", r.Runtime), r.OptionalFeatures, ok, muted)

	fmt.Fprintf(&b, "%s\n", heading.Sprint("Additional Environment Details"))
	rows = rows[:0]
	for _, e := range r.Config {
		rows = append(rows, [2]string{e.Key, e.Value})
	}
	writeRows(&b, rows)
	b.WriteString("\n")

	if r.Ready() {
		fmt.Fprintf(&b, "Result: %s\n", ok.Sprint("READY"))
	} else {
		fmt.Fprintf(&b, "Result: %s\n", fail.Sprint("NOT READY"))
		for _, p := range r.Problems() {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeFeatures(b *strings.Builder, title string, features envcheck.FeatureCheckResult, ok, missing *color.Color) {
	fmt.Fprintf(b, "%s\n", title)
	if len(features) == 0 {
		b.WriteString("  (none)\n\n")
		return
	}
	rows := make([][2]string, 0, len(features))
	for _, f := range features {
		c := ok
		if !f.Present {
			c = missing
		}
		rows = append(rows, [2]string{f.Name, c.Sprint(installedLabel(f.Present))})
	}
	writeRows(b, rows)
	b.WriteString("\n")
}

// writeRows prints two columns, padding the first to its widest cell.
func writeRows(b *strings.Builder, rows [][2]string) {
	width := 0
	for _, r := range rows {
		width = max(width, runewidth.StringWidth(r[0]))
	}
	for _, r := range rows {
		fmt.Fprintf(b, "  %s  %s\n", padRight(r[0], width), r[1])
	}
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
