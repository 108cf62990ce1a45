package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/leodido/envcheck"
)

// Markdown writes the report as GitHub-flavored markdown tables.
func Markdown(w io.Writer, r *envcheck.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s environment check\n\n", mdEscape(r.Profile))
	fmt.Fprintf(&b, "Host: %s\n\n", mdEscape(hostLine(r.Host)))

	fmt.Fprintf(&b, "## %s Version\n\n", r.Runtime)
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Current | %s |\n", mdEscape(r.Version.Current))
	fmt.Fprintf(&b, "| Required | %s |\n", mdEscape(r.Version.Required))
	if r.Version.Constraint != "" {
		fmt.Fprintf(&b, "| Constraint | %s |\n", mdEscape(r.Version.Constraint))
	}
	fmt.Fprintf(&b, "| Status | %s %s |\n\n", mark(r.Version.OK()), versionStatus(r.Version))

	mdFeatures(&b, fmt.Sprintf("Required %s Extensions", r.Runtime), r.RequiredFeatures)
	mdFeatures(&b, fmt.Sprintf("Optional %s Extensions", r.Runtime), r.OptionalFeatures)

	b.WriteString("## Additional Environment Details\n\n")
	b.WriteString("| Directive | Value |\n|---|---|\n")
	for _, e := range r.Config {
		fmt.Fprintf(&b, "| %s | %s |\n", mdEscape(e.Key), mdEscape(e.Value))
	}
	b.WriteString("\n")

	if r.Ready() {
		b.WriteString("**Result:** ready\n")
	} else {
		b.WriteString("**Result:** not ready\n\n")
		for _, p := range r.Problems() {
			fmt.Fprintf(&b, "- %s\n", mdEscape(p))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func mdFeatures(b *strings.Builder, title string, features envcheck.FeatureCheckResult) {
	fmt.Fprintf(b, "## %s\n\n", title)
	if len(features) == 0 {
		b.WriteString("_None._\n\n")
		return
	}
	b.WriteString("| Extension | Status |\n|---|---|\n")
	for _, f := range features {
		fmt.Fprintf(b, "| %s | %s %s |\n", mdEscape(f.Name), mark(f.Present), installedLabel(f.Present))
	}
	b.WriteString("\n")
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

var mdReplacer = strings.NewReplacer("|", `\|`, "\n", " ", "<", "&lt;", ">", "&gt;")

func mdEscape(s string) string {
	return mdReplacer.Replace(s)
}
