package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/leodido/envcheck"
)

func sampleReport() *envcheck.Report {
	return &envcheck.Report{
		Profile: "CodeIgniter 4",
		Runtime: "PHP",
		Host:    envcheck.HostInfo{OS: "linux", Arch: "amd64", Hostname: "web01", KernelRelease: "6.1.0"},
		Version: envcheck.CheckVersion("8.2.0", "7.4"),
		RequiredFeatures: envcheck.FeatureCheckResult{
			{Name: "json", Present: true},
			{Name: "madeupext123", Present: false},
		},
		OptionalFeatures: envcheck.FeatureCheckResult{
			{Name: "xdebug", Present: false},
		},
		Config: envcheck.ConfigSnapshot{
			{Key: "display_errors", Value: "Disabled"},
			{Key: "memory_limit", Value: "128M"},
			{Key: "max_execution_time", Value: "30 seconds"},
		},
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Description: "Checks the environment for **CodeIgniter 4**.",
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"html", FormatHTML},
		{"JSON", FormatJSON},
		{" text ", FormatText},
		{"txt", FormatText},
		{"md", FormatMarkdown},
		{"Markdown", FormatMarkdown},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	_, err := ParseFormat("pdf")
	if err == nil || !strings.Contains(err.Error(), "available: html, json, text, markdown") {
		t.Errorf("ParseFormat(pdf) error = %v", err)
	}
}

func TestFormat_String(t *testing.T) {
	if FormatMarkdown.String() != "markdown" {
		t.Errorf("FormatMarkdown.String() = %q", FormatMarkdown.String())
	}
	if Format(42).String() != "Format(42)" {
		t.Errorf("Format(42).String() = %q", Format(42).String())
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleReport()); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	var got struct {
		Version struct {
			Current   string `json:"current"`
			Required  string `json:"required"`
			Satisfied bool   `json:"satisfied"`
		} `json:"version"`
		RequiredFeatures []struct {
			Name    string `json:"name"`
			Present bool   `json:"present"`
		} `json:"requiredFeatures"`
		OptionalFeatures []json.RawMessage `json:"optionalFeatures"`
		Config           map[string]string `json:"config"`
		Ready            bool              `json:"ready"`
		Problems         []string          `json:"problems"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if got.Version.Current != "8.2.0" || got.Version.Required != "7.4" || !got.Version.Satisfied {
		t.Errorf("version = %+v", got.Version)
	}
	if len(got.RequiredFeatures) != 2 || got.RequiredFeatures[1].Name != "madeupext123" || got.RequiredFeatures[1].Present {
		t.Errorf("requiredFeatures = %+v", got.RequiredFeatures)
	}
	if len(got.OptionalFeatures) != 1 {
		t.Errorf("optionalFeatures = %d entries", len(got.OptionalFeatures))
	}
	if got.Config["max_execution_time"] != "30 seconds" {
		t.Errorf("config = %v", got.Config)
	}
	if got.Ready || len(got.Problems) != 1 {
		t.Errorf("ready = %v, problems = %v", got.Ready, got.Problems)
	}

	out := buf.String()
	if strings.Index(out, `"display_errors"`) > strings.Index(out, `"memory_limit"`) {
		t.Error("config keys are not in snapshot order")
	}
	if strings.Contains(out, "Description") || strings.Contains(out, "CodeIgniter 4**") {
		t.Error("description leaked into JSON output")
	}
}

func TestJSON_NoHTMLEscaping(t *testing.T) {
	r := sampleReport()
	r.Config = append(r.Config, envcheck.ConfigEntry{Key: "error_prepend_string", Value: "<b>&"})

	var buf bytes.Buffer
	if err := JSON(&buf, r); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"error_prepend_string": "<b>&"`) {
		t.Errorf("JSON() escaped HTML characters:\n%s", buf.String())
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, sampleReport(), false); err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"CodeIgniter 4 environment check",
		"Host: linux/amd64, web01, kernel 6.1.0",
		"PHP Version",
		"  Current   8.2.0",
		"  Status    OK",
		"Required PHP Extensions",
		"  json          Installed",
		"  madeupext123  Not Installed",
		"  xdebug  Not Installed",
		"  max_execution_time  30 seconds",
		"Result: NOT READY",
		"  - required extension madeupext123 is not installed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Text() output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("Text() emitted ANSI escapes with color disabled")
	}
}

func TestText_Color(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, sampleReport(), true); err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Error("Text() emitted no ANSI escapes with color enabled")
	}
}

func TestText_EmptyFeatureSet(t *testing.T) {
	r := sampleReport()
	r.OptionalFeatures = envcheck.FeatureCheckResult{}

	var buf bytes.Buffer
	if err := Text(&buf, r, false); err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Optional PHP Extensions\n  (none)") {
		t.Errorf("Text() output:\n%s", buf.String())
	}
}

func TestHTML(t *testing.T) {
	r := sampleReport()
	r.RequiredFeatures = append(r.RequiredFeatures, envcheck.FeatureResult{Name: "<script>alert(1)</script>"})
	r.Version = envcheck.CheckVersion("7.3.0", "7.4")

	var buf bytes.Buffer
	if err := HTML(&buf, r); err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<title>CodeIgniter 4 System Environment Check</title>",
		"<strong>CodeIgniter 4</strong>",
		"Current PHP Version: <strong>7.3.0</strong>",
		`<strong class="fail">Upgrade required</strong>`,
		"Please upgrade to at least PHP 7.4.",
		"<h2>Required PHP Extensions</h2>",
		`<tr><td>json</td><td class="ok">Installed</td></tr>`,
		`<tr><td>madeupext123</td><td class="fail">Not Installed</td></tr>`,
		`<tr><td>xdebug</td><td class="warn">Not Installed</td></tr>`,
		"<tr><td>memory_limit</td><td>128M</td></tr>",
		"&lt;script&gt;",
		"2024-05-01 12:00:00 UTC",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML() output missing %q", want)
		}
	}
	if strings.Contains(out, "<script>alert(1)</script>") {
		t.Error("HTML() did not escape extension names")
	}
}

func TestMarkdown(t *testing.T) {
	r := sampleReport()
	r.Config = append(r.Config, envcheck.ConfigEntry{Key: "odd|key", Value: "v"})

	var buf bytes.Buffer
	if err := Markdown(&buf, r); err != nil {
		t.Fatalf("Markdown() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# CodeIgniter 4 environment check",
		"| Current | 8.2.0 |",
		"| Status | ✅ OK |",
		"| json | ✅ Installed |",
		"| madeupext123 | ❌ Not Installed |",
		`| odd\|key | v |`,
		"**Result:** not ready",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Markdown() output missing %q\n%s", want, out)
		}
	}
}

func TestRender_Dispatch(t *testing.T) {
	for _, f := range []Format{FormatHTML, FormatJSON, FormatText, FormatMarkdown} {
		var buf bytes.Buffer
		if err := Render(&buf, f, sampleReport(), Options{}); err != nil {
			t.Errorf("Render(%s) error = %v", f, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Render(%s) wrote nothing", f)
		}
	}
	if err := Render(&bytes.Buffer{}, Format(9), sampleReport(), Options{}); err == nil {
		t.Error("Render(Format(9)) expected error")
	}
}
