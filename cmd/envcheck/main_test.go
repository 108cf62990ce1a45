package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leodido/envcheck"
	"github.com/leodido/envcheck/render"
	"github.com/spf13/cobra"
)

func TestReportOptionsDecodeFormat(t *testing.T) {
	opts := &ReportOptions{}

	got, err := opts.DecodeFormat("MD")
	if err != nil {
		t.Fatalf("DecodeFormat(MD) error = %v", err)
	}
	if got != render.FormatMarkdown {
		t.Fatalf("DecodeFormat(MD) = %v, want %v", got, render.FormatMarkdown)
	}

	if _, err := opts.DecodeFormat("pdf"); err == nil {
		t.Fatal("DecodeFormat(pdf) expected error")
	}

	// Non-string input is passed through untouched.
	got, err = opts.DecodeFormat(render.FormatJSON)
	if err != nil || got != render.FormatJSON {
		t.Fatalf("DecodeFormat(FormatJSON) = %v, %v", got, err)
	}
}

func TestReportLongDescription_ListsFormatsAndExtensions(t *testing.T) {
	desc := reportLongDescription()

	for _, name := range render.Names() {
		if !strings.Contains(desc, name) {
			t.Fatalf("reportLongDescription() missing format %q", name)
		}
	}

	p := envcheck.DefaultProfile()
	for _, ext := range append(p.Required, p.Optional...) {
		if !strings.Contains(desc, ext) {
			t.Fatalf("reportLongDescription() missing extension %q", ext)
		}
	}
	if !strings.Contains(desc, "PHP >= "+p.MinimumVersion) {
		t.Fatalf("reportLongDescription() missing minimum version: %q", desc)
	}
}

func TestFormatWrappedList(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := formatWrappedList(nil, "  ", 80); got != "  (none)" {
			t.Fatalf("formatWrappedList(nil) = %q", got)
		}
	})

	t.Run("wraps at width", func(t *testing.T) {
		got := formatWrappedList([]string{"json", "mbstring", "intl", "libxml"}, "  ", 18)
		want := "  json, mbstring,\n  intl, libxml"
		if got != want {
			t.Fatalf("formatWrappedList() = %q, want %q", got, want)
		}
	})

	t.Run("wide characters count as two columns", func(t *testing.T) {
		// "拡張" is 2 runes, 6 bytes and 4 columns wide.
		got := formatWrappedList([]string{"拡張", "json", "intl"}, "", 11)
		want := "拡張, json,\nintl"
		if got != want {
			t.Fatalf("formatWrappedList() = %q, want %q", got, want)
		}
	})

	t.Run("no line exceeds width", func(t *testing.T) {
		p := envcheck.DefaultProfile()
		for _, line := range strings.Split(formatWrappedList(p.Required, "  ", 40), "\n") {
			if len(line) > 40 {
				t.Fatalf("line %q longer than 40", line)
			}
		}
	})
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	p := &envcheck.Profile{Name: "demo", Description: "Needs <b>PHP</b> & more", MinimumVersion: "8.1"}
	if err := writeJSON(&buf, p); err != nil {
		t.Fatalf("writeJSON() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"description": "Needs <b>PHP</b> & more"`) {
		t.Errorf("writeJSON() escaped or reformatted the description:\n%s", out)
	}
	if !strings.Contains(out, "\n  \"name\": \"demo\"") {
		t.Errorf("writeJSON() output not indented:\n%s", out)
	}
}

func TestReportCmd_FormatCompletionRegistered(t *testing.T) {
	cmd := reportCmd()
	fn, ok := cmd.GetFlagCompletionFunc("format")
	if !ok || fn == nil {
		t.Fatal("no completion registered for --format")
	}
}

func TestCompleteFormat(t *testing.T) {
	t.Run("empty input returns every format", func(t *testing.T) {
		got, directive := completeFormat(nil, nil, "")
		if len(got) != len(render.Names()) {
			t.Fatalf("completeFormat(\"\") = %v", got)
		}
		if directive != cobra.ShellCompDirectiveNoFileComp {
			t.Fatalf("directive = %v, want %v", directive, cobra.ShellCompDirectiveNoFileComp)
		}
	})

	t.Run("prefix is case insensitive", func(t *testing.T) {
		got, _ := completeFormat(nil, nil, "MA")
		if len(got) != 1 || got[0] != "markdown" {
			t.Fatalf("completeFormat(MA) = %v", got)
		}
	})

	t.Run("no match", func(t *testing.T) {
		got, _ := completeFormat(nil, nil, "pdf")
		if len(got) != 0 {
			t.Fatalf("completeFormat(pdf) = %v", got)
		}
	})
}

func TestGetenv(t *testing.T) {
	const key = "ENVCHECK_TEST_VALUE"

	tests := []struct {
		name      string
		env       string
		flag      string
		fallbacks []string
		want      string
	}{
		{name: "flag wins", env: "from-env", flag: "from-flag", want: "from-flag"},
		{name: "env when flag empty", env: "from-env", want: "from-env"},
		{name: "first non-empty fallback", fallbacks: []string{"", "php8.2"}, want: "php8.2"},
		{name: "nothing set", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.env)
			if got := getenv(key, tt.flag, tt.fallbacks...); got != tt.want {
				t.Fatalf("getenv() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandsAttachFlags(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		flags []string
	}{
		{reportCmd(), []string{"format", "profile", "php", "env-file", "output", "strict"}},
		{serveCmd(), []string{"addr", "profile", "php", "env-file"}},
		{versionCmd(), []string{"php"}},
	}
	for _, tt := range tests {
		t.Run(tt.cmd.Name(), func(t *testing.T) {
			for _, name := range tt.flags {
				if tt.cmd.Flags().Lookup(name) == nil {
					t.Errorf("%s: missing --%s", tt.cmd.Name(), name)
				}
			}
		})
	}
}

func TestReportCmd_FormatFlag(t *testing.T) {
	cmd := reportCmd()
	f := cmd.Flags().Lookup("format")
	if f == nil {
		t.Fatal("missing --format")
	}
	if f.DefValue != "html" {
		t.Fatalf("--format default = %q, want html", f.DefValue)
	}
	if err := cmd.Flags().Set("format", "JSON"); err != nil {
		t.Fatalf("set --format=JSON: %v", err)
	}
	if got := f.Value.String(); got != "json" {
		t.Fatalf("--format = %q, want json", got)
	}
	if err := cmd.Flags().Set("format", "pdf"); err == nil {
		t.Fatal("set --format=pdf expected error")
	}
}
