package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/leodido/envcheck"
	"github.com/leodido/envcheck/php"
	"github.com/leodido/envcheck/render"
	"github.com/leodido/structcli"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thediveo/enumflag/v2"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Build metadata injected via ldflags.
// When built without ldflags these remain empty and the version command
// omits them.
var (
	version = ""
	commit  = ""
	date    = ""
)

// Environment variables consulted when the matching flag is not set.
const (
	envPHP     = "ENVCHECK_PHP"
	envProfile = "ENVCHECK_PROFILE"
)

var logLevel = slog.LevelInfo

var logLevelIdentifiers = map[slog.Level][]string{
	slog.LevelDebug: {"debug"},
	slog.LevelInfo:  {"info"},
	slog.LevelWarn:  {"warn", "warning"},
	slog.LevelError: {"error"},
}

func main() {
	root := &cobra.Command{
		Use:   "envcheck",
		Short: "Check whether a PHP environment is ready to run a framework",
		Long: `envcheck inspects a PHP installation through its command line binary.

It compares the PHP version with a minimum, checks required and optional
extensions, and shows selected php.ini directives. Results are rendered as an
HTML page, JSON, markdown or a terminal table. Use it before installing a
framework, in CI, or serve the page next to an application.`,
		SilenceUsage: true,
		PersistentPreRun: func(c *cobra.Command, args []string) {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
		},
	}
	root.PersistentFlags().Var(
		enumflag.New(&logLevel, "level", logLevelIdentifiers, enumflag.EnumCaseInsensitive),
		"log-level", "Log level (debug, info, warn, error)",
	)

	root.AddCommand(reportCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(profileCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// ReportOptions defines flags for the report subcommand.
type ReportOptions struct {
	Format  render.Format `flag:"format" flagshort:"f" flagdescr:"Output format (html, json, text, markdown)" flagcustom:"true"`
	Profile string        `flag:"profile" flagshort:"p" flagdescr:"Profile file (default $ENVCHECK_PROFILE, ./envcheck.yaml, then the built-in CodeIgniter 4 profile)"`
	PHP     string        `flag:"php" flagdescr:"PHP binary to inspect (default $ENVCHECK_PHP or php)"`
	EnvFile string        `flag:"env-file" flagdescr:"Dotenv file whose variables are passed to PHP (e.g. PHPRC)"`
	Output  string        `flag:"output" flagshort:"o" flagdescr:"Write the report to a file instead of stdout"`
	Strict  bool          `flag:"strict" flagdescr:"Exit with status 1 when the environment is not ready"`
}

func (o *ReportOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func (o *ReportOptions) DefineFormat(name, short, descr string, structField reflect.StructField, fieldValue reflect.Value) (pflag.Value, string) {
	fieldPtr := fieldValue.Addr().Interface().(*render.Format)
	*fieldPtr = render.FormatHTML
	return enumflag.New(fieldPtr, "format", render.Identifiers(), enumflag.EnumCaseInsensitive), descr
}

func (o *ReportOptions) DecodeFormat(input any) (any, error) {
	s, ok := input.(string)
	if !ok {
		return input, nil
	}

	return render.ParseFormat(s)
}

func reportCmd() *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Check the environment and render a report",
		Long:  reportLongDescription(),
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			checker, err := newChecker(opts.Profile, opts.PHP, opts.EnvFile)
			if err != nil {
				return err
			}

			report, err := checker.Run(c.Context())
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			colored := opts.Output == "" && term.IsTerminal(int(os.Stdout.Fd()))
			if err := render.Render(&buf, opts.Format, report, render.Options{Color: colored}); err != nil {
				return err
			}

			if opts.Output != "" {
				if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				slog.Info("report written", "path", opts.Output, "format", opts.Format.String(), "ready", report.Ready())
			} else if _, err := buf.WriteTo(os.Stdout); err != nil {
				return err
			}

			if opts.Strict && !report.Ready() {
				for _, p := range report.Problems() {
					fmt.Fprintf(os.Stderr, "FAIL: %s\n", p)
				}
				os.Exit(1)
			}
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	if err := cmd.RegisterFlagCompletionFunc("format", completeFormat); err != nil {
		panic(err)
	}
	return cmd
}

// ProfileOptions defines flags for the profile show subcommand.
type ProfileOptions struct {
	Profile string `flag:"profile" flagshort:"p" flagdescr:"Profile file (default $ENVCHECK_PROFILE, ./envcheck.yaml, then the built-in profile)"`
	JSON    bool   `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *ProfileOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect and validate requirement profiles",
	}
	cmd.AddCommand(profileShowCmd())
	cmd.AddCommand(profileValidateCmd())
	return cmd
}

func profileShowCmd() *cobra.Command {
	opts := &ProfileOptions{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective profile",
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			p, source, err := envcheck.ResolveProfile(getenv(envProfile, opts.Profile))
			if err != nil {
				return err
			}
			slog.Debug("profile resolved", "source", source)

			if opts.JSON {
				return writeJSON(c.OutOrStdout(), p)
			}
			fmt.Fprintf(c.OutOrStdout(), "# source: %s\n", source)
			enc := yaml.NewEncoder(c.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(p); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

func profileValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a profile file against the profile schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			_, err := envcheck.LoadProfile(args[0])
			if err != nil {
				var pe *envcheck.ProfileError
				if !errors.As(err, &pe) {
					return err
				}
				for _, p := range pe.Problems {
					fmt.Fprintf(os.Stderr, "FAIL: %s\n", p)
				}
				os.Exit(1)
			}
			fmt.Printf("OK: %s is a valid profile\n", args[0])
			return nil
		},
	}
}

// VersionOptions defines flags for the version subcommand.
type VersionOptions struct {
	PHP string `flag:"php" flagdescr:"PHP binary to report (default $ENVCHECK_PHP or php)"`
}

func (o *VersionOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func versionCmd() *cobra.Command {
	opts := &VersionOptions{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show tool and PHP version",
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			if version != "" {
				fmt.Printf("envcheck %s", version)
				if commit != "" {
					fmt.Printf(" (%s)", commit)
				}
				if date != "" {
					fmt.Printf(" built %s", date)
				}
				fmt.Println()
			} else {
				fmt.Println("envcheck (dev)")
			}

			rt, err := php.New(php.WithBinary(getenv(envPHP, opts.PHP, php.DefaultBinary)))
			if err != nil {
				fmt.Println("PHP: not found")
				return nil
			}
			v, err := rt.Version(c.Context())
			if err != nil {
				return err
			}
			fmt.Printf("PHP: %s (%s)\n", v, rt.Path())
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// newChecker wires a PHP runtime and the resolved profile into a checker.
func newChecker(profilePath, phpBinary, envFile string) (*envcheck.Checker, error) {
	p, source, err := envcheck.ResolveProfile(getenv(envProfile, profilePath))
	if err != nil {
		return nil, err
	}
	slog.Debug("profile resolved", "source", source, "name", p.Name)

	opts := []php.Option{
		php.WithBinary(getenv(envPHP, phpBinary, php.DefaultBinary)),
		php.WithLogger(slog.Default()),
	}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("read env file: %w", err)
		}
		opts = append(opts, php.WithEnv(vars))
	}

	rt, err := php.New(opts...)
	if err != nil {
		return nil, err
	}
	return envcheck.NewChecker(rt, p, envcheck.WithLogger(slog.Default()))
}

// getenv returns flag when set, then the environment variable key, then the
// first non-empty fallback.
func getenv(key, flag string, fallbacks ...string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv(key); v != "" {
		return v
	}
	for _, f := range fallbacks {
		if f != "" {
			return f
		}
	}
	return ""
}

// writeJSON encodes v indented, leaving markdown and HTML in profile
// descriptions unescaped.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func completeFormat(c *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, name := range render.Names() {
		if strings.HasPrefix(name, strings.ToLower(toComplete)) {
			out = append(out, name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func reportLongDescription() string {
	p := envcheck.DefaultProfile()
	return fmt.Sprintf(`Check the PHP environment against a profile and render the result.
Missing extensions and a too old PHP are reported, not treated as errors;
pass --strict to exit with status 1 when the environment is not ready.

Formats: %s

Built-in profile (%s, PHP >= %s) required extensions:
%s

Optional extensions:
%s`,
		strings.Join(render.Names(), ", "),
		p.Name, p.MinimumVersion,
		formatWrappedList(p.Required, "  ", 80),
		formatWrappedList(p.Optional, "  ", 80),
	)
}

// formatWrappedList joins items with commas, breaking lines so that no line
// is wider than maxWidth terminal columns unless a single item is.
func formatWrappedList(items []string, indent string, maxWidth int) string {
	if len(items) == 0 {
		return indent + "(none)"
	}

	var lines []string
	var line strings.Builder
	line.WriteString(indent)
	width := runewidth.StringWidth(indent)
	for i, item := range items {
		sep := ""
		if i < len(items)-1 {
			sep = ","
		}
		w := runewidth.StringWidth(item) + len(sep)
		if i > 0 {
			// room for the space after the previous comma
			if width+1+w > maxWidth {
				lines = append(lines, line.String())
				line.Reset()
				line.WriteString(indent)
				width = runewidth.StringWidth(indent)
			} else {
				line.WriteByte(' ')
				width++
			}
		}
		line.WriteString(item + sep)
		width += w
	}
	lines = append(lines, line.String())
	return strings.Join(lines, "\n")
}
