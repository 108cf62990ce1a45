// Package php implements [envcheck.Runtime] on top of the PHP command line binary.
//
// Each query runs a short `php -r` snippet and reads its JSON-encoded answer,
// so results always reflect the php.ini files and extensions the binary
// loads at that moment.
package php

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/leodido/envcheck"
)

// DefaultBinary is the binary looked up in PATH when none is configured.
const DefaultBinary = "php"

// marker separates the answer from anything PHP prints at startup
// (for example "Module already loaded" warnings with display_errors on).
const marker = "@@envcheck@@"

var errUnexpectedOutput = errors.New("unexpected output")

// Executor runs the PHP binary.
type Executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, env []string, path string, args ...string) (stdout, stderr []byte, err error)
}

// config holds the configuration for a [Runtime].
type config struct {
	binary   string
	env      map[string]string
	logger   *slog.Logger
	executor Executor
}

// Option configures a [Runtime].
type Option func(*config)

// WithBinary sets the PHP binary, either a name looked up in PATH or a path.
func WithBinary(binary string) Option {
	return func(c *config) {
		c.binary = binary
	}
}

// WithEnv adds environment variables to every PHP process, on top of the
// current environment. Use it for PHPRC or PHP_INI_SCAN_DIR to load the
// same php.ini files a web server SAPI would load.
func WithEnv(env map[string]string) Option {
	return func(c *config) {
		if c.env == nil {
			c.env = make(map[string]string, len(env))
		}
		maps.Copy(c.env, env)
	}
}

// WithLogger sets the logger used to trace executed commands.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithExecutor replaces the process executor.
// This is primarily for testing.
func WithExecutor(e Executor) Option {
	return func(c *config) {
		c.executor = e
	}
}

// Runtime queries a PHP installation through its CLI binary.
type Runtime struct {
	path     string
	env      []string
	logger   *slog.Logger
	executor Executor
}

var _ envcheck.Runtime = (*Runtime)(nil)

// New resolves the PHP binary and returns a runtime for it.
// It fails with [envcheck.ErrRuntimeUnavailable] when the binary cannot be found.
func New(opts ...Option) (*Runtime, error) {
	cfg := &config{
		binary:   DefaultBinary,
		logger:   slog.Default(),
		executor: execExecutor{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	path, err := cfg.executor.LookPath(cfg.binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", envcheck.ErrRuntimeUnavailable, &envcheck.RuntimeError{
			Query: "lookup " + cfg.binary,
			Err:   err,
		})
	}

	env := make([]string, 0, len(cfg.env))
	for _, k := range slices.Sorted(maps.Keys(cfg.env)) {
		env = append(env, k+"="+cfg.env[k])
	}

	return &Runtime{
		path:     path,
		env:      env,
		logger:   cfg.logger,
		executor: cfg.executor,
	}, nil
}

// Name returns "PHP".
func (r *Runtime) Name() string {
	return "PHP"
}

// Path returns the resolved binary path.
func (r *Runtime) Path() string {
	return r.path
}

// Version returns PHP_VERSION, e.g. "8.2.12".
func (r *Runtime) Version(ctx context.Context) (string, error) {
	var v string
	if err := r.query(ctx, "PHP_VERSION", "PHP_VERSION", nil, &v); err != nil {
		return "", err
	}
	if v == "" {
		return "", r.fail("PHP_VERSION", nil, fmt.Errorf("%w: empty version", errUnexpectedOutput))
	}
	return v, nil
}

// ExtensionLoaded reports extension_loaded(name). Names are case-insensitive.
func (r *Runtime) ExtensionLoaded(ctx context.Context, name string) (bool, error) {
	var loaded bool
	label := fmt.Sprintf("extension_loaded(%s)", name)
	if err := r.query(ctx, label, "extension_loaded($argv[1])", []string{name}, &loaded); err != nil {
		return false, err
	}
	return loaded, nil
}

// cliForced lists the directives the CLI SAPI overrides regardless of php.ini,
// with the built-in defaults other SAPIs start from.
var cliForced = map[string]string{
	"display_errors":     "1",
	"html_errors":        "1",
	"implicit_flush":     "0",
	"max_execution_time": "30",
	"max_input_time":     "-1",
	"output_buffering":   "0",
	"register_argc_argv": "1",
}

// IniGet reports ini_get(key). ok is false when PHP does not know the directive.
//
// Directives the CLI SAPI forces are read with get_cfg_var instead, so they
// reflect php.ini (or the built-in default when php.ini does not set them)
// rather than the command line override.
func (r *Runtime) IniGet(ctx context.Context, key string) (string, bool, error) {
	expr, label := "ini_get($argv[1])", fmt.Sprintf("ini_get(%s)", key)
	def, forced := cliForced[key]
	if forced {
		expr, label = "get_cfg_var($argv[1])", fmt.Sprintf("get_cfg_var(%s)", key)
	}

	var raw json.RawMessage
	if err := r.query(ctx, label, expr, []string{key}, &raw); err != nil {
		return "", false, err
	}
	if string(raw) == "false" {
		if forced {
			return def, true, nil
		}
		return "", false, nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false, r.fail(label, nil, fmt.Errorf("%w: %w", errUnexpectedOutput, err))
	}
	return value, true, nil
}

// script builds the -r snippet printing the JSON encoding of expr after the marker.
func script(expr string) string {
	return fmt.Sprintf(`echo "%s", json_encode(%s);`, marker, expr)
}

func (r *Runtime) query(ctx context.Context, label, expr string, args []string, out any) error {
	argv := append([]string{"-r", script(expr), "--"}, args...)

	r.logger.Debug("executing php", "path", r.path, "query", label)
	stdout, stderr, err := r.executor.Run(ctx, r.env, r.path, argv...)
	if err != nil {
		return r.fail(label, stderr, err)
	}

	i := bytes.LastIndex(stdout, []byte(marker))
	if i < 0 {
		return r.fail(label, stderr, fmt.Errorf("%w: %q", errUnexpectedOutput, truncate(string(stdout), 200)))
	}
	answer := bytes.TrimSpace(stdout[i+len(marker):])
	if err := json.Unmarshal(answer, out); err != nil {
		return r.fail(label, stderr, fmt.Errorf("%w: %w", errUnexpectedOutput, err))
	}
	return nil
}

func (r *Runtime) fail(label string, stderr []byte, err error) error {
	rerr := &envcheck.RuntimeError{
		Query:  label,
		Stderr: strings.TrimSpace(string(stderr)),
		Err:    err,
	}
	r.logger.Debug("php query failed", "query", label, "error", rerr)
	return fmt.Errorf("%w: %w", envcheck.ErrRuntimeUnavailable, rerr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type execExecutor struct{}

func (execExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (execExecutor) Run(ctx context.Context, env []string, path string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
