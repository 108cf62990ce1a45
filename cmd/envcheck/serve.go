package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leodido/envcheck"
	"github.com/leodido/envcheck/render"
	"github.com/leodido/structcli"
	"github.com/spf13/cobra"
)

// ServeOptions defines flags for the serve subcommand.
type ServeOptions struct {
	Addr    string `flag:"addr" flagshort:"a" flagdescr:"Listen address (default 127.0.0.1:8080)"`
	Profile string `flag:"profile" flagshort:"p" flagdescr:"Profile file (default $ENVCHECK_PROFILE, ./envcheck.yaml, then the built-in CodeIgniter 4 profile)"`
	PHP     string `flag:"php" flagdescr:"PHP binary to inspect (default $ENVCHECK_PHP or php)"`
	EnvFile string `flag:"env-file" flagdescr:"Dotenv file whose variables are passed to PHP (e.g. PHPRC)"`
}

func (o *ServeOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

const defaultAddr = "127.0.0.1:8080"

func serveCmd() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report over HTTP, checking the environment on every request",
		Long: `Serve the environment report over HTTP.

Every request runs a fresh check. Endpoints:
  /              HTML page
  /report.json   JSON
  /report.md     markdown
  /report.txt    plain text`,
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			checker, err := newChecker(opts.Profile, opts.PHP, opts.EnvFile)
			if err != nil {
				return err
			}

			addr := opts.Addr
			if addr == "" {
				addr = defaultAddr
			}
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			slog.Info("serving environment report", "addr", addr, "profile", checker.Profile().Name)
			return serve(ctx, addr, newReportHandler(checker))
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

func serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// reporter produces a fresh report per call; *envcheck.Checker implements it.
type reporter interface {
	Run(ctx context.Context) (*envcheck.Report, error)
}

func newReportHandler(rep reporter) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", reportHandler(rep, render.FormatHTML))
	mux.HandleFunc("GET /report.json", reportHandler(rep, render.FormatJSON))
	mux.HandleFunc("GET /report.md", reportHandler(rep, render.FormatMarkdown))
	mux.HandleFunc("GET /report.txt", reportHandler(rep, render.FormatText))
	return mux
}

func reportHandler(rep reporter, f render.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := rep.Run(r.Context())
		if err != nil {
			slog.Error("environment check failed", "error", err)
			http.Error(w, "environment check failed: "+err.Error(), http.StatusInternalServerError)
			return
		}

		var buf bytes.Buffer
		if err := render.Render(&buf, f, report, render.Options{}); err != nil {
			slog.Error("render report", "format", f.String(), "error", err)
			http.Error(w, "render report: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Cache-Control", "no-store")
		if _, err := buf.WriteTo(w); err != nil {
			slog.Debug("write response", "error", err)
		}
	}
}
