package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/deepnoodle-ai/statusview"
	"github.com/deepnoodle-ai/statusview/renderers"
	"github.com/deepnoodle-ai/statusview/server"
	"github.com/deepnoodle-ai/statusview/sqlstore"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	debug      bool
	config     *statusview.Config
	logger     *slog.Logger
	location   *time.Location
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "statusview",
		Short:         "Workflow status dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML configuration file")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	cmd.AddCommand(
		serveCmd(a),
		timelineCmd(a),
		renderCmd(a),
		importCmd(a),
		listCmd(a),
		validateCmd(a),
		renderLogCmd(a),
	)
	return cmd
}

func (a *app) setup() error {
	cfg := statusview.DefaultConfig()
	if a.configPath != "" {
		loaded, err := statusview.LoadConfig(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.debug {
		cfg.Log.Level = "debug"
	}
	a.config = cfg

	level := statusview.ParseLogLevel(cfg.Log.Level)
	if cfg.Log.Format == "json" {
		a.logger = statusview.NewJSONLogger(os.Stderr, level)
	} else {
		a.logger = statusview.NewLogger(os.Stderr, level)
	}
	loc, err := cfg.Location()
	if err != nil {
		// Reported with the other configuration problems by each command
		a.logger.Debug("invalid time zone, using local time", "time_zone", cfg.TimeZone, "error", err)
		loc = time.Local
	}
	a.location = loc
	return nil
}

// warnConfig prints configuration problems for commands that can still run
// with a partly invalid configuration.
func (a *app) warnConfig(w io.Writer) {
	for _, problem := range a.config.Validate() {
		color.New(color.FgYellow).Fprintf(w, "Warning: %s\n", problem)
	}
}

func (a *app) checkConfig() error {
	if errs := a.config.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (a *app) openStore(ctx context.Context) (statusview.StatusStore, func(), error) {
	switch a.config.Store.Driver {
	case "sqlite", "postgres":
		store, err := sqlstore.Open(ctx, a.config.Store.Driver, a.config.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		store, err := statusview.NewFileStatusStore(a.config.Store.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func (a *app) openRenderer(ctx context.Context, browser bool) (statusview.Renderer, func(), error) {
	rc := a.config.Renderer
	if browser || rc.Mode == "browser" {
		r, err := renderers.NewBrowserRenderer(ctx, renderers.BrowserOptions{
			Config:    rc.Mermaid,
			ScriptURL: rc.ScriptURL,
			Bin:       rc.BrowserBin,
			Headless:  true,
			Timeout:   rc.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, func() { r.Close() }, nil
	}
	r, err := renderers.NewClientRenderer(renderers.ClientOptions{
		Config:    rc.Mermaid,
		ScriptURL: rc.ScriptURL,
	})
	if err != nil {
		return nil, nil, err
	}
	return r, func() {}, nil
}

func (a *app) renderLog() statusview.RenderLogger {
	if a.config.RenderLogDir == "" {
		return statusview.NewNullRenderLogger()
	}
	return statusview.NewFileRenderLogger(a.config.RenderLogDir)
}

func serveCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				a.config.Listen = listen
			}
			if err := a.checkConfig(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()
			renderer, closeRenderer, err := a.openRenderer(ctx, false)
			if err != nil {
				return err
			}
			defer closeRenderer()

			srv, err := server.New(server.Options{
				Store:       store,
				Renderer:    renderer,
				Logger:      a.logger,
				RenderLog:   a.renderLog(),
				Location:    a.location,
				SessionIdle: a.config.SessionIdle,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx, a.config.Listen)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on (overrides the config file)")
	return cmd
}

// readStatus loads a status file. A run recorded as running whose process
// is gone is marked as failed.
func readStatus(w io.Writer, path string) (*statusview.Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}
	status, err := statusview.StatusFromJSON(data)
	if err != nil {
		return nil, err
	}
	if status.CorrectOrphanedStatus(statusview.ProcessAlive) {
		color.New(color.FgYellow).Fprintf(w, "Warning: %s: process %d is gone; marking run as %s\n",
			status.Name, status.PID, status.Status)
	}
	return status, nil
}

func printWarnings(w io.Writer, status *statusview.Status) {
	for _, problem := range statusview.ValidateTimeline(status) {
		color.New(color.FgYellow).Fprintf(w, "Warning: %s\n", problem)
	}
}

func timelineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "timeline <status-file>",
		Short: "Print the Gantt description of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.warnConfig(cmd.ErrOrStderr())
			status, err := readStatus(cmd.ErrOrStderr(), args[0])
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), status)
			graph, ok := statusview.BuildTimelineIn(status, a.location)
			if !ok {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "Run is %s; no timeline to show\n", status.Status)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), graph)
			return nil
		},
	}
}

func renderCmd(a *app) *cobra.Command {
	var out string
	var browser bool
	cmd := &cobra.Command{
		Use:   "render <status-file>",
		Short: "Render the timeline of a run as an HTML fragment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.warnConfig(cmd.ErrOrStderr())
			status, err := readStatus(cmd.ErrOrStderr(), args[0])
			if err != nil {
				return err
			}
			renderer, closeRenderer, err := a.openRenderer(cmd.Context(), browser)
			if err != nil {
				return err
			}
			defer closeRenderer()

			banner, err := statusview.RenderConfigErrors(statusview.ValidateTimeline(status))
			if err != nil {
				return err
			}
			var fragment strings.Builder
			fragment.WriteString(string(banner))

			if graph, ok := statusview.BuildTimelineIn(status, a.location); ok {
				d := statusview.NewDiagram(renderer, statusview.DiagramOptions{
					Logger:    a.logger,
					RenderLog: a.renderLog(),
				})
				if !d.Update(cmd.Context(), graph) {
					return fmt.Errorf("failed to render timeline; see log for details")
				}
				html, err := d.HTML()
				if err != nil {
					return err
				}
				fragment.WriteString(string(html))
			}

			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), fragment.String())
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(out, []byte(fragment.String()), 0644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			color.Green("Wrote %s", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (defaults to stdout)")
	cmd.Flags().BoolVar(&browser, "browser", false, "Render to SVG with a headless browser")
	return cmd
}

func importCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <status-file>...",
		Short: "Store status files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.checkConfig(); err != nil {
				return err
			}
			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			for _, path := range args {
				status, err := readStatus(cmd.ErrOrStderr(), path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := store.SaveStatus(cmd.Context(), status); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				color.New(color.FgBlue).Fprintf(cmd.OutOrStdout(), "Imported %s (%s)\n", status.Name, status.Status)
			}
			return nil
		},
	}
}

func listCmd(a *app) *cobra.Command {
	var statusFilter, since string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the latest run of each workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.checkConfig(); err != nil {
				return err
			}
			var wantStatus *statusview.SchedulerStatus
			if statusFilter != "" {
				parsed, err := statusview.ParseSchedulerStatus(statusFilter)
				if err != nil {
					return err
				}
				wantStatus = &parsed
			}
			var startedAfter time.Time
			if since != "" {
				parsed, err := statusview.ParseTime(since)
				if err != nil {
					return fmt.Errorf("invalid --since %q: %w", since, err)
				}
				startedAfter = parsed
			}

			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			summaries, err := store.ListStatuses(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			shown := 0
			for _, s := range summaries {
				if wantStatus != nil && s.Status != *wantStatus {
					continue
				}
				if !startedAfter.IsZero() {
					started, err := statusview.ParseTime(s.StartedAt)
					if err != nil || started.Before(startedAfter) {
						continue
					}
				}
				statusColor := color.New(color.FgWhite)
				switch s.Status {
				case statusview.SchedulerStatusSuccess:
					statusColor = color.New(color.FgGreen)
				case statusview.SchedulerStatusError:
					statusColor = color.New(color.FgRed)
				case statusview.SchedulerStatusRunning:
					statusColor = color.New(color.FgCyan)
				}
				fmt.Fprintf(out, "%-30s %s  %s  %v\n",
					s.Name, statusColor.Sprintf("%-12s", s.Status), s.StartedAt, s.Duration)
				shown++
			}
			if shown == 0 {
				color.New(color.FgBlue).Fprintln(out, "No workflows found")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show runs in this state (running, failed, canceled, finished)")
	cmd.Flags().StringVar(&since, "since", "", `Only show runs started at or after this time ("2006-01-02 15:04:05")`)
	return cmd
}

func renderLogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "render-log <diagram-id>",
		Short: "Show the recorded render failures of a diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.config.RenderLogDir == "" {
				return fmt.Errorf("render_log_dir is not configured")
			}
			entries, err := a.renderLog().RenderHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				color.New(color.FgGreen).Fprintf(out, "No render failures recorded for %s\n", args[0])
				return nil
			}
			for _, entry := range entries {
				color.New(color.FgRed).Fprintf(out, "%s  %-15s %s\n",
					entry.Time.Format(statusview.TimeFormat), entry.ErrorType, entry.Error)
				for _, line := range strings.Split(entry.Description, "\n") {
					fmt.Fprintf(out, "    %s\n", line)
				}
			}
			return nil
		},
	}
}

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			errs := a.config.Validate()
			if len(errs) == 0 {
				color.Green("Configuration is valid")
				return nil
			}
			color.Red("Please check the below errors!")
			for _, e := range errs {
				color.Red("  - %s", e)
			}
			return fmt.Errorf("%d configuration errors", len(errs))
		},
	}
}
