// Package cli wires the scan service to cobra commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	internal "github.com/ZanzyTHEbar/filegroup/fgrp"
	"github.com/ZanzyTHEbar/filegroup/fgrp/config"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/common"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/interfaces"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/options"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/services"
	"github.com/ZanzyTHEbar/filegroup/fgrp/filesystem/types"
	"github.com/ZanzyTHEbar/filegroup/fgrp/grouping"
	"github.com/ZanzyTHEbar/filegroup/fgrp/report"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// App carries everything a command needs at run time.
type App struct {
	v        *viper.Viper
	fs       afero.Fs
	out      io.Writer
	errOut   io.Writer
	resolver *grouping.Resolver
	service  interfaces.ScanService

	cfg        *config.Config
	logger     zerolog.Logger
	configPath string
	noProgress bool
}

// Option customises an App
type Option func(*App)

// WithFs replaces the filesystem commands read from
func WithFs(fsys afero.Fs) Option {
	return func(a *App) { a.fs = fsys }
}

// WithOutput redirects report and diagnostic output
func WithOutput(out, errOut io.Writer) Option {
	return func(a *App) {
		a.out = out
		a.errOut = errOut
	}
}

// WithResolver replaces the session boundary resolver
func WithResolver(r *grouping.Resolver) Option {
	return func(a *App) { a.resolver = r }
}

// WithViper replaces the viper instance configuration is read into
func WithViper(v *viper.Viper) Option {
	return func(a *App) { a.v = v }
}

// NewRootCommand builds the fgrp command tree
func NewRootCommand(opts ...Option) *cobra.Command {
	app := &App{
		v:        viper.New(),
		fs:       afero.NewOsFs(),
		out:      os.Stdout,
		errOut:   os.Stderr,
		resolver: grouping.NewResolver(),
		logger:   internal.GetLogger(),
	}
	for _, opt := range opts {
		opt(app)
	}
	svc := services.NewScanService(app.fs, nil)
	svc.AddEventHandler(app.logEvent)
	app.service = svc

	rootCmd := &cobra.Command{
		Use:   internal.DefaultAppName,
		Short: "Group files by identical content or by modification time",
		Long: `fgrp inventories the files beneath a directory and groups them:
by identical content (dedupe), by a session boundary (session), or by
exact modification time (times). Files are only ever read.`,
		SilenceUsage:      true,
		PersistentPreRunE: app.initConfig,
	}
	rootCmd.SetOut(app.out)
	rootCmd.SetErr(app.errOut)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&app.configPath, "config", "c", "", "config file (default is "+internal.DefaultGlobalConfig+")")
	pf.StringP("path", "p", internal.DefaultScanPath, "root directory to scan")
	pf.String("pattern", "", "keep only paths containing this literal substring")
	pf.Bool("json", false, "write the report as JSON")
	pf.IntP("workers", "w", internal.DefaultWorkers, "number of concurrent workers")
	pf.BoolVar(&app.noProgress, "no-progress", false, "disable the progress bar")
	pf.String("log-level", internal.DefaultLogLevel, "log level (debug, info, warn, error)")
	pf.String("ignore-file", internal.DefaultIgnoreFileName, "per-directory ignore file name; empty disables")
	pf.Bool("exclude-hidden", false, "skip dot-files and dot-directories")

	app.bind("scan.path", pf.Lookup("path"))
	app.bind("scan.pattern", pf.Lookup("pattern"))
	app.bind("output.json", pf.Lookup("json"))
	app.bind("scan.workers", pf.Lookup("workers"))
	app.bind("log.level", pf.Lookup("log-level"))
	app.bind("scan.ignoreFile", pf.Lookup("ignore-file"))
	app.bind("scan.excludeHidden", pf.Lookup("exclude-hidden"))

	rootCmd.AddCommand(
		app.newSearchCommand(),
		app.newCountCommand(),
		app.newDedupeCommand(),
		app.newSessionCommand(),
		app.newTimesCommand(),
	)

	return rootCmd
}

// Execute runs the command tree until completion or interrupt
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return NewRootCommand(WithViper(viper.GetViper())).ExecuteContext(ctx)
}

// initConfig loads configuration once flags are parsed and sets up logging
func (a *App) initConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	if a.noProgress {
		cfg.Output.Progress = false
	}
	a.cfg = cfg

	a.logger = internal.GetLeveledLogger(cfg.Log.Level).Output(a.errOut)
	slog.SetDefault(slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{
		Level: slogLevel(a.logger.GetLevel()),
	})))

	a.logger.Debug().
		Str("command", cmd.Name()).
		Str("root", common.NewPathUtils().NormalizePath(cfg.Scan.Path)).
		Str("config", a.v.ConfigFileUsed()).
		Int("workers", cfg.Scan.Workers).
		Msg("Configuration loaded")

	return nil
}

// bind makes flag, when set, override key in the configuration. A missing
// flag is a programming error.
func (a *App) bind(key string, flag *pflag.Flag) {
	if err := a.v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag to %s: %v", key, err))
	}
}

// logEvent records scan lifecycle events at debug level
func (a *App) logEvent(e types.Event) {
	ev := a.logger.Debug().
		Str("event", string(e.Type)).
		Str("operation", e.Operation).
		Str("path", e.Path).
		Bool("success", e.Success)
	if e.Error != "" {
		ev = ev.Str("error", e.Error)
	}
	ev.Fields(e.Metadata).Msg("Scan event")
}

// slogLevel maps the zerolog level onto slog so both streams filter alike
func slogLevel(l zerolog.Level) slog.Level {
	switch {
	case l <= zerolog.DebugLevel:
		return slog.LevelDebug
	case l == zerolog.InfoLevel:
		return slog.LevelInfo
	case l == zerolog.WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// scanOptions turns the loaded configuration into scan options. The returned
// progress is nil when no bar should be drawn.
func (a *App) scanOptions(cmd *cobra.Command) (options.ScanOptions, *progress) {
	opts := options.DefaultScanOptions(a.cfg.Scan.Path)
	opts.Pattern = a.cfg.Scan.Pattern
	opts.Workers = a.cfg.Scan.Workers
	opts.Algorithm = a.cfg.Scan.Algorithm
	opts.Traversal.WorkerCount = a.cfg.Scan.Workers
	opts.Traversal.IgnoreFile = a.cfg.Scan.IgnoreFile
	opts.Traversal.IncludeHidden = !a.cfg.Scan.ExcludeHidden

	var bar *progress
	if a.cfg.Output.Progress && !a.cfg.Output.JSON {
		bar = newProgress(a.errOut, cmd.Name())
		opts.OnTotal = bar.Start
		opts.Progress = bar.Increment
	}
	return opts, bar
}

// render writes rep in the configured format
func (a *App) render(rep *report.Report) error {
	a.logger.Info().
		Str("scan_id", rep.ScanID).
		Str("command", rep.Command).
		Int("scanned", rep.Scanned).
		Int("skipped", len(rep.Skipped)).
		Dur("duration", rep.Duration).
		Msg("Scan finished")

	if a.cfg.Output.JSON {
		return rep.JSON(a.out)
	}
	if err := rep.Text(a.out); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
