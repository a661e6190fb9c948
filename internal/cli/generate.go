package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/births/internal/config"
	"github.com/roach88/births/internal/ir"
	"github.com/roach88/births/internal/metrics"
	"github.com/roach88/births/internal/pipeline"
	"github.com/roach88/births/internal/store"
	"github.com/roach88/births/internal/validate"
)

// GenerateOptions holds flags for the generate command.
// Flags that are set override the config file.
type GenerateOptions struct {
	*RootOptions
	Config       string
	Database     string
	Target       string
	Log          string
	Locales      string
	MetricsFile  string
	PreviousOnly bool
	Debug        bool

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to pipeline.UUIDv7Generator.
	RunIDs pipeline.RunIDGenerator
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Resolve births and write reports and indexes",
		Long: `Run a full births batch.

The baseline locale is resolved first; its report and the previous-value
index are written. Every other locale without a region subtag is then
resolved and compared against the baseline, producing one report per locale
and the newer index. Finally the written indexes are read back and validated.

Exit status is 1 when validation reports errors and 2 on any other failure.

Example:
  births generate --config ./births.cue
  births generate --config ./births.cue --locales '^(fr|de)$' --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "path to CUE config file (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite snapshot store")
	cmd.Flags().StringVar(&opts.Target, "target", "", "directory for binary indexes")
	cmd.Flags().StringVar(&opts.Log, "log", "", "directory for per-locale reports")
	cmd.Flags().StringVar(&opts.Locales, "locales", "", "regex selecting locales to compare")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	cmd.Flags().BoolVar(&opts.PreviousOnly, "previous-only", false, "stop after the baseline's previous-value index")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "log every resolved record")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// loadConfig loads the config file and applies the flags that were set.
func (o *GenerateOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database = o.Database
	}
	if flags.Changed("target") {
		cfg.Target = o.Target
	}
	if flags.Changed("log") {
		cfg.Log = o.Log
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = o.MetricsFile
	}
	if flags.Changed("previous-only") {
		cfg.PreviousOnly = o.PreviousOnly
	}
	if flags.Changed("debug") {
		cfg.Debug = o.Debug
	}
	if flags.Changed("locales") {
		if err := cfg.SetLocaleFilter(o.Locales); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func runGenerate(opts *GenerateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose || cfg.Debug)
	slog.SetDefault(logger)

	if _, err := os.Stat(cfg.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", cfg.Database), err)
	}
	st, err := store.Open(cfg.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	if err := warnMissingVersions(ctx, st, cfg.Sequence(), logger); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to read store versions", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping after current locale", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	runMetrics := metrics.NewRun()
	res, runErr := pipeline.Run(ctx, pipeline.Options{
		Sequence:     cfg.Sequence(),
		Source:       st,
		Baseline:     cfg.Baseline,
		Target:       cfg.Target,
		Log:          cfg.Log,
		LocaleFilter: cfg.LocaleFilter(),
		Exempt:       cfg.ExemptPatterns(),
		PreviousOnly: cfg.PreviousOnly,
		Debug:        cfg.Debug,
		Logger:       logger,
		Runs:         st,
		RunIDs:       opts.RunIDs,
		Metrics:      runMetrics,
	})

	var metricsErr error
	if cfg.MetricsFile != "" {
		metricsErr = runMetrics.WriteTextfile(cfg.MetricsFile)
	}

	if runErr != nil {
		if metricsErr != nil {
			logger.Error("could not write metrics", "path", cfg.MetricsFile, "error", metricsErr)
		}
		return runFailure(formatter, res, runErr)
	}
	if metricsErr != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write metrics file", metricsErr)
	}

	return formatter.Emit(res, res.RunID, func(w io.Writer) {
		writeRunSummary(w, res)
	})
}

// runFailure maps a failed run to its exit code and error code.
func runFailure(formatter *OutputFormatter, res *pipeline.Result, err error) error {
	switch {
	case res != nil && res.Validation != nil && (validate.IsMismatch(err) || validate.IsFailed(err)):
		return validationFailure(formatter, res.Validation, err)
	case ir.IsKeyCollision(err):
		return formatter.Fail(ExitCommandError, ErrCodeKeyCollision, "key id collision", err)
	default:
		return formatter.Fail(ExitCommandError, ErrCodeRunFailed, "run failed", err)
	}
}

// warnMissingVersions logs configured versions the store holds no snapshot
// for. Resolution treats them as releases where every locale is missing.
func warnMissingVersions(ctx context.Context, st *store.Store, seq ir.Sequence, logger *slog.Logger) error {
	held, err := st.Versions(ctx)
	if err != nil {
		return err
	}
	for _, v := range seq.Versions() {
		if !slices.Contains(held, v) {
			logger.Warn("configured version has no snapshots in store", "version", v)
		}
	}
	return nil
}

// writeRunSummary renders a finished run for humans.
func writeRunSummary(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "✓ Run %s\n", res.RunID)
	fmt.Fprintf(w, "  baseline %s: %d key(s)\n", res.Baseline, res.BaselineKeys)
	fmt.Fprintf(w, "  previous-value index: %s\n", res.PreviousPath)
	if res.NewerPath == "" {
		return
	}

	fmt.Fprintf(w, "  newer index: %s\n", res.NewerPath)
	fmt.Fprintf(w, "  %d locale(s), %d newer key(s)\n", len(res.Locales), res.NewerTotal)
	for _, l := range res.Locales {
		fmt.Fprintf(w, "    %-12s %6d key(s) %6d newer\n", l.Locale, l.Keys, l.Newer)
	}
	for _, locale := range res.Skipped {
		fmt.Fprintf(w, "    %-12s skipped\n", locale)
	}
}
