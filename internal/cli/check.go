package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/births/internal/birth"
	"github.com/roach88/births/internal/config"
	"github.com/roach88/births/internal/index"
	"github.com/roach88/births/internal/pipeline"
	"github.com/roach88/births/internal/validate"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Config string
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate existing reports against the written indexes",
		Long: `Re-run validation without resolving anything.

Newer sets are read back from the per-locale reports in the log directory
and checked against the indexes in the target directory, exactly as the
final step of generate does.

Example:
  births check --config ./births.cue`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "path to CUE config file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runCheck(opts *CheckOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose || cfg.Debug)

	newer, err := birth.ReadReportDir(cfg.Log, cfg.Baseline)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "cannot read reports", err)
	}
	formatter.VerboseLog("Read newer sets for %d locale(s) from %s", len(newer), cfg.Log)

	report, err := pipeline.Check(
		filepath.Join(cfg.Target, index.NewerFileName),
		filepath.Join(cfg.Target, index.PreviousFileName),
		cfg.ExemptPatterns(),
		newer,
		logger,
	)
	if err != nil {
		return inspectError(formatter, err)
	}

	if err := report.Err(); err != nil {
		return validationFailure(formatter, report, err)
	}

	return formatter.Emit(report, "", func(w io.Writer) {
		fmt.Fprintf(w, "✓ %d locale(s), %d newer key(s) checked\n", report.Locales, report.Checked)
	})
}

// validationFailure prints the findings and returns an ExitFailure error.
func validationFailure(formatter *OutputFormatter, report *validate.Report, err error) error {
	if formatter.Format == "json" {
		_ = formatter.Error(ErrCodeValidation, err.Error(), report)
		return WrapExitError(ExitFailure, ErrCodeValidation+": validation failed", err)
	}

	_ = formatter.Error(ErrCodeValidation, err.Error(), nil)
	w := formatter.Writer
	for _, d := range report.Disagreements {
		fmt.Fprintf(w, "  not outdated: %s\t%d\t%s\n", d.Locale, d.ID, d.Key)
	}
	if len(report.NeedsPrevious) > 0 {
		fmt.Fprintln(w, "  need previous:")
		for _, key := range report.NeedsPrevious {
			fmt.Fprintf(w, "    %s\n", key)
		}
	}
	return WrapExitError(ExitFailure, ErrCodeValidation+": validation failed", err)
}
