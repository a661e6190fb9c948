package cli

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/births/internal/index"
	"github.com/roach88/births/internal/ir"
	"github.com/roach88/births/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Kind     string // "newer" | "previous"
	Run      string
	Database string
}

// NewerLocale is one locale of a decoded newer index.
type NewerLocale struct {
	Locale string     `json:"locale"`
	IDs    []ir.KeyID `json:"ids"`
}

// PreviousEntry is one entry of a decoded previous-value index.
type PreviousEntry struct {
	ID       ir.KeyID `json:"id"`
	Previous string   `json:"previous"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect [index-file]",
		Short: "Decode a binary index or show a recorded run",
		Long: `Decode a newer index (outdated.data) or a previous-value index
(outdatedEnglish.data) and print its contents.

With --run, print the run recorded under that id in the store instead.

Example:
  births inspect --kind newer ./data/outdated.data
  births inspect --kind previous ./data/outdatedEnglish.data --format json
  births inspect --run 0190a6e0-... --db ./births.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Run != "" {
				return runInspectRun(opts, args, cmd)
			}
			if len(args) != 1 {
				return NewExitError(ExitCommandError, fmt.Sprintf("accepts 1 arg(s), received %d", len(args)))
			}
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "newer", "index kind (newer|previous)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show the recorded run with this id")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (with --run)")

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	switch opts.Kind {
	case "newer":
		newer, err := index.ReadNewerFile(path)
		if err != nil {
			return inspectError(formatter, err)
		}
		locales := make([]NewerLocale, 0, len(newer))
		for locale, ids := range newer {
			locales = append(locales, NewerLocale{Locale: locale, IDs: ids})
		}
		slices.SortFunc(locales, func(a, b NewerLocale) int {
			return cmp.Compare(a.Locale, b.Locale)
		})

		return formatter.Emit(locales, "", func(w io.Writer) {
			for _, l := range locales {
				fmt.Fprintf(w, "%s\t%d\n", l.Locale, len(l.IDs))
				if opts.Verbose {
					for _, id := range l.IDs {
						fmt.Fprintf(w, "\t%d\n", id)
					}
				}
			}
		})

	case "previous":
		previous, err := index.ReadPreviousFile(path)
		if err != nil {
			return inspectError(formatter, err)
		}
		entries := make([]PreviousEntry, 0, len(previous))
		for id, text := range previous {
			entries = append(entries, PreviousEntry{ID: id, Previous: text})
		}
		slices.SortFunc(entries, func(a, b PreviousEntry) int {
			return cmp.Compare(a.ID, b.ID)
		})

		return formatter.Emit(entries, "", func(w io.Writer) {
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\n", e.ID, e.Previous)
			}
		})

	default:
		return formatter.Fail(ExitCommandError, ErrCodeInvalidOption,
			fmt.Sprintf("invalid kind %q: must be newer or previous", opts.Kind), nil)
	}
}

func runInspectRun(opts *InspectOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if len(args) > 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidOption, "--run takes no index file", nil)
	}
	if opts.Database == "" {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidOption, "--run requires --db", nil)
	}
	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer st.Close()

	run, err := st.ReadRun(commandContext(cmd), opts.Run)
	if errors.Is(err, store.ErrRunNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("no run %s", opts.Run), err)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to read run", err)
	}

	return formatter.Emit(RunView(run), run.ID, func(w io.Writer) {
		fmt.Fprintf(w, "run %s\n", run.ID)
		fmt.Fprintf(w, "  status    %s\n", run.Status)
		fmt.Fprintf(w, "  baseline  %s\n", run.Baseline)
		fmt.Fprintf(w, "  versions  %s\n", run.Versions)
		fmt.Fprintf(w, "  tool      %s\n", run.ToolVersion)
		fmt.Fprintf(w, "  locales   %d\n", run.Locales)
		fmt.Fprintf(w, "  newer     %d\n", run.NewerTotal)
		fmt.Fprintf(w, "  errors    %d\n", run.ErrorCount)
		if run.Message != "" {
			fmt.Fprintf(w, "  message   %s\n", run.Message)
		}
	})
}

// RunView is the JSON shape of a recorded run.
type RunView struct {
	ID          string `json:"id"`
	Baseline    string `json:"baseline"`
	Versions    string `json:"versions"`
	ToolVersion string `json:"tool_version"`
	Status      string `json:"status"`
	Locales     int    `json:"locales"`
	NewerTotal  int    `json:"newer_total"`
	ErrorCount  int    `json:"error_count"`
	Message     string `json:"message,omitempty"`
}

func inspectError(formatter *OutputFormatter, err error) error {
	if errors.Is(err, index.ErrCorrupt) {
		return formatter.Fail(ExitCommandError, ErrCodeIndexCorrupt, "index is corrupt", err)
	}
	return formatter.Fail(ExitCommandError, ErrCodeNotFound, "cannot read index", err)
}
