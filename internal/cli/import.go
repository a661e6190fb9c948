package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/births/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <fixtures-dir>",
		Short: "Load release snapshots into the store",
		Long: `Import YAML snapshot files into the SQLite snapshot store.

The directory holds one subdirectory per release, each with one
<locale>.yaml file mapping item keys to values. A null value records a key
that is present but has no text. Importing a snapshot replaces any snapshot
already stored for the same release and locale.

Example:
  births import --db ./births.db ./releases`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(opts *ImportOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("fixtures directory not found: %s", dir), err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer st.Close()

	formatter.VerboseLog("Importing %s into %s", dir, opts.Database)
	summary, err := store.ImportFixtures(commandContext(cmd), dir, st)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeImportFailed, "import failed", err)
	}

	return formatter.Emit(summary, "", func(w io.Writer) {
		fmt.Fprintf(w, "✓ Imported %d snapshot(s) across %d release(s), %d value(s)\n",
			summary.Snapshots, summary.Versions, summary.Values)
	})
}
