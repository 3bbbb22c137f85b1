package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the results database",
		Long: `List the tables and views in the model results database with their
row counts. Tables with a declared schema are validated when loaded.

Example:
  f1metrix tables --db ./model_results.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(rootOpts, cmd)
		},
	}
}

func runTables(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	a, err := opts.openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	tables, err := a.Tables(cmd.Context())
	if err != nil {
		return formatter.Fail(err, "")
	}

	if formatter.Format == "json" {
		return formatter.Success(tables)
	}

	rows := make([][]string, len(tables))
	for i, t := range tables {
		declared := ""
		if t.Declared {
			declared = "✓"
		}
		rows[i] = []string{t.Name, t.Type, strconv.FormatInt(t.Rows, 10), declared, t.Description}
	}
	fmt.Fprintln(formatter.Writer, RenderTable([]string{"name", "type", "rows", "schema", "description"}, rows))
	return nil
}

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Head int
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <table>",
		Short: "Print a cached table",
		Long: `Load a table through the query cache and print it.

A table that does not exist is reported as an error, never as an empty
result.

Examples:
  f1metrix show model_summary
  f1metrix show driver_all_time_u0_ranking_conservative --head 10 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Head, "head", "n", 0, "print only the first N rows (0 = all)")

	return cmd
}

func runShow(opts *ShowOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if opts.Head < 0 {
		return NewExitError(ExitCommandError, "--head must not be negative")
	}

	a, err := opts.openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	t, err := a.Cache.Load(cmd.Context(), name)
	if err != nil {
		return formatter.Fail(err, "")
	}
	if opts.Head > 0 {
		t = t.Head(opts.Head)
	}
	return formatter.Table(t)
}
