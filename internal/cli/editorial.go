package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/f1metrix/internal/catalog"
)

// NewEditorialCommand creates the editorial command group.
func NewEditorialCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "editorial",
		Short: "List and run the queries behind editorial posts",
	}
	cmd.AddCommand(newEditorialListCommand(rootOpts))
	cmd.AddCommand(newEditorialRunCommand(rootOpts))
	return cmd
}

func newEditorialListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List editorial queries, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditorialList(rootOpts, cmd)
		},
	}
}

func runEditorialList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	a, err := opts.openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	queries := a.Catalog.List()
	if formatter.Format == "json" {
		return formatter.Success(queries)
	}

	rows := make([][]string, len(queries))
	for i, q := range queries {
		rows[i] = []string{q.Date, q.Name, q.Title, describeParams(q.Params)}
	}
	fmt.Fprintln(formatter.Writer, RenderTable([]string{"date", "name", "title", "params"}, rows))
	return nil
}

// describeParams renders "name:type=default" pairs.
func describeParams(params []catalog.Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + ":" + string(p.Type)
		if p.Default != nil {
			parts[i] += "=" + *p.Default
		}
	}
	return strings.Join(parts, " ")
}

// EditorialRunOptions holds flags for the editorial run command.
type EditorialRunOptions struct {
	*RootOptions
	Params []string
}

func newEditorialRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditorialRunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run an editorial query",
		Long: `Run a named editorial query through the query cache.

Parameters without a value use their default. List parameters take
comma-separated values.

Examples:
  f1metrix editorial run rivals-by-season --param from=2018 --param drivers=1,830,844
  f1metrix editorial run season-top-ten -p year=2021 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEditorialRun(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "parameter as key=value (repeatable)")

	return cmd
}

func runEditorialRun(opts *EditorialRunOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	values, err := parseParams(opts.Params)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --param", err)
	}

	a, err := opts.openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	q, t, err := a.Editorial(cmd.Context(), name, values)
	if err != nil {
		return formatter.Fail(err, "")
	}

	if formatter.Format == "json" {
		return formatter.Success(t)
	}
	fmt.Fprintf(formatter.Writer, "%s (%s)\n", q.Title, q.Date)
	return formatter.Table(t)
}

// parseParams splits key=value flags. A repeated key keeps its last value.
func parseParams(params []string) (map[string]string, error) {
	values := make(map[string]string, len(params))
	for _, p := range params {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%q is not key=value", p)
		}
		values[k] = v
	}
	return values, nil
}
