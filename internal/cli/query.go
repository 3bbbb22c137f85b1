package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/f1metrix/internal/gateway"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run an ad-hoc SELECT query",
		Long: `Run a free-text SQL query against the results database.

Only text beginning with SELECT is accepted, and the query runs on a
read-only connection. Results are never cached. There is no timeout or row
limit. Engine errors are printed verbatim.

Examples:
  f1metrix query "SELECT * FROM model_summary WHERE r_hat > 1.01"
  f1metrix query select forename, surname from driver_all_time_u0_ranking_conservative --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, strings.Join(args, " "), cmd)
		},
	}
}

func runQuery(opts *RootOptions, text string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	a, err := opts.openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	res, err := a.Gateway.Run(cmd.Context(), text)
	if err != nil {
		var qe *gateway.QueryError
		traceID := ""
		if errors.As(err, &qe) {
			traceID = qe.ID
		}
		return formatter.Fail(err, traceID)
	}

	if formatter.Format == "json" {
		return formatter.SuccessWithTrace(res, res.ID)
	}

	fmt.Fprintln(formatter.Writer, RenderTable(res.Table.ColumnNames(), res.Table.Strings()))
	fmt.Fprintf(formatter.Writer, "(%d %s in %s)\n", res.RowCount, plural(res.RowCount, "row", "rows"), res.Elapsed.Round(time.Microsecond))
	formatter.VerboseLog("query id: %s", res.ID)
	return nil
}
