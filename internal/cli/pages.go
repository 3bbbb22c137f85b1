package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/f1metrix/internal/dashboard"
)

// shareBarWidth is the width of the head-to-head probability bar.
const shareBarWidth = 20

// NewAllTimeCommand creates the alltime command.
func NewAllTimeCommand(rootOpts *RootOptions) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "alltime",
		Short: "All-time ranking by conservative skill",
		Long: `Print the all-time driver ranking. Drivers are ranked by the conservative
lower bound of their baseline skill, which rewards sustained performance over
a single peak.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			t, err := a.Dashboard.AllTime(cmd.Context(), top)
			if err != nil {
				return formatter.Fail(err, "")
			}
			return formatter.Table(t)
		},
	}

	cmd.Flags().IntVar(&top, "top", dashboard.DefaultTop, fmt.Sprintf("number of drivers (max %d)", dashboard.MaxTop))

	return cmd
}

// NewYearlyCommand creates the yearly command.
func NewYearlyCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		year  int64
		limit int
	)

	cmd := &cobra.Command{
		Use:   "yearly",
		Short: "One season's pure skill ranking",
		Long: `Print the pure skill ranking of one season, adjusted for age and
experience. Without --year the latest season is shown.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			t, err := a.Dashboard.Yearly(cmd.Context(), year, limit)
			if err != nil {
				return formatter.Fail(err, "")
			}
			return formatter.Table(t)
		},
	}

	cmd.Flags().Int64Var(&year, "year", 0, "season (0 = latest)")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of drivers (0 = all)")

	return cmd
}

// NewPerformanceCommand creates the performance command.
func NewPerformanceCommand(rootOpts *RootOptions) *cobra.Command {
	var f dashboard.PerformanceFilter

	cmd := &cobra.Command{
		Use:   "performance",
		Short: "Race performances over expectation",
		Long: `Explore per-race performance over expectation: the actual result minus
the model's expected result. Prints the top overperformances for the filter.

Examples:
  f1metrix performance --driver "Fernando Alonso" --from 2020
  f1metrix performance --from 2021 --to 2021 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			view, err := a.Dashboard.Performance(cmd.Context(), f)
			if err != nil {
				return formatter.Fail(err, "")
			}
			if formatter.Format == "json" {
				return formatter.Success(view)
			}
			if view.Rows.Empty() {
				fmt.Fprintln(formatter.Writer, "No data found for the selected filters.")
				return nil
			}
			fmt.Fprintf(formatter.Writer, "Top %d overperformances, %d-%d\n", view.Top.Len(), view.FromYear, view.ToYear)
			return formatter.Table(view.Top)
		},
	}

	cmd.Flags().StringArrayVar(&f.Drivers, "driver", nil, "driver full name (repeatable)")
	cmd.Flags().Int64Var(&f.FromYear, "from", 0, "first season (0 = earliest)")
	cmd.Flags().Int64Var(&f.ToYear, "to", 0, "last season (0 = latest)")

	return cmd
}

// NewHeadToHeadCommand creates the h2h command.
func NewHeadToHeadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "h2h",
		Short:         "Predicted 2025 teammate head-to-heads",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			matchups, err := a.Dashboard.HeadToHead(cmd.Context())
			if err != nil {
				return formatter.Fail(err, "")
			}
			if formatter.Format == "json" {
				return formatter.Success(matchups)
			}

			rows := make([][]string, len(matchups))
			for i, m := range matchups {
				gap := ""
				if m.AvgGap != nil {
					gap = strconv.FormatFloat(*m.AvgGap, 'f', -1, 64)
				}
				rows[i] = []string{m.Constructor, m.Driver1, m.Driver1Prob, shareBar(m.Driver1Share), m.Driver2Prob, m.Driver2, gap, m.GapHDI}
			}
			fmt.Fprintln(formatter.Writer, RenderTable(
				[]string{"team", "driver 1", "p1", "", "p2", "driver 2", "avg gap", "94% HDI"}, rows))
			return nil
		},
	}
}

// shareBar draws share in [0, 1] as a fixed-width bar.
func shareBar(share float64) string {
	n := int(share*shareBarWidth + 0.5)
	return strings.Repeat("█", n) + strings.Repeat("░", shareBarWidth-n)
}

// NewInternalsCommand creates the internals command.
func NewInternalsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "internals",
		Short: "Model posterior summary and convergence",
		Long: fmt.Sprintf(`Print the posterior summary of the fitted model and flag parameters whose
r_hat exceeds %.2f.`, dashboard.RHatThreshold),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			view, err := a.Dashboard.Internals(cmd.Context())
			if err != nil {
				return formatter.Fail(err, "")
			}
			if formatter.Format == "json" {
				return formatter.Success(view)
			}
			if err := formatter.Table(view.Summary); err != nil {
				return err
			}
			if view.Converged() {
				fmt.Fprintf(formatter.Writer, "✓ All parameters converged (r_hat <= %.2f)\n", dashboard.RHatThreshold)
				return nil
			}
			fmt.Fprintf(formatter.Writer, "✗ %d %s not converged\n", len(view.Diagnostics), plural(len(view.Diagnostics), "parameter", "parameters"))
			for _, d := range view.Diagnostics {
				fmt.Fprintf(formatter.Writer, "  %s: r_hat %s\n", d.Parameter, strconv.FormatFloat(d.RHat, 'f', -1, 64))
			}
			return nil
		},
	}
}
