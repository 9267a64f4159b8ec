package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/zaqqye/tg_contact_form/internal/cli/output"
	"github.com/zaqqye/tg_contact_form/internal/submissions"
)

func newAnalyticsCmd(opts *rootOptions) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Print submission counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 || days > 365 {
				return fmt.Errorf("--days must be between 1 and 365")
			}
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			a, err := submissions.NewRepository(e.db).Analytics(context.Background(), days, time.Now())
			if err != nil {
				return err
			}
			if opts.format() == output.FormatJSON {
				return output.PrintJSON(cmd.OutOrStdout(), a)
			}

			w := cmd.OutOrStdout()
			summary := output.NewTableData("WINDOW", "REQUESTS")
			summary.AddRow("total", strconv.FormatInt(a.Total, 10))
			summary.AddRow("last 24h", strconv.FormatInt(a.Last24h, 10))
			summary.AddRow("last 7 days", strconv.FormatInt(a.Last7Days, 10))
			summary.AddRow("last 30 days", strconv.FormatInt(a.Last30Days, 10))
			if err := output.PrintTable(w, summary); err != nil {
				return err
			}
			fmt.Fprintln(w)

			daily := output.NewTableData("DATE", "REQUESTS")
			for _, d := range a.Daily {
				daily.AddRow(d.Date, strconv.FormatInt(d.Count, 10))
			}
			return output.PrintTable(w, daily)
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Days in the daily breakdown (1-365)")
	return cmd
}
