package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wilhg/designgate/pkg/errmodel"
	"github.com/wilhg/designgate/pkg/store/entstore"
)

func newHistoryCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent operation runs from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Journal.DatabaseURL == "" {
				return errmodel.Configuration("missing_database_url", "the journal needs DATABASE_URL", nil)
			}
			st, err := entstore.Open(cmd.Context(), cfg.Journal.DatabaseURL)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			runs, err := st.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tOPERATION\tSTATUS\tSTEPS\tDURATION\tARGUMENT")
			for _, r := range runs {
				status := "ok"
				if !r.OK {
					status = "error:" + r.ErrorCategory
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
					r.StartedAt.Local().Format(time.DateTime), r.Operation, status, r.Steps,
					r.Duration.Round(time.Millisecond), r.Argument)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}
