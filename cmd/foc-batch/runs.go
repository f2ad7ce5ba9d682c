package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/foc-extractor/internal/repository"
	"github.com/joseph-ayodele/foc-extractor/internal/server"
)

func runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent batch runs from the history database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := server.ConnectDB(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer server.CloseDB(db, logger)

			runs, err := repository.NewRunRepository(db).ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "BATCH\tSTATUS\tSTARTED\tDOCS\tFAILED\tFOC\tSOURCE")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					r.ID, r.Status, r.StartedAt.Local().Format("2006-01-02 15:04"),
					r.Stats.Documents, r.Stats.Failed, r.Stats.FOC, r.Source)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}
