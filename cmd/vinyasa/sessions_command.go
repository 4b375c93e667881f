package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded practice sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, err := openArchive(ctx)
			if err != nil {
				return err
			}
			defer arch.Close()

			sessions, err := arch.Sessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(sessions))
			for _, row := range sessions {
				duration := time.Duration(row.DurationSecs * float64(time.Second)).Truncate(time.Second)
				rows = append(rows, []string{
					row.SessionID,
					row.Start.Local().Format("2006-01-02 15:04"),
					duration.String(),
					fmt.Sprintf("%d", row.Measurements),
					fmt.Sprintf("%d", row.PersonalBest),
					fmt.Sprintf("%.0f", row.AverageForm),
					strings.Join(row.Poses, ", "),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"SESSION", "STARTED", "DURATION", "MEASURED", "BESTS", "FORM", "POSES"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum sessions to show (0 shows all)")
	return cmd
}
