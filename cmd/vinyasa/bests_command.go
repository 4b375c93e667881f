package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vinyasa/internal/tracker"
)

func newBestsCommand(ctx *commandContext) *cobra.Command {
	var daily bool

	cmd := &cobra.Command{
		Use:   "bests",
		Short: "Show personal best angles per pose",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.store(ctx.quietLogger())
			if err != nil {
				return err
			}

			var bests []tracker.Best
			if daily {
				bests, err = store.LoadDailyBests()
			} else {
				bests, err = store.LoadPersonalBests()
			}
			if err != nil {
				return err
			}
			if len(bests) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bests recorded yet. Run a coaching session first.")
				return nil
			}

			rows := make([][]string, 0, len(bests))
			for _, best := range bests {
				rows = append(rows, []string{
					best.Pose,
					best.Angle,
					fmt.Sprintf("%.1f°", best.Value),
					best.Date,
					best.SessionID,
				})
			}
			title := "BEST"
			if daily {
				title = "BEST (DAY)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"POSE", "ANGLE", title, "DATE", "SESSION"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&daily, "daily", false, "Show per-day bests instead of all-time bests")
	return cmd
}
