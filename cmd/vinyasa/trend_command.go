package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vinyasa/internal/angles"
	"vinyasa/internal/archive"
	"vinyasa/internal/textutil"
	"vinyasa/internal/tracker"
)

func newTrendCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "trend POSE ANGLE",
		Short: "Analyze recent movement for one pose angle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pose, angle := args[0], args[1]

			arch, err := openArchive(ctx)
			if err != nil {
				return err
			}
			defer arch.Close()

			events, err := arch.History(cmd.Context(), archive.HistoryQuery{Pose: pose, Angle: angle})
			if err != nil {
				return err
			}
			// History is newest first; trend analysis wants journal order.
			for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
				events[i], events[j] = events[j], events[i]
			}

			direction := angles.LargerIsBetter
			if defs, err := ctx.definitions(); err == nil {
				if req, ok := defs.Lookup(pose, angle); ok {
					direction = req.Direction
				}
			}

			report := tracker.Trend(events, direction, days)
			out := cmd.OutOrStdout()
			name := fmt.Sprintf("%s / %s", textutil.HumanizeLabel(pose), textutil.HumanizeLabel(angle))
			if report.State == tracker.TrendInsufficient {
				fmt.Fprintf(out, "%s: not enough data in the last %d days (%d measurements).\n",
					name, report.Days, report.DataPoints)
				return nil
			}
			fmt.Fprintf(out, "%s over the last %d days: %s\n", name, report.Days, report.State)
			fmt.Fprintf(out, "  Recent average: %.1f°\n", report.RecentMean)
			fmt.Fprintf(out, "  Change:         %+.1f°\n", report.Improvement)
			fmt.Fprintf(out, "  Measurements:   %d\n", report.DataPoints)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", tracker.DefaultTrendDays, "Trailing window in days")
	return cmd
}
