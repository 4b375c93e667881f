package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vinyasa/internal/archive"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var poseFlag string
	var angleFlag string
	var days int
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded angle measurements, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, err := openArchive(ctx)
			if err != nil {
				return err
			}
			defer arch.Close()

			query := archive.HistoryQuery{
				Pose:  poseFlag,
				Angle: angleFlag,
				Limit: limit,
			}
			if days > 0 {
				query.Since = time.Now().AddDate(0, 0, -days)
			}
			events, err := arch.History(cmd.Context(), query)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No measurements recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(events))
			for _, event := range events {
				rows = append(rows, []string{
					event.Timestamp.Local().Format("2006-01-02 15:04:05"),
					event.Pose,
					event.Angle,
					fmt.Sprintf("%.1f°", event.Value),
					event.SessionID,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"RECORDED", "POSE", "ANGLE", "VALUE", "SESSION"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&poseFlag, "pose", "", "Filter by pose label")
	cmd.Flags().StringVar(&angleFlag, "angle", "", "Filter by angle name")
	cmd.Flags().IntVar(&days, "days", 0, "Only show measurements from the last N days")
	cmd.Flags().IntVar(&limit, "limit", 25, "Maximum rows to show (0 shows all)")
	return cmd
}

// openArchive opens the configured sqlite index, with a pointer at rebuild
// when it is disabled or missing.
func openArchive(ctx *commandContext) (*archive.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Archive.Enabled {
		return nil, fmt.Errorf("the practice archive is disabled (archive.enabled = false); history, trend, and sessions need it")
	}
	arch, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		return nil, fmt.Errorf("open practice archive %s: %w (run `vinyasa rebuild` to create it)", cfg.Archive.Path, err)
	}
	return arch, nil
}
