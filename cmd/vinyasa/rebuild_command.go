package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vinyasa/internal/archive"
	"vinyasa/internal/tracker"
)

func newRebuildCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute aggregates and the practice archive from the event journal",
		Long: "Rebuild replays events.jsonl to recompute the personal-best and\n" +
			"daily-best snapshots, then refills the sqlite practice archive from\n" +
			"the journal and the session documents. The journal is authoritative;\n" +
			"this is the recovery path after a corrupted snapshot or archive.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.store(ctx.quietLogger())
			if err != nil {
				return err
			}

			events, err := store.LoadEvents()
			if err != nil {
				return fmt.Errorf("load event journal: %w", err)
			}

			defs, err := ctx.definitions()
			if err != nil {
				return err
			}
			trk := tracker.New(defs, tracker.Options{WindowDays: cfg.Tracking.WindowDays}, ctx.quietLogger())
			trk.RecomputeFromLog(events)

			if err := store.SavePersonalBests(trk.PersonalBests()); err != nil {
				return fmt.Errorf("write personal bests snapshot: %w", err)
			}
			if err := store.SaveDailyBests(trk.DailyBests()); err != nil {
				return fmt.Errorf("write daily bests snapshot: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Replayed %d event(s) across %d tracked angle(s)\n", len(events), len(trk.Keys()))

			if !cfg.Archive.Enabled {
				fmt.Fprintln(out, "Practice archive is disabled; snapshots only.")
				return nil
			}

			arch, err := archive.Open(cfg.Archive.Path)
			if err != nil {
				return fmt.Errorf("open practice archive: %w", err)
			}
			defer arch.Close()

			runCtx := cmd.Context()
			if err := arch.Clear(runCtx); err != nil {
				return err
			}
			if err := arch.IndexEvents(runCtx, events); err != nil {
				return err
			}

			sessions, err := store.ListSessions()
			if err != nil {
				return fmt.Errorf("list session documents: %w", err)
			}
			for _, info := range sessions {
				if err := arch.IndexSession(runCtx, info); err != nil {
					return fmt.Errorf("index session %s: %w", info.SessionID, err)
				}
			}

			counts, err := arch.Count(runCtx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Archive rebuilt: %d event(s), %d session(s) at %s\n",
				counts.Events, counts.Sessions, cfg.Archive.Path)
			return nil
		},
	}
}
