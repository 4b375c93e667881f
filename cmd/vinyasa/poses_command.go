package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vinyasa/internal/config"
	"vinyasa/internal/library"
	"vinyasa/internal/textutil"
)

func newPosesCommand(ctx *commandContext) *cobra.Command {
	posesCmd := &cobra.Command{
		Use:   "poses",
		Short: "Manage the reference pose library",
	}

	posesCmd.AddCommand(newPosesListCommand(ctx))
	posesCmd.AddCommand(newPosesShowCommand(ctx))
	posesCmd.AddCommand(newPosesImportCommand(ctx))

	return posesCmd
}

func loadLibrary(ctx *commandContext) (*library.Library, *config.Config, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	lib, err := library.Load(cfg.Paths.LibraryPath, cfg.Detection.ScaleEpsilon, ctx.quietLogger())
	if err != nil {
		return nil, nil, err
	}
	return lib, cfg, nil
}

func newPosesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List reference poses and their exemplar counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, _, err := loadLibrary(ctx)
			if err != nil {
				return err
			}
			if lib.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "The pose library is empty. Import captures with `vinyasa poses import`.")
				return nil
			}

			defs, err := ctx.definitions()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, lib.Len())
			for _, label := range lib.Labels() {
				rows = append(rows, []string{
					label,
					textutil.HumanizeLabel(label),
					fmt.Sprintf("%d", len(lib.Exemplars(label))),
					fmt.Sprintf("%d", len(defs.Requirements(label))),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"LABEL", "NAME", "EXEMPLARS", "TRACKED ANGLES"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
}

func newPosesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show POSE",
		Short: "Show the angle requirements for one pose",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, _, err := loadLibrary(ctx)
			if err != nil {
				return err
			}

			label, ok := lib.Resolve(args[0])
			if !ok {
				if suggestion, found := lib.Suggest(args[0]); found {
					return fmt.Errorf("unknown pose %q (did you mean %q?)", args[0], suggestion)
				}
				return fmt.Errorf("unknown pose %q", args[0])
			}

			defs, err := ctx.definitions()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", textutil.HumanizeLabel(label), label)
			fmt.Fprintf(out, "Exemplars: %d\n", len(lib.Exemplars(label)))

			requirements := defs.Requirements(label)
			if len(requirements) == 0 {
				fmt.Fprintln(out, "No angle requirements are defined for this pose.")
				return nil
			}
			rows := make([][]string, 0, len(requirements))
			for _, req := range requirements {
				rows = append(rows, []string{
					req.Name,
					fmt.Sprintf("%.0f°–%.0f°", req.Min, req.Max),
					fmt.Sprintf("%.0f°", req.Optimal),
					fmt.Sprintf("±%.0f°", req.Tolerance),
					string(req.Direction),
					req.Description,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ANGLE", "RANGE", "OPTIMAL", "TOLERANCE", "BETTER", "DESCRIPTION"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newPosesImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Merge exemplar captures into the pose library",
		Long: "Import accepts either a full library document or a single capture\n" +
			"entry. The existing library file is backed up before the rewrite.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, cfg, err := loadLibrary(ctx)
			if err != nil {
				return err
			}

			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			added, err := lib.Import(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if added == 0 {
				fmt.Fprintln(out, "No new exemplars found in the import file.")
				return nil
			}
			fmt.Fprintf(out, "Imported %d exemplar(s) into %s (%d poses, %d exemplars total)\n",
				added, cfg.Paths.LibraryPath, lib.Len(), lib.ExemplarCount())
			return nil
		},
	}
}
