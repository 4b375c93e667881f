package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vinyasa/internal/config"
	"vinyasa/internal/feedback"
	"vinyasa/internal/logging"
	"vinyasa/internal/posesource"
	"vinyasa/internal/preflight"
	"vinyasa/internal/session"
	"vinyasa/internal/textutil"
)

func newCoachCommand(ctx *commandContext) *cobra.Command {
	var replayPath string
	var waitCamera bool
	var noSpeech bool
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "coach",
		Short: "Run a live coaching session against the configured pose source",
		Long: "Coach reads keypoint frames from the configured source, matches them\n" +
			"against the reference pose library, grades joint angles, records\n" +
			"measurements, and speaks at most one piece of feedback per frame.\n" +
			"Stop with Ctrl-C; the session summary is written and narrated on exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(replayPath) != "" {
				cfg.Source.Kind = "replay"
				cfg.Source.ReplayPath = replayPath
			}
			if waitCamera {
				cfg.Source.WaitCamera = true
			}
			if noSpeech {
				cfg.Narrator.Enabled = false
				cfg.Narrator.SpeakSummary = false
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			if !skipPreflight {
				if err := runPreflight(out, cfg, colorize); err != nil {
					return err
				}
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}
			logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
				Dir:     cfg.Paths.LogDir,
				Pattern: "*.log",
				Exclude: []string{filepath.Join(cfg.Paths.LogDir, "vinyasa.log")},
			})

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			engine, err := session.New(cfg, session.Options{}, logger)
			if err != nil {
				return err
			}

			store, err := ctx.store(logger)
			if err != nil {
				return err
			}
			source, err := posesource.New(runCtx, cfg, store, logger)
			if err != nil {
				// The lock is already held; release it through Close.
				_, _ = engine.Close()
				return err
			}
			defer source.Close()

			fmt.Fprintf(out, "Session %s started. Press Ctrl-C to finish.\n", engine.SessionID())

			display := newLiveDisplay(out, colorize)
			runErr := engine.RunWith(runCtx, source, func(candidate *feedback.Candidate) {
				display.cycle(engine.Status(), candidate)
			})
			display.done()

			summary, closeErr := engine.Close()
			printSummary(out, summary, colorize)
			if runErr != nil {
				return runErr
			}
			return closeErr
		},
	}

	cmd.Flags().StringVar(&replayPath, "replay", "", "Replay a recorded session document instead of the configured source")
	cmd.Flags().BoolVar(&waitCamera, "wait-camera", false, "Wait for a video4linux device before connecting")
	cmd.Flags().BoolVar(&noSpeech, "no-speech", false, "Disable spoken feedback for this session")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip environment checks")
	return cmd
}

func runPreflight(out io.Writer, cfg *config.Config, colorize bool) error {
	results := preflight.RunAll(cfg)
	failed := 0
	for _, line := range renderSectionHeader("Preflight", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, result := range results {
		kind := statusOK
		if !result.Passed {
			kind = statusError
			failed++
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	if failed > 0 {
		return fmt.Errorf("%d preflight check(s) failed", failed)
	}
	return nil
}

// liveDisplay keeps one rewritable status line on a terminal and prints
// chosen feedback above it. On a non-terminal it only prints feedback.
type liveDisplay struct {
	out      io.Writer
	colorize bool
	active   bool
}

func newLiveDisplay(out io.Writer, colorize bool) *liveDisplay {
	return &liveDisplay{out: out, colorize: colorize}
}

func (d *liveDisplay) cycle(status session.Status, candidate *feedback.Candidate) {
	if candidate != nil {
		d.clear()
		line := fmt.Sprintf("  [%s] %s", candidate.Kind, candidate.Message)
		if d.colorize {
			line = ansiGreen + line + ansiReset
		}
		fmt.Fprintln(d.out, line)
		if candidate.Tip != "" {
			fmt.Fprintf(d.out, "        %s\n", candidate.Tip)
		}
	}
	if !d.colorize {
		return
	}
	pose := status.Pose
	if pose == "" {
		pose = "no pose"
	} else {
		pose = textutil.HumanizeLabel(pose)
	}
	fmt.Fprintf(d.out, "\r\x1b[2K  %s  conf %.2f  form %.0f  frames %d  %s",
		pose, status.Confidence, status.FormScore, status.Frames,
		status.Elapsed.Truncate(time.Second))
	d.active = true
}

func (d *liveDisplay) clear() {
	if d.active {
		fmt.Fprint(d.out, "\r\x1b[2K")
		d.active = false
	}
}

func (d *liveDisplay) done() {
	if d.active {
		fmt.Fprintln(d.out)
		d.active = false
	}
}

func printSummary(out io.Writer, summary session.Summary, colorize bool) {
	for _, line := range renderSectionHeader("Session summary", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Session", statusInfo, summary.SessionID, colorize))
	fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, summary.Duration.Truncate(time.Second).String(), colorize))
	fmt.Fprintln(out, renderStatusLine("Frames", statusInfo,
		fmt.Sprintf("%d (%d with a detected pose)", summary.TotalFrames, summary.DetectedFrames), colorize))
	fmt.Fprintln(out, renderStatusLine("Measurements", statusInfo, fmt.Sprintf("%d", summary.Measurements), colorize))
	fmt.Fprintln(out, renderStatusLine("Personal bests", statusOK, fmt.Sprintf("%d", summary.PersonalBests), colorize))
	fmt.Fprintln(out, renderStatusLine("Daily bests", statusOK, fmt.Sprintf("%d", summary.DailyBests), colorize))
	fmt.Fprintln(out, renderStatusLine("Improvements", statusOK, fmt.Sprintf("%d", summary.Improvements), colorize))
	if summary.FormGrade != "" && summary.FormGrade != "No data" {
		fmt.Fprintln(out, renderStatusLine("Average form", statusInfo,
			fmt.Sprintf("%.1f (%s)", summary.AverageForm, summary.FormGrade), colorize))
	}
	if len(summary.PosesPracticed) > 0 {
		names := make([]string, len(summary.PosesPracticed))
		for i, label := range summary.PosesPracticed {
			names[i] = fmt.Sprintf("%s (%d)", textutil.HumanizeLabel(label), summary.PoseCounts[label])
		}
		fmt.Fprintln(out, renderStatusLine("Poses", statusInfo, strings.Join(names, ", "), colorize))
	}
	if summary.DocumentPath != "" {
		fmt.Fprintln(out, renderStatusLine("Recording", statusInfo, summary.DocumentPath, colorize))
	}
	fmt.Fprintln(out, summary.Message)
}
