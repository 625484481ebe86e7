package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shuttersort/internal/oplog"
	"shuttersort/internal/organize"
	"shuttersort/internal/runlock"
	"shuttersort/internal/stats"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var (
		sourceFlag string
		targetFlag string
		dryRun     bool
		moveFiles  bool
		noJournal  bool
	)

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Sort media files from the source tree into dated target folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("dry-run") {
				cfg.Safety.DryRun = dryRun
			}
			if cmd.Flags().Changed("move") {
				cfg.Processing.MoveFiles = moveFiles
			}

			source := cfg.Paths.SourceDir
			if sourceFlag != "" {
				source = sourceFlag
			}
			target := cfg.Paths.TargetDir
			if targetFlag != "" {
				target = targetFlag
			}
			if source == "" || target == "" {
				return errors.New("source and target directories must be set via flags or config")
			}

			logger, err := ctx.buildLogger(cfg)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create target directory: %w", err)
			}
			lock := runlock.New(target)
			if err := lock.Acquire(); err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			opts := []organize.Option{}
			var store *oplog.Store
			if !noJournal {
				store, err = oplog.Open(cfg)
				if err != nil {
					return fmt.Errorf("open journal: %w", err)
				}
				defer store.Close()
				opts = append(opts, organize.WithJournal(store))
			}

			organizer, err := organize.New(cfg, logger, opts...)
			if err != nil {
				return err
			}

			// First interrupt stops admitting new batches; in-flight work
			// finishes and is accounted before exit.
			signals := make(chan os.Signal, 1)
			signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(signals)
			go func() {
				<-signals
				fmt.Fprintln(cmd.ErrOrStderr(), "interrupt received, finishing current batch...")
				organizer.Cancel()
			}()

			snapshot, err := organizer.Organize(cmd.Context(), source, target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSummary(snapshot, cfg.Safety.DryRun, colorizeFor(out)))

			if store != nil && snapshot.Counters[stats.Errors] > 0 {
				printFailures(cmd, store)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceFlag, "source", "s", "", "Source directory (overrides config)")
	cmd.Flags().StringVarP(&targetFlag, "target", "t", "", "Target directory (overrides config)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Log planned operations without touching files")
	cmd.Flags().BoolVar(&moveFiles, "move", false, "Move files instead of copying them")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "Skip recording the run in the journal database")
	return cmd
}

func printFailures(cmd *cobra.Command, store *oplog.Store) {
	runs, err := store.RecentRuns(cmd.Context(), 1)
	if err != nil || len(runs) == 0 {
		return
	}
	failures, err := store.Failed(cmd.Context(), runs[0].ID)
	if err != nil {
		return
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%d file(s) failed:\n", len(failures))
	rows := make([][]string, 0, len(failures))
	for _, op := range failures {
		rows = append(rows, []string{op.SourcePath, op.ErrMessage})
	}
	fmt.Fprintln(out, renderTable([]string{"File", "Error"}, rows, nil))
}
