package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"shuttersort/internal/oplog"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var showFailed string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent organizing runs from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := oplog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if showFailed != "" {
				failures, err := store.Failed(cmd.Context(), showFailed)
				if err != nil {
					return err
				}
				if len(failures) == 0 {
					fmt.Fprintln(out, "No failed operations for that run.")
					return nil
				}
				rows := make([][]string, 0, len(failures))
				for _, op := range failures {
					rows = append(rows, []string{op.SourcePath, op.Operation, op.ErrMessage})
				}
				fmt.Fprintln(out, renderTable([]string{"File", "Operation", "Error"}, rows, nil))
				return nil
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				state := "running"
				if run.FinishedAt != nil {
					state = humanize.Time(*run.FinishedAt)
				}
				rows = append(rows, []string{
					run.ID,
					run.SourceDir,
					humanize.Comma(run.Processed),
					humanize.Comma(run.Errors),
					humanize.Bytes(uint64(run.Bytes)),
					state,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Source", "Processed", "Errors", "Bytes", "Finished"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Number of runs to display")
	cmd.Flags().StringVar(&showFailed, "failed", "", "Show failed operations for the given run id")
	return cmd
}
