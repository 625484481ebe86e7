package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shuttersort/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check configured directories and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cfg)
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to check: no directories configured.")
				return nil
			}

			rows := make([][]string, 0, len(results))
			failed := 0
			for _, result := range results {
				state := "ok"
				if !result.Passed {
					state = "unavailable"
					failed++
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Check", "State", "Detail"}, rows, nil))
			if failed > 0 {
				fmt.Fprintf(out, "%d check(s) unavailable\n", failed)
			}
			return nil
		},
	}
}
