package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"docsort/internal/history"
)

func newHistoryCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sorting runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.Paths.DataDir)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if len(runs) == 0 {
				cmd.Println("No recorded runs yet.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortRunID(run.ID),
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					run.State,
					run.Source,
					strconv.Itoa(run.Scanned),
					strconv.Itoa(run.Processed),
					strconv.Itoa(run.DuplicatesRemoved),
					strconv.Itoa(run.Skipped),
					formatElapsed(run.ElapsedMS),
				})
			}
			cmd.Println(renderTable(
				[]string{"Run", "Started", "State", "Source", "Scanned", "Sorted", "Dupes", "Skipped", "Elapsed"},
				rows,
				[]columnAlignment{
					alignLeft, alignLeft, alignLeft, alignLeft,
					alignRight, alignRight, alignRight, alignRight, alignRight,
				},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatElapsed(elapsedMS int64) string {
	return (time.Duration(elapsedMS) * time.Millisecond).Round(100 * time.Millisecond).String()
}
