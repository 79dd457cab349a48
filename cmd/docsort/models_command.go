package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newModelsCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models available on the Ollama server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			client := cmdCtx.newOllamaClient(cfg, "")
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			models, err := client.ListModels(ctx)
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}
			if len(models) == 0 {
				cmd.Printf("No models installed on %s.\n", cfg.Ollama.BaseURL)
				return nil
			}

			rows := make([][]string, 0, len(models))
			for _, name := range models {
				marker := ""
				if name == cfg.Ollama.Model {
					marker = "*"
				}
				rows = append(rows, []string{marker, name})
			}
			cmd.Println(renderTable(
				[]string{"", "Model"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			cmd.Printf("* configured model (%s)\n", cfg.Ollama.Model)
			return nil
		},
	}
}
