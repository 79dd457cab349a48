package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"docsort/internal/classify"
	"docsort/internal/logging"
)

func newCacheCommand(cmdCtx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the classification cache",
	}

	cacheCmd.AddCommand(newCacheShowCommand(cmdCtx))
	cacheCmd.AddCommand(newCacheClearCommand(cmdCtx))

	return cacheCmd
}

func newCacheShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show cached classifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			cache := classify.OpenCache(cfg.CachePath(), logging.NewNop())
			if cache.Len() == 0 {
				cmd.Println("Classification cache is empty.")
				return nil
			}

			entries := cache.Entries()
			hashes := make([]string, 0, len(entries))
			for hash := range entries {
				hashes = append(hashes, hash)
			}
			sort.Strings(hashes)

			rows := make([][]string, 0, len(hashes))
			for _, hash := range hashes {
				display := hash
				if len(display) > 16 {
					display = display[:16]
				}
				rows = append(rows, []string{display, entries[hash]})
			}
			cmd.Println(renderTable(
				[]string{"Content Hash", "Category"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			cmd.Printf("%d cached classification(s) in %s\n", cache.Len(), cfg.CachePath())
			return nil
		},
	}
}

func newCacheClearCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached classifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			cache := classify.OpenCache(cfg.CachePath(), logging.NewNop())
			count := cache.Len()
			if err := cache.Clear(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			cmd.Printf("Cleared %d cached classification(s).\n", count)
			return nil
		},
	}
}
