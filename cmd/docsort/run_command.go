package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"docsort/internal/classify"
	"docsort/internal/dedupe"
	"docsort/internal/history"
	"docsort/internal/logging"
	"docsort/internal/mover"
	"docsort/internal/sampler"
	"docsort/internal/services"
	"docsort/internal/sorter"
	"docsort/internal/taxonomy"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		sourceFlag     string
		destFlag       string
		categoriesFlag []string
		dedupeFlag     string
		modelFlag      string
		maxDepthFlag   int
		workersFlag    int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sort a folder of documents",
		Long: `Sort the files of a source folder into category subdirectories of the
destination. With --category flags the taxonomy is fixed; without them the
inference service proposes one from the files it sees.

SIGINT cancels the run; on Unix, SIGUSR1 toggles pause.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}

			mode, err := dedupe.ParseMode(firstNonEmpty(dedupeFlag, cfg.Sorting.DedupeMode))
			if err != nil {
				return err
			}
			maxDepth := maxDepthFlag
			if maxDepth == 0 {
				maxDepth = cfg.Sorting.MaxDepth
			}
			workers := workersFlag
			if workers == 0 {
				workers = cfg.Sorting.Workers
			}
			categories := categoriesFlag
			if len(categories) == 0 {
				categories = cfg.Sorting.Categories
			}
			model := firstNonEmpty(modelFlag, cfg.Ollama.Model)

			// One run at a time: concurrent runs would race on the cache
			// file and the destination tree.
			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another docsort run is already in progress (lock: %s)", cfg.LockPath())
			}
			defer lock.Unlock()

			client := ctx.newOllamaClient(cfg, model)
			healthCtx, cancelHealth := context.WithTimeout(cmd.Context(), 5*time.Second)
			if err := client.Health(healthCtx); err != nil {
				logger.Warn("inference service unavailable, files will use fallback categories",
					logging.Error(err))
			}
			cancelHealth()

			store, err := history.Open(cfg.Paths.DataDir)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			cache := classify.OpenCache(cfg.CachePath(), logger)
			deps := sorter.Deps{
				Dedupe:   dedupe.NewEngine(mode, logger),
				Resolver: taxonomy.NewResolver(client, maxDepth, logger,
					taxonomy.WithSynthesisTimeout(time.Duration(cfg.Ollama.TaxonomyTimeoutSeconds)*time.Second)),
				Classifier: classify.New(client, sampler.New(logger, workers), cache, logger,
					classify.WithRequestTimeout(time.Duration(cfg.Ollama.TimeoutSeconds)*time.Second)),
				Mover:    mover.New(destFlag, logger),
				Cache:    cache,
				Recorder: store,
				Logger:   logger,
			}
			pipeline, err := sorter.NewPipeline(sorter.Options{
				Source:     sourceFlag,
				Dest:       destFlag,
				DedupeMode: mode,
				Categories: categories,
				MaxDepth:   maxDepth,
				Workers:    workers,
				Model:      model,
			}, deps)
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			stopPause := notifyPauseToggle(pipeline.Session(), logger)
			defer stopPause()

			stats, err := pipeline.Run(runCtx)
			if err != nil {
				if !services.IsRecoverable(err) {
					return fmt.Errorf("invalid run configuration: %w", err)
				}
				return err
			}
			printRunSummary(cmd, stats)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceFlag, "source", "s", "", "Folder to sort")
	cmd.Flags().StringVarP(&destFlag, "dest", "d", "", "Destination folder for sorted files")
	cmd.Flags().StringArrayVar(&categoriesFlag, "category", nil, "Static category (repeatable, nested with '/')")
	cmd.Flags().StringVar(&dedupeFlag, "dedupe", "", "Dedupe mode: none, exact or name-size")
	cmd.Flags().StringVar(&modelFlag, "model", "", "Override the configured inference model")
	cmd.Flags().IntVar(&maxDepthFlag, "max-depth", 0, "Maximum category nesting depth")
	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Classification worker count")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("dest")
	return cmd
}

func printRunSummary(cmd *cobra.Command, stats sorter.Stats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s %s\n", stats.RunID, stats.State)
	fmt.Fprintln(out, renderTable(
		[]string{"Scanned", "Duplicates removed", "Sorted", "Cache hits", "Fallbacks", "Skipped", "Categories", "Elapsed"},
		[][]string{{
			fmt.Sprintf("%d", stats.ScannedFiles),
			fmt.Sprintf("%d", stats.DuplicatesRemoved),
			fmt.Sprintf("%d", stats.ProcessedFiles),
			fmt.Sprintf("%d", stats.CacheHits),
			fmt.Sprintf("%d", stats.Fallbacks),
			fmt.Sprintf("%d", stats.SkippedFiles),
			fmt.Sprintf("%d", stats.CategoriesUsed),
			stats.Elapsed.Round(time.Millisecond).String(),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
