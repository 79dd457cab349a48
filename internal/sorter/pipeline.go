package sorter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"docsort/internal/classify"
	"docsort/internal/dedupe"
	"docsort/internal/fingerprint"
	"docsort/internal/history"
	"docsort/internal/logging"
	"docsort/internal/mover"
	"docsort/internal/services"
	"docsort/internal/taxonomy"
)

// Options describes one sorting run.
type Options struct {
	Source     string
	Dest       string
	DedupeMode dedupe.Mode
	// Categories switches the run to a static taxonomy when non-empty.
	Categories []string
	MaxDepth   int
	// Workers overrides the classification worker count when positive.
	Workers int
	// Model is recorded in run history only; the client owns the actual
	// model selection.
	Model string
}

// Recorder persists a finished run. The pipeline treats recording as best
// effort.
type Recorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Deps carries the pipeline's collaborators.
type Deps struct {
	Dedupe     *dedupe.Engine
	Resolver   *taxonomy.Resolver
	Classifier *classify.Classifier
	Mover      *mover.Mover
	Cache      *classify.Cache
	Recorder   Recorder
	Logger     *slog.Logger
}

// Stats aggregates the outcome of a run.
type Stats struct {
	RunID             string
	State             State
	ScannedFiles      int
	DuplicatesRemoved int
	ProcessedFiles    int
	CacheHits         int
	Fallbacks         int
	SkippedFiles      int
	CategoriesUsed    int
	Elapsed           time.Duration
}

// Pipeline executes a sorting run as a linear state machine with a
// concurrent processing phase.
type Pipeline struct {
	opts    Options
	deps    Deps
	session *Session
	logger  *slog.Logger
}

// NewPipeline validates options and assembles a pipeline around a fresh
// session.
func NewPipeline(opts Options, deps Deps) (*Pipeline, error) {
	if deps.Dedupe == nil || deps.Resolver == nil || deps.Classifier == nil || deps.Mover == nil || deps.Cache == nil {
		return nil, services.Wrap(services.ErrConfiguration, "sorter", "new", "missing dependency", nil)
	}
	if opts.MaxDepth < 1 {
		return nil, services.Wrap(services.ErrConfiguration, "sorter", "new", "max depth must be at least 1", nil)
	}
	session := NewSession()
	logger := logging.NewComponentLogger(deps.Logger, "sorter").With(
		logging.String(logging.FieldRunID, session.RunID()))
	return &Pipeline{opts: opts, deps: deps, session: session, logger: logger}, nil
}

// Session exposes the run's pause and cancellation surface.
func (p *Pipeline) Session() *Session { return p.session }

// Run executes the pipeline to a terminal state. Cancellation yields
// StateCancelled with partial stats and a nil error; only configuration
// problems and unexpected panics report an error.
func (p *Pipeline) Run(ctx context.Context) (stats Stats, err error) {
	started := time.Now()
	stats.RunID = p.session.RunID()

	defer func() {
		if r := recover(); r != nil {
			p.session.setState(StateFailed)
			err = fmt.Errorf("sorter: run panicked: %v", r)
		}
		stats = p.collectStats(started)
		p.finalize(stats)
	}()

	if err := p.preflight(); err != nil {
		p.session.setState(StateFailed)
		return stats, err
	}

	p.session.setState(StateScanning)
	records, err := p.scan()
	if err != nil {
		p.session.setState(StateFailed)
		return stats, err
	}
	p.session.scannedTotal.Store(int64(len(records)))
	p.logger.Info("scan complete", logging.Int(logging.FieldCount, len(records)))

	if err := p.session.Checkpoint(ctx); err != nil {
		p.session.setState(StateCancelled)
		return stats, nil
	}

	p.session.setState(StateDeduplicating)
	dedupeResult, err := p.deps.Dedupe.Run(ctx, records)
	if err != nil {
		// Cancellation mid-dedupe leaves the input untouched.
		p.session.setState(StateCancelled)
		return stats, nil
	}
	p.session.duplicates.Store(int64(dedupeResult.Removed))
	survivors := dedupeResult.Survivors

	if err := p.session.Checkpoint(ctx); err != nil {
		p.session.setState(StateCancelled)
		return stats, nil
	}

	p.session.setState(StateResolvingTaxonomy)
	tax, err := p.resolveTaxonomy(ctx, survivors)
	if err != nil {
		if ctx.Err() != nil {
			p.session.setState(StateCancelled)
			return stats, nil
		}
		p.session.setState(StateFailed)
		return stats, err
	}

	p.session.setState(StateProcessing)
	p.process(ctx, survivors, tax)

	if ctx.Err() != nil {
		p.session.setState(StateCancelled)
		return stats, nil
	}
	p.session.setState(StateCompleted)
	return stats, nil
}

// preflight validates the source and destination before anything runs.
func (p *Pipeline) preflight() error {
	source, err := filepath.Abs(p.opts.Source)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "sorter", "preflight", "resolve source", err)
	}
	dest, err := filepath.Abs(p.opts.Dest)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "sorter", "preflight", "resolve destination", err)
	}
	info, err := os.Stat(source)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "sorter", "preflight", "source directory", err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "sorter", "preflight", "source is not a directory", nil)
	}
	if source == dest {
		return services.Wrap(services.ErrConfiguration, "sorter", "preflight", "source and destination are the same directory", nil)
	}
	if rel, err := filepath.Rel(source, dest); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return services.Wrap(services.ErrConfiguration, "sorter", "preflight", "destination is inside the source directory", nil)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "sorter", "preflight", "create destination", err)
	}
	p.opts.Source = source
	p.opts.Dest = dest
	return nil
}

// scan collects the top-level regular files of the source directory.
// Symlinks and subdirectories are ignored; files that cannot be stated are
// skipped with a warning.
func (p *Pipeline) scan() ([]fingerprint.FileRecord, error) {
	entries, err := os.ReadDir(p.opts.Source)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "sorter", "scan", p.opts.Source, err)
	}
	var records []fingerprint.FileRecord
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			p.logger.Warn("skipping unreadable entry",
				logging.String(logging.FieldFile, entry.Name()),
				logging.Error(err))
			continue
		}
		records = append(records, fingerprint.NewRecord(filepath.Join(p.opts.Source, entry.Name()), info))
	}
	return records, nil
}

func (p *Pipeline) resolveTaxonomy(ctx context.Context, survivors []fingerprint.FileRecord) (*taxonomy.Taxonomy, error) {
	if len(p.opts.Categories) > 0 {
		tax, err := p.deps.Resolver.ResolveStatic(p.opts.Categories)
		if err != nil {
			return nil, err
		}
		// Static mode creates the full tree up front so an empty run
		// still leaves the requested structure behind.
		for _, path := range tax.Paths() {
			if err := os.MkdirAll(filepath.Join(p.opts.Dest, path.Dir()), 0o755); err != nil {
				return nil, services.Wrap(services.ErrConfiguration, "sorter", "taxonomy", "create category directory", err)
			}
		}
		return tax, nil
	}
	return p.deps.Resolver.Synthesize(ctx, survivors)
}

// process classifies and moves survivors with a bounded worker pool.
// Completion order is unordered; cancellation stops dispatch while letting
// in-flight files finish.
func (p *Pipeline) process(ctx context.Context, survivors []fingerprint.FileRecord, tax *taxonomy.Taxonomy) {
	workers := p.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
		if workers > 4 {
			workers = 4
		}
		if workers < 1 {
			workers = 1
		}
	}

	jobs := make(chan fingerprint.FileRecord)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				if err := p.session.Checkpoint(ctx); err != nil {
					return
				}
				p.processOne(ctx, rec, tax)
			}
		}()
	}

dispatch:
	for _, rec := range survivors {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- rec:
		}
	}
	close(jobs)
	wg.Wait()
}

func (p *Pipeline) processOne(ctx context.Context, rec fingerprint.FileRecord, tax *taxonomy.Taxonomy) {
	outcome, err := p.deps.Classifier.Classify(ctx, rec, tax)
	if err != nil {
		// Only cancellation comes back as an error.
		return
	}
	switch outcome.Source {
	case classify.SourceCache:
		p.session.cacheHits.Add(1)
	case classify.SourceFallback:
		p.session.fallbacks.Add(1)
	}

	dest, err := p.deps.Mover.Move(rec.Path, outcome.Category)
	if err != nil {
		p.session.skipped.Add(1)
		p.logger.Warn("file not moved",
			logging.String(logging.FieldFile, rec.Path),
			logging.Error(err))
		return
	}
	p.session.processed.Add(1)
	p.session.recordCategory(outcome.Category.String())
	p.logger.Info("file sorted",
		logging.String(logging.FieldFile, rec.Name),
		logging.String(logging.FieldCategory, outcome.Category.String()),
		logging.String("dest", dest),
		logging.String("source", string(outcome.Source)),
		logging.Duration(logging.FieldDuration, outcome.Duration))
}

func (p *Pipeline) collectStats(started time.Time) Stats {
	return Stats{
		RunID:             p.session.RunID(),
		State:             p.session.State(),
		ScannedFiles:      int(p.session.scannedTotal.Load()),
		DuplicatesRemoved: int(p.session.duplicates.Load()),
		ProcessedFiles:    int(p.session.processed.Load()),
		CacheHits:         int(p.session.cacheHits.Load()),
		Fallbacks:         int(p.session.fallbacks.Load()),
		SkippedFiles:      int(p.session.skipped.Load()),
		CategoriesUsed:    p.session.categoriesUsed(),
		Elapsed:           time.Since(started),
	}
}

// finalize persists the cache and the history row. Both are best effort and
// run for every terminal state.
func (p *Pipeline) finalize(stats Stats) {
	if err := p.deps.Cache.Save(); err != nil {
		p.logger.Warn("cache save failed", logging.Error(err))
	}
	if p.deps.Recorder == nil {
		return
	}
	run := history.Run{
		ID:                stats.RunID,
		StartedAt:         time.Now().Add(-stats.Elapsed).UTC(),
		FinishedAt:        time.Now().UTC(),
		State:             string(stats.State),
		Source:            p.opts.Source,
		Dest:              p.opts.Dest,
		DedupeMode:        string(p.opts.DedupeMode),
		Model:             p.opts.Model,
		Scanned:           stats.ScannedFiles,
		Processed:         stats.ProcessedFiles,
		DuplicatesRemoved: stats.DuplicatesRemoved,
		CategoriesUsed:    stats.CategoriesUsed,
		Fallbacks:         stats.Fallbacks,
		Skipped:           stats.SkippedFiles,
		ElapsedMS:         stats.Elapsed.Milliseconds(),
	}
	recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.deps.Recorder.Record(recordCtx, run); err != nil {
		p.logger.Warn("history record failed", logging.Error(err))
	}
}
