// Package dedupe removes duplicate files from a scanned set before sorting.
//
// Duplicates are grouped either by content hash or by name plus size, the
// newest file in each group survives, and the rest are deleted from disk.
// Hashing runs on a bounded worker group so large sets do not spawn one
// goroutine per file.
package dedupe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"docsort/internal/fingerprint"
	"docsort/internal/logging"
)

// Mode selects the duplicate grouping strategy.
type Mode string

const (
	// ModeNone disables deduplication.
	ModeNone Mode = "none"
	// ModeExact groups files whose full content hashes match.
	ModeExact Mode = "exact"
	// ModeNameSize groups files sharing both filename and byte size.
	ModeNameSize Mode = "name-size"
)

// ParseMode validates a mode string from configuration.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeNone, "":
		return ModeNone, nil
	case ModeExact:
		return ModeExact, nil
	case ModeNameSize:
		return ModeNameSize, nil
	default:
		return "", fmt.Errorf("dedupe mode: unsupported value %q", value)
	}
}

// Result reports what a dedupe pass did.
type Result struct {
	Survivors []fingerprint.FileRecord
	Removed   int
	// HashFailures lists files that could not be hashed; they are kept as
	// survivors rather than risking deletion of an unread file.
	HashFailures []string
	// DeleteFailures lists duplicates that could not be removed from disk.
	DeleteFailures []string
}

// Engine performs duplicate detection and removal.
type Engine struct {
	mode   Mode
	logger *slog.Logger

	workers int
	// remove is swappable for tests.
	remove func(string) error
}

// Option customizes the engine.
type Option func(*Engine)

// WithWorkers overrides the hashing worker count.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithRemoveFunc overrides how duplicate files are deleted.
func WithRemoveFunc(remove func(string) error) Option {
	return func(e *Engine) {
		if remove != nil {
			e.remove = remove
		}
	}
}

// NewEngine constructs a dedupe engine for the given mode.
func NewEngine(mode Mode, logger *slog.Logger, opts ...Option) *Engine {
	engine := &Engine{
		mode:    mode,
		logger:  logging.NewComponentLogger(logger, "dedupe"),
		workers: defaultWorkers(),
		remove:  os.Remove,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

func defaultWorkers() int {
	workers := runtime.NumCPU() - 1
	if workers < 1 {
		workers = 1
	}
	if workers > 4 {
		workers = 4
	}
	return workers
}

// Run deduplicates the supplied records. ModeNone returns the input
// untouched. On cancellation the original input is returned with zero
// removals so callers never act on a partially grouped set.
func (e *Engine) Run(ctx context.Context, records []fingerprint.FileRecord) (Result, error) {
	if e.mode == ModeNone || len(records) < 2 {
		return Result{Survivors: records}, nil
	}

	working := make([]fingerprint.FileRecord, len(records))
	copy(working, records)

	var hashFailures []string
	if e.mode == ModeExact {
		var err error
		working, hashFailures, err = e.hashAll(ctx, working)
		if err != nil {
			return Result{Survivors: records}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{Survivors: records}, err
	}

	var survivors []fingerprint.FileRecord
	var doomed []fingerprint.FileRecord

	groups := make(map[string][]fingerprint.FileRecord, len(working))
	for _, rec := range working {
		key := e.groupKey(rec)
		if key == "" {
			// Unhashable files bypass grouping and always survive.
			survivors = append(survivors, rec)
			continue
		}
		groups[key] = append(groups[key], rec)
	}

	for _, group := range groups {
		if len(group) == 1 {
			survivors = append(survivors, group[0])
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if !group[i].ModTime.Equal(group[j].ModTime) {
				return group[i].ModTime.After(group[j].ModTime)
			}
			return group[i].Path < group[j].Path
		})
		survivors = append(survivors, group[0])
		doomed = append(doomed, group[1:]...)
	}

	// Deletions happen only after every group is decided, so a failure
	// partway through never leaves a group without its keeper.
	removed := 0
	var deleteFailures []string
	for _, rec := range doomed {
		if err := ctx.Err(); err != nil {
			// Undeleted duplicates stay in the survivor set.
			survivors = append(survivors, rec)
			continue
		}
		if err := e.remove(rec.Path); err != nil {
			e.logger.Warn("duplicate delete failed",
				logging.String(logging.FieldFile, rec.Path),
				logging.Error(err))
			deleteFailures = append(deleteFailures, rec.Path)
			survivors = append(survivors, rec)
			continue
		}
		removed++
		e.logger.Debug("duplicate removed", logging.String(logging.FieldFile, rec.Path))
	}

	sort.Slice(survivors, func(i, j int) bool { return survivors[i].Path < survivors[j].Path })
	return Result{
		Survivors:      survivors,
		Removed:        removed,
		HashFailures:   hashFailures,
		DeleteFailures: deleteFailures,
	}, nil
}

func (e *Engine) groupKey(rec fingerprint.FileRecord) string {
	switch e.mode {
	case ModeExact:
		return rec.ContentHash
	case ModeNameSize:
		return fmt.Sprintf("%s|%d", rec.Name, rec.Size)
	default:
		return ""
	}
}

// hashAll fills in content hashes using a bounded worker group. Files that
// cannot be read keep an empty hash and are reported as failures.
func (e *Engine) hashAll(ctx context.Context, records []fingerprint.FileRecord) ([]fingerprint.FileRecord, []string, error) {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.workers)

	var mu sync.Mutex
	var failures []string

	for i := range records {
		group.Go(func() error {
			hash, err := fingerprint.HashFile(groupCtx, records[i].Path)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				e.logger.Warn("hash failed, keeping file",
					logging.String(logging.FieldFile, records[i].Path),
					logging.Error(err))
				mu.Lock()
				failures = append(failures, records[i].Path)
				mu.Unlock()
				return nil
			}
			records[i].ContentHash = hash
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return records, failures, err
	}
	return records, failures, nil
}
