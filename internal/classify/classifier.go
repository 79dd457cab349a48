package classify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"docsort/internal/fingerprint"
	"docsort/internal/logging"
	"docsort/internal/services"
	"docsort/internal/services/ollama"
	"docsort/internal/taxonomy"
)

// DefaultRequestTimeout bounds one classification request.
const DefaultRequestTimeout = 30 * time.Second

// Source identifies where a classification decision came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Outcome is the result of classifying one file.
type Outcome struct {
	Category taxonomy.CategoryPath
	Source   Source
	Duration time.Duration
}

// Generator is the single inference call the classifier needs.
type Generator interface {
	Generate(ctx context.Context, req ollama.GenerateRequest) (string, error)
}

// ContentSampler produces a text excerpt for the prompt.
type ContentSampler interface {
	Sample(ctx context.Context, path, ext string) string
}

// Classifier resolves one file to one category path.
type Classifier struct {
	client  Generator
	sampler ContentSampler
	cache   *Cache
	logger  *slog.Logger
	timeout time.Duration
}

// Option customizes the classifier.
type Option func(*Classifier)

// WithRequestTimeout overrides the per-request timeout.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Classifier) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// New constructs a classifier.
func New(client Generator, sampler ContentSampler, cache *Cache, logger *slog.Logger, opts ...Option) *Classifier {
	classifier := &Classifier{
		client:  client,
		sampler: sampler,
		cache:   cache,
		logger:  logging.NewComponentLogger(logger, "classify"),
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(classifier)
	}
	return classifier
}

// Classify resolves the record to a category in tax. A cached category is
// honored only if it is still a member of the current taxonomy; on any
// service failure or invalid answer the first taxonomy category is used.
// Only context cancellation is returned as an error.
func (c *Classifier) Classify(ctx context.Context, rec fingerprint.FileRecord, tax *taxonomy.Taxonomy) (Outcome, error) {
	started := time.Now()

	hash := rec.ContentHash
	if hash == "" {
		computed, err := fingerprint.HashFile(ctx, rec.Path)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Outcome{}, err
			}
			// Unhashable files are classified without cache participation.
			c.logger.Debug("hash unavailable, skipping cache",
				logging.String(logging.FieldFile, rec.Path),
				logging.Error(err))
		} else {
			hash = computed
		}
	}

	if hash != "" {
		if cached, ok := c.cache.Get(hash); ok {
			if path, ok := tax.Lookup(cached); ok {
				return Outcome{Category: path, Source: SourceCache, Duration: time.Since(started)}, nil
			}
			// Stale entry from an earlier taxonomy; reclassify.
		}
	}

	sample := c.sampler.Sample(ctx, rec.Path, rec.Ext())
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	response, err := c.client.Generate(callCtx, ollama.GenerateRequest{
		Prompt:  buildClassifyPrompt(rec, sample, tax),
		Options: ollama.GenerateOptions{NumPredict: 32, Temperature: 0.2},
	})
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		c.logger.Warn("classification request failed, using fallback",
			logging.String(logging.FieldFile, rec.Name),
			logging.Error(err))
		return Outcome{Category: tax.First(), Source: SourceFallback, Duration: time.Since(started)}, nil
	}

	category := cleanResponse(response)
	path, ok := tax.Lookup(category)
	if !ok {
		c.logger.Warn("model answer rejected, using fallback",
			logging.String(logging.FieldFile, rec.Name),
			logging.Error(services.Wrap(services.ErrInvalidCategory, "classify", "validate", category, nil)))
		return Outcome{Category: tax.First(), Source: SourceFallback, Duration: time.Since(started)}, nil
	}

	// Cache writes happen only for validated model answers so fallback
	// choices never go sticky.
	if hash != "" {
		c.cache.Put(hash, path.String())
	}
	return Outcome{Category: path, Source: SourceModel, Duration: time.Since(started)}, nil
}

// cleanResponse reduces a model completion to a bare category string. Models
// tend to echo the "Category:" prefix and wrap answers in quotes or
// backticks.
func cleanResponse(response string) string {
	line := strings.TrimSpace(response)
	if idx := strings.LastIndex(line, ":"); idx >= 0 {
		line = line[idx+1:]
	}
	line = strings.TrimSpace(line)
	line = strings.Trim(line, "\"'`")
	return strings.TrimSpace(line)
}
