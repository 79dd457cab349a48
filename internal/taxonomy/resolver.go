package taxonomy

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"docsort/internal/fingerprint"
	"docsort/internal/logging"
	"docsort/internal/services"
	"docsort/internal/services/ollama"
)

const (
	// DefaultSynthesisTimeout bounds one taxonomy generation request.
	DefaultSynthesisTimeout = 300 * time.Second

	// maxSampleFiles caps how many file descriptions go into the prompt.
	maxSampleFiles = 100

	// synthesisNumPredict leaves room for a full tree; smaller budgets
	// truncate the JSON mid-object and force the fallback.
	synthesisNumPredict = 512
)

// Generator is the single inference call the resolver needs.
type Generator interface {
	Generate(ctx context.Context, req ollama.GenerateRequest) (string, error)
}

// Resolver produces the taxonomy for a run, either from a configured category
// list or by asking the inference service to propose one.
type Resolver struct {
	client   Generator
	logger   *slog.Logger
	maxDepth int
	timeout  time.Duration
}

// ResolverOption customizes the resolver.
type ResolverOption func(*Resolver)

// WithSynthesisTimeout overrides the generation request timeout.
func WithSynthesisTimeout(timeout time.Duration) ResolverOption {
	return func(r *Resolver) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// NewResolver constructs a resolver bounded to maxDepth.
func NewResolver(client Generator, maxDepth int, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	resolver := &Resolver{
		client:   client,
		logger:   logging.NewComponentLogger(logger, "taxonomy"),
		maxDepth: maxDepth,
		timeout:  DefaultSynthesisTimeout,
	}
	for _, opt := range opts {
		opt(resolver)
	}
	return resolver
}

// ResolveStatic builds a taxonomy from configured category strings. At least
// one usable category is required.
func (r *Resolver) ResolveStatic(categories []string) (*Taxonomy, error) {
	builder := NewBuilder(r.maxDepth)
	for _, raw := range categories {
		builder.AddString(raw)
	}
	if len(builder.paths) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "taxonomy", "static", "no usable categories configured", nil)
	}
	return builder.Build(), nil
}

// Synthesize asks the inference service to propose a hierarchy for the given
// survivors. Every service or parse failure degrades to the single fallback
// category; only context cancellation is surfaced as an error.
func (r *Resolver) Synthesize(ctx context.Context, records []fingerprint.FileRecord) (*Taxonomy, error) {
	prompt := buildSynthesisPrompt(sampleRecords(records), r.maxDepth)

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	response, err := r.client.Generate(callCtx, ollama.GenerateRequest{
		Prompt:  prompt,
		Format:  "json",
		Options: ollama.GenerateOptions{NumPredict: synthesisNumPredict, Temperature: 0.3},
	})
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("taxonomy synthesis failed, using fallback", logging.Error(err))
		return Fallback(), nil
	}

	tree, err := parseTree(response)
	if err != nil {
		r.logger.Warn("taxonomy response rejected, using fallback",
			logging.Error(err),
			logging.Duration(logging.FieldDuration, time.Since(started)))
		return Fallback(), nil
	}

	builder := NewBuilder(r.maxDepth)
	addTree(builder, nil, tree)
	taxonomy := builder.Build()
	r.logger.Info("taxonomy synthesized",
		logging.Int(logging.FieldCount, taxonomy.Len()),
		logging.Duration(logging.FieldDuration, time.Since(started)))
	return taxonomy, nil
}

func sampleRecords(records []fingerprint.FileRecord) []fingerprint.FileRecord {
	if len(records) <= maxSampleFiles {
		return records
	}
	sampled := make([]fingerprint.FileRecord, len(records))
	copy(sampled, records)
	sort.Slice(sampled, func(i, j int) bool { return sampled[i].Name < sampled[j].Name })
	return sampled[:maxSampleFiles]
}

// parseTree decodes the model response as a nested object tree. Any value
// that is not itself an object invalidates the whole response: a flat list or
// a string-valued map means the model did not follow the schema.
func parseTree(response string) (map[string]any, error) {
	var tree map[string]any
	if err := ollama.DecodeObjectJSON(response, &tree); err != nil {
		return nil, services.Wrap(services.ErrMalformedResponse, "taxonomy", "parse", "decode tree", err)
	}
	if len(tree) == 0 {
		return nil, services.Wrap(services.ErrMalformedResponse, "taxonomy", "parse", "empty tree", nil)
	}
	if err := validateTree(tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func validateTree(tree map[string]any) error {
	for key, value := range tree {
		child, ok := value.(map[string]any)
		if !ok {
			return services.Wrap(services.ErrMalformedResponse, "taxonomy", "parse", "non-object value under "+key, nil)
		}
		if err := validateTree(child); err != nil {
			return err
		}
	}
	return nil
}

func addTree(builder *Builder, prefix CategoryPath, tree map[string]any) {
	keys := make([]string, 0, len(tree))
	for key := range tree {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		segment := SanitizeSegment(key)
		if segment == "" {
			continue
		}
		path := append(append(CategoryPath{}, prefix...), segment)
		builder.Add(path)
		if child, ok := tree[key].(map[string]any); ok {
			addTree(builder, path, child)
		}
	}
}
