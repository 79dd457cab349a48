package classify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docsort/internal/fingerprint"
	"docsort/internal/logging"
	"docsort/internal/services"
	"docsort/internal/services/ollama"
	"docsort/internal/taxonomy"
)

type fakeGenerator struct {
	response string
	err      error
	calls    int
	prompt   string
}

func (f *fakeGenerator) Generate(_ context.Context, req ollama.GenerateRequest) (string, error) {
	f.calls++
	f.prompt = req.Prompt
	return f.response, f.err
}

type staticSampler struct {
	text string
}

func (s staticSampler) Sample(context.Context, string, string) string { return s.text }

func testTaxonomy(t *testing.T, categories ...string) *taxonomy.Taxonomy {
	t.Helper()
	builder := taxonomy.NewBuilder(0)
	for _, category := range categories {
		builder.AddString(category)
	}
	return builder.Build()
}

func writeRecord(t *testing.T, dir, name, content string) fingerprint.FileRecord {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", name, err)
	}
	return fingerprint.NewRecord(path, info)
}

func TestClassifyUsesModelAndCaches(t *testing.T) {
	dir := t.TempDir()
	rec := writeRecord(t, dir, "invoice.txt", "invoice body")
	tax := testTaxonomy(t, "Work/Invoices", "Personal")
	gen := &fakeGenerator{response: "Category: Work/Invoices"}
	cache := OpenCache(filepath.Join(dir, "cache.json"), logging.NewNop())

	classifier := New(gen, staticSampler{text: "invoice body"}, cache, logging.NewNop())
	outcome, err := classifier.Classify(context.Background(), rec, tax)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if outcome.Source != SourceModel {
		t.Fatalf("expected model source, got %s", outcome.Source)
	}
	if outcome.Category.String() != "Work/Invoices" {
		t.Fatalf("unexpected category %q", outcome.Category.String())
	}
	if cache.Len() != 1 {
		t.Fatalf("expected cache write, got %d entries", cache.Len())
	}
	if !strings.Contains(gen.prompt, "invoice.txt") || !strings.Contains(gen.prompt, "invoice body") {
		t.Fatalf("prompt missing metadata or sample: %q", gen.prompt)
	}
}

func TestClassifyCacheHitSkipsNetwork(t *testing.T) {
	dir := t.TempDir()
	rec := writeRecord(t, dir, "invoice.txt", "invoice body")
	hash, err := fingerprint.HashFile(context.Background(), rec.Path)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	tax := testTaxonomy(t, "Work/Invoices", "Personal")
	cache := OpenCache(filepath.Join(dir, "cache.json"), logging.NewNop())
	cache.Put(hash, "Work/Invoices")

	gen := &fakeGenerator{err: errors.New("must not be called")}
	classifier := New(gen, staticSampler{}, cache, logging.NewNop())
	outcome, err := classifier.Classify(context.Background(), rec, tax)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if outcome.Source != SourceCache {
		t.Fatalf("expected cache source, got %s", outcome.Source)
	}
	if gen.calls != 0 {
		t.Fatalf("expected no generate calls, got %d", gen.calls)
	}
}

func TestClassifyStaleCacheEntryReclassifies(t *testing.T) {
	dir := t.TempDir()
	rec := writeRecord(t, dir, "invoice.txt", "invoice body")
	hash, err := fingerprint.HashFile(context.Background(), rec.Path)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	// Entry references a category missing from the current taxonomy.
	cache := OpenCache(filepath.Join(dir, "cache.json"), logging.NewNop())
	cache.Put(hash, "Archive/Old")

	tax := testTaxonomy(t, "Work", "Personal")
	gen := &fakeGenerator{response: "Work"}
	classifier := New(gen, staticSampler{}, cache, logging.NewNop())
	outcome, err := classifier.Classify(context.Background(), rec, tax)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if outcome.Source != SourceModel || outcome.Category.String() != "Work" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if gen.calls != 1 {
		t.Fatalf("expected one generate call, got %d", gen.calls)
	}
	if got, _ := cache.Get(hash); got != "Work" {
		t.Fatalf("expected cache overwrite, got %q", got)
	}
}

func TestClassifyServiceDownFallsBack(t *testing.T) {
	dir := t.TempDir()
	rec := writeRecord(t, dir, "mystery.bin", "data")
	tax := testTaxonomy(t, "A", "B")
	gen := &fakeGenerator{err: services.Wrap(services.ErrServiceUnavailable, "ollama", "generate", "down", nil)}
	cache := OpenCache(filepath.Join(dir, "cache.json"), logging.NewNop())

	classifier := New(gen, staticSampler{}, cache, logging.NewNop())
	outcome, err := classifier.Classify(context.Background(), rec, tax)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if outcome.Source != SourceFallback {
		t.Fatalf("expected fallback source, got %s", outcome.Source)
	}
	if outcome.Category.String() != "A" {
		t.Fatalf("expected first category, got %q", outcome.Category.String())
	}
	if cache.Len() != 0 {
		t.Fatal("fallback outcomes must not be cached")
	}
}

func TestClassifyInvalidCategoryFallsBack(t *testing.T) {
	dir := t.TempDir()
	rec := writeRecord(t, dir, "doc.txt", "text")
	tax := testTaxonomy(t, "A", "B")
	gen := &fakeGenerator{response: "Category: Banana"}
	cache := OpenCache(filepath.Join(dir, "cache.json"), logging.NewNop())

	classifier := New(gen, staticSampler{}, cache, logging.NewNop())
	outcome, err := classifier.Classify(context.Background(), rec, tax)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if outcome.Source != SourceFallback || outcome.Category.String() != "A" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if cache.Len() != 0 {
		t.Fatal("invalid answers must not be cached")
	}
}

func TestClassifyCancelled(t *testing.T) {
	dir := t.TempDir()
	rec := writeRecord(t, dir, "doc.txt", "text")
	tax := testTaxonomy(t, "A")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	classifier := New(&fakeGenerator{}, staticSampler{}, OpenCache(filepath.Join(dir, "c.json"), logging.NewNop()), logging.NewNop())
	if _, err := classifier.Classify(ctx, rec, tax); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCleanResponse(t *testing.T) {
	cases := map[string]string{
		"Category: Work/Invoices":    "Work/Invoices",
		"  Work  ":                   "Work",
		"\"Personal\"":               "Personal",
		"`Work/Reports`":             "Work/Reports",
		"The category is: 'Finance'": "Finance",
		"":                           "",
	}
	for input, want := range cases {
		if got := cleanResponse(input); got != want {
			t.Fatalf("cleanResponse(%q) = %q, want %q", input, got, want)
		}
	}
}
