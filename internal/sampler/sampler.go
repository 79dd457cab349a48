// Package sampler extracts short text excerpts from files for classification
// prompts. Extraction is best effort: any parse or read failure yields an
// empty sample so classification can still proceed on metadata alone.
package sampler

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/semaphore"

	"docsort/internal/logging"
)

// MaxSampleLen caps every returned excerpt.
const MaxSampleLen = 500

// Sampler produces bounded excerpts with a global concurrency limit, since
// spreadsheet and PDF parsing can be memory hungry.
type Sampler struct {
	logger *slog.Logger
	sem    *semaphore.Weighted
}

// New constructs a sampler. A non-positive limit uses a CPU-derived default.
func New(logger *slog.Logger, limit int) *Sampler {
	if limit <= 0 {
		limit = runtime.NumCPU()
		if limit > 4 {
			limit = 4
		}
		if limit < 1 {
			limit = 1
		}
	}
	return &Sampler{
		logger: logging.NewComponentLogger(logger, "sampler"),
		sem:    semaphore.NewWeighted(int64(limit)),
	}
}

// Sample returns up to MaxSampleLen characters of text from the file. The
// lowercased extension selects the extractor; unknown formats get a prefix
// read with permissive decoding. Failures return an empty string.
func (s *Sampler) Sample(ctx context.Context, path, ext string) string {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return ""
	}
	defer s.sem.Release(1)

	var (
		text string
		err  error
	)
	switch strings.ToLower(ext) {
	case ".pdf":
		text, err = extractPDF(path)
	case ".xlsx", ".xlsm":
		text, err = extractXLSX(path)
	case ".docx":
		text, err = extractZipXML(path, "word/document.xml")
	case ".odt":
		text, err = extractZipXML(path, "content.xml")
	default:
		text, err = extractTextPrefix(path)
	}
	if err != nil {
		s.logger.Debug("sample extraction failed",
			logging.String(logging.FieldFile, path),
			logging.Error(err))
		return ""
	}
	return clampSample(text)
}

// clampSample normalizes whitespace and truncates on a rune boundary.
func clampSample(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= MaxSampleLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxSampleLen])
}
