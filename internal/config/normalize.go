package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOllama()
	c.normalizeSorting()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOllama() {
	c.Ollama.BaseURL = strings.TrimRight(strings.TrimSpace(c.Ollama.BaseURL), "/")
	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = defaultOllamaBaseURL
	}
	c.Ollama.Model = strings.TrimSpace(c.Ollama.Model)
	if c.Ollama.Model == "" {
		c.Ollama.Model = defaultOllamaModel
	}
	if c.Ollama.TimeoutSeconds == 0 {
		c.Ollama.TimeoutSeconds = defaultOllamaTimeout
	}
	if c.Ollama.TaxonomyTimeoutSeconds == 0 {
		c.Ollama.TaxonomyTimeoutSeconds = defaultOllamaTaxonomyTimeout
	}
}

func (c *Config) normalizeSorting() {
	c.Sorting.DedupeMode = strings.ToLower(strings.TrimSpace(c.Sorting.DedupeMode))
	if c.Sorting.DedupeMode == "" {
		c.Sorting.DedupeMode = defaultSortingDedupeMode
	}
	if c.Sorting.MaxDepth == 0 {
		c.Sorting.MaxDepth = defaultSortingMaxDepth
	}
	cleaned := c.Sorting.Categories[:0]
	for _, category := range c.Sorting.Categories {
		if trimmed := strings.TrimSpace(category); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	c.Sorting.Categories = cleaned
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
