package config

const (
	defaultDataDir               = "~/.local/share/docsort"
	defaultLogDir                = "~/.local/share/docsort/logs"
	defaultOllamaBaseURL         = "http://localhost:11434"
	defaultOllamaModel           = "qwen2.5:7b"
	defaultOllamaTimeout         = 30
	defaultOllamaTaxonomyTimeout = 300
	defaultSortingDedupeMode     = "none"
	defaultSortingMaxDepth       = 3
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Ollama: Ollama{
			BaseURL:                defaultOllamaBaseURL,
			Model:                  defaultOllamaModel,
			TimeoutSeconds:         defaultOllamaTimeout,
			TaxonomyTimeoutSeconds: defaultOllamaTaxonomyTimeout,
		},
		Sorting: Sorting{
			DedupeMode: defaultSortingDedupeMode,
			MaxDepth:   defaultSortingMaxDepth,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
