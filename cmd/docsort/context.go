package main

import (
	"log/slog"
	"strings"
	"sync"

	"docsort/internal/config"
	"docsort/internal/logging"
	"docsort/internal/services/ollama"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}

func (c *commandContext) newOllamaClient(cfg *config.Config, model string) *ollama.Client {
	if strings.TrimSpace(model) == "" {
		model = cfg.Ollama.Model
	}
	return ollama.NewClient(ollama.Config{
		BaseURL:        cfg.Ollama.BaseURL,
		Model:          model,
		TimeoutSeconds: cfg.Ollama.TimeoutSeconds,
	})
}
