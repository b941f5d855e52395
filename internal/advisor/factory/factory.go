package factory

import (
	"fmt"

	"github.com/marketcalls/quantbt/internal/advisor"
	"github.com/marketcalls/quantbt/internal/advisor/claude"
	"github.com/marketcalls/quantbt/internal/advisor/ollama"
	"github.com/marketcalls/quantbt/internal/advisor/openai"
	"github.com/marketcalls/quantbt/internal/config"
)

// New creates an LLM provider based on configuration.
func New(cfg config.AdvisorConfig) (advisor.Provider, error) {
	switch cfg.Provider {
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "ollama":
		return ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model)
	default:
		return nil, fmt.Errorf("unknown advisor provider: %s", cfg.Provider)
	}
}
