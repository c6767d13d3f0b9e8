package llm

import (
	"context"
	"strings"
	"time"

	"github.com/crmlens/crmlens/internal/config"
)

// Request is a single completion request. Backends are stateless; the same
// request can be replayed against the next backend in the priority order.
type Request struct {
	System      string
	User        string
	Temperature float64
}

type Backend interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Backends builds the priority-ordered backend list from configuration:
// the locally-hosted Ollama service first, the hosted OpenAI-compatible
// service second. Unconfigured backends are skipped entirely.
func Backends(cfg config.LLMConfig) []Backend {
	backends := make([]Backend, 0, 2)
	if strings.TrimSpace(cfg.OllamaEndpoint) != "" {
		backends = append(backends, NewOllamaBackend(OllamaConfig{
			Endpoint: cfg.OllamaEndpoint,
			Model:    cfg.OllamaModel,
			Timeout:  cfg.Timeout,
		}))
	}
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		backends = append(backends, NewOpenAIBackend(OpenAIConfig{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.Timeout,
		}))
	}
	return backends
}

func defaultTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 30 * time.Second
	}
	return timeout
}
