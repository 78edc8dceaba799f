// pocketllm/services/llm/llm.go
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

// Client runs one inference round-trip against a model provider. Providers
// translate InferenceParameters into whatever their wire format calls them;
// unset parameters are omitted so the provider default applies.
type Client interface {
	Infer(ctx context.Context, req types.InferenceRequest) (*types.InferenceResult, error)
	Name() string
}

type Config struct {
	Provider string
	Endpoint string
	APIKey   string
	Model    string
}

// NewFromConfig selects a provider client. An empty provider falls back to
// the simulated client so the portal runs without any model credentials.
func NewFromConfig(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "simulated":
		return NewSimulatedClient(0), nil
	case "ollama":
		return NewOllamaClient(cfg.Endpoint, cfg.Model), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an api key")
		}
		return newOpenAICompatible("openai", cfg.Endpoint, "https://api.openai.com/v1", cfg.APIKey, cfg.Model), nil
	case "groq":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("groq provider requires an api key")
		}
		return newOpenAICompatible("groq", cfg.Endpoint, "https://api.groq.com/openai/v1", cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
