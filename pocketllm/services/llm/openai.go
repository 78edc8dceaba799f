// pocketllm/services/llm/openai.go
package llm

import (
	"context"
	"fmt"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
	httputils "github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/utils/http"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/utils/logging"
)

// OpenAIClient speaks the OpenAI chat-completions protocol. Groq exposes the
// same protocol on a different base URL, so both providers share this client.
type OpenAIClient struct {
	name    string
	baseURL string
	apiKey  string
	model   string
}

func newOpenAICompatible(name, baseURL, defaultURL, apiKey, model string) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIClient{name: name, baseURL: baseURL, apiKey: apiKey, model: model}
}

func (c *OpenAIClient) Name() string { return c.name }

type openAIChatRequest struct {
	Model       string           `json:"model"`
	Messages    []types.ChatTurn `json:"messages"`
	Stream      bool             `json:"stream"`
	Temperature *float64         `json:"temperature,omitempty"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message types.ChatTurn `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *OpenAIClient) Infer(ctx context.Context, req types.InferenceRequest) (*types.InferenceResult, error) {
	defer logging.LogDuration(ctx, "llm_"+c.name+"_infer")()

	chatReq := openAIChatRequest{
		Model:       c.model,
		Messages:    req.Messages,
		Stream:      false,
		Temperature: req.Parameters.Temperature,
		MaxTokens:   req.Parameters.MaxTokens,
	}

	var resp openAIChatResponse
	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	if err := httputils.PostJSONWithAuth(ctx, url, c.apiKey, chatReq, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}
	return &types.InferenceResult{
		Response: resp.Choices[0].Message.Content,
		Tokens:   resp.Usage.TotalTokens,
	}, nil
}
