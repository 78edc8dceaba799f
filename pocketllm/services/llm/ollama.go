// pocketllm/services/llm/ollama.go
package llm

import (
	"context"
	"fmt"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
	httputils "github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/utils/http"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/utils/logging"
)

type OllamaClient struct {
	baseURL string
	model   string
}

func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434/api"
	}
	if model == "" {
		model = "llama3.2"
	}
	return &OllamaClient{baseURL: baseURL, model: model}
}

func (c *OllamaClient) Name() string { return "ollama" }

type ollamaChatRequest struct {
	Model    string           `json:"model"`
	Messages []types.ChatTurn `json:"messages"`
	Stream   bool             `json:"stream"`
	Options  map[string]any   `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message         types.ChatTurn `json:"message"`
	Done            bool           `json:"done"`
	PromptEvalCount int            `json:"prompt_eval_count"`
	EvalCount       int            `json:"eval_count"`
}

func (c *OllamaClient) Infer(ctx context.Context, req types.InferenceRequest) (*types.InferenceResult, error) {
	defer logging.LogDuration(ctx, "llm_ollama_infer")()

	chatReq := ollamaChatRequest{
		Model:    c.model,
		Messages: req.Messages,
		Stream:   false,
	}
	if req.Parameters.Temperature != nil || req.Parameters.MaxTokens != nil {
		opts := map[string]any{}
		if req.Parameters.Temperature != nil {
			opts["temperature"] = *req.Parameters.Temperature
		}
		if req.Parameters.MaxTokens != nil {
			opts["num_predict"] = *req.Parameters.MaxTokens
		}
		chatReq.Options = opts
	}

	var resp ollamaChatResponse
	if err := httputils.PostJSON(ctx, c.baseURL+"/chat", chatReq, &resp); err != nil {
		return nil, err
	}
	if resp.Message.Content == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}
	return &types.InferenceResult{
		Response: resp.Message.Content,
		Tokens:   resp.PromptEvalCount + resp.EvalCount,
	}, nil
}
