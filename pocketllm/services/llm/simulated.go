// pocketllm/services/llm/simulated.go
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

// SimulatedClient produces deterministic canned answers without touching the
// network. It is the default provider for local development and the test
// double for everything above the gateway.
type SimulatedClient struct {
	delay time.Duration
}

var cannedReplies = map[string]string{
	"hello":       "Hi there! I am the PocketLLM assistant. Ask me anything about your coursework.",
	"what is ai?": "AI is the study of building systems that perform tasks which normally require human intelligence, such as understanding language or recognizing patterns.",
	"help":        "You can ask questions, open past sessions with /open, or start fresh with /new.",
}

func NewSimulatedClient(delay time.Duration) *SimulatedClient {
	return &SimulatedClient{delay: delay}
}

func (c *SimulatedClient) Name() string { return "simulated" }

func (c *SimulatedClient) Infer(ctx context.Context, req types.InferenceRequest) (*types.InferenceResult, error) {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	prompt := lastUserTurn(req.Messages)
	reply, ok := cannedReplies[strings.ToLower(strings.TrimSpace(prompt))]
	if !ok {
		reply = fmt.Sprintf("You said: %q. This is a simulated reply; configure a real provider to talk to a model.", prompt)
	}
	return &types.InferenceResult{
		Response: reply,
		Tokens:   len(strings.Fields(prompt)) + len(strings.Fields(reply)),
	}, nil
}

func lastUserTurn(turns []types.ChatTurn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == string(types.RoleUser) {
			return turns[i].Content
		}
	}
	return ""
}
