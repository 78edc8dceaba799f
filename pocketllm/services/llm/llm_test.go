// pocketllm/services/llm/llm_test.go
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

func TestNewFromConfigSelectsProvider(t *testing.T) {
	cases := []struct {
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{Config{}, "simulated", false},
		{Config{Provider: "simulated"}, "simulated", false},
		{Config{Provider: "ollama"}, "ollama", false},
		{Config{Provider: "openai", APIKey: "sk-test"}, "openai", false},
		{Config{Provider: "groq", APIKey: "gsk-test"}, "groq", false},
		{Config{Provider: "openai"}, "", true},
		{Config{Provider: "bedrock"}, "", true},
	}
	for _, tc := range cases {
		client, err := NewFromConfig(tc.cfg)
		if tc.wantErr {
			if err == nil {
				t.Errorf("provider %q: expected error", tc.cfg.Provider)
			}
			continue
		}
		if err != nil {
			t.Errorf("provider %q: %v", tc.cfg.Provider, err)
			continue
		}
		if client.Name() != tc.wantName {
			t.Errorf("provider %q: got name %q, want %q", tc.cfg.Provider, client.Name(), tc.wantName)
		}
	}
}

func TestSimulatedClientIsDeterministic(t *testing.T) {
	client := NewSimulatedClient(0)
	req := types.InferenceRequest{
		Messages: []types.ChatTurn{
			{Role: "assistant", Content: "earlier answer"},
			{Role: "user", Content: "  What is AI?  "},
		},
	}

	first, err := client.Infer(context.Background(), req)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	second, err := client.Infer(context.Background(), req)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if first.Response != second.Response {
		t.Fatal("same prompt must produce the same reply")
	}
	if !strings.Contains(first.Response, "AI is the study") {
		t.Fatalf("expected canned answer, got %q", first.Response)
	}
	if first.Tokens == 0 {
		t.Fatal("expected a token estimate")
	}
}

func TestOllamaClientMapsRequestAndTokens(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message:         types.ChatTurn{Role: "assistant", Content: "fine, thanks"},
			Done:            true,
			PromptEvalCount: 12,
			EvalCount:       8,
		})
	}))
	defer srv.Close()

	temp := 0.2
	maxTokens := 64
	client := NewOllamaClient(srv.URL, "testmodel")
	res, err := client.Infer(context.Background(), types.InferenceRequest{
		Messages:   []types.ChatTurn{{Role: "user", Content: "how are you?"}},
		Parameters: types.InferenceParameters{Temperature: &temp, MaxTokens: &maxTokens},
	})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if res.Response != "fine, thanks" {
		t.Fatalf("unexpected response %q", res.Response)
	}
	if res.Tokens != 20 {
		t.Fatalf("expected 20 tokens, got %d", res.Tokens)
	}
	if got.Model != "testmodel" || got.Stream {
		t.Fatalf("bad wire request: %+v", got)
	}
	if got.Options["temperature"] != 0.2 || got.Options["num_predict"] != float64(64) {
		t.Fatalf("parameters not mapped into options: %+v", got.Options)
	}
}

func TestOpenAIClientSendsAuthAndParsesUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("missing bearer token, got %q", auth)
		}
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "hello back"}}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8}
		}`))
	}))
	defer srv.Close()

	client := newOpenAICompatible("openai", srv.URL, "", "sk-test", "gpt-4o-mini")
	res, err := client.Infer(context.Background(), types.InferenceRequest{
		Messages: []types.ChatTurn{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if res.Response != "hello back" || res.Tokens != 8 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestOpenAIClientSurfacesRemoteErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newOpenAICompatible("openai", srv.URL, "", "sk-test", "")
	_, err := client.Infer(context.Background(), types.InferenceRequest{
		Messages: []types.ChatTurn{{Role: "user", Content: "hello"}},
	})
	if err == nil {
		t.Fatal("expected error from 429 response")
	}
	remote, ok := types.AsRemoteError(err)
	if !ok {
		t.Fatalf("expected RemoteError, got %T: %v", err, err)
	}
	if remote.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", remote.StatusCode)
	}
}
