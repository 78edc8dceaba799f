// pocketllm/services/inference/gateway.go
//
// Gateway is the single entry point for chat inference: it fingerprints the
// conversation, answers from the response cache when it can, and otherwise
// calls the remote model, storing the fresh answer for the next ask.
package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/cache"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/telemetry"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/utils/logging"
)

// RemoteInference is the one-shot model call the gateway falls back to on a
// cache miss. llm.Client and the portal API client both satisfy it.
type RemoteInference interface {
	Infer(ctx context.Context, req types.InferenceRequest) (*types.InferenceResult, error)
}

// Result is the gateway's answer for one turn. LatencyMs measures the remote
// call only; answers served from the local cache report zero. IsCached is
// true when any cache answered — the local fingerprint cache or, passed
// through, the remote side's own.
type Result struct {
	Response  string
	Tokens    int
	IsCached  bool
	LatencyMs int64
}

type Gateway struct {
	cache    *cache.ResponseCache
	remote   RemoteInference
	recorder *telemetry.Recorder
}

func New(responseCache *cache.ResponseCache, remote RemoteInference, recorder *telemetry.Recorder) *Gateway {
	return &Gateway{cache: responseCache, remote: remote, recorder: recorder}
}

// Send answers the conversation's latest user turn. Cache hits return
// immediately with IsCached set; misses call the remote model, cache the
// answer, and pass through the remote's own cached flag. Failed calls are
// never cached.
func (g *Gateway) Send(ctx context.Context, sessionID string, conversation []types.Message, params types.InferenceParameters) (*Result, error) {
	defer logging.LogDuration(ctx, "gateway_send")()

	if len(conversation) == 0 {
		return nil, fmt.Errorf("%w: empty conversation", types.ErrInvalidInput)
	}
	if !hasUserTurn(conversation) {
		return nil, fmt.Errorf("%w: conversation has no user turn", types.ErrInvalidInput)
	}

	fp := cache.Fingerprint(conversation)
	if entry, ok := g.cache.Lookup(fp); ok {
		g.record(telemetry.Event{
			Kind:        telemetry.KindCacheHit,
			SessionID:   sessionID,
			Fingerprint: fp,
			Cached:      true,
			Tokens:      entry.Response.Tokens,
		})
		return &Result{
			Response: entry.Response.Text,
			Tokens:   entry.Response.Tokens,
			IsCached: true,
		}, nil
	}

	start := time.Now()
	result, err := g.remote.Infer(ctx, types.InferenceRequest{
		SessionID:  sessionID,
		Messages:   types.ToTurns(conversation),
		Parameters: params,
	})
	latency := time.Since(start).Milliseconds()
	if err != nil {
		g.record(telemetry.Event{
			Kind:        telemetry.KindInferenceError,
			SessionID:   sessionID,
			Fingerprint: fp,
			LatencyMs:   latency,
			Err:         err.Error(),
		})
		return nil, fmt.Errorf("inference: %w", err)
	}

	g.cache.Store(fp, cache.Response{Text: result.Response, Tokens: result.Tokens})
	g.record(telemetry.Event{
		Kind:        telemetry.KindInference,
		SessionID:   sessionID,
		Fingerprint: fp,
		LatencyMs:   latency,
		Cached:      result.IsCached,
		Tokens:      result.Tokens,
	})
	return &Result{
		Response:  result.Response,
		Tokens:    result.Tokens,
		IsCached:  result.IsCached,
		LatencyMs: latency,
	}, nil
}

// Cache exposes the gateway's cache for admin surfaces.
func (g *Gateway) Cache() *cache.ResponseCache { return g.cache }

func (g *Gateway) record(ev telemetry.Event) {
	if g.recorder != nil {
		g.recorder.Record(ev)
	}
}

func hasUserTurn(conversation []types.Message) bool {
	for i := len(conversation) - 1; i >= 0; i-- {
		if conversation[i].Role == types.RoleUser {
			return true
		}
	}
	return false
}
