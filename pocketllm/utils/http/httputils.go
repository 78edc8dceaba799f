// pocketllm/utils/http/httputils.go
package httputils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

// Shared client so every caller gets the same timeout instead of the
// zero-timeout default client.
var client = &http.Client{Timeout: 60 * time.Second}

// DoJSON issues a JSON request and decodes the JSON response into out.
// A nil out discards the body. Transport failures come back wrapped in
// types.ErrBackendUnavailable; non-2xx statuses come back as a
// *types.RemoteError carrying the response body.
func DoJSON(ctx context.Context, method, url, token string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		if resp.StatusCode == http.StatusNotFound {
			return types.ErrNotFound
		}
		return &types.RemoteError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func PostJSON(ctx context.Context, url string, body interface{}, out interface{}) error {
	return DoJSON(ctx, http.MethodPost, url, "", body, out)
}

func PostJSONWithAuth(ctx context.Context, url, token string, body interface{}, out interface{}) error {
	return DoJSON(ctx, http.MethodPost, url, token, body, out)
}

func GetJSONWithAuth(ctx context.Context, url, token string, out interface{}) error {
	return DoJSON(ctx, http.MethodGet, url, token, nil, out)
}

func DeleteWithAuth(ctx context.Context, url, token string) error {
	return DoJSON(ctx, http.MethodDelete, url, token, nil, nil)
}
