// pocketllm/services/api/client.go
package api

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
	httputils "github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/utils/http"
)

// Client talks to the portal API. It implements both the session backend
// and the remote inference call: signed-in clients go through the
// persisting /chat/send endpoint, guests through the stateless
// /chat/completions one.
type Client struct {
	baseURL string

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges a username/email for a portal token and keeps it for all
// later calls.
func (c *Client) Login(ctx context.Context, username, email string) (*types.LoginResponse, error) {
	var resp types.LoginResponse
	err := httputils.PostJSON(ctx, c.baseURL+"/auth/login", types.LoginRequest{Username: username, Email: email}, &resp)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

func (c *Client) CreateSession(ctx context.Context, userID string) (*types.Session, error) {
	var sess types.Session
	if err := httputils.PostJSONWithAuth(ctx, c.baseURL+"/chat/sessions", c.Token(), nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	var sess types.Session
	if err := httputils.GetJSONWithAuth(ctx, c.sessionURL(sessionID), c.Token(), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *Client) ListSessions(ctx context.Context, userID string) ([]*types.Session, error) {
	var sessions []*types.Session
	if err := httputils.GetJSONWithAuth(ctx, c.baseURL+"/chat/sessions", c.Token(), &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *Client) GetMessages(ctx context.Context, userID, sessionID string) ([]types.Message, error) {
	var messages []types.Message
	if err := httputils.GetJSONWithAuth(ctx, c.sessionURL(sessionID)+"/messages", c.Token(), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) ClearHistory(ctx context.Context, sessionID string) error {
	return httputils.PostJSONWithAuth(ctx, c.sessionURL(sessionID)+"/clear", c.Token(), nil, nil)
}

func (c *Client) DeleteSession(ctx context.Context, userID, sessionID string) error {
	return httputils.DeleteWithAuth(ctx, c.sessionURL(sessionID), c.Token())
}

// Infer routes through /chat/send when a token is present so the portal
// persists both turns; guests use the stateless completion endpoint.
func (c *Client) Infer(ctx context.Context, req types.InferenceRequest) (*types.InferenceResult, error) {
	token := c.Token()
	if token == "" {
		var result types.InferenceResult
		if err := httputils.PostJSON(ctx, c.baseURL+"/chat/completions", req, &result); err != nil {
			return nil, err
		}
		return &result, nil
	}

	content := lastUserContent(req.Messages)
	if content == "" {
		return nil, fmt.Errorf("%w: conversation has no user turn", types.ErrInvalidInput)
	}
	sendReq := types.ChatSendRequest{
		SessionID:  req.SessionID,
		Content:    content,
		Parameters: req.Parameters,
	}
	var resp types.ChatSendResponse
	if err := httputils.PostJSONWithAuth(ctx, c.baseURL+"/chat/send", token, sendReq, &resp); err != nil {
		return nil, err
	}
	return &types.InferenceResult{
		Response: resp.Response,
		Tokens:   resp.Tokens,
		IsCached: resp.IsCached,
	}, nil
}

func (c *Client) sessionURL(sessionID string) string {
	return c.baseURL + "/chat/session/" + sessionID
}

func lastUserContent(turns []types.ChatTurn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == string(types.RoleUser) {
			return turns[i].Content
		}
	}
	return ""
}
