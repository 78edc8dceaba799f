// pocketllm/controllers/chat.go
package controllers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/services/inference"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/sources/psql/dao"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/sources/psql/models"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

const maxTitleLen = 48

type ChatController struct {
	chatDAO *dao.ChatDAO
	gateway *inference.Gateway
}

func NewChatController(chatDAO *dao.ChatDAO, gateway *inference.Gateway) *ChatController {
	return &ChatController{chatDAO: chatDAO, gateway: gateway}
}

// Send is the persisting chat flow: store the user's turn, run the full
// history through the gateway, store the assistant's turn with its cached
// flag. An empty session id opens a new session titled after the prompt.
func (c *ChatController) Send(ctx context.Context, userID int, req types.ChatSendRequest) (*types.ChatSendResponse, error) {
	if req.Content == "" {
		return nil, fmt.Errorf("%w: content required", types.ErrInvalidInput)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		session, err := c.chatDAO.CreateSession(ctx, userID, deriveTitle(req.Content))
		if err != nil {
			return nil, err
		}
		sessionID = session.ID
	} else {
		session, err := c.chatDAO.GetSession(ctx, userID, sessionID)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, types.ErrNotFound
		}
	}

	if _, err := c.chatDAO.SaveMessage(ctx, sessionID, userID, string(types.RoleUser), req.Content, false); err != nil {
		return nil, err
	}
	history, err := c.chatDAO.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result, err := c.gateway.Send(ctx, sessionID, messagesFromModels(history), req.Parameters)
	if err != nil {
		return nil, err
	}

	if _, err := c.chatDAO.SaveMessage(ctx, sessionID, userID, string(types.RoleAssistant), result.Response, result.IsCached); err != nil {
		return nil, err
	}
	return &types.ChatSendResponse{
		Response:  result.Response,
		SessionID: sessionID,
		Tokens:    result.Tokens,
		IsCached:  result.IsCached,
		LatencyMs: result.LatencyMs,
	}, nil
}

// Completions is the stateless inference RPC: nothing is persisted, only
// the shared response cache is consulted and filled.
func (c *ChatController) Completions(ctx context.Context, req types.InferenceRequest) (*types.InferenceResult, error) {
	result, err := c.gateway.Send(ctx, req.SessionID, types.FromTurns(req.Messages), req.Parameters)
	if err != nil {
		return nil, err
	}
	return &types.InferenceResult{
		Response: result.Response,
		Tokens:   result.Tokens,
		IsCached: result.IsCached,
	}, nil
}

func (c *ChatController) CreateSession(ctx context.Context, userID int) (*types.Session, error) {
	session, err := c.chatDAO.CreateSession(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	out := sessionFromModel(*session)
	out.Messages = []types.Message{}
	return out, nil
}

// ListSessions returns session skeletons without messages; clients fetch
// histories lazily.
func (c *ChatController) ListSessions(ctx context.Context, userID int) ([]*types.Session, error) {
	sessions, err := c.chatDAO.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionFromModel(s))
	}
	return out, nil
}

func (c *ChatController) GetSession(ctx context.Context, userID int, sessionID string) (*types.Session, error) {
	session, err := c.chatDAO.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, types.ErrNotFound
	}
	return sessionFromModel(*session), nil
}

func (c *ChatController) GetMessages(ctx context.Context, userID int, sessionID string) ([]types.Message, error) {
	session, err := c.chatDAO.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, types.ErrNotFound
	}
	messages, err := c.chatDAO.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return messagesFromModels(messages), nil
}

func (c *ChatController) ClearHistory(ctx context.Context, userID int, sessionID string) error {
	session, err := c.chatDAO.GetSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return types.ErrNotFound
	}
	if err := c.chatDAO.ClearHistory(ctx, sessionID); err != nil {
		return err
	}
	return c.chatDAO.TouchSession(ctx, sessionID)
}

func (c *ChatController) DeleteSession(ctx context.Context, userID int, sessionID string) error {
	session, err := c.chatDAO.GetSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return types.ErrNotFound
	}
	return c.chatDAO.DeleteSession(ctx, userID, sessionID)
}

func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= maxTitleLen {
		return content
	}
	return string(runes[:maxTitleLen])
}

func sessionFromModel(m models.ChatSession) *types.Session {
	return &types.Session{
		SessionID:      m.ID,
		UserID:         strconv.Itoa(m.UserID),
		Title:          m.Title,
		CreatedAt:      m.CreatedAt,
		LastAccessedAt: m.LastAccessedAt,
	}
}

func messageFromModel(m models.ChatMessage) types.Message {
	return types.Message{
		MessageID: m.ID,
		Content:   m.Content,
		Role:      types.Role(m.Role),
		Timestamp: m.Timestamp,
		IsCached:  m.IsCached,
	}
}

func messagesFromModels(in []models.ChatMessage) []types.Message {
	out := make([]types.Message, 0, len(in))
	for _, m := range in {
		out = append(out, messageFromModel(m))
	}
	return out
}
