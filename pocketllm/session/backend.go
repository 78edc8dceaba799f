// pocketllm/session/backend.go
package session

import (
	"context"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

// Backend is the remote source of truth for authenticated users. The portal
// API client implements it over HTTP; tests use an in-memory fake. Every
// call crosses the network and may fail with a transport error.
type Backend interface {
	CreateSession(ctx context.Context, userID string) (*types.Session, error)
	GetSession(ctx context.Context, sessionID string) (*types.Session, error)
	ListSessions(ctx context.Context, userID string) ([]*types.Session, error)
	GetMessages(ctx context.Context, userID, sessionID string) ([]types.Message, error)
	ClearHistory(ctx context.Context, sessionID string) error
	DeleteSession(ctx context.Context, userID, sessionID string) error
}
