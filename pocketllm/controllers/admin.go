// pocketllm/controllers/admin.go
package controllers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/cache"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/sources/psql/dao"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/sources/storage"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/telemetry"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

const defaultRecentSessions = 50

// AdminController backs the course-staff dashboard: cache tuning, the
// telemetry feed, and a read-only view over everyone's sessions. The
// transcript archive is optional; exports fail cleanly when it is off.
type AdminController struct {
	responseCache *cache.ResponseCache
	recorder      *telemetry.Recorder
	chatDAO       *dao.ChatDAO
	userDAO       *dao.UserDAO
	archive       *storage.MinIOClient
}

func NewAdminController(responseCache *cache.ResponseCache, recorder *telemetry.Recorder, chatDAO *dao.ChatDAO, userDAO *dao.UserDAO, archive *storage.MinIOClient) *AdminController {
	return &AdminController{
		responseCache: responseCache,
		recorder:      recorder,
		chatDAO:       chatDAO,
		userDAO:       userDAO,
		archive:       archive,
	}
}

func (c *AdminController) CacheStats() cache.Stats {
	return c.responseCache.Stats()
}

// ConfigureCache applies the new limits and reports the resulting stats.
// Nil fields keep the current value.
func (c *AdminController) ConfigureCache(req types.CacheConfigRequest) (cache.Stats, error) {
	var ttl time.Duration
	var maxSize int64
	if req.TTLSeconds != nil {
		if *req.TTLSeconds <= 0 {
			return cache.Stats{}, fmt.Errorf("%w: ttl_seconds must be positive", types.ErrInvalidInput)
		}
		ttl = time.Duration(*req.TTLSeconds) * time.Second
	}
	if req.MaxSizeBytes != nil {
		if *req.MaxSizeBytes <= 0 {
			return cache.Stats{}, fmt.Errorf("%w: max_size_bytes must be positive", types.ErrInvalidInput)
		}
		maxSize = *req.MaxSizeBytes
	}
	c.responseCache.Configure(ttl, maxSize)
	return c.responseCache.Stats(), nil
}

func (c *AdminController) ClearCache() int {
	return c.responseCache.Clear()
}

type TelemetryView struct {
	Events  []telemetry.Event `json:"events"`
	Dropped uint64            `json:"dropped"`
}

func (c *AdminController) Telemetry() TelemetryView {
	return TelemetryView{
		Events:  c.recorder.Snapshot(),
		Dropped: c.recorder.Dropped(),
	}
}

// RecentSessions summarizes the latest activity across all users.
func (c *AdminController) RecentSessions(ctx context.Context, limit int) ([]types.ChatSessionSummary, error) {
	if limit <= 0 {
		limit = defaultRecentSessions
	}
	sessions, err := c.chatDAO.ListRecentSessions(ctx, limit)
	if err != nil {
		return nil, err
	}
	users, err := c.userDAO.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}

	summaries := make([]types.ChatSessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summary := types.ChatSessionSummary{
			SessionID:    s.ID,
			UserID:       names[s.UserID],
			Title:        s.Title,
			LastActivity: s.LastAccessedAt.Format(time.RFC3339),
		}
		if summary.UserID == "" {
			summary.UserID = strconv.Itoa(s.UserID)
		}
		if last, err := c.chatDAO.LastMessage(ctx, s.ID); err == nil && last != nil {
			summary.LastMessage = last.Content
			summary.LastMessageRole = last.Role
		}
		if count, err := c.chatDAO.CountMessages(ctx, s.ID); err == nil {
			summary.MessageCount = int(count)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ExportSession archives a session transcript to object storage and returns
// the object key alongside the messages.
func (c *AdminController) ExportSession(ctx context.Context, sessionID string) (*types.ExportResponse, error) {
	if c.archive == nil {
		return nil, fmt.Errorf("%w: transcript archive not configured", types.ErrBackendUnavailable)
	}
	session, err := c.chatDAO.GetSessionByID(ctx, sessionID)
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
	converted := messagesFromModels(messages)
	key, err := c.archive.ArchiveTranscript(ctx, sessionFromModel(*session), converted)
	if err != nil {
		return nil, err
	}
	return &types.ExportResponse{
		SessionID: sessionID,
		ObjectKey: key,
		Messages:  len(converted),
	}, nil
}
