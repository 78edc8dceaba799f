package dao

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/sources/psql/models"
)

type ChatDAO struct {
	DB *gorm.DB
}

func NewChatDAO(db *gorm.DB) *ChatDAO {
	return &ChatDAO{DB: db}
}

func (dao *ChatDAO) CreateSession(ctx context.Context, userID int, title string) (*models.ChatSession, error) {
	now := time.Now()
	session := models.ChatSession{
		ID:             uuid.New().String(),
		UserID:         userID,
		Title:          title,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	if err := dao.DB.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (dao *ChatDAO) GetSession(ctx context.Context, userID int, sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := dao.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSessionByID looks a session up without user scoping, for admin
// surfaces.
func (dao *ChatDAO) GetSessionByID(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := dao.DB.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns the user's sessions oldest first, so clients that
// mirror the list keep creation order.
func (dao *ChatDAO) ListSessions(ctx context.Context, userID int) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	err := dao.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (dao *ChatDAO) TouchSession(ctx context.Context, sessionID string) error {
	return dao.DB.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("id = ?", sessionID).
		Update("last_accessed_at", time.Now()).Error
}

// SaveMessage appends a message and bumps the session's last access time in
// one transaction.
func (dao *ChatDAO) SaveMessage(ctx context.Context, sessionID string, userID int, role, content string, isCached bool) (*models.ChatMessage, error) {
	msg := models.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		UserID:    userID,
		Role:      role,
		Content:   content,
		IsCached:  isCached,
		Timestamp: time.Now(),
	}
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.ChatSession{}).
			Where("id = ?", sessionID).
			Update("last_accessed_at", msg.Timestamp).Error
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (dao *ChatDAO) GetMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := dao.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ClearHistory deletes a session's messages but keeps the session row.
func (dao *ChatDAO) ClearHistory(ctx context.Context, sessionID string) error {
	return dao.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.ChatMessage{}).Error
}

// DeleteSession removes the session and its messages in one transaction.
func (dao *ChatDAO) DeleteSession(ctx context.Context, userID int, sessionID string) error {
	return dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", sessionID, userID).
			Delete(&models.ChatSession{}).Error
	})
}

// ListRecentSessions returns the most recently active sessions across all
// users, for the admin view.
func (dao *ChatDAO) ListRecentSessions(ctx context.Context, limit int) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	err := dao.DB.WithContext(ctx).
		Order("last_accessed_at DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (dao *ChatDAO) LastMessage(ctx context.Context, sessionID string) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := dao.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp DESC").
		First(&msg).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (dao *ChatDAO) CountMessages(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := dao.DB.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
