package models

import (
	"time"
)

// ChatSession ids are uuid strings generated in Go so the schema works on
// both postgres and the sqlite used in tests.
type ChatSession struct {
	ID             string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	UserID         int       `json:"user_id" gorm:"not null;index"`
	User           User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Title          string    `json:"title" gorm:"type:varchar(255)"`
	CreatedAt      time.Time `json:"created_at" gorm:"not null"`
	LastAccessedAt time.Time `json:"last_accessed_at" gorm:"not null;index"`
}

type ChatMessage struct {
	ID        string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	SessionID string    `json:"session_id" gorm:"type:varchar(64);not null;index"`
	UserID    int       `json:"user_id" gorm:"not null"`
	Role      string    `json:"role" gorm:"type:varchar(50);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	IsCached  bool      `json:"is_cached" gorm:"not null;default:false"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
}
