package models

import "time"

// Notification is a per-user event record, surfaced over the SSE stream and
// delivered best-effort to Slack/Discord.
type Notification struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"size:32;not null;index"`
	Kind      string `gorm:"size:32;not null"`
	IssueKey  string `gorm:"size:16"`
	Title     string `gorm:"size:256"`
	Body      string `gorm:"type:text"`
	Read      bool   `gorm:"default:false;index"`
	CreatedAt time.Time
}

// ChatMessage is a message in a project's chat channel.
type ChatMessage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ProjectID string `gorm:"size:32;not null;index"`
	AuthorID  string `gorm:"size:32;not null"`
	Body      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}
