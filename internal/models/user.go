package models

import "time"

// User is an account that can report, be assigned, and comment on issues.
type User struct {
	ID           string `gorm:"primaryKey;size:32"`
	Name         string `gorm:"size:128;not null"`
	Email        string `gorm:"size:256;uniqueIndex;not null"`
	Role         string `gorm:"size:16;default:member"`
	AvatarURL    string `gorm:"size:512"`
	PasswordHash string `gorm:"size:128"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
