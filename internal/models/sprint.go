package models

import "time"

// Sprint is a time-boxed iteration within a project.
type Sprint struct {
	ID          string `gorm:"primaryKey;size:32"`
	ProjectID   string `gorm:"size:32;not null;index"`
	Name        string `gorm:"size:128;not null"`
	Goal        string `gorm:"type:text"`
	Status      string `gorm:"size:16;default:draft;index"`
	StartAt     *time.Time
	EndAt       *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Issues []Issue `gorm:"foreignKey:SprintID"`
}
