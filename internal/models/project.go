package models

import "time"

// Project owns issues and sprints. Key is the issue-key prefix (e.g. "AYP"
// for keys like AYP-42). LastIssueNumber is the per-project issue counter
// advanced by the key allocator; it never decreases, even when issues are
// deleted, so keys are never reused.
type Project struct {
	ID              string `gorm:"primaryKey;size:32"`
	Name            string `gorm:"size:128;not null"`
	Key             string `gorm:"size:8;uniqueIndex;not null"`
	Description     string `gorm:"type:text"`
	WorkflowID      string `gorm:"size:32"`
	LastIssueNumber int    `gorm:"default:0"`
	LeadID          string `gorm:"size:32"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Issues  []Issue  `gorm:"foreignKey:ProjectID"`
	Sprints []Sprint `gorm:"foreignKey:ProjectID"`
}
