package models

import "time"

// Issue is the core work item. Key is globally unique and never reused.
// Status is free text that resolves to a Status in the project's workflow;
// completion is always judged through the workflow catalog's category, never
// by comparing Status against a literal.
type Issue struct {
	ID          string  `gorm:"primaryKey;size:32"`
	Key         string  `gorm:"size:16;uniqueIndex;not null"`
	ProjectID   string  `gorm:"size:32;not null;index"`
	SprintID    *string `gorm:"size:32;index"`
	EpicID      *string `gorm:"size:32;index"`
	Title       string  `gorm:"size:256;not null"`
	Description string  `gorm:"type:text"`
	Type        string  `gorm:"size:16;default:task"`
	Status      string  `gorm:"size:32;default:todo;index"`
	Priority    int     `gorm:"default:2"`
	Estimate    int     `gorm:"default:0"`
	ReporterID  string  `gorm:"size:32"`
	AssigneeID  string  `gorm:"size:32;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ResolvedAt  *time.Time

	Epic     *Issue    `gorm:"foreignKey:EpicID"`
	Comments []Comment `gorm:"foreignKey:IssueID"`
}

// Comment is a user remark on an issue.
type Comment struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	IssueID   string `gorm:"size:32;not null;index"`
	AuthorID  string `gorm:"size:32;not null"`
	Body      string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
