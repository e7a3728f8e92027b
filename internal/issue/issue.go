// Package issue provides issue lifecycle operations and key allocation.
package issue

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/zulandar/sprintdeck/internal/models"
	"github.com/zulandar/sprintdeck/internal/workflow"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a new issue.
type CreateOpts struct {
	ProjectID   string
	Title       string
	Description string
	Type        string // task, story, bug, epic
	Status      string // defaults to the workflow's first TODO status
	Priority    int    // 0=critical → 4=backlog
	Estimate    int
	SprintID    string
	EpicID      string
	ReporterID  string
	AssigneeID  string
	Key         string // set only by importers carrying external keys
}

// ListFilters holds optional filters for listing issues.
type ListFilters struct {
	ProjectID  string
	SprintID   string
	EpicID     string
	Status     string
	Type       string
	AssigneeID string
	Backlog    bool // only issues not assigned to any sprint
}

// GenerateID creates a unique issue row ID in iss-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("issue: generate ID: %w", err)
	}
	return "iss-" + hex.EncodeToString(b)[:5], nil
}

// Create creates an issue, allocating a key when the caller didn't bring one.
// Allocation failures don't fail creation: the documented fallback is a
// timestamp key, logged so operators can spot degraded allocations.
func Create(db *gorm.DB, catalog *workflow.Catalog, opts CreateOpts) (*models.Issue, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("issue: title is required")
	}
	if opts.ProjectID == "" {
		return nil, fmt.Errorf("issue: project is required")
	}

	var project models.Project
	if err := db.Where("id = ?", opts.ProjectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("issue: project not found: %s", opts.ProjectID)
		}
		return nil, fmt.Errorf("issue: check project %s: %w", opts.ProjectID, err)
	}

	if opts.EpicID != "" {
		var epic models.Issue
		if err := db.Where("id = ?", opts.EpicID).First(&epic).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("issue: epic not found: %s", opts.EpicID)
			}
			return nil, fmt.Errorf("issue: check epic %s: %w", opts.EpicID, err)
		}
		if epic.Type != "epic" {
			return nil, fmt.Errorf("issue: %s is type %q, only epics can have children", opts.EpicID, epic.Type)
		}
	}

	if opts.Type == "" {
		opts.Type = "task"
	}
	if opts.Status == "" {
		opts.Status = defaultStatus(catalog, opts.ProjectID)
	}

	key := opts.Key
	if key == "" {
		allocated, err := GenerateKey(db, opts.ProjectID)
		if err != nil {
			log.Printf("issue: key allocation failed for project %s, using fallback: %v", opts.ProjectID, err)
			key = FallbackKey()
		} else {
			key = allocated
		}
	}

	id, err := GenerateID()
	if err != nil {
		return nil, err
	}

	iss := models.Issue{
		ID:          id,
		Key:         key,
		ProjectID:   opts.ProjectID,
		Title:       opts.Title,
		Description: opts.Description,
		Type:        opts.Type,
		Status:      opts.Status,
		Priority:    opts.Priority,
		Estimate:    opts.Estimate,
		ReporterID:  opts.ReporterID,
		AssigneeID:  opts.AssigneeID,
	}
	if opts.SprintID != "" {
		iss.SprintID = &opts.SprintID
	}
	if opts.EpicID != "" {
		iss.EpicID = &opts.EpicID
	}
	if catalog.IsDone(opts.ProjectID, iss.Status) {
		now := time.Now()
		iss.ResolvedAt = &now
	}

	if err := db.Create(&iss).Error; err != nil {
		return nil, fmt.Errorf("issue: create: %w", err)
	}
	return &iss, nil
}

// Get retrieves an issue by key or row ID, preloading comments.
func Get(db *gorm.DB, idOrKey string) (*models.Issue, error) {
	var iss models.Issue
	err := db.Preload("Comments", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at ASC")
	}).Where("id = ? OR key = ?", idOrKey, idOrKey).First(&iss).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("issue: not found: %s", idOrKey)
		}
		return nil, fmt.Errorf("issue: get %s: %w", idOrKey, err)
	}
	return &iss, nil
}

// List returns issues matching the filters, ordered by priority then creation.
func List(db *gorm.DB, filters ListFilters) ([]models.Issue, error) {
	q := db.Model(&models.Issue{})

	if filters.ProjectID != "" {
		q = q.Where("project_id = ?", filters.ProjectID)
	}
	if filters.SprintID != "" {
		q = q.Where("sprint_id = ?", filters.SprintID)
	}
	if filters.Backlog {
		q = q.Where("sprint_id IS NULL")
	}
	if filters.EpicID != "" {
		q = q.Where("epic_id = ?", filters.EpicID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Type != "" {
		q = q.Where("type = ?", filters.Type)
	}
	if filters.AssigneeID != "" {
		q = q.Where("assignee_id = ?", filters.AssigneeID)
	}

	var issues []models.Issue
	if err := q.Order("priority ASC, created_at ASC").Find(&issues).Error; err != nil {
		return nil, fmt.Errorf("issue: list: %w", err)
	}
	return issues, nil
}

// Update modifies issue fields. When the status changes, the resolution
// timestamp is stamped or cleared based on the workflow category of the new
// status — never on the literal status string.
func Update(db *gorm.DB, catalog *workflow.Catalog, idOrKey string, updates map[string]interface{}) (*models.Issue, error) {
	var iss models.Issue
	if err := db.Where("id = ? OR key = ?", idOrKey, idOrKey).First(&iss).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("issue: not found: %s", idOrKey)
		}
		return nil, fmt.Errorf("issue: get %s for update: %w", idOrKey, err)
	}

	if newStatus, ok := updates["status"].(string); ok && !strings.EqualFold(newStatus, iss.Status) {
		applyResolution(catalog, iss.ProjectID, newStatus, updates)
	}

	if err := db.Model(&models.Issue{}).Where("id = ?", iss.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("issue: update %s: %w", idOrKey, err)
	}

	if err := db.Where("id = ?", iss.ID).First(&iss).Error; err != nil {
		return nil, fmt.Errorf("issue: reload %s: %w", idOrKey, err)
	}
	return &iss, nil
}

// BulkUpdate applies the same updates to every listed issue. Used for sprint
// planning (moving a set of issues into a sprint) and board drag operations.
// Resolution stamping follows the same category rule as Update, applied per
// issue since issues may span projects.
func BulkUpdate(db *gorm.DB, catalog *workflow.Catalog, ids []string, updates map[string]interface{}) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var issues []models.Issue
	if err := db.Where("id IN ? OR key IN ?", ids, ids).Find(&issues).Error; err != nil {
		return 0, fmt.Errorf("issue: bulk load: %w", err)
	}

	updated := 0
	for _, iss := range issues {
		perIssue := make(map[string]interface{}, len(updates)+1)
		for k, v := range updates {
			perIssue[k] = v
		}
		if newStatus, ok := perIssue["status"].(string); ok && !strings.EqualFold(newStatus, iss.Status) {
			applyResolution(catalog, iss.ProjectID, newStatus, perIssue)
		}
		if err := db.Model(&models.Issue{}).Where("id = ?", iss.ID).Updates(perIssue).Error; err != nil {
			return updated, fmt.Errorf("issue: bulk update %s: %w", iss.Key, err)
		}
		updated++
	}
	return updated, nil
}

// Delete removes an issue and its comments. The issue's key stays burned:
// the project counter never decreases, so the key is not reused.
func Delete(db *gorm.DB, idOrKey string) error {
	iss, err := Get(db, idOrKey)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("issue_id = ?", iss.ID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("issue: delete comments of %s: %w", iss.Key, err)
		}
		if err := tx.Where("id = ?", iss.ID).Delete(&models.Issue{}).Error; err != nil {
			return fmt.Errorf("issue: delete %s: %w", iss.Key, err)
		}
		return nil
	})
}

// AddComment appends a comment to an issue.
func AddComment(db *gorm.DB, idOrKey, authorID, body string) (*models.Comment, error) {
	if body == "" {
		return nil, fmt.Errorf("issue: comment body is required")
	}
	iss, err := Get(db, idOrKey)
	if err != nil {
		return nil, err
	}
	comment := models.Comment{
		IssueID:  iss.ID,
		AuthorID: authorID,
		Body:     body,
	}
	if err := db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("issue: add comment to %s: %w", iss.Key, err)
	}
	return &comment, nil
}

// applyResolution stamps or clears resolved_at based on the new status's
// workflow category.
func applyResolution(catalog *workflow.Catalog, projectID, newStatus string, updates map[string]interface{}) {
	if catalog.IsDone(projectID, newStatus) {
		updates["resolved_at"] = time.Now()
	} else {
		updates["resolved_at"] = nil
	}
}

// defaultStatus picks the first TODO-category status of the project's
// workflow, falling back to the first status of any category.
func defaultStatus(catalog *workflow.Catalog, projectID string) string {
	w := catalog.ProjectWorkflow(projectID)
	for _, s := range w.Statuses {
		if s.Category == workflow.CategoryTodo {
			return s.ID
		}
	}
	if len(w.Statuses) > 0 {
		return w.Statuses[0].ID
	}
	return "todo"
}
