// Package project provides project lifecycle operations.
package project

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/zulandar/sprintdeck/internal/models"
	"github.com/zulandar/sprintdeck/internal/workflow"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a new project.
type CreateOpts struct {
	Name        string
	Key         string // issue-key prefix; derived from the name when empty
	Description string
	WorkflowID  string
	LeadID      string
}

// GenerateID creates a unique project ID in prj-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("project: generate ID: %w", err)
	}
	return "prj-" + hex.EncodeToString(b)[:5], nil
}

// DeriveKey builds an issue-key prefix from a project name: the initials of
// up to three words, upper-cased, letters only. Short names fall back to
// their first three letters, and a name with no usable letters to "PRJ".
func DeriveKey(name string) string {
	words := strings.Fields(name)
	var b strings.Builder
	for _, w := range words {
		for _, r := range w {
			if unicode.IsLetter(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
		if b.Len() == 3 {
			break
		}
	}

	key := b.String()
	if len(key) >= 2 {
		return key
	}

	// Single short word: take its first letters instead.
	b.Reset()
	for _, r := range name {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
		if b.Len() == 3 {
			break
		}
	}
	if b.Len() == 0 {
		return "PRJ"
	}
	return b.String()
}

// Create creates a project with a unique issue-key prefix. When the derived
// prefix collides with an existing project, a numeric suffix is appended.
func Create(db *gorm.DB, catalog *workflow.Catalog, opts CreateOpts) (*models.Project, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("project: name is required")
	}

	if opts.WorkflowID == "" {
		opts.WorkflowID = workflow.DefaultWorkflowID
	}
	if _, ok := catalog.ByID(opts.WorkflowID); !ok {
		return nil, fmt.Errorf("project: workflow not found: %s", opts.WorkflowID)
	}

	key := strings.ToUpper(opts.Key)
	if key == "" {
		key = DeriveKey(opts.Name)
	}
	key, err := uniqueKey(db, key)
	if err != nil {
		return nil, err
	}

	id, err := GenerateID()
	if err != nil {
		return nil, err
	}

	p := models.Project{
		ID:          id,
		Name:        opts.Name,
		Key:         key,
		Description: opts.Description,
		WorkflowID:  opts.WorkflowID,
		LeadID:      opts.LeadID,
	}
	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("project: create: %w", err)
	}
	return &p, nil
}

// Get retrieves a project by ID or key prefix.
func Get(db *gorm.DB, idOrKey string) (*models.Project, error) {
	var p models.Project
	if err := db.Where("id = ? OR key = ?", idOrKey, strings.ToUpper(idOrKey)).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project: not found: %s", idOrKey)
		}
		return nil, fmt.Errorf("project: get %s: %w", idOrKey, err)
	}
	return &p, nil
}

// List returns all projects ordered by name.
func List(db *gorm.DB) ([]models.Project, error) {
	var projects []models.Project
	if err := db.Order("name ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	return projects, nil
}

// Update modifies project fields. The key prefix and issue counter are not
// updatable through this path: changing the prefix would orphan existing
// issue keys, and the counter belongs to the allocator.
func Update(db *gorm.DB, id string, updates map[string]interface{}) error {
	delete(updates, "key")
	delete(updates, "last_issue_number")

	result := db.Model(&models.Project{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("project: update %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("project: not found: %s", id)
	}
	return nil
}

// AssignWorkflow points a project at a different workflow. The workflow must
// exist in the catalog; issues keep their status strings and are reclassified
// by the new workflow's categories from then on.
func AssignWorkflow(db *gorm.DB, catalog *workflow.Catalog, projectID, workflowID string) error {
	if _, ok := catalog.ByID(workflowID); !ok {
		return fmt.Errorf("project: workflow not found: %s", workflowID)
	}
	return Update(db, projectID, map[string]interface{}{"workflow_id": workflowID})
}

// Delete removes a project together with its issues, comments, and sprints.
func Delete(db *gorm.DB, id string) error {
	p, err := Get(db, id)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("issue_id IN (?)",
			tx.Model(&models.Issue{}).Select("id").Where("project_id = ?", p.ID),
		).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("project: delete comments of %s: %w", p.ID, err)
		}
		if err := tx.Where("project_id = ?", p.ID).Delete(&models.Issue{}).Error; err != nil {
			return fmt.Errorf("project: delete issues of %s: %w", p.ID, err)
		}
		if err := tx.Where("project_id = ?", p.ID).Delete(&models.Sprint{}).Error; err != nil {
			return fmt.Errorf("project: delete sprints of %s: %w", p.ID, err)
		}
		if err := tx.Where("id = ?", p.ID).Delete(&models.Project{}).Error; err != nil {
			return fmt.Errorf("project: delete %s: %w", p.ID, err)
		}
		return nil
	})
}

// uniqueKey appends a numeric suffix until the prefix is free.
func uniqueKey(db *gorm.DB, key string) (string, error) {
	candidate := key
	for i := 2; ; i++ {
		var count int64
		if err := db.Model(&models.Project{}).Where("key = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("project: check key %s: %w", candidate, err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", key, i)
	}
}
