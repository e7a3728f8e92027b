// Package sprint provides sprint lifecycle operations.
package sprint

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/sprintdeck/internal/models"
	"github.com/zulandar/sprintdeck/internal/workflow"
	"gorm.io/gorm"
)

// ValidTransitions maps each sprint status to its valid next statuses.
var ValidTransitions = map[string][]string{
	"draft":  {"active"},
	"active": {"closed"},
	"closed": {},
}

// CreateOpts holds parameters for creating a new sprint.
type CreateOpts struct {
	ProjectID string
	Name      string
	Goal      string
	StartAt   *time.Time
	EndAt     *time.Time
}

// CompleteOpts controls what happens to unfinished issues when a sprint
// closes. Empty TargetSprintID sends them back to the backlog.
type CompleteOpts struct {
	TargetSprintID string
}

// GenerateID creates a unique sprint ID in spr-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("sprint: generate ID: %w", err)
	}
	return "spr-" + hex.EncodeToString(b)[:5], nil
}

// Create creates a draft sprint.
func Create(db *gorm.DB, opts CreateOpts) (*models.Sprint, error) {
	if opts.ProjectID == "" {
		return nil, fmt.Errorf("sprint: project is required")
	}
	if opts.Name == "" {
		return nil, fmt.Errorf("sprint: name is required")
	}

	var count int64
	if err := db.Model(&models.Project{}).Where("id = ?", opts.ProjectID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("sprint: check project %s: %w", opts.ProjectID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("sprint: project not found: %s", opts.ProjectID)
	}

	id, err := GenerateID()
	if err != nil {
		return nil, err
	}

	s := models.Sprint{
		ID:        id,
		ProjectID: opts.ProjectID,
		Name:      opts.Name,
		Goal:      opts.Goal,
		Status:    "draft",
		StartAt:   opts.StartAt,
		EndAt:     opts.EndAt,
	}
	if err := db.Create(&s).Error; err != nil {
		return nil, fmt.Errorf("sprint: create: %w", err)
	}
	return &s, nil
}

// Get retrieves a sprint by ID.
func Get(db *gorm.DB, id string) (*models.Sprint, error) {
	var s models.Sprint
	if err := db.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sprint: not found: %s", id)
		}
		return nil, fmt.Errorf("sprint: get %s: %w", id, err)
	}
	return &s, nil
}

// List returns a project's sprints, newest first.
func List(db *gorm.DB, projectID string) ([]models.Sprint, error) {
	var sprints []models.Sprint
	if err := db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&sprints).Error; err != nil {
		return nil, fmt.Errorf("sprint: list: %w", err)
	}
	return sprints, nil
}

// Start activates a draft sprint. A project can have only one active sprint
// at a time. Start and end dates default to a two-week window from now.
func Start(db *gorm.DB, id string) (*models.Sprint, error) {
	s, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(s.Status, "active") {
		return nil, fmt.Errorf("sprint: cannot start sprint in status %q", s.Status)
	}

	var active int64
	if err := db.Model(&models.Sprint{}).
		Where("project_id = ? AND status = ?", s.ProjectID, "active").
		Count(&active).Error; err != nil {
		return nil, fmt.Errorf("sprint: check active sprints: %w", err)
	}
	if active > 0 {
		return nil, fmt.Errorf("sprint: project %s already has an active sprint", s.ProjectID)
	}

	now := time.Now()
	updates := map[string]interface{}{"status": "active"}
	if s.StartAt == nil {
		updates["start_at"] = now
	}
	if s.EndAt == nil {
		updates["end_at"] = now.Add(14 * 24 * time.Hour)
	}
	if err := db.Model(&models.Sprint{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("sprint: start %s: %w", id, err)
	}
	return Get(db, id)
}

// Complete closes an active sprint. Issues whose status is not in the
// project workflow's DONE category are moved to the target sprint, or back
// to the backlog when no target is given. Done issues stay on the sprint for
// velocity reporting.
func Complete(db *gorm.DB, catalog *workflow.Catalog, id string, opts CompleteOpts) (*models.Sprint, error) {
	s, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(s.Status, "closed") {
		return nil, fmt.Errorf("sprint: cannot complete sprint in status %q", s.Status)
	}

	if opts.TargetSprintID != "" {
		target, err := Get(db, opts.TargetSprintID)
		if err != nil {
			return nil, err
		}
		if target.ProjectID != s.ProjectID {
			return nil, fmt.Errorf("sprint: target sprint %s belongs to a different project", target.ID)
		}
		if target.Status == "closed" {
			return nil, fmt.Errorf("sprint: target sprint %s is closed", target.ID)
		}
	}

	sets := catalog.StatusSets(s.ProjectID)

	err = db.Transaction(func(tx *gorm.DB) error {
		var issues []models.Issue
		if err := tx.Where("sprint_id = ?", s.ID).Find(&issues).Error; err != nil {
			return err
		}

		var unfinished []string
		for _, iss := range issues {
			if !sets.IsDone(iss.Status) {
				unfinished = append(unfinished, iss.ID)
			}
		}

		if len(unfinished) > 0 {
			var newSprint interface{}
			if opts.TargetSprintID != "" {
				newSprint = opts.TargetSprintID
			}
			if err := tx.Model(&models.Issue{}).Where("id IN ?", unfinished).
				Update("sprint_id", newSprint).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		return tx.Model(&models.Sprint{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
			"status":       "closed",
			"completed_at": now,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("sprint: complete %s: %w", id, err)
	}
	return Get(db, id)
}

// isValidTransition checks whether a sprint status transition is allowed.
func isValidTransition(from, to string) bool {
	for _, v := range ValidTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}
