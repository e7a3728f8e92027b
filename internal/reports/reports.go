// Package reports computes burndown, cumulative flow, velocity, and epic
// progress. Every report resolves the project's workflow partition once via
// Catalog.StatusSets and reuses it across all issues and time buckets.
package reports

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/sprintdeck/internal/models"
	"github.com/zulandar/sprintdeck/internal/workflow"
	"gorm.io/gorm"
)

// BurndownPoint is one day of a sprint burndown.
type BurndownPoint struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Remaining int    `json:"remaining"`
	Ideal     float64 `json:"ideal"`
}

// Burndown returns the per-day remaining estimate for a sprint between its
// start and end dates, clamped to today. Remaining counts the estimates of
// issues not yet resolved by the end of each day.
func Burndown(db *gorm.DB, catalog *workflow.Catalog, sprintID string) ([]BurndownPoint, error) {
	var s models.Sprint
	if err := db.Where("id = ?", sprintID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("reports: sprint not found: %s", sprintID)
		}
		return nil, fmt.Errorf("reports: get sprint %s: %w", sprintID, err)
	}
	if s.StartAt == nil || s.EndAt == nil {
		return nil, fmt.Errorf("reports: sprint %s has no start/end dates", sprintID)
	}

	var issues []models.Issue
	if err := db.Where("sprint_id = ?", sprintID).Find(&issues).Error; err != nil {
		return nil, fmt.Errorf("reports: load sprint issues: %w", err)
	}

	total := 0
	for _, iss := range issues {
		total += iss.Estimate
	}

	start := dayStart(*s.StartAt)
	end := dayStart(*s.EndAt)
	today := dayStart(time.Now())
	last := end
	if today.Before(last) {
		last = today
	}

	days := int(end.Sub(start).Hours()/24) + 1
	var points []BurndownPoint
	for d, i := start, 0; !d.After(last); d, i = d.AddDate(0, 0, 1), i+1 {
		dayEnd := d.AddDate(0, 0, 1)
		remaining := 0
		for _, iss := range issues {
			if iss.ResolvedAt == nil || !iss.ResolvedAt.Before(dayEnd) {
				remaining += iss.Estimate
			}
		}
		ideal := float64(total)
		if days > 1 {
			ideal = float64(total) * float64(days-1-i) / float64(days-1)
		}
		points = append(points, BurndownPoint{
			Date:      d.Format("2006-01-02"),
			Remaining: remaining,
			Ideal:     ideal,
		})
	}
	return points, nil
}

// FlowPoint is one day of a cumulative flow diagram.
type FlowPoint struct {
	Date       string `json:"date"`
	Todo       int    `json:"todo"`
	InProgress int    `json:"inProgress"`
	Done       int    `json:"done"`
}

// CumulativeFlow returns per-day todo/in-progress/done issue counts for a
// project over the trailing window of days. Issues resolved by a day count
// as done for that day; the rest are partitioned by the current status's
// category. The status sets are computed once, not per issue per day.
func CumulativeFlow(db *gorm.DB, catalog *workflow.Catalog, projectID string, days int) ([]FlowPoint, error) {
	if days <= 0 {
		days = 30
	}

	var issues []models.Issue
	if err := db.Where("project_id = ?", projectID).Find(&issues).Error; err != nil {
		return nil, fmt.Errorf("reports: load project issues: %w", err)
	}

	sets := catalog.StatusSets(projectID)

	end := dayStart(time.Now())
	start := end.AddDate(0, 0, -(days - 1))

	var points []FlowPoint
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dayEnd := d.AddDate(0, 0, 1)
		p := FlowPoint{Date: d.Format("2006-01-02")}
		for _, iss := range issues {
			if !iss.CreatedAt.Before(dayEnd) {
				continue
			}
			switch {
			case iss.ResolvedAt != nil && iss.ResolvedAt.Before(dayEnd):
				p.Done++
			case sets.Category(iss.Status) == workflow.CategoryTodo:
				p.Todo++
			default:
				p.InProgress++
			}
		}
		points = append(points, p)
	}
	return points, nil
}

// VelocityPoint is one closed sprint's completed estimate.
type VelocityPoint struct {
	SprintID   string `json:"sprintId"`
	SprintName string `json:"sprintName"`
	Completed  int    `json:"completed"`
	Committed  int    `json:"committed"`
}

// Velocity returns completed vs committed estimates for the project's most
// recently closed sprints, oldest first.
func Velocity(db *gorm.DB, catalog *workflow.Catalog, projectID string, lastN int) ([]VelocityPoint, error) {
	if lastN <= 0 {
		lastN = 6
	}

	var sprints []models.Sprint
	if err := db.Where("project_id = ? AND status = ?", projectID, "closed").
		Order("completed_at DESC").Limit(lastN).Find(&sprints).Error; err != nil {
		return nil, fmt.Errorf("reports: load closed sprints: %w", err)
	}

	sets := catalog.StatusSets(projectID)

	points := make([]VelocityPoint, 0, len(sprints))
	for i := len(sprints) - 1; i >= 0; i-- {
		s := sprints[i]
		var issues []models.Issue
		if err := db.Where("sprint_id = ?", s.ID).Find(&issues).Error; err != nil {
			return nil, fmt.Errorf("reports: load issues of sprint %s: %w", s.ID, err)
		}
		p := VelocityPoint{SprintID: s.ID, SprintName: s.Name}
		for _, iss := range issues {
			p.Committed += iss.Estimate
			if sets.IsDone(iss.Status) {
				p.Completed += iss.Estimate
			}
		}
		points = append(points, p)
	}
	return points, nil
}

// EpicProgress summarizes completion of an epic's children.
type EpicProgress struct {
	EpicKey   string  `json:"epicKey"`
	EpicTitle string  `json:"epicTitle"`
	Total     int     `json:"total"`
	Done      int     `json:"done"`
	Percent   float64 `json:"percent"`
}

// Progress returns done/total child counts for an epic, judged by the
// workflow category of each child's status.
func Progress(db *gorm.DB, catalog *workflow.Catalog, epicIDOrKey string) (*EpicProgress, error) {
	var epic models.Issue
	if err := db.Where("id = ? OR key = ?", epicIDOrKey, epicIDOrKey).First(&epic).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("reports: epic not found: %s", epicIDOrKey)
		}
		return nil, fmt.Errorf("reports: get epic %s: %w", epicIDOrKey, err)
	}
	if epic.Type != "epic" {
		return nil, fmt.Errorf("reports: %s is type %q, not an epic", epic.Key, epic.Type)
	}

	var children []models.Issue
	if err := db.Where("epic_id = ?", epic.ID).Find(&children).Error; err != nil {
		return nil, fmt.Errorf("reports: load children of %s: %w", epic.Key, err)
	}

	sets := catalog.StatusSets(epic.ProjectID)

	progress := &EpicProgress{EpicKey: epic.Key, EpicTitle: epic.Title, Total: len(children)}
	for _, child := range children {
		if sets.IsDone(child.Status) {
			progress.Done++
		}
	}
	if progress.Total > 0 {
		progress.Percent = 100 * float64(progress.Done) / float64(progress.Total)
	}
	return progress, nil
}

// dayStart truncates a time to midnight local time.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
