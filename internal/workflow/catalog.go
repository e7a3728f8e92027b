package workflow

import (
	"strings"
	"sync"

	"github.com/zulandar/sprintdeck/internal/models"
	"gorm.io/gorm"
)

// Catalog is the registry of workflows plus the project → workflow
// assignment. Workflows live in process memory, seeded at startup; only the
// project assignment is read from the database. All operations degrade to a
// usable default instead of returning errors — callers only ever handle
// missing projects, and that happens upstream.
type Catalog struct {
	mu        sync.RWMutex
	workflows []*Workflow
	db        *gorm.DB
}

// NewCatalog builds a catalog seeded with the built-in workflows. db is used
// to resolve each project's assigned workflow; it may be nil in tests that
// only exercise catalog-level operations.
func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{
		workflows: builtinWorkflows(),
		db:        db,
	}
}

// All returns every registered workflow in registration order.
func (c *Catalog) All() []Workflow {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Workflow, len(c.workflows))
	for i, w := range c.workflows {
		out[i] = w.clone()
	}
	return out
}

// ByID returns the workflow with the given id. A missing id is a normal
// empty result, not an error.
func (c *Catalog) ByID(id string) (Workflow, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, w := range c.workflows {
		if w.ID == id {
			return w.clone(), true
		}
	}
	return Workflow{}, false
}

// ProjectWorkflow resolves the workflow assigned to a project. Falls back to
// the default workflow when the project record is missing or has no
// assignment, and to the first registered workflow if the default itself is
// gone. Never returns an empty workflow as long as the catalog has at least
// one entry.
func (c *Catalog) ProjectWorkflow(projectID string) Workflow {
	workflowID := DefaultWorkflowID
	if c.db != nil && projectID != "" {
		var project models.Project
		if err := c.db.Select("workflow_id").Where("id = ?", projectID).First(&project).Error; err == nil && project.WorkflowID != "" {
			workflowID = project.WorkflowID
		}
	}

	if w, ok := c.ByID(workflowID); ok {
		return w
	}
	if w, ok := c.ByID(DefaultWorkflowID); ok {
		return w
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.workflows) > 0 {
		return c.workflows[0].clone()
	}
	return Workflow{}
}

// DoneStatuses returns the lower-cased ids of every DONE-category status in
// the project's workflow. This is the canonical completion predicate: status
// ids vary between workflows ("closed" in the bug flow means the same as
// "done" in the default flow).
func (c *Catalog) DoneStatuses(projectID string) []string {
	w := c.ProjectWorkflow(projectID)
	var done []string
	for _, s := range w.Statuses {
		if s.Category == CategoryDone {
			done = append(done, strings.ToLower(s.ID))
		}
	}
	return done
}

// StatusCategory classifies a status string within the project's workflow.
// Matching is case-insensitive against both status id and display name.
// Unknown strings classify as IN_PROGRESS: an unrecognized status is assumed
// to be active work rather than done or untouched.
func (c *Catalog) StatusCategory(projectID, status string) Category {
	return c.ProjectWorkflow(projectID).categoryOf(status)
}

// IsDone reports whether a status string maps to the DONE category in the
// project's workflow.
func (c *Catalog) IsDone(projectID, status string) bool {
	return c.StatusCategory(projectID, status) == CategoryDone
}

// AddStatus appends a status to a workflow. Inserting a status whose id
// already exists is a no-op, so the operation is idempotent. Returns false
// when the workflow doesn't exist or the status was already present.
func (c *Catalog) AddStatus(workflowID string, status Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, w := range c.workflows {
		if w.ID != workflowID {
			continue
		}
		for _, s := range w.Statuses {
			if s.ID == status.ID {
				return false
			}
		}
		if status.Position == 0 {
			status.Position = len(w.Statuses)
		}
		w.Statuses = append(w.Statuses, status)
		return true
	}
	return false
}

// CanTransition reports whether the project's workflow allows moving from
// one status to another. Workflows with no transition list allow everything.
func (c *Catalog) CanTransition(projectID, from, to string) bool {
	w := c.ProjectWorkflow(projectID)
	if len(w.Transitions) == 0 {
		return true
	}
	if strings.EqualFold(from, to) {
		return true
	}
	for _, t := range w.Transitions {
		if strings.EqualFold(t.From, from) && strings.EqualFold(t.To, to) {
			return true
		}
	}
	return false
}

// StatusSets is the done/in-progress/todo partition of a project's workflow,
// computed once so report loops don't re-resolve the workflow per issue per
// time bucket.
type StatusSets struct {
	Todo       []string // lower-cased status ids
	InProgress []string
	Done       []string

	statuses []Status
}

// StatusSets returns the category partition for the project's workflow.
func (c *Catalog) StatusSets(projectID string) StatusSets {
	w := c.ProjectWorkflow(projectID)
	sets := StatusSets{statuses: w.Statuses}
	for _, s := range w.Statuses {
		id := strings.ToLower(s.ID)
		switch s.Category {
		case CategoryTodo:
			sets.Todo = append(sets.Todo, id)
		case CategoryDone:
			sets.Done = append(sets.Done, id)
		default:
			sets.InProgress = append(sets.InProgress, id)
		}
	}
	return sets
}

// Category classifies a status string against the precomputed partition,
// with the same matching rules as Catalog.StatusCategory.
func (s StatusSets) Category(status string) Category {
	return categoryOf(s.statuses, status)
}

// IsDone reports whether the status classifies as DONE.
func (s StatusSets) IsDone(status string) bool {
	return s.Category(status) == CategoryDone
}

func (w Workflow) categoryOf(status string) Category {
	return categoryOf(w.Statuses, status)
}

func categoryOf(statuses []Status, status string) Category {
	for _, s := range statuses {
		if strings.EqualFold(s.ID, status) || strings.EqualFold(s.Name, status) {
			return s.Category
		}
	}
	return CategoryInProgress
}
