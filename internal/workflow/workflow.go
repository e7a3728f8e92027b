// Package workflow maintains the in-process catalog of workflows and answers
// status-category questions for the rest of the system.
package workflow

// Category is the semantic classification of a status, independent of its
// display name or id. It is the single source of truth for every "is this
// issue done / active / untouched" decision; nothing elsewhere compares
// status strings against literals.
type Category string

const (
	CategoryTodo       Category = "TODO"
	CategoryInProgress Category = "IN_PROGRESS"
	CategoryDone       Category = "DONE"
)

// DefaultWorkflowID is assigned to projects that never picked a workflow.
const DefaultWorkflowID = "workflow-1"

// Status is a single workflow state.
type Status struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Position int      `json:"position"`
}

// Transition is an allowed move between two statuses in a workflow.
type Transition struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Workflow is a named, ordered collection of statuses and allowed
// transitions, assignable to projects.
type Workflow struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	IsDefault   bool         `json:"isDefault"`
	Statuses    []Status     `json:"statuses"`
	Transitions []Transition `json:"transitions"`
}

// clone returns a deep copy so callers can't mutate catalog state.
func (w Workflow) clone() Workflow {
	out := w
	out.Statuses = append([]Status(nil), w.Statuses...)
	out.Transitions = append([]Transition(nil), w.Transitions...)
	return out
}

// builtinWorkflows returns the two seeded workflows. workflow-1 is the
// default; workflow-2 is the bug flow, whose terminal statuses are
// "resolved" and "closed" — deliberately no status named "done".
func builtinWorkflows() []*Workflow {
	return []*Workflow{
		{
			ID:          "workflow-1",
			Name:        "Default Workflow",
			Description: "Standard todo / in progress / done flow",
			IsDefault:   true,
			Statuses: []Status{
				{ID: "todo", Name: "To Do", Category: CategoryTodo, Position: 0},
				{ID: "in_progress", Name: "In Progress", Category: CategoryInProgress, Position: 1},
				{ID: "in_review", Name: "In Review", Category: CategoryInProgress, Position: 2},
				{ID: "done", Name: "Done", Category: CategoryDone, Position: 3},
			},
			Transitions: []Transition{
				{From: "todo", To: "in_progress"},
				{From: "in_progress", To: "in_review"},
				{From: "in_progress", To: "todo"},
				{From: "in_review", To: "in_progress"},
				{From: "in_review", To: "done"},
				{From: "done", To: "todo"},
			},
		},
		{
			ID:          "workflow-2",
			Name:        "Bug Workflow",
			Description: "Triage-oriented flow for defects",
			Statuses: []Status{
				{ID: "open", Name: "Open", Category: CategoryTodo, Position: 0},
				{ID: "triaged", Name: "Triaged", Category: CategoryTodo, Position: 1},
				{ID: "in_progress", Name: "In Progress", Category: CategoryInProgress, Position: 2},
				{ID: "resolved", Name: "Resolved", Category: CategoryDone, Position: 3},
				{ID: "closed", Name: "Closed", Category: CategoryDone, Position: 4},
			},
			Transitions: []Transition{
				{From: "open", To: "triaged"},
				{From: "triaged", To: "in_progress"},
				{From: "in_progress", To: "resolved"},
				{From: "resolved", To: "closed"},
				{From: "resolved", To: "open"},
				{From: "closed", To: "open"},
			},
		},
	}
}
