package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// IssueDraft is one issue proposed by TextToIssues, not yet persisted.
type IssueDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Estimate    int    `json:"estimate"`
	Priority    string `json:"priority"`
}

// BacklogItem is one candidate issue handed to PlanSprint.
type BacklogItem struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Estimate int    `json:"estimate"`
}

// PlanRequest describes the sprint to plan.
type PlanRequest struct {
	Goal     string
	Capacity int
	Backlog  []BacklogItem
}

// PlanResult is the model's suggested sprint scope.
type PlanResult struct {
	IssueKeys []string `json:"issueKeys"`
	Rationale string   `json:"rationale"`
}

// VoiceCommand is a parsed spoken command. Action is one of create_issue,
// move_issue, assign_issue, start_sprint, or unknown; only the fields relevant
// to the action are populated.
type VoiceCommand struct {
	Action     string `json:"action"`
	Title      string `json:"title"`
	IssueType  string `json:"issueType"`
	IssueKey   string `json:"issueKey"`
	Status     string `json:"status"`
	Assignee   string `json:"assignee"`
	SprintName string `json:"sprintName"`
}

var knownActions = map[string]bool{
	"create_issue": true,
	"move_issue":   true,
	"assign_issue": true,
	"start_sprint": true,
	"unknown":      true,
}

// TextToIssues turns free-form text into issue drafts.
func (c *Client) TextToIssues(ctx context.Context, text string) ([]IssueDraft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("ai: text is empty")
	}
	prompt, err := renderPrompt("text-to-issues", textToIssuesTemplate, struct{ Text string }{text})
	if err != nil {
		return nil, err
	}

	resp, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var drafts []IssueDraft
	if err := json.Unmarshal([]byte(extractJSON(resp)), &drafts); err != nil {
		return nil, fmt.Errorf("ai: parse issue drafts: %w", err)
	}
	for i := range drafts {
		if drafts[i].Title == "" {
			return nil, fmt.Errorf("ai: draft %d has no title", i)
		}
		if drafts[i].Type == "" {
			drafts[i].Type = "task"
		}
		if drafts[i].Priority == "" {
			drafts[i].Priority = "medium"
		}
	}
	return drafts, nil
}

// PlanSprint suggests backlog issues for a sprint within the given capacity.
// Picks the model invents (keys not in the backlog) are dropped.
func (c *Client) PlanSprint(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	if len(req.Backlog) == 0 {
		return nil, fmt.Errorf("ai: backlog is empty")
	}
	if req.Capacity <= 0 {
		return nil, fmt.Errorf("ai: capacity must be positive")
	}
	prompt, err := renderPrompt("plan-sprint", planSprintTemplate, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result PlanResult
	if err := json.Unmarshal([]byte(extractJSON(resp)), &result); err != nil {
		return nil, fmt.Errorf("ai: parse sprint plan: %w", err)
	}

	valid := make(map[string]bool, len(req.Backlog))
	for _, item := range req.Backlog {
		valid[item.Key] = true
	}
	keys := result.IssueKeys[:0]
	for _, k := range result.IssueKeys {
		if valid[k] {
			keys = append(keys, k)
		}
	}
	result.IssueKeys = keys
	return &result, nil
}

// ParseVoiceCommand maps a transcript to a structured command. Anything the
// model cannot classify comes back with action "unknown".
func (c *Client) ParseVoiceCommand(ctx context.Context, transcript string) (*VoiceCommand, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("ai: transcript is empty")
	}
	prompt, err := renderPrompt("voice-command", voiceCommandTemplate, struct{ Transcript string }{transcript})
	if err != nil {
		return nil, err
	}

	resp, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var cmd VoiceCommand
	if err := json.Unmarshal([]byte(extractJSON(resp)), &cmd); err != nil {
		return nil, fmt.Errorf("ai: parse voice command: %w", err)
	}
	if !knownActions[cmd.Action] {
		cmd = VoiceCommand{Action: "unknown"}
	}
	return &cmd, nil
}
