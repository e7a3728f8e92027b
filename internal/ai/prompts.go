package ai

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// textToIssuesTemplate turns free-form text into structured issue drafts.
const textToIssuesTemplate = `You are the planning assistant for Sprintdeck, a project tracker. Turn the text below into a list of well-scoped issues.

Rules:
1. One issue per atomic work unit.
2. type is one of: task, bug, story, epic. Default to task.
3. estimate is story points (1, 2, 3, 5, 8); 0 when you cannot tell.
4. priority is one of: low, medium, high. Default to medium.
5. Titles are imperative and under 80 characters.

Text:
{{ .Text }}

Respond with ONLY a JSON array, no prose:
[{"title": "...", "description": "...", "type": "task", "estimate": 3, "priority": "medium"}]`

// planSprintTemplate suggests which backlog issues fit a sprint.
const planSprintTemplate = `You are the planning assistant for Sprintdeck. Pick backlog issues for the next sprint.

Sprint goal: {{ .Goal }}
Capacity: {{ .Capacity }} story points

Backlog:
{{ range .Backlog }}- {{ .Key }} ({{ .Estimate }} pts): {{ .Title }}
{{ end }}
Rules:
1. The total estimate of picked issues must not exceed the capacity.
2. Prefer issues that advance the sprint goal.
3. Explain the selection in two or three sentences.

Respond with ONLY a JSON object, no prose:
{"issueKeys": ["KEY-1"], "rationale": "..."}`

// voiceCommandTemplate parses a spoken command transcript.
const voiceCommandTemplate = `You are the command parser for Sprintdeck. Map the transcript to one structured command.

Actions:
- create_issue: fields title, issueType (task|bug|story|epic)
- move_issue: fields issueKey, status
- assign_issue: fields issueKey, assignee
- start_sprint: field sprintName
- unknown: no fields; use when the transcript does not match any action

Transcript:
{{ .Transcript }}

Respond with ONLY a JSON object, no prose:
{"action": "move_issue", "issueKey": "AYP-12", "status": "in_review", "title": "", "issueType": "", "assignee": "", "sprintName": ""}`

// renderPrompt executes one of the const templates above.
func renderPrompt(name, text string, data interface{}) (string, error) {
	funcMap := template.FuncMap{
		"joinStrings": strings.Join,
	}
	tmpl, err := template.New(name).Funcs(funcMap).Parse(text)
	if err != nil {
		return "", fmt.Errorf("ai: parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("ai: render %s prompt: %w", name, err)
	}
	return buf.String(), nil
}
