// Package ghimport imports issues from a GitHub repository into a project.
// Imported issues go through the regular key allocator, so they slot in above
// the project's current highest key.
package ghimport

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/go-github/v68/github"
	"github.com/zulandar/sprintdeck/internal/issue"
	"github.com/zulandar/sprintdeck/internal/models"
	"github.com/zulandar/sprintdeck/internal/workflow"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// issueLister abstracts the GitHub issues API, enabling test mocks.
type issueLister interface {
	ListByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
}

// Importer pulls GitHub issues into a project.
type Importer struct {
	db      *gorm.DB
	catalog *workflow.Catalog
	lister  issueLister
}

// New creates an Importer authenticated with the given token. An empty token
// falls back to unauthenticated access, which works for public repositories.
func New(ctx context.Context, db *gorm.DB, catalog *workflow.Catalog, token string) *Importer {
	var client *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(ctx, ts))
	} else {
		client = github.NewClient(nil)
	}
	return &Importer{db: db, catalog: catalog, lister: client.Issues}
}

// Opts controls what gets imported.
type Opts struct {
	State string // open (default), closed, or all
}

// Result summarizes an import run.
type Result struct {
	Imported int
	Skipped  int // pull requests and already-imported issues
}

// Import fetches issues from owner/repo and creates one project issue per
// GitHub issue. Pull requests are skipped, and issues already imported (by
// source reference) are not duplicated.
func (im *Importer) Import(ctx context.Context, owner, repo, projectID string, opts Opts) (*Result, error) {
	var project models.Project
	if err := im.db.Where("id = ?", projectID).First(&project).Error; err != nil {
		return nil, fmt.Errorf("ghimport: project not found: %s", projectID)
	}

	state := opts.State
	if state == "" {
		state = "open"
	}

	listOpts := &github.IssueListByRepoOptions{
		State:       state,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	result := &Result{}
	for {
		ghIssues, resp, err := im.lister.ListByRepo(ctx, owner, repo, listOpts)
		if err != nil {
			return nil, fmt.Errorf("ghimport: list %s/%s: %w", owner, repo, err)
		}

		for _, gh := range ghIssues {
			if gh.IsPullRequest() {
				result.Skipped++
				continue
			}

			ref := fmt.Sprintf("github.com/%s/%s#%d", owner, repo, gh.GetNumber())
			var exists int64
			if err := im.db.Model(&models.Issue{}).
				Where("project_id = ? AND description LIKE ?", projectID, "%"+ref+"%").
				Count(&exists).Error; err != nil {
				return nil, fmt.Errorf("ghimport: check %s: %w", ref, err)
			}
			if exists > 0 {
				result.Skipped++
				continue
			}

			created, err := issue.Create(im.db, im.catalog, issue.CreateOpts{
				ProjectID:   projectID,
				Title:       gh.GetTitle(),
				Description: importDescription(gh.GetBody(), ref),
				Type:        typeFromLabels(gh.Labels),
				Status:      im.statusFromState(projectID, gh.GetState()),
				Priority:    2,
			})
			if err != nil {
				return result, fmt.Errorf("ghimport: create %s: %w", ref, err)
			}
			log.Printf("ghimport: %s -> %s", ref, created.Key)
			result.Imported++
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}
	return result, nil
}

// importDescription appends the source reference so re-imports can detect
// already-imported issues.
func importDescription(body, ref string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return "Imported from " + ref
	}
	return body + "\n\nImported from " + ref
}

// typeFromLabels maps GitHub labels to an issue type.
func typeFromLabels(labels []*github.Label) string {
	for _, l := range labels {
		switch strings.ToLower(l.GetName()) {
		case "bug":
			return "bug"
		case "enhancement", "feature":
			return "story"
		case "epic":
			return "epic"
		}
	}
	return "task"
}

// statusFromState maps the GitHub issue state to a workflow status: closed
// issues land on the workflow's first done status, open ones use the default.
func (im *Importer) statusFromState(projectID, state string) string {
	if state != "closed" {
		return "" // issue.Create picks the workflow default
	}
	done := im.catalog.DoneStatuses(projectID)
	if len(done) == 0 {
		return ""
	}
	return done[0]
}
