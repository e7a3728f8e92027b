package ghimport

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-github/v68/github"
	"github.com/zulandar/sprintdeck/internal/models"
	"github.com/zulandar/sprintdeck/internal/workflow"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testSetup(t *testing.T) (*gorm.DB, *workflow.Catalog) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Project{}, &models.Issue{}, &models.Comment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Create(&models.Project{ID: "P1", Name: "Apollo", Key: "AYP"}).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return db, workflow.NewCatalog(db)
}

// fakeLister serves pages of canned GitHub issues.
type fakeLister struct {
	pages [][]*github.Issue
}

func (f *fakeLister) ListByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error) {
	page := opts.Page
	if page == 0 {
		page = 1
	}
	issues := f.pages[page-1]
	resp := &github.Response{}
	if page < len(f.pages) {
		resp.NextPage = page + 1
	}
	return issues, resp, nil
}

func ghIssue(number int, title, state string, labels ...string) *github.Issue {
	iss := &github.Issue{
		Number: github.Ptr(number),
		Title:  github.Ptr(title),
		Body:   github.Ptr("from github"),
		State:  github.Ptr(state),
	}
	for _, l := range labels {
		iss.Labels = append(iss.Labels, &github.Label{Name: github.Ptr(l)})
	}
	return iss
}

func TestImport(t *testing.T) {
	db, catalog := testSetup(t)
	im := &Importer{db: db, catalog: catalog, lister: &fakeLister{pages: [][]*github.Issue{{
		ghIssue(1, "Crash on login", "open", "bug"),
		ghIssue(2, "Dark mode", "open", "enhancement"),
		ghIssue(3, "Old request", "closed"),
	}}}}

	result, err := im.Import(context.Background(), "acme", "app", "P1", Opts{State: "all"})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.Imported != 3 || result.Skipped != 0 {
		t.Fatalf("result = %+v, want 3 imported", result)
	}

	var issues []models.Issue
	db.Order("key ASC").Find(&issues)
	if len(issues) != 3 {
		t.Fatalf("issues = %d, want 3", len(issues))
	}

	byTitle := map[string]models.Issue{}
	for _, iss := range issues {
		byTitle[iss.Title] = iss
		if !strings.HasPrefix(iss.Key, "AYP-") {
			t.Errorf("key %q not allocated with project prefix", iss.Key)
		}
		if !strings.Contains(iss.Description, "github.com/acme/app#") {
			t.Errorf("description of %s missing source reference", iss.Key)
		}
	}
	if byTitle["Crash on login"].Type != "bug" {
		t.Errorf("bug label not mapped: %+v", byTitle["Crash on login"])
	}
	if byTitle["Dark mode"].Type != "story" {
		t.Errorf("enhancement label not mapped: %+v", byTitle["Dark mode"])
	}
	if byTitle["Old request"].Status != "done" {
		t.Errorf("closed state not mapped to done status: %+v", byTitle["Old request"])
	}
	if byTitle["Old request"].ResolvedAt == nil {
		t.Error("closed import did not stamp resolution")
	}
}

func TestImport_SkipsPullRequestsAndDuplicates(t *testing.T) {
	db, catalog := testSetup(t)
	pr := ghIssue(9, "A pull request", "open")
	pr.PullRequestLinks = &github.PullRequestLinks{URL: github.Ptr("https://example.com/pr/9")}

	lister := &fakeLister{pages: [][]*github.Issue{{
		ghIssue(1, "Real issue", "open"),
		pr,
	}}}
	im := &Importer{db: db, catalog: catalog, lister: lister}

	first, err := im.Import(context.Background(), "acme", "app", "P1", Opts{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if first.Imported != 1 || first.Skipped != 1 {
		t.Errorf("first = %+v, want 1 imported 1 skipped", first)
	}

	// Re-import: the issue is already there.
	second, err := im.Import(context.Background(), "acme", "app", "P1", Opts{})
	if err != nil {
		t.Fatalf("re-Import: %v", err)
	}
	if second.Imported != 0 || second.Skipped != 2 {
		t.Errorf("second = %+v, want 0 imported 2 skipped", second)
	}
}

func TestImport_Paginates(t *testing.T) {
	db, catalog := testSetup(t)
	im := &Importer{db: db, catalog: catalog, lister: &fakeLister{pages: [][]*github.Issue{
		{ghIssue(1, "one", "open")},
		{ghIssue(2, "two", "open")},
	}}}

	result, err := im.Import(context.Background(), "acme", "app", "P1", Opts{})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.Imported != 2 {
		t.Errorf("imported = %d, want 2 across pages", result.Imported)
	}
}

func TestImport_UnknownProject(t *testing.T) {
	db, catalog := testSetup(t)
	im := &Importer{db: db, catalog: catalog, lister: &fakeLister{pages: [][]*github.Issue{{}}}}
	if _, err := im.Import(context.Background(), "acme", "app", "ghost", Opts{}); err == nil {
		t.Error("expected error for unknown project")
	}
}
