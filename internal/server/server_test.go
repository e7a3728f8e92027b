package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintdeck/internal/db"
	"github.com/zulandar/sprintdeck/internal/models"
	"github.com/zulandar/sprintdeck/internal/workflow"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	s := &Server{db: gdb, catalog: workflow.NewCatalog(gdb)}
	gin.SetMode(gin.TestMode)
	router := gin.New()
	registerRoutes(router, s)
	return router, gdb
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestProjectLifecycle(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/projects", gin.H{"name": "Apollo Yard Planner"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	var created models.Project
	decode(t, w, &created)
	if created.Key != "AYP" {
		t.Errorf("key = %q, want AYP", created.Key)
	}

	w = doJSON(t, router, http.MethodGet, "/api/projects/AYP", nil)
	if w.Code != http.StatusOK {
		t.Errorf("get by key status = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/projects/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing project status = %d, want 404", w.Code)
	}

	w = doJSON(t, router, http.MethodPut, "/api/projects/"+created.ID+"/workflow", gin.H{"workflowId": "workflow-2"})
	if w.Code != http.StatusNoContent {
		t.Errorf("assign workflow status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodDelete, "/api/projects/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}
}

func TestIssueLifecycle(t *testing.T) {
	router, _ := testRouter(t)

	var p models.Project
	decode(t, doJSON(t, router, http.MethodPost, "/api/projects", gin.H{"name": "Apollo Yard Planner"}), &p)

	w := doJSON(t, router, http.MethodPost, "/api/issues", gin.H{
		"projectId": p.ID,
		"title":     "Build the board",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	var iss models.Issue
	decode(t, w, &iss)
	if iss.Key != "AYP-1" || iss.Status != "todo" || iss.Type != "task" {
		t.Errorf("issue = key %q status %q type %q", iss.Key, iss.Status, iss.Type)
	}

	// Move to done via PATCH; resolution is stamped.
	w = doJSON(t, router, http.MethodPatch, "/api/issues/AYP-1", gin.H{"status": "done"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &iss)
	if iss.ResolvedAt == nil {
		t.Error("resolved_at not stamped on done transition")
	}

	w = doJSON(t, router, http.MethodPost, "/api/issues/AYP-1/comments", gin.H{
		"authorId": "usr-1",
		"body":     "looks good",
	})
	if w.Code != http.StatusCreated {
		t.Errorf("comment status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/api/issues?project="+p.ID+"&status=done", nil)
	var list []models.Issue
	decode(t, w, &list)
	if len(list) != 1 {
		t.Errorf("filtered list = %d issues, want 1", len(list))
	}

	w = doJSON(t, router, http.MethodDelete, "/api/issues/AYP-1", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", w.Code)
	}

	// The burned key is not reused.
	w = doJSON(t, router, http.MethodPost, "/api/issues", gin.H{"projectId": p.ID, "title": "next"})
	decode(t, w, &iss)
	if iss.Key != "AYP-2" {
		t.Errorf("key after delete = %q, want AYP-2", iss.Key)
	}
}

func TestIssueBulkUpdate(t *testing.T) {
	router, _ := testRouter(t)

	var p models.Project
	decode(t, doJSON(t, router, http.MethodPost, "/api/projects", gin.H{"name": "Apollo Yard Planner"}), &p)
	var a, b models.Issue
	decode(t, doJSON(t, router, http.MethodPost, "/api/issues", gin.H{"projectId": p.ID, "title": "a"}), &a)
	decode(t, doJSON(t, router, http.MethodPost, "/api/issues", gin.H{"projectId": p.ID, "title": "b"}), &b)

	w := doJSON(t, router, http.MethodPost, "/api/issues/bulk", gin.H{
		"ids":     []string{a.Key, b.Key},
		"updates": gin.H{"status": "in_progress"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("bulk status = %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]int
	decode(t, w, &resp)
	if resp["updated"] != 2 {
		t.Errorf("updated = %d, want 2", resp["updated"])
	}
}

func TestSprintEndpoints(t *testing.T) {
	router, _ := testRouter(t)

	var p models.Project
	decode(t, doJSON(t, router, http.MethodPost, "/api/projects", gin.H{"name": "Apollo Yard Planner"}), &p)

	var sp models.Sprint
	w := doJSON(t, router, http.MethodPost, "/api/sprints", gin.H{"projectId": p.ID, "name": "Sprint 1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &sp)

	w = doJSON(t, router, http.MethodPost, "/api/sprints/"+sp.ID+"/start", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/sprints/"+sp.ID+"/complete", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("complete status = %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &sp)
	if sp.Status != "closed" || sp.CompletedAt == nil {
		t.Errorf("sprint after complete = %+v", sp)
	}

	w = doJSON(t, router, http.MethodGet, "/api/sprints?project="+p.ID, nil)
	var sprints []models.Sprint
	decode(t, w, &sprints)
	if len(sprints) != 1 {
		t.Errorf("list = %d sprints, want 1", len(sprints))
	}

	if w := doJSON(t, router, http.MethodGet, "/api/sprints", nil); w.Code != http.StatusBadRequest {
		t.Errorf("list without project = %d, want 400", w.Code)
	}
}

func TestUserEndpointsHidePasswordHash(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/users", gin.H{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "correct horse",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	if strings.Contains(strings.ToLower(w.Body.String()), "hash") {
		t.Errorf("response leaks password hash: %s", w.Body.String())
	}

	var u userResponse
	decode(t, w, &u)
	w = doJSON(t, router, http.MethodGet, "/api/users/"+u.ID, nil)
	if w.Code != http.StatusOK || strings.Contains(strings.ToLower(w.Body.String()), "hash") {
		t.Errorf("get status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestNotificationEndpoints(t *testing.T) {
	router, gdb := testRouter(t)

	gdb.Create(&models.Notification{UserID: "usr-1", Kind: "ping", Title: "a"})
	gdb.Create(&models.Notification{UserID: "usr-1", Kind: "ping", Title: "b"})

	w := doJSON(t, router, http.MethodGet, "/api/notifications?user=usr-1&unread=true", nil)
	var rows []models.Notification
	decode(t, w, &rows)
	if len(rows) != 2 {
		t.Fatalf("unread = %d, want 2", len(rows))
	}

	w = doJSON(t, router, http.MethodPost, "/api/notifications/read", gin.H{
		"userId": "usr-1",
		"ids":    []uint{rows[0].ID},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("mark read status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/api/notifications?user=usr-1&unread=true", nil)
	decode(t, w, &rows)
	if len(rows) != 1 {
		t.Errorf("unread after mark = %d, want 1", len(rows))
	}

	if w := doJSON(t, router, http.MethodGet, "/api/notifications", nil); w.Code != http.StatusBadRequest {
		t.Errorf("list without user = %d, want 400", w.Code)
	}
}

func TestChatEndpoints(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/chat", gin.H{
		"projectId": "P1",
		"authorId":  "usr-1",
		"body":      "standup in 5",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("post status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/api/chat?project=P1", nil)
	var msgs []models.ChatMessage
	decode(t, w, &msgs)
	if len(msgs) != 1 || msgs[0].Body != "standup in 5" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestWorkflowEndpoints(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/workflows", nil)
	var workflows []workflow.Workflow
	decode(t, w, &workflows)
	if len(workflows) != 2 {
		t.Fatalf("workflows = %d, want 2 builtins", len(workflows))
	}

	w = doJSON(t, router, http.MethodGet, "/api/workflows/workflow-2", nil)
	if w.Code != http.StatusOK {
		t.Errorf("get status = %d", w.Code)
	}
	if w := doJSON(t, router, http.MethodGet, "/api/workflows/workflow-99", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing workflow = %d, want 404", w.Code)
	}

	addReq := gin.H{"id": "blocked", "name": "Blocked", "category": "IN_PROGRESS"}
	if w := doJSON(t, router, http.MethodPost, "/api/workflows/workflow-1/statuses", addReq); w.Code != http.StatusCreated {
		t.Errorf("add status = %d: %s", w.Code, w.Body.String())
	}
	// Same payload again is an idempotent no-op.
	if w := doJSON(t, router, http.MethodPost, "/api/workflows/workflow-1/statuses", addReq); w.Code != http.StatusOK {
		t.Errorf("repeat add status = %d, want 200", w.Code)
	}

	badReq := gin.H{"id": "x", "name": "X", "category": "MAYBE"}
	if w := doJSON(t, router, http.MethodPost, "/api/workflows/workflow-1/statuses", badReq); w.Code != http.StatusBadRequest {
		t.Errorf("bad category = %d, want 400", w.Code)
	}
}

func TestReportEndpoints(t *testing.T) {
	router, _ := testRouter(t)

	var p models.Project
	decode(t, doJSON(t, router, http.MethodPost, "/api/projects", gin.H{"name": "Apollo Yard Planner"}), &p)

	// No closed sprints yet: empty but valid.
	w := doJSON(t, router, http.MethodGet, "/api/reports/velocity/"+p.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("velocity status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/api/reports/cfd/"+p.ID+"?days=7", nil)
	if w.Code != http.StatusOK {
		t.Errorf("cfd status = %d: %s", w.Code, w.Body.String())
	}

	if w := doJSON(t, router, http.MethodGet, "/api/reports/burndown/ghost", nil); w.Code != http.StatusNotFound {
		t.Errorf("burndown for missing sprint = %d, want 404", w.Code)
	}
}

func TestAIEndpointsUnavailableWithoutKey(t *testing.T) {
	router, _ := testRouter(t)

	for _, path := range []string{
		"/api/ai/text-to-issues",
		"/api/ai/plan-sprint",
		"/api/ai/voice-command",
	} {
		w := doJSON(t, router, http.MethodPost, path, gin.H{"text": "x"})
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", path, w.Code)
		}
	}
}
