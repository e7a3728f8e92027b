package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintdeck/internal/issue"
	"github.com/zulandar/sprintdeck/internal/notify"
)

type issueCreateRequest struct {
	ProjectID   string `json:"projectId" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Priority    int    `json:"priority"`
	Estimate    int    `json:"estimate"`
	SprintID    string `json:"sprintId"`
	EpicID      string `json:"epicId"`
	ReporterID  string `json:"reporterId"`
	AssigneeID  string `json:"assigneeId"`
}

func (s *Server) handleIssueList() gin.HandlerFunc {
	return func(c *gin.Context) {
		filters := issue.ListFilters{
			ProjectID:  c.Query("project"),
			SprintID:   c.Query("sprint"),
			EpicID:     c.Query("epic"),
			Status:     c.Query("status"),
			Type:       c.Query("type"),
			AssigneeID: c.Query("assignee"),
			Backlog:    c.Query("backlog") == "true",
		}
		issues, err := issue.List(s.db, filters)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, issues)
	}
}

func (s *Server) handleIssueCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req issueCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		iss, err := issue.Create(s.db, s.catalog, issue.CreateOpts{
			ProjectID:   req.ProjectID,
			Title:       req.Title,
			Description: req.Description,
			Type:        req.Type,
			Status:      req.Status,
			Priority:    req.Priority,
			Estimate:    req.Estimate,
			SprintID:    req.SprintID,
			EpicID:      req.EpicID,
			ReporterID:  req.ReporterID,
			AssigneeID:  req.AssigneeID,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}

		if s.notifier != nil && iss.AssigneeID != "" {
			s.notifier.Notify(c.Request.Context(), notify.Event{
				UserID:   iss.AssigneeID,
				Kind:     "issue_assigned",
				IssueKey: iss.Key,
				Title:    iss.Title,
			})
		}
		c.JSON(http.StatusCreated, iss)
	}
}

func (s *Server) handleIssueGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		iss, err := issue.Get(s.db, c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, iss)
	}
}

func (s *Server) handleIssueUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var updates map[string]interface{}
		if err := c.ShouldBindJSON(&updates); err != nil {
			abortWithError(c, err)
			return
		}

		before, err := issue.Get(s.db, c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}

		iss, err := issue.Update(s.db, s.catalog, c.Param("id"), updates)
		if err != nil {
			abortWithError(c, err)
			return
		}

		if s.notifier != nil && iss.AssigneeID != "" && iss.AssigneeID != before.AssigneeID {
			s.notifier.Notify(c.Request.Context(), notify.Event{
				UserID:   iss.AssigneeID,
				Kind:     "issue_assigned",
				IssueKey: iss.Key,
				Title:    iss.Title,
			})
		}
		c.JSON(http.StatusOK, iss)
	}
}

func (s *Server) handleIssueBulkUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			IDs     []string               `json:"ids" binding:"required"`
			Updates map[string]interface{} `json:"updates" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		updated, err := issue.BulkUpdate(s.db, s.catalog, req.IDs, req.Updates)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": updated})
	}
}

func (s *Server) handleIssueDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := issue.Delete(s.db, c.Param("id")); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleCommentCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			AuthorID string `json:"authorId" binding:"required"`
			Body     string `json:"body" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		comment, err := issue.AddComment(s.db, c.Param("id"), req.AuthorID, req.Body)
		if err != nil {
			abortWithError(c, err)
			return
		}

		// Let the assignee know, unless they commented themselves.
		if s.notifier != nil {
			if iss, err := issue.Get(s.db, c.Param("id")); err == nil &&
				iss.AssigneeID != "" && iss.AssigneeID != req.AuthorID {
				s.notifier.Notify(c.Request.Context(), notify.Event{
					UserID:   iss.AssigneeID,
					Kind:     "issue_commented",
					IssueKey: iss.Key,
					Title:    iss.Title,
					Body:     req.Body,
				})
			}
		}
		c.JSON(http.StatusCreated, comment)
	}
}
