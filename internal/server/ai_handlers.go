package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintdeck/internal/ai"
	"github.com/zulandar/sprintdeck/internal/issue"
)

// requireAI guards the smart endpoints when no API key is configured.
func (s *Server) requireAI(c *gin.Context) bool {
	if s.ai == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error": "ai features are not configured",
		})
		return false
	}
	return true
}

func (s *Server) handleTextToIssues() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.requireAI(c) {
			return
		}
		var req struct {
			Text      string `json:"text" binding:"required"`
			ProjectID string `json:"projectId"`
			Create    bool   `json:"create"` // persist drafts instead of just returning them
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}

		drafts, err := s.ai.TextToIssues(c.Request.Context(), req.Text)
		if err != nil {
			abortWithError(c, err)
			return
		}

		if !req.Create {
			c.JSON(http.StatusOK, gin.H{"drafts": drafts})
			return
		}
		if req.ProjectID == "" {
			abortWithError(c, errMissingQuery("projectId"))
			return
		}

		created := make([]interface{}, 0, len(drafts))
		for _, d := range drafts {
			iss, err := issue.Create(s.db, s.catalog, issue.CreateOpts{
				ProjectID:   req.ProjectID,
				Title:       d.Title,
				Description: d.Description,
				Type:        d.Type,
				Estimate:    d.Estimate,
			})
			if err != nil {
				abortWithError(c, err)
				return
			}
			created = append(created, iss)
		}
		c.JSON(http.StatusCreated, gin.H{"issues": created})
	}
}

func (s *Server) handlePlanSprint() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.requireAI(c) {
			return
		}
		var req struct {
			ProjectID string `json:"projectId" binding:"required"`
			Goal      string `json:"goal"`
			Capacity  int    `json:"capacity" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}

		backlogIssues, err := issue.List(s.db, issue.ListFilters{ProjectID: req.ProjectID, Backlog: true})
		if err != nil {
			abortWithError(c, err)
			return
		}
		backlog := make([]ai.BacklogItem, 0, len(backlogIssues))
		for _, iss := range backlogIssues {
			backlog = append(backlog, ai.BacklogItem{Key: iss.Key, Title: iss.Title, Estimate: iss.Estimate})
		}

		plan, err := s.ai.PlanSprint(c.Request.Context(), ai.PlanRequest{
			Goal:     req.Goal,
			Capacity: req.Capacity,
			Backlog:  backlog,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, plan)
	}
}

func (s *Server) handleVoiceCommand() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.requireAI(c) {
			return
		}
		var req struct {
			Transcript string `json:"transcript" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		cmd, err := s.ai.ParseVoiceCommand(c.Request.Context(), req.Transcript)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, cmd)
	}
}
