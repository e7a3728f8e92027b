package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintdeck/internal/sprint"
)

type sprintCreateRequest struct {
	ProjectID string     `json:"projectId" binding:"required"`
	Name      string     `json:"name" binding:"required"`
	Goal      string     `json:"goal"`
	StartAt   *time.Time `json:"startAt"`
	EndAt     *time.Time `json:"endAt"`
}

func (s *Server) handleSprintList() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID := c.Query("project")
		if projectID == "" {
			abortWithError(c, errMissingQuery("project"))
			return
		}
		sprints, err := sprint.List(s.db, projectID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, sprints)
	}
}

func (s *Server) handleSprintCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sprintCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		sp, err := sprint.Create(s.db, sprint.CreateOpts{
			ProjectID: req.ProjectID,
			Name:      req.Name,
			Goal:      req.Goal,
			StartAt:   req.StartAt,
			EndAt:     req.EndAt,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, sp)
	}
}

func (s *Server) handleSprintGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		sp, err := sprint.Get(s.db, c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, sp)
	}
}

func (s *Server) handleSprintStart() gin.HandlerFunc {
	return func(c *gin.Context) {
		sp, err := sprint.Start(s.db, c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, sp)
	}
}

func (s *Server) handleSprintComplete() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			TargetSprintID string `json:"targetSprintId"`
		}
		// Body is optional: no target means unfinished issues go to backlog.
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				abortWithError(c, err)
				return
			}
		}
		sp, err := sprint.Complete(s.db, s.catalog, c.Param("id"), sprint.CompleteOpts{
			TargetSprintID: req.TargetSprintID,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, sp)
	}
}
