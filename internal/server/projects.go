package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintdeck/internal/project"
)

type projectCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Key         string `json:"key"`
	Description string `json:"description"`
	WorkflowID  string `json:"workflowId"`
	LeadID      string `json:"leadId"`
}

func (s *Server) handleProjectList() gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := project.List(s.db)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, projects)
	}
}

func (s *Server) handleProjectCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req projectCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		p, err := project.Create(s.db, s.catalog, project.CreateOpts{
			Name:        req.Name,
			Key:         req.Key,
			Description: req.Description,
			WorkflowID:  req.WorkflowID,
			LeadID:      req.LeadID,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func (s *Server) handleProjectGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := project.Get(s.db, c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func (s *Server) handleProjectUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var updates map[string]interface{}
		if err := c.ShouldBindJSON(&updates); err != nil {
			abortWithError(c, err)
			return
		}
		if err := project.Update(s.db, c.Param("id"), updates); err != nil {
			abortWithError(c, err)
			return
		}
		p, err := project.Get(s.db, c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func (s *Server) handleProjectDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := project.Delete(s.db, c.Param("id")); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleProjectAssignWorkflow() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			WorkflowID string `json:"workflowId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		p, err := project.Get(s.db, c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		if err := project.AssignWorkflow(s.db, s.catalog, p.ID, req.WorkflowID); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
