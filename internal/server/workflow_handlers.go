package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintdeck/internal/workflow"
)

func (s *Server) handleWorkflowList() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.catalog.All())
	}
}

func (s *Server) handleWorkflowGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := s.catalog.ByID(c.Param("id"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "workflow not found: " + c.Param("id")})
			return
		}
		c.JSON(http.StatusOK, w)
	}
}

func (s *Server) handleWorkflowAddStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ID       string `json:"id" binding:"required"`
			Name     string `json:"name" binding:"required"`
			Category string `json:"category" binding:"required"`
			Position int    `json:"position"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}

		category := workflow.Category(req.Category)
		switch category {
		case workflow.CategoryTodo, workflow.CategoryInProgress, workflow.CategoryDone:
		default:
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "category must be TODO, IN_PROGRESS, or DONE",
			})
			return
		}

		added := s.catalog.AddStatus(c.Param("id"), workflow.Status{
			ID:       req.ID,
			Name:     req.Name,
			Category: category,
			Position: req.Position,
		})
		if !added {
			if _, ok := s.catalog.ByID(c.Param("id")); !ok {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "workflow not found: " + c.Param("id")})
				return
			}
			// Already present: idempotent success.
			c.JSON(http.StatusOK, gin.H{"added": false})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"added": true})
	}
}
