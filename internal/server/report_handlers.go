package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintdeck/internal/reports"
)

func (s *Server) handleBurndown() gin.HandlerFunc {
	return func(c *gin.Context) {
		points, err := reports.Burndown(s.db, s.catalog, c.Param("sprintID"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, points)
	}
}

func (s *Server) handleCumulativeFlow() gin.HandlerFunc {
	return func(c *gin.Context) {
		days, _ := strconv.Atoi(c.Query("days"))
		points, err := reports.CumulativeFlow(s.db, s.catalog, c.Param("projectID"), days)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, points)
	}
}

func (s *Server) handleVelocity() gin.HandlerFunc {
	return func(c *gin.Context) {
		lastN, _ := strconv.Atoi(c.Query("last"))
		points, err := reports.Velocity(s.db, s.catalog, c.Param("projectID"), lastN)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, points)
	}
}

func (s *Server) handleEpicProgress() gin.HandlerFunc {
	return func(c *gin.Context) {
		progress, err := reports.Progress(s.db, s.catalog, c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, progress)
	}
}
