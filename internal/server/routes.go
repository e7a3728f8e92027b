package server

import "github.com/gin-gonic/gin"

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, s *Server) {
	api := router.Group("/api")

	projects := api.Group("/projects")
	projects.GET("", s.handleProjectList())
	projects.POST("", s.handleProjectCreate())
	projects.GET("/:id", s.handleProjectGet())
	projects.PATCH("/:id", s.handleProjectUpdate())
	projects.DELETE("/:id", s.handleProjectDelete())
	projects.PUT("/:id/workflow", s.handleProjectAssignWorkflow())

	issues := api.Group("/issues")
	issues.GET("", s.handleIssueList())
	issues.POST("", s.handleIssueCreate())
	issues.POST("/bulk", s.handleIssueBulkUpdate())
	issues.GET("/:id", s.handleIssueGet())
	issues.PATCH("/:id", s.handleIssueUpdate())
	issues.DELETE("/:id", s.handleIssueDelete())
	issues.POST("/:id/comments", s.handleCommentCreate())

	sprints := api.Group("/sprints")
	sprints.GET("", s.handleSprintList())
	sprints.POST("", s.handleSprintCreate())
	sprints.GET("/:id", s.handleSprintGet())
	sprints.POST("/:id/start", s.handleSprintStart())
	sprints.POST("/:id/complete", s.handleSprintComplete())

	users := api.Group("/users")
	users.GET("", s.handleUserList())
	users.POST("", s.handleUserCreate())
	users.GET("/:id", s.handleUserGet())

	notifications := api.Group("/notifications")
	notifications.GET("", s.handleNotificationList())
	notifications.POST("/read", s.handleNotificationMarkRead())

	chat := api.Group("/chat")
	chat.GET("", s.handleChatList())
	chat.POST("", s.handleChatPost())

	rpt := api.Group("/reports")
	rpt.GET("/burndown/:sprintID", s.handleBurndown())
	rpt.GET("/cfd/:projectID", s.handleCumulativeFlow())
	rpt.GET("/velocity/:projectID", s.handleVelocity())
	rpt.GET("/epic/:id", s.handleEpicProgress())

	aig := api.Group("/ai")
	aig.POST("/text-to-issues", s.handleTextToIssues())
	aig.POST("/plan-sprint", s.handlePlanSprint())
	aig.POST("/voice-command", s.handleVoiceCommand())

	workflows := api.Group("/workflows")
	workflows.GET("", s.handleWorkflowList())
	workflows.GET("/:id", s.handleWorkflowGet())
	workflows.POST("/:id/statuses", s.handleWorkflowAddStatus())

	api.GET("/events", s.handleSSE())
}
