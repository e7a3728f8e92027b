package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintdeck/internal/models"
	"github.com/zulandar/sprintdeck/internal/notify"
	"github.com/zulandar/sprintdeck/internal/user"
)

// userResponse hides the password hash from API output.
type userResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, AvatarURL: u.AvatarURL}
}

func (s *Server) handleUserList() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := user.List(s.db)
		if err != nil {
			abortWithError(c, err)
			return
		}
		out := make([]userResponse, 0, len(users))
		for i := range users {
			out = append(out, toUserResponse(&users[i]))
		}
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) handleUserCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name     string `json:"name" binding:"required"`
			Email    string `json:"email" binding:"required"`
			Role     string `json:"role"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		u, err := user.Create(s.db, user.CreateOpts{
			Name:     req.Name,
			Email:    req.Email,
			Role:     req.Role,
			Password: req.Password,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toUserResponse(u))
	}
}

func (s *Server) handleUserGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := user.Get(s.db, c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, toUserResponse(u))
	}
}

func (s *Server) handleNotificationList() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user")
		if userID == "" {
			abortWithError(c, errMissingQuery("user"))
			return
		}
		rows, err := notify.List(s.db, userID, c.Query("unread") == "true")
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func (s *Server) handleNotificationMarkRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID string `json:"userId" binding:"required"`
			IDs    []uint `json:"ids" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		changed, err := notify.MarkRead(s.db, req.UserID, req.IDs)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"read": changed})
	}
}

func (s *Server) handleChatList() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID := c.Query("project")
		if projectID == "" {
			abortWithError(c, errMissingQuery("project"))
			return
		}
		var msgs []models.ChatMessage
		if err := s.db.Where("project_id = ?", projectID).
			Order("created_at ASC").Find(&msgs).Error; err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, msgs)
	}
}

func (s *Server) handleChatPost() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProjectID string `json:"projectId" binding:"required"`
			AuthorID  string `json:"authorId" binding:"required"`
			Body      string `json:"body" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, err)
			return
		}
		msg := models.ChatMessage{
			ProjectID: req.ProjectID,
			AuthorID:  req.AuthorID,
			Body:      req.Body,
		}
		if err := s.db.Create(&msg).Error; err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, msg)
	}
}
