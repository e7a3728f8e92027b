package server

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/sprintdeck/internal/models"
)

// notificationEvent is the payload pushed for each new notification.
type notificationEvent struct {
	ID       uint   `json:"id"`
	UserID   string `json:"userId"`
	Kind     string `json:"kind"`
	IssueKey string `json:"issueKey,omitempty"`
	Title    string `json:"title"`
	Unread   int64  `json:"unread"`
}

// handleSSE streams notifications as server-sent events. New rows are picked
// up by polling the notifications table; an optional ?user= filter narrows
// the stream to one user.
func (s *Server) handleSSE() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		userID := c.Query("user")

		// Only push rows created after the stream opened.
		var lastSeenID uint
		var latest models.Notification
		q := s.db.Order("id DESC").Limit(1)
		if userID != "" {
			q = q.Where("user_id = ?", userID)
		}
		if err := q.First(&latest).Error; err == nil {
			lastSeenID = latest.ID
		}

		ctx := c.Request.Context()
		ticker := time.NewTicker(3 * time.Second)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				var rows []models.Notification
				q := s.db.Where("id > ?", lastSeenID).Order("id ASC")
				if userID != "" {
					q = q.Where("user_id = ?", userID)
				}
				q.Find(&rows)
				if len(rows) == 0 {
					continue
				}
				lastSeenID = rows[len(rows)-1].ID

				for _, row := range rows {
					var unread int64
					s.db.Model(&models.Notification{}).
						Where("user_id = ? AND read = ?", row.UserID, false).
						Count(&unread)
					writeSSE(c.Writer, "notification", notificationEvent{
						ID:       row.ID,
						UserID:   row.UserID,
						Kind:     row.Kind,
						IssueKey: row.IssueKey,
						Title:    row.Title,
						Unread:   unread,
					})
				}
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
