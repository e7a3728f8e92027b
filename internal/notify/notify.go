// Package notify records per-user notifications and fans them out to
// configured channels. Database rows are the source of truth; Slack and
// Discord delivery is best-effort and never fails the triggering operation.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/zulandar/sprintdeck/internal/config"
	"github.com/zulandar/sprintdeck/internal/models"
	"gorm.io/gorm"
)

// Poster delivers a message to an external channel.
type Poster interface {
	Post(ctx context.Context, text string) error
	Name() string
}

// Notifier creates notification rows and fans them out.
type Notifier struct {
	db      *gorm.DB
	posters []Poster
}

// New builds a Notifier with posters for every configured channel. Channels
// without a token are simply skipped.
func New(db *gorm.DB, cfg config.NotifyConfig) *Notifier {
	n := &Notifier{db: db}
	if cfg.Slack.BotToken != "" {
		n.posters = append(n.posters, NewSlackPoster(cfg.Slack.BotToken, cfg.Slack.Channel))
	}
	if cfg.Discord.BotToken != "" {
		p, err := NewDiscordPoster(cfg.Discord.BotToken, cfg.Discord.Channel)
		if err != nil {
			log.Printf("notify: discord disabled: %v", err)
		} else {
			n.posters = append(n.posters, p)
		}
	}
	return n
}

// Event describes one notification to record and deliver.
type Event struct {
	UserID   string
	Kind     string // e.g. issue_assigned, issue_commented, sprint_started
	IssueKey string
	Title    string
	Body     string
}

// Notify persists the notification and pushes it to all posters. Delivery
// failures are logged and swallowed.
func (n *Notifier) Notify(ctx context.Context, ev Event) error {
	if ev.UserID == "" || ev.Kind == "" {
		return fmt.Errorf("notify: user and kind are required")
	}

	row := models.Notification{
		UserID:   ev.UserID,
		Kind:     ev.Kind,
		IssueKey: ev.IssueKey,
		Title:    ev.Title,
		Body:     ev.Body,
	}
	if err := n.db.Create(&row).Error; err != nil {
		return fmt.Errorf("notify: create: %w", err)
	}

	text := ev.Title
	if ev.IssueKey != "" {
		text = fmt.Sprintf("[%s] %s", ev.IssueKey, ev.Title)
	}
	for _, p := range n.posters {
		if err := p.Post(ctx, text); err != nil {
			log.Printf("notify: %s delivery failed: %v", p.Name(), err)
		}
	}
	return nil
}

// List returns a user's notifications, newest first.
func List(db *gorm.DB, userID string, unreadOnly bool) ([]models.Notification, error) {
	q := db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var rows []models.Notification
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notify: list: %w", err)
	}
	return rows, nil
}

// MarkRead marks the given notifications read for a user and returns how many
// rows changed. IDs belonging to other users are ignored.
func MarkRead(db *gorm.DB, userID string, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := db.Model(&models.Notification{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Update("read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("notify: mark read: %w", result.Error)
	}
	return result.RowsAffected, nil
}
