package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/robfig/cron/v3"
)

// unreadCount is one row of the digest aggregation.
type unreadCount struct {
	UserID string
	Count  int64
}

// StartDigest schedules a recurring digest of unread notifications using a
// standard 5-field cron expression. The returned cron is already started;
// call Stop on it during shutdown.
func (n *Notifier) StartDigest(spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if err := n.postDigest(context.Background()); err != nil {
			log.Printf("notify: digest failed: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("notify: schedule digest %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}

// postDigest posts a summary of unread notification counts per user. No
// unread rows means no post.
func (n *Notifier) postDigest(ctx context.Context) error {
	var counts []unreadCount
	if err := n.db.Table("notifications").
		Select("user_id, COUNT(*) as count").
		Where("read = ?", false).
		Group("user_id").
		Order("count DESC").
		Scan(&counts).Error; err != nil {
		return fmt.Errorf("count unread: %w", err)
	}
	if len(counts) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("Unread notifications digest:\n")
	for _, c := range counts {
		fmt.Fprintf(&b, "- %s: %d unread\n", c.UserID, c.Count)
	}

	for _, p := range n.posters {
		if err := p.Post(ctx, b.String()); err != nil {
			log.Printf("notify: %s digest delivery failed: %v", p.Name(), err)
		}
	}
	return nil
}
