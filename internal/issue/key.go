package issue

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/zulandar/sprintdeck/internal/models"
	"gorm.io/gorm"
)

// projectLocks serializes key allocation per project within this process.
// Combined with the transaction in GenerateKey, this closes the
// read-modify-write window on the project counter for a single server; the
// in-transaction duplicate check below guards multi-process deployments
// sharing one database.
var projectLocks = struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}{m: make(map[string]*sync.Mutex)}

func lockProject(projectID string) func() {
	projectLocks.mu.Lock()
	l, ok := projectLocks.m[projectID]
	if !ok {
		l = &sync.Mutex{}
		projectLocks.m[projectID] = l
	}
	projectLocks.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// GenerateKey allocates the next issue key for a project, e.g. "AYP-42".
//
// The project counter is reconciled against the highest number actually in
// use: issues imported with manually-set keys, or counter updates lost to a
// crash, never cause a duplicate — the next key is always above both. The
// new counter value is persisted in the same transaction.
//
// Callers that must not fail issue creation on allocation errors apply
// FallbackKey at the call site; GenerateKey itself reports errors.
func GenerateKey(db *gorm.DB, projectID string) (string, error) {
	unlock := lockProject(projectID)
	defer unlock()

	var key string
	err := db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Where("id = ?", projectID).First(&project).Error; err != nil {
			return err
		}

		candidate := project.LastIssueNumber + 1
		maxExisting, err := maxExistingNumber(tx, project.ID, project.Key)
		if err != nil {
			return err
		}

		next := candidate
		if maxExisting+1 > next {
			next = maxExisting + 1
		}
		key = fmt.Sprintf("%s-%d", project.Key, next)

		// Another process may have taken this key between our scan and now.
		// One bump is enough under non-adversarial concurrency.
		var count int64
		if err := tx.Model(&models.Issue{}).Where("key = ?", key).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			next++
			key = fmt.Sprintf("%s-%d", project.Key, next)
		}

		return tx.Model(&models.Project{}).Where("id = ?", projectID).
			Update("last_issue_number", next).Error
	})
	if err != nil {
		return "", fmt.Errorf("issue: allocate key for project %s: %w", projectID, err)
	}
	return key, nil
}

// FallbackKey builds a timestamp-based key for when allocation fails. The
// policy: key generation must never block issue creation, so a degraded but
// unique-enough key beats an error.
func FallbackKey() string {
	return fmt.Sprintf("PROJ-%d", time.Now().UnixMilli())
}

// maxExistingNumber scans the project's issues for keys of the form
// "<prefix>-<digits>" and returns the highest trailing number, 0 when none.
func maxExistingNumber(tx *gorm.DB, projectID, prefix string) (int, error) {
	var keys []string
	if err := tx.Model(&models.Issue{}).
		Where("project_id = ? AND key LIKE ?", projectID, prefix+"-%").
		Pluck("key", &keys).Error; err != nil {
		return 0, err
	}

	pattern, err := regexp.Compile("^" + regexp.QuoteMeta(prefix) + `-(\d+)$`)
	if err != nil {
		return 0, err
	}

	maxNum := 0
	for _, k := range keys {
		m := pattern.FindStringSubmatch(k)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > maxNum {
			maxNum = n
		}
	}
	return maxNum, nil
}
