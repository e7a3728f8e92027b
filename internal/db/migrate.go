package db

import (
	"fmt"

	"github.com/zulandar/sprintdeck/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Project{},
		&models.Issue{},
		&models.Comment{},
		&models.Sprint{},
		&models.Notification{},
		&models.ChatMessage{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedAdmin upserts the initial admin user. Idempotent: re-running keeps a
// single row and refreshes the name and role.
func SeedAdmin(db *gorm.DB, name, email, passwordHash string) error {
	admin := models.User{
		ID:           "usr-admin",
		Name:         name,
		Email:        email,
		Role:         "admin",
		PasswordHash: passwordHash,
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "role"}),
	}).Create(&admin)
	if result.Error != nil {
		return fmt.Errorf("db: seed admin %q: %w", email, result.Error)
	}
	return nil
}
