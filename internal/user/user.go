// Package user provides account operations.
package user

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/sprintdeck/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating an account.
type CreateOpts struct {
	Name     string
	Email    string
	Role     string // member (default) or admin
	Password string
}

// GenerateID creates a unique user ID in usr-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("user: generate ID: %w", err)
	}
	return "usr-" + hex.EncodeToString(b)[:5], nil
}

// Create creates an account with a bcrypt password hash.
func Create(db *gorm.DB, opts CreateOpts) (*models.User, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("user: name is required")
	}
	opts.Email = strings.ToLower(strings.TrimSpace(opts.Email))
	if opts.Email == "" || !strings.Contains(opts.Email, "@") {
		return nil, fmt.Errorf("user: valid email is required")
	}
	if opts.Role == "" {
		opts.Role = "member"
	}
	if opts.Role != "member" && opts.Role != "admin" {
		return nil, fmt.Errorf("user: role %q is not supported (member, admin)", opts.Role)
	}
	if len(opts.Password) < 8 {
		return nil, fmt.Errorf("user: password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("user: hash password: %w", err)
	}

	id, err := GenerateID()
	if err != nil {
		return nil, err
	}

	u := models.User{
		ID:           id,
		Name:         opts.Name,
		Email:        opts.Email,
		Role:         opts.Role,
		PasswordHash: string(hash),
	}
	if err := db.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("user: create: %w", err)
	}
	return &u, nil
}

// Get retrieves a user by ID or email.
func Get(db *gorm.DB, idOrEmail string) (*models.User, error) {
	var u models.User
	if err := db.Where("id = ? OR email = ?", idOrEmail, strings.ToLower(idOrEmail)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user: not found: %s", idOrEmail)
		}
		return nil, fmt.Errorf("user: get %s: %w", idOrEmail, err)
	}
	return &u, nil
}

// List returns all users ordered by name.
func List(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("name ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user: list: %w", err)
	}
	return users, nil
}

// Authenticate checks an email/password pair and returns the user on success.
func Authenticate(db *gorm.DB, email, password string) (*models.User, error) {
	u, err := Get(db, email)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("user: invalid credentials")
	}
	return u, nil
}
