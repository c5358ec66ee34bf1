package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role is the closed set of authorization roles an Account can hold.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var ErrInvalidRole = errors.New("invalid role")

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole normalizes s and returns the matching Role.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return role, nil
}

// Account is a registered marketplace user.
type Account struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Fullname     string    `gorm:"size:255" json:"fullname"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         Role      `gorm:"size:20;not null;default:'user'" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (Account) TableName() string {
	return "users"
}

// BeforeSave rejects rows that would break the account invariants.
func (a *Account) BeforeSave(tx *gorm.DB) error {
	if a.Role == "" {
		a.Role = RoleUser
	}
	if !a.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, a.Role)
	}
	if a.PasswordHash == "" {
		return errors.New("password hash must not be empty")
	}
	return nil
}

// IsAdmin returns true if the account holds the admin role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}
