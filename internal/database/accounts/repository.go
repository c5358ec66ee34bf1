// Package accounts is the credential store: the only component that persists
// or reads Account records.
//
// # Usage
//
//	repo := accounts.NewRepository(db)
//	account, err := repo.FindByEmail(ctx, "ada@example.com")
package accounts

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/asowa/marketplace/internal/database"
	"github.com/asowa/marketplace/internal/entities"
)

// Repository handles all account database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new accounts repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new account. The unique index on email makes the insert
// the single arbiter for concurrent registrations: the loser gets
// entities.ErrDuplicateEmail.
func (r *Repository) Create(ctx context.Context, fullname, email, passwordHash string, role entities.Role) (*entities.Account, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", entities.ErrInvalidRole, role)
	}

	account := &entities.Account{
		Fullname:     fullname,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}

	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, entities.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// FindByEmail retrieves an account by its (normalized) email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*entities.Account, error) {
	var account entities.Account
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}
	return &account, nil
}

// FindByID retrieves an account by ID.
func (r *Repository) FindByID(ctx context.Context, id uint) (*entities.Account, error) {
	var account entities.Account
	err := r.db.WithContext(ctx).First(&account, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account by id: %w", err)
	}
	return &account, nil
}

// List returns all accounts ordered by ID.
func (r *Repository) List(ctx context.Context) ([]entities.Account, error) {
	var list []entities.Account
	if err := r.db.WithContext(ctx).Order("id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return list, nil
}

// Count returns the number of registered accounts.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Account{}).Count(&count).Error
	return count, err
}
