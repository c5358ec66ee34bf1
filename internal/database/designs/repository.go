package designs

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/asowa/marketplace/internal/entities"
)

// Changes holds the fields of a partial update. Nil fields are left untouched.
type Changes struct {
	Name     *string
	Price    *float64
	Category *string
	Image    *string
}

// Repository handles design catalogue persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new designs repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, design *entities.Design) error {
	if err := r.db.WithContext(ctx).Create(design).Error; err != nil {
		return fmt.Errorf("failed to create design: %w", err)
	}
	return nil
}

// List returns all designs, newest first.
func (r *Repository) List(ctx context.Context) ([]entities.Design, error) {
	var list []entities.Design
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list designs: %w", err)
	}
	return list, nil
}

func (r *Repository) Get(ctx context.Context, id uint) (*entities.Design, error) {
	var design entities.Design
	if err := r.db.WithContext(ctx).First(&design, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrDesignNotFound
		}
		return nil, fmt.Errorf("failed to get design: %w", err)
	}
	return &design, nil
}

// Update applies changes to the design and returns the stored result.
func (r *Repository) Update(ctx context.Context, id uint, changes Changes) (*entities.Design, error) {
	design, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if changes.Name != nil {
		updates["name"] = *changes.Name
	}
	if changes.Price != nil {
		updates["price"] = *changes.Price
	}
	if changes.Category != nil {
		updates["category"] = *changes.Category
	}
	if changes.Image != nil {
		updates["image"] = *changes.Image
	}
	if len(updates) == 0 {
		return design, nil
	}

	if err := r.db.WithContext(ctx).Model(design).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update design: %w", err)
	}
	return r.Get(ctx, id)
}

// Delete removes the design and returns the deleted record so callers can
// clean up its image.
func (r *Repository) Delete(ctx context.Context, id uint) (*entities.Design, error) {
	design, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Delete(&entities.Design{}, id).Error; err != nil {
		return nil, fmt.Errorf("failed to delete design: %w", err)
	}
	return design, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Design{}).Count(&count).Error
	return count, err
}
