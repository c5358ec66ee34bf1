package http

import (
	"context"
	"io"

	"github.com/asowa/marketplace/internal/auth"
	"github.com/asowa/marketplace/internal/database/designs"
	"github.com/asowa/marketplace/internal/entities"
)

// This file consolidates the store interfaces used by HTTP controllers.
// Each controller depends on the narrowest one it needs.

// AccountLister provides read-only account listing for admin views.
type AccountLister interface {
	List(ctx context.Context) ([]entities.Account, error)
}

// Counter reports the number of stored records.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// AccountStore is everything the router needs from the credential store.
type AccountStore interface {
	auth.AccountStore
	AccountLister
	Counter
}

// DesignStore provides design catalogue persistence.
type DesignStore interface {
	Create(ctx context.Context, design *entities.Design) error
	List(ctx context.Context) ([]entities.Design, error)
	Get(ctx context.Context, id uint) (*entities.Design, error)
	Update(ctx context.Context, id uint, changes designs.Changes) (*entities.Design, error)
	Delete(ctx context.Context, id uint) (*entities.Design, error)
	Counter
}

// ImageStore saves and removes uploaded design images.
type ImageStore interface {
	SaveDesignImage(r io.Reader) (string, error)
	Remove(publicPath string) error
}
