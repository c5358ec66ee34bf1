package entities

import "time"

// Design is a textile design listed in the storefront catalogue.
type Design struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Price     float64   `json:"price"`
	Category  string    `gorm:"index;size:100" json:"category"`
	Image     string    `gorm:"size:1024" json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Design) TableName() string {
	return "designs"
}
