package models

import "time"

// Category represents a product category.
// Products reference it weakly: removing a category never removes its products.
type Category struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"size:150;uniqueIndex;not null"`
	Description string    `gorm:"type:text;not null;default:''"`
	Image       string    `gorm:"size:255;not null;default:''"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *Category) TableName() string {
	return "categories"
}

// CategoryFilters narrows category listings.
type CategoryFilters struct {
	Search string
}
