package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product in the catalog.
// Code is assigned on first save and never changes afterwards.
type Product struct {
	ID            uint            `gorm:"primaryKey"`
	CategoryID    *uint           `gorm:"index"`
	Category      *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Name          string          `gorm:"size:200;index;not null"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);index;not null"`
	Description   string          `gorm:"type:text;not null;default:''"`
	Image         string          `gorm:"size:255;not null;default:''"`
	InStock       bool            `gorm:"not null"`
	StockQuantity int             `gorm:"not null;default:0"`
	Code          string          `gorm:"size:50;uniqueIndex;not null"`
	CreatedAt     time.Time       `gorm:"index"`
	UpdatedAt     time.Time
}

func (p *Product) TableName() string {
	return "products"
}

// BeforeCreate makes sure rows written outside ProductsRepository.Create still get a code.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.Code == "" {
		p.Code = GenerateCode()
	}
	return nil
}

// ProductFilters narrows product listings. Nil pointers mean "no filter".
type ProductFilters struct {
	CategoryID    *uint
	InStock       *bool
	PriceLessThan *decimal.Decimal
	Search        string
}

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// Page selects a 1-based page of a listing.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page into a usable range.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// PageResult is one page of a listing plus the totals needed to render pagination.
type PageResult[T any] struct {
	Items      []T
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

func newPageResult[T any](items []T, total int64, page Page) PageResult[T] {
	pages := int((total + int64(page.Size) - 1) / int64(page.Size))
	return PageResult[T]{
		Items:      items,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: pages,
	}
}
