package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type CategoriesRepository struct {
	db *gorm.DB
}

func NewCategoriesRepository(db *gorm.DB) *CategoriesRepository {
	return &CategoriesRepository{db: db}
}

var categoryColumns = map[string]string{
	"name":        "name",
	"description": "description",
	"image":       "image",
}

var categoryImmutable = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

var categoryMutableColumns = []string{"name", "description", "image"}

func (r *CategoriesRepository) Create(ctx context.Context, category *Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if isUniqueViolation(err) {
			return &ConstraintError{Entity: "category", Field: "name", Err: err}
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *CategoriesRepository) Update(ctx context.Context, category *Category) error {
	return r.updateColumns(ctx, category, categoryMutableColumns)
}

// UpdateFields persists only the named fields of category.
func (r *CategoriesRepository) UpdateFields(ctx context.Context, category *Category, fields ...string) error {
	columns, err := resolveColumns(fields, categoryColumns, categoryImmutable)
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return nil
	}
	return r.updateColumns(ctx, category, columns)
}

func (r *CategoriesRepository) updateColumns(ctx context.Context, category *Category, columns []string) error {
	if category.ID == 0 {
		return ErrCategoryNotFound
	}

	res := r.db.WithContext(ctx).Model(category).Select(columns).Updates(category)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return &ConstraintError{Entity: "category", Field: "name", Err: res.Error}
		}
		return fmt.Errorf("update category %d: %w", category.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *CategoriesRepository) FindByID(ctx context.Context, id uint) (*Category, error) {
	var category Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoriesRepository) FindByName(ctx context.Context, name string) (*Category, error) {
	var category Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// List returns categories ordered by name.
func (r *CategoriesRepository) List(ctx context.Context, filters CategoryFilters) ([]Category, error) {
	var categories []Category

	query := r.db.WithContext(ctx).Model(&Category{})
	if search := strings.TrimSpace(filters.Search); search != "" {
		like := containsPattern(search)
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, like, like)
	}

	if err := query.Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoriesRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Category{}).Count(&n).Error
	return n, err
}

// Delete removes a category and unlinks every product that referenced it.
// It returns how many products were unlinked. Products are never deleted.
func (r *CategoriesRepository) Delete(ctx context.Context, id uint) (int64, error) {
	var cleared int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category Category
		if err := tx.Select("id").First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}

		res := tx.Model(&Product{}).Where("category_id = ?", id).Update("category_id", nil)
		if res.Error != nil {
			return fmt.Errorf("unlink products: %w", res.Error)
		}
		cleared = res.RowsAffected

		return tx.Delete(&Category{}, id).Error
	})
	if err != nil {
		return 0, err
	}
	return cleared, nil
}

// DeleteAll removes every category, unlinking all categorized products first.
func (r *CategoriesRepository) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Product{}).
			Where("category_id IS NOT NULL").
			Update("category_id", nil).Error; err != nil {
			return fmt.Errorf("unlink products: %w", err)
		}

		res := tx.Where("1 = 1").Delete(&Category{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}
