package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductsRepository struct {
	db      *gorm.DB
	newCode func() string
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db:      db,
		newCode: GenerateCode,
	}
}

var productColumns = map[string]string{
	"category":       "category_id",
	"category_id":    "category_id",
	"name":           "name",
	"price":          "price",
	"description":    "description",
	"image":          "image",
	"in_stock":       "in_stock",
	"stock_quantity": "stock_quantity",
}

var productImmutable = map[string]bool{
	"id":         true,
	"code":       true,
	"created_at": true,
	"updated_at": true,
}

var productMutableColumns = []string{
	"category_id", "name", "price", "description", "image", "in_stock", "stock_quantity",
}

// Create inserts a new product. When Code is empty a fresh one is generated and,
// if it collides with an existing code, regenerated up to MaxCodeAttempts times.
// A code chosen by the caller is never replaced.
func (r *ProductsRepository) Create(ctx context.Context, product *Product) error {
	generated := product.Code == ""

	for attempt := 1; ; attempt++ {
		if generated {
			product.Code = r.newCode()
		}

		err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return fmt.Errorf("create product: %w", err)
		}
		if !generated || attempt >= MaxCodeAttempts {
			if generated {
				product.Code = ""
			}
			return &ConstraintError{Entity: "product", Field: "code", Err: err}
		}
	}
}

// Update writes every mutable column of product. Code is never written.
func (r *ProductsRepository) Update(ctx context.Context, product *Product) error {
	return r.updateColumns(ctx, product, productMutableColumns)
}

// UpdateFields persists only the named fields of product.
func (r *ProductsRepository) UpdateFields(ctx context.Context, product *Product, fields ...string) error {
	columns, err := resolveColumns(fields, productColumns, productImmutable)
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return nil
	}
	return r.updateColumns(ctx, product, columns)
}

func (r *ProductsRepository) updateColumns(ctx context.Context, product *Product, columns []string) error {
	if product.ID == 0 {
		return ErrProductNotFound
	}

	res := r.db.WithContext(ctx).
		Model(product).
		Omit(clause.Associations).
		Select(columns).
		Updates(product)
	if res.Error != nil {
		return fmt.Errorf("update product %d: %w", product.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductsRepository) FindByID(ctx context.Context, id uint) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *ProductsRepository) FindByCode(ctx context.Context, code string) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("code = ?", code).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// List returns one page of products, newest first.
func (r *ProductsRepository) List(ctx context.Context, filters ProductFilters, page Page) (PageResult[Product], error) {
	page = page.Normalize()

	var products []Product
	var total int64

	query := r.db.WithContext(ctx).Model(&Product{})

	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.InStock != nil {
		query = query.Where("in_stock = ?", *filters.InStock)
	}
	if filters.PriceLessThan != nil {
		query = query.Where("price < ?", *filters.PriceLessThan)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		like := containsPattern(search)
		query = query.Where(
			`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(code) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`,
			like, like, like,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return PageResult[Product]{}, err
	}

	if err := query.
		Preload("Category").
		Order("created_at DESC").
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&products).Error; err != nil {
		return PageResult[Product]{}, err
	}

	return newPageResult(products, total, page), nil
}

// Latest returns the newest in-stock products.
func (r *ProductsRepository) Latest(ctx context.Context, limit int) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("in_stock = ?", true).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListAll returns products in insertion order. A limit <= 0 returns all of them.
func (r *ProductsRepository) ListAll(ctx context.Context, limit int) ([]Product, error) {
	var products []Product
	query := r.db.WithContext(ctx).Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductsRepository) ListUncategorized(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).
		Where("category_id IS NULL").
		Order("id").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Delete removes a single product. Its category is left untouched.
func (r *ProductsRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete product %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductsRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&Product{})
	return res.RowsAffected, res.Error
}

// resolveColumns maps requested field names onto column names, rejecting
// system-managed and unknown fields.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern builds a case-insensitive LIKE pattern matching s literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func resolveColumns(fields []string, columns map[string]string, immutable map[string]bool) ([]string, error) {
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		name := strings.ToLower(strings.TrimSpace(field))
		if immutable[name] {
			return nil, fmt.Errorf("%s: %w", name, ErrImmutableField)
		}
		column, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("%s: %w", name, ErrUnknownField)
		}
		if !seen[column] {
			seen[column] = true
			out = append(out, column)
		}
	}
	return out, nil
}
