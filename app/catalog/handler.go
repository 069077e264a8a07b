package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketplace/catalog/app/api"
	"github.com/marketplace/catalog/app/storage"
	"github.com/marketplace/catalog/models"
)

// HomeLimit is how many products the home listing shows.
const HomeLimit = 6

type Response struct {
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
	Products   []Product `json:"products"`
}

type Category struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID            uint      `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         string    `json:"price"`
	InStock       bool      `json:"in_stock"`
	StockQuantity int       `json:"stock_quantity"`
	ImageURL      string    `json:"image_url"`
	Category      *Category `json:"category"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ProductProvider interface {
	List(ctx context.Context, filters models.ProductFilters, page models.Page) (models.PageResult[models.Product], error)
	Latest(ctx context.Context, limit int) ([]models.Product, error)
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	FindByCode(ctx context.Context, code string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	UpdateFields(ctx context.Context, product *models.Product, fields ...string) error
	Delete(ctx context.Context, id uint) error
}

type CategoryFinder interface {
	FindByID(ctx context.Context, id uint) (*models.Category, error)
}

type CatalogHandler struct {
	repo       ProductProvider
	categories CategoryFinder
	store      storage.Store
	log        *zap.Logger
	validate   *validator.Validate
	pageSize   int
}

func NewCatalogHandler(r ProductProvider, c CategoryFinder, s storage.Store, log *zap.Logger) *CatalogHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogHandler{
		repo:       r,
		categories: c,
		store:      s,
		log:        log.Named("catalog"),
		validate:   api.NewValidator(),
		pageSize:   models.DefaultPageSize,
	}
}

// WithPageSize overrides the default listing page size.
func (h *CatalogHandler) WithPageSize(n int) *CatalogHandler {
	if n > 0 {
		h.pageSize = n
	}
	return h
}

func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := models.Page{Number: 1, Size: h.pageSize}
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		page.Number = n
	}
	if n, err := strconv.Atoi(q.Get("page_size")); err == nil {
		page.Size = n
	}

	// Unparseable filter values are ignored
	var filters models.ProductFilters
	if id, err := strconv.ParseUint(q.Get("category"), 10, 64); err == nil {
		categoryID := uint(id)
		filters.CategoryID = &categoryID
	}
	if v, err := strconv.ParseBool(q.Get("in_stock")); err == nil {
		filters.InStock = &v
	}
	if priceStr := q.Get("price_lt"); priceStr != "" {
		if val, err := decimal.NewFromString(priceStr); err == nil {
			filters.PriceLessThan = &val
		}
	}
	filters.Search = strings.TrimSpace(q.Get("q"))

	res, err := h.repo.List(r.Context(), filters, page)
	if err != nil {
		h.log.Error("list products", zap.Error(err))
		api.ErrorResponse(w, http.StatusInternalServerError, "failed to get products")
		return
	}

	products := make([]Product, len(res.Items))
	for i := range res.Items {
		products[i] = h.toProduct(&res.Items[i])
	}

	api.OKResponse(w, http.StatusOK, Response{
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
		Products:   products,
	})
}

// HandleHome lists the newest products that are in stock.
func (h *CatalogHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	latest, err := h.repo.Latest(r.Context(), HomeLimit)
	if err != nil {
		h.log.Error("latest products", zap.Error(err))
		api.ErrorResponse(w, http.StatusInternalServerError, "failed to get products")
		return
	}

	products := make([]Product, len(latest))
	for i := range latest {
		products[i] = h.toProduct(&latest[i])
	}
	api.OKResponse(w, http.StatusOK, map[string][]Product{"products": products})
}

func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	product, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	api.OKResponse(w, http.StatusOK, h.toProduct(product))
}

func (h *CatalogHandler) HandleGetByCode(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(r.PathValue("code")))

	product, err := h.repo.FindByCode(r.Context(), code)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	api.OKResponse(w, http.StatusOK, h.toProduct(product))
}

func (h *CatalogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, err := parseProductForm(w, r)
	if err != nil {
		h.writeFormError(w, err)
		return
	}

	errs := h.check(ctx, form, true)
	if len(errs) > 0 {
		api.ValidationResponse(w, errs)
		return
	}

	product := &models.Product{
		Name:          strings.TrimSpace(*form.Name),
		Price:         *form.Price,
		InStock:       true,
		StockQuantity: 0,
		CategoryID:    form.CategoryID,
		Category:      form.category,
	}
	if form.Description != nil {
		product.Description = *form.Description
	}
	if form.InStock != nil {
		product.InStock = *form.InStock
	}
	if form.StockQuantity != nil {
		product.StockQuantity = *form.StockQuantity
	}

	if form.Image != nil {
		key, err := storage.SaveUpload(ctx, h.store, "products", form.Image)
		if err != nil {
			h.log.Error("store product image", zap.Error(err))
			api.ErrorResponse(w, http.StatusInternalServerError, "failed to store image")
			return
		}
		product.Image = key
	}

	if err := h.repo.Create(ctx, product); err != nil {
		h.discardImage(ctx, product.Image)
		if api.StatusFor(err) == http.StatusInternalServerError {
			h.log.Error("create product", zap.Error(err))
		}
		api.WriteError(w, err, "failed to create product")
		return
	}

	h.log.Info("product created", zap.Uint("id", product.ID), zap.String("code", product.Code))
	api.OKResponse(w, http.StatusCreated, h.toProduct(product))
}

// HandleUpdate applies a partial update. Only submitted fields are written.
func (h *CatalogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := productID(w, r)
	if !ok {
		return
	}

	form, err := parseProductForm(w, r)
	if err != nil {
		h.writeFormError(w, err)
		return
	}

	product, err := h.repo.FindByID(ctx, id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	errs := h.check(ctx, form, false)
	if len(errs) > 0 {
		api.ValidationResponse(w, errs)
		return
	}
	if len(form.fields) == 0 {
		api.OKResponse(w, http.StatusOK, h.toProduct(product))
		return
	}

	oldImage := product.Image
	form.apply(product)

	if form.Image != nil {
		key, err := storage.SaveUpload(ctx, h.store, "products", form.Image)
		if err != nil {
			h.log.Error("store product image", zap.Error(err))
			api.ErrorResponse(w, http.StatusInternalServerError, "failed to store image")
			return
		}
		product.Image = key
	}

	if err := h.repo.UpdateFields(ctx, product, form.fields...); err != nil {
		if form.Image != nil {
			h.discardImage(ctx, product.Image)
		}
		if api.StatusFor(err) == http.StatusInternalServerError {
			h.log.Error("update product", zap.Uint("id", id), zap.Error(err))
		}
		api.WriteError(w, err, "failed to update product")
		return
	}
	if form.Image != nil && oldImage != "" {
		h.discardImage(ctx, oldImage)
	}

	api.OKResponse(w, http.StatusOK, h.toProduct(product))
}

func (h *CatalogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := productID(w, r)
	if !ok {
		return
	}

	product, err := h.repo.FindByID(ctx, id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		if api.StatusFor(err) == http.StatusInternalServerError {
			h.log.Error("delete product", zap.Uint("id", id), zap.Error(err))
		}
		api.WriteError(w, err, "failed to delete product")
		return
	}
	h.discardImage(ctx, product.Image)

	h.log.Info("product deleted", zap.Uint("id", id), zap.String("code", product.Code))
	w.WriteHeader(http.StatusNoContent)
}

// check runs presence rules, the catalog field rules and the category lookup,
// returning every failure at once.
func (h *CatalogHandler) check(ctx context.Context, form *productForm, create bool) models.ValidationErrors {
	// values that failed to parse are reported ahead of any rule they also break
	errs := append(models.ValidationErrors{}, form.parseErrs...)

	var tagErr error
	if create {
		tagErr = h.validate.Struct(form)
	} else if len(form.structFields) > 0 {
		tagErr = h.validate.StructPartial(form, form.structFields...)
	}
	errs.Add(api.FieldErrors(tagErr))
	errs.Add(models.ValidateFields(models.ProductFieldValidators, form.values()))

	if form.CategoryID != nil {
		category, err := h.categories.FindByID(ctx, *form.CategoryID)
		switch {
		case errors.Is(err, models.ErrCategoryNotFound):
			errs.Add(&models.ValidationError{Field: "category", Kind: models.Invalid, Message: "select a valid category"})
		case err != nil:
			h.log.Warn("lookup category", zap.Uint("category_id", *form.CategoryID), zap.Error(err))
			errs.Add(&models.ValidationError{Field: "category", Kind: models.Invalid, Message: "category could not be verified"})
		default:
			form.category = category
		}
	}
	return errs
}

func (h *CatalogHandler) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrNotFound) {
		api.ErrorResponse(w, http.StatusNotFound, "Product not found")
		return
	}
	h.log.Error("load product", zap.Error(err))
	api.ErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve product")
}

func (h *CatalogHandler) writeFormError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadBody) {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	api.WriteError(w, err, "failed to read request")
}

func (h *CatalogHandler) discardImage(ctx context.Context, key string) {
	if key == "" || h.store == nil {
		return
	}
	if err := h.store.Delete(ctx, key); err != nil {
		h.log.Warn("delete product image", zap.String("key", key), zap.Error(err))
	}
}

func (h *CatalogHandler) toProduct(p *models.Product) Product {
	out := Product{
		ID:            p.ID,
		Code:          p.Code,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.StringFixed(models.PriceScale),
		InStock:       p.InStock,
		StockQuantity: p.StockQuantity,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Image != "" && h.store != nil {
		out.ImageURL = h.store.URL(p.Image)
	}
	if p.Category != nil {
		out.Category = &Category{ID: p.Category.ID, Name: p.Category.Name}
	}
	return out
}

func productID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid product id")
		return 0, false
	}
	return uint(id), true
}
