package categories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/marketplace/catalog/app/api"
	"github.com/marketplace/catalog/app/storage"
	"github.com/marketplace/catalog/models"
)

const maxFormMemory = 8 << 20

var errBadBody = errors.New("malformed request body")

type CategoryResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DeleteResponse reports how many products lost their category.
type DeleteResponse struct {
	UnlinkedProducts int64 `json:"unlinked_products"`
}

type CategoryProvider interface {
	List(ctx context.Context, filters models.CategoryFilters) ([]models.Category, error)
	FindByID(ctx context.Context, id uint) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	UpdateFields(ctx context.Context, category *models.Category, fields ...string) error
	Delete(ctx context.Context, id uint) (int64, error)
}

type CategoryHandler struct {
	repo     CategoryProvider
	store    storage.Store
	log      *zap.Logger
	validate *validator.Validate
}

func NewCategoryHandler(r CategoryProvider, s storage.Store, log *zap.Logger) *CategoryHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CategoryHandler{
		repo:     r,
		store:    s,
		log:      log.Named("categories"),
		validate: api.NewValidator(),
	}
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	filters := models.CategoryFilters{Search: strings.TrimSpace(r.URL.Query().Get("q"))}

	categories, err := h.repo.List(r.Context(), filters)
	if err != nil {
		h.log.Error("list categories", zap.Error(err))
		api.ErrorResponse(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	response := make([]CategoryResponse, len(categories))
	for i := range categories {
		response[i] = h.toResponse(&categories[i])
	}
	api.OKResponse(w, http.StatusOK, response)
}

func (h *CategoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := categoryID(w, r)
	if !ok {
		return
	}

	category, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	api.OKResponse(w, http.StatusOK, h.toResponse(category))
}

func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, err := parseCategoryForm(w, r)
	if err != nil {
		h.writeFormError(w, err)
		return
	}
	if errs := h.check(form, true); len(errs) > 0 {
		api.ValidationResponse(w, errs)
		return
	}

	category := &models.Category{Name: strings.TrimSpace(*form.Name)}
	if form.Description != nil {
		category.Description = *form.Description
	}
	if form.Image != nil {
		key, err := storage.SaveUpload(ctx, h.store, "categories", form.Image)
		if err != nil {
			h.log.Error("store category image", zap.Error(err))
			api.ErrorResponse(w, http.StatusInternalServerError, "failed to store image")
			return
		}
		category.Image = key
	}

	if err := h.repo.Create(ctx, category); err != nil {
		h.discardImage(ctx, category.Image)
		if api.StatusFor(err) == http.StatusInternalServerError {
			h.log.Error("create category", zap.Error(err))
		}
		api.WriteError(w, err, "Failed to create category")
		return
	}

	h.log.Info("category created", zap.Uint("id", category.ID), zap.String("name", category.Name))
	api.OKResponse(w, http.StatusCreated, h.toResponse(category))
}

func (h *CategoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := categoryID(w, r)
	if !ok {
		return
	}

	form, err := parseCategoryForm(w, r)
	if err != nil {
		h.writeFormError(w, err)
		return
	}

	category, err := h.repo.FindByID(ctx, id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	if errs := h.check(form, false); len(errs) > 0 {
		api.ValidationResponse(w, errs)
		return
	}
	if len(form.fields) == 0 {
		api.OKResponse(w, http.StatusOK, h.toResponse(category))
		return
	}

	oldImage := category.Image
	if form.Name != nil {
		category.Name = strings.TrimSpace(*form.Name)
	}
	if form.Description != nil {
		category.Description = *form.Description
	}
	if form.Image != nil {
		key, err := storage.SaveUpload(ctx, h.store, "categories", form.Image)
		if err != nil {
			h.log.Error("store category image", zap.Error(err))
			api.ErrorResponse(w, http.StatusInternalServerError, "failed to store image")
			return
		}
		category.Image = key
	}

	if err := h.repo.UpdateFields(ctx, category, form.fields...); err != nil {
		if form.Image != nil {
			h.discardImage(ctx, category.Image)
		}
		if api.StatusFor(err) == http.StatusInternalServerError {
			h.log.Error("update category", zap.Uint("id", id), zap.Error(err))
		}
		api.WriteError(w, err, "Failed to update category")
		return
	}
	if form.Image != nil && oldImage != "" {
		h.discardImage(ctx, oldImage)
	}

	api.OKResponse(w, http.StatusOK, h.toResponse(category))
}

// HandleDelete removes a category. Its products stay and become uncategorized.
func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := categoryID(w, r)
	if !ok {
		return
	}

	category, err := h.repo.FindByID(ctx, id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	unlinked, err := h.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.writeLookupError(w, err)
			return
		}
		h.log.Error("delete category", zap.Uint("id", id), zap.Error(err))
		api.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}
	h.discardImage(ctx, category.Image)

	h.log.Info("category deleted",
		zap.Uint("id", id),
		zap.String("name", category.Name),
		zap.Int64("unlinked_products", unlinked),
	)
	api.OKResponse(w, http.StatusOK, DeleteResponse{UnlinkedProducts: unlinked})
}

func (h *CategoryHandler) check(form *categoryForm, create bool) models.ValidationErrors {
	var errs models.ValidationErrors

	var tagErr error
	if create {
		tagErr = h.validate.Struct(form)
	} else if len(form.structFields) > 0 {
		tagErr = h.validate.StructPartial(form, form.structFields...)
	}
	errs.Add(api.FieldErrors(tagErr))

	values := make(map[string]any, 2)
	if form.Name != nil {
		values["name"] = *form.Name
	}
	if form.Image != nil {
		values["image"] = models.ImageUpload{Filename: form.Image.Filename, Size: form.Image.Size}
	}
	errs.Add(models.ValidateFields(models.CategoryFieldValidators, values))
	return errs
}

func (h *CategoryHandler) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrNotFound) {
		api.ErrorResponse(w, http.StatusNotFound, "Category not found")
		return
	}
	h.log.Error("load category", zap.Error(err))
	api.ErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve category")
}

func (h *CategoryHandler) writeFormError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadBody) {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	api.WriteError(w, err, "failed to read request")
}

func (h *CategoryHandler) discardImage(ctx context.Context, key string) {
	if key == "" || h.store == nil {
		return
	}
	if err := h.store.Delete(ctx, key); err != nil {
		h.log.Warn("delete category image", zap.String("key", key), zap.Error(err))
	}
}

func (h *CategoryHandler) toResponse(c *models.Category) CategoryResponse {
	out := CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.Image != "" && h.store != nil {
		out.ImageURL = h.store.URL(c.Image)
	}
	return out
}

func categoryID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid category id")
		return 0, false
	}
	return uint(id), true
}

// categoryForm is a create or update submission. Nil pointers were not sent.
type categoryForm struct {
	Name        *string               `json:"name" validate:"required,max=150"`
	Description *string               `json:"description"`
	Image       *multipart.FileHeader `json:"-"`

	fields       []string
	structFields []string
}

func parseCategoryForm(w http.ResponseWriter, r *http.Request) (*categoryForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, 3*models.MaxImageSize)

	form := &categoryForm{}
	if !api.IsMultipart(r) {
		var raw map[string]json.RawMessage
		if err := api.DecodeJSON(r, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadBody, err)
		}
		for key, value := range raw {
			// images can only be uploaded as multipart
			if key == "image" {
				return nil, fmt.Errorf("%s: %w", key, models.ErrUnknownField)
			}
			if err := form.mark(key); err != nil {
				return nil, err
			}
			var err error
			switch key {
			case "name":
				err = json.Unmarshal(value, &form.Name)
			case "description":
				err = json.Unmarshal(value, &form.Description)
				if err == nil && form.Description == nil {
					form.Description = new(string)
				}
			}
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", errBadBody, key, err)
			}
		}
		return form, nil
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadBody, err)
	}
	for key, values := range r.MultipartForm.Value {
		if err := form.mark(key); err != nil {
			return nil, err
		}
		if len(values) == 0 {
			continue
		}
		switch key {
		case "name":
			form.Name = &values[0]
		case "description":
			form.Description = &values[0]
		case "image":
			return nil, fmt.Errorf("%s: %w", key, models.ErrUnknownField)
		}
	}
	for key, files := range r.MultipartForm.File {
		if key != "image" {
			return nil, fmt.Errorf("%s: %w", key, models.ErrUnknownField)
		}
		if len(files) == 0 {
			continue
		}
		if err := form.mark(key); err != nil {
			return nil, err
		}
		form.Image = files[0]
	}
	return form, nil
}

func (f *categoryForm) mark(key string) error {
	switch key {
	case "id", "created_at", "updated_at":
		return fmt.Errorf("%s: %w", key, models.ErrImmutableField)
	case "name":
		f.structFields = append(f.structFields, "Name")
	case "description", "image":
	default:
		return fmt.Errorf("%s: %w", key, models.ErrUnknownField)
	}
	f.fields = append(f.fields, key)
	return nil
}
