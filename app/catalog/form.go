package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/marketplace/catalog/app/api"
	"github.com/marketplace/catalog/models"
)

const (
	maxUploadBytes = 3 * models.MaxImageSize
	maxFormMemory  = 8 << 20
)

var errBadBody = errors.New("malformed request body")

// productFormFields maps accepted form keys to the struct fields tag rules run on.
// "category" is accepted as an alias of "category_id".
var productFormFields = map[string]string{
	"name":           "Name",
	"price":          "Price",
	"description":    "Description",
	"category_id":    "CategoryID",
	"category":       "CategoryID",
	"in_stock":       "InStock",
	"stock_quantity": "StockQuantity",
	"image":          "",
}

var systemFields = map[string]bool{
	"id":         true,
	"code":       true,
	"created_at": true,
	"updated_at": true,
}

// nullable lists the JSON fields that may be sent as null to clear them.
var nullable = map[string]bool{
	"description": true,
	"category_id": true,
	"category":    true,
}

// productForm is a create or update submission. Nil pointers are fields the
// client did not send.
type productForm struct {
	Name          *string               `json:"name" validate:"required,max=200"`
	Price         *decimal.Decimal      `json:"price" validate:"required"`
	Description   *string               `json:"description"`
	CategoryID    *uint                 `json:"category_id"`
	InStock       *bool                 `json:"in_stock"`
	StockQuantity *int                  `json:"stock_quantity"`
	Image         *multipart.FileHeader `json:"-"`

	// fields lists the repository field names that were submitted.
	fields       []string
	structFields []string
	parseErrs    models.ValidationErrors
	category     *models.Category
}

// parseProductForm reads a JSON or multipart body. Image uploads are only
// possible with multipart.
func parseProductForm(w http.ResponseWriter, r *http.Request) (*productForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if api.IsMultipart(r) {
		return parseMultipartProduct(r)
	}
	return parseJSONProduct(r)
}

func parseJSONProduct(r *http.Request) (*productForm, error) {
	var raw map[string]json.RawMessage
	if err := api.DecodeJSON(r, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadBody, err)
	}

	form := &productForm{}
	for _, key := range sortedKeys(raw) {
		if err := form.mark(key, false); err != nil {
			return nil, err
		}

		value := raw[key]
		if string(value) == "null" && !nullable[key] {
			form.invalid(key)
			continue
		}

		var err error
		switch key {
		case "name":
			err = json.Unmarshal(value, &form.Name)
		case "price":
			err = json.Unmarshal(value, &form.Price)
		case "description":
			err = json.Unmarshal(value, &form.Description)
		case "category_id", "category":
			err = json.Unmarshal(value, &form.CategoryID)
		case "in_stock":
			err = json.Unmarshal(value, &form.InStock)
		case "stock_quantity":
			err = json.Unmarshal(value, &form.StockQuantity)
		}
		if err != nil {
			form.invalid(key)
		}
	}
	return form, nil
}

func parseMultipartProduct(r *http.Request) (*productForm, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadBody, err)
	}

	form := &productForm{}
	values := r.MultipartForm.Value
	for _, key := range sortedKeys(values) {
		if err := form.mark(key, false); err != nil {
			return nil, err
		}
		if len(values[key]) == 0 {
			continue
		}

		value := strings.TrimSpace(values[key][0])
		switch key {
		case "name":
			form.Name = &values[key][0]
		case "description":
			form.Description = &values[key][0]
		case "price":
			d, err := decimal.NewFromString(value)
			if err != nil {
				form.invalid(key)
				continue
			}
			form.Price = &d
		case "category_id", "category":
			if value == "" {
				continue
			}
			id, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				form.invalid(key)
				continue
			}
			categoryID := uint(id)
			form.CategoryID = &categoryID
		case "in_stock":
			b, err := strconv.ParseBool(value)
			if err != nil {
				form.invalid(key)
				continue
			}
			form.InStock = &b
		case "stock_quantity":
			n, err := strconv.Atoi(value)
			if err != nil {
				form.invalid(key)
				continue
			}
			form.StockQuantity = &n
		}
	}

	for _, key := range sortedKeys(r.MultipartForm.File) {
		if key != "image" {
			return nil, fmt.Errorf("%s: %w", key, models.ErrUnknownField)
		}
		files := r.MultipartForm.File[key]
		if len(files) == 0 {
			continue
		}
		if err := form.mark(key, true); err != nil {
			return nil, err
		}
		form.Image = files[0]
	}
	return form, nil
}

// mark records a submitted key, rejecting system managed and unknown fields.
func (f *productForm) mark(key string, file bool) error {
	if systemFields[key] {
		return fmt.Errorf("%s: %w", key, models.ErrImmutableField)
	}
	structField, ok := productFormFields[key]
	if !ok || (key == "image" && !file) {
		return fmt.Errorf("%s: %w", key, models.ErrUnknownField)
	}

	field := key
	if key == "category" {
		field = "category_id"
	}
	for _, seen := range f.fields {
		if seen == field {
			return nil
		}
	}
	f.fields = append(f.fields, field)
	if structField != "" {
		f.structFields = append(f.structFields, structField)
	}
	return nil
}

func (f *productForm) invalid(key string) {
	f.parseErrs = append(f.parseErrs, &models.ValidationError{
		Field:   key,
		Kind:    models.Invalid,
		Message: "enter a valid value",
	})
}

// values returns the submitted values the catalog field rules apply to.
func (f *productForm) values() map[string]any {
	values := make(map[string]any, 4)
	if f.Name != nil {
		values["name"] = *f.Name
	}
	if f.Price != nil {
		values["price"] = *f.Price
	}
	if f.StockQuantity != nil {
		values["stock_quantity"] = *f.StockQuantity
	}
	if f.Image != nil {
		values["image"] = models.ImageUpload{Filename: f.Image.Filename, Size: f.Image.Size}
	}
	return values
}

// apply copies submitted fields onto product. The image key is set by the caller
// once the upload is stored.
func (f *productForm) apply(product *models.Product) {
	for _, field := range f.fields {
		switch field {
		case "name":
			if f.Name != nil {
				product.Name = strings.TrimSpace(*f.Name)
			}
		case "price":
			if f.Price != nil {
				product.Price = *f.Price
			}
		case "description":
			if f.Description != nil {
				product.Description = *f.Description
			} else {
				product.Description = ""
			}
		case "category_id":
			product.CategoryID = f.CategoryID
			product.Category = f.category
		case "in_stock":
			if f.InStock != nil {
				product.InStock = *f.InStock
			}
		case "stock_quantity":
			if f.StockQuantity != nil {
				product.StockQuantity = *f.StockQuantity
			}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
