package models

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ValidationKind names the rule a submitted value broke.
type ValidationKind string

const (
	TooShort        ValidationKind = "too_short"
	NotPositive     ValidationKind = "not_positive"
	TooPrecise      ValidationKind = "too_precise"
	OutOfRange      ValidationKind = "out_of_range"
	Negative        ValidationKind = "negative"
	TooLarge        ValidationKind = "too_large"
	UnsupportedType ValidationKind = "unsupported_type"
	Required        ValidationKind = "required"
	Invalid         ValidationKind = "invalid"
)

const (
	MinNameLength  = 3
	MaxImageSize   = 5 << 20
	PriceScale     = 2
	MaxPriceDigits = 8
)

// AllowedImageExtensions lists the upload extensions accepted for product and category images.
var AllowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

var maxPrice = decimal.New(1, MaxPriceDigits)

// ValidationError is a field-level rejection raised before anything is persisted.
type ValidationError struct {
	Field   string
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidationErrors collects every failing field of a submitted form.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// Fields maps field names to their messages. The first message recorded for
// a field wins.
func (v ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(v))
	for _, e := range v {
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

// Add appends err when it is a ValidationError or a ValidationErrors list.
// It reports whether err was absorbed.
func (v *ValidationErrors) Add(err error) bool {
	switch e := err.(type) {
	case nil:
		return true
	case *ValidationError:
		*v = append(*v, e)
		return true
	case ValidationErrors:
		*v = append(*v, e...)
		return true
	}
	return false
}

// Err returns nil when no field failed.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func ValidateName(name string) (string, error) {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < MinNameLength {
		return name, &ValidationError{
			Field:   "name",
			Kind:    TooShort,
			Message: fmt.Sprintf("must be at least %d characters long", MinNameLength),
		}
	}
	return name, nil
}

func ValidatePrice(price decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return price, &ValidationError{Field: "price", Kind: NotPositive, Message: "must be greater than zero"}
	}
	if !price.Equal(price.Truncate(PriceScale)) {
		return price, &ValidationError{Field: "price", Kind: TooPrecise, Message: "must have at most 2 decimal places"}
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return price, &ValidationError{Field: "price", Kind: OutOfRange, Message: "must be less than 100000000"}
	}
	return price, nil
}

func ValidateStockQuantity(qty int) (int, error) {
	if qty < 0 {
		return qty, &ValidationError{Field: "stock_quantity", Kind: Negative, Message: "cannot be negative"}
	}
	return qty, nil
}

// ImageUpload is the metadata of an uploaded file that the image rules look at.
type ImageUpload struct {
	Filename string
	Size     int64
}

func (u ImageUpload) Ext() string {
	return strings.ToLower(filepath.Ext(u.Filename))
}

func ValidateImage(file ImageUpload) (ImageUpload, error) {
	if file.Size > MaxImageSize {
		return file, &ValidationError{Field: "image", Kind: TooLarge, Message: "file size must be less than 5MB"}
	}
	ext := file.Ext()
	for _, allowed := range AllowedImageExtensions {
		if ext == allowed {
			return file, nil
		}
	}
	return file, &ValidationError{Field: "image", Kind: UnsupportedType, Message: "must be a JPG, PNG or GIF image"}
}

// FieldValidator checks one submitted field value.
type FieldValidator func(value any) error

// ProductFieldValidators maps product form fields to their rules.
// Callers run only the validators for the fields they actually received.
var ProductFieldValidators = map[string]FieldValidator{
	"name": func(v any) error {
		s, ok := v.(string)
		if !ok {
			return invalidType("name", v)
		}
		_, err := ValidateName(s)
		return err
	},
	"price": func(v any) error {
		d, ok := v.(decimal.Decimal)
		if !ok {
			return invalidType("price", v)
		}
		_, err := ValidatePrice(d)
		return err
	},
	"stock_quantity": func(v any) error {
		n, ok := v.(int)
		if !ok {
			return invalidType("stock_quantity", v)
		}
		_, err := ValidateStockQuantity(n)
		return err
	},
	"image": func(v any) error {
		f, ok := v.(ImageUpload)
		if !ok {
			return invalidType("image", v)
		}
		_, err := ValidateImage(f)
		return err
	},
}

// CategoryFieldValidators maps category form fields to their rules.
var CategoryFieldValidators = map[string]FieldValidator{
	"name": func(v any) error {
		s, ok := v.(string)
		if !ok {
			return invalidType("name", v)
		}
		if strings.TrimSpace(s) == "" {
			return &ValidationError{Field: "name", Kind: Required, Message: "is required"}
		}
		return nil
	},
	"image": ProductFieldValidators["image"],
}

// ValidateFields runs the validator registered for each submitted field and
// collects every failure. Fields without a registered validator are accepted.
func ValidateFields(validators map[string]FieldValidator, values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs ValidationErrors
	for _, name := range names {
		check, ok := validators[name]
		if !ok {
			continue
		}
		if err := check(values[name]); err != nil && !errs.Add(err) {
			return err
		}
	}
	return errs.Err()
}

func invalidType(field string, v any) error {
	return &ValidationError{Field: field, Kind: Invalid, Message: fmt.Sprintf("unexpected value type %T", v)}
}
