package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marketplace/catalog/models"
)

// NewValidator returns a validator that reports fields by their json names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldErrors converts struct tag failures into domain validation errors.
// Errors that are not tag failures are returned unchanged.
func FieldErrors(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(models.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, fieldError(fe))
	}
	return out
}

func fieldError(fe validator.FieldError) *models.ValidationError {
	switch fe.Tag() {
	case "required":
		return &models.ValidationError{Field: fe.Field(), Kind: models.Required, Message: "this field is required"}
	case "max":
		return &models.ValidationError{
			Field:   fe.Field(),
			Kind:    models.Invalid,
			Message: fmt.Sprintf("ensure this value has at most %s characters", fe.Param()),
		}
	}
	return &models.ValidationError{Field: fe.Field(), Kind: models.Invalid, Message: "is invalid"}
}
