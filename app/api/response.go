// Package api holds the JSON conventions shared by every HTTP handler.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/marketplace/catalog/models"
)

// ValidationBody is returned with 400 when submitted fields fail validation.
type ValidationBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func OKResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// ErrorResponse writes {"error": message}.
func ErrorResponse(w http.ResponseWriter, status int, message string) {
	OKResponse(w, status, map[string]string{"error": message})
}

func ValidationResponse(w http.ResponseWriter, errs models.ValidationErrors) {
	OKResponse(w, http.StatusBadRequest, ValidationBody{
		Error:  "validation failed",
		Fields: errs.Fields(),
	})
}

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrImmutableField), errors.Is(err, models.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConstraint):
		return http.StatusConflict
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err with the status StatusFor picks. Internal errors
// never leak their text; internalMsg is sent instead.
func WriteError(w http.ResponseWriter, err error, internalMsg string) {
	status := StatusFor(err)

	if status == http.StatusBadRequest {
		var errs models.ValidationErrors
		if errors.As(err, &errs) {
			ValidationResponse(w, errs)
			return
		}
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			ValidationResponse(w, models.ValidationErrors{vErr})
			return
		}
	}

	if status == http.StatusInternalServerError {
		ErrorResponse(w, status, internalMsg)
		return
	}
	ErrorResponse(w, status, sentence(err.Error()))
}

// DecodeJSON decodes the request body into target.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

// IsMultipart reports whether the request carries a multipart form.
func IsMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func sentence(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
