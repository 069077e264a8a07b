package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketplace/catalog/models"
)

func TestStatusFor(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "validation", err: &models.ValidationError{Field: "name", Kind: models.TooShort}, want: http.StatusBadRequest},
		{name: "validation list", err: models.ValidationErrors{{Field: "price"}}, want: http.StatusBadRequest},
		{name: "immutable", err: fmt.Errorf("code: %w", models.ErrImmutableField), want: http.StatusBadRequest},
		{name: "unknown field", err: fmt.Errorf("colour: %w", models.ErrUnknownField), want: http.StatusBadRequest},
		{name: "constraint", err: &models.ConstraintError{Entity: "category", Field: "name"}, want: http.StatusConflict},
		{name: "product not found", err: models.ErrProductNotFound, want: http.StatusNotFound},
		{name: "wrapped not found", err: fmt.Errorf("load: %w", models.ErrCategoryNotFound), want: http.StatusNotFound},
		{name: "anything else", err: errors.New("db down"), want: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusFor(tc.err))
		})
	}
}

func TestWriteError(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, models.ErrProductNotFound, "failed")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var errResp map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
		assert.Equal(t, "Product not found", errResp["error"])
	})

	t.Run("constraint", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, &models.ConstraintError{Entity: "category", Field: "name"}, "failed")

		assert.Equal(t, http.StatusConflict, rec.Code)
		var errResp map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
		assert.Equal(t, "Category with this name already exists", errResp["error"])
	})

	t.Run("internal error text is hidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("pq: connection refused"), "failed to get products")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var errResp map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
		assert.Equal(t, "failed to get products", errResp["error"])
	})

	t.Run("single validation error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, err := models.ValidateStockQuantity(-1)
		WriteError(rec, err, "failed")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body ValidationBody
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "validation failed", body.Error)
		assert.Equal(t, "cannot be negative", body.Fields["stock_quantity"])
	})
}

func TestIsMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	assert.True(t, IsMultipart(req))

	req.Header.Set("Content-Type", "application/json")
	assert.False(t, IsMultipart(req))
}
