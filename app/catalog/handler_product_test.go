package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketplace/catalog/app/api"
	"github.com/marketplace/catalog/models"
)

// --- Helpers ---

func jsonRequest(method, url, body string) *http.Request {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds a form with the given values and an optional image.
func multipartRequest(t *testing.T, method, url string, values map[string]string, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeValidation(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body api.ValidationBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "validation failed", body.Error)
	return body.Fields
}

// --- Tests ---

func TestHandleGetProduct(t *testing.T) {
	allMockProducts := []models.Product{
		newTestProduct(1, "PROD001", &audio, "15.50", 3),
		newTestProduct(2, "PROD100", nil, "30", 0),
	}
	allMockProducts[0].Image = "products/prod001.png"

	testCases := []struct {
		name               string
		productID          string
		mockRepoSetup      func() *MockProductRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkRepoCall      func(t *testing.T, repo *MockProductRepo)
	}{
		{
			name:      "Success",
			productID: "1",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Product
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, "PROD001", resp.Code)
				assert.Equal(t, "15.50", resp.Price)
				assert.Equal(t, "Audio", resp.Category.Name)
				assert.Equal(t, "/media/products/prod001.png", resp.ImageURL)
			},
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.EqualValues(t, 1, repo.lastCalledID)
			},
		},
		{
			name:      "Whole number price keeps two decimals",
			productID: "2",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Product
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, "30.00", resp.Price)
				assert.Nil(t, resp.Category)
				assert.Empty(t, resp.ImageURL)
				assert.False(t, resp.InStock)
			},
		},
		{
			name:      "Product not found",
			productID: "404",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusNotFound,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Product not found", decodeError(t, rec))
			},
		},
		{
			name:      "Repository internal error",
			productID: "1",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{Err: errors.New("db connection lost")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Failed to retrieve product", decodeError(t, rec))
			},
		},
		{
			name:      "Non numeric id",
			productID: "abc",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Invalid product id", decodeError(t, rec))
			},
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.Zero(t, repo.lastCalledID, "repository must not be queried")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := newHandler(mockRepo, &MockStore{})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+tc.productID, nil)
			req.SetPathValue("id", tc.productID)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleGetProduct(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)

			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}

			if tc.checkRepoCall != nil {
				tc.checkRepoCall(t, mockRepo)
			}
		})
	}
}

func TestHandleGetByCode(t *testing.T) {
	mockRepo := &MockProductRepo{SourceProducts: []models.Product{
		newTestProduct(7, "AB12CD34", &gaming, "59.99", 1),
	}}
	handler := newHandler(mockRepo, &MockStore{})

	t.Run("lookup is case insensitive", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/code/ab12cd34", nil)
		req.SetPathValue("code", "ab12cd34")
		rec := httptest.NewRecorder()

		handler.HandleGetByCode(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "AB12CD34", mockRepo.lastCalledCode)
		var resp Product
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.EqualValues(t, 7, resp.ID)
	})

	t.Run("unknown code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/code/NOPE", nil)
		req.SetPathValue("code", "NOPE")
		rec := httptest.NewRecorder()

		handler.HandleGetByCode(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Product not found", decodeError(t, rec))
	})
}

func TestHandleCreate(t *testing.T) {
	testCases := []struct {
		name               string
		request            func(t *testing.T) *http.Request
		mockRepoSetup      func() *MockProductRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkRepoCalls     func(t *testing.T, repo *MockProductRepo, store *MockStore)
	}{
		{
			name: "Success with JSON body",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/v1/products",
					`{"name":"Wireless Headphones","price":"49.99","stock_quantity":10,"category_id":1}`)
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{} },
			expectedStatusCode: http.StatusCreated,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Product
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, "GEN00001", resp.Code)
				assert.Equal(t, "49.99", resp.Price)
				assert.Equal(t, "Audio", resp.Category.Name)
				assert.True(t, resp.InStock)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo, _ *MockStore) {
				require.NotNil(t, repo.lastCreated)
				assert.Equal(t, "Wireless Headphones", repo.lastCreated.Name)
				assert.Equal(t, 10, repo.lastCreated.StockQuantity)
				assert.Empty(t, repo.lastCreated.Image)
				if assert.NotNil(t, repo.lastCreated.CategoryID) {
					assert.EqualValues(t, 1, *repo.lastCreated.CategoryID)
				}
			},
		},
		{
			name: "Numeric price and defaults",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/v1/products", `{"name":"USB Hub","price":25}`)
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{} },
			expectedStatusCode: http.StatusCreated,
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo, _ *MockStore) {
				require.NotNil(t, repo.lastCreated)
				assert.Equal(t, "25.00", repo.lastCreated.Price.StringFixed(2))
				assert.Equal(t, 0, repo.lastCreated.StockQuantity)
				assert.True(t, repo.lastCreated.InStock)
				assert.Nil(t, repo.lastCreated.CategoryID)
			},
		},
		{
			name: "Missing required fields",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/v1/products", `{"description":"no name or price"}`)
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{} },
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				fields := decodeValidation(t, rec)
				assert.Equal(t, "this field is required", fields["name"])
				assert.Equal(t, "this field is required", fields["price"])
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo, _ *MockStore) {
				assert.Nil(t, repo.lastCreated)
			},
		},
		{
			name: "Every failing field is reported",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/v1/products",
					`{"name":"ab","price":"0","stock_quantity":-3,"category_id":42}`)
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{} },
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				fields := decodeValidation(t, rec)
				assert.Equal(t, map[string]string{
					"name":           "must be at least 3 characters long",
					"price":          "must be greater than zero",
					"stock_quantity": "cannot be negative",
					"category":       "select a valid category",
				}, fields)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo, _ *MockStore) {
				assert.Nil(t, repo.lastCreated)
			},
		},
		{
			name: "Price with three decimals",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/v1/products", `{"name":"Cable","price":"1.999"}`)
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{} },
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				fields := decodeValidation(t, rec)
				assert.Equal(t, "must have at most 2 decimal places", fields["price"])
			},
		},
		{
			name: "Malformed price",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/v1/products", `{"name":"Cable","price":"cheap"}`)
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{} },
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				fields := decodeValidation(t, rec)
				assert.Equal(t, "enter a valid value", fields["price"])
			},
		},
		{
			name: "Code cannot be supplied",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/v1/products", `{"name":"Cable","price":"5","code":"MINE0001"}`)
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{} },
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Code: field is immutable", decodeError(t, rec))
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo, _ *MockStore) {
				assert.Nil(t, repo.lastCreated)
			},
		},
		{
			name: "Invalid JSON body",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/v1/products", `{"name":`)
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{} },
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Invalid request body", decodeError(t, rec))
			},
		},
		{
			name: "Code collision surfaces as conflict",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPost, "/api/v1/products", `{"name":"Cable","price":"5"}`)
			},
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{CreateErr: &models.ConstraintError{Entity: "product", Field: "code"}}
			},
			expectedStatusCode: http.StatusConflict,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Product with this code already exists", decodeError(t, rec))
			},
		},
		{
			name: "Multipart with image",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, http.MethodPost, "/api/v1/products", map[string]string{
					"name":     "Ring Light",
					"price":    "19.99",
					"category": "2",
					"in_stock": "false",
				}, "Ring Light.PNG", []byte("fake-png"))
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{} },
			expectedStatusCode: http.StatusCreated,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Product
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.True(t, strings.HasPrefix(resp.ImageURL, "/media/products/ring-light-"), resp.ImageURL)
				assert.Equal(t, "Gaming", resp.Category.Name)
				assert.False(t, resp.InStock)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo, store *MockStore) {
				require.NotNil(t, repo.lastCreated)
				assert.Len(t, store.Objects, 1)
				assert.Equal(t, "fake-png", store.Objects[repo.lastCreated.Image])
			},
		},
		{
			name: "Unsupported image type is rejected before storing",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, http.MethodPost, "/api/v1/products", map[string]string{
					"name":  "Ring Light",
					"price": "19.99",
				}, "light.webp", []byte("riff"))
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{} },
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				fields := decodeValidation(t, rec)
				assert.Equal(t, "must be a JPG, PNG or GIF image", fields["image"])
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo, store *MockStore) {
				assert.Nil(t, repo.lastCreated)
				assert.Empty(t, store.Objects)
			},
		},
		{
			name: "Stored image is discarded when the insert fails",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, http.MethodPost, "/api/v1/products", map[string]string{
					"name":  "Ring Light",
					"price": "19.99",
				}, "light.jpg", []byte("jpeg"))
			},
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{CreateErr: errors.New("insert failed")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "failed to create product", decodeError(t, rec))
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo, store *MockStore) {
				assert.Empty(t, store.Objects)
				assert.Len(t, store.Deleted, 1)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			store := &MockStore{}
			handler := newHandler(mockRepo, store)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleCreate(rec, tc.request(t))

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)

			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}

			if tc.checkRepoCalls != nil {
				tc.checkRepoCalls(t, mockRepo, store)
			}
		})
	}
}

func TestHandleUpdate(t *testing.T) {
	source := func() []models.Product {
		p := newTestProduct(5, "UPD00005", &audio, "59.99", 4)
		p.Name = "Bluetooth Speaker"
		p.Description = "Portable"
		p.Image = "products/old.png"
		return []models.Product{p}
	}

	testCases := []struct {
		name               string
		productID          string
		request            func(t *testing.T) *http.Request
		mockRepoSetup      func() *MockProductRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkRepoCalls     func(t *testing.T, repo *MockProductRepo, store *MockStore)
	}{
		{
			name:      "Only submitted fields are written",
			productID: "5",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPatch, "/api/v1/products/5", `{"price":"44.49","in_stock":false}`)
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{SourceProducts: source()} },
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Product
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, "44.49", resp.Price)
				assert.Equal(t, "Bluetooth Speaker", resp.Name)
				assert.Equal(t, "UPD00005", resp.Code)
				assert.False(t, resp.InStock)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo, _ *MockStore) {
				assert.Equal(t, []string{"in_stock", "price"}, repo.lastFields)
			},
		},
		{
			name:      "Clearing the category",
			productID: "5",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPatch, "/api/v1/products/5", `{"category_id":null}`)
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{SourceProducts: source()} },
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Product
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Nil(t, resp.Category)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo, _ *MockStore) {
				assert.Equal(t, []string{"category_id"}, repo.lastFields)
				assert.Nil(t, repo.lastUpdated.CategoryID)
			},
		},
		{
			name:      "Code is immutable",
			productID: "5",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPatch, "/api/v1/products/5", `{"code":"NEWCODE1"}`)
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{SourceProducts: source()} },
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Code: field is immutable", decodeError(t, rec))
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo, _ *MockStore) {
				assert.Nil(t, repo.lastUpdated)
			},
		},
		{
			name:      "Unknown field",
			productID: "5",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPatch, "/api/v1/products/5", `{"colour":"red"}`)
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{SourceProducts: source()} },
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Colour: unknown field", decodeError(t, rec))
			},
		},
		{
			name:      "Short name is rejected",
			productID: "5",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPatch, "/api/v1/products/5", `{"name":"ab"}`)
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{SourceProducts: source()} },
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				fields := decodeValidation(t, rec)
				assert.Equal(t, map[string]string{"name": "must be at least 3 characters long"}, fields)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo, _ *MockStore) {
				assert.Nil(t, repo.lastUpdated)
			},
		},
		{
			name:      "Null stock quantity is rejected",
			productID: "5",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPatch, "/api/v1/products/5", `{"stock_quantity":null}`)
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{SourceProducts: source()} },
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				fields := decodeValidation(t, rec)
				assert.Equal(t, "enter a valid value", fields["stock_quantity"])
			},
		},
		{
			name:      "Replacing the image removes the old file",
			productID: "5",
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, http.MethodPatch, "/api/v1/products/5", nil, "new.gif", []byte("gif"))
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{SourceProducts: source()} },
			expectedStatusCode: http.StatusOK,
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo, store *MockStore) {
				assert.Equal(t, []string{"image"}, repo.lastFields)
				assert.True(t, strings.HasPrefix(repo.lastUpdated.Image, "products/new-"))
				assert.Equal(t, []string{"products/old.png"}, store.Deleted)
			},
		},
		{
			name:      "Product not found",
			productID: "6",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPatch, "/api/v1/products/6", `{"price":"10"}`)
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{SourceProducts: source()} },
			expectedStatusCode: http.StatusNotFound,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "Product not found", decodeError(t, rec))
			},
		},
		{
			name:      "Empty body leaves the product untouched",
			productID: "5",
			request: func(t *testing.T) *http.Request {
				return jsonRequest(http.MethodPatch, "/api/v1/products/5", `{}`)
			},
			mockRepoSetup:      func() *MockProductRepo { return &MockProductRepo{SourceProducts: source()} },
			expectedStatusCode: http.StatusOK,
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo, _ *MockStore) {
				assert.Nil(t, repo.lastUpdated)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			store := &MockStore{}
			handler := newHandler(mockRepo, store)
			req := tc.request(t)
			req.SetPathValue("id", tc.productID)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleUpdate(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)

			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}

			if tc.checkRepoCalls != nil {
				tc.checkRepoCalls(t, mockRepo, store)
			}
		})
	}
}

func TestHandleDelete(t *testing.T) {
	p := newTestProduct(9, "DEL00009", nil, "9.99", 1)
	p.Image = "products/del.png"

	t.Run("deletes product and its image", func(t *testing.T) {
		mockRepo := &MockProductRepo{SourceProducts: []models.Product{p}}
		store := &MockStore{}
		handler := newHandler(mockRepo, store)

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/9", nil)
		req.SetPathValue("id", "9")
		rec := httptest.NewRecorder()

		handler.HandleDelete(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.EqualValues(t, 9, mockRepo.deletedID)
		assert.Equal(t, []string{"products/del.png"}, store.Deleted)
	})

	t.Run("missing product", func(t *testing.T) {
		mockRepo := &MockProductRepo{}
		handler := newHandler(mockRepo, &MockStore{})

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/9", nil)
		req.SetPathValue("id", "9")
		rec := httptest.NewRecorder()

		handler.HandleDelete(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Zero(t, mockRepo.deletedID)
	})
}
