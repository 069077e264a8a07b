package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/marketplace/catalog/app/api"
	"github.com/marketplace/catalog/app/catalog"
	"github.com/marketplace/catalog/app/categories"
)

// RouterConfig carries everything the HTTP surface is assembled from.
type RouterConfig struct {
	Products   *catalog.CatalogHandler
	Categories *categories.CategoryHandler

	// Media serves locally stored images under MediaURL when set.
	Media    http.Handler
	MediaURL string

	AdminToken         string
	RateLimitPerMinute int
	Logger             *zap.Logger
}

func NewRouter(cfg RouterConfig) chi.Router {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		middleware.RequestID,
		RequestLogger(log.Named("http")),
		middleware.Recoverer,
		SecureHeaders(log),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		api.OKResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Media != nil && strings.HasPrefix(cfg.MediaURL, "/") {
		prefix := "/" + strings.Trim(cfg.MediaURL, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix+"/", cfg.Media))
	}

	write := chi.Chain(WriteLimit(cfg.RateLimitPerMinute), AdminOnly(cfg.AdminToken))

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/products", func(pr chi.Router) {
			h := cfg.Products
			pr.Get("/", h.HandleGet)
			pr.Get("/home", h.HandleHome)
			pr.Get("/code/{code}", h.HandleGetByCode)
			pr.Get("/{id}", h.HandleGetProduct)

			pr.With(write...).Post("/", h.HandleCreate)
			pr.With(write...).Patch("/{id}", h.HandleUpdate)
			pr.With(write...).Delete("/{id}", h.HandleDelete)
		})

		v1.Route("/categories", func(cr chi.Router) {
			h := cfg.Categories
			cr.Get("/", h.HandleGetAll)
			cr.Get("/{id}", h.HandleGet)

			cr.With(write...).Post("/", h.HandleCreate)
			cr.With(write...).Patch("/{id}", h.HandleUpdate)
			cr.With(write...).Delete("/{id}", h.HandleDelete)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		api.ErrorResponse(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		api.ErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}
