package handler

import (
	"net/http"

	"github.com/pastita/storefront-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Catalog — /v1/catalog, /v1/products
// ============================================================

func catalogHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/catalog")
		defer span.End()

		snap, err := catalogSvc.Snapshot(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func catalogSearchHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/catalog/search")
		defer span.End()

		query := r.URL.Query().Get("q")
		span.SetAttributes(attribute.String("search.query", query))

		products, err := catalogSvc.Search(ctx, query)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	}
}

func productsByCategoryHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/catalog/categories/{categoryId}/products")
		defer span.End()

		categoryID := chi.URLParam(r, "categoryId")
		products, err := catalogSvc.ProductsByCategory(ctx, categoryID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	}
}

func productHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/products/{productId}")
		defer span.End()

		productID := chi.URLParam(r, "productId")
		span.SetAttributes(attribute.String("product.id", productID))

		product, err := catalogSvc.Product(ctx, productID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, product)
	}
}
