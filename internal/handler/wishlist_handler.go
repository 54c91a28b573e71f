package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pastita/storefront-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Wishlist — /v1/wishlist
// ============================================================

func getWishlistHandler(wishlistSvc *service.WishlistService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"items": wishlistSvc.Items(sess)})
	}
}

func addWishlistHandler(wishlistSvc *service.WishlistService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/wishlist")
		defer span.End()

		var req struct {
			ProductID string `json:"product_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("product.id", req.ProductID))

		sess := SessionFromContext(ctx)
		if err := wishlistSvc.Add(ctx, sess, req.ProductID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": wishlistSvc.Items(sess)})
	}
}

func toggleWishlistHandler(wishlistSvc *service.WishlistService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/wishlist/toggle")
		defer span.End()

		var req struct {
			ProductID string `json:"product_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("product.id", req.ProductID))

		sess := SessionFromContext(ctx)
		added, err := wishlistSvc.Toggle(ctx, sess, req.ProductID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"added": added,
			"items": wishlistSvc.Items(sess),
		})
	}
}

func removeWishlistHandler(wishlistSvc *service.WishlistService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/wishlist/{productId}")
		defer span.End()

		productID := chi.URLParam(r, "productId")
		span.SetAttributes(attribute.String("product.id", productID))

		sess := SessionFromContext(ctx)
		if err := wishlistSvc.Remove(ctx, sess, productID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": wishlistSvc.Items(sess)})
	}
}
