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
// Cart — /v1/cart
// ============================================================

// Every mutation responds with the visible cart after the optimistic step has
// resolved, so the app never needs a follow-up GET.

func getCartHandler(cartSvc *service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		writeJSON(w, http.StatusOK, cartSvc.Get(sess))
	}
}

func addCartProductHandler(cartSvc *service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/cart/items")
		defer span.End()

		var req struct {
			ProductID string         `json:"product_id"`
			Quantity  int            `json:"quantity"`
			Options   map[string]any `json:"options,omitempty"`
			Notes     string         `json:"notes,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("product.id", req.ProductID), attribute.Int("quantity", req.Quantity))

		sess := SessionFromContext(ctx)
		if err := cartSvc.AddProduct(ctx, sess, req.ProductID, req.Quantity, req.Options, req.Notes); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cartSvc.Get(sess))
	}
}

func addCartComboHandler(cartSvc *service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/cart/combos")
		defer span.End()

		var req struct {
			ComboID        string         `json:"combo_id"`
			Quantity       int            `json:"quantity"`
			Customizations map[string]any `json:"customizations,omitempty"`
			Notes          string         `json:"notes,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("combo.id", req.ComboID), attribute.Int("quantity", req.Quantity))

		sess := SessionFromContext(ctx)
		if err := cartSvc.AddCombo(ctx, sess, req.ComboID, req.Quantity, req.Customizations, req.Notes); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cartSvc.Get(sess))
	}
}

func updateCartItemHandler(cartSvc *service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/cart/items/{lineId}")
		defer span.End()

		lineID := chi.URLParam(r, "lineId")
		span.SetAttributes(attribute.String("line.id", lineID))

		var req struct {
			Quantity *int `json:"quantity,omitempty"`
			Delta    *int `json:"delta,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := SessionFromContext(ctx)
		var err error
		switch {
		case req.Quantity != nil:
			err = cartSvc.SetQuantity(ctx, sess, lineID, *req.Quantity)
		case req.Delta != nil:
			err = cartSvc.UpdateQuantity(ctx, sess, lineID, *req.Delta)
		default:
			writeError(w, http.StatusBadRequest, "quantity or delta is required")
			return
		}
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cartSvc.Get(sess))
	}
}

func removeCartItemHandler(cartSvc *service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/cart/items/{lineId}")
		defer span.End()

		lineID := chi.URLParam(r, "lineId")
		span.SetAttributes(attribute.String("line.id", lineID))

		sess := SessionFromContext(ctx)
		if err := cartSvc.Remove(ctx, sess, lineID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cartSvc.Get(sess))
	}
}

func clearCartHandler(cartSvc *service.CartService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/cart")
		defer span.End()

		sess := SessionFromContext(ctx)
		if err := cartSvc.Clear(ctx, sess); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, cartSvc.Get(sess))
	}
}
