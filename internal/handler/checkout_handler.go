package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pastita/storefront-bfa-go/internal/domain"
	"github.com/pastita/storefront-bfa-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Checkout — /v1/checkout
// ============================================================

func checkoutHandler(checkoutSvc *service.CheckoutService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/checkout")
		defer span.End()

		var req domain.CheckoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("checkout.delivery_method", req.DeliveryMethod))

		sess := SessionFromContext(ctx)
		conf, err := checkoutSvc.Submit(ctx, sess, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, conf)
	}
}

func validateCouponHandler(checkoutSvc *service.CheckoutService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/checkout/coupon")
		defer span.End()

		var req struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := SessionFromContext(ctx)
		result, err := checkoutSvc.ValidateCoupon(ctx, sess, req.Code)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func deliveryFeeHandler(checkoutSvc *service.CheckoutService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/checkout/delivery-fee")
		defer span.End()

		zipCode := r.URL.Query().Get("zip_code")
		distanceKm := 0.0
		if v := r.URL.Query().Get("distance_km"); v != "" {
			if d, err := strconv.ParseFloat(v, 64); err == nil {
				distanceKm = d
			}
		}

		info, err := checkoutSvc.DeliveryFee(ctx, zipCode, distanceKm)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}
