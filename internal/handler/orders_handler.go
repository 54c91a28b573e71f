package handler

import (
	"net/http"

	"github.com/pastita/storefront-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Orders — /v1/orders
// ============================================================

func listOrdersHandler(orderSvc *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/orders")
		defer span.End()

		sess := SessionFromContext(ctx)
		orders, err := orderSvc.List(ctx, sess)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
	}
}

func getOrderHandler(orderSvc *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/orders/{orderId}")
		defer span.End()

		orderID := chi.URLParam(r, "orderId")
		span.SetAttributes(attribute.String("order.id", orderID))

		sess := SessionFromContext(ctx)
		order, err := orderSvc.Get(ctx, sess, orderID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

// orderByTokenHandler serves guest order tracking: the order's own access
// token is the only credential involved.
func orderByTokenHandler(orderSvc *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/orders/by-token/{accessToken}")
		defer span.End()

		accessToken := chi.URLParam(r, "accessToken")
		order, err := orderSvc.GetByToken(ctx, accessToken)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

func orderPaymentStatusHandler(orderSvc *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/orders/{orderId}/payment-status")
		defer span.End()

		orderID := chi.URLParam(r, "orderId")
		span.SetAttributes(attribute.String("order.id", orderID))

		sess := SessionFromContext(ctx)
		status, err := orderSvc.PaymentStatus(ctx, sess, orderID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

func orderContactLinkHandler(orderSvc *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/orders/{orderId}/contact-link")
		defer span.End()

		orderID := chi.URLParam(r, "orderId")
		sess := SessionFromContext(ctx)
		link, err := orderSvc.ContactLink(ctx, sess, orderID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, link)
	}
}
