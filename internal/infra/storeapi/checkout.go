package storeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pastita/storefront-bfa-go/internal/domain"
	"go.opentelemetry.io/otel/attribute"
)

// --- Checkout API (implements port.CheckoutGateway) ---

// SubmitOrder places the order built from the current server cart. Submission
// is single-shot; a retry could place the order twice.
func (c *Client) SubmitOrder(ctx context.Context, token string, req *domain.CheckoutRequest) (*domain.OrderConfirmation, error) {
	ctx, span := tracer.Start(ctx, "StoreAPI.SubmitOrder")
	defer span.End()
	span.SetAttributes(attribute.String("checkout.delivery_method", req.DeliveryMethod))

	body, err := c.doRequest(ctx, http.MethodPost, c.storePath("/checkout/"), token, "checkout", req)
	if err != nil {
		return nil, err
	}

	var conf domain.OrderConfirmation
	if err := json.Unmarshal(body, &conf); err != nil {
		return nil, &domain.ErrUpstream{Endpoint: "checkout", Err: fmt.Errorf("decode: %w", err)}
	}
	return &conf, nil
}

type couponPayload struct {
	Code     string `json:"code"`
	Subtotal string `json:"subtotal"`
}

// ValidateCoupon checks a coupon code against the given subtotal.
func (c *Client) ValidateCoupon(ctx context.Context, token, code string, subtotal string) (*domain.CouponResult, error) {
	ctx, span := tracer.Start(ctx, "StoreAPI.ValidateCoupon")
	defer span.End()

	body, err := c.doRequest(ctx, http.MethodPost, c.storePath("/validate-coupon/"), token, "coupon", couponPayload{
		Code:     code,
		Subtotal: subtotal,
	})
	if err != nil {
		return nil, err
	}

	var result domain.CouponResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &domain.ErrUpstream{Endpoint: "coupon", Err: fmt.Errorf("decode: %w", err)}
	}
	return &result, nil
}

// DeliveryFee quotes the delivery cost for a destination.
func (c *Client) DeliveryFee(ctx context.Context, zipCode string, distanceKm float64) (*domain.DeliveryInfo, error) {
	ctx, span := tracer.Start(ctx, "StoreAPI.DeliveryFee")
	defer span.End()

	q := url.Values{}
	if zipCode != "" {
		q.Set("zip_code", zipCode)
	}
	if distanceKm > 0 {
		q.Set("distance_km", fmt.Sprintf("%g", distanceKm))
	}

	var info domain.DeliveryInfo
	u := c.storePath("/delivery-fee/?" + q.Encode())
	if err := c.getWithResilience(ctx, u, "", "delivery_fee", &info); err != nil {
		return nil, err
	}
	return &info, nil
}
