package storeapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pastita/storefront-bfa-go/internal/domain"
	"go.opentelemetry.io/otel/attribute"
)

// --- Orders API (implements port.OrderGateway) ---

// orderList tolerates both the paginated and the plain-array shape the
// platform serves depending on version.
type orderList struct {
	Results []domain.Order `json:"results"`
}

func (l *orderList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &l.Results)
	}
	type alias orderList
	return json.Unmarshal(data, (*alias)(l))
}

// ListOrders fetches the authenticated user's orders for this storefront.
func (c *Client) ListOrders(ctx context.Context, token string) ([]domain.Order, error) {
	ctx, span := tracer.Start(ctx, "StoreAPI.ListOrders")
	defer span.End()

	var list orderList
	u := c.globalPath("/orders/?store=" + c.storeSlug)
	if err := c.getWithResilience(ctx, u, token, "orders", &list); err != nil {
		return nil, err
	}
	if list.Results == nil {
		list.Results = []domain.Order{}
	}
	return list.Results, nil
}

// GetOrder fetches one order by ID.
func (c *Client) GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "StoreAPI.GetOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	var order domain.Order
	u := c.globalPath(fmt.Sprintf("/orders/%s/", orderID))
	if err := c.getWithResilience(ctx, u, token, "order", &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByToken fetches an order through its guest access token, no
// credential required.
func (c *Client) GetOrderByToken(ctx context.Context, accessToken string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "StoreAPI.GetOrderByToken")
	defer span.End()

	var order domain.Order
	u := c.globalPath(fmt.Sprintf("/orders/by-token/%s/", accessToken))
	if err := c.getWithResilience(ctx, u, "", "order", &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetPaymentStatus polls the payment state of an order.
func (c *Client) GetPaymentStatus(ctx context.Context, token, orderID string) (*domain.OrderPaymentStatus, error) {
	ctx, span := tracer.Start(ctx, "StoreAPI.GetPaymentStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	var status struct {
		Status        domain.OrderStatus   `json:"status"`
		PaymentStatus domain.PaymentStatus `json:"payment_status"`
	}
	u := c.globalPath(fmt.Sprintf("/orders/%s/payment-status/", orderID))
	if err := c.getWithResilience(ctx, u, token, "payment_status", &status); err != nil {
		return nil, err
	}
	return &domain.OrderPaymentStatus{
		OrderID:       orderID,
		PaymentStatus: status.PaymentStatus,
		Status:        status.Status,
	}, nil
}

// GetContactLink fetches the messaging deep link for an order.
func (c *Client) GetContactLink(ctx context.Context, token, orderID string) (*domain.ContactLink, error) {
	ctx, span := tracer.Start(ctx, "StoreAPI.GetContactLink")
	defer span.End()

	var link domain.ContactLink
	u := c.globalPath(fmt.Sprintf("/orders/%s/whatsapp/", orderID))
	if err := c.getWithResilience(ctx, u, token, "contact_link", &link); err != nil {
		return nil, err
	}
	return &link, nil
}
