package storeapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pastita/storefront-bfa-go/internal/domain"
)

// --- Cart API (implements port.CartGateway) ---
//
// Cart mutations are never retried. The upstream has no idempotency keys on
// these endpoints, so a retry after an ambiguous failure could double an add.

// GetCart fetches the server-side cart.
func (c *Client) GetCart(ctx context.Context, token string) (*domain.Cart, error) {
	ctx, span := tracer.Start(ctx, "StoreAPI.GetCart")
	defer span.End()

	var cart domain.Cart
	if err := c.getWithResilience(ctx, c.storePath("/cart/"), token, "cart", &cart); err != nil {
		return nil, err
	}
	normalizeCart(&cart)
	return &cart, nil
}

// normalizeCart stamps the line kind the wire format leaves implicit.
func normalizeCart(cart *domain.Cart) {
	for i := range cart.Lines {
		cart.Lines[i].Kind = domain.LineProduct
	}
	for i := range cart.ComboLines {
		cart.ComboLines[i].Kind = domain.LineCombo
	}
}

type addProductPayload struct {
	ProductID string         `json:"product_id"`
	Quantity  int            `json:"quantity"`
	Options   map[string]any `json:"options"`
	Notes     string         `json:"notes"`
}

// AddProduct adds a product line to the server cart.
func (c *Client) AddProduct(ctx context.Context, token, productID string, quantity int, options map[string]any, notes string) error {
	ctx, span := tracer.Start(ctx, "StoreAPI.AddProduct")
	defer span.End()

	if options == nil {
		options = map[string]any{}
	}
	_, err := c.doRequest(ctx, http.MethodPost, c.storePath("/cart/add/"), token, "cart", addProductPayload{
		ProductID: productID,
		Quantity:  quantity,
		Options:   options,
		Notes:     notes,
	})
	return err
}

type addComboPayload struct {
	ComboID        string         `json:"combo_id"`
	Quantity       int            `json:"quantity"`
	Customizations map[string]any `json:"customizations"`
	Notes          string         `json:"notes"`
}

// AddCombo adds a combo line to the server cart.
func (c *Client) AddCombo(ctx context.Context, token, comboID string, quantity int, customizations map[string]any, notes string) error {
	ctx, span := tracer.Start(ctx, "StoreAPI.AddCombo")
	defer span.End()

	if customizations == nil {
		customizations = map[string]any{}
	}
	_, err := c.doRequest(ctx, http.MethodPost, c.storePath("/cart/add/"), token, "cart", addComboPayload{
		ComboID:        comboID,
		Quantity:       quantity,
		Customizations: customizations,
		Notes:          notes,
	})
	return err
}

// UpdateItem sets the quantity of a server cart line. cartItemID must be a
// server-issued line ID, never a local placeholder.
func (c *Client) UpdateItem(ctx context.Context, token, cartItemID string, quantity int) error {
	ctx, span := tracer.Start(ctx, "StoreAPI.UpdateItem")
	defer span.End()

	url := c.storePath(fmt.Sprintf("/cart/item/%s/", cartItemID))
	_, err := c.doRequest(ctx, http.MethodPatch, url, token, "cart_item", map[string]any{"quantity": quantity})
	return err
}

// RemoveItem deletes a server cart line.
func (c *Client) RemoveItem(ctx context.Context, token, cartItemID string) error {
	ctx, span := tracer.Start(ctx, "StoreAPI.RemoveItem")
	defer span.End()

	url := c.storePath(fmt.Sprintf("/cart/item/%s/", cartItemID))
	_, err := c.doRequest(ctx, http.MethodDelete, url, token, "cart_item", nil)
	return err
}

// ClearCart empties the server cart.
func (c *Client) ClearCart(ctx context.Context, token string) error {
	ctx, span := tracer.Start(ctx, "StoreAPI.ClearCart")
	defer span.End()

	_, err := c.doRequest(ctx, http.MethodDelete, c.storePath("/cart/clear/"), token, "cart", nil)
	return err
}
