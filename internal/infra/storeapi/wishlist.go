package storeapi

import (
	"context"
	"net/http"

	"github.com/pastita/storefront-bfa-go/internal/domain"
)

// --- Wishlist API (implements port.WishlistGateway) ---
//
// The wishlist is keyed by product ID on every mutation endpoint, so the
// calls are naturally idempotent on the server; they are still issued once
// because the local collection handles its own rollback.

// GetWishlist fetches the saved products for the authenticated user.
func (c *Client) GetWishlist(ctx context.Context, token string) ([]domain.WishlistEntry, error) {
	ctx, span := tracer.Start(ctx, "StoreAPI.GetWishlist")
	defer span.End()

	var entries []domain.WishlistEntry
	if err := c.getWithResilience(ctx, c.storePath("/wishlist/"), token, "wishlist", &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.WishlistEntry{}
	}
	return entries, nil
}

type wishlistPayload struct {
	ProductID string `json:"product_id"`
}

// AddToWishlist saves a product.
func (c *Client) AddToWishlist(ctx context.Context, token, productID string) error {
	ctx, span := tracer.Start(ctx, "StoreAPI.AddToWishlist")
	defer span.End()

	_, err := c.doRequest(ctx, http.MethodPost, c.storePath("/wishlist/add/"), token, "wishlist", wishlistPayload{ProductID: productID})
	return err
}

// RemoveFromWishlist removes a saved product.
func (c *Client) RemoveFromWishlist(ctx context.Context, token, productID string) error {
	ctx, span := tracer.Start(ctx, "StoreAPI.RemoveFromWishlist")
	defer span.End()

	_, err := c.doRequest(ctx, http.MethodPost, c.storePath("/wishlist/remove/"), token, "wishlist", wishlistPayload{ProductID: productID})
	return err
}

// ToggleWishlist flips membership of a product server-side.
func (c *Client) ToggleWishlist(ctx context.Context, token, productID string) error {
	ctx, span := tracer.Start(ctx, "StoreAPI.ToggleWishlist")
	defer span.End()

	_, err := c.doRequest(ctx, http.MethodPost, c.storePath("/wishlist/toggle/"), token, "wishlist", wishlistPayload{ProductID: productID})
	return err
}
