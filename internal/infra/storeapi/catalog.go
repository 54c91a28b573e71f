package storeapi

import (
	"context"

	"github.com/pastita/storefront-bfa-go/internal/domain"
	"go.opentelemetry.io/otel/attribute"
)

// --- Catalog API (implements port.CatalogFetcher) ---

// GetCatalog fetches the full storefront snapshot. The catalog is public;
// no credential is attached.
func (c *Client) GetCatalog(ctx context.Context) (*domain.Catalog, error) {
	ctx, span := tracer.Start(ctx, "StoreAPI.GetCatalog")
	defer span.End()

	var catalog domain.Catalog
	if err := c.getWithResilience(ctx, c.storePath("/catalog/"), "", "catalog", &catalog); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("catalog.products", len(catalog.Products)))
	return &catalog, nil
}

// GetProduct fetches a single product by ID.
func (c *Client) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "StoreAPI.GetProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	var product domain.Product
	url := c.globalPath("/products/" + productID + "/")
	if err := c.getWithResilience(ctx, url, "", "product", &product); err != nil {
		return nil, err
	}
	return &product, nil
}
