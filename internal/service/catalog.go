package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pastita/storefront-bfa-go/internal/domain"
	"github.com/pastita/storefront-bfa-go/internal/infra/cache"
	"github.com/pastita/storefront-bfa-go/internal/infra/observability"
	"github.com/pastita/storefront-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CatalogService holds the storefront snapshot. The snapshot is replaced
// atomically: readers always see one complete refresh, never a mix of two.
type CatalogService struct {
	fetcher port.CatalogFetcher
	detail  *cache.InMemory[*domain.Product]
	logger  *zap.Logger
	metrics *observability.Metrics
	ttl     time.Duration

	mu        sync.RWMutex
	snapshot  *domain.Catalog
	fetchedAt time.Time
	lastErr   error

	refreshMu sync.Mutex // serializes concurrent refreshes
}

// NewCatalogService creates the service. ttl bounds snapshot staleness on
// read-through; detailTTL bounds the per-product lookup cache.
func NewCatalogService(fetcher port.CatalogFetcher, ttl, detailTTL time.Duration, metrics *observability.Metrics, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		fetcher: fetcher,
		detail:  cache.New[*domain.Product](detailTTL),
		logger:  logger,
		metrics: metrics,
		ttl:     ttl,
	}
}

// Refresh fetches a full snapshot and installs it. On failure the previous
// snapshot stays visible and the error is recorded for LastError.
func (s *CatalogService) Refresh(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "CatalogService.Refresh")
	defer span.End()

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	catalog, err := s.fetcher.GetCatalog(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.logger.Error("catalog refresh failed", zap.Error(err))
		return err
	}

	deriveViews(catalog)
	span.SetAttributes(
		attribute.Int("catalog.products", len(catalog.Products)),
		attribute.Int("catalog.combos", len(catalog.Combos)),
	)

	s.mu.Lock()
	s.snapshot = catalog
	s.fetchedAt = time.Now()
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Info("catalog refreshed",
		zap.Int("products", len(catalog.Products)),
		zap.Int("categories", len(catalog.Categories)),
		zap.Int("combos", len(catalog.Combos)),
	)
	return nil
}

// deriveViews computes the featured list and the category index when the
// upstream omits them. Derived once per refresh, never lazily.
func deriveViews(c *domain.Catalog) {
	if len(c.FeaturedProducts) == 0 {
		for _, p := range c.Products {
			if p.Featured {
				c.FeaturedProducts = append(c.FeaturedProducts, p)
			}
		}
	}
	if len(c.ProductsByCategory) == 0 {
		c.ProductsByCategory = make(map[string][]domain.Product)
		for _, p := range c.Products {
			if p.CategoryID != "" {
				c.ProductsByCategory[p.CategoryID] = append(c.ProductsByCategory[p.CategoryID], p)
			}
		}
	}
}

// Snapshot returns the current catalog, refreshing first when none is held
// or the held one is stale.
func (s *CatalogService) Snapshot(ctx context.Context) (*domain.Catalog, error) {
	s.mu.RLock()
	snap, fetchedAt := s.snapshot, s.fetchedAt
	s.mu.RUnlock()

	if snap != nil && time.Since(fetchedAt) < s.ttl {
		s.metrics.IncrCacheHit("catalog")
		return snap, nil
	}
	s.metrics.IncrCacheMiss("catalog")

	if err := s.Refresh(ctx); err != nil {
		// Serve the stale snapshot if we have one.
		if snap != nil {
			return snap, nil
		}
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, nil
}

// ProductsByCategory returns the precomputed index entry for a category,
// empty when the category has no products.
func (s *CatalogService) ProductsByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	products, ok := snap.ProductsByCategory[categoryID]
	if !ok {
		return []domain.Product{}, nil
	}
	return products, nil
}

// Search matches the query case-insensitively against product name,
// description and short description. A blank query is a validation error,
// distinct from a query with no matches.
func (s *CatalogService) Search(ctx context.Context, query string) ([]domain.Product, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, &domain.ErrValidation{Field: "q", Message: "search query must not be blank"}
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	q = strings.ToLower(q)
	matches := []domain.Product{}
	for _, p := range snap.Products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.ShortDescription), q) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// Product returns a single product, from the snapshot when possible, else
// through the detail cache and the upstream lookup endpoint.
func (s *CatalogService) Product(ctx context.Context, productID string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.Product")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap != nil {
		for i := range snap.Products {
			if snap.Products[i].ID == productID {
				return &snap.Products[i], nil
			}
		}
	}

	if cached, ok := s.detail.Get("product:" + productID); ok {
		s.metrics.IncrCacheHit("product")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("product")

	product, err := s.fetcher.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.detail.Set("product:"+productID, product)
	return product, nil
}

// Combo returns a combo from the snapshot.
func (s *CatalogService) Combo(ctx context.Context, comboID string) (*domain.Combo, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for i := range snap.Combos {
		if snap.Combos[i].ID == comboID {
			return &snap.Combos[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "combo", ID: comboID}
}

// LastError returns the error recorded by the most recent failed refresh,
// nil after a successful one.
func (s *CatalogService) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}
