package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pastita/storefront-bfa-go/internal/domain"
	"github.com/pastita/storefront-bfa-go/internal/infra/observability"
	"github.com/pastita/storefront-bfa-go/internal/service"

	"go.uber.org/zap"
)

func newCatalogService(fetcher *mockCatalogFetcher, ttl time.Duration) *service.CatalogService {
	return service.NewCatalogService(fetcher, ttl, time.Hour, observability.NewMetrics(), zap.NewNop())
}

func TestCatalogRefresh_DerivesViews(t *testing.T) {
	svc := newCatalogService(&mockCatalogFetcher{catalog: testCatalog()}, time.Hour)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	snap, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.FeaturedProducts) != 1 || snap.FeaturedProducts[0].ID != "p1" {
		t.Errorf("expected derived featured list [p1], got %+v", snap.FeaturedProducts)
	}
	if got := len(snap.ProductsByCategory["c1"]); got != 2 {
		t.Errorf("expected 2 products in c1, got %d", got)
	}
}

func TestCatalogRefresh_FailureKeepsOldSnapshot(t *testing.T) {
	fetcher := &mockCatalogFetcher{catalog: testCatalog()}
	svc := newCatalogService(fetcher, time.Hour)
	ctx := context.Background()

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	fetcher.catalogErr = &domain.ErrUpstream{Endpoint: "catalog", Err: errors.New("down")}
	if err := svc.Refresh(ctx); err == nil {
		t.Fatal("expected refresh failure")
	}

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot after failed refresh: %v", err)
	}
	if len(snap.Products) != 3 {
		t.Errorf("old snapshot must stay visible, got %d products", len(snap.Products))
	}
	if svc.LastError() == nil {
		t.Error("expected the failure to be observable via LastError")
	}
}

func TestCatalogRefresh_SuccessClearsLastError(t *testing.T) {
	fetcher := &mockCatalogFetcher{catalog: testCatalog()}
	svc := newCatalogService(fetcher, time.Hour)
	ctx := context.Background()

	fetcher.catalogErr = &domain.ErrUpstream{Endpoint: "catalog", Err: errors.New("down")}
	_ = svc.Refresh(ctx)

	fetcher.catalogErr = nil
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if svc.LastError() != nil {
		t.Errorf("expected LastError cleared, got %v", svc.LastError())
	}
}

func TestCatalogRefresh_ReplacesSnapshotWholesale(t *testing.T) {
	fetcher := &mockCatalogFetcher{catalog: testCatalog()}
	svc := newCatalogService(fetcher, time.Hour)
	ctx := context.Background()

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// Second fetch returns a disjoint category/product set. After the
	// refresh every derived view must come from the new snapshot; nothing
	// from the first one may survive.
	fetcher.catalog = &domain.Catalog{
		Store: domain.Store{ID: "s1", Name: "Pastita", Slug: "pastita", IsOpen: true},
		Categories: []domain.Category{
			{ID: "c9", Name: "Sobremesas", Slug: "sobremesas", SortOrder: 1, IsActive: true},
		},
		Products: []domain.Product{
			{ID: "p9", Name: "Tiramisu", Slug: "tiramisu", Price: price("28.00"), Status: domain.ProductActive, CategoryID: "c9"},
		},
	}
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	stale, err := svc.ProductsByCategory(ctx, "c1")
	if err != nil {
		t.Fatalf("products by category: %v", err)
	}
	if len(stale) != 0 {
		t.Errorf("old category must not resolve against the new snapshot, got %+v", stale)
	}

	fresh, err := svc.ProductsByCategory(ctx, "c9")
	if err != nil {
		t.Fatalf("products by category: %v", err)
	}
	if len(fresh) != 1 || fresh[0].ID != "p9" {
		t.Errorf("expected [p9] in c9, got %+v", fresh)
	}

	if hits, err := svc.Search(ctx, "ravioli"); err != nil || len(hits) != 0 {
		t.Errorf("search must not see products from the replaced snapshot, got %+v (err %v)", hits, err)
	}
}

func TestSnapshot_ReadThroughRefreshesStale(t *testing.T) {
	fetcher := &mockCatalogFetcher{catalog: testCatalog()}
	svc := newCatalogService(fetcher, 10*time.Millisecond)
	ctx := context.Background()

	if _, err := svc.Snapshot(ctx); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	first := fetcher.calls

	time.Sleep(30 * time.Millisecond)
	if _, err := svc.Snapshot(ctx); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if fetcher.calls <= first {
		t.Error("stale snapshot must be refreshed on access")
	}
}

func TestSearch_BlankQueryIsValidationError(t *testing.T) {
	svc := newCatalogService(&mockCatalogFetcher{catalog: testCatalog()}, time.Hour)

	for _, q := range []string{"", "   ", "\t"} {
		_, err := svc.Search(context.Background(), q)
		var validation *domain.ErrValidation
		if !errors.As(err, &validation) {
			t.Errorf("query %q: expected ErrValidation, got %v", q, err)
		}
	}
}

func TestSearch_CaseInsensitiveOverNameAndDescription(t *testing.T) {
	svc := newCatalogService(&mockCatalogFetcher{catalog: testCatalog()}, time.Hour)
	ctx := context.Background()

	byName, err := svc.Search(ctx, "RAVIOLI")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(byName) != 1 || byName[0].ID != "p1" {
		t.Errorf("expected [p1] by name, got %+v", byName)
	}

	byDescription, err := svc.Search(ctx, "manjericao")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(byDescription) != 1 || byDescription[0].ID != "p3" {
		t.Errorf("expected [p3] by description, got %+v", byDescription)
	}

	none, err := svc.Search(ctx, "lasanha")
	if err != nil {
		t.Fatalf("no-match search must not error, got %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no matches, got %+v", none)
	}
}

func TestProductsByCategory_AbsentIsEmpty(t *testing.T) {
	svc := newCatalogService(&mockCatalogFetcher{catalog: testCatalog()}, time.Hour)

	products, err := svc.ProductsByCategory(context.Background(), "no-such-category")
	if err != nil {
		t.Fatalf("products by category: %v", err)
	}
	if products == nil || len(products) != 0 {
		t.Errorf("expected empty slice, got %+v", products)
	}
}

func TestProduct_ServedFromSnapshotThenDetailCache(t *testing.T) {
	fetcher := &mockCatalogFetcher{catalog: testCatalog()}
	svc := newCatalogService(fetcher, time.Hour)
	ctx := context.Background()

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// In the snapshot: no detail fetch needed.
	p, err := svc.Product(ctx, "p2")
	if err != nil {
		t.Fatalf("product: %v", err)
	}
	if p.Name != "Nhoque de Batata" {
		t.Errorf("unexpected product: %+v", p)
	}

	// Outside the snapshot: fetched once, then cached.
	fetcher.product = &domain.Product{ID: "p9", Name: "Tortellini", Price: price("22.00"), Status: domain.ProductActive}
	if _, err := svc.Product(ctx, "p9"); err != nil {
		t.Fatalf("detail product: %v", err)
	}
	fetcher.productErr = errors.New("must not be called again")
	if _, err := svc.Product(ctx, "p9"); err != nil {
		t.Errorf("expected cached detail, got %v", err)
	}
}
