package storeapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pastita/storefront-bfa-go/internal/domain"
	"github.com/pastita/storefront-bfa-go/internal/infra/resilience"
	"github.com/pastita/storefront-bfa-go/internal/infra/storeapi"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*storeapi.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond, MaxConcurrency: 5}
	client := storeapi.NewClient(
		srv.Client(),
		srv.URL,
		"pastita",
		resilience.NewCircuitBreaker("test"),
		cfg,
		zap.NewNop(),
	)
	return client, srv
}

func TestGetCatalog_DecodesSnapshot(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stores/s/pastita/catalog/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("catalog request must not carry a credential")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"store": {"id": "s1", "name": "Pastita", "slug": "pastita", "is_open": true},
			"categories": [{"id": "c1", "name": "Massas", "slug": "massas", "sort_order": 1, "is_active": true}],
			"products": [{"id": "p1", "name": "Ravioli", "slug": "ravioli", "price": 25.00, "status": "active", "featured": true, "category_id": "c1"}],
			"combos": [],
			"featured_products": [],
			"products_by_category": {}
		}`))
	}))

	catalog, err := client.GetCatalog(context.Background())
	if err != nil {
		t.Fatalf("expected catalog, got %v", err)
	}
	if catalog.Store.Slug != "pastita" {
		t.Errorf("expected store slug pastita, got %s", catalog.Store.Slug)
	}
	if len(catalog.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(catalog.Products))
	}
	if catalog.Products[0].Price.StringFixed(2) != "25.00" {
		t.Errorf("expected price 25.00, got %s", catalog.Products[0].Price.StringFixed(2))
	}
}

func TestDoRequest_AttachesTokenHeader(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token secret-token" {
			t.Errorf("expected token header, got %q", got)
		}
		json.NewEncoder(w).Encode(domain.Cart{})
	}))

	if _, err := client.GetCart(context.Background(), "secret-token"); err != nil {
		t.Fatalf("expected cart, got %v", err)
	}
}

func TestGetCart_StampsLineKinds(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"items": [{"cart_item_id": "ci1", "id": "p1", "name": "Ravioli", "price": 25.00, "quantity": 2}],
			"combo_items": [{"cart_item_id": "ci2", "id": "k1", "name": "Combo Familia", "price": 89.90, "quantity": 1}],
			"subtotal": 139.90,
			"total": 139.90
		}`))
	}))

	cart, err := client.GetCart(context.Background(), "tok")
	if err != nil {
		t.Fatalf("expected cart, got %v", err)
	}
	if cart.Lines[0].Kind != domain.LineProduct {
		t.Errorf("expected product kind, got %s", cart.Lines[0].Kind)
	}
	if cart.ComboLines[0].Kind != domain.LineCombo {
		t.Errorf("expected combo kind, got %s", cart.ComboLines[0].Kind)
	}
}

func TestErrorMapping_Unauthorized(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Invalid token."}`))
	}))

	_, err := client.GetCart(context.Background(), "expired")
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if unauthorized.Message != "Invalid token." {
		t.Errorf("expected upstream detail, got %q", unauthorized.Message)
	}
}

func TestErrorMapping_RejectedWithFieldError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"email": ["user with this email already exists."]}`))
	}))

	_, err := client.Register(context.Background(), &domain.RegisterRequest{Email: "a@b.c", Password: "pw"})
	var rejected *domain.ErrRejected
	if !errors.As(err, &rejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if rejected.Message != "user with this email already exists." {
		t.Errorf("expected field error message, got %q", rejected.Message)
	}
}

func TestErrorMapping_NonFieldErrorsWinOverDetail(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"non_field_errors": ["Unable to log in with provided credentials."], "detail": "ignored"}`))
	}))

	_, err := client.Login(context.Background(), "a@b.c", "wrong")
	var rejected *domain.ErrRejected
	if !errors.As(err, &rejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if rejected.Message != "Unable to log in with provided credentials." {
		t.Errorf("expected non_field_errors message, got %q", rejected.Message)
	}
}

func TestErrorMapping_ServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := client.AddProduct(context.Background(), "tok", "p1", 1, nil, "")
	var upstream *domain.ErrUpstream
	if !errors.As(err, &upstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestErrorMapping_NotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.GetProduct(context.Background(), "missing")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddProduct_SendsPayload(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/stores/s/pastita/cart/add/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["product_id"] != "p1" {
			t.Errorf("expected product_id p1, got %v", payload["product_id"])
		}
		if payload["quantity"] != float64(2) {
			t.Errorf("expected quantity 2, got %v", payload["quantity"])
		}
		w.Write([]byte(`{}`))
	}))

	if err := client.AddProduct(context.Background(), "tok", "p1", 2, nil, ""); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestListOrders_HandlesBothListShapes(t *testing.T) {
	paginated := `{"count": 1, "results": [{"id": "o1", "order_number": "1001", "status": "pending"}]}`
	plain := `[{"id": "o1", "order_number": "1001", "status": "pending"}]`

	for name, body := range map[string]string{"paginated": paginated, "plain": plain} {
		t.Run(name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("store") != "pastita" {
					t.Errorf("expected store filter, got %q", r.URL.Query().Get("store"))
				}
				w.Write([]byte(body))
			}))

			orders, err := client.ListOrders(context.Background(), "tok")
			if err != nil {
				t.Fatalf("expected orders, got %v", err)
			}
			if len(orders) != 1 || orders[0].OrderNumber != "1001" {
				t.Errorf("unexpected orders: %+v", orders)
			}
		})
	}
}

func TestGetWishlist_EmptyListNotNil(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	entries, err := client.GetWishlist(context.Background(), "tok")
	if err != nil {
		t.Fatalf("expected wishlist, got %v", err)
	}
	if entries == nil {
		t.Fatal("expected empty slice, got nil")
	}
}

func TestGetWithResilience_RetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id": "p1", "name": "Ravioli", "slug": "ravioli", "price": 25.00, "status": "active"}`))
	}))
	defer srv.Close()

	cfg := resilience.Config{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxConcurrency: 5}
	client := storeapi.NewClient(srv.Client(), srv.URL, "pastita", resilience.NewCircuitBreaker("retry-test"), cfg, zap.NewNop())

	product, err := client.GetProduct(context.Background(), "p1")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if product.ID != "p1" {
		t.Errorf("expected p1, got %s", product.ID)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestGetWithResilience_DoesNotRetryRejections(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Invalid token."}`))
	}))
	defer srv.Close()

	cfg := resilience.Config{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxConcurrency: 5}
	client := storeapi.NewClient(srv.Client(), srv.URL, "pastita", resilience.NewCircuitBreaker("no-retry-test"), cfg, zap.NewNop())

	_, err := client.GetProfile(context.Background(), "expired")
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected single attempt for auth failure, got %d", attempts)
	}
}
