package service_test

import (
	"context"
	"sync"

	"github.com/pastita/storefront-bfa-go/internal/domain"
	"github.com/pastita/storefront-bfa-go/internal/port"

	"github.com/shopspring/decimal"
)

// --- catalog fetcher mock ---

type mockCatalogFetcher struct {
	catalog    *domain.Catalog
	catalogErr error
	product    *domain.Product
	productErr error
	calls      int
}

func (m *mockCatalogFetcher) GetCatalog(context.Context) (*domain.Catalog, error) {
	m.calls++
	if m.catalogErr != nil {
		return nil, m.catalogErr
	}
	// Copy so callers cannot share derived state across refreshes.
	c := *m.catalog
	return &c, nil
}

func (m *mockCatalogFetcher) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if m.productErr != nil {
		return nil, m.productErr
	}
	if m.product != nil {
		return m.product, nil
	}
	return nil, &domain.ErrNotFound{Resource: "product", ID: id}
}

// --- cart gateway mock ---

type mockCartGateway struct {
	mu sync.Mutex

	cart    *domain.Cart
	getErr  error
	addErr  error
	mutErr  error
	clrErr  error
	adds    int
	updates int
	removes int
	clears  int
	gets    int

	lastUpdateID  string
	lastUpdateQty int
	lastRemoveID  string
}

func (m *mockCartGateway) GetCart(context.Context, string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	c := *m.cart
	return &c, nil
}

func (m *mockCartGateway) AddProduct(_ context.Context, _, _ string, _ int, _ map[string]any, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adds++
	return m.addErr
}

func (m *mockCartGateway) AddCombo(_ context.Context, _, _ string, _ int, _ map[string]any, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adds++
	return m.addErr
}

func (m *mockCartGateway) UpdateItem(_ context.Context, _, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	m.lastUpdateID = id
	m.lastUpdateQty = qty
	return m.mutErr
}

func (m *mockCartGateway) RemoveItem(_ context.Context, _, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removes++
	m.lastRemoveID = id
	return m.mutErr
}

func (m *mockCartGateway) ClearCart(context.Context, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	return m.clrErr
}

// --- wishlist gateway mock ---

type mockWishlistGateway struct {
	mu sync.Mutex

	entries []domain.WishlistEntry
	getErr  error
	mutErr  error
	adds    int
	removes int
	toggles int
}

func (m *mockWishlistGateway) GetWishlist(context.Context, string) ([]domain.WishlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return append([]domain.WishlistEntry(nil), m.entries...), nil
}

func (m *mockWishlistGateway) AddToWishlist(_ context.Context, _, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adds++
	if m.mutErr != nil {
		return m.mutErr
	}
	m.entries = append(m.entries, domain.WishlistEntry{
		ID:      "srv_" + productID,
		Product: domain.Product{ID: productID},
	})
	return nil
}

func (m *mockWishlistGateway) RemoveFromWishlist(_ context.Context, _, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removes++
	if m.mutErr != nil {
		return m.mutErr
	}
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.Product.ID != productID {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

func (m *mockWishlistGateway) ToggleWishlist(_ context.Context, _, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toggles++
	if m.mutErr != nil {
		return m.mutErr
	}
	for i, e := range m.entries {
		if e.Product.ID == productID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	m.entries = append(m.entries, domain.WishlistEntry{
		ID:      "srv_" + productID,
		Product: domain.Product{ID: productID},
	})
	return nil
}

// --- auth gateway mock ---

type mockAuthGateway struct {
	login      *domain.Login
	loginErr   error
	registered *domain.Login
	regErr     error
	profile    *domain.User
	profileErr error
	updated    *domain.User
	updateErr  error
	logoutErr  error
	logouts    int
}

func (m *mockAuthGateway) Login(context.Context, string, string) (*domain.Login, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.login, nil
}

func (m *mockAuthGateway) Register(context.Context, *domain.RegisterRequest) (*domain.Login, error) {
	if m.regErr != nil {
		return nil, m.regErr
	}
	return m.registered, nil
}

func (m *mockAuthGateway) Logout(context.Context, string) error {
	m.logouts++
	return m.logoutErr
}

func (m *mockAuthGateway) GetProfile(context.Context, string) (*domain.User, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return m.profile, nil
}

func (m *mockAuthGateway) UpdateProfile(context.Context, string, *domain.ProfileUpdate) (*domain.User, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.updated, nil
}

// --- checkout gateway mock ---

type mockCheckoutGateway struct {
	conf      *domain.OrderConfirmation
	submitErr error
	coupon    *domain.CouponResult
	couponErr error
	fee       *domain.DeliveryInfo
	feeErr    error
	submits   int

	lastSubtotal string
}

func (m *mockCheckoutGateway) SubmitOrder(_ context.Context, _ string, _ *domain.CheckoutRequest) (*domain.OrderConfirmation, error) {
	m.submits++
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return m.conf, nil
}

func (m *mockCheckoutGateway) ValidateCoupon(_ context.Context, _, _ string, subtotal string) (*domain.CouponResult, error) {
	m.lastSubtotal = subtotal
	if m.couponErr != nil {
		return nil, m.couponErr
	}
	return m.coupon, nil
}

func (m *mockCheckoutGateway) DeliveryFee(context.Context, string, float64) (*domain.DeliveryInfo, error) {
	if m.feeErr != nil {
		return nil, m.feeErr
	}
	return m.fee, nil
}

// --- order gateway mock ---

type mockOrderGateway struct {
	orders    []domain.Order
	order     *domain.Order
	status    *domain.OrderPaymentStatus
	link      *domain.ContactLink
	err       error
	getCalls  int
	listCalls int
}

func (m *mockOrderGateway) ListOrders(context.Context, string) ([]domain.Order, error) {
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

func (m *mockOrderGateway) GetOrder(context.Context, string, string) (*domain.Order, error) {
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderGateway) GetOrderByToken(context.Context, string) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderGateway) GetPaymentStatus(context.Context, string, string) (*domain.OrderPaymentStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.status, nil
}

func (m *mockOrderGateway) GetContactLink(context.Context, string, string) (*domain.ContactLink, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.link, nil
}

// --- feedback mock ---

type mockFeedback struct {
	mu     sync.Mutex
	styles []port.HapticStyle
}

func (m *mockFeedback) Impact(style port.HapticStyle) {
	m.mu.Lock()
	m.styles = append(m.styles, style)
	m.mu.Unlock()
}

func (m *mockFeedback) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.styles)
}

// --- fixture data ---

func price(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func testCatalog() *domain.Catalog {
	return &domain.Catalog{
		Store: domain.Store{ID: "s1", Name: "Pastita", Slug: "pastita", IsOpen: true},
		Categories: []domain.Category{
			{ID: "c1", Name: "Massas", Slug: "massas", SortOrder: 1, IsActive: true},
			{ID: "c2", Name: "Molhos", Slug: "molhos", SortOrder: 2, IsActive: true},
		},
		Products: []domain.Product{
			{ID: "p1", Name: "Ravioli de Queijo", Slug: "ravioli", Description: "Ravioli artesanal", Price: price("25.00"), Status: domain.ProductActive, CategoryID: "c1", Featured: true},
			{ID: "p2", Name: "Nhoque de Batata", Slug: "nhoque", Description: "Nhoque fresco", Price: price("30.00"), Status: domain.ProductActive, CategoryID: "c1"},
			{ID: "p3", Name: "Molho Pesto", Slug: "pesto", Description: "Pesto de manjericao", Price: price("18.50"), Status: domain.ProductActive, CategoryID: "c2"},
		},
		Combos: []domain.Combo{
			{ID: "k1", Name: "Combo Familia", Slug: "combo-familia", Price: price("89.90"), IsActive: true},
		},
	}
}
