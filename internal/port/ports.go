// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the upstream store API client and the local persistence adapters.
package port

import (
	"context"

	"github.com/pastita/storefront-bfa-go/internal/domain"
)

// The upstream credential is always passed explicitly. An empty token means
// the call goes out unauthenticated; the upstream decides whether to accept.

// CatalogFetcher reads the full catalog snapshot and single products.
type CatalogFetcher interface {
	GetCatalog(ctx context.Context) (*domain.Catalog, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
}

// CartGateway performs cart operations against the store API.
type CartGateway interface {
	GetCart(ctx context.Context, token string) (*domain.Cart, error)
	AddProduct(ctx context.Context, token, productID string, quantity int, options map[string]any, notes string) error
	AddCombo(ctx context.Context, token, comboID string, quantity int, customizations map[string]any, notes string) error
	UpdateItem(ctx context.Context, token, cartItemID string, quantity int) error
	RemoveItem(ctx context.Context, token, cartItemID string) error
	ClearCart(ctx context.Context, token string) error
}

// WishlistGateway performs wishlist operations against the store API.
type WishlistGateway interface {
	GetWishlist(ctx context.Context, token string) ([]domain.WishlistEntry, error)
	AddToWishlist(ctx context.Context, token, productID string) error
	RemoveFromWishlist(ctx context.Context, token, productID string) error
	ToggleWishlist(ctx context.Context, token, productID string) error
}

// CheckoutGateway submits orders and checkout helpers.
type CheckoutGateway interface {
	SubmitOrder(ctx context.Context, token string, req *domain.CheckoutRequest) (*domain.OrderConfirmation, error)
	ValidateCoupon(ctx context.Context, token, code string, subtotal string) (*domain.CouponResult, error)
	DeliveryFee(ctx context.Context, zipCode string, distanceKm float64) (*domain.DeliveryInfo, error)
}

// OrderGateway reads placed orders.
type OrderGateway interface {
	ListOrders(ctx context.Context, token string) ([]domain.Order, error)
	GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error)
	GetOrderByToken(ctx context.Context, accessToken string) (*domain.Order, error)
	GetPaymentStatus(ctx context.Context, token, orderID string) (*domain.OrderPaymentStatus, error)
	GetContactLink(ctx context.Context, token, orderID string) (*domain.ContactLink, error)
}

// AuthGateway handles the upstream authentication endpoints.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (*domain.Login, error)
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.Login, error)
	Logout(ctx context.Context, token string) error
	GetProfile(ctx context.Context, token string) (*domain.User, error)
	UpdateProfile(ctx context.Context, token string, update *domain.ProfileUpdate) (*domain.User, error)
}

// KeyValue is the durable local cache. Values are overwritten wholesale per
// key; it is never authoritative and a stale generation is acceptable.
type KeyValue interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// Cache provides generic in-memory caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// HapticStyle mirrors the feedback intensities the mobile app can play.
type HapticStyle string

const (
	HapticLight     HapticStyle = "light"
	HapticMedium    HapticStyle = "medium"
	HapticSelection HapticStyle = "selection"
)

// Feedback receives a side-effect request on each successful local mutation
// step. Purely UX; never coupled to remote success.
type Feedback interface {
	Impact(style HapticStyle)
}
