package handler

import (
	"net/http"
	"time"

	"github.com/pastita/storefront-bfa-go/internal/infra/observability"
	"github.com/pastita/storefront-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract defined for the storefront app.
func NewRouter(
	sessions *service.SessionManager,
	catalogSvc *service.CatalogService,
	cartSvc *service.CartService,
	wishlistSvc *service.WishlistService,
	checkoutSvc *service.CheckoutService,
	orderSvc *service.OrderService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-Token"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(catalogSvc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Session creation is the only entry point that needs no token.
		r.Post("/session", sessionCreateHandler(sessions, logger))

		// Catalog reads are public: the app browses before it has a session.
		r.Get("/catalog", catalogHandler(catalogSvc, logger))
		r.Get("/catalog/search", catalogSearchHandler(catalogSvc, logger))
		r.Get("/catalog/categories/{categoryId}/products", productsByCategoryHandler(catalogSvc, logger))
		r.Get("/products/{productId}", productHandler(catalogSvc, logger))

		// Guest order tracking needs only the order's own access token.
		r.Get("/orders/by-token/{accessToken}", orderByTokenHandler(orderSvc, logger))

		// Delivery quoting happens before checkout, session or not.
		r.Get("/checkout/delivery-fee", deliveryFeeHandler(checkoutSvc, logger))

		// Optimistic-sync health, for the app's diagnostics screen.
		r.Get("/metrics/sync", syncMetricsHandler(metrics))

		// Everything below acts on a resolved session.
		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(sessions, logger))

			r.Post("/session/bootstrap", bootstrapHandler(sessions, cartSvc, wishlistSvc, logger))

			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", authLoginHandler(sessions, logger))
				r.Post("/register", authRegisterHandler(sessions, logger))
				r.Post("/logout", authLogoutHandler(sessions, logger))
			})

			r.Get("/users/profile", getProfileHandler(logger))
			r.Patch("/users/profile", updateProfileHandler(sessions, logger))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", getCartHandler(cartSvc))
				r.Post("/items", addCartProductHandler(cartSvc, logger))
				r.Post("/combos", addCartComboHandler(cartSvc, logger))
				r.Patch("/items/{lineId}", updateCartItemHandler(cartSvc, logger))
				r.Delete("/items/{lineId}", removeCartItemHandler(cartSvc, logger))
				r.Delete("/", clearCartHandler(cartSvc, logger))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", getWishlistHandler(wishlistSvc))
				r.Post("/", addWishlistHandler(wishlistSvc, logger))
				r.Post("/toggle", toggleWishlistHandler(wishlistSvc, logger))
				r.Delete("/{productId}", removeWishlistHandler(wishlistSvc, logger))
			})

			r.Post("/checkout", checkoutHandler(checkoutSvc, logger))
			r.Post("/checkout/coupon", validateCouponHandler(checkoutSvc, logger))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", listOrdersHandler(orderSvc, logger))
				r.Get("/{orderId}", getOrderHandler(orderSvc, logger))
				r.Get("/{orderId}/payment-status", orderPaymentStatusHandler(orderSvc, logger))
				r.Get("/{orderId}/contact-link", orderContactLinkHandler(orderSvc, logger))
			})

			r.Route("/preferences", func(r chi.Router) {
				r.Put("/push-token", setPushTokenHandler(sessions, logger))
				r.Put("/promo-banner", setPromoBannerHandler(sessions, logger))
				r.Get("/", getPreferencesHandler(sessions))
			})
		})
	})

	return r
}

// ============================================================
// Health & sync metrics
// ============================================================

type serviceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LastChecked string `json:"last_checked"`
}

func healthzHandler(catalogSvc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []serviceHealth{
			{Name: "storefront-bfa", Status: "healthy", LastChecked: now},
		}

		storeStatus := "healthy"
		if catalogSvc != nil && catalogSvc.LastError() != nil {
			storeStatus = "degraded"
		}
		services = append(services, serviceHealth{Name: "store-api", Status: storeStatus, LastChecked: now})

		overall := "healthy"
		for _, s := range services {
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":   overall,
			"services": services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func syncMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetSyncSnapshot())
	}
}
