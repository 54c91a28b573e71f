package service

import (
	"context"
	"errors"
	"strings"

	"github.com/pastita/storefront-bfa-go/internal/domain"
	"github.com/pastita/storefront-bfa-go/internal/infra/observability"
	"github.com/pastita/storefront-bfa-go/internal/port"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CheckoutService validates and submits orders and answers the checkout
// helpers (coupon validation, delivery fee).
type CheckoutService struct {
	gateway  port.CheckoutGateway
	cart     *CartService
	sessions credentialInvalidator
	validate *validator.Validate
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewCheckoutService creates the service.
func NewCheckoutService(gateway port.CheckoutGateway, cart *CartService, sessions credentialInvalidator, metrics *observability.Metrics, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		gateway:  gateway,
		cart:     cart,
		sessions: sessions,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  metrics,
		logger:   logger,
	}
}

// Submit validates the request locally, places the order upstream and clears
// the cart on success. Submission is single-shot.
func (s *CheckoutService) Submit(ctx context.Context, sess *Session, req *domain.CheckoutRequest) (*domain.OrderConfirmation, error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("checkout.delivery_method", req.DeliveryMethod))

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	if s.cart.Count(sess) == 0 {
		return nil, &domain.ErrValidation{Field: "cart", Message: "cart is empty"}
	}

	conf, err := s.gateway.SubmitOrder(ctx, sess.Credential(), req)
	if err != nil {
		var unauthorized *domain.ErrUnauthorized
		if errors.As(err, &unauthorized) {
			s.sessions.Invalidate(ctx, sess)
		}
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("session_id", sess.ID),
		zap.String("order_id", conf.OrderID),
		zap.String("order_number", conf.OrderNumber),
	)

	// The order owns the items now. A failed clear self-heals on next sync.
	if err := s.cart.Clear(ctx, sess); err != nil {
		s.logger.Warn("post-checkout cart clear failed",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
	}
	return conf, nil
}

// validateRequest maps the first validator failure to a domain validation
// error with a readable field name.
func (s *CheckoutService) validateRequest(req *domain.CheckoutRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) && len(invalid) > 0 {
		fe := invalid[0]
		return &domain.ErrValidation{
			Field:   strings.ToLower(fe.Field()),
			Message: "failed " + fe.Tag() + " validation",
		}
	}
	return &domain.ErrValidation{Field: "request", Message: err.Error()}
}

// ValidateCoupon checks a code against the current cart subtotal.
func (s *CheckoutService) ValidateCoupon(ctx context.Context, sess *Session, code string) (*domain.CouponResult, error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.ValidateCoupon")
	defer span.End()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &domain.ErrValidation{Field: "code", Message: "coupon code must not be blank"}
	}

	subtotal := s.cart.Get(sess).Subtotal
	result, err := s.gateway.ValidateCoupon(ctx, sess.Credential(), code, subtotal.StringFixed(2))
	if err != nil {
		// An invalid coupon is an expected outcome, not a failure.
		var rejected *domain.ErrRejected
		if errors.As(err, &rejected) {
			return &domain.CouponResult{Valid: false, Discount: decimal.Zero, Message: rejected.Message}, nil
		}
		return nil, err
	}
	return result, nil
}

// DeliveryFee quotes delivery cost for a zip code or distance.
func (s *CheckoutService) DeliveryFee(ctx context.Context, zipCode string, distanceKm float64) (*domain.DeliveryInfo, error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.DeliveryFee")
	defer span.End()

	if zipCode == "" && distanceKm <= 0 {
		return nil, &domain.ErrValidation{Field: "zip_code", Message: "zip code or distance is required"}
	}
	return s.gateway.DeliveryFee(ctx, zipCode, distanceKm)
}
