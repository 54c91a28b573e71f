package service

import (
	"context"
	"errors"
	"time"

	"github.com/pastita/storefront-bfa-go/internal/domain"
	"github.com/pastita/storefront-bfa-go/internal/infra/cache"
	"github.com/pastita/storefront-bfa-go/internal/infra/observability"
	"github.com/pastita/storefront-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OrderService is the read side for placed orders. It never mutates orders;
// checkout owns creation.
type OrderService struct {
	gateway  port.OrderGateway
	detail   *cache.InMemory[*domain.Order]
	sessions credentialInvalidator
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewOrderService creates the service. detailTTL bounds the order detail
// cache; payment status is always fetched live.
func NewOrderService(gateway port.OrderGateway, detailTTL time.Duration, sessions credentialInvalidator, metrics *observability.Metrics, logger *zap.Logger) *OrderService {
	return &OrderService{
		gateway:  gateway,
		detail:   cache.New[*domain.Order](detailTTL),
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}
}

// List fetches the session user's orders.
func (s *OrderService) List(ctx context.Context, sess *Session) ([]domain.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.List")
	defer span.End()

	cred := sess.Credential()
	if cred == "" {
		return nil, &domain.ErrUnauthorized{Message: "sign in to see orders"}
	}

	orders, err := s.gateway.ListOrders(ctx, cred)
	if err != nil {
		s.invalidateOn401(ctx, sess, err)
		return nil, err
	}
	return orders, nil
}

// Get fetches one order through the detail cache.
func (s *OrderService) Get(ctx context.Context, sess *Session, orderID string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	if cached, ok := s.detail.Get("order:" + orderID); ok {
		s.metrics.IncrCacheHit("order")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("order")

	order, err := s.gateway.GetOrder(ctx, sess.Credential(), orderID)
	if err != nil {
		s.invalidateOn401(ctx, sess, err)
		return nil, err
	}
	s.detail.Set("order:"+orderID, order)
	return order, nil
}

// GetByToken fetches an order through its guest access token; no session
// credential involved.
func (s *OrderService) GetByToken(ctx context.Context, accessToken string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.GetByToken")
	defer span.End()

	if accessToken == "" {
		return nil, &domain.ErrValidation{Field: "token", Message: "access token must not be blank"}
	}
	return s.gateway.GetOrderByToken(ctx, accessToken)
}

// PaymentStatus polls the live payment state of an order, bypassing the
// detail cache.
func (s *OrderService) PaymentStatus(ctx context.Context, sess *Session, orderID string) (*domain.OrderPaymentStatus, error) {
	ctx, span := tracer.Start(ctx, "OrderService.PaymentStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	status, err := s.gateway.GetPaymentStatus(ctx, sess.Credential(), orderID)
	if err != nil {
		s.invalidateOn401(ctx, sess, err)
		return nil, err
	}
	return status, nil
}

// ContactLink fetches the messaging deep link for an order.
func (s *OrderService) ContactLink(ctx context.Context, sess *Session, orderID string) (*domain.ContactLink, error) {
	ctx, span := tracer.Start(ctx, "OrderService.ContactLink")
	defer span.End()

	link, err := s.gateway.GetContactLink(ctx, sess.Credential(), orderID)
	if err != nil {
		s.invalidateOn401(ctx, sess, err)
		return nil, err
	}
	return link, nil
}

func (s *OrderService) invalidateOn401(ctx context.Context, sess *Session, err error) {
	var unauthorized *domain.ErrUnauthorized
	if errors.As(err, &unauthorized) {
		s.sessions.Invalidate(ctx, sess)
	}
}
