package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pastita/storefront-bfa-go/internal/domain"
	"github.com/pastita/storefront-bfa-go/internal/infra/observability"
	"github.com/pastita/storefront-bfa-go/internal/optimistic"
	"github.com/pastita/storefront-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// WishlistService keeps the wishlist collection in sync with the server.
// The list has set semantics keyed by product ID: at most one entry per
// product, and membership is always derived from the visible list.
type WishlistService struct {
	gateway  port.WishlistGateway
	catalog  *CatalogService
	kv       port.KeyValue
	feedback port.Feedback
	sessions credentialInvalidator
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewWishlistService creates the service.
func NewWishlistService(gateway port.WishlistGateway, catalog *CatalogService, kv port.KeyValue, feedback port.Feedback, sessions credentialInvalidator, metrics *observability.Metrics, logger *zap.Logger) *WishlistService {
	return &WishlistService{
		gateway:  gateway,
		catalog:  catalog,
		kv:       kv,
		feedback: feedback,
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}
}

func wishlistKey(sessionID string) string { return "session:" + sessionID + ":wishlist" }

// Items returns the visible wishlist.
func (s *WishlistService) Items(sess *Session) []domain.WishlistEntry {
	return sess.Wishlist.Items()
}

// IsInWishlist reports membership, derived from the visible list so it can
// never lag behind an optimistic mutation.
func (s *WishlistService) IsInWishlist(sess *Session, productID string) bool {
	for _, e := range sess.Wishlist.Items() {
		if e.Product.ID == productID {
			return true
		}
	}
	return false
}

// Add saves a product. Adding a product already present is a no-op.
func (s *WishlistService) Add(ctx context.Context, sess *Session, productID string) error {
	ctx, span := tracer.Start(ctx, "WishlistService.Add")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	if s.IsInWishlist(sess, productID) {
		return nil
	}
	return s.add(ctx, sess, productID)
}

// Remove drops a product from the wishlist. Removing an absent product is a
// no-op.
func (s *WishlistService) Remove(ctx context.Context, sess *Session, productID string) error {
	ctx, span := tracer.Start(ctx, "WishlistService.Remove")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	if !s.IsInWishlist(sess, productID) {
		return nil
	}
	return s.remove(ctx, sess, productID)
}

// Toggle flips membership based on the currently visible list. The upstream
// has a dedicated toggle endpoint; the authoritative refresh reconciles any
// disagreement about which way it flipped.
func (s *WishlistService) Toggle(ctx context.Context, sess *Session, productID string) (added bool, err error) {
	ctx, span := tracer.Start(ctx, "WishlistService.Toggle")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	remote := func(ctx context.Context) error {
		return s.gateway.ToggleWishlist(ctx, sess.Credential(), productID)
	}

	if s.IsInWishlist(sess, productID) {
		s.feedback.Impact(port.HapticSelection)
		return false, s.mutate(ctx, sess, removeEntry(productID), remote)
	}

	apply, err := s.addEntry(ctx, productID)
	if err != nil {
		return false, err
	}
	s.feedback.Impact(port.HapticSelection)
	return true, s.mutate(ctx, sess, apply, remote)
}

func (s *WishlistService) add(ctx context.Context, sess *Session, productID string) error {
	apply, err := s.addEntry(ctx, productID)
	if err != nil {
		return err
	}

	s.feedback.Impact(port.HapticSelection)

	remote := func(ctx context.Context) error {
		return s.gateway.AddToWishlist(ctx, sess.Credential(), productID)
	}
	return s.mutate(ctx, sess, apply, remote)
}

func (s *WishlistService) remove(ctx context.Context, sess *Session, productID string) error {
	s.feedback.Impact(port.HapticSelection)

	remote := func(ctx context.Context) error {
		return s.gateway.RemoveFromWishlist(ctx, sess.Credential(), productID)
	}
	return s.mutate(ctx, sess, removeEntry(productID), remote)
}

// addEntry resolves the product and builds the optimistic append step.
func (s *WishlistService) addEntry(ctx context.Context, productID string) (func([]domain.WishlistEntry) []domain.WishlistEntry, error) {
	product, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("resolve product %s: %w", productID, err)
	}
	return func(entries []domain.WishlistEntry) []domain.WishlistEntry {
		for _, e := range entries {
			if e.Product.ID == productID {
				return entries
			}
		}
		return append(entries, domain.WishlistEntry{
			ID:          placeholderID(),
			Placeholder: true,
			Product:     *product,
			AddedAt:     time.Now(),
		})
	}, nil
}

// removeEntry builds the optimistic filter step.
func removeEntry(productID string) func([]domain.WishlistEntry) []domain.WishlistEntry {
	return func(entries []domain.WishlistEntry) []domain.WishlistEntry {
		kept := entries[:0]
		for _, e := range entries {
			if e.Product.ID != productID {
				kept = append(kept, e)
			}
		}
		return kept
	}
}

// Sync replaces the collection with the server wishlist.
func (s *WishlistService) Sync(ctx context.Context, sess *Session) error {
	ctx, span := tracer.Start(ctx, "WishlistService.Sync")
	defer span.End()

	entries, err := s.gateway.GetWishlist(ctx, sess.Credential())
	if err != nil {
		s.invalidateOn401(ctx, sess, err)
		return err
	}
	sess.Wishlist.Replace(entries)
	s.persistSnapshot(ctx, sess, entries)
	return nil
}

// LoadSnapshot seeds the collection from the durable cache at bootstrap.
func (s *WishlistService) LoadSnapshot(ctx context.Context, sess *Session) {
	var entries []domain.WishlistEntry
	found, err := s.kv.Get(ctx, wishlistKey(sess.ID), &entries)
	if err != nil {
		s.logger.Warn("wishlist: snapshot load failed", zap.String("session_id", sess.ID), zap.Error(err))
		return
	}
	if !found {
		return
	}
	sess.Wishlist.Replace(entries)
}

func (s *WishlistService) mutate(ctx context.Context, sess *Session, apply func([]domain.WishlistEntry) []domain.WishlistEntry, remote optimistic.Remote) error {
	refresh := func(ctx context.Context) ([]domain.WishlistEntry, error) {
		entries, err := s.gateway.GetWishlist(ctx, sess.Credential())
		if err != nil {
			return nil, err
		}
		s.persistSnapshot(ctx, sess, entries)
		return entries, nil
	}

	outcome, err := sess.Wishlist.Mutate(ctx, apply, remote, refresh)
	s.metrics.IncrMutation("wishlist", string(outcome))
	if err != nil {
		s.invalidateOn401(ctx, sess, err)
		return err
	}
	return nil
}

func (s *WishlistService) persistSnapshot(ctx context.Context, sess *Session, entries []domain.WishlistEntry) {
	if entries == nil {
		entries = []domain.WishlistEntry{}
	}
	if err := s.kv.Set(ctx, wishlistKey(sess.ID), entries); err != nil {
		s.logger.Warn("wishlist: snapshot persist failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

func (s *WishlistService) dropSnapshot(ctx context.Context, sess *Session) {
	if err := s.kv.Delete(ctx, wishlistKey(sess.ID)); err != nil {
		s.logger.Warn("wishlist: snapshot delete failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

func (s *WishlistService) invalidateOn401(ctx context.Context, sess *Session, err error) {
	var unauthorized *domain.ErrUnauthorized
	if errors.As(err, &unauthorized) {
		s.sessions.Invalidate(ctx, sess)
	}
}
