package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pastita/storefront-bfa-go/internal/domain"
	"github.com/pastita/storefront-bfa-go/internal/infra/observability"
	"github.com/pastita/storefront-bfa-go/internal/optimistic"
	"github.com/pastita/storefront-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// credentialInvalidator degrades a session to guest after an upstream 401.
// Implemented by SessionManager.
type credentialInvalidator interface {
	Invalidate(ctx context.Context, sess *Session)
}

// CartService keeps the two cart collections (product lines, combo lines) in
// sync with the server cart. Mutations apply locally first; the server result
// either confirms them with an authoritative refresh or rolls them back.
type CartService struct {
	gateway  port.CartGateway
	catalog  *CatalogService
	kv       port.KeyValue
	feedback port.Feedback
	sessions credentialInvalidator
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewCartService creates the service.
func NewCartService(gateway port.CartGateway, catalog *CatalogService, kv port.KeyValue, feedback port.Feedback, sessions credentialInvalidator, metrics *observability.Metrics, logger *zap.Logger) *CartService {
	return &CartService{
		gateway:  gateway,
		catalog:  catalog,
		kv:       kv,
		feedback: feedback,
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}
}

func cartKey(sessionID string) string { return "session:" + sessionID + ":cart" }

// placeholderID builds a local line identity. Placeholders are never sent
// upstream as update or delete targets.
func placeholderID() string { return "tmp_" + uuid.NewString() }

// Get assembles the visible cart with decimal totals.
func (s *CartService) Get(sess *Session) *domain.Cart {
	lines := sess.Cart.Items()
	combos := sess.CartCombos.Items()
	subtotal := domain.LinesTotal(lines).Add(domain.LinesTotal(combos))
	return &domain.Cart{
		Lines:      lines,
		ComboLines: combos,
		Subtotal:   subtotal,
		Total:      subtotal,
	}
}

// Count returns the total item quantity across both collections.
func (s *CartService) Count(sess *Session) int {
	return domain.LinesCount(sess.Cart.Items()) + domain.LinesCount(sess.CartCombos.Items())
}

// AddProduct adds quantity of a product, merging into an existing line for
// the same product. The unit price is the catalog price at add time and is
// never revised locally afterwards.
func (s *CartService) AddProduct(ctx context.Context, sess *Session, productID string, quantity int, options map[string]any, notes string) error {
	ctx, span := tracer.Start(ctx, "CartService.AddProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID), attribute.Int("quantity", quantity))

	if quantity < 1 {
		return &domain.ErrValidation{Field: "quantity", Message: "quantity must be at least 1"}
	}
	product, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return fmt.Errorf("resolve product %s: %w", productID, err)
	}

	s.feedback.Impact(port.HapticMedium)

	apply := func(lines []domain.CartLine) []domain.CartLine {
		for i := range lines {
			if lines[i].RefID == productID {
				lines[i].Quantity += quantity
				return lines
			}
		}
		return append(lines, domain.CartLine{
			LineID:      placeholderID(),
			Placeholder: true,
			Kind:        domain.LineProduct,
			RefID:       productID,
			Name:        product.Name,
			UnitPrice:   product.Price,
			Quantity:    quantity,
			ImageURL:    product.MainImageURL,
			Notes:       notes,
			Options:     options,
		})
	}
	remote := func(ctx context.Context) error {
		return s.gateway.AddProduct(ctx, sess.Credential(), productID, quantity, options, notes)
	}

	return s.mutate(ctx, sess, sess.Cart, "cart", apply, remote)
}

// AddCombo adds quantity of a combo to the combo collection.
func (s *CartService) AddCombo(ctx context.Context, sess *Session, comboID string, quantity int, customizations map[string]any, notes string) error {
	ctx, span := tracer.Start(ctx, "CartService.AddCombo")
	defer span.End()
	span.SetAttributes(attribute.String("combo.id", comboID), attribute.Int("quantity", quantity))

	if quantity < 1 {
		return &domain.ErrValidation{Field: "quantity", Message: "quantity must be at least 1"}
	}
	combo, err := s.catalog.Combo(ctx, comboID)
	if err != nil {
		return fmt.Errorf("resolve combo %s: %w", comboID, err)
	}

	s.feedback.Impact(port.HapticMedium)

	apply := func(lines []domain.CartLine) []domain.CartLine {
		for i := range lines {
			if lines[i].RefID == comboID {
				lines[i].Quantity += quantity
				return lines
			}
		}
		return append(lines, domain.CartLine{
			LineID:      placeholderID(),
			Placeholder: true,
			Kind:        domain.LineCombo,
			RefID:       comboID,
			Name:        combo.Name,
			UnitPrice:   combo.Price,
			Quantity:    quantity,
			ImageURL:    combo.ImageURL,
			Notes:       notes,
			Options:     customizations,
		})
	}
	remote := func(ctx context.Context) error {
		return s.gateway.AddCombo(ctx, sess.Credential(), comboID, quantity, customizations, notes)
	}

	return s.mutate(ctx, sess, sess.CartCombos, "cart_combos", apply, remote)
}

// UpdateQuantity changes a line's quantity by delta. A resulting quantity
// below 1 removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, sess *Session, lineID string, delta int) error {
	line, _, ok := s.findLine(sess, lineID)
	if !ok {
		return &domain.ErrNotFound{Resource: "cart_item", ID: lineID}
	}
	return s.SetQuantity(ctx, sess, lineID, line.Quantity+delta)
}

// SetQuantity sets a line's quantity outright. quantity < 1 removes the line.
func (s *CartService) SetQuantity(ctx context.Context, sess *Session, lineID string, quantity int) error {
	ctx, span := tracer.Start(ctx, "CartService.SetQuantity")
	defer span.End()
	span.SetAttributes(attribute.String("line.id", lineID), attribute.Int("quantity", quantity))

	if quantity < 1 {
		return s.Remove(ctx, sess, lineID)
	}

	line, coll, ok := s.findLine(sess, lineID)
	if !ok {
		return &domain.ErrNotFound{Resource: "cart_item", ID: lineID}
	}

	s.feedback.Impact(port.HapticLight)

	apply := func(lines []domain.CartLine) []domain.CartLine {
		for i := range lines {
			if lines[i].LineID == lineID {
				lines[i].Quantity = quantity
			}
		}
		return lines
	}

	if line.Placeholder {
		// The server never saw this line; adjust it locally and let the
		// pending add's refresh reconcile.
		coll.Replace(apply(coll.Items()))
		s.persistSnapshot(ctx, sess, sess.Cart.Items(), sess.CartCombos.Items())
		return nil
	}

	remote := func(ctx context.Context) error {
		return s.gateway.UpdateItem(ctx, sess.Credential(), lineID, quantity)
	}
	return s.mutate(ctx, sess, coll, collName(sess, coll), apply, remote)
}

// Remove deletes a line from the cart.
func (s *CartService) Remove(ctx context.Context, sess *Session, lineID string) error {
	ctx, span := tracer.Start(ctx, "CartService.Remove")
	defer span.End()
	span.SetAttributes(attribute.String("line.id", lineID))

	line, coll, ok := s.findLine(sess, lineID)
	if !ok {
		return &domain.ErrNotFound{Resource: "cart_item", ID: lineID}
	}

	s.feedback.Impact(port.HapticLight)

	apply := func(lines []domain.CartLine) []domain.CartLine {
		kept := lines[:0]
		for _, l := range lines {
			if l.LineID != lineID {
				kept = append(kept, l)
			}
		}
		return kept
	}

	if line.Placeholder {
		coll.Replace(apply(coll.Items()))
		s.persistSnapshot(ctx, sess, sess.Cart.Items(), sess.CartCombos.Items())
		return nil
	}

	remote := func(ctx context.Context) error {
		return s.gateway.RemoveItem(ctx, sess.Credential(), lineID)
	}
	return s.mutate(ctx, sess, coll, collName(sess, coll), apply, remote)
}

// Clear empties the cart server-first: no optimistic step, both collections
// are emptied only after the server confirms.
func (s *CartService) Clear(ctx context.Context, sess *Session) error {
	ctx, span := tracer.Start(ctx, "CartService.Clear")
	defer span.End()

	if err := s.gateway.ClearCart(ctx, sess.Credential()); err != nil {
		s.invalidateOn401(ctx, sess, err)
		return err
	}

	sess.Cart.Replace(nil)
	sess.CartCombos.Replace(nil)
	s.persistSnapshot(ctx, sess, nil, nil)
	s.feedback.Impact(port.HapticLight)
	return nil
}

// Sync replaces both collections with the server cart and persists the
// snapshot.
func (s *CartService) Sync(ctx context.Context, sess *Session) error {
	ctx, span := tracer.Start(ctx, "CartService.Sync")
	defer span.End()

	cart, err := s.gateway.GetCart(ctx, sess.Credential())
	if err != nil {
		s.invalidateOn401(ctx, sess, err)
		return err
	}
	sess.Cart.Replace(cart.Lines)
	sess.CartCombos.Replace(cart.ComboLines)
	s.persistSnapshot(ctx, sess, cart.Lines, cart.ComboLines)
	return nil
}

// LoadSnapshot seeds the collections from the durable cache, used at
// bootstrap before the server is consulted. Missing or corrupt snapshots are
// ignored.
func (s *CartService) LoadSnapshot(ctx context.Context, sess *Session) {
	var snap domain.CartSnapshot
	found, err := s.kv.Get(ctx, cartKey(sess.ID), &snap)
	if err != nil {
		s.logger.Warn("cart: snapshot load failed", zap.String("session_id", sess.ID), zap.Error(err))
		return
	}
	if !found {
		return
	}
	sess.Cart.Replace(snap.Lines)
	sess.CartCombos.Replace(snap.ComboLines)
}

// mutate runs one optimistic mutation and records its outcome.
func (s *CartService) mutate(ctx context.Context, sess *Session, coll *optimistic.Collection[domain.CartLine], name string, apply func([]domain.CartLine) []domain.CartLine, remote optimistic.Remote) error {
	outcome, err := coll.Mutate(ctx, apply, remote, s.refresh(sess, coll))
	s.metrics.IncrMutation(name, string(outcome))
	if err != nil {
		s.invalidateOn401(ctx, sess, err)
		return err
	}
	return nil
}

// refresh builds the authoritative re-read for one collection. The sibling
// collection is updated as a side effect since the server returns the whole
// cart, and the snapshot is persisted.
func (s *CartService) refresh(sess *Session, coll *optimistic.Collection[domain.CartLine]) optimistic.Refresh[domain.CartLine] {
	return func(ctx context.Context) ([]domain.CartLine, error) {
		cart, err := s.gateway.GetCart(ctx, sess.Credential())
		if err != nil {
			return nil, err
		}
		mine, other := cart.Lines, cart.ComboLines
		sibling := sess.CartCombos
		if coll == sess.CartCombos {
			mine, other = cart.ComboLines, cart.Lines
			sibling = sess.Cart
		}
		sibling.Replace(other)
		s.persistSnapshot(ctx, sess, cart.Lines, cart.ComboLines)
		return mine, nil
	}
}

func collName(sess *Session, coll *optimistic.Collection[domain.CartLine]) string {
	if coll == sess.CartCombos {
		return "cart_combos"
	}
	return "cart"
}

func (s *CartService) findLine(sess *Session, lineID string) (domain.CartLine, *optimistic.Collection[domain.CartLine], bool) {
	for _, l := range sess.Cart.Items() {
		if l.LineID == lineID {
			return l, sess.Cart, true
		}
	}
	for _, l := range sess.CartCombos.Items() {
		if l.LineID == lineID {
			return l, sess.CartCombos, true
		}
	}
	return domain.CartLine{}, nil, false
}

func (s *CartService) persistSnapshot(ctx context.Context, sess *Session, lines, combos []domain.CartLine) {
	snap := domain.CartSnapshot{Lines: lines, ComboLines: combos}
	if err := s.kv.Set(ctx, cartKey(sess.ID), snap); err != nil {
		s.logger.Warn("cart: snapshot persist failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

func (s *CartService) dropSnapshot(ctx context.Context, sess *Session) {
	if err := s.kv.Delete(ctx, cartKey(sess.ID)); err != nil {
		s.logger.Warn("cart: snapshot delete failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

func (s *CartService) invalidateOn401(ctx context.Context, sess *Session, err error) {
	var unauthorized *domain.ErrUnauthorized
	if errors.As(err, &unauthorized) {
		s.sessions.Invalidate(ctx, sess)
	}
}
