package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pastita/storefront-bfa-go/internal/domain"
	"github.com/pastita/storefront-bfa-go/internal/infra/localstore"
	"github.com/pastita/storefront-bfa-go/internal/infra/observability"
	"github.com/pastita/storefront-bfa-go/internal/service"

	"go.uber.org/zap"
)

type testEnv struct {
	manager  *service.SessionManager
	cart     *service.CartService
	wishlist *service.WishlistService
	catalog  *service.CatalogService
	sess     *service.Session

	cartGW     *mockCartGateway
	wishlistGW *mockWishlistGateway
	authGW     *mockAuthGateway
	feedback   *mockFeedback
	kv         *localstore.Memory
	metrics    *observability.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	kv := localstore.NewMemory()

	cartGW := &mockCartGateway{cart: &domain.Cart{}}
	wishlistGW := &mockWishlistGateway{}
	authGW := &mockAuthGateway{}
	feedback := &mockFeedback{}

	catalog := service.NewCatalogService(&mockCatalogFetcher{catalog: testCatalog()}, time.Hour, time.Hour, metrics, logger)
	manager := service.NewSessionManager(authGW, kv, "test-secret", time.Hour, metrics, logger)
	cart := service.NewCartService(cartGW, catalog, kv, feedback, manager, metrics, logger)
	wishlist := service.NewWishlistService(wishlistGW, catalog, kv, feedback, manager, metrics, logger)
	manager.SetSyncTargets(cart, wishlist)

	sess, _, err := manager.Create(context.Background())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	return &testEnv{
		manager:  manager,
		cart:     cart,
		wishlist: wishlist,
		catalog:  catalog,
		sess:     sess,
		cartGW:   cartGW,
		wishlistGW: wishlistGW,
		authGW:   authGW,
		feedback: feedback,
		kv:       kv,
		metrics:  metrics,
	}
}

func TestAddProduct_CommitReplacesWithServerCart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Server confirms the add with its own line identity.
	env.cartGW.cart = &domain.Cart{
		Lines: []domain.CartLine{
			{LineID: "ci-1", Kind: domain.LineProduct, RefID: "p1", Name: "Ravioli de Queijo", UnitPrice: price("25.00"), Quantity: 2},
		},
	}

	if err := env.cart.AddProduct(ctx, env.sess, "p1", 2, nil, ""); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart := env.cart.Get(env.sess)
	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	line := cart.Lines[0]
	if line.LineID != "ci-1" {
		t.Errorf("expected server line id, got %s", line.LineID)
	}
	if line.Placeholder {
		t.Error("authoritative line must not be a placeholder")
	}
	if cart.Subtotal.StringFixed(2) != "50.00" {
		t.Errorf("expected subtotal 50.00, got %s", cart.Subtotal.StringFixed(2))
	}
}

func TestAddProduct_RollbackRestoresPreviousState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.cartGW.addErr = &domain.ErrUpstream{Endpoint: "cart", Err: errors.New("boom")}

	err := env.cart.AddProduct(ctx, env.sess, "p1", 2, nil, "")
	if err == nil {
		t.Fatal("expected remote error to surface")
	}
	if got := env.cart.Get(env.sess); len(got.Lines) != 0 {
		t.Errorf("expected empty cart after rollback, got %d lines", len(got.Lines))
	}
	if env.cartGW.gets != 0 {
		t.Errorf("failed mutation must not trigger a refresh, got %d gets", env.cartGW.gets)
	}
}

func TestAddProduct_MergesByProductID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Seed an existing server line for p1.
	env.sess.Cart.Replace([]domain.CartLine{
		{LineID: "ci-1", Kind: domain.LineProduct, RefID: "p1", Name: "Ravioli de Queijo", UnitPrice: price("25.00"), Quantity: 1},
	})
	// Break the refresh so the optimistic state stays visible for assertion.
	env.cartGW.getErr = &domain.ErrUpstream{Endpoint: "cart", Err: errors.New("down")}

	if err := env.cart.AddProduct(ctx, env.sess, "p1", 2, nil, ""); err != nil {
		t.Fatalf("add: %v", err)
	}

	lines := env.cart.Get(env.sess).Lines
	if len(lines) != 1 {
		t.Fatalf("expected merged single line, got %d", len(lines))
	}
	if lines[0].Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", lines[0].Quantity)
	}
	if lines[0].UnitPrice.StringFixed(2) != "25.00" {
		t.Errorf("unit price must stay at add-time value, got %s", lines[0].UnitPrice.StringFixed(2))
	}
}

func TestAddProduct_UnknownQuantityRejected(t *testing.T) {
	env := newTestEnv(t)

	err := env.cart.AddProduct(context.Background(), env.sess, "p1", 0, nil, "")
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if env.cartGW.adds != 0 {
		t.Error("invalid add must not reach the gateway")
	}
}

func TestSetQuantity_FloorRemovesLine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.sess.Cart.Replace([]domain.CartLine{
		{LineID: "ci-1", Kind: domain.LineProduct, RefID: "p1", UnitPrice: price("25.00"), Quantity: 1},
	})
	env.cartGW.cart = &domain.Cart{}

	if err := env.cart.SetQuantity(ctx, env.sess, "ci-1", 0); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if env.cartGW.removes != 1 {
		t.Errorf("expected a remove call, got %d", env.cartGW.removes)
	}
	if env.cartGW.updates != 0 {
		t.Errorf("expected no update call, got %d", env.cartGW.updates)
	}
	if got := env.cart.Get(env.sess); len(got.Lines) != 0 {
		t.Errorf("expected empty cart, got %d lines", len(got.Lines))
	}
}

func TestSetQuantity_PlaceholderNeverSentUpstream(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.sess.Cart.Replace([]domain.CartLine{
		{LineID: "tmp_abc", Placeholder: true, Kind: domain.LineProduct, RefID: "p1", UnitPrice: price("25.00"), Quantity: 1},
	})

	if err := env.cart.SetQuantity(ctx, env.sess, "tmp_abc", 4); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if env.cartGW.updates != 0 || env.cartGW.removes != 0 {
		t.Error("placeholder line ids must never be sent upstream")
	}
	if got := env.cart.Get(env.sess).Lines[0].Quantity; got != 4 {
		t.Errorf("expected local quantity 4, got %d", got)
	}
}

func TestRemove_PlaceholderRemovedLocally(t *testing.T) {
	env := newTestEnv(t)

	env.sess.Cart.Replace([]domain.CartLine{
		{LineID: "tmp_abc", Placeholder: true, Kind: domain.LineProduct, RefID: "p1", Quantity: 1},
	})

	if err := env.cart.Remove(context.Background(), env.sess, "tmp_abc"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if env.cartGW.removes != 0 {
		t.Error("placeholder removal must not reach the gateway")
	}
	if got := env.cart.Get(env.sess); len(got.Lines) != 0 {
		t.Errorf("expected empty cart, got %d lines", len(got.Lines))
	}
}

func TestClear_ServerFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.sess.Cart.Replace([]domain.CartLine{
		{LineID: "ci-1", Kind: domain.LineProduct, RefID: "p1", UnitPrice: price("25.00"), Quantity: 2},
	})
	env.cartGW.clrErr = &domain.ErrUpstream{Endpoint: "cart", Err: errors.New("down")}

	if err := env.cart.Clear(ctx, env.sess); err == nil {
		t.Fatal("expected clear failure to surface")
	}
	// No optimistic step: the lines survive a failed clear.
	if got := env.cart.Get(env.sess); len(got.Lines) != 1 {
		t.Errorf("failed clear must leave the cart intact, got %d lines", len(got.Lines))
	}

	env.cartGW.clrErr = nil
	if err := env.cart.Clear(ctx, env.sess); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := env.cart.Get(env.sess); len(got.Lines) != 0 {
		t.Errorf("expected empty cart after clear, got %d lines", len(got.Lines))
	}
}

func TestAddCombo_GoesToComboCollection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.cartGW.cart = &domain.Cart{
		ComboLines: []domain.CartLine{
			{LineID: "ci-9", Kind: domain.LineCombo, RefID: "k1", Name: "Combo Familia", UnitPrice: price("89.90"), Quantity: 1},
		},
	}

	if err := env.cart.AddCombo(ctx, env.sess, "k1", 1, nil, ""); err != nil {
		t.Fatalf("add combo: %v", err)
	}

	cart := env.cart.Get(env.sess)
	if len(cart.ComboLines) != 1 {
		t.Fatalf("expected 1 combo line, got %d", len(cart.ComboLines))
	}
	if len(cart.Lines) != 0 {
		t.Errorf("combo must not land in the product collection")
	}
	if cart.Subtotal.StringFixed(2) != "89.90" {
		t.Errorf("expected subtotal 89.90, got %s", cart.Subtotal.StringFixed(2))
	}
}

func TestSync_PersistsSnapshotToKV(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.cartGW.cart = &domain.Cart{
		Lines: []domain.CartLine{
			{LineID: "ci-1", Kind: domain.LineProduct, RefID: "p1", UnitPrice: price("25.00"), Quantity: 2},
		},
	}
	if err := env.cart.Sync(ctx, env.sess); err != nil {
		t.Fatalf("sync: %v", err)
	}

	var snap domain.CartSnapshot
	found, err := env.kv.Get(ctx, "session:"+env.sess.ID+":cart", &snap)
	if err != nil || !found {
		t.Fatalf("expected persisted snapshot, found=%v err=%v", found, err)
	}
	if len(snap.Lines) != 1 || snap.Lines[0].LineID != "ci-1" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	// A fresh session for the same id seeds from the snapshot.
	env.sess.Cart.Replace(nil)
	env.cart.LoadSnapshot(ctx, env.sess)
	if got := env.cart.Get(env.sess); len(got.Lines) != 1 {
		t.Errorf("expected snapshot-seeded cart, got %d lines", len(got.Lines))
	}
}

func TestCartMutation_401InvalidatesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Sign the session in first.
	env.authGW.login = &domain.Login{Token: "cred-1", User: domain.User{ID: "u1", Email: "a@b.c"}}
	if _, err := env.manager.SignIn(ctx, env.sess, "a@b.c", "pw"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	env.cartGW.addErr = &domain.ErrUnauthorized{Message: "Invalid token."}

	if err := env.cart.AddProduct(ctx, env.sess, "p1", 1, nil, ""); err == nil {
		t.Fatal("expected error")
	}
	if env.sess.IsAuthenticated() {
		t.Error("a 401 from any authenticated call must clear the identity")
	}
	if env.sess.Credential() != "" {
		t.Error("credential must be cleared")
	}
}

func TestAddProduct_EmitsFeedback(t *testing.T) {
	env := newTestEnv(t)

	env.cartGW.addErr = &domain.ErrUpstream{Endpoint: "cart", Err: errors.New("down")}
	_ = env.cart.AddProduct(context.Background(), env.sess, "p1", 1, nil, "")

	// Feedback fires on the local step, independent of remote success.
	if env.feedback.count() != 1 {
		t.Errorf("expected 1 feedback event, got %d", env.feedback.count())
	}
}
