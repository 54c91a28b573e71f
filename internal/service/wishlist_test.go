package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pastita/storefront-bfa-go/internal/domain"
)

func TestWishlistToggle_AddsThenRemoves(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	added, err := env.wishlist.Toggle(ctx, env.sess, "p2")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !added {
		t.Fatal("expected toggle to add")
	}
	if !env.wishlist.IsInWishlist(env.sess, "p2") {
		t.Fatal("expected p2 in wishlist")
	}

	added, err = env.wishlist.Toggle(ctx, env.sess, "p2")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if added {
		t.Fatal("expected toggle to remove")
	}
	if env.wishlist.IsInWishlist(env.sess, "p2") {
		t.Fatal("expected p2 removed from wishlist")
	}
}

func TestWishlistAdd_SetSemantics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.wishlist.Add(ctx, env.sess, "p1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := env.wishlist.Add(ctx, env.sess, "p1"); err != nil {
		t.Fatalf("second add: %v", err)
	}

	if got := len(env.wishlist.Items(env.sess)); got != 1 {
		t.Errorf("expected one entry per product, got %d", got)
	}
	if env.wishlistGW.adds != 1 {
		t.Errorf("duplicate add must not reach the gateway, got %d adds", env.wishlistGW.adds)
	}
}

func TestWishlistToggle_RollbackRestoresSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Seed a confirmed entry for p1.
	env.wishlistGW.entries = []domain.WishlistEntry{
		{ID: "srv_p1", Product: domain.Product{ID: "p1", Name: "Ravioli de Queijo"}},
	}
	if err := env.wishlist.Sync(ctx, env.sess); err != nil {
		t.Fatalf("sync: %v", err)
	}

	env.wishlistGW.mutErr = &domain.ErrUpstream{Endpoint: "wishlist", Err: errors.New("down")}

	// Failed add of p2: the optimistic entry must vanish, p1 must survive.
	if _, err := env.wishlist.Toggle(ctx, env.sess, "p2"); err == nil {
		t.Fatal("expected remote failure to surface")
	}
	items := env.wishlist.Items(env.sess)
	if len(items) != 1 || items[0].Product.ID != "p1" {
		t.Errorf("expected snapshot restored to [p1], got %+v", items)
	}

	// Failed remove of p1: the entry must come back.
	if _, err := env.wishlist.Toggle(ctx, env.sess, "p1"); err == nil {
		t.Fatal("expected remote failure to surface")
	}
	if !env.wishlist.IsInWishlist(env.sess, "p1") {
		t.Error("expected p1 restored after failed remove")
	}
}

func TestWishlistRemove_AbsentProductIsNoop(t *testing.T) {
	env := newTestEnv(t)

	if err := env.wishlist.Remove(context.Background(), env.sess, "p9"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if env.wishlistGW.removes != 0 {
		t.Error("removing an absent product must not reach the gateway")
	}
}

func TestWishlistMembership_DerivedDuringInFlightMutation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Membership flips immediately on the optimistic step even though the
	// remote confirmation has not happened yet (mutErr keeps server empty).
	env.wishlistGW.mutErr = &domain.ErrUpstream{Endpoint: "wishlist", Err: errors.New("down")}
	_, _ = env.wishlist.Toggle(ctx, env.sess, "p3")

	// After the rollback it is gone again; the membership check never had a
	// separate index to fall out of sync.
	if env.wishlist.IsInWishlist(env.sess, "p3") {
		t.Error("membership must reflect the visible list after rollback")
	}
}
