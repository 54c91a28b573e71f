// Package optimistic keeps an in-memory entity list responsive to local
// mutations while the matching remote call is in flight. The same collection
// backs the cart product lines, the cart combo lines and the wishlist.
package optimistic

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Remote performs the server-side equivalent of a local mutation.
type Remote func(ctx context.Context) error

// Refresh reads the authoritative list back from the server.
type Refresh[T any] func(ctx context.Context) ([]T, error)

// Collection is one optimistically synchronized list.
//
// Every Mutate call runs its own snapshot/restore cycle. Overlapping calls on
// the same collection are sequenced by a generation counter: a rollback or an
// authoritative refresh only lands if no later mutation has replaced the
// visible list in the meantime, so a slow failure can never clobber a newer
// optimistic state.
type Collection[T any] struct {
	name   string
	logger *zap.Logger

	mu    sync.Mutex
	items []T
	gen   uint64 // bumped on every visible replacement
}

// NewCollection creates an empty collection.
func NewCollection[T any](name string, logger *zap.Logger) *Collection[T] {
	return &Collection[T]{name: name, logger: logger}
}

// Items returns a copy of the currently visible list.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Len returns the number of visible entries.
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Replace installs an externally obtained authoritative list (bootstrap from
// cache, full refresh). It supersedes any pending rollback or refresh.
func (c *Collection[T]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]T(nil), items...)
	c.gen++
}

// Outcome reports how a mutation resolved.
type Outcome string

const (
	// Committed: remote succeeded and the authoritative list is visible.
	Committed Outcome = "committed"
	// CommittedStale: remote succeeded but the refresh failed or was
	// superseded; the optimistic guess stays visible until the next sync.
	CommittedStale Outcome = "committed_stale"
	// RolledBack: remote failed and the pre-mutation list was restored.
	RolledBack Outcome = "rolled_back"
	// StaleFailure: remote failed but a later mutation already replaced the
	// list, so nothing was restored.
	StaleFailure Outcome = "stale_failure"
)

// Mutate applies fn to the visible list immediately, then runs the remote
// operation. On failure the pre-mutation snapshot is restored verbatim; on
// success the list is replaced with the authoritative refresh rather than the
// optimistic guess. The returned error is the remote error, if any; the
// caller observes only the reverted list beyond that.
func (c *Collection[T]) Mutate(ctx context.Context, apply func([]T) []T, remote Remote, refresh Refresh[T]) (Outcome, error) {
	c.mu.Lock()
	snapshot := append([]T(nil), c.items...)
	c.items = apply(append([]T(nil), c.items...))
	c.gen++
	myGen := c.gen
	c.mu.Unlock()

	if err := remote(ctx); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != myGen {
			// A newer mutation owns the visible list now.
			c.logger.Debug("optimistic: discarding stale rollback",
				zap.String("collection", c.name),
				zap.Error(err),
			)
			return StaleFailure, err
		}
		c.items = snapshot
		c.gen++
		return RolledBack, err
	}

	fresh, err := refresh(ctx)
	if err != nil {
		// Remote committed; keep the optimistic list until the next sync.
		c.logger.Warn("optimistic: authoritative refresh failed",
			zap.String("collection", c.name),
			zap.Error(err),
		)
		return CommittedStale, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != myGen {
		c.logger.Debug("optimistic: discarding superseded refresh",
			zap.String("collection", c.name),
		)
		return CommittedStale, nil
	}
	c.items = append([]T(nil), fresh...)
	c.gen++
	return Committed, nil
}
