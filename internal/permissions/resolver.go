package permissions

import (
	"context"
	"log/slog"

	"github.com/aldercommerce/alder-admin/internal/shared"
)

// Resolver combines the cache and the fetcher into the single entry point
// for permission checks. Concurrent misses for the same identity may each
// trigger a fetch; the fetch is an idempotent read and last write to the
// cache wins, so no in-flight deduplication happens here.
type Resolver struct {
	fetcher Fetcher
	cache   *Cache
	logger  *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(fetcher Fetcher, cache *Cache, logger *slog.Logger) *Resolver {
	return &Resolver{fetcher: fetcher, cache: cache, logger: logger}
}

// Resolve returns the permission snapshot for the identity, fetching from
// the staff-service on a cache miss. An identity without both user and
// tenant short-circuits to an empty snapshot without a network call.
func (r *Resolver) Resolve(ctx context.Context, id shared.Identity) (Snapshot, error) {
	if !id.Valid() {
		return Snapshot{UserID: id.UserID, TenantID: id.TenantID}, nil
	}
	if snap, ok := r.cache.Get(id.UserID, id.TenantID); ok {
		return snap, nil
	}
	snap, err := r.fetcher.Fetch(ctx, id)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("permission fetch failed",
				slog.String("user", id.UserID),
				slog.String("tenant", id.TenantID),
				slog.Any("error", err))
		}
		return Snapshot{}, err
	}
	r.cache.Put(snap)
	return snap, nil
}

// Allowed resolves the identity and applies the matcher. A resolve failure
// propagates so the caller can distinguish denial from unavailability; both
// deny access.
func (r *Resolver) Allowed(ctx context.Context, id shared.Identity, required string) (bool, error) {
	snap, err := r.Resolve(ctx, id)
	if err != nil {
		return false, err
	}
	return snap.Allows(required), nil
}

// Refresh drops the cached snapshot and fetches a fresh one. This is the
// only retry path; failed fetches are never retried automatically.
func (r *Resolver) Refresh(ctx context.Context, id shared.Identity) (Snapshot, error) {
	r.cache.Invalidate(id.UserID, id.TenantID)
	return r.Resolve(ctx, id)
}

// Forget clears cached state for the identity without fetching. Called on
// logout and tenant switch.
func (r *Resolver) Forget(id shared.Identity) {
	if id.TenantID == "" {
		r.cache.InvalidateUser(id.UserID)
		return
	}
	r.cache.Invalidate(id.UserID, id.TenantID)
}
