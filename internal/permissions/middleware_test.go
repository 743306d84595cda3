package permissions

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aldercommerce/alder-admin/internal/shared"
)

func gateRequest(t *testing.T, mw Middleware, perm string, id *shared.Identity) *httptest.ResponseRecorder {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/gated", nil)
	if id != nil {
		req = req.WithContext(shared.ContextWithIdentity(req.Context(), *id))
	}
	rec := httptest.NewRecorder()
	mw.Require(perm)(next).ServeHTTP(rec, req)
	return rec
}

func TestRequireWithoutIdentity(t *testing.T) {
	resolver := NewResolver(&stubFetcher{}, NewCache(time.Minute), nil)
	rec := gateRequest(t, Middleware{Resolver: resolver}, PermOrdersView, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireDeniesOnResolverError(t *testing.T) {
	resolver := NewResolver(&stubFetcher{err: ErrFetchFailed}, NewCache(time.Minute), nil)
	id := testIdentity()
	rec := gateRequest(t, Middleware{Resolver: resolver}, PermOrdersView, &id)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequireAllowsOnMatch(t *testing.T) {
	fetcher := &stubFetcher{snapshot: Snapshot{Permissions: []string{"orders:view"}, Priority: PriorityViewer}}
	resolver := NewResolver(fetcher, NewCache(time.Minute), nil)
	id := testIdentity()

	rec := gateRequest(t, Middleware{Resolver: resolver}, PermOrdersView, &id)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	rec = gateRequest(t, Middleware{Resolver: resolver}, PermTaxesManage, &id)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequireOwnerBypass(t *testing.T) {
	fetcher := &stubFetcher{snapshot: Snapshot{Priority: PriorityOwner}}
	resolver := NewResolver(fetcher, NewCache(time.Minute), nil)
	id := testIdentity()

	rec := gateRequest(t, Middleware{Resolver: resolver}, PermTaxesManage, &id)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}
