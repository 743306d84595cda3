package staff

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aldercommerce/alder-admin/internal/permissions"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

type fetcherFunc func(ctx context.Context, id shared.Identity) (permissions.Snapshot, error)

func (f fetcherFunc) Fetch(ctx context.Context, id shared.Identity) (permissions.Snapshot, error) {
	return f(ctx, id)
}

func newHandler(fetch fetcherFunc) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := permissions.NewResolver(fetch, permissions.NewCache(5*time.Minute), logger)
	return NewHandler(logger, resolver)
}

func identityRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	id := shared.Identity{UserID: "u1", TenantID: "t1", Email: "u1@example.com"}
	return req.WithContext(shared.ContextWithIdentity(req.Context(), id))
}

func TestMyPermissions(t *testing.T) {
	handler := newHandler(func(ctx context.Context, id shared.Identity) (permissions.Snapshot, error) {
		return permissions.Snapshot{
			UserID:         id.UserID,
			TenantID:       id.TenantID,
			Permissions:    []string{"orders:view"},
			Priority:       permissions.PriorityManager,
			CanManageStaff: true,
			FetchedAt:      time.Now(),
		}, nil
	})

	rec := httptest.NewRecorder()
	handler.myPermissions(rec, identityRequest(http.MethodGet, "/api/staff/me/permissions"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp permissionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, []string{"orders:view"}, resp.Permissions)
	require.Equal(t, permissions.PriorityManager, resp.MaxPriorityLevel)
	require.True(t, resp.CanManageStaff)
}

func TestMyPermissionsWithoutIdentity(t *testing.T) {
	handler := newHandler(func(ctx context.Context, id shared.Identity) (permissions.Snapshot, error) {
		t.Fatal("must not fetch without identity")
		return permissions.Snapshot{}, nil
	})

	rec := httptest.NewRecorder()
	handler.myPermissions(rec, httptest.NewRequest(http.MethodGet, "/api/staff/me/permissions", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMyPermissionsUpstreamDown(t *testing.T) {
	handler := newHandler(func(ctx context.Context, id shared.Identity) (permissions.Snapshot, error) {
		return permissions.Snapshot{}, permissions.ErrFetchFailed
	})

	rec := httptest.NewRecorder()
	handler.myPermissions(rec, identityRequest(http.MethodGet, "/api/staff/me/permissions"))
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRefreshBypassesCache(t *testing.T) {
	calls := 0
	handler := newHandler(func(ctx context.Context, id shared.Identity) (permissions.Snapshot, error) {
		calls++
		return permissions.Snapshot{UserID: id.UserID, TenantID: id.TenantID, FetchedAt: time.Now()}, nil
	})

	rec := httptest.NewRecorder()
	handler.myPermissions(rec, identityRequest(http.MethodGet, "/api/staff/me/permissions"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.refreshPermissions(rec, identityRequest(http.MethodPost, "/api/staff/me/permissions/refresh"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, calls)
}

func TestMeDegradesWhenUpstreamDown(t *testing.T) {
	handler := newHandler(func(ctx context.Context, id shared.Identity) (permissions.Snapshot, error) {
		return permissions.Snapshot{}, permissions.ErrFetchFailed
	})

	rec := httptest.NewRecorder()
	handler.me(rec, identityRequest(http.MethodGet, "/api/staff/me"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp meResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "u1", resp.UserID)
	require.Empty(t, resp.Permissions)
}
