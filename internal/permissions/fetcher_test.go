package permissions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aldercommerce/alder-admin/internal/shared"
)

func staffServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/staff/me/permissions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get(shared.HeaderClaimTenantID) == "" || r.Header.Get(shared.HeaderClaimSub) == "" {
			t.Error("claim headers missing on staff-service call")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func testIdentity() shared.Identity {
	return shared.Identity{UserID: "staff-1", TenantID: "tenant-1", Email: "staff@example.com"}
}

func TestFetchFlatListPreferred(t *testing.T) {
	server := staffServer(t, http.StatusOK, `{"data":{
		"permissions":[{"name":"orders:view"},{"name":"orders:view"},{"name":"marketing:coupons:view"}],
		"roles":[{"priorityLevel":90,"permissions":[{"name":"should:not:appear"}]}],
		"maxPriorityLevel":70,
		"canManageStaff":true}}`)

	snap, err := NewStaffFetcher(server.URL, time.Second).Fetch(context.Background(), testIdentity())
	require.NoError(t, err)
	require.Equal(t, []string{"orders:view", "marketing:coupons:view"}, snap.Permissions)
	require.Equal(t, PriorityManager, snap.Priority)
	require.True(t, snap.CanManageStaff)
	require.False(t, snap.CanCreateRoles)
	require.Equal(t, "staff-1", snap.UserID)
	require.Equal(t, "tenant-1", snap.TenantID)
}

func TestFetchNestedRolesFallback(t *testing.T) {
	server := staffServer(t, http.StatusOK, `{"data":{
		"roles":[
			{"priorityLevel":50,"permissions":[{"name":"orders:view"},{"name":"marketing:coupons:view"}]},
			{"priorityLevel":70,"permissions":[{"name":"orders:view"},{"name":"settings:taxes:view"}]}
		]}}`)

	snap, err := NewStaffFetcher(server.URL, time.Second).Fetch(context.Background(), testIdentity())
	require.NoError(t, err)
	// Deduplicated across roles, first-seen order preserved.
	require.Equal(t, []string{"orders:view", "marketing:coupons:view", "settings:taxes:view"}, snap.Permissions)
	// Max priorityLevel across roles.
	require.Equal(t, PriorityManager, snap.Priority)
}

func TestFetchExplicitMaxPriorityWins(t *testing.T) {
	server := staffServer(t, http.StatusOK, `{"data":{
		"roles":[{"priorityLevel":50,"permissions":[{"name":"orders:view"}]}],
		"maxPriorityLevel":90}}`)

	snap, err := NewStaffFetcher(server.URL, time.Second).Fetch(context.Background(), testIdentity())
	require.NoError(t, err)
	require.Equal(t, PriorityAdmin, snap.Priority)
}

func TestFetchNonSuccessStatus(t *testing.T) {
	server := staffServer(t, http.StatusBadGateway, `oops`)

	_, err := NewStaffFetcher(server.URL, time.Second).Fetch(context.Background(), testIdentity())
	require.ErrorIs(t, err, ErrFetchFailed)
}

func TestFetchTransportFailure(t *testing.T) {
	server := staffServer(t, http.StatusOK, `{}`)
	server.Close()

	_, err := NewStaffFetcher(server.URL, time.Second).Fetch(context.Background(), testIdentity())
	require.ErrorIs(t, err, ErrFetchFailed)
}

func TestFetchMalformedPayload(t *testing.T) {
	cases := map[string]string{
		"not json":     `<!doctype html>`,
		"missing data": `{"status":"ok"}`,
		"unnamed perm": `{"data":{"permissions":[{"name":""}]}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			server := staffServer(t, http.StatusOK, body)
			_, err := NewStaffFetcher(server.URL, time.Second).Fetch(context.Background(), testIdentity())
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("want ParseError, got %v", err)
			}
		})
	}
}

func TestFetchEmptyGrants(t *testing.T) {
	server := staffServer(t, http.StatusOK, `{"data":{"permissions":[],"roles":[]}}`)

	snap, err := NewStaffFetcher(server.URL, time.Second).Fetch(context.Background(), testIdentity())
	require.NoError(t, err)
	require.Empty(t, snap.Permissions)
	require.Equal(t, 0, snap.Priority)
}
