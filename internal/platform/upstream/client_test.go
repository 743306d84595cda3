package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

func testID() shared.Identity {
	return shared.Identity{UserID: "u1", TenantID: "t1", Email: "u1@example.com"}
}

func TestClientForwardsClaimHeaders(t *testing.T) {
	var gotTenant, gotSub, gotEmail string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = r.Header.Get(shared.HeaderClaimTenantID)
		gotSub = r.Header.Get(shared.HeaderClaimSub)
		gotEmail = r.Header.Get(shared.HeaderClaimEmail)
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := New("test-service", server.URL, time.Second)
	var out map[string]string
	err := client.Get(context.Background(), testID(), "/v1/things", url.Values{"page": {"2"}}, &out)
	require.NoError(t, err)
	require.Equal(t, "t1", gotTenant)
	require.Equal(t, "u1", gotSub)
	require.Equal(t, "u1@example.com", gotEmail)
	require.Equal(t, "ok", out["status"])
}

func TestClientStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, httpx.ErrNotFound},
		{http.StatusConflict, httpx.ErrDuplicate},
		{http.StatusUnprocessableEntity, httpx.ErrValidation},
		{http.StatusBadRequest, httpx.ErrValidation},
		{http.StatusUnauthorized, httpx.ErrForbidden},
		{http.StatusForbidden, httpx.ErrForbidden},
		{http.StatusInternalServerError, httpx.ErrUnavailable},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, tc.status, "Upstream Says", "nope")
		}))
		client := New("test-service", server.URL, time.Second)
		err := client.Post(context.Background(), testID(), "/v1/things", map[string]string{"a": "b"}, nil)
		require.ErrorIs(t, err, tc.want, "status %d", tc.status)
		require.Contains(t, err.Error(), "nope")
		server.Close()
	}
}

func TestClientTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := New("test-service", server.URL, time.Second)
	err := client.Delete(context.Background(), testID(), "/v1/things/1")
	require.ErrorIs(t, err, httpx.ErrUnavailable)
}
