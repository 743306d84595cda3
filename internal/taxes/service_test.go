package taxes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/platform/upstream"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

func testIdentity() shared.Identity {
	return shared.Identity{UserID: "u1", TenantID: "t1"}
}

func serviceAgainst(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := upstream.New(serviceName, server.URL, time.Second)
	return NewService(client, nil, nil)
}

func TestCreateClassValidation(t *testing.T) {
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid input must not reach upstream")
	})

	_, err := service.CreateClass(context.Background(), testIdentity(), TaxClassInput{Name: "x"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpsertRateValidation(t *testing.T) {
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid input must not reach upstream")
	})

	cases := []struct {
		name  string
		input RateInput
	}{
		{"bad country", RateInput{CountryCode: "USA", Percent: 8.25}},
		{"percent above 100", RateInput{CountryCode: "US", Percent: 101}},
		{"negative percent", RateInput{CountryCode: "US", Percent: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.UpsertRate(context.Background(), testIdentity(), "cls-1", tc.input)
			require.ErrorIs(t, err, httpx.ErrValidation)
		})
	}
}

func TestUpsertRateForwardsUpstream(t *testing.T) {
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/v1/tax-classes/cls-1/rates", r.URL.Path)
		require.Equal(t, "t1", r.Header.Get(shared.HeaderClaimTenantID))
		httpx.JSON(w, http.StatusOK, Rate{ID: "rate-1", ClassID: "cls-1", CountryCode: "US", Percent: 8.25})
	})

	rate, err := service.UpsertRate(context.Background(), testIdentity(), "cls-1", RateInput{
		CountryCode: "US",
		Region:      "CA",
		Percent:     8.25,
	})
	require.NoError(t, err)
	require.Equal(t, "rate-1", rate.ID)
}

func TestDeleteClassRequiresID(t *testing.T) {
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("must not reach upstream")
	})

	err := service.DeleteClass(context.Background(), testIdentity(), "")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestGetClassMapsNotFound(t *testing.T) {
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such class")
	})

	_, err := service.GetClass(context.Background(), testIdentity(), "missing")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListClassesDefaultsEmptyItems(t *testing.T) {
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, ClassListResult{Total: 0})
	})

	result, err := service.ListClasses(context.Background(), testIdentity())
	require.NoError(t, err)
	require.NotNil(t, result.Items)
	require.Empty(t, result.Items)
}
