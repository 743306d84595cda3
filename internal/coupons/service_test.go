package coupons

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

type enqueuerFunc func(ctx context.Context, id shared.Identity, req BulkGenerateRequest) (string, error)

func (f enqueuerFunc) EnqueueCouponBulk(ctx context.Context, id shared.Identity, req BulkGenerateRequest) (string, error) {
	return f(ctx, id, req)
}

func serviceAgainst(t *testing.T, handler http.HandlerFunc, enqueuer BulkEnqueuer) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := upstream.New(serviceName, server.URL, time.Second)
	return NewService(client, nil, nil, enqueuer)
}

func validInput() CouponInput {
	return CouponInput{
		Code:       "SPRING20",
		Type:       TypePercentage,
		PercentOff: 20,
		StartsAt:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateValidation(t *testing.T) {
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid input must not reach upstream")
	}, nil)

	cases := []struct {
		name   string
		mutate func(*CouponInput)
	}{
		{"lowercase code", func(in *CouponInput) { in.Code = "spring20" }},
		{"short code", func(in *CouponInput) { in.Code = "AB" }},
		{"bad type", func(in *CouponInput) { in.Type = "bogo" }},
		{"percentage without percent", func(in *CouponInput) { in.PercentOff = 0 }},
		{"ends before starts", func(in *CouponInput) { in.EndsAt = in.StartsAt.Add(-time.Hour) }},
		{"fixed amount without cents", func(in *CouponInput) {
			in.Type = TypeFixedAmount
			in.PercentOff = 0
			in.AmountCents = 0
		}},
		{"fixed amount bogus currency", func(in *CouponInput) {
			in.Type = TypeFixedAmount
			in.PercentOff = 0
			in.AmountCents = 500
			in.Currency = "ZZZ"
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			_, err := service.Create(context.Background(), testIdentity(), input)
			require.ErrorIs(t, err, httpx.ErrValidation)
		})
	}
}

func TestCreateForwardsUpstream(t *testing.T) {
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/coupons", r.URL.Path)
		require.Equal(t, "t1", r.Header.Get(shared.HeaderClaimTenantID))
		httpx.JSON(w, http.StatusCreated, Coupon{ID: "cp-1", Code: "SPRING20"})
	}, nil)

	coupon, err := service.Create(context.Background(), testIdentity(), validInput())
	require.NoError(t, err)
	require.Equal(t, "cp-1", coupon.ID)
}

func TestDisablePostsVerbPath(t *testing.T) {
	var gotPath string
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		httpx.JSON(w, http.StatusOK, Coupon{ID: "cp-1", Disabled: true})
	}, nil)

	coupon, err := service.Disable(context.Background(), testIdentity(), "cp-1")
	require.NoError(t, err)
	require.Equal(t, "/v1/coupons/cp-1/disable", gotPath)
	require.True(t, coupon.Disabled)
}

func TestBulkGenerateEnqueues(t *testing.T) {
	var got BulkGenerateRequest
	enqueuer := enqueuerFunc(func(ctx context.Context, id shared.Identity, req BulkGenerateRequest) (string, error) {
		got = req
		return "job-42", nil
	})
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("bulk generation must not call upstream directly")
	}, enqueuer)

	req := BulkGenerateRequest{
		Prefix:     "VIP",
		Count:      100,
		Type:       TypePercentage,
		PercentOff: 10,
		StartsAt:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	ref, err := service.BulkGenerate(context.Background(), testIdentity(), req)
	require.NoError(t, err)
	require.Equal(t, "job-42", ref)
	require.Equal(t, 100, got.Count)
}

func TestBulkGenerateValidation(t *testing.T) {
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("must not reach upstream")
	}, enqueuerFunc(func(ctx context.Context, id shared.Identity, req BulkGenerateRequest) (string, error) {
		t.Fatal("invalid request must not be enqueued")
		return "", nil
	}))

	_, err := service.BulkGenerate(context.Background(), testIdentity(), BulkGenerateRequest{
		Prefix: "VIP", Count: 50000, Type: TypePercentage, PercentOff: 10,
		StartsAt: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestGetMapsNotFound(t *testing.T) {
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such coupon")
	}, nil)

	_, err := service.Get(context.Background(), testIdentity(), "missing")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListDefaultsEmptyItems(t *testing.T) {
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, ListResult{Total: 0})
	}, nil)

	result, err := service.List(context.Background(), testIdentity(), ListFilters{})
	require.NoError(t, err)
	require.NotNil(t, result.Items)
	require.Empty(t, result.Items)
}
