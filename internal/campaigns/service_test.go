package campaigns

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
	// nil recorder pool writes are skipped in tests via the nil guard; use
	// a no-op cache so list paths hit the loader directly.
	return NewService(client, nil, nil)
}

func validInput() CreateInput {
	return CreateInput{
		Name:       "Spring Sale",
		Channel:    "search",
		DailyCents: 5000,
		TotalCents: 100000,
		Currency:   "USD",
		StartAt:    time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateValidation(t *testing.T) {
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid input must not reach upstream")
	})

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing name", func(in *CreateInput) { in.Name = "" }},
		{"bad channel", func(in *CreateInput) { in.Channel = "billboard" }},
		{"zero total", func(in *CreateInput) { in.TotalCents = 0 }},
		{"bogus currency", func(in *CreateInput) { in.Currency = "ZZZ" }},
		{"end before start", func(in *CreateInput) { in.EndAt = in.StartAt.Add(-time.Hour) }},
		{"daily above total", func(in *CreateInput) { in.DailyCents = in.TotalCents + 1 }},
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
		require.Equal(t, "/v1/campaigns", r.URL.Path)
		require.Equal(t, "t1", r.Header.Get(shared.HeaderClaimTenantID))
		httpx.JSON(w, http.StatusCreated, Campaign{ID: "c-1", Name: "Spring Sale", Status: StatusDraft})
	})

	campaign, err := service.Create(context.Background(), testIdentity(), validInput())
	require.NoError(t, err)
	require.Equal(t, "c-1", campaign.ID)
}

func TestTransitionVerbs(t *testing.T) {
	var gotPath string
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		httpx.JSON(w, http.StatusOK, Campaign{ID: "c-1", Status: StatusPaused})
	})

	_, err := service.Pause(context.Background(), testIdentity(), "c-1")
	require.NoError(t, err)
	require.Equal(t, "/v1/campaigns/c-1/pause", gotPath)

	_, err = service.Resume(context.Background(), testIdentity(), "c-1")
	require.NoError(t, err)
	require.Equal(t, "/v1/campaigns/c-1/resume", gotPath)

	_, err = service.Archive(context.Background(), testIdentity(), "c-1")
	require.NoError(t, err)
	require.Equal(t, "/v1/campaigns/c-1/archive", gotPath)
}

func TestGetMapsNotFound(t *testing.T) {
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such campaign")
	})

	_, err := service.Get(context.Background(), testIdentity(), "missing")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestListDefaultsEmptyItems(t *testing.T) {
	service := serviceAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, ListResult{Total: 0})
	})

	result, err := service.List(context.Background(), testIdentity(), ListFilters{})
	require.NoError(t, err)
	require.NotNil(t, result.Items)
	require.Empty(t, result.Items)
}
