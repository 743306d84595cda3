package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aldercommerce/alder-admin/internal/shared"
)

type stubRepo struct {
	account  *Account
	tenants  []string
	sessions map[string]string
}

func (r *stubRepo) FindByEmail(ctx context.Context, email string) (*Account, error) {
	if r.account == nil || r.account.Email != email {
		return nil, shared.ErrNotFound
	}
	return r.account, nil
}

func (r *stubRepo) ListTenants(ctx context.Context, accountID string) ([]string, error) {
	return r.tenants, nil
}

func (r *stubRepo) IsMember(ctx context.Context, accountID, tenantID string) (bool, error) {
	for _, t := range r.tenants {
		if t == tenantID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepo) CreateSession(ctx context.Context, id, accountID, tenantID string, expiresAt time.Time, ip, ua string) error {
	if r.sessions == nil {
		r.sessions = make(map[string]string)
	}
	r.sessions[id] = accountID
	return nil
}

func (r *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

type forgetSpy struct {
	forgotten []shared.Identity
}

func (f *forgetSpy) Forget(id shared.Identity) {
	f.forgotten = append(f.forgotten, id)
}

func testHandler(t *testing.T, repo Repository) (*Handler, *shared.SessionManager, *forgetSpy) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "alder_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")
	tokens := NewTokenService("jwt-secret", time.Hour)
	spy := &forgetSpy{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo), tokens, sessions, csrf, spy)
	return handler, sessions, spy
}

func activeAccount(t *testing.T) *Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return &Account{ID: "acc-1", Email: "owner@example.com", PasswordHash: string(hash), IsActive: true}
}

func doLogin(t *testing.T, handler *Handler, sessions *shared.SessionManager, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	handler.handleLogin(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	repo := &stubRepo{account: activeAccount(t), tenants: []string{"t1", "t2"}}
	handler, sessions, _ := testHandler(t, repo)

	rec := doLogin(t, handler, sessions, `{"email":"owner@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "acc-1", resp.UserID)
	require.Equal(t, "t1", resp.TenantID)
	require.NotEmpty(t, resp.CSRFToken)
	require.Len(t, repo.sessions, 1)
}

func TestLoginExplicitTenant(t *testing.T) {
	repo := &stubRepo{account: activeAccount(t), tenants: []string{"t1", "t2"}}
	handler, sessions, _ := testHandler(t, repo)

	rec := doLogin(t, handler, sessions, `{"email":"owner@example.com","password":"correct-horse","tenantId":"t2"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "t2", resp.TenantID)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &stubRepo{account: activeAccount(t), tenants: []string{"t1"}}
	handler, sessions, _ := testHandler(t, repo)

	rec := doLogin(t, handler, sessions, `{"email":"owner@example.com","password":"wrong-password"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginForeignTenant(t *testing.T) {
	repo := &stubRepo{account: activeAccount(t), tenants: []string{"t1"}}
	handler, sessions, _ := testHandler(t, repo)

	rec := doLogin(t, handler, sessions, `{"email":"owner@example.com","password":"correct-horse","tenantId":"t9"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	account := activeAccount(t)
	account.IsActive = false
	repo := &stubRepo{account: account, tenants: []string{"t1"}}
	handler, sessions, _ := testHandler(t, repo)

	rec := doLogin(t, handler, sessions, `{"email":"owner@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSwitchTenantInvalidatesPermissions(t *testing.T) {
	repo := &stubRepo{account: activeAccount(t), tenants: []string{"t1", "t2"}}
	handler, sessions, spy := testHandler(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/auth/tenant", strings.NewReader(`{"tenantId":"t2"}`))
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("acc-1")
	sess.SetTenant("t1")
	ctx := shared.ContextWithSession(req.Context(), sess)
	ctx = shared.ContextWithIdentity(ctx, shared.Identity{UserID: "acc-1", TenantID: "t1"})
	rec := httptest.NewRecorder()
	handler.handleSwitchTenant(rec, req.WithContext(ctx))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "t2", sess.Tenant())
	require.Len(t, spy.forgotten, 1)
	require.Equal(t, "t1", spy.forgotten[0].TenantID)
}

func TestLogoutForgetsUserWide(t *testing.T) {
	repo := &stubRepo{account: activeAccount(t), tenants: []string{"t1"}, sessions: map[string]string{}}
	handler, sessions, spy := testHandler(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("acc-1")
	repo.sessions[sess.ID] = "acc-1"
	rec := httptest.NewRecorder()
	handler.handleLogout(rec, req.WithContext(shared.ContextWithSession(req.Context(), sess)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, repo.sessions)
	require.Len(t, spy.forgotten, 1)
	require.Equal(t, "acc-1", spy.forgotten[0].UserID)
	require.Empty(t, spy.forgotten[0].TenantID)
}

func TestTokenIssuanceRoundTrip(t *testing.T) {
	repo := &stubRepo{account: activeAccount(t), tenants: []string{"t1"}}
	handler, _, _ := testHandler(t, repo)

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"email":"owner@example.com","password":"correct-horse"}`))
	rec := httptest.NewRecorder()
	handler.handleToken(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	id, err := handler.tokens.Verify(resp.Token)
	require.NoError(t, err)
	require.Equal(t, "acc-1", id.UserID)
	require.Equal(t, "t1", id.TenantID)
	require.Equal(t, "owner@example.com", id.Email)
}
