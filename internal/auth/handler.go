package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

// PermissionInvalidator drops cached permission state when a session ends or
// changes tenant.
type PermissionInvalidator interface {
	Forget(id shared.Identity)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	tokens         *TokenService
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	permissions    PermissionInvalidator
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, tokens *TokenService, sessions *shared.SessionManager, csrf *shared.CSRFManager, permissions PermissionInvalidator) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		tokens:         tokens,
		sessionManager: sessions,
		csrfManager:    csrf,
		permissions:    permissions,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Post("/tenant", h.handleSwitchTenant)
	r.Post("/token", h.handleToken)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	TenantID string `json:"tenantId"`
}

type loginResponse struct {
	UserID    string `json:"userId"`
	TenantID  string `json:"tenantId"`
	Email     string `json:"email"`
	CSRFToken string `json:"csrfToken"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	account, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		return
	}
	tenantID, err := h.service.ResolveTenant(r.Context(), account.ID, req.TenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotMember) {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "not a member of the requested tenant")
			return
		}
		h.logger.Error("resolve tenant", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetUser(account.ID)
	sess.SetTenant(tenantID)
	sess.Set("email", account.Email)

	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, account.ID, tenantID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	httpx.JSON(w, http.StatusOK, loginResponse{
		UserID:    account.ID,
		TenantID:  tenantID,
		Email:     account.Email,
		CSRFToken: csrfToken,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		if h.permissions != nil {
			// Drop all tenants the departing user may have cached.
			h.permissions.Forget(shared.Identity{UserID: sess.User()})
		}
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

type switchTenantRequest struct {
	TenantID string `json:"tenantId" validate:"required"`
}

func (h *Handler) handleSwitchTenant(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	if id.UserID == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	var req switchTenantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.service.SwitchTenant(r.Context(), id.UserID, req.TenantID); err != nil {
		if errors.Is(err, shared.ErrNotMember) {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "not a member of the requested tenant")
			return
		}
		h.logger.Error("switch tenant", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	if h.permissions != nil {
		h.permissions.Forget(id)
	}
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		sess.SetTenant(req.TenantID)
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"tenantId": req.TenantID})
}

type tokenRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	TenantID string `json:"tenantId"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	TenantID string `json:"tenantId"`
}

// handleToken is the mobile app login path: credentials in, bearer token out.
func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	account, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		return
	}
	tenantID, err := h.service.ResolveTenant(r.Context(), account.ID, req.TenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotMember) {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "not a member of the requested tenant")
			return
		}
		h.logger.Error("resolve tenant", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	token, err := h.tokens.Generate(shared.Identity{UserID: account.ID, TenantID: tenantID, Email: account.Email})
	if err != nil {
		h.logger.Error("generate token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusOK, tokenResponse{Token: token, TenantID: tenantID})
}
