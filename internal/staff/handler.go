// Package staff serves the permission bootstrap contract both admin UIs
// consume.
package staff

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aldercommerce/alder-admin/internal/permissions"
	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

// Handler exposes the caller's resolved permission state.
type Handler struct {
	logger   *slog.Logger
	resolver *permissions.Resolver
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, resolver *permissions.Resolver) *Handler {
	return &Handler{logger: logger, resolver: resolver}
}

// MountRoutes registers staff routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Get("/me/permissions", h.myPermissions)
	r.Post("/me/permissions/refresh", h.refreshPermissions)
}

type permissionsResponse struct {
	Permissions      []string `json:"permissions"`
	MaxPriorityLevel int      `json:"maxPriorityLevel"`
	CanManageStaff   bool     `json:"canManageStaff"`
	CanCreateRoles   bool     `json:"canCreateRoles"`
	CanDeleteRoles   bool     `json:"canDeleteRoles"`
}

type meResponse struct {
	UserID   string `json:"userId"`
	TenantID string `json:"tenantId"`
	Email    string `json:"email"`
	permissionsResponse
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	if id.UserID == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	snap, err := h.resolver.Resolve(r.Context(), id)
	if err != nil {
		// Identity echo still works when the staff-service is down; the
		// permission fields just read as empty and the UI gates stay closed.
		h.logger.Warn("resolve for identity echo", slog.Any("error", err))
		snap = permissions.Snapshot{UserID: id.UserID, TenantID: id.TenantID}
	}
	httpx.JSON(w, http.StatusOK, meResponse{
		UserID:              id.UserID,
		TenantID:            id.TenantID,
		Email:               id.Email,
		permissionsResponse: toResponse(snap),
	})
}

func (h *Handler) myPermissions(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	if !id.Valid() {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	snap, err := h.resolver.Resolve(r.Context(), id)
	if err != nil {
		h.logger.Error("resolve permissions", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Unavailable", "permission data unavailable")
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(snap))
}

func (h *Handler) refreshPermissions(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	if !id.Valid() {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	snap, err := h.resolver.Refresh(r.Context(), id)
	if err != nil {
		h.logger.Error("refresh permissions", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Unavailable", "permission data unavailable")
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(snap))
}

func toResponse(snap permissions.Snapshot) permissionsResponse {
	perms := snap.Permissions
	if perms == nil {
		perms = []string{}
	}
	return permissionsResponse{
		Permissions:      perms,
		MaxPriorityLevel: snap.Priority,
		CanManageStaff:   snap.CanManageStaff,
		CanCreateRoles:   snap.CanCreateRoles,
		CanDeleteRoles:   snap.CanDeleteRoles,
	}
}
