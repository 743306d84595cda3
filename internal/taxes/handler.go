package taxes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aldercommerce/alder-admin/internal/permissions"
	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

// Handler wires tax configuration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers tax routes behind the permission gates.
func (h *Handler) MountRoutes(r chi.Router, gate permissions.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAny(permissions.PermTaxesView, permissions.PermTaxesManage))
		r.Get("/classes", h.listClasses)
		r.Get("/classes/{id}", h.getClass)
		r.Get("/classes/{id}/rates", h.listRates)
	})
	r.Group(func(r chi.Router) {
		r.Use(gate.Require(permissions.PermTaxesManage))
		r.Post("/classes", h.createClass)
		r.Put("/classes/{id}", h.updateClass)
		r.Delete("/classes/{id}", h.deleteClass)
		r.Put("/classes/{id}/rates", h.upsertRate)
		r.Delete("/classes/{id}/rates/{rateID}", h.deleteRate)
	})
}

func (h *Handler) listClasses(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	result, err := h.service.ListClasses(r.Context(), id)
	if err != nil {
		h.logger.Error("list tax classes", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) getClass(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	class, err := h.service.GetClass(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, class)
}

func (h *Handler) createClass(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	var input TaxClassInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	class, err := h.service.CreateClass(r.Context(), id, input)
	if err != nil {
		h.logger.Error("create tax class", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, class)
}

func (h *Handler) updateClass(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	var input TaxClassInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	class, err := h.service.UpdateClass(r.Context(), id, chi.URLParam(r, "id"), input)
	if err != nil {
		h.logger.Error("update tax class", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, class)
}

func (h *Handler) deleteClass(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	if err := h.service.DeleteClass(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		h.logger.Error("delete tax class", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listRates(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	result, err := h.service.ListRates(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) upsertRate(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	var input RateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	rate, err := h.service.UpsertRate(r.Context(), id, chi.URLParam(r, "id"), input)
	if err != nil {
		h.logger.Error("upsert tax rate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rate)
}

func (h *Handler) deleteRate(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	if err := h.service.DeleteRate(r.Context(), id, chi.URLParam(r, "id"), chi.URLParam(r, "rateID")); err != nil {
		h.logger.Error("delete tax rate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
