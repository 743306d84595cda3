package approvals

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aldercommerce/alder-admin/internal/permissions"
	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

// Handler wires approval workflow endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers approval routes behind the permission gates.
func (h *Handler) MountRoutes(r chi.Router, gate permissions.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAny(permissions.PermApprovalsView, permissions.PermApprovalsManage))
		r.Get("/workflows", h.listWorkflows)
		r.Get("/workflows/{id}", h.getWorkflow)
		r.Get("/{module}/{ref}/decisions", h.listDecisions)
	})
	r.Group(func(r chi.Router) {
		r.Use(gate.Require(permissions.PermApprovalsManage))
		r.Post("/workflows", h.createWorkflow)
		r.Put("/workflows/{id}", h.updateWorkflow)
		r.Delete("/workflows/{id}", h.deleteWorkflow)
		r.Post("/{module}/{ref}/submit", h.decision(ActionSubmit))
		r.Post("/{module}/{ref}/approve", h.decision(ActionApprove))
		r.Post("/{module}/{ref}/reject", h.decision(ActionReject))
	})
}

func (h *Handler) listWorkflows(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	workflows, err := h.service.List(r.Context(), id)
	if err != nil {
		h.logger.Error("list workflows", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": workflows})
}

func (h *Handler) getWorkflow(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	workflowID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid workflow id")
		return
	}
	workflow, err := h.service.Get(r.Context(), id, workflowID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, workflow)
}

func (h *Handler) createWorkflow(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	var input WorkflowInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	workflow, err := h.service.Create(r.Context(), id, input)
	if err != nil {
		h.logger.Error("create workflow", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, workflow)
}

func (h *Handler) updateWorkflow(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	workflowID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid workflow id")
		return
	}
	var input WorkflowInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	workflow, err := h.service.Update(r.Context(), id, workflowID, input)
	if err != nil {
		h.logger.Error("update workflow", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, workflow)
}

func (h *Handler) deleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	workflowID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid workflow id")
		return
	}
	if err := h.service.Delete(r.Context(), id, workflowID); err != nil {
		h.logger.Error("delete workflow", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listDecisions(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	ref, err := uuid.Parse(chi.URLParam(r, "ref"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid reference id")
		return
	}
	decisions, err := h.service.Decisions(r.Context(), id, chi.URLParam(r, "module"), ref)
	if err != nil {
		h.logger.Error("list decisions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": decisions})
}

func (h *Handler) decision(action Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := shared.IdentityFromContext(r.Context())
		ref, err := uuid.Parse(chi.URLParam(r, "ref"))
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid reference id")
			return
		}
		var input DecisionInput
		if r.ContentLength > 0 {
			if err := httpx.DecodeJSON(r, &input); err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
				return
			}
		}
		module := chi.URLParam(r, "module")
		switch action {
		case ActionSubmit:
			err = h.service.Submit(r.Context(), id, module, ref, input.Note)
		case ActionApprove:
			err = h.service.Approve(r.Context(), id, module, ref, input.Note)
		default:
			err = h.service.Reject(r.Context(), id, module, ref, input.Note)
		}
		if err != nil {
			switch {
			case errors.Is(err, ErrNotSubmitted):
				httpx.Problem(w, http.StatusConflict, "Not Submitted", err.Error())
			case errors.Is(err, ErrPriorityTooLow):
				httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
			default:
				h.logger.Error("record decision", slog.Any("error", err))
				httpx.RespondError(w, err)
			}
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
