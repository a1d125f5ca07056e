package lifecyclehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"staffcore/internal/domain/audit"
	"staffcore/internal/domain/lifecycle"
	"staffcore/internal/requestctx"
	"staffcore/internal/transport/http/api"
	"staffcore/internal/transport/http/middleware"
)

type Handler struct {
	Service *lifecycle.Service
	Audit   *audit.Service
}

func NewHandler(service *lifecycle.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

type deleteTeamRequest struct {
	TeamID      string `json:"teamId"`
	ForceDelete *bool  `json:"forceDelete"`
}

func (h *Handler) HandleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "id")

	err := h.Service.DeleteEmployee(r.Context(), employeeID)
	if errors.Is(err, lifecycle.ErrNotFound) {
		api.NotFound(w, "employee not found", requestID)
		return
	}
	var blocked *lifecycle.BlockedError
	if errors.As(err, &blocked) {
		h.incident(r, audit.SeverityHigh, "employee delete blocked by dependent rows")
		api.FailWithDetails(w, http.StatusConflict, "delete_blocked", blocked.Error(),
			map[string]any{"dependencies": blocked.Dependencies}, requestID)
		return
	}
	if err != nil {
		h.incident(r, audit.SeverityHigh, "employee delete failed: "+err.Error())
		slog.Error("delete employee failed", "employeeId", employeeID, "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "delete_employee", "Deleted employee "+employeeID+" and linked admin account if present")
	api.Success(w, map[string]string{"message": "employee deleted"}, requestID)
}

func (h *Handler) HandleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	adminID := chi.URLParam(r, "id")

	caller, ok := middleware.GetAdmin(r.Context())
	if ok && caller.AdminID == adminID {
		api.BadRequest(w, "cannot delete your own account", requestID)
		return
	}

	err := h.Service.DeleteAdmin(r.Context(), adminID)
	if errors.Is(err, lifecycle.ErrNotFound) {
		api.NotFound(w, "admin not found", requestID)
		return
	}
	var blocked *lifecycle.BlockedError
	if errors.As(err, &blocked) {
		h.incident(r, audit.SeverityHigh, "admin delete blocked by dependent rows")
		api.FailWithDetails(w, http.StatusConflict, "delete_blocked", blocked.Error(),
			map[string]any{"dependencies": blocked.Dependencies}, requestID)
		return
	}
	if err != nil {
		h.incident(r, audit.SeverityHigh, "admin delete failed: "+err.Error())
		slog.Error("delete admin failed", "adminId", adminID, "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "delete_admin", "Deleted admin "+adminID+" and linked employee record if present")
	api.Success(w, map[string]string{"message": "admin deleted"}, requestID)
}

// HandleDeleteTeam deletes a team. Without forceDelete the handler reports
// blocking dependencies instead of removing anything.
func (h *Handler) HandleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload deleteTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.TeamID == "" {
		api.BadRequest(w, "teamId is required", requestID)
		return
	}
	force := payload.ForceDelete == nil || *payload.ForceDelete

	result, err := h.Service.DeleteTeam(r.Context(), payload.TeamID, force)
	if errors.Is(err, lifecycle.ErrNotFound) {
		api.NotFound(w, "team not found", requestID)
		return
	}
	var blocked *lifecycle.BlockedError
	if errors.As(err, &blocked) {
		api.FailWithDetails(w, http.StatusBadRequest, "team_has_dependencies",
			"Cannot delete team: dependent records must be removed first.",
			map[string]any{
				"dependencies":        blocked.Dependencies,
				"requiresForceDelete": true,
			}, requestID)
		return
	}
	if err != nil {
		h.incident(r, audit.SeverityHigh, "team delete failed: "+err.Error())
		slog.Error("delete team failed", "teamId", payload.TeamID, "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "delete_team", "Deleted team "+result.TeamName)
	api.Success(w, result, requestID)
}

func (h *Handler) record(r *http.Request, action, details string) {
	admin, ok := middleware.GetAdmin(r.Context())
	if !ok {
		return
	}
	if err := h.Audit.Record(r.Context(), admin.AdminID, admin.Role, action, details); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func (h *Handler) incident(r *http.Request, severity, description string) {
	adminID := ""
	if admin, ok := middleware.GetAdmin(r.Context()); ok {
		adminID = admin.AdminID
	}
	h.Audit.Incident(r.Context(), severity, description, adminID)
}
