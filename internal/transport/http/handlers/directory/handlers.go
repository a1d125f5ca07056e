package directoryhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"staffcore/internal/auth"
	"staffcore/internal/domain/audit"
	"staffcore/internal/domain/directory"
	"staffcore/internal/domain/notifications"
	"staffcore/internal/requestctx"
	"staffcore/internal/transport/http/api"
	"staffcore/internal/transport/http/middleware"
	"staffcore/internal/transport/http/shared"
)

type Handler struct {
	Store    *directory.Store
	Audit    *audit.Service
	Notifier *notifications.Service
}

func NewHandler(store *directory.Store, auditSvc *audit.Service, notifier *notifications.Service) *Handler {
	return &Handler{Store: store, Audit: auditSvc, Notifier: notifier}
}

type verifyRequest struct {
	AdminID string `json:"adminId"`
	Role    string `json:"role"`
}

type rejectRequest struct {
	AdminID string `json:"adminId"`
}

type createEmployeeRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Position  string `json:"position"`
}

type employeeStatusRequest struct {
	Status string `json:"status"`
}

type createTeamRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	EmployeeID string `json:"employeeId"`
}

func (h *Handler) HandleListAdmins(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	admins, err := h.Store.ListAdmins(r.Context())
	if err != nil {
		slog.Error("list admins failed", "err", err)
		api.ServerError(w, requestID)
		return
	}
	api.Success(w, admins, requestID)
}

func (h *Handler) HandlePendingRegistrations(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	admins, err := h.Store.PendingAdmins(r.Context())
	if err != nil {
		slog.Error("list pending registrations failed", "err", err)
		api.ServerError(w, requestID)
		return
	}
	api.Success(w, admins, requestID)
}

// HandleVerify accepts a pending registration, fixing the account's role.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.BadRequest(w, "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("adminId", payload.AdminID, "admin id is required")
	v.Enum("role", payload.Role, []string{auth.RoleAdmin, auth.RoleSuperAdmin}, "role must be admin or super_admin")
	if v.Respond(w, requestID) {
		return
	}
	role := strings.TrimSpace(payload.Role)
	if role == "" {
		role = auth.RoleAdmin
	}

	admin, err := h.Store.VerifyAdmin(r.Context(), payload.AdminID, role)
	if errors.Is(err, directory.ErrNotFound) {
		api.NotFound(w, "registration not found or already verified", requestID)
		return
	}
	if err != nil {
		slog.Error("verify registration failed", "adminId", payload.AdminID, "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "verify_registration", "Verified admin "+admin.Email+" as "+admin.Role)
	h.Notifier.AccountVerified(admin.Email, admin.Role)
	api.Success(w, admin, requestID)
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.AdminID == "" {
		api.BadRequest(w, "admin id is required", requestID)
		return
	}

	err := h.Store.RejectAdmin(r.Context(), payload.AdminID)
	if errors.Is(err, directory.ErrNotFound) {
		api.NotFound(w, "registration not found or already verified", requestID)
		return
	}
	if err != nil {
		slog.Error("reject registration failed", "adminId", payload.AdminID, "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "reject_registration", "Rejected admin registration "+payload.AdminID)
	api.Success(w, map[string]string{"message": "registration rejected"}, requestID)
}

func (h *Handler) HandleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload createEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.BadRequest(w, "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	if v.Respond(w, requestID) {
		return
	}

	emp, err := h.Store.CreateEmployee(r.Context(),
		strings.ToLower(strings.TrimSpace(payload.Email)),
		strings.TrimSpace(payload.FirstName),
		strings.TrimSpace(payload.LastName),
		strings.TrimSpace(payload.Position))
	if errors.Is(err, directory.ErrDuplicate) {
		api.Fail(w, http.StatusConflict, "duplicate_employee", "an employee record already exists for this email", requestID)
		return
	}
	if err != nil {
		slog.Error("create employee failed", "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "create_employee", "Created employee "+emp.Email)
	api.Created(w, emp, requestID)
}

func (h *Handler) HandleListEmployees(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		slog.Error("list employees failed", "err", err)
		api.ServerError(w, requestID)
		return
	}
	api.Success(w, employees, requestID)
}

// HandleEmployeeStatus applies a soft status change: activate, deactivate,
// or terminate. The row stays; only a delete removes it.
func (h *Handler) HandleEmployeeStatus(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "id")

	var payload employeeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.BadRequest(w, "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("status", payload.Status, "status is required")
	v.Enum("status", payload.Status,
		[]string{directory.EmployeeActive, directory.EmployeeInactive, directory.EmployeeTerminated},
		"status must be active, inactive, or terminated")
	if v.Respond(w, requestID) {
		return
	}

	emp, err := h.Store.SetEmployeeStatus(r.Context(), employeeID, strings.TrimSpace(payload.Status))
	if errors.Is(err, directory.ErrNotFound) {
		api.NotFound(w, "employee not found", requestID)
		return
	}
	if err != nil {
		slog.Error("set employee status failed", "employeeId", employeeID, "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "employee_status", "Set employee "+emp.Email+" to "+emp.Status)
	api.Success(w, emp, requestID)
}

func (h *Handler) HandleCreateTeam(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload createTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Name) == "" {
		api.BadRequest(w, "team name is required", requestID)
		return
	}

	team, err := h.Store.CreateTeam(r.Context(), strings.TrimSpace(payload.Name))
	if errors.Is(err, directory.ErrDuplicate) {
		api.Fail(w, http.StatusConflict, "duplicate_team", "team name already exists", requestID)
		return
	}
	if err != nil {
		slog.Error("create team failed", "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "create_team", "Created team "+team.Name)
	api.Created(w, team, requestID)
}

func (h *Handler) HandleListTeams(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	teams, err := h.Store.ListTeams(r.Context())
	if err != nil {
		slog.Error("list teams failed", "err", err)
		api.ServerError(w, requestID)
		return
	}
	api.Success(w, teams, requestID)
}

func (h *Handler) HandleAddTeamMember(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	teamID := chi.URLParam(r, "id")

	var payload addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.EmployeeID == "" {
		api.BadRequest(w, "employee id is required", requestID)
		return
	}

	if err := h.Store.AddTeamMember(r.Context(), teamID, payload.EmployeeID); err != nil {
		slog.Error("add team member failed", "teamId", teamID, "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "add_team_member", "Added employee "+payload.EmployeeID+" to team "+teamID)
	api.Success(w, map[string]string{"teamId": teamID, "employeeId": payload.EmployeeID}, requestID)
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
