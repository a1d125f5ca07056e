package accesshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"staffcore/internal/domain/access"
	"staffcore/internal/domain/audit"
	"staffcore/internal/requestctx"
	"staffcore/internal/transport/http/api"
	"staffcore/internal/transport/http/middleware"
	"staffcore/internal/transport/http/shared"
)

type Handler struct {
	Service *access.Service
	Audit   *audit.Service
}

func NewHandler(service *access.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

type grantRequest struct {
	AdminID     string                    `json:"adminId"`
	Permissions []access.RoutePermissions `json:"permissions"`
}

type revokeRequest struct {
	AdminID   string   `json:"adminId"`
	RouteName string   `json:"route"`
	Actions   []string `json:"actions"`
}

type submitRequest struct {
	Requests []access.RequestItem `json:"requests"`
}

type reviewRequest struct {
	RequestID string `json:"requestId"`
	Decision  string `json:"decision"`
}

func (h *Handler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload grantRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.BadRequest(w, "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("adminId", payload.AdminID, "target admin is required")
	if len(payload.Permissions) == 0 {
		v.Add("permissions", "at least one route permission is required")
	}
	if v.Respond(w, requestID) {
		return
	}

	err := h.Service.Grant(r.Context(), payload.AdminID, payload.Permissions)
	if errors.Is(err, access.ErrUnknownRouteAction) {
		api.BadRequest(w, err.Error(), requestID)
		return
	}
	if err != nil {
		slog.Error("grant access failed", "targetAdmin", payload.AdminID, "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "grant_access", "Granted permissions to admin "+payload.AdminID)
	api.Success(w, map[string]string{"message": "access granted"}, requestID)
}

func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.BadRequest(w, "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("adminId", payload.AdminID, "target admin is required")
	v.Required("route", payload.RouteName, "route is required")
	if len(payload.Actions) == 0 {
		v.Add("actions", "at least one action is required")
	}
	if v.Respond(w, requestID) {
		return
	}

	noActionsLeft, err := h.Service.Revoke(r.Context(), payload.AdminID, payload.RouteName, payload.Actions)
	if err != nil {
		slog.Error("revoke access failed", "targetAdmin", payload.AdminID, "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "remove_access", "Removed actions on "+payload.RouteName+" from admin "+payload.AdminID)
	api.Success(w, map[string]any{
		"message":       "access removed",
		"noActionsLeft": noActionsLeft,
	}, requestID)
}

// HandlePermissions answers both shapes of the permissions query: route=ALL
// returns every grant grouped by route, a single route name returns the
// available/granted split for that route.
func (h *Handler) HandlePermissions(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	adminID := chi.URLParam(r, "adminID")
	route := r.URL.Query().Get("route")
	if route == "" {
		route = "ALL"
	}

	if route == "ALL" {
		grouped, err := h.Service.PermissionsAll(r.Context(), adminID)
		if err != nil {
			slog.Error("list permissions failed", "targetAdmin", adminID, "err", err)
			api.ServerError(w, requestID)
			return
		}
		api.Success(w, map[string]any{"adminId": adminID, "granted": grouped}, requestID)
		return
	}

	view, err := h.Service.PermissionsForRoute(r.Context(), adminID, route)
	if err != nil {
		slog.Error("route permissions failed", "targetAdmin", adminID, "route", route, "err", err)
		api.ServerError(w, requestID)
		return
	}
	api.Success(w, view, requestID)
}

// HandleSubmit files access requests for the calling admin. Pairs that
// already have an open request are skipped, not rejected.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	admin, ok := middleware.GetAdmin(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload submitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.Requests) == 0 {
		api.BadRequest(w, "at least one access request is required", requestID)
		return
	}

	created, err := h.Service.Submit(r.Context(), admin.AdminID, payload.Requests)
	if errors.Is(err, access.ErrUnknownRouteAction) {
		api.BadRequest(w, err.Error(), requestID)
		return
	}
	if err != nil {
		slog.Error("submit access requests failed", "adminId", admin.AdminID, "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "request_access", "Submitted access requests")
	api.Created(w, map[string]any{
		"message": "access requests submitted",
		"created": created,
		"skipped": len(payload.Requests) - created,
	}, requestID)
}

func (h *Handler) HandleMyRequests(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	admin, ok := middleware.GetAdmin(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	requests, err := h.Service.MyRequests(r.Context(), admin.AdminID)
	if err != nil {
		slog.Error("list own requests failed", "adminId", admin.AdminID, "err", err)
		api.ServerError(w, requestID)
		return
	}
	api.Success(w, requests, requestID)
}

func (h *Handler) HandlePendingRequests(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	requests, err := h.Service.PendingRequests(r.Context())
	if err != nil {
		slog.Error("list pending requests failed", "err", err)
		api.ServerError(w, requestID)
		return
	}
	api.Success(w, requests, requestID)
}

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	admin, ok := middleware.GetAdmin(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RequestID == "" {
		api.BadRequest(w, "requestId and decision are required", requestID)
		return
	}

	outcome, err := h.Service.Review(r.Context(), payload.RequestID, admin.AdminID, payload.Decision)
	if errors.Is(err, access.ErrInvalidDecision) {
		api.BadRequest(w, err.Error(), requestID)
		return
	}
	if errors.Is(err, access.ErrAlreadyHandled) {
		api.NotFound(w, "Request not found or already handled", requestID)
		return
	}
	if err != nil {
		slog.Error("review request failed", "requestId", payload.RequestID, "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "review_request", "Request "+outcome.RequestID+" "+outcome.Status)
	api.Success(w, outcome, requestID)
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
