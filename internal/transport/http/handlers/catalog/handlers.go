package cataloghandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"staffcore/internal/domain/audit"
	"staffcore/internal/domain/catalog"
	"staffcore/internal/requestctx"
	"staffcore/internal/transport/http/api"
	"staffcore/internal/transport/http/middleware"
)

type Handler struct {
	Store *catalog.Store
	Audit *audit.Service
}

func NewHandler(store *catalog.Store, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Audit: auditSvc}
}

type nameRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type associationRequest struct {
	RouteName  string `json:"route"`
	ActionName string `json:"action"`
}

func (h *Handler) HandleCreateRoute(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload nameRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Name) == "" {
		api.BadRequest(w, "route name is required", requestID)
		return
	}

	route, err := h.Store.CreateRoute(r.Context(), strings.TrimSpace(payload.Name), strings.TrimSpace(payload.Description))
	if errors.Is(err, catalog.ErrDuplicate) {
		api.Fail(w, http.StatusConflict, "duplicate_route", "route name already exists", requestID)
		return
	}
	if err != nil {
		slog.Error("create route failed", "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "add_route", "Added route "+route.RouteName)
	api.Created(w, route, requestID)
}

func (h *Handler) HandleListRoutes(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	routes, err := h.Store.ListRoutes(r.Context())
	if err != nil {
		slog.Error("list routes failed", "err", err)
		api.ServerError(w, requestID)
		return
	}
	api.Success(w, routes, requestID)
}

// HandleDeleteRoute removes the route and everything referencing it:
// associations, grants, and access requests.
func (h *Handler) HandleDeleteRoute(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	routeName := chi.URLParam(r, "name")

	err := h.Store.DeleteRoute(r.Context(), routeName)
	if errors.Is(err, catalog.ErrNotFound) {
		api.NotFound(w, "route not found", requestID)
		return
	}
	if err != nil {
		slog.Error("delete route failed", "route", routeName, "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "delete_route", "Deleted route "+routeName+" with its grants and requests")
	api.Success(w, map[string]string{"deleted": routeName}, requestID)
}

func (h *Handler) HandleUpdateRoute(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	routeName := chi.URLParam(r, "name")

	var payload nameRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Name) == "" {
		api.BadRequest(w, "route name is required", requestID)
		return
	}

	route, err := h.Store.UpdateRoute(r.Context(), routeName,
		strings.TrimSpace(payload.Name), strings.TrimSpace(payload.Description))
	if errors.Is(err, catalog.ErrNotFound) {
		api.NotFound(w, "route not found", requestID)
		return
	}
	if errors.Is(err, catalog.ErrDuplicate) {
		api.Fail(w, http.StatusConflict, "duplicate_route", "route name already exists", requestID)
		return
	}
	if err != nil {
		slog.Error("update route failed", "route", routeName, "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "update_route", "Updated route "+routeName+" to "+route.RouteName)
	api.Success(w, route, requestID)
}

func (h *Handler) HandleCreateAction(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload nameRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Name) == "" {
		api.BadRequest(w, "action name is required", requestID)
		return
	}

	action, err := h.Store.CreateAction(r.Context(), strings.TrimSpace(payload.Name), strings.TrimSpace(payload.Description))
	if errors.Is(err, catalog.ErrDuplicate) {
		api.Fail(w, http.StatusConflict, "duplicate_action", "action name already exists", requestID)
		return
	}
	if err != nil {
		slog.Error("create action failed", "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "add_action", "Added action "+action.ActionName)
	api.Created(w, action, requestID)
}

func (h *Handler) HandleListActions(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	actions, err := h.Store.ListActions(r.Context())
	if err != nil {
		slog.Error("list actions failed", "err", err)
		api.ServerError(w, requestID)
		return
	}
	api.Success(w, actions, requestID)
}

func (h *Handler) HandleUpdateAction(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actionName := chi.URLParam(r, "name")

	var payload nameRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Name) == "" {
		api.BadRequest(w, "action name is required", requestID)
		return
	}

	action, err := h.Store.UpdateAction(r.Context(), actionName,
		strings.TrimSpace(payload.Name), strings.TrimSpace(payload.Description))
	if errors.Is(err, catalog.ErrNotFound) {
		api.NotFound(w, "action not found", requestID)
		return
	}
	if errors.Is(err, catalog.ErrDuplicate) {
		api.Fail(w, http.StatusConflict, "duplicate_action", "action name already exists", requestID)
		return
	}
	if err != nil {
		slog.Error("update action failed", "action", actionName, "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "update_action", "Updated action "+actionName+" to "+action.ActionName)
	api.Success(w, action, requestID)
}

// HandleDeleteAction removes the action and everything referencing it:
// associations, grants, and access requests.
func (h *Handler) HandleDeleteAction(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	actionName := chi.URLParam(r, "name")

	err := h.Store.DeleteAction(r.Context(), actionName)
	if errors.Is(err, catalog.ErrNotFound) {
		api.NotFound(w, "action not found", requestID)
		return
	}
	if err != nil {
		slog.Error("delete action failed", "action", actionName, "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "delete_action", "Deleted action "+actionName+" with its grants and requests")
	api.Success(w, map[string]string{"deleted": actionName}, requestID)
}

func (h *Handler) HandleAssociate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload associationRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RouteName == "" || payload.ActionName == "" {
		api.BadRequest(w, "route and action are required", requestID)
		return
	}

	err := h.Store.AssociateAction(r.Context(), payload.RouteName, payload.ActionName)
	if errors.Is(err, catalog.ErrNotFound) {
		api.NotFound(w, "route or action not found", requestID)
		return
	}
	if err != nil {
		slog.Error("associate action failed", "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "associate_action", "Associated "+payload.ActionName+" with "+payload.RouteName)
	api.Success(w, map[string]string{"route": payload.RouteName, "action": payload.ActionName}, requestID)
}

func (h *Handler) HandleDissociate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload associationRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RouteName == "" || payload.ActionName == "" {
		api.BadRequest(w, "route and action are required", requestID)
		return
	}

	err := h.Store.DissociateAction(r.Context(), payload.RouteName, payload.ActionName)
	if errors.Is(err, catalog.ErrNotFound) {
		api.NotFound(w, "association not found", requestID)
		return
	}
	if err != nil {
		slog.Error("dissociate action failed", "err", err)
		api.ServerError(w, requestID)
		return
	}

	h.record(r, "dissociate_action", "Removed "+payload.ActionName+" from "+payload.RouteName+" with dependent grants")
	api.Success(w, map[string]string{"route": payload.RouteName, "action": payload.ActionName}, requestID)
}

func (h *Handler) HandleRouteActions(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	routeName := chi.URLParam(r, "name")

	actions, err := h.Store.ActionsForRoute(r.Context(), routeName)
	if errors.Is(err, catalog.ErrNotFound) {
		api.NotFound(w, "route not found", requestID)
		return
	}
	if err != nil {
		slog.Error("list route actions failed", "route", routeName, "err", err)
		api.ServerError(w, requestID)
		return
	}

	api.Success(w, map[string]any{"route": routeName, "actions": actions}, requestID)
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
