package access

import (
	"context"
	"fmt"

	"staffcore/internal/auth"
)

// DecisionNotifier tells a requester about the outcome of their request.
// Implementations must not block.
type DecisionNotifier interface {
	AccessDecision(to, routeName, actionName, status string)
}

type Service struct {
	store    StoreAPI
	notifier DecisionNotifier
}

func NewService(store StoreAPI, notifier DecisionNotifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// Authorize decides whether the admin may perform the required actions on
// the named route. Super admins bypass grant lookup entirely. An empty
// action list fails closed.
func (s *Service) Authorize(ctx context.Context, adminID, role, routeName string, actions []string, mode MatchMode) (bool, error) {
	if role == auth.RoleSuperAdmin {
		return true, nil
	}
	if len(actions) == 0 {
		return false, nil
	}

	granted, err := s.store.GrantedActions(ctx, adminID, routeName)
	if err != nil {
		return false, err
	}
	grantedSet := make(map[string]struct{}, len(granted))
	for _, action := range granted {
		grantedSet[action] = struct{}{}
	}

	switch mode {
	case MatchAll:
		for _, action := range actions {
			if _, ok := grantedSet[action]; !ok {
				return false, nil
			}
		}
		return true, nil
	default:
		for _, action := range actions {
			if _, ok := grantedSet[action]; ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// Grant gives the admin every listed action across the given routes. Each
// pair must already be cataloged; granting is idempotent.
func (s *Service) Grant(ctx context.Context, adminID string, perms []RoutePermissions) error {
	if adminID == "" || len(perms) == 0 {
		return fmt.Errorf("admin id and permissions are required")
	}
	for _, perm := range perms {
		for _, action := range perm.Actions {
			exists, err := s.store.RouteActionExists(ctx, perm.RouteName, action)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("grant %s/%s: %w", perm.RouteName, action, ErrUnknownRouteAction)
			}
			if err := s.store.UpsertGrant(ctx, adminID, perm.RouteName, action); err != nil {
				return err
			}
		}
	}
	return nil
}

// Revoke removes the listed actions and reports whether the admin has any
// grants left on the route.
func (s *Service) Revoke(ctx context.Context, adminID, routeName string, actions []string) (noActionsLeft bool, err error) {
	if adminID == "" || routeName == "" || len(actions) == 0 {
		return false, fmt.Errorf("admin id, route, and actions are required")
	}
	remaining, err := s.store.DeleteGrants(ctx, adminID, routeName, actions)
	if err != nil {
		return false, err
	}
	return remaining == 0, nil
}

// PermissionsAll returns every grant the admin holds, grouped by route.
func (s *Service) PermissionsAll(ctx context.Context, adminID string) (map[string][]string, error) {
	grouped, err := s.store.GrantedByRoute(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if grouped == nil {
		grouped = map[string][]string{}
	}
	return grouped, nil
}

// PermissionsForRoute splits the route's cataloged actions into granted
// and still-available sets for the admin.
func (s *Service) PermissionsForRoute(ctx context.Context, adminID, routeName string) (RoutePermissionView, error) {
	all, err := s.store.RouteActions(ctx, routeName)
	if err != nil {
		return RoutePermissionView{}, err
	}
	granted, err := s.store.GrantedActions(ctx, adminID, routeName)
	if err != nil {
		return RoutePermissionView{}, err
	}

	grantedSet := make(map[string]struct{}, len(granted))
	for _, action := range granted {
		grantedSet[action] = struct{}{}
	}
	available := make([]string, 0, len(all))
	for _, action := range all {
		if _, ok := grantedSet[action]; !ok {
			available = append(available, action)
		}
	}

	return RoutePermissionView{
		RouteName: routeName,
		Available: available,
		Granted:   granted,
	}, nil
}

// Submit files access requests for the admin, skipping pairs that already
// have a pending or approved request. It returns how many were created.
// Every pair must be cataloged: approval turns a request into a grant
// verbatim, so an uncataloged pair must never get past this point.
func (s *Service) Submit(ctx context.Context, adminID string, items []RequestItem) (int, error) {
	if len(items) == 0 {
		return 0, fmt.Errorf("at least one request is required")
	}

	created := 0
	for _, item := range items {
		exists, err := s.store.RouteActionExists(ctx, item.RouteName, item.ActionName)
		if err != nil {
			return created, err
		}
		if !exists {
			return created, fmt.Errorf("request %s/%s: %w", item.RouteName, item.ActionName, ErrUnknownRouteAction)
		}
		open, err := s.store.HasOpenRequest(ctx, adminID, item.RouteName, item.ActionName)
		if err != nil {
			return created, err
		}
		if open {
			continue
		}
		if _, err := s.store.InsertRequest(ctx, adminID, item.RouteName, item.ActionName); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *Service) MyRequests(ctx context.Context, adminID string) ([]Request, error) {
	return s.store.RequestsByAdmin(ctx, adminID)
}

func (s *Service) PendingRequests(ctx context.Context) ([]PendingRequest, error) {
	return s.store.PendingRequests(ctx)
}

// Review applies an approve or reject decision. The status transition is
// guarded: a request that was already decided (or never existed) yields
// ErrAlreadyHandled, so concurrent reviewers cannot double-apply.
func (s *Service) Review(ctx context.Context, requestID, reviewerID, decision string) (ReviewOutcome, error) {
	var (
		outcome ReviewOutcome
		applied bool
		err     error
	)
	switch decision {
	case "approve":
		outcome, applied, err = s.store.ApproveRequest(ctx, requestID, reviewerID)
	case "reject":
		outcome, applied, err = s.store.RejectRequest(ctx, requestID, reviewerID)
	default:
		return ReviewOutcome{}, ErrInvalidDecision
	}
	if err != nil {
		return ReviewOutcome{}, err
	}
	if !applied {
		return ReviewOutcome{}, ErrAlreadyHandled
	}

	if s.notifier != nil {
		s.notifier.AccessDecision(outcome.AdminEmail, outcome.RouteName, outcome.ActionName, outcome.Status)
	}
	return outcome, nil
}
