package access

import "context"

// StoreAPI is the persistence surface the service depends on. Approve and
// Reject own their transactions: the status transition and any resulting
// grant commit or roll back together.
type StoreAPI interface {
	RouteActionExists(ctx context.Context, routeName, actionName string) (bool, error)
	UpsertGrant(ctx context.Context, adminID, routeName, actionName string) error
	DeleteGrants(ctx context.Context, adminID, routeName string, actions []string) (remaining int, err error)
	GrantedActions(ctx context.Context, adminID, routeName string) ([]string, error)
	GrantedByRoute(ctx context.Context, adminID string) (map[string][]string, error)
	RouteActions(ctx context.Context, routeName string) ([]string, error)

	HasOpenRequest(ctx context.Context, adminID, routeName, actionName string) (bool, error)
	InsertRequest(ctx context.Context, adminID, routeName, actionName string) (Request, error)
	RequestsByAdmin(ctx context.Context, adminID string) ([]Request, error)
	PendingRequests(ctx context.Context) ([]PendingRequest, error)
	ApproveRequest(ctx context.Context, requestID, reviewerID string) (ReviewOutcome, bool, error)
	RejectRequest(ctx context.Context, requestID, reviewerID string) (ReviewOutcome, bool, error)
}

var _ StoreAPI = (*Store)(nil)
